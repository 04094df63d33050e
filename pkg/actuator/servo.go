package actuator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ErrNoServoScript is returned when no servo script could be located.
var ErrNoServoScript = errors.New("actuator: servo script not found")

// DefaultShakeTimeout bounds one shake cycle. The script normally finishes
// in a few seconds; a wedged motor must not hang the worker forever.
const DefaultShakeTimeout = 30 * time.Second

// servoSearchPaths are tried in order when no explicit script is configured.
var servoSearchPaths = []string{
	"servo/examples/plant_shaker.py",
	"../servo/examples/plant_shaker.py",
	"~/chytonpide/servo/examples/plant_shaker.py",
	"/home/pi/chytonpide/servo/examples/plant_shaker.py",
}

// ScriptServo runs the plant shaker as an external script.
type ScriptServo struct {
	script  string
	python  string
	timeout time.Duration
	logger  *slog.Logger
}

// ServoOption configures a ScriptServo.
type ServoOption func(*ScriptServo)

// WithShakeTimeout overrides the per-shake timeout.
func WithShakeTimeout(d time.Duration) ServoOption {
	return func(s *ScriptServo) {
		s.timeout = d
	}
}

// WithPython overrides the interpreter used to run the script.
func WithPython(path string) ServoOption {
	return func(s *ScriptServo) {
		s.python = path
	}
}

// WithServoLogger sets the structured logger.
func WithServoLogger(logger *slog.Logger) ServoOption {
	return func(s *ScriptServo) {
		s.logger = logger
	}
}

// NewScriptServo creates a servo runner for the given script. An empty
// script path triggers a search through the conventional install locations.
func NewScriptServo(script string, opts ...ServoOption) (*ScriptServo, error) {
	s := &ScriptServo{
		script:  script,
		python:  "python3",
		timeout: DefaultShakeTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "actuator.servo")

	if s.script == "" {
		s.script = findServoScript()
	}
	if s.script == "" {
		return nil, ErrNoServoScript
	}
	if _, err := os.Stat(s.script); err != nil {
		return nil, fmt.Errorf("actuator: servo script %s: %w", s.script, err)
	}
	return s, nil
}

// Shake runs one shake cycle.
func (s *ScriptServo) Shake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, s.python, s.script)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("actuator: servo shake timed out after %s", s.timeout)
		}
		return fmt.Errorf("actuator: servo shake: %w: %s", err, out)
	}

	s.logger.Info("servo shake complete", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func findServoScript() string {
	home, _ := os.UserHomeDir()
	for _, p := range servoSearchPaths {
		if len(p) > 1 && p[0] == '~' {
			if home == "" {
				continue
			}
			p = filepath.Join(home, p[2:])
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
	}
	return ""
}

var _ Servo = (*ScriptServo)(nil)
