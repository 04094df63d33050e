package session

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/do0ori/chytonpide-embedded/pkg/audioio"
	"github.com/do0ori/chytonpide-embedded/pkg/stt"
	"github.com/do0ori/chytonpide-embedded/pkg/vad"
)

const (
	// DefaultCooldown is the pause after an unexpected turn failure.
	DefaultCooldown = 2 * time.Second

	// minUtteranceDuration filters clicks and pops that slipped past the
	// segmenter's minimum-speech rule.
	minUtteranceDuration = 200 * time.Millisecond
)

// Runner drives a Session from live audio. It runs the capture,
// recognize, decide, dispatch cycle until an exit command, end of
// input, or cancellation.
type Runner struct {
	session    *Session
	source     audioio.Source
	segmenter  *vad.Segmenter
	recognizer stt.Provider
	logger     *slog.Logger
	cooldown   time.Duration
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCooldown overrides the pause after an unexpected turn failure.
func WithCooldown(d time.Duration) RunnerOption {
	return func(r *Runner) { r.cooldown = d }
}

// WithRunnerLogger sets the structured logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner wires a Session to its audio front end.
func NewRunner(sess *Session, source audioio.Source, segmenter *vad.Segmenter, recognizer stt.Provider, opts ...RunnerOption) *Runner {
	r := &Runner{
		session:    sess,
		source:     source,
		segmenter:  segmenter,
		recognizer: recognizer,
		logger:     slog.Default(),
		cooldown:   DefaultCooldown,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "session.runner")
	return r
}

// Run blocks until an exit command, stream end, or context cancellation.
// Each iteration is recovered individually: an unexpected failure logs,
// cools down and continues, so the assistant survives indefinitely.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.source.Start(ctx); err != nil {
		return err
	}
	defer func() {
		r.source.Stop()
		r.source.Close()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		done, err := r.turn(ctx)
		if done {
			return nil
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.logger.Error("turn failed", "error", err)
			select {
			case <-time.After(r.cooldown):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// turn runs one listening cycle. done is true on exit command or when the
// audio stream is exhausted.
func (r *Runner) turn(ctx context.Context) (done bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New("turn panicked")
			r.logger.Error("recovered from panic", "panic", rec, "stack", string(debug.Stack()))
		}
	}()

	// Timeout is polled only here, while idle, never mid-response.
	r.session.CheckTimeout()

	logger := r.logger.With("turn_id", uuid.NewString(), "mode", string(r.session.Mode()))
	logger.Debug("listening")

	utterance, err := r.segmenter.Listen(ctx, r.source)
	if err != nil {
		return false, err
	}
	if utterance == nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// A live microphone never runs dry, so a nil utterance means the
		// stream itself ended (replayed audio, closed device).
		logger.Debug("audio stream ended")
		return true, nil
	}
	if utterance.Duration < minUtteranceDuration {
		logger.Debug("utterance too short", "duration", utterance.Duration)
		return false, nil
	}

	text, err := r.recognizer.Recognize(ctx, utterance.Bytes(), r.session.cfg.STTLanguage)
	if err != nil {
		// Recognition failure is "no input this cycle", not a loop error.
		logger.Warn("recognition failed", "error", err)
		return false, nil
	}
	if text == "" {
		logger.Debug("nothing recognized")
		return false, nil
	}
	logger.Info("recognized", "text", text)

	outcome := r.session.HandleText(ctx, text)
	return outcome.Kind == OutcomeExit, nil
}
