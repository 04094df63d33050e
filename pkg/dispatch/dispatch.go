// Package dispatch fans a finalized assistant reply out to speech and
// actuators.
//
// The foreground path speaks the reply and blocks until playback ends; the
// background path fires best-effort actuator actions (servo, LED, LCD face)
// that never block or fail the conversational turn. A reply matched in the
// audio mapping plays a pre-rendered file instead of calling TTS.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/do0ori/chytonpide-embedded/pkg/actuator"
	"github.com/do0ori/chytonpide-embedded/pkg/audiomap"
	"github.com/do0ori/chytonpide-embedded/pkg/audioio"
	"github.com/do0ori/chytonpide-embedded/pkg/keyword"
	"github.com/do0ori/chytonpide-embedded/pkg/tts"
)

const (
	// DefaultActionTimeout bounds each background actuator action.
	DefaultActionTimeout = 10 * time.Second

	// DefaultMappedAudioDelay is how long playback of a pre-rendered file
	// waits after the servo starts, so motion and audio line up.
	DefaultMappedAudioDelay = time.Second

	defaultWorkerLimit = 8
)

// Dispatcher routes one finalized reply to speech and side effects.
// Relay, servo and player are optional; a nil collaborator simply disables
// that effect.
type Dispatcher struct {
	tts    tts.Provider
	relay  actuator.DeviceRelay
	servo  actuator.Servo
	player audioio.Player
	pool   *actuator.Pool
	logger *slog.Logger

	actionTimeout time.Duration
	mappedDelay   time.Duration
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRelay enables LED and face actions through the device relay.
func WithRelay(relay actuator.DeviceRelay) Option {
	return func(d *Dispatcher) { d.relay = relay }
}

// WithServo enables the plant-shake action.
func WithServo(servo actuator.Servo) Option {
	return func(d *Dispatcher) { d.servo = servo }
}

// WithPlayer enables pre-rendered audio playback for mapped replies.
func WithPlayer(player audioio.Player) Option {
	return func(d *Dispatcher) { d.player = player }
}

// WithPool sets the background worker pool.
func WithPool(pool *actuator.Pool) Option {
	return func(d *Dispatcher) { d.pool = pool }
}

// WithActionTimeout bounds each background action.
func WithActionTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.actionTimeout = timeout }
}

// WithMappedAudioDelay overrides the servo-to-audio delay for mapped replies.
func WithMappedAudioDelay(delay time.Duration) Option {
	return func(d *Dispatcher) { d.mappedDelay = delay }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// New creates a Dispatcher speaking through the given TTS provider.
func New(provider tts.Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		tts:           provider,
		logger:        slog.Default(),
		actionTimeout: DefaultActionTimeout,
		mappedDelay:   DefaultMappedAudioDelay,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.pool == nil {
		d.pool = actuator.NewPool(defaultWorkerLimit, d.logger)
	}
	d.logger = d.logger.With("component", "dispatch")
	return d
}

// Classify derives the speech delivery from the user's input: a distressed
// user gets the subdued sad voice, everyone else the neutral default.
func Classify(userText string) tts.SpeechOptions {
	if keyword.IsSadTone(userText) {
		return tts.SadSpeechOptions()
	}
	return tts.DefaultSpeechOptions()
}

// Dispatch speaks the reply and fires background actuators. It reports
// whether speech playback succeeded; a false return still counts as a
// completed turn for the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, userText, reply string) bool {
	opts := Classify(userText)

	d.startActuators(userText, reply)

	if err := d.tts.Speak(ctx, reply, opts); err != nil {
		d.logger.Warn("speech failed", "error", err)
		return false
	}
	return true
}

// DispatchMapped plays a pre-rendered audio file for a reply matched in the
// audio mapping, skipping TTS entirely. The servo starts first; playback is
// delayed so the motion is underway when the audio lands.
func (d *Dispatcher) DispatchMapped(ctx context.Context, userText string, entry audiomap.Entry) bool {
	d.startActuators(userText, entry.ResponseText)

	if d.player == nil {
		d.logger.Warn("no player for mapped audio", "path", entry.AudioPath)
		return false
	}

	select {
	case <-time.After(d.mappedDelay):
	case <-ctx.Done():
		return false
	}

	if err := d.player.PlayFile(ctx, entry.AudioPath); err != nil {
		d.logger.Warn("mapped audio playback failed", "path", entry.AudioPath, "error", err)
		return false
	}
	return true
}

// Say speaks a fixed phrase in the neutral voice with no actuator fan-out.
// Used for acknowledgements, farewells and apologies.
func (d *Dispatcher) Say(ctx context.Context, text string) bool {
	if err := d.tts.Speak(ctx, text, tts.DefaultSpeechOptions()); err != nil {
		d.logger.Warn("speech failed", "error", err)
		return false
	}
	return true
}

// Shutdown drains in-flight actuator actions.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	return d.pool.Shutdown(ctx)
}

// startActuators fires the background side effects for one turn: servo from
// the user's words, LED and face from the reply's words.
func (d *Dispatcher) startActuators(userText, reply string) {
	if d.servo != nil && keyword.HasServoTrigger(userText) {
		d.background("servo.shake", func(ctx context.Context) error {
			return d.servo.Shake(ctx)
		})
	}

	if d.relay == nil {
		return
	}

	if on, ok := keyword.DetectLED(userText); ok {
		d.background("relay.led", func(ctx context.Context) error {
			return d.relay.SetLED(ctx, on)
		})
	}

	if emotion := keyword.DetectEmotion(reply); emotion != "" {
		d.background("relay.face", func(ctx context.Context) error {
			return d.relay.SetFace(ctx, emotion)
		})
	}
}

// background runs fn detached from the turn with its own deadline, so an
// in-flight action survives the turn but not a stuck peripheral.
func (d *Dispatcher) background(name string, fn func(ctx context.Context) error) {
	err := d.pool.Go(context.Background(), name, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, d.actionTimeout)
		defer cancel()
		return fn(ctx)
	})
	if err != nil {
		d.logger.Warn("skipping actuator action", "action", name, "error", err)
	}
}
