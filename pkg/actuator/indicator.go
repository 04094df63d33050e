package actuator

import (
	"context"
	"log/slog"
	"time"
)

// DefaultIndicatorTimeout bounds one listening-light toggle.
const DefaultIndicatorTimeout = 5 * time.Second

// Indicator drives the listening light around audio capture: on when
// speech starts, off when the utterance completes. Toggles run on a
// single background worker so they never block the capture loop, apply
// in order, and swallow relay failures.
type Indicator struct {
	relay   DeviceRelay
	timeout time.Duration
	logger  *slog.Logger
	states  chan bool
}

// IndicatorOption configures an Indicator.
type IndicatorOption func(*Indicator)

// WithIndicatorTimeout bounds each toggle call.
func WithIndicatorTimeout(d time.Duration) IndicatorOption {
	return func(i *Indicator) { i.timeout = d }
}

// WithIndicatorLogger sets the structured logger.
func WithIndicatorLogger(logger *slog.Logger) IndicatorOption {
	return func(i *Indicator) { i.logger = logger }
}

// NewIndicator starts the indicator worker over a device relay.
func NewIndicator(relay DeviceRelay, opts ...IndicatorOption) *Indicator {
	i := &Indicator{
		relay:   relay,
		timeout: DefaultIndicatorTimeout,
		logger:  slog.Default(),
		states:  make(chan bool, 8),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With("component", "actuator.indicator")

	go i.run()
	return i
}

// On queues lighting the indicator. Never blocks.
func (i *Indicator) On() { i.set(true) }

// Off queues dousing the indicator. Never blocks.
func (i *Indicator) Off() { i.set(false) }

func (i *Indicator) set(on bool) {
	select {
	case i.states <- on:
	default:
		i.logger.Warn("indicator toggle dropped, relay too slow", "on", on)
	}
}

func (i *Indicator) run() {
	for on := range i.states {
		ctx, cancel := context.WithTimeout(context.Background(), i.timeout)
		if err := i.relay.SetLED(ctx, on); err != nil {
			i.logger.Warn("indicator toggle failed", "on", on, "error", err)
		}
		cancel()
	}
}

// Close stops the worker. Pending toggles are still applied.
func (i *Indicator) Close() { close(i.states) }
