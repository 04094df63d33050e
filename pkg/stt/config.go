package stt

import (
	"log/slog"
	"time"
)

// Config holds STT provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey  string
	BaseURL string

	// Audio input format
	SampleRate int
	Channels   int

	// Hints bias recognition toward expected vocabulary.
	Hints Hints

	// Timeouts
	Timeout time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring STT providers.
type Option func(*Config)

// WithAPIKey sets the API key for the provider.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithSampleRate sets the input audio sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// WithHints sets phrase hints passed to recognition.
func WithHints(hints Hints) Option {
	return func(c *Config) {
		c.Hints = hints
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		SampleRate: 16000,
		Channels:   1,
		Timeout:    15 * time.Second,
		Logger:     slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
