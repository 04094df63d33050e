package tts

import (
	"log/slog"
	"time"

	"github.com/do0ori/chytonpide-embedded/pkg/audioio"
)

// Config holds TTS provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// Provider credentials
	APIKey  string
	BaseURL string

	// Voice configuration
	VoiceID  string
	ModelID  string
	Language string

	// Audio output container ("wav" or "mp3").
	OutputFormat string

	// Timeouts
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Playback
	Player audioio.Player

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring TTS providers.
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

// WithVoice sets the voice ID.
func WithVoice(voiceID string) Option {
	return func(c *Config) {
		c.VoiceID = voiceID
	}
}

// WithModel sets the model ID.
func WithModel(modelID string) Option {
	return func(c *Config) {
		c.ModelID = modelID
	}
}

// WithLanguage sets the synthesis language code (e.g. "ko").
func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.Language = lang
	}
}

// WithOutputFormat sets the audio container format.
func WithOutputFormat(format string) Option {
	return func(c *Config) {
		c.OutputFormat = format
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetry configures retry behavior for failed requests.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithPlayer sets the audio player used by Speak.
func WithPlayer(p audioio.Player) Option {
	return func(c *Config) {
		c.Player = p
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
		ModelID:      ModelSonaSpeech1,
		Language:     "ko",
		OutputFormat: FormatWAV,
		Timeout:      30 * time.Second,
		MaxRetries:   2,
		RetryDelay:   200 * time.Millisecond,
		Logger:       slog.Default(),
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
	if c.VoiceID == "" {
		return ErrNoVoiceID
	}
	return nil
}
