package inference

import (
	"log/slog"
	"time"
)

// Config holds provider configuration.
type Config struct {
	// Connection
	BaseURL string // API base URL
	APIKey  string // API key (optional for local providers)

	// Azure mode: when AzureEndpoint is set the client targets an Azure
	// OpenAI deployment instead of an OpenAI-compatible /v1 surface.
	AzureEndpoint   string
	AzureAPIVersion string

	// Models
	Model string // Default chat model (deployment name in Azure mode)

	// Request defaults
	MaxTokens   int
	Temperature float64

	// Timeouts
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring providers.
type Option func(*Config)

// WithBaseURL sets the API base URL.
// Examples: "https://api.openai.com/v1", "http://localhost:11434/v1"
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithAzure targets an Azure OpenAI endpoint. The model name is treated as
// the deployment name.
func WithAzure(endpoint, apiVersion string) Option {
	return func(c *Config) {
		c.AzureEndpoint = endpoint
		if apiVersion != "" {
			c.AzureAPIVersion = apiVersion
		}
	}
}

// WithModel sets the default chat model.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithMaxTokens sets the default max tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithTemperature sets the default temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry configures retry behavior.
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// DefaultConfig returns sensible defaults for OpenAI.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:         "https://api.openai.com/v1",
		AzureAPIVersion: "2024-12-01-preview",
		Model:           "gpt-4o",
		MaxTokens:       1024,
		Temperature:     0.7,
		Timeout:         30 * time.Second,
		MaxRetries:      3,
		RetryDelay:      100 * time.Millisecond,
		Logger:          slog.Default(),
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
	// API key is optional for local providers like Ollama
	if c.AzureEndpoint != "" && c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}
