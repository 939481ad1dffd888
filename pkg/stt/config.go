package stt

import (
	"log/slog"
	"time"
)

// Config holds STT provider configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// BaseURL of the transcription sidecar.
	BaseURL string

	// Language hint passed to the model.
	Language string

	// BeamSize for decoding.
	BeamSize int

	// VADFilter enables voice-activity filtering in the model.
	VADFilter bool

	// ModelRate is the sample rate the model expects; input at other
	// rates is resampled before submission.
	ModelRate int

	// Timeout for transcription requests.
	Timeout time.Duration

	// Retry configuration
	MaxRetries int
	RetryDelay time.Duration

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring STT providers.
type Option func(*Config)

// WithBaseURL sets the sidecar base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithLanguage sets the language hint.
func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.Language = lang
	}
}

// WithBeamSize sets the decoding beam size.
func WithBeamSize(size int) Option {
	return func(c *Config) {
		c.BeamSize = size
	}
}

// WithVADFilter toggles the model's voice-activity filter.
func WithVADFilter(enabled bool) Option {
	return func(c *Config) {
		c.VADFilter = enabled
	}
}

// WithModelRate sets the sample rate the model expects.
func WithModelRate(rate int) Option {
	return func(c *Config) {
		c.ModelRate = rate
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

// WithLogger sets the structured logger for the provider.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8090",
		Language:   "en",
		BeamSize:   5,
		VADFilter:  true,
		ModelRate:  16000,
		Timeout:    60 * time.Second,
		MaxRetries: 2,
		RetryDelay: 100 * time.Millisecond,
		Logger:     slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}
