package llm

import (
	"context"
	"time"

	"github.com/ppiankov/leakprobe/internal/model"
)

// Provider defines the interface for semantic judge backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Judge returns a verdict for each item the model answered.
	// Entries the model omitted or garbled are dropped, not reported as errors.
	Judge(ctx context.Context, items []model.JudgeItem) ([]model.ValidationVerdict, error)

	// CheckAvailable returns an error when the backend cannot be reached
	// with the configured credentials
	CheckAvailable(ctx context.Context) error
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for a single judge call
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Attempts per batch, including the first
	MaxRetries     int
	RetryBaseDelay time.Duration

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:       "", // Disabled by default
		Timeout:        30,
		MaxTokens:      2000,
		MaxRetries:     3,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return 2000
	}
	return c.MaxTokens
}
