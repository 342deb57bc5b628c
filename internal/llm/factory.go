package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/leakprobe/internal/model"
)

// NewProvider creates a judge provider based on configuration, wrapped with
// retries. An empty provider name disables the judge and returns nil.
func NewProvider(config Config) (Provider, error) {
	var (
		provider Provider
		err      error
	)

	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "openai":
		provider, err = NewOpenAIProvider(config)

	case "anthropic", "claude":
		provider, err = NewAnthropicProvider(config)

	case "ollama":
		provider, err = NewOllamaProvider(config)

	case "", "none":
		// No provider configured - judge disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	if config.MaxRetries > 1 {
		provider = WithRetry(provider, config.MaxRetries, config.RetryBaseDelay)
	}
	return provider, nil
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:       modelConfig.Provider,
		Model:          modelConfig.Model,
		APIKey:         modelConfig.APIKey,
		BaseURL:        modelConfig.BaseURL,
		Timeout:        modelConfig.Timeout,
		MaxTokens:      modelConfig.MaxTokens,
		MaxRetries:     modelConfig.MaxRetries,
		RetryBaseDelay: modelConfig.RetryBaseDelay,
		HTTPProxy:      modelConfig.HTTPProxy,
		HTTPSProxy:     modelConfig.HTTPSProxy,
		NoProxy:        modelConfig.NoProxy,
	}
}
