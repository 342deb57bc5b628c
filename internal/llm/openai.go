package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/leakprobe/internal/model"
)

// OpenAIProvider implements the Provider interface for OpenAI models
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = newHTTPClient(config, 30*time.Second)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// CheckAvailable lists models, the cheapest authenticated call
func (p *OpenAIProvider) CheckAvailable(ctx context.Context) error {
	if _, err := p.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai api check: %w", err)
	}
	return nil
}

// Judge asks the chat completions API for verdicts in JSON mode
func (p *OpenAIProvider) Judge(ctx context.Context, items []model.JudgeItem) ([]model.ValidationVerdict, error) {
	if len(items) == 0 {
		return nil, nil
	}

	modelName := p.config.Model
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.timeout(30*time.Second))
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: judgeSystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildJudgePrompt(items),
			},
		},
		MaxTokens:   p.config.maxTokens(),
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	verdicts, err := ParseVerdicts(strings.TrimSpace(resp.Choices[0].Message.Content))
	if err != nil {
		return nil, fmt.Errorf("OpenAI judge response: %w", err)
	}
	return verdicts, nil
}

func classifyOpenAIError(err error) error {
	wrapped := fmt.Errorf("OpenAI API error: %w", err)

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.HTTPStatusCode, wrapped)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(reqErr.HTTPStatusCode, wrapped)
	}
	return wrapped
}
