package agent

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider uses the chat completions API with a single user message.
type OpenAIProvider struct {
	client      *openai.Client
	configured  bool
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAIProvider(apiKey, model string, maxTokens int, temperature float32) *OpenAIProvider {
	return NewOpenAIProviderWithConfig(openai.DefaultConfig(apiKey), apiKey != "", model, maxTokens, temperature)
}

func NewOpenAIProviderWithConfig(cfg openai.ClientConfig, configured bool, model string, maxTokens int, temperature float32) *OpenAIProvider {
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(cfg),
		configured:  configured,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (o *OpenAIProvider) Name() string { return "openai" }

func (o *OpenAIProvider) Configured() bool { return o.configured }

func (o *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if !o.configured {
		return "", fmt.Errorf("openai: OPENAI_API_KEY not set: %w", ErrNotConfigured)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   o.maxTokens,
		Temperature: o.temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
