package ai

import (
	"context"
	"flashgen/internal/flashcard"
	"fmt"
	goopenai "github.com/sashabaranov/go-openai"
	"net/http"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterBackend talks to OpenRouter through its OpenAI-compatible API.
type OpenRouterBackend struct {
	client *goopenai.Client
	model  string
}

func NewOpenRouterBackend(apiKey, model, baseURL string, httpClient *http.Client) *OpenRouterBackend {
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = openRouterBaseURL
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = httpClient

	return &OpenRouterBackend{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (b *OpenRouterBackend) Name() string { return "openrouter" }

func (b *OpenRouterBackend) Complete(ctx context.Context, prompt flashcard.Prompt) (string, error) {
	req := goopenai.ChatCompletionRequest{
		Model: b.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt.User},
		},
		Temperature: temperature,
	}

	if prompt.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openrouter chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter chat completion: no choices in response")
	}

	return resp.Choices[0].Message.Content, nil
}
