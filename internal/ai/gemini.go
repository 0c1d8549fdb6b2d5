package ai

import (
	"context"
	"flashgen/internal/flashcard"
	"fmt"
	"google.golang.org/genai"
	"net/http"
)

type GeminiBackend struct {
	client *genai.Client
	model  string
}

func NewGeminiBackend(ctx context.Context, apiKey, model, baseURL string, httpClient *http.Client) (*GeminiBackend, error) {
	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiBackend{
		client: client,
		model:  model,
	}, nil
}

func (b *GeminiBackend) Name() string { return "gemini" }

// cardsSchema mirrors flashcard.Card so Gemini returns a bare array.
var cardsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {
				Type: genai.TypeString,
			},
			"answer": {
				Type: genai.TypeString,
			},
			"topic": {
				Type:     genai.TypeString,
				Nullable: genai.Ptr(true),
			},
		},
		Required: []string{"question", "answer"},
	},
}

func (b *GeminiBackend) Complete(ctx context.Context, prompt flashcard.Prompt) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: prompt.System}},
		},
		Temperature: genai.Ptr[float32](temperature),
	}

	if prompt.JSON {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = cardsSchema
	}

	result, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt.User), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return result.Text(), nil
}
