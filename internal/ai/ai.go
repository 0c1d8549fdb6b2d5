// Package ai holds the generative model backends behind flashcard.Backend.
package ai

import (
	"context"
	"flashgen/internal/config"
	"flashgen/internal/flashcard"
	"fmt"
	"log/slog"
)

const temperature = 0.7

var defaultModels = map[string]string{
	config.BackendOpenAI:     "gpt-3.5-turbo",
	config.BackendGemini:     "gemini-2.0-flash",
	config.BackendOpenRouter: "openai/gpt-4o-mini",
}

// New builds the backend selected by cfg.Backend. A missing credential is a
// configuration error, reported before any network call.
func New(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (flashcard.Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	apiKey := cfg.APIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key for backend %q", config.ErrConfiguration, cfg.Backend)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModels[cfg.Backend]
	}

	httpClient, err := NewHTTPClient(cfg.Transport)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "llm backend configured",
		"backend", cfg.Backend,
		"model", model,
		"timeout", cfg.Transport.Timeout,
		"no_proxy", cfg.Transport.NoProxy,
	)

	switch cfg.Backend {
	case config.BackendOpenAI:
		return NewOpenAIBackend(apiKey, model, cfg.BaseURL, httpClient), nil
	case config.BackendGemini:
		return NewGeminiBackend(ctx, apiKey, model, cfg.BaseURL, httpClient)
	case config.BackendOpenRouter:
		return NewOpenRouterBackend(apiKey, model, cfg.BaseURL, httpClient), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", config.ErrConfiguration, cfg.Backend)
	}
}
