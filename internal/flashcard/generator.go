package flashcard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// MinCards is the card count the prompt asks for. Fewer cards is a warning, not an error.
const MinCards = 10

// Backend is a generative-text service that returns the raw completion for a prompt.
type Backend interface {
	Name() string
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Result is the outcome of one generation call.
//
// StatusPartial means the backend answered with parsable JSON but fewer than
// MinCards valid cards (possibly none). StatusFailed means the backend could
// not be reached or its reply could not be parsed; Err holds the cause.
type Result struct {
	Status  Status
	Cards   []Card
	Warning string
	Err     error
}

type Generator struct {
	backend  Backend
	logger   *slog.Logger
	minCards int
}

func NewGenerator(backend Backend, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		backend:  backend,
		logger:   logger,
		minCards: MinCards,
	}
}

// Generate asks the backend for cards. It never returns an error value and
// never panics; callers inspect Result.Status.
func (g *Generator) Generate(ctx context.Context, req Request) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.ErrorContext(ctx, "backend panicked", "backend", g.backend.Name(), "panic", r)
			res = failed(fmt.Errorf("%w: %v", ErrBackend, r))
		}
	}()

	if strings.TrimSpace(req.Content) == "" {
		return failed(ErrEmptyContent)
	}

	prompt := BuildPrompt(req)

	g.logger.InfoContext(ctx, "requesting flashcards",
		"backend", g.backend.Name(),
		"content_length", len(req.Content),
		"subject", SubjectHint(req.Subject))

	reply, err := g.backend.Complete(ctx, prompt)
	if err != nil {
		g.logger.ErrorContext(ctx, "backend call failed", "backend", g.backend.Name(), "error", err)
		return failed(fmt.Errorf("%w: %v", ErrBackend, err))
	}

	cards, skipped, err := ParseCards(reply)
	if err != nil {
		g.logger.ErrorContext(ctx, "failed to parse backend reply",
			"backend", g.backend.Name(),
			"error", err,
			"raw_response", reply)
		return failed(err)
	}

	for _, item := range skipped {
		g.logger.WarnContext(ctx, "skipping malformed flashcard item",
			"index", item.Index,
			"reason", item.Reason,
			"item", item.Raw)
	}

	if len(cards) < g.minCards {
		warning := fmt.Sprintf("only %d flashcards generated, expected at least %d", len(cards), g.minCards)
		g.logger.WarnContext(ctx, warning, "backend", g.backend.Name())
		return Result{Status: StatusPartial, Cards: cards, Warning: warning}
	}

	g.logger.InfoContext(ctx, "flashcards generated", "backend", g.backend.Name(), "count", len(cards))

	return Result{Status: StatusOK, Cards: cards}
}

func failed(err error) Result {
	return Result{Status: StatusFailed, Cards: []Card{}, Err: err}
}
