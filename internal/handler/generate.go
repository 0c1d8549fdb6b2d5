package handler

import (
	"context"
	"errors"
	"flashgen/internal/content"
	"flashgen/internal/db"
	"flashgen/internal/flashcard"
	"fmt"
)

// errGenerationFailed wraps the cause of a flashcard.StatusFailed result.
var errGenerationFailed = errors.New("flashcard generation failed")

type generateInput struct {
	kind       content.SourceKind
	payload    *content.Payload
	subject    string
	sourceName string
	userID     *string
}

// generate runs normalize, generate and store. Input errors wrap
// content.ErrInput; failed generations wrap errGenerationFailed and are not
// stored.
func (h *Handler) generate(ctx context.Context, in generateInput) (*db.Session, error) {
	text, err := h.normalizer.Normalize(in.kind, in.payload)
	if err != nil {
		return nil, err
	}

	res := h.generator.Generate(ctx, flashcard.Request{
		Content: text,
		Subject: in.subject,
	})

	if res.Status == flashcard.StatusFailed {
		return nil, fmt.Errorf("%w: %w", errGenerationFailed, res.Err)
	}

	session := &db.Session{
		UserID:     in.userID,
		Subject:    in.subject,
		SourceKind: in.kind.String(),
		SourceName: in.sourceName,
		Status:     res.Status,
		Warning:    res.Warning,
		Cards:      res.Cards,
	}

	if err := h.db.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	h.logger.InfoContext(ctx, "session created",
		"session_id", session.ID,
		"status", session.Status,
		"count", len(session.Cards),
		"source_kind", session.SourceKind)

	return session, nil
}
