package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flashgen/internal/flashcard"
	"fmt"
	nanoid "github.com/matoous/go-nanoid/v2"
	"time"
)

// Session holds the cards of one generation run for later export.
type Session struct {
	ID         string           `json:"id"`
	UserID     *string          `json:"user_id,omitempty"`
	Subject    string           `json:"subject"`
	SourceKind string           `json:"source_kind"`
	SourceName string           `json:"source_name,omitempty"`
	Status     flashcard.Status `json:"status"`
	Warning    string           `json:"warning,omitempty"`
	Cards      []flashcard.Card `json:"cards"`
	CreatedAt  time.Time        `json:"created_at"`
}

// CreateSession assigns an ID and creation time and stores the session.
func (s *Storage) CreateSession(ctx context.Context, session *Session) error {
	id, err := nanoid.New()
	if err != nil {
		return fmt.Errorf("error generating session id: %w", err)
	}

	cards := session.Cards
	if cards == nil {
		cards = []flashcard.Card{}
	}

	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("error encoding cards: %w", err)
	}

	createdAt := time.Now().UTC()

	query := `
		INSERT INTO sessions
		    (id, user_id, subject, source_kind, source_name, status, warning, cards, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		id,
		session.UserID,
		session.Subject,
		session.SourceKind,
		session.SourceName,
		string(session.Status),
		session.Warning,
		string(cardsJSON),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("error saving session: %w", err)
	}

	session.ID = id
	session.Cards = cards
	session.CreatedAt = createdAt

	return nil
}

const sessionColumns = `id, user_id, subject, source_kind, source_name, status, warning, cards, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		session   Session
		status    string
		cardsJSON string
	)

	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Subject,
		&session.SourceKind,
		&session.SourceName,
		&status,
		&session.Warning,
		&cardsJSON,
		&session.CreatedAt,
	); err != nil {
		return nil, err
	}

	session.Status = flashcard.Status(status)

	if err := json.Unmarshal([]byte(cardsJSON), &session.Cards); err != nil {
		return nil, fmt.Errorf("error decoding cards of session %s: %w", session.ID, err)
	}

	return &session, nil
}

func (s *Storage) GetSession(ctx context.Context, id string) (*Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	return session, nil
}

// ListSessions returns the user's sessions, newest first.
func (s *Storage) ListSessions(ctx context.Context, userID string, limit int) ([]Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, nil
}

// DeleteExpiredSessions removes sessions created before cutoff and returns
// how many were deleted.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("error deleting expired sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error counting deleted sessions: %w", err)
	}

	return n, nil
}
