package contract

import (
	"flashgen/internal/db"
	"flashgen/internal/flashcard"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"time"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	UID    string `json:"uid,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
}

type AuthTelegramRequest struct {
	Query string `json:"query"`
}

type AuthTelegramResponse struct {
	Token string  `json:"token"`
	User  db.User `json:"user"`
}

func (a AuthTelegramRequest) Validate() error {
	if a.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// GenerateRequest is the JSON form of POST /v1/flashcards. File uploads use
// multipart fields "file" and "subject" instead.
type GenerateRequest struct {
	Text    string `json:"text" validate:"required"`
	Subject string `json:"subject" validate:"omitempty,max=64"`
}

type GenerateResponse struct {
	SessionID string           `json:"session_id"`
	Status    flashcard.Status `json:"status"`
	Warning   string           `json:"warning,omitempty"`
	Count     int              `json:"count"`
	Cards     []flashcard.Card `json:"cards"`
}

type SubjectsResponse struct {
	Subjects []string `json:"subjects"`
}

type SessionResponse struct {
	ID         string           `json:"id"`
	Subject    string           `json:"subject"`
	SourceKind string           `json:"source_kind"`
	SourceName string           `json:"source_name,omitempty"`
	Status     flashcard.Status `json:"status"`
	Warning    string           `json:"warning,omitempty"`
	Count      int              `json:"count"`
	Cards      []flashcard.Card `json:"cards"`
	CreatedAt  time.Time        `json:"created_at"`
	ExpiresAt  time.Time        `json:"expires_at"`
}

func NewSessionResponse(s *db.Session, ttl time.Duration) SessionResponse {
	return SessionResponse{
		ID:         s.ID,
		Subject:    s.Subject,
		SourceKind: s.SourceKind,
		SourceName: s.SourceName,
		Status:     s.Status,
		Warning:    s.Warning,
		Count:      len(s.Cards),
		Cards:      s.Cards,
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.CreatedAt.Add(ttl),
	}
}

type PublishResponse struct {
	URL    string `json:"url"`
	Format string `json:"format"`
}
