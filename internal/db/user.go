package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type User struct {
	ID           string    `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Username     *string   `json:"username"`
	Name         *string   `json:"name"`
	LanguageCode string    `json:"language_code"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Storage) GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	var user User
	query := `SELECT id, telegram_id, username, name, language_code, created_at FROM users WHERE telegram_id = ?`
	err := s.db.QueryRowContext(ctx, query, telegramID).Scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.Name,
		&user.LanguageCode,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return &user, nil
}

// SaveUser inserts the user or, when the Telegram ID is already known,
// refreshes its profile fields. The stored row is returned.
func (s *Storage) SaveUser(ctx context.Context, user *User) (*User, error) {
	if user.LanguageCode == "" {
		user.LanguageCode = "en"
	}

	query := `
		INSERT INTO users
		    (id, telegram_id, username, name, language_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (telegram_id) DO UPDATE SET
		    username = excluded.username,
		    name = excluded.name,
		    language_code = excluded.language_code`

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.TelegramID, user.Username, user.Name, user.LanguageCode, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("error saving user: %w", err)
	}

	return s.GetUserByTelegramID(ctx, user.TelegramID)
}
