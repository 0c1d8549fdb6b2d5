package handler

import (
	"errors"
	"flashgen/internal/contract"
	"flashgen/internal/db"
	"fmt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	nanoid "github.com/matoous/go-nanoid/v2"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"net/http"
	"time"
)

const (
	ErrInvalidInitData = "invalid init data"

	initDataTTL = 24 * time.Hour
	tokenTTL    = 24 * time.Hour
)

// TelegramAuth exchanges Telegram Mini App init data for an API token.
func (h *Handler) TelegramAuth(c echo.Context) error {
	var req contract.AuthTelegramRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
	}

	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := initdata.Validate(req.Query, h.botToken, initDataTTL); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidInitData).WithInternal(err)
	}

	data, err := initdata.Parse(req.Query)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidInitData).WithInternal(err)
	}

	user, err := h.saveTelegramUser(c, data.User)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save user").WithInternal(err)
	}

	token, err := generateJWT(user.ID, user.TelegramID, h.jwtSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate JWT").WithInternal(err)
	}

	return c.JSON(http.StatusOK, contract.AuthTelegramResponse{
		Token: token,
		User:  *user,
	})
}

func (h *Handler) saveTelegramUser(c echo.Context, tgUser initdata.User) (*db.User, error) {
	existing, err := h.db.GetUserByTelegramID(c.Request().Context(), tgUser.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	id := nanoid.Must()
	if existing != nil {
		id = existing.ID
	}

	return h.db.SaveUser(c.Request().Context(), &db.User{
		ID:           id,
		TelegramID:   tgUser.ID,
		Username:     optional(tgUser.Username),
		Name:         optional(fullName(tgUser.FirstName, tgUser.LastName)),
		LanguageCode: tgUser.LanguageCode,
	})
}

func generateJWT(userID string, chatID int64, secretKey string) (string, error) {
	claims := &contract.JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
		UID:    userID,
		ChatID: chatID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	t, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", err
	}

	return t, nil
}

func fullName(first, last string) string {
	if last == "" {
		return first
	}
	return fmt.Sprintf("%s %s", first, last)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
