package handler

import (
	"context"
	"flashgen/internal/content"
	"flashgen/internal/contract"
	"flashgen/internal/db"
	"flashgen/internal/flashcard"
	"flashgen/internal/middleware"
	"flashgen/internal/storage"
	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Messenger is the part of the Telegram client the bot handlers use.
type Messenger interface {
	SendMessage(ctx context.Context, params *telegram.SendMessageParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *telegram.SendDocumentParams) (*models.Message, error)
	GetFile(ctx context.Context, params *telegram.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

type Options struct {
	JWTSecret  string
	BotToken   string
	SessionTTL time.Duration
	Logger     *slog.Logger
	HTTPClient *http.Client
}

type Handler struct {
	bot             Messenger
	db              *db.Storage
	generator       *flashcard.Generator
	normalizer      *content.Normalizer
	storageProvider storage.Provider
	jwtSecret       string
	botToken        string
	sessionTTL      time.Duration
	logger          *slog.Logger
	httpClient      *http.Client
	jobs            sync.WaitGroup
}

// New wires the HTTP and bot handlers. bot and storageProvider may be nil,
// which disables the webhook and publishing respectively.
func New(
	bot Messenger,
	db *db.Storage,
	generator *flashcard.Generator,
	normalizer *content.Normalizer,
	storageProvider storage.Provider,
	opts Options,
) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}

	return &Handler{
		bot:             bot,
		db:              db,
		generator:       generator,
		normalizer:      normalizer,
		storageProvider: storageProvider,
		jwtSecret:       opts.JWTSecret,
		botToken:        opts.BotToken,
		sessionTTL:      opts.SessionTTL,
		logger:          opts.Logger,
		httpClient:      opts.HTTPClient,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	if h.bot != nil {
		e.POST("/webhook", h.HandleWebhook)
	}

	if h.botToken != "" && h.jwtSecret != "" {
		e.POST("/auth/telegram", h.TelegramAuth)
	}

	v1 := e.Group("/v1")

	v1.Use(middleware.UserAuth(h.jwtSecret))

	v1.GET("/subjects", h.GetSubjects)
	v1.POST("/flashcards", h.GenerateFlashcards)

	v1.GET("/sessions", h.ListSessions)
	v1.GET("/sessions/:id", h.GetSession)
	v1.GET("/sessions/:id/export", h.ExportSession)
	v1.POST("/sessions/:id/publish", h.PublishSession)
}

// Wait blocks until background bot jobs have finished.
func (h *Handler) Wait() {
	h.jobs.Wait()
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.db.Health(); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable").WithInternal(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func GetUserIDFromToken(c echo.Context) (string, error) {
	user, ok := c.Get("user").(*jwt.Token)
	if !ok || user == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	claims, ok := user.Claims.(*contract.JWTClaims)
	if !ok || claims == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	return claims.UID, nil
}

// currentUserID is nil when the API runs without authentication.
func currentUserID(c echo.Context) *string {
	uid, err := GetUserIDFromToken(c)
	if err != nil || uid == "" {
		return nil
	}
	return &uid
}
