package main

import (
	"context"
	"errors"
	"flashgen/internal/ai"
	"flashgen/internal/config"
	"flashgen/internal/content"
	"flashgen/internal/db"
	"flashgen/internal/flashcard"
	"flashgen/internal/handler"
	"flashgen/internal/job"
	"flashgen/internal/middleware"
	"flashgen/internal/storage"
	"fmt"
	"github.com/go-playground/validator/v10"
	telegram "github.com/go-telegram/bot"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func main() {
	logr := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(logr); err != nil {
		logr.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logr *slog.Logger) error {
	configFilePath := "config.yml"
	if env := os.Getenv("CONFIG_FILE_PATH"); env != "" {
		configFilePath = env
	}

	cfg, err := config.Load(configFilePath)
	if err != nil {
		return fmt.Errorf("error reading configuration: %w", err)
	}

	ctx := context.Background()

	dbStorage, err := db.ConnectDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbStorage.Close()

	backend, err := ai.New(ctx, cfg.LLM, logr)
	if err != nil {
		return fmt.Errorf("failed to create llm backend: %w", err)
	}

	var storageProvider storage.Provider
	s3Provider, err := storage.NewS3Provider(ctx, cfg.S3Storage)
	switch {
	case errors.Is(err, storage.ErrNotConfigured):
		logr.Info("s3 storage not configured, publishing disabled")
	case err != nil:
		logr.Warn("failed to initialize s3 storage", slog.String("error", err.Error()))
	default:
		storageProvider = s3Provider
	}

	var messenger handler.Messenger
	if cfg.Telegram.BotToken != "" {
		bot, err := setupBot(ctx, cfg.Telegram)
		if err != nil {
			return err
		}
		logr.Info("telegram bot authorized", slog.Int64("bot_id", bot.ID()))
		messenger = bot
	}

	h := handler.New(
		messenger,
		dbStorage,
		flashcard.NewGenerator(backend, logr),
		content.NewNormalizer(content.WithMaxUploadBytes(cfg.MaxUploadBytes())),
		storageProvider,
		handler.Options{
			JWTSecret:  cfg.JWTSecret,
			BotToken:   cfg.Telegram.BotToken,
			SessionTTL: cfg.Session.TTL,
			Logger:     logr,
		},
	)

	e := echo.New()
	middleware.Setup(e, logr)
	// multipart framing on top of the largest accepted file
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB+1)))
	e.Validator = &CustomValidator{validator: validator.New()}

	h.RegisterRoutes(e)

	reaper := job.NewSessionReaper(dbStorage, cfg.Session.TTL, cfg.Session.ReapInterval, logr)
	if err := reaper.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	go func() {
		logr.Info("starting server", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logr.Info("shutting down server")

	reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// bot generations outlive their webhook request
	h.Wait()

	logr.Info("server gracefully stopped")
	return nil
}

func setupBot(ctx context.Context, cfg config.TelegramConfig) (*telegram.Bot, error) {
	bot, err := telegram.New(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	if cfg.ExternalURL == "" {
		return bot, nil
	}

	webhookURL := fmt.Sprintf("%s/webhook", cfg.ExternalURL)
	ok, err := bot.SetWebhook(ctx, &telegram.SetWebhookParams{
		DropPendingUpdates: true,
		URL:                webhookURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to set webhook: telegram rejected %s", webhookURL)
	}

	return bot, nil
}
