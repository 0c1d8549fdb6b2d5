package handler

import (
	"bytes"
	"context"
	"errors"
	"flashgen/internal/content"
	"flashgen/internal/db"
	"flashgen/internal/export"
	"flashgen/internal/flashcard"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/labstack/echo/v4"
	nanoid "github.com/matoous/go-nanoid/v2"
	"io"
	"net/http"
	"strings"
	"time"
)

const botJobTimeout = 5 * time.Minute

var helpText = fmt.Sprintf(`Send me study notes as a message, or upload a .txt or .pdf file, and I will turn them into flashcards.

To tailor the questions, start your message with a line like "Subject: Biology", or put the subject in the file caption.

Subjects: %s

Commands:
/help - show this message
/subjects - list subjects`, strings.Join(flashcard.Subjects, ", "))

func (h *Handler) HandleWebhook(c echo.Context) error {
	var update tgbotapi.Update
	if err := c.Bind(&update); err != nil {
		h.logger.Warn("failed to bind update", "error", err)
		return c.NoContent(http.StatusBadRequest)
	}

	if update.Message == nil {
		return c.NoContent(http.StatusOK)
	}

	ctx := c.Request().Context()
	resp, job := h.handleUpdate(ctx, update)
	if resp != nil && resp.Text != "" {
		if _, err := h.bot.SendMessage(ctx, resp); err != nil {
			h.logger.ErrorContext(ctx, "failed to send message", "error", err)
		}
	}

	// the acknowledgement goes out before the job can reply
	if job != nil {
		h.startJob(job)
	}

	return c.NoContent(http.StatusOK)
}

// handleUpdate returns the immediate reply and, for generation requests, the
// job that produces the flashcards.
func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) (*telegram.SendMessageParams, func(ctx context.Context)) {
	message := update.Message

	var chatID int64
	if message.Chat != nil {
		chatID = message.Chat.ID
	} else if message.From != nil {
		chatID = message.From.ID
	}

	msg := &telegram.SendMessageParams{ChatID: chatID}
	userID := h.registerBotUser(ctx, message.From)

	if message.IsCommand() {
		switch message.Command() {
		case "start", "help":
			msg.Text = helpText
		case "subjects":
			msg.Text = "Available subjects:\n" + strings.Join(flashcard.Subjects, "\n")
		default:
			msg.Text = "Unknown command. Use /help to see what I can do."
		}
		return msg, nil
	}

	if doc := message.Document; doc != nil {
		if !content.IsSupportedFile(doc.FileName) {
			msg.Text = "Only .txt and .pdf files are supported."
			return msg, nil
		}

		subject, _ := splitSubject(message.Caption, true)

		msg.Text = fmt.Sprintf("Reading %s and generating flashcards...", doc.FileName)
		return msg, func(ctx context.Context) {
			h.processDocument(ctx, chatID, userID, doc.FileID, doc.FileName, subject)
		}
	}

	if strings.TrimSpace(message.Text) != "" {
		subject, body := splitSubject(message.Text, false)

		msg.Text = "Generating flashcards..."
		return msg, func(ctx context.Context) {
			h.processGeneration(ctx, chatID, generateInput{
				kind:    content.DirectPaste,
				payload: &content.Payload{Text: body},
				subject: subject,
				userID:  userID,
			})
		}
	}

	msg.Text = "Send me some text or a .txt/.pdf file to create flashcards."
	return msg, nil
}

func (h *Handler) startJob(job func(ctx context.Context)) {
	h.jobs.Add(1)
	go func() {
		defer h.jobs.Done()

		ctx, cancel := context.WithTimeout(context.Background(), botJobTimeout)
		defer cancel()

		job(ctx)
	}()
}

func (h *Handler) registerBotUser(ctx context.Context, from *tgbotapi.User) *string {
	if from == nil {
		return nil
	}

	id := nanoid.Must()
	if existing, err := h.db.GetUserByTelegramID(ctx, from.ID); err == nil {
		id = existing.ID
	} else if !errors.Is(err, db.ErrNotFound) {
		h.logger.ErrorContext(ctx, "failed to get user", "telegram_id", from.ID, "error", err)
		return nil
	}

	user, err := h.db.SaveUser(ctx, &db.User{
		ID:           id,
		TelegramID:   from.ID,
		Username:     optional(from.UserName),
		Name:         optional(fullName(from.FirstName, from.LastName)),
		LanguageCode: from.LanguageCode,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to save user", "telegram_id", from.ID, "error", err)
		return nil
	}

	return &user.ID
}

// splitSubject pulls an optional "Subject: X" first line off text. A caption
// may also be just the subject name.
func splitSubject(text string, caption bool) (subject, body string) {
	text = strings.TrimSpace(text)

	first, rest, _ := strings.Cut(text, "\n")
	if name, ok := cutPrefixFold(strings.TrimSpace(first), "subject:"); ok {
		return strings.TrimSpace(name), strings.TrimSpace(rest)
	}

	if caption {
		return text, ""
	}

	return "", text
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

func (h *Handler) processDocument(ctx context.Context, chatID int64, userID *string, fileID, fileName, subject string) {
	data, err := h.downloadTelegramFile(ctx, fileID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to download telegram file", "file_id", fileID, "error", err)
		h.sendText(ctx, chatID, "Could not download the file. Please try again.")
		return
	}

	h.processGeneration(ctx, chatID, generateInput{
		kind:       content.FileUpload,
		payload:    &content.Payload{FileName: fileName, Body: bytes.NewReader(data)},
		subject:    subject,
		sourceName: fileName,
		userID:     userID,
	})
}

func (h *Handler) processGeneration(ctx context.Context, chatID int64, in generateInput) {
	session, err := h.generate(ctx, in)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrInput):
			h.sendText(ctx, chatID, err.Error())
		case errors.Is(err, errGenerationFailed):
			h.sendText(ctx, chatID, "Could not generate flashcards: "+err.Error())
		default:
			h.logger.ErrorContext(ctx, "bot generation failed", "chat_id", chatID, "error", err)
			h.sendText(ctx, chatID, "Something went wrong. Please try again later.")
		}
		return
	}

	for _, format := range []export.Format{export.FormatCSV, export.FormatJSON} {
		data, err := export.Render(format, session.Cards, export.DeckName(session.Subject))
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to render export", "format", format, "error", err)
			continue
		}

		if _, err := h.bot.SendDocument(ctx, &telegram.SendDocumentParams{
			ChatID: chatID,
			Document: &models.InputFileUpload{
				Filename: format.FileName(exportBaseName),
				Data:     bytes.NewReader(data),
			},
		}); err != nil {
			h.logger.ErrorContext(ctx, "failed to send document", "format", format, "error", err)
		}
	}

	summary := fmt.Sprintf("Generated %d flashcards.", len(session.Cards))
	if session.Warning != "" {
		summary += "\nWarning: " + session.Warning
	}
	summary += "\nSession: " + session.ID

	h.sendText(ctx, chatID, summary)
}

func (h *Handler) sendText(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, &telegram.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		h.logger.ErrorContext(ctx, "failed to send message", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) downloadTelegramFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := h.bot.GetFile(ctx, &telegram.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.bot.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	return data, nil
}
