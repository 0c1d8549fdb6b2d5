package handler

import (
	"bytes"
	"errors"
	"flashgen/internal/contract"
	"flashgen/internal/db"
	"flashgen/internal/export"
	"fmt"
	"github.com/labstack/echo/v4"
	"net/http"
	"path"
	"time"
)

const exportBaseName = "flashcards"

// loadSession returns 404 for missing, expired and foreign sessions alike.
func (h *Handler) loadSession(c echo.Context) (*db.Session, error) {
	session, err := h.db.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get session").WithInternal(err)
	}

	if time.Since(session.CreatedAt) > h.sessionTTL {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	if session.UserID != nil {
		uid := currentUserID(c)
		if uid == nil || *uid != *session.UserID {
			return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
	}

	return session, nil
}

func (h *Handler) GetSession(c echo.Context) error {
	session, err := h.loadSession(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, contract.NewSessionResponse(session, h.sessionTTL))
}

func (h *Handler) ListSessions(c echo.Context) error {
	uid := currentUserID(c)
	if uid == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "listing sessions requires authentication")
	}

	sessions, err := h.db.ListSessions(c.Request().Context(), *uid, 50)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sessions").WithInternal(err)
	}

	resp := make([]contract.SessionResponse, 0, len(sessions))
	for i := range sessions {
		if time.Since(sessions[i].CreatedAt) > h.sessionTTL {
			continue
		}
		resp = append(resp, contract.NewSessionResponse(&sessions[i], h.sessionTTL))
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) renderSession(c echo.Context) (*db.Session, export.Format, []byte, error) {
	session, err := h.loadSession(c)
	if err != nil {
		return nil, "", nil, err
	}

	formatParam := c.QueryParam("format")
	if formatParam == "" {
		formatParam = string(export.FormatCSV)
	}

	format, err := export.ParseFormat(formatParam)
	if err != nil {
		return nil, "", nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	data, err := export.Render(format, session.Cards, export.DeckName(session.Subject))
	if err != nil {
		return nil, "", nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to render export").WithInternal(err)
	}

	return session, format, data, nil
}

func (h *Handler) ExportSession(c echo.Context) error {
	_, format, data, err := h.renderSession(c)
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", format.FileName(exportBaseName)))

	return c.Blob(http.StatusOK, format.ContentType(), data)
}

func (h *Handler) PublishSession(c echo.Context) error {
	if h.storageProvider == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "publishing is not configured")
	}

	session, format, data, err := h.renderSession(c)
	if err != nil {
		return err
	}

	key := path.Join("exports", session.ID, format.FileName(exportBaseName))

	url, err := h.storageProvider.UploadFile(c.Request().Context(), bytes.NewReader(data), key, format.ContentType())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "failed to publish export").WithInternal(err)
	}

	h.logger.InfoContext(c.Request().Context(), "export published", "session_id", session.ID, "format", format, "url", url)

	return c.JSON(http.StatusOK, contract.PublishResponse{URL: url, Format: string(format)})
}
