package handler

import (
	"errors"
	"flashgen/internal/content"
	"flashgen/internal/contract"
	"flashgen/internal/flashcard"
	"github.com/labstack/echo/v4"
	"net/http"
	"strings"
)

func (h *Handler) GetSubjects(c echo.Context) error {
	return c.JSON(http.StatusOK, contract.SubjectsResponse{Subjects: flashcard.Subjects})
}

// GenerateFlashcards accepts either JSON {"text", "subject"} or a multipart
// form with a "file" upload and an optional "subject" field.
func (h *Handler) GenerateFlashcards(c echo.Context) error {
	in := generateInput{userID: currentUserID(c)}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, content.ErrMissingInput.Error()).WithInternal(err)
		}

		file, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file").WithInternal(err)
		}
		defer file.Close()

		in.kind = content.FileUpload
		in.payload = &content.Payload{FileName: fh.Filename, Body: file}
		in.subject = c.FormValue("subject")
		in.sourceName = fh.Filename
	} else {
		var req contract.GenerateRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "failed to bind request")
		}

		if err := c.Validate(req); err != nil {
			return err
		}

		in.kind = content.DirectPaste
		in.payload = &content.Payload{Text: req.Text}
		in.subject = req.Subject
	}

	session, err := h.generate(c.Request().Context(), in)
	if err != nil {
		return generationHTTPError(err)
	}

	return c.JSON(http.StatusOK, contract.GenerateResponse{
		SessionID: session.ID,
		Status:    session.Status,
		Warning:   session.Warning,
		Count:     len(session.Cards),
		Cards:     session.Cards,
	})
}

func generationHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, content.ErrTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, content.ErrUnsupportedFormat):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, content.ErrInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errGenerationFailed):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error()).WithInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate flashcards").WithInternal(err)
	}
}
