package testutils

import (
	"bytes"
	"encoding/json"
	"flashgen/internal/content"
	"flashgen/internal/contract"
	"flashgen/internal/db"
	"flashgen/internal/flashcard"
	"flashgen/internal/handler"
	"flashgen/internal/middleware"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	initdata "github.com/telegram-mini-apps/init-data-golang"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// CustomValidator implements the echo.Validator interface
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the provided struct
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

const (
	TestBotToken       = "test-bot-token"
	TestJWTSecret      = "hello-world"
	TelegramTestUserID = 927635965
	TestDBPath         = ":memory:"
)

type TestEnv struct {
	Echo    *echo.Echo
	Handler *handler.Handler
	DB      *db.Storage
	Backend *FakeBackend
	Bot     *FakeMessenger
	Storage *FakeStorage
}

// SetupHandlerDependencies builds the API against a fresh in-memory
// database and fake collaborators. Pass opts.JWTSecret to enable auth.
func SetupHandlerDependencies(t *testing.T, opts handler.Options) *TestEnv {
	t.Helper()

	dbStorage, err := db.ConnectDB(TestDBPath)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() {
		if err := dbStorage.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
	})

	logr := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &TestEnv{
		DB:      dbStorage,
		Backend: &FakeBackend{Reply: CardsJSON(12)},
		Bot:     NewFakeMessenger(t),
		Storage: NewFakeStorage(),
	}

	if opts.BotToken == "" {
		opts.BotToken = TestBotToken
	}
	opts.Logger = logr

	generator := flashcard.NewGenerator(env.Backend, logr)
	normalizer := content.NewNormalizer(content.WithMaxUploadBytes(1 << 20))

	env.Handler = handler.New(env.Bot, dbStorage, generator, normalizer, env.Storage, opts)

	e := echo.New()

	middleware.Setup(e, logr)

	e.Validator = &CustomValidator{validator: validator.New()}

	env.Handler.RegisterRoutes(e)
	env.Echo = e

	return env
}

func PerformRequest(t *testing.T, e *echo.Echo, method, path, body, token string, expectedStatus int) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return serve(t, e, req, token, expectedStatus)
}

// PerformUpload posts a multipart form with a single file field.
func PerformUpload(t *testing.T, e *echo.Echo, path, fileName string, data []byte, fields map[string]string, token string, expectedStatus int) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("Failed to write field: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return serve(t, e, req, token, expectedStatus)
}

func serve(t *testing.T, e *echo.Echo, req *http.Request, token string, expectedStatus int) *httptest.ResponseRecorder {
	t.Helper()

	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != expectedStatus {
		t.Errorf("Expected status %d, got %d, body: %s", expectedStatus, rec.Code, rec.Body.String())
	}
	return rec
}

func ParseResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var result T
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return result
}

func AuthHelper(t *testing.T, e *echo.Echo, telegramID int64, username, firstName string) contract.AuthTelegramResponse {
	userJSON := fmt.Sprintf(
		`{"id":%d,"first_name":"%s","last_name":"","username":"%s","language_code":"en","is_premium":false,"allows_write_to_pm":true}`,
		telegramID, firstName, username,
	)

	initData := map[string]string{
		"query_id":  "AAH9mUo3AAAAAP2ZSjdVL00J",
		"user":      userJSON,
		"auth_date": fmt.Sprintf("%d", time.Now().Unix()),
	}

	initData["hash"] = initdata.Sign(initData, TestBotToken, time.Now())

	var query []string
	for k, v := range initData {
		query = append(query, fmt.Sprintf("%s=%s", k, v))
	}

	body, _ := json.Marshal(contract.AuthTelegramRequest{Query: strings.Join(query, "&")})

	rec := PerformRequest(t, e, http.MethodPost, "/auth/telegram", string(body), "", http.StatusOK)

	return ParseResponse[contract.AuthTelegramResponse](t, rec)
}
