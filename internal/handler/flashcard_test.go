package handler_test

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"flashgen/internal/anki"
	"flashgen/internal/contract"
	"flashgen/internal/export"
	"flashgen/internal/flashcard"
	"flashgen/internal/handler"
	"flashgen/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"strings"
	"testing"
	"time"
)

func generateFromText(t *testing.T, env *testutils.TestEnv, text, subject, token string) contract.GenerateResponse {
	t.Helper()

	body, _ := json.Marshal(contract.GenerateRequest{Text: text, Subject: subject})
	rec := testutils.PerformRequest(t, env.Echo, http.MethodPost, "/v1/flashcards", string(body), token, http.StatusOK)

	return testutils.ParseResponse[contract.GenerateResponse](t, rec)
}

func TestHealth(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})
	testutils.PerformRequest(t, env.Echo, http.MethodGet, "/health", "", "", http.StatusOK)
}

func TestGetSubjects(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})

	rec := testutils.PerformRequest(t, env.Echo, http.MethodGet, "/v1/subjects", "", "", http.StatusOK)
	resp := testutils.ParseResponse[contract.SubjectsResponse](t, rec)

	assert.Equal(t, flashcard.Subjects, resp.Subjects)
}

func TestGenerateFlashcards_Text(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})

	resp := generateFromText(t, env, "Photosynthesis converts light energy into chemical energy.", "Biology", "")

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, flashcard.StatusOK, resp.Status)
	assert.Equal(t, 12, resp.Count)
	assert.Len(t, resp.Cards, 12)
	assert.Empty(t, resp.Warning)

	prompt := env.Backend.LastPrompt()
	assert.Contains(t, prompt.User, "Subject: Biology")
	assert.Contains(t, prompt.User, "Photosynthesis converts light energy")
}

func TestGenerateFlashcards_Partial(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})
	env.Backend.Set(testutils.CardsJSON(4), nil)

	resp := generateFromText(t, env, "Short notes.", "", "")

	assert.Equal(t, flashcard.StatusPartial, resp.Status)
	assert.Equal(t, 4, resp.Count)
	assert.Contains(t, resp.Warning, "only 4 flashcards")
}

func TestGenerateFlashcards_BlankText(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})

	testutils.PerformRequest(t, env.Echo, http.MethodPost, "/v1/flashcards", `{"text": "   "}`, "", http.StatusBadRequest)
	assert.Empty(t, env.Backend.Prompts, "no generation for unusable input")
}

func TestGenerateFlashcards_BackendFailure(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})

	env.Backend.Set("", errors.New("connection refused"))
	rec := testutils.PerformRequest(t, env.Echo, http.MethodPost, "/v1/flashcards", `{"text": "notes"}`, "", http.StatusBadGateway)
	assert.Contains(t, rec.Body.String(), "connection refused")

	env.Backend.Set("I cannot do that", nil)
	testutils.PerformRequest(t, env.Echo, http.MethodPost, "/v1/flashcards", `{"text": "notes"}`, "", http.StatusBadGateway)
}

func TestGenerateFlashcards_Upload(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})

	rec := testutils.PerformUpload(t, env.Echo, "/v1/flashcards", "notes.TXT", []byte("The French Revolution began in 1789."),
		map[string]string{"subject": "History"}, "", http.StatusOK)
	resp := testutils.ParseResponse[contract.GenerateResponse](t, rec)
	assert.Equal(t, 12, resp.Count)
	assert.Contains(t, env.Backend.LastPrompt().User, "The French Revolution began in 1789.")

	rec = testutils.PerformRequest(t, env.Echo, http.MethodGet, "/v1/sessions/"+resp.SessionID, "", "", http.StatusOK)
	session := testutils.ParseResponse[contract.SessionResponse](t, rec)
	assert.Equal(t, "file_upload", session.SourceKind)
	assert.Equal(t, "notes.TXT", session.SourceName)
	assert.Equal(t, "History", session.Subject)
}

func TestGenerateFlashcards_UploadErrors(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})

	testutils.PerformUpload(t, env.Echo, "/v1/flashcards", "notes.docx", []byte("text"), nil, "", http.StatusUnsupportedMediaType)
	testutils.PerformUpload(t, env.Echo, "/v1/flashcards", "notes.txt", []byte{0xff, 0xfe, 0xfd}, nil, "", http.StatusBadRequest)
	testutils.PerformUpload(t, env.Echo, "/v1/flashcards", "big.txt", []byte(strings.Repeat("a", 2<<20)), nil, "", http.StatusRequestEntityTooLarge)

	assert.Empty(t, env.Backend.Prompts)
}

func TestExportSession(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})
	resp := generateFromText(t, env, "Some notes", "Biology", "")

	rec := testutils.PerformRequest(t, env.Echo, http.MethodGet, "/v1/sessions/"+resp.SessionID+"/export", "", "", http.StatusOK)
	assert.Equal(t, `attachment; filename="flashcards.csv"`, rec.Header().Get("Content-Disposition"))
	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 13)
	assert.Equal(t, []string{"Question", "Answer", "Topic", "Difficulty"}, records[0])

	rec = testutils.PerformRequest(t, env.Echo, http.MethodGet, "/v1/sessions/"+resp.SessionID+"/export?format=json", "", "", http.StatusOK)
	cards, err := export.ParseJSON(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, resp.Cards, cards)

	rec = testutils.PerformRequest(t, env.Echo, http.MethodGet, "/v1/sessions/"+resp.SessionID+"/export?format=anki", "", "", http.StatusOK)
	deck, err := anki.ReadDeck(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Flashcards - Biology", deck.Name)
	assert.Len(t, deck.Notes, 12)

	rec = testutils.PerformRequest(t, env.Echo, http.MethodGet, "/v1/sessions/"+resp.SessionID+"/export?format=cloze", "", "", http.StatusOK)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "{{c1::Question 1?}}:: Answer 1\n"))

	testutils.PerformRequest(t, env.Echo, http.MethodGet, "/v1/sessions/"+resp.SessionID+"/export?format=xlsx", "", "", http.StatusBadRequest)
	testutils.PerformRequest(t, env.Echo, http.MethodGet, "/v1/sessions/unknown/export", "", "", http.StatusNotFound)
}

func TestExportSession_Expired(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{SessionTTL: time.Millisecond})
	resp := generateFromText(t, env, "Some notes", "", "")

	time.Sleep(5 * time.Millisecond)

	testutils.PerformRequest(t, env.Echo, http.MethodGet, "/v1/sessions/"+resp.SessionID, "", "", http.StatusNotFound)
}

func TestPublishSession(t *testing.T) {
	env := testutils.SetupHandlerDependencies(t, handler.Options{})
	resp := generateFromText(t, env, "Some notes", "", "")

	rec := testutils.PerformRequest(t, env.Echo, http.MethodPost, "/v1/sessions/"+resp.SessionID+"/publish?format=json", "", "", http.StatusOK)
	published := testutils.ParseResponse[contract.PublishResponse](t, rec)

	key := "exports/" + resp.SessionID + "/flashcards.json"
	assert.Equal(t, "https://cdn.example.com/"+key, published.URL)
	assert.Equal(t, "json", published.Format)

	cards, err := export.ParseJSON(env.Storage.Files[key])
	require.NoError(t, err)
	assert.Len(t, cards, 12)
}
