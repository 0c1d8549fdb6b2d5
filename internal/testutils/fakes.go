package testutils

import (
	"context"
	"flashgen/internal/flashcard"
	"fmt"
	telegram "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// CardsJSON returns a backend reply holding n valid cards.
func CardsJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"question": "Question %d?", "answer": "Answer %d", "topic": "Topic"}`, i+1, i+1)
	}
	return "[" + strings.Join(items, ",") + "]"
}

type FakeBackend struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Prompts []flashcard.Prompt
}

func (f *FakeBackend) Name() string { return "fake" }

func (f *FakeBackend) Complete(_ context.Context, prompt flashcard.Prompt) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Prompts = append(f.Prompts, prompt)
	return f.Reply, f.Err
}

func (f *FakeBackend) Set(reply string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Reply, f.Err = reply, err
}

func (f *FakeBackend) LastPrompt() flashcard.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Prompts) == 0 {
		return flashcard.Prompt{}
	}
	return f.Prompts[len(f.Prompts)-1]
}

type SentDocument struct {
	ChatID   any
	FileName string
	Data     string
}

// FakeMessenger records what the bot sends and serves registered files
// from a local HTTP server.
type FakeMessenger struct {
	mu        sync.Mutex
	Messages  []*telegram.SendMessageParams
	Documents []SentDocument
	files     map[string][]byte
	server    *httptest.Server
}

func NewFakeMessenger(t *testing.T) *FakeMessenger {
	m := &FakeMessenger{files: map[string][]byte{}}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		data, ok := m.files[strings.TrimPrefix(r.URL.Path, "/")]
		m.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(m.server.Close)

	return m
}

func (m *FakeMessenger) AddFile(fileID string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.files[fileID] = data
}

func (m *FakeMessenger) SendMessage(_ context.Context, params *telegram.SendMessageParams) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Messages = append(m.Messages, params)
	return &models.Message{ID: len(m.Messages)}, nil
}

func (m *FakeMessenger) SendDocument(_ context.Context, params *telegram.SendDocumentParams) (*models.Message, error) {
	doc := SentDocument{ChatID: params.ChatID}
	if upload, ok := params.Document.(*models.InputFileUpload); ok {
		doc.FileName = upload.Filename
		data, err := io.ReadAll(upload.Data)
		if err != nil {
			return nil, err
		}
		doc.Data = string(data)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Documents = append(m.Documents, doc)
	return &models.Message{ID: len(m.Documents)}, nil
}

func (m *FakeMessenger) GetFile(_ context.Context, params *telegram.GetFileParams) (*models.File, error) {
	return &models.File{FileID: params.FileID, FilePath: params.FileID}, nil
}

func (m *FakeMessenger) FileDownloadLink(f *models.File) string {
	return m.server.URL + "/" + f.FilePath
}

// Texts returns the text of every message sent so far.
func (m *FakeMessenger) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	texts := make([]string, 0, len(m.Messages))
	for _, msg := range m.Messages {
		texts = append(texts, msg.Text)
	}
	return texts
}

func (m *FakeMessenger) SentDocuments() []SentDocument {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]SentDocument(nil), m.Documents...)
}

type FakeStorage struct {
	mu    sync.Mutex
	Files map[string]string
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{Files: map[string]string{}}
}

func (s *FakeStorage) UploadFile(_ context.Context, data io.Reader, filename string, _ string) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.Files[filename] = string(b)
	return s.GetFileURL(filename)
}

func (s *FakeStorage) GetFileURL(filename string) (string, error) {
	return "https://cdn.example.com/" + filename, nil
}
