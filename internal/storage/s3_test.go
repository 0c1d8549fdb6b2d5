package storage

import (
	"context"
	"flashgen/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestNewS3Provider_NotConfigured(t *testing.T) {
	_, err := NewS3Provider(context.Background(), config.S3Config{Bucket: "cards"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestS3Provider_UploadFile(t *testing.T) {
	var (
		mu          sync.Mutex
		gotPath     string
		gotBody     string
		contentType string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mu.Lock()
		gotPath = r.URL.Path
		gotBody = string(body)
		contentType = r.Header.Get("Content-Type")
		mu.Unlock()

		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	provider, err := NewS3Provider(context.Background(), config.S3Config{
		AccessKey: "key",
		SecretKey: "secret",
		Endpoint:  srv.URL,
		Region:    "auto",
		Bucket:    "cards",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)

	url, err := provider.UploadFile(context.Background(), strings.NewReader("Question,Answer\r\n"), "exports/abc.csv", "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/exports/abc.csv", url)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/cards/exports/abc.csv", gotPath)
	assert.Contains(t, gotBody, "Question,Answer")
	assert.Equal(t, "text/csv", contentType)
}

func TestS3Provider_GetFileURL(t *testing.T) {
	p := &S3Provider{bucket: "cards", publicURL: "https://cards.s3.eu-west-1.amazonaws.com"}

	url, err := p.GetFileURL("exports/my deck.zip")
	require.NoError(t, err)
	assert.Equal(t, "https://cards.s3.eu-west-1.amazonaws.com/exports/my%20deck.zip", url)

	_, err = p.GetFileURL("")
	assert.Error(t, err)
}
