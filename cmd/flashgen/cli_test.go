package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flashgen/internal/config"
	"flashgen/internal/flashcard"
	"flashgen/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type harness struct {
	backend *testutils.FakeBackend
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	app     *app
}

func newHarness(t *testing.T, stdin string) *harness {
	t.Helper()
	t.Setenv("FLASHGEN_BACKEND", config.BackendOpenAI)
	t.Setenv("OPENAI_API_KEY", "test-key")

	h := &harness{backend: &testutils.FakeBackend{Reply: testutils.CardsJSON(12)}}
	h.app = &app{
		newBackend: func(context.Context, config.LLMConfig, *slog.Logger) (flashcard.Backend, error) {
			return h.backend, nil
		},
		stdin:  strings.NewReader(stdin),
		stdout: &h.stdout,
		stderr: &h.stderr,
	}
	return h
}

func (h *harness) run(args ...string) error {
	cmd := newRootCmd(h.app)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return -1
}

func TestGenerate_TextToCSV(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.run("generate", "--text", "Mitochondria produce ATP.", "--subject", "Biology"))

	lines := strings.Split(strings.TrimSuffix(h.stdout.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 13)
	assert.Equal(t, "Question,Answer,Topic,Difficulty", lines[0])
	assert.Equal(t, "Question 1?,Answer 1,Topic,", lines[1])

	assert.Contains(t, h.backend.LastPrompt().User, "Subject: Biology")
	assert.Empty(t, h.stderr.String())
}

func TestGenerate_StdinToJSON(t *testing.T) {
	h := newHarness(t, "Notes from stdin")

	require.NoError(t, h.run("generate", "--text", "-", "--format", "JSON"))

	var cards []flashcard.Card
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &cards))
	assert.Len(t, cards, 12)
	assert.Contains(t, h.backend.LastPrompt().User, "Notes from stdin")
}

func TestGenerate_FileToOut(t *testing.T) {
	h := newHarness(t, "")
	dir := t.TempDir()

	input := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(input, []byte("The French Revolution began in 1789."), 0o644))
	out := filepath.Join(dir, "deck.txt")

	require.NoError(t, h.run("generate", "--file", input, "--format", "cloze", "--out", out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{{c1::Question 1?}}:: Answer 1"))
	assert.Empty(t, h.stdout.String())
	assert.Contains(t, h.stderr.String(), "wrote 12 flashcards")
}

func TestGenerate_PartialWarnsOnStderr(t *testing.T) {
	h := newHarness(t, "")
	h.backend.Set(testutils.CardsJSON(2), nil)

	require.NoError(t, h.run("generate", "--text", "short notes"))

	assert.Contains(t, h.stderr.String(), "warning: only 2 flashcards")
	assert.Contains(t, h.stdout.String(), "Question 2?")
}

func TestGenerate_FailedGeneration(t *testing.T) {
	h := newHarness(t, "")
	h.backend.Set("not json at all", nil)

	err := h.run("generate", "--text", "notes")
	require.Error(t, err)
	assert.Equal(t, exitFailed, exitCode(err))
	assert.ErrorIs(t, err, flashcard.ErrInvalidResponse)
	assert.Empty(t, h.stdout.String())
}

func TestGenerate_InputErrors(t *testing.T) {
	dir := t.TempDir()
	docx := filepath.Join(dir, "notes.docx")
	require.NoError(t, os.WriteFile(docx, []byte("binary"), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{name: "blank text", args: []string{"generate", "--text", "   "}},
		{name: "unsupported file", args: []string{"generate", "--file", docx}},
		{name: "missing file", args: []string{"generate", "--file", filepath.Join(dir, "missing.txt")}},
		{name: "unknown format", args: []string{"generate", "--text", "notes", "--format", "xlsx"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "")

			err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitUsage, exitCode(err))
			assert.Empty(t, h.backend.Prompts)
		})
	}
}

func TestGenerate_MissingCredential(t *testing.T) {
	h := newHarness(t, "")
	t.Setenv("OPENAI_API_KEY", "")

	err := h.run("generate", "--text", "notes")
	assert.ErrorIs(t, err, config.ErrConfiguration)
	assert.Equal(t, exitUsage, exitCode(err))
}

func TestGenerate_TextAndFileExclusive(t *testing.T) {
	h := newHarness(t, "")

	assert.Error(t, h.run("generate", "--text", "notes", "--file", "notes.txt"))
	assert.Error(t, h.run("generate"))
	assert.Empty(t, h.backend.Prompts)
}

func TestListCommands(t *testing.T) {
	h := newHarness(t, "")

	require.NoError(t, h.run("subjects"))
	assert.Contains(t, h.stdout.String(), "Computer Science\n")

	h.stdout.Reset()
	require.NoError(t, h.run("formats"))
	assert.Equal(t, "csv\njson\nanki\ncloze\n", h.stdout.String())
}
