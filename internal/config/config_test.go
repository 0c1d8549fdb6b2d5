package config

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"FLASHGEN_BACKEND", "FLASHGEN_MODEL", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY", "TELEGRAM_BOT_TOKEN"} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_GEMINI_KEY", "gm-secret")

	path := writeConfig(t, `
port: 9090
db_path: flashgen.db
llm:
  backend: gemini
  model: gemini-2.0-flash
  gemini_api_key: ${MY_GEMINI_KEY}
  transport:
    timeout: 15s
    no_proxy: true
session:
  ttl: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "flashgen.db", cfg.DBPath)
	assert.Equal(t, BackendGemini, cfg.LLM.Backend)
	assert.Equal(t, "gm-secret", cfg.LLM.APIKey())
	assert.Equal(t, 15*time.Second, cfg.LLM.Transport.Timeout)
	assert.True(t, cfg.LLM.Transport.NoProxy)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Session.ReapInterval, "unset values keep their defaults")
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
}

func TestLoad_DollarSignsOutsideReferences(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("cd", "expanded")
	t.Setenv("S3_SECRET", "s3-secret")

	path := writeConfig(t, `
jwt_secret: ab$cd$
s3_storage:
  secret_key: ${S3_SECRET}
  access_key: "$${S3_SECRET}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ab$cd$", cfg.JWTSecret)
	assert.Equal(t, "s3-secret", cfg.S3Storage.SecretKey)
	assert.Equal(t, "$s3-secret", cfg.S3Storage.AccessKey)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLASHGEN_BACKEND", "openrouter")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendOpenRouter, cfg.LLM.Backend)
	assert.Equal(t, "or-key", cfg.LLM.APIKey())
	assert.Equal(t, ":memory:", cfg.DBPath)
}

func TestLoad_MissingCredential(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		backend string
	}{
		{name: "openai", backend: BackendOpenAI},
		{name: "gemini", backend: BackendGemini},
		{name: "openrouter", backend: BackendOpenRouter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("FLASHGEN_BACKEND", tt.backend)
			_, err := Load("")
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLASHGEN_BACKEND", "claude")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoad_InvalidProxyURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	path := writeConfig(t, `
llm:
  transport:
    proxy_url: "not a url"
`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfiguration)
}

func TestS3Config_Enabled(t *testing.T) {
	assert.False(t, S3Config{}.Enabled())
	assert.False(t, S3Config{Bucket: "cards"}.Enabled())
	assert.True(t, S3Config{Bucket: "cards", AccessKey: "a", SecretKey: "s"}.Enabled())
}
