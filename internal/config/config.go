// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	"os"
	"regexp"
	"time"
)

var ErrConfiguration = errors.New("configuration error")

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

const (
	BackendOpenAI     = "openai"
	BackendGemini     = "gemini"
	BackendOpenRouter = "openrouter"
)

type Config struct {
	Host        string         `yaml:"host"`
	Port        int            `yaml:"port" validate:"min=1,max=65535"`
	DBPath      string         `yaml:"db_path" validate:"required"`
	JWTSecret   string         `yaml:"jwt_secret"`
	MaxUploadMB int64          `yaml:"max_upload_mb" validate:"min=1"`
	LLM         LLMConfig      `yaml:"llm"`
	Session     SessionConfig  `yaml:"session"`
	Telegram    TelegramConfig `yaml:"telegram"`
	S3Storage   S3Config       `yaml:"s3_storage"`
}

type LLMConfig struct {
	Backend          string          `yaml:"backend" validate:"required,oneof=openai gemini openrouter"`
	Model            string          `yaml:"model"`
	BaseURL          string          `yaml:"base_url" validate:"omitempty,url"`
	OpenAIAPIKey     string          `yaml:"openai_api_key" validate:"required_if=Backend openai"`
	GeminiAPIKey     string          `yaml:"gemini_api_key" validate:"required_if=Backend gemini"`
	OpenRouterAPIKey string          `yaml:"openrouter_api_key" validate:"required_if=Backend openrouter"`
	Transport        TransportConfig `yaml:"transport"`
}

// TransportConfig controls the HTTP client shared by every backend SDK.
type TransportConfig struct {
	Timeout  time.Duration `yaml:"timeout" validate:"min=0"`
	ProxyURL string        `yaml:"proxy_url" validate:"omitempty,url"`
	// NoProxy bypasses both ProxyURL and the proxy environment variables.
	NoProxy bool `yaml:"no_proxy"`
}

type SessionConfig struct {
	TTL          time.Duration `yaml:"ttl" validate:"gt=0"`
	ReapInterval time.Duration `yaml:"reap_interval" validate:"gt=0"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	ExternalURL string `yaml:"external_url" validate:"omitempty,url"`
}

type S3Config struct {
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint" validate:"omitempty,url"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	PublicURL string `yaml:"public_url" validate:"omitempty,url"`
}

// Enabled reports whether enough is configured to upload exports.
func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func Default() *Config {
	return &Config{
		Port:        8080,
		DBPath:      ":memory:",
		MaxUploadMB: 10,
		LLM: LLMConfig{
			Backend: BackendOpenAI,
			Transport: TransportConfig{
				Timeout: 60 * time.Second,
			},
		},
		Session: SessionConfig{
			TTL:          time.Hour,
			ReapInterval: 10 * time.Minute,
		},
		S3Storage: S3Config{
			Region: "auto",
		},
	}
}

// Load reads the YAML file at path on top of the defaults, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}

		if err := yaml.Unmarshal(expandEnv(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandEnv replaces ${NAME} references with the environment value. Any other
// use of $ is left as written.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		return []byte(os.Getenv(string(envRef.FindSubmatch(ref)[1])))
	})
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"FLASHGEN_BACKEND":   &cfg.LLM.Backend,
		"FLASHGEN_MODEL":     &cfg.LLM.Model,
		"OPENAI_API_KEY":     &cfg.LLM.OpenAIAPIKey,
		"GEMINI_API_KEY":     &cfg.LLM.GeminiAPIKey,
		"OPENROUTER_API_KEY": &cfg.LLM.OpenRouterAPIKey,
		"TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
	}

	for name, field := range overrides {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// MaxUploadBytes converts the configured upload limit to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// APIKey returns the credential of the selected backend.
func (c LLMConfig) APIKey() string {
	switch c.Backend {
	case BackendOpenAI:
		return c.OpenAIAPIKey
	case BackendGemini:
		return c.GeminiAPIKey
	case BackendOpenRouter:
		return c.OpenRouterAPIKey
	default:
		return ""
	}
}
