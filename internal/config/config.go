package config

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"lusso"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"lusso"`

	// Inference service (Ollama-compatible HTTP API)
	OllamaBaseURL        string `envconfig:"OLLAMA_BASE_URL" default:"http://localhost:11434"`
	OllamaChatModel      string `envconfig:"OLLAMA_CHAT_MODEL" default:"llama3.1"`
	OllamaEmbedModel     string `envconfig:"OLLAMA_EMBED_MODEL" default:"nomic-embed-text"`
	OllamaVisionModel    string `envconfig:"OLLAMA_VISION_MODEL" default:"llava"`
	OllamaCodeModel      string `envconfig:"OLLAMA_CODE_MODEL" default:"codellama"`
	OllamaTimeoutSeconds int    `envconfig:"OLLAMA_TIMEOUT_SECONDS" default:"30"`

	SearchMinSimilarity float64 `envconfig:"SEARCH_MIN_SIMILARITY" default:"0.7"`
	SearchDefaultLimit  int     `envconfig:"SEARCH_DEFAULT_LIMIT" default:"10"`
	SearchMaxLimit      int     `envconfig:"SEARCH_MAX_LIMIT" default:"50"`

	NSQLookupd          string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost            string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP            string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`
	EnableContentWorker bool   `envconfig:"ENABLE_CONTENT_WORKER" default:"true"`

	// Server
	ServerPort    int    `envconfig:"SERVER_PORT" default:"8082"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`
	QueryLogPath  string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may be set in the shell; a missing .env is not an error.
	_ = godotenv.Load(".env")

	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.OllamaBaseURL == "" {
		return fmt.Errorf("%w: OLLAMA_BASE_URL", ErrMissingRequired)
	}
	if c.OllamaEmbedModel == "" {
		return fmt.Errorf("%w: OLLAMA_EMBED_MODEL", ErrMissingRequired)
	}
	if c.SearchMinSimilarity < -1 || c.SearchMinSimilarity > 1 {
		return fmt.Errorf("%w: SEARCH_MIN_SIMILARITY must be within [-1, 1]", ErrInvalidValue)
	}
	if c.SearchDefaultLimit <= 0 || c.SearchMaxLimit <= 0 {
		return fmt.Errorf("%w: search limits must be positive", ErrInvalidValue)
	}
	if c.SearchDefaultLimit > c.SearchMaxLimit {
		return fmt.Errorf("%w: SEARCH_DEFAULT_LIMIT exceeds SEARCH_MAX_LIMIT", ErrInvalidValue)
	}
	return nil
}
