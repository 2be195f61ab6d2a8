// Package config loads application settings from defaults, an optional YAML
// file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ChunkingConfig struct {
	Size    int `yaml:"size" env:"CHUNK_SIZE"`
	Overlap int `yaml:"overlap" env:"CHUNK_OVERLAP"`
}

type EmbedderConfig struct {
	Type        string `yaml:"type" env:"EMBEDDER"`
	OllamaURL   string `yaml:"ollama_url" env:"OLLAMA_EMBEDDING_URL"`
	OllamaModel string `yaml:"ollama_model" env:"OLLAMA_EMBEDDING_MODEL"`
	OpenAIModel string `yaml:"openai_model" env:"OPENAI_EMBEDDING_MODEL"`
	BatchSize   int    `yaml:"batch_size" env:"EMBED_BATCH_SIZE"`
}

type PostgresConfig struct {
	Host     string `yaml:"host" env:"PG_HOST"`
	Port     int    `yaml:"port" env:"PG_PORT"`
	User     string `yaml:"user" env:"PG_USER"`
	Password string `yaml:"password" env:"PG_PASS"`
	DBName   string `yaml:"db_name" env:"PG_DB_NAME"`
}

func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable", p.Host, p.Port, p.User, p.Password, p.DBName)
}

type StoreConfig struct {
	Backend    string         `yaml:"backend" env:"VECTOR_BACKEND"`
	PersistDir string         `yaml:"persist_dir" env:"PERSIST_DIR"`
	Collection string         `yaml:"collection" env:"COLLECTION"`
	Dimension  int            `yaml:"dimension" env:"VECTOR_DIM"`
	Postgres   PostgresConfig `yaml:"postgres"`
}

type LLMConfig struct {
	Mode        string        `yaml:"mode" env:"LLM_MODE"`
	Providers   []string      `yaml:"providers" env:"LLM_PROVIDERS" envSeparator:","`
	GeminiKey   string        `yaml:"-" env:"GEMINI_API_KEY"`
	GoogleKey   string        `yaml:"-" env:"GOOGLE_API_KEY"`
	GeminiModel string        `yaml:"gemini_model" env:"GEMINI_MODEL"`
	SingleModel string        `yaml:"single_model" env:"GEMINI_SINGLE_MODEL"`
	OpenAIKey   string        `yaml:"-" env:"OPENAI_API_KEY"`
	OpenAIModel string        `yaml:"openai_model" env:"OPENAI_MODEL"`
	OllamaURL   string        `yaml:"ollama_url" env:"LLM_URL"`
	OllamaModel string        `yaml:"ollama_model" env:"LLM_MODEL"`
	MaxTokens   int           `yaml:"max_tokens" env:"LLM_MAX_TOKENS"`
	Temperature float32       `yaml:"temperature" env:"LLM_TEMPERATURE"`
	CountTokens bool          `yaml:"count_tokens" env:"LOG_PROMPT_TOKENS"`
	Timeout     time.Duration `yaml:"timeout" env:"LLM_TIMEOUT"`
}

// GeminiAPIKey prefers GEMINI_API_KEY and falls back to GOOGLE_API_KEY.
func (c LLMConfig) GeminiAPIKey() string {
	if c.GeminiKey != "" {
		return c.GeminiKey
	}
	return c.GoogleKey
}

type ServerConfig struct {
	Addr      string `yaml:"addr" env:"SERVER_ADDR"`
	UploadDir string `yaml:"upload_dir" env:"UPLOAD_DIR"`
	TopK      int    `yaml:"top_k" env:"TOP_K"`
}

type LoaderConfig struct {
	SourceDir   string        `yaml:"source_dir" env:"LOADER_SOURCE_DIR"`
	ArchiveDir  string        `yaml:"archive_dir" env:"LOADER_ARCHIVE_DIR"`
	BadDir      string        `yaml:"bad_dir" env:"LOADER_BAD_DIR"`
	QuietPeriod time.Duration `yaml:"quiet_period" env:"LOADER_QUIET_PERIOD"`
}

type Config struct {
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Store    StoreConfig    `yaml:"store"`
	LLM      LLMConfig      `yaml:"llm"`
	Server   ServerConfig   `yaml:"server"`
	Loader   LoaderConfig   `yaml:"loader"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Chunking: ChunkingConfig{Size: 800, Overlap: 200},
		Embedder: EmbedderConfig{
			Type:        "ollama",
			OllamaURL:   "http://localhost:11434/api/embed",
			OllamaModel: "all-minilm",
			OpenAIModel: "text-embedding-3-small",
			BatchSize:   64,
		},
		Store: StoreConfig{
			Backend:    "sqlite",
			PersistDir: "chromadb_store",
			Collection: "slides",
			Dimension:  384,
			Postgres:   PostgresConfig{Host: "localhost", Port: 5432, User: "postgres", DBName: "rag"},
		},
		LLM: LLMConfig{
			Mode:        "fallback",
			Providers:   []string{"gemini", "openai"},
			GeminiModel: "gemini-2.0-flash",
			SingleModel: "models/gemini-2.5-flash",
			OpenAIModel: "gpt-4-0613",
			OllamaURL:   "http://localhost:11434/api/generate",
			MaxTokens:   512,
			Temperature: 0.2,
			Timeout:     60 * time.Second,
		},
		Server: ServerConfig{Addr: ":8000", UploadDir: "uploaded_pdfs", TopK: 5},
		Loader: LoaderConfig{
			SourceDir:   "source",
			ArchiveDir:  "archive",
			BadDir:      "bad",
			QuietPeriod: 5 * time.Second,
		},
	}
}

// Load builds the configuration. A missing .env is fine; a missing YAML file
// named explicitly is not.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, %d), got %d", c.Chunking.Size, c.Chunking.Overlap)
	}
	if c.Embedder.BatchSize <= 0 {
		return fmt.Errorf("EMBED_BATCH_SIZE must be positive, got %d", c.Embedder.BatchSize)
	}
	if c.Server.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.Server.TopK)
	}
	switch c.Embedder.Type {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown EMBEDDER %q", c.Embedder.Type)
	}
	switch c.Store.Backend {
	case "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q", c.Store.Backend)
	}
	switch c.LLM.Mode {
	case "fallback", "single":
	default:
		return fmt.Errorf("unknown LLM_MODE %q", c.LLM.Mode)
	}
	if c.Store.Collection == "" {
		return errors.New("COLLECTION must not be empty")
	}
	return nil
}

// Logger returns a text slog logger at the configured level.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
