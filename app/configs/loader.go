package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"GoRAGAgent/app/rag"
)

const (
	VectorDriverSQLite = "sqlite"
	VectorDriverQdrant = "qdrant"

	MemoryDriverMemory = "memory"
	MemoryDriverSQLite = "sqlite"
)

type Config struct {
	Document    DocumentConfig    `yaml:"document" toml:"document"`
	Splitter    SplitterConfig    `yaml:"splitter" toml:"splitter"`
	VectorStore VectorStoreConfig `yaml:"vector_store" toml:"vector_store"`
	Models      ModelsConfig      `yaml:"models" toml:"models"`
	Agent       AgentConfig       `yaml:"agent" toml:"agent"`
	Memory      MemoryConfig      `yaml:"memory" toml:"memory"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging"`
}

type DocumentConfig struct {
	Path       string `yaml:"path" toml:"path" validate:"required"`
	IngestMode string `yaml:"ingest_mode" toml:"ingest_mode" validate:"oneof=skip_if_populated append"`
}

type SplitterConfig struct {
	Separator    string `yaml:"separator" toml:"separator"`
	ChunkSize    int    `yaml:"chunk_size" toml:"chunk_size" validate:"gt=0"`
	ChunkOverlap int    `yaml:"chunk_overlap" toml:"chunk_overlap" validate:"gte=0,ltefield=ChunkSize"`
}

type VectorStoreConfig struct {
	Driver           string `yaml:"driver" toml:"driver" validate:"oneof=sqlite qdrant"`
	Collection       string `yaml:"collection" toml:"collection" validate:"required"`
	PersistDirectory string `yaml:"persist_directory" toml:"persist_directory" validate:"required_if=Driver sqlite"`
	QdrantHost       string `yaml:"qdrant_host" toml:"qdrant_host" validate:"required_if=Driver qdrant"`
	QdrantPort       int    `yaml:"qdrant_port" toml:"qdrant_port" validate:"gte=0,lte=65535"`
	QdrantAPIKey     string `yaml:"qdrant_api_key" toml:"qdrant_api_key"`
	TopK             int    `yaml:"top_k" toml:"top_k" validate:"gt=0"`
}

type ModelsConfig struct {
	BaseURL        string      `yaml:"base_url" toml:"base_url" validate:"required,url"`
	APIKey         string      `yaml:"api_key" toml:"api_key"`
	Embeddings     string      `yaml:"embeddings" toml:"embeddings" validate:"required"`
	Answer         ModelConfig `yaml:"answer" toml:"answer"`
	Agent          ModelConfig `yaml:"agent" toml:"agent"`
	TimeoutSeconds int         `yaml:"timeout_seconds" toml:"timeout_seconds" validate:"gt=0"`
	MaxAttempts    int         `yaml:"max_attempts" toml:"max_attempts" validate:"gt=0"`
	RequestsPerSec float64     `yaml:"requests_per_second" toml:"requests_per_second" validate:"gte=0"`
}

type ModelConfig struct {
	Name        string  `yaml:"name" toml:"name" validate:"required"`
	Temperature float64 `yaml:"temperature" toml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" toml:"max_tokens" validate:"gte=0"`
}

type AgentConfig struct {
	SessionID          string `yaml:"session_id" toml:"session_id" validate:"required"`
	MaxSteps           int    `yaml:"max_steps" toml:"max_steps" validate:"gt=0"`
	TurnTimeoutSeconds int    `yaml:"turn_timeout_seconds" toml:"turn_timeout_seconds" validate:"gt=0"`
	SystemPrompt       string `yaml:"system_prompt" toml:"system_prompt"`
}

type MemoryConfig struct {
	Driver string `yaml:"driver" toml:"driver" validate:"oneof=memory sqlite"`
	Path   string `yaml:"path" toml:"path" validate:"required_if=Driver sqlite"`
}

type LoggingConfig struct {
	Dir     string `yaml:"dir" toml:"dir"`
	Verbose bool   `yaml:"verbose" toml:"verbose"`
}

func Default() *Config {
	return &Config{
		Document: DocumentConfig{
			Path:       "speech.txt",
			IngestMode: rag.IngestSkipIfPopulated,
		},
		Splitter: SplitterConfig{
			Separator:    "\n",
			ChunkSize:    160,
			ChunkOverlap: 100,
		},
		VectorStore: VectorStoreConfig{
			Driver:           VectorDriverSQLite,
			Collection:       "my_collection",
			PersistDirectory: "chroma_db",
			QdrantHost:       "localhost",
			QdrantPort:       6334,
			TopK:             3,
		},
		Models: ModelsConfig{
			BaseURL:        "http://localhost:11434",
			Embeddings:     "all-minilm",
			Answer:         ModelConfig{Name: "phi"},
			Agent:          ModelConfig{Name: "mistral"},
			TimeoutSeconds: 120,
			MaxAttempts:    3,
		},
		Agent: AgentConfig{
			SessionID:          "42",
			MaxSteps:           6,
			TurnTimeoutSeconds: 300,
		},
		Memory: MemoryConfig{
			Driver: MemoryDriverMemory,
			Path:   filepath.Join("data", "database.db"),
		},
		Logging: LoggingConfig{
			Dir: "logs",
		},
	}
}

// LoadConfig reads a YAML or TOML file (by extension) over the defaults,
// applies environment overrides and validates the result. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read configs file: %w", err)
		default:
			if err = decode(path, []byte(os.ExpandEnv(string(data))), cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse TOML: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse YAML: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.Models.BaseURL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.Models.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.Models.Agent.Name = v
	}
	if v := os.Getenv("LLM_ANSWER_MODEL"); v != "" {
		c.Models.Answer.Name = v
	}
	if v := os.Getenv("LLM_EMBEDDINGS_MODEL"); v != "" {
		c.Models.Embeddings = v
	}
	if v := os.Getenv("QDRANT_URL"); v != "" {
		c.VectorStore.QdrantHost = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QDRANT_PORT %q: %w", v, err)
		}
		c.VectorStore.QdrantPort = port
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Memory.Path = v
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configs: %w", err)
	}
	return nil
}

func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.Models.TimeoutSeconds) * time.Second
}

func (c *Config) TurnTimeout() time.Duration {
	return time.Duration(c.Agent.TurnTimeoutSeconds) * time.Second
}
