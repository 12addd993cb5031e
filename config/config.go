package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/smallnest/ragagent/log"
)

// Known backend kinds.
var (
	ModelProviders     = []string{"openai", "ollama", "langchain-openai"}
	VectorStoreKinds   = []string{"memory", "chroma", "pgvector"}
	ConversationStores = []string{"memory", "redis", "postgres", "sqlite", "file"}
)

type ModelConfig struct {
	Provider    string        `mapstructure:"provider"`
	Name        string        `mapstructure:"name"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type EmbeddingConfig struct {
	Model string `mapstructure:"model"`
}

type VectorStoreConfig struct {
	Kind           string  `mapstructure:"kind"`
	URL            string  `mapstructure:"url"`
	Collection     string  `mapstructure:"collection"`
	K              int     `mapstructure:"k"`
	ScoreThreshold float64 `mapstructure:"score_threshold"`
}

type StoreConfig struct {
	Kind   string        `mapstructure:"kind"`
	Addr   string        `mapstructure:"addr"`
	DSN    string        `mapstructure:"dsn"`
	Path   string        `mapstructure:"path"`
	Prefix string        `mapstructure:"prefix"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type AgentConfig struct {
	SystemPrompt string `mapstructure:"system_prompt"`
	MaxRounds    int    `mapstructure:"max_rounds"`
	ModelRetries int    `mapstructure:"model_retries"`
}

type IngestConfig struct {
	Dir          string `mapstructure:"dir"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
	BatchSize    int    `mapstructure:"batch_size"`
	SmokeQuery   string `mapstructure:"smoke_query"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Model       ModelConfig       `mapstructure:"model"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding"`
	VectorStore VectorStoreConfig `mapstructure:"vector_store"`
	Store       StoreConfig       `mapstructure:"store"`
	Agent       AgentConfig       `mapstructure:"agent"`
	Ingest      IngestConfig      `mapstructure:"ingest"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
}

var defaults = map[string]any{
	"model.provider":               "openai",
	"model.name":                   "gpt-4o-mini",
	"model.base_url":               "",
	"model.api_key":                "",
	"model.temperature":            0.0,
	"model.max_tokens":             1000,
	"model.timeout":                60 * time.Second,
	"embedding.model":              "text-embedding-3-small",
	"vector_store.kind":            "memory",
	"vector_store.url":             "",
	"vector_store.collection":      "rag_documents",
	"vector_store.k":               4,
	"vector_store.score_threshold": 0.0,
	"store.kind":                   "memory",
	"store.addr":                   "localhost:6379",
	"store.dsn":                    "",
	"store.path":                   "",
	"store.prefix":                 "ragagent:",
	"store.ttl":                    time.Duration(0),
	"agent.system_prompt":          "",
	"agent.max_rounds":             3,
	"agent.model_retries":          1,
	"ingest.dir":                   "data",
	"ingest.chunk_size":            1000,
	"ingest.chunk_overlap":         200,
	"ingest.batch_size":            64,
	"ingest.smoke_query":           "",
	"server.addr":                  ":8080",
	"log.level":                    "info",
}

// Load reads configuration from path, or from ragagent.yaml in the working
// directory or $HOME/.ragagent when path is empty. A missing default file is
// not an error. RAGAGENT_* environment variables override file values, and
// OPENAI_API_KEY fills an empty API key.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ragagent")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ragagent")
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("RAGAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a component.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(ModelProviders, c.Model.Provider) {
		errs = append(errs, fmt.Errorf("unknown model provider %q", c.Model.Provider))
	}
	if c.Model.Name == "" {
		errs = append(errs, errors.New("model name is required"))
	}
	if !slices.Contains(VectorStoreKinds, c.VectorStore.Kind) {
		errs = append(errs, fmt.Errorf("unknown vector store %q", c.VectorStore.Kind))
	}
	if c.VectorStore.K < 1 {
		errs = append(errs, fmt.Errorf("vector_store.k must be at least 1, got %d", c.VectorStore.K))
	}
	if !slices.Contains(ConversationStores, c.Store.Kind) {
		errs = append(errs, fmt.Errorf("unknown conversation store %q", c.Store.Kind))
	}
	if c.Agent.MaxRounds < 1 {
		errs = append(errs, fmt.Errorf("agent.max_rounds must be at least 1, got %d", c.Agent.MaxRounds))
	}
	if c.Agent.ModelRetries < 0 {
		errs = append(errs, fmt.Errorf("agent.model_retries must not be negative, got %d", c.Agent.ModelRetries))
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkSize <= c.Ingest.ChunkOverlap {
		errs = append(errs, fmt.Errorf("ingest.chunk_size (%d) must be greater than ingest.chunk_overlap (%d)",
			c.Ingest.ChunkSize, c.Ingest.ChunkOverlap))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NeedsAPIKey reports whether the configured provider talks to OpenAI.
func (c *Config) NeedsAPIKey() bool {
	return c.Model.Provider != "ollama" && c.Model.BaseURL == ""
}
