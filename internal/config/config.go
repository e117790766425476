// Package config loads and persists the YAML application configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// IndexConfig describes the vector index to provision and query.
type IndexConfig struct {
	Name             string `yaml:"name"`
	Dimension        int    `yaml:"dimension"`
	Metric           string `yaml:"metric"`
	ReadyTimeoutSecs int    `yaml:"ready_timeout_secs"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OllamaEmbedderConfig holds configuration for a local Ollama embedder.
type OllamaEmbedderConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// PineconeConfig contains connection details for a Pinecone serverless index.
type PineconeConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	Cloud       string `yaml:"cloud"`
	Region      string `yaml:"region"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// PgVectorConfig contains connection details for a Postgres/pgvector backend.
type PgVectorConfig struct {
	DSN    string `yaml:"dsn"`
	DSNEnv string `yaml:"dsn_env"`
}

// VectorIndexConfig selects and configures the vector index implementation.
type VectorIndexConfig struct {
	Type     string          `yaml:"type"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
	PgVector *PgVectorConfig `yaml:"pgvector,omitempty"`
}

// OpenAIGeneratorConfig holds configuration for the OpenAI chat generator.
type OpenAIGeneratorConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// OllamaGeneratorConfig holds configuration for a local Ollama generator.
type OllamaGeneratorConfig struct {
	Host string `yaml:"host"`
}

// GeneratorConfig selects and configures the answer generator implementation.
type GeneratorConfig struct {
	Type   string                 `yaml:"type"`
	OpenAI *OpenAIGeneratorConfig `yaml:"openai,omitempty"`
	Ollama *OllamaGeneratorConfig `yaml:"ollama,omitempty"`
}

// ModeConfig selects the execution mode and optionally overrides its model.
type ModeConfig struct {
	Name  string `yaml:"name"`
	Model string `yaml:"model,omitempty"`
}

// IngestConfig configures corpus ingestion.
type IngestConfig struct {
	BatchSize int    `yaml:"batch_size"`
	Glob      string `yaml:"glob"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Index       IndexConfig       `yaml:"index"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Mode        ModeConfig        `yaml:"mode"`
	Ingest      IngestConfig      `yaml:"ingest"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/docqa/config.yaml.
// If neither exists, it writes defaults to ~/.config/docqa/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docqa", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Index:       IndexConfig{Name: "docqa", Dimension: 1536, Metric: "cosine", ReadyTimeoutSecs: 60},
		Chunker:     ChunkerConfig{ChunkSize: 1000, ChunkOverlap: 200},
		Embedder:    EmbedderConfig{Type: "hash"},
		VectorIndex: VectorIndexConfig{Type: "memory"},
		Generator:   GeneratorConfig{Type: "openai", OpenAI: &OpenAIGeneratorConfig{}},
		Mode:        ModeConfig{Name: "standard"},
		Ingest:      IngestConfig{BatchSize: 100, Glob: "*.txt"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Index.Name == "" {
		cfg.Index.Name = "docqa"
	}
	if cfg.Index.Dimension == 0 {
		cfg.Index.Dimension = 1536
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = "cosine"
	}
	if cfg.Index.ReadyTimeoutSecs == 0 {
		cfg.Index.ReadyTimeoutSecs = 60
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
		if cfg.Chunker.ChunkOverlap == 0 {
			cfg.Chunker.ChunkOverlap = 200
		}
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "hash"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
	if cfg.VectorIndex.Type == "" {
		cfg.VectorIndex.Type = "memory"
	}
	if cfg.VectorIndex.Type == "pinecone" && cfg.VectorIndex.Pinecone != nil {
		if cfg.VectorIndex.Pinecone.APIKeyEnv == "" {
			cfg.VectorIndex.Pinecone.APIKeyEnv = "PINECONE_API_KEY"
		}
		if cfg.VectorIndex.Pinecone.Cloud == "" {
			cfg.VectorIndex.Pinecone.Cloud = "aws"
		}
		if cfg.VectorIndex.Pinecone.Region == "" {
			cfg.VectorIndex.Pinecone.Region = "us-east-1"
		}
	}
	if cfg.VectorIndex.Type == "pgvector" && cfg.VectorIndex.PgVector != nil {
		if cfg.VectorIndex.PgVector.DSN == "" && cfg.VectorIndex.PgVector.DSNEnv == "" {
			cfg.VectorIndex.PgVector.DSNEnv = "DATABASE_URL"
		}
	}
	if cfg.Generator.Type == "" {
		cfg.Generator.Type = "openai"
	}
	if cfg.Generator.Type == "openai" {
		if cfg.Generator.OpenAI == nil {
			cfg.Generator.OpenAI = &OpenAIGeneratorConfig{}
		}
		if cfg.Generator.OpenAI.BaseURL == "" {
			cfg.Generator.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Generator.OpenAI.APIKeyEnv == "" {
			cfg.Generator.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Generator.OpenAI.TimeoutSecs == 0 {
			cfg.Generator.OpenAI.TimeoutSecs = 120
		}
	}
	if cfg.Mode.Name == "" {
		cfg.Mode.Name = "standard"
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 100
	}
	if cfg.Ingest.Glob == "" {
		cfg.Ingest.Glob = "*.txt"
	}
}
