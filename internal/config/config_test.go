package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "docqa", cfg.Index.Name)
	assert.Equal(t, 1536, cfg.Index.Dimension)
	assert.Equal(t, "cosine", cfg.Index.Metric)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 100, cfg.Ingest.BatchSize)
	assert.Equal(t, "standard", cfg.Mode.Name)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
index:
  name: handbook
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
vector_index:
  type: pinecone
  pinecone:
    region: eu-west-1
mode:
  name: fast
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "handbook", cfg.Index.Name)
	assert.Equal(t, "cosine", cfg.Index.Metric)

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)

	require.NotNil(t, cfg.VectorIndex.Pinecone)
	assert.Equal(t, "aws", cfg.VectorIndex.Pinecone.Cloud)
	assert.Equal(t, "eu-west-1", cfg.VectorIndex.Pinecone.Region)
	assert.Equal(t, "PINECONE_API_KEY", cfg.VectorIndex.Pinecone.APIKeyEnv)

	assert.Equal(t, "fast", cfg.Mode.Name)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := defaultConfig()
	cfg.Index.Name = "notes"
	cfg.Chunker.ChunkSize = 500
	cfg.Chunker.ChunkOverlap = 50

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "notes", loaded.Index.Name)
	assert.Equal(t, 500, loaded.Chunker.ChunkSize)
	assert.Equal(t, 50, loaded.Chunker.ChunkOverlap)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
