package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: \"8080\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 500, cfg.Ingest.ChunkSize)
	assert.Equal(t, 100, cfg.Ingest.ChunkOverlap)
	assert.Equal(t, []string{"pdf", "docx", "txt", "json"}, cfg.Ingest.AllowedExtensions)
	assert.Equal(t, 0.5, cfg.Resume.RelevanceThreshold)
	assert.Equal(t, 30, cfg.Resume.ContextLimit)
	assert.Equal(t, 4096, cfg.Resume.MaxTokens)
	assert.Equal(t, 20, cfg.Search.DefaultLimit)
	assert.False(t, cfg.AsyncIngestEnabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "groq-secret")
	t.Setenv("ELASTICSEARCH_INDEX_NAME", "docs_test")

	cfg, err := Load(writeConfig(t, "elasticsearch:\n  index_name: \"from_file\"\n"))
	require.NoError(t, err)

	assert.Equal(t, "groq-secret", cfg.LLM.APIKey)
	assert.Equal(t, "docs_test", cfg.Elasticsearch.IndexName)
}

func TestLoad_RejectsInvalidChunking(t *testing.T) {
	_, err := Load(writeConfig(t, "ingest:\n  chunk_size: 100\n  chunk_overlap: 100\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "ingest:\n  chunk_size: 0\n"))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestAsyncIngestEnabled(t *testing.T) {
	cfg := &Config{
		Kafka: KafkaConfig{Brokers: "localhost:9092"},
		MinIO: MinIOConfig{Endpoint: "localhost:9000"},
	}
	assert.True(t, cfg.AsyncIngestEnabled())

	cfg.MinIO.Endpoint = ""
	assert.False(t, cfg.AsyncIngestEnabled())
}
