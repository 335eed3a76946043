package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("VRA_TEST_HOST", "db.internal")

	assert.Equal(t, "host: db.internal", expandEnv("host: ${VRA_TEST_HOST}"))
	assert.Equal(t, "port: 5432", expandEnv("port: ${VRA_TEST_MISSING:5432}"))
	assert.Equal(t, "pw: ", expandEnv("pw: ${VRA_TEST_MISSING:}"))
	assert.Equal(t, "x: ${VRA_TEST_MISSING}", expandEnv("x: ${VRA_TEST_MISSING}"))
}

func TestLoadFrom_MergesEnvFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
chunking:
  duration: 60s
  overlap: 10s
retrieval:
  top_k: 4
index:
  store: ${VRA_TEST_STORE:file}
`)
	writeFile(t, dir, "config.staging.yaml", `
retrieval:
  top_k: 3
`)
	t.Setenv("APP_ENV", "staging")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Chunking.Duration)
	assert.Equal(t, 10*time.Second, cfg.Chunking.Overlap)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, "file", cfg.Index.Store)
	assert.Equal(t, "video-rag-api", cfg.App.Name)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
	assert.Equal(t, "https://www.youtube.com/watch", cfg.Retrieval.WatchURL)
	assert.EqualValues(t, 3, cfg.Ingest.EmbedMaxRetries)
}

func TestLoadFrom_RejectsBadChunking(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
chunking:
  duration: 30s
  overlap: 30s
`)
	t.Setenv("APP_ENV", "test")

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunking.overlap")
}

func TestLoadFrom_MissingBaseFile(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.Error(t, err)
}

func TestChunkingConfig_Validate(t *testing.T) {
	assert.NoError(t, ChunkingConfig{Duration: time.Minute}.Validate())
	assert.Error(t, ChunkingConfig{}.Validate())
	assert.Error(t, ChunkingConfig{Duration: time.Minute, Overlap: -time.Second}.Validate())
}
