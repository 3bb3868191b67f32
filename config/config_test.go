package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5, cfg.Batch.ChunkSize)
	assert.Equal(t, 1500*time.Millisecond, cfg.Batch.ChunkDelay)
	assert.Equal(t, 3, cfg.Batch.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Batch.RetryDelay)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
}

func TestApplyEnvGemini(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("GEMINI_API_KEY", "gm-key")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("BATCH_CHUNK_SIZE", "8")
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/pps")

	cfg := Default()
	applyEnv(cfg)

	assert.Equal(t, "gm-key", cfg.LLM.APIKey)
	assert.Equal(t, 8, cfg.Batch.ChunkSize)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "user:pass@tcp(localhost:3306)/pps", cfg.Database.DSN)
}

func TestApplyEnvOpenAI(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "oa-key")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("LLM_MODEL", "qwen2.5")
	t.Setenv("BATCH_CHUNK_SIZE", "-1")

	cfg := Default()
	applyEnv(cfg)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "oa-key", cfg.LLM.APIKey)
	assert.Equal(t, "http://localhost:11434/v1", cfg.LLM.APIURL)
	assert.Equal(t, "qwen2.5", cfg.LLM.Model)
	assert.Equal(t, 5, cfg.Batch.ChunkSize, "非正数不覆盖")
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: "9090"
batch:
  chunk_size: 3
  chunk_delay: 500ms
persist:
  debounce: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("BATCH_CHUNK_SIZE", "")

	cfg := loadConfig()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Batch.ChunkSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Batch.ChunkDelay)
	assert.Equal(t, 2*time.Second, cfg.Persist.Debounce)
	assert.Equal(t, 3, cfg.Batch.MaxAttempts, "未出现的字段保留默认值")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Server.Port = "7000"
	require.NoError(t, cfg.Save(path))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("SERVER_PORT", "")
	loaded := loadConfig()
	assert.Equal(t, "7000", loaded.Server.Port)
}
