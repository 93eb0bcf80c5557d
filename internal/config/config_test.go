package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withConfigPath(t *testing.T) string {
	t.Helper()
	old := configPath
	path := filepath.Join(t.TempDir(), "config.json")
	SetConfigPath(path)
	t.Cleanup(func() { configPath = old })
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	withConfigPath(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "deepseek", cfg.DefaultProvider)
	assert.Equal(t, 200, cfg.SummaryLength)
	assert.Equal(t, "articleGPT", cfg.SummaryKey)
	assert.True(t, cfg.MarkShown)
	assert.Equal(t, 3*time.Second, cfg.RequestInterval())
	assert.Equal(t, 1, cfg.MaxWorkers)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoad(t *testing.T) {
	path := withConfigPath(t)

	cfg := Default()
	cfg.DefaultProvider = "anthropic"
	cfg.SummaryLength = 120
	cfg.MarkShown = false
	require.NoError(t, cfg.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", loaded.DefaultProvider)
	assert.Equal(t, 120, loaded.SummaryLength)
	assert.False(t, loaded.MarkShown)
	// Untouched fields keep their defaults.
	assert.Equal(t, "articleGPT", loaded.SummaryKey)
}

func TestLoadExpandsEnvReferences(t *testing.T) {
	path := withConfigPath(t)
	t.Setenv("MY_DEEPSEEK_KEY", "sk-from-env")
	require.NoError(t, os.WriteFile(path, []byte(`{"deepseek_api_key":"${MY_DEEPSEEK_KEY}"}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-from-env", cfg.GetAPIKey("deepseek"))
}

func TestLoadInvalidJSON(t *testing.T) {
	path := withConfigPath(t)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := Load()
	assert.Error(t, err)
}

func TestGetAPIKeyEnvFallback(t *testing.T) {
	cfg := Default()
	t.Setenv("OPENAI_API_KEY", "sk-env")
	assert.Equal(t, "sk-env", cfg.GetAPIKey("openai"))

	cfg.OpenAIAPIKey = "sk-config"
	assert.Equal(t, "sk-config", cfg.GetAPIKey("openai"))

	assert.Empty(t, cfg.GetAPIKey("ollama"))
	assert.True(t, cfg.HasProvider("ollama"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.DefaultProvider = "nope" }},
		{"zero length", func(c *Config) { c.SummaryLength = 0 }},
		{"negative interval", func(c *Config) { c.RequestIntervalSeconds = -1 }},
		{"zero workers", func(c *Config) { c.MaxWorkers = 0 }},
		{"bad summary key", func(c *Config) { c.SummaryKey = "has space" }},
		{"template without content", func(c *Config) { c.PromptTemplate = "summarize in {max_length}" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGetBaseURLAndModel(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "https://api.deepseek.com", cfg.GetBaseURL("deepseek"))
	assert.Equal(t, "deepseek-chat", cfg.GetModel(cfg.GetProvider()))

	cfg.OpenAIBaseURL = "http://localhost:8080/v1"
	assert.Equal(t, "http://localhost:8080/v1", cfg.GetBaseURL("openai"))

	cfg.DefaultModel = "deepseek-reasoner"
	assert.Equal(t, "deepseek-reasoner", cfg.GetModel("deepseek"))
	assert.Equal(t, "gpt-4o-mini", cfg.GetModel("openai"))
}

func TestSetBaseURL(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.SetBaseURL("openai", "http://gateway.local/v1"))
	assert.Equal(t, "http://gateway.local/v1", cfg.GetBaseURL("openai"))
	assert.False(t, cfg.SetBaseURL("anthropic", "http://x"))
	assert.Equal(t, "https://api.anthropic.com/v1", cfg.GetBaseURL("anthropic"))
}
