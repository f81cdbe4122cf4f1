package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable the loader reads so the host environment
// cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "EDUFORGE_SERVER_ADDR", "EDUFORGE_LLM_PROVIDER", "EDUFORGE_DB", "EDUFORGE_STORE_PATH",
		"EDUFORGE_GROQ_API_KEY", "GROQ_API_KEY", "EDUFORGE_OPENAI_API_KEY", "OPENAI_API_KEY",
		"EDUFORGE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY", "EDUFORGE_GEMINI_API_KEY", "GEMINI_API_KEY",
		"EDUFORGE_OPENROUTER_API_KEY", "OPENROUTER_API_KEY", "EDUFORGE_LLM_TEMPERATURE",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "llama-3.3-70b", cfg.LLM.Groq.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 1, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 90*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "dev", cfg.Log.Mode)
	assert.False(t, cfg.Trace.Enabled)

	// No key anywhere: startup must fail with a hint.
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "console.groq.com")
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-vendor")
	t.Setenv("EDUFORGE_LLM_TEMPERATURE", "0.2")
	t.Setenv("PORT", "9090")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gsk-vendor", cfg.LLM.Groq.APIKey)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-vendor")
	t.Setenv("EDUFORGE_GROQ_API_KEY", "gsk-prefixed")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gsk-prefixed", cfg.LLM.Groq.APIKey)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "eduforge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: anthropic
  max_tokens: 1024
  anthropic:
    api_key: sk-ant-file
    model: claude-sonnet
server:
  addr: 127.0.0.1:7000
  rate_limit: 2.5
  rate_burst: 3
  cors_origins: ["https://example.org"]
store:
  path: /tmp/eduforge-test.db
log:
  mode: prod
  level: debug
trace:
  enabled: true
  endpoint: localhost:4318
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-ant-file", cfg.LLM.Anthropic.APIKey)
	assert.Equal(t, "claude-sonnet", cfg.LLM.Anthropic.Model)
	assert.Equal(t, 1024, cfg.LLM.MaxTokens)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
	assert.InDelta(t, 2.5, cfg.Server.RateLimit, 1e-9)
	assert.Equal(t, 3, cfg.Server.RateBurst)
	assert.Equal(t, []string{"https://example.org"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "/tmp/eduforge-test.db", cfg.Store.Path)
	assert.Equal(t, "prod", cfg.Log.Mode)
	assert.True(t, cfg.Trace.Enabled)
	assert.Equal(t, "localhost:4318", cfg.Trace.Endpoint)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate_RateLimit(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.LLM.Provider = "mock"

	cfg.Server.RateLimit = -1
	assert.Error(t, cfg.Validate())

	cfg.Server.RateLimit = 1
	cfg.Server.RateBurst = 0
	assert.Error(t, cfg.Validate())

	cfg.Server.RateBurst = 1
	assert.NoError(t, cfg.Validate())
}
