package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv removes every INVOICIT_* variable for the duration of the test.
// t.Setenv registers the restore; Unsetenv makes the variable truly absent,
// which matters because godotenv never overrides present variables.
func clearEnv(t *testing.T) {
	t.Helper()
	names := []string{
		EnvDBPath, EnvHTTPAddr,
		EnvChatHost, EnvChatModel, EnvEmbeddingHost, EnvEmbeddingModel,
		EnvAPIKey, EnvPackManifest, EnvRegistry, EnvLogLevel,
	}
	for _, name := range names {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DefaultChatHost, cfg.ChatHost)
	assert.Equal(t, DefaultChatModel, cfg.ChatModel)
	assert.Equal(t, DefaultEmbeddingHost, cfg.EmbeddingHost)
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, DefaultPackManifest, cfg.PackManifest)
	assert.Equal(t, DefaultRegistry, cfg.Registry)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDBPath, "/var/lib/invoicit")
	t.Setenv(EnvChatModel, "qwen2.5:7b")
	t.Setenv(EnvAPIKey, "sk-test-123")
	t.Setenv(EnvRegistry, "https://packs.example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/invoicit", cfg.DBPath)
	assert.Equal(t, "qwen2.5:7b", cfg.ChatModel)
	assert.Equal(t, "sk-test-123", cfg.APIKey)
	assert.Equal(t, "https://packs.example.com", cfg.Registry)

	// Untouched variables keep their defaults.
	assert.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	assert.Equal(t, DefaultChatHost, cfg.ChatHost)
}

func TestLoad_EmptyValueUsesDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvChatModel, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultChatModel, cfg.ChatModel)
	assert.False(t, cfg.set[EnvChatModel])
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), ".env")
	contents := "INVOICIT_DB=/data/invoices\n" +
		"INVOICIT_CHAT_HOST=http://ollama.internal:11434\n" +
		"INVOICIT_LOG_LEVEL=debug\n"
	require.NoError(t, os.WriteFile(envFile, []byte(contents), 0o644))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "/data/invoices", cfg.DBPath)
	assert.Equal(t, "http://ollama.internal:11434", cfg.ChatHost)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultChatModel, cfg.ChatModel)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvChatModel, "from-environment")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("INVOICIT_CHAT_MODEL=from-file\n"), 0o644))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-environment", cfg.ChatModel)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.env"))
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
}

func TestLoad_MalformedEnvFile(t *testing.T) {
	clearEnv(t)

	envFile := filepath.Join(t.TempDir(), "broken.env")
	require.NoError(t, os.WriteFile(envFile, []byte("this is not a dotenv line\n"), 0o644))

	_, err := Load(envFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load env file")
}

func TestConfig_Status(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvChatModel, "qwen2.5:7b")
	t.Setenv(EnvAPIKey, "sk-secret-value")

	cfg, err := Load("")
	require.NoError(t, err)

	status := cfg.Status()
	require.Len(t, status, 10)

	byName := make(map[string]VarStatus, len(status))
	for _, entry := range status {
		byName[entry.Name] = entry
	}

	assert.True(t, byName[EnvChatModel].Set)
	assert.Equal(t, "qwen2.5:7b", byName[EnvChatModel].Value)

	assert.False(t, byName[EnvDBPath].Set)
	assert.Equal(t, DefaultDBPath, byName[EnvDBPath].Value)
	assert.Equal(t, DefaultDBPath, byName[EnvDBPath].Default)

	// The key itself must never appear in a status value.
	key := byName[EnvAPIKey]
	assert.True(t, key.Set)
	assert.Equal(t, "********", key.Value)
	assert.NotContains(t, key.Value, "sk-secret-value")
}

func TestConfig_StatusUnsetAPIKey(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	for _, entry := range cfg.Status() {
		if entry.Name == EnvAPIKey {
			assert.False(t, entry.Set)
			assert.Empty(t, entry.Value)
		}
	}
}

func TestConfig_AIConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvChatHost, "http://chat.internal:9100")
	t.Setenv(EnvEmbeddingModel, "nomic-embed-text")

	cfg, err := Load("")
	require.NoError(t, err)

	aiCfg := cfg.AIConfig()
	assert.Equal(t, "http://chat.internal:9100", aiCfg.ChatHost)
	assert.Equal(t, "nomic-embed-text", aiCfg.EmbeddingModel)
	assert.Equal(t, DefaultChatModel, aiCfg.ChatModel)

	// No key configured leaves the AI default in place; Normalize then
	// appends the /v1 suffix the OpenAI-compatible servers expect.
	assert.Equal(t, "none", aiCfg.APIKey)
	aiCfg.Normalize()
	assert.Equal(t, "http://chat.internal:9100/v1", aiCfg.ChatHost)
}
