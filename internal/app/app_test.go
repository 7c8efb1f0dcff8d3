package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amcodin/SmartScraper/internal/llm"
	"github.com/amcodin/SmartScraper/internal/storage/sqlite"
)

func TestModelConfigsGeminiDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_TEMPERATURE", "")
	t.Setenv("PRIMARY_MODEL", "")
	t.Setenv("SECONDARY_MODEL", "")
	t.Setenv("GEMINI_API_KEY", "k")

	primary, secondary := ModelConfigs()
	assert.Equal(t, llm.ProviderGemini, primary.Provider)
	assert.Equal(t, defaultGeminiPrimary, primary.Model)
	assert.Equal(t, defaultGeminiSecondary, secondary.Model)
	assert.Equal(t, "k", secondary.APIKey)
	assert.Equal(t, 400, primary.MaxTokens)
	require.NotNil(t, primary.Temperature)
	assert.InDelta(t, 0.2, *primary.Temperature, 1e-6)
}

func TestModelConfigsZeroTemperature(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_TEMPERATURE", "0")

	primary, _ := ModelConfigs()
	require.NotNil(t, primary.Temperature)
	assert.Equal(t, float32(0), *primary.Temperature)
}

func TestModelConfigsOpenAISingleModel(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("PRIMARY_MODEL", "")
	t.Setenv("SECONDARY_MODEL", "")

	primary, secondary := ModelConfigs()
	assert.Equal(t, llm.ProviderOpenAI, primary.Provider)
	assert.Equal(t, "http://localhost:8080/v1", primary.BaseURL)
	assert.Empty(t, secondary.Model)
}

func TestNewVerifierOpenAIWithStore(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("PRIMARY_MODEL", "")
	t.Setenv("SECONDARY_MODEL", "")
	t.Setenv("REDIS_ADDR", "")

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer store.Close()

	v, err := NewVerifier(context.Background(), Options{Store: store, NoNotify: true})
	require.NoError(t, err)
	require.NotNil(t, v.Service)
	assert.Nil(t, v.Cache)
	assert.NoError(t, v.Close())
}

func TestOpenStoreMigrates(t *testing.T) {
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "s.db"))

	store, err := OpenStore(context.Background())
	require.NoError(t, err)
	defer store.Close()

	v, err := store.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sqlite.SchemaVersion(), v)
}
