package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tutormesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8000", cfg.Server.Address)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowOrigins)

	assert.Equal(t, "groq", cfg.Models.Retrieval.Provider)
	assert.Equal(t, "qwen/qwen3-32b", cfg.Models.Retrieval.Name)
	assert.InDelta(t, 0.6, cfg.Models.Retrieval.Temperature, 1e-9)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Models.Reasoning.Name)
	assert.Equal(t, "groq/compound-mini", cfg.Models.Fusion.Name)
	assert.InDelta(t, 0.5, cfg.Models.Fusion.Temperature, 1e-9)

	assert.Equal(t, 400, cfg.Retrieval.ChunkSize)
	assert.Equal(t, 80, cfg.Retrieval.ChunkOverlap)
	assert.Equal(t, 1, cfg.Tools.Wikipedia.TopK)
	assert.Equal(t, 300, cfg.Tools.Wikipedia.MaxChars)
	assert.Equal(t, []string{"youtube.com"}, cfg.Tools.Video.Domains)
	assert.Equal(t, time.Hour, cfg.Tools.Cache.TTL)

	assert.Equal(t, 8, cfg.Supervisor.MaxRoundTrips)
	assert.False(t, cfg.Supervisor.Parallel)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9090"
log:
  level: DEBUG
  format: json
models:
  fusion:
    provider: anthropic
    name: claude-3-5-haiku-latest
    temperature: 0.2
supervisor:
  parallel: true
  request_timeout: 30s
tools:
  video:
    domains: ["youtube.com", " vimeo.com ", ""]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "anthropic", cfg.Models.Fusion.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Models.Fusion.Name)
	assert.True(t, cfg.Supervisor.Parallel)
	assert.Equal(t, 30*time.Second, cfg.Supervisor.RequestTimeout)
	assert.Equal(t, []string{"youtube.com", "vimeo.com"}, cfg.Tools.Video.Domains)

	// untouched sections keep their defaults
	assert.Equal(t, "qwen/qwen3-32b", cfg.Models.Retrieval.Name)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TUTORMESH_SERVER_ADDRESS", ":7000")
	t.Setenv("TUTORMESH_RETRIEVAL_TOP_K", "2")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TAVILY_API_KEY", "tvly-test")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("TUTORMESH_MODELS_FUSION_BASE_URL", "http://proxy:4000/v1")
	t.Setenv("TUTORMESH_MODELS_REASONING_MAX_TOKENS", "512")
	t.Setenv("TUTORMESH_RETRIEVAL_EMBEDDING_BASE_URL", "http://ollama:11434/api")
	t.Setenv("TUTORMESH_TOOLS_TAVILY_BASE_URL", "http://tavily.local")
	t.Setenv("TUTORMESH_SUPERVISOR_VIDEO_KEYWORDS", "clip,screencast")

	cfg, err := Load(writeConfig(t, "log:\n  level: info\n"))
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, 2, cfg.Retrieval.TopK)
	assert.Equal(t, "gsk-test", cfg.APIKeys.Groq)
	assert.Equal(t, "tvly-test", cfg.APIKeys.Tavily)
	assert.Equal(t, "redis:6379", cfg.Tools.Cache.Redis.Addr)
	assert.Equal(t, "sk-test", cfg.Retrieval.Embedding.APIKey)

	assert.Equal(t, "gsk-test", cfg.ModelAPIKey(cfg.Models.Reasoning))

	// keys without a meaningful default
	assert.Equal(t, "http://proxy:4000/v1", cfg.Models.Fusion.BaseURL)
	assert.Equal(t, 512, cfg.Models.Reasoning.MaxTokens)
	assert.Equal(t, "http://ollama:11434/api", cfg.Retrieval.Embedding.BaseURL)
	assert.Equal(t, "http://tavily.local", cfg.Tools.Tavily.BaseURL)
	assert.Equal(t, []string{"clip", "screencast"}, cfg.Supervisor.VideoKeywords)
}

func TestSetDefaults_RegistersEveryKey(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	known := map[string]bool{}
	for _, k := range v.AllKeys() {
		known[k] = true
	}
	for key := range wellKnownEnv {
		known[key] = true
	}

	for _, key := range configKeys(reflect.TypeOf(Config{}), "") {
		assert.True(t, known[key], "key %s cannot be overridden from the environment", key)
	}
}

func configKeys(typ reflect.Type, prefix string) []string {
	var keys []string
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		key := prefix + f.Tag.Get("mapstructure")
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, configKeys(f.Type, key+".")...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

func TestLoad_PrefixedKeyWins(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "plain")
	t.Setenv("TUTORMESH_API_KEYS_GROQ", "prefixed")

	cfg, err := Load(writeConfig(t, "{}"))
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.APIKeys.Groq)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "overlap not below size", body: "retrieval:\n  chunk_size: 100\n  chunk_overlap: 100\n"},
		{name: "unknown provider", body: "models:\n  reasoning:\n    provider: mistral\n"},
		{name: "bad log format", body: "log:\n  format: xml\n"},
		{name: "zero round trips", body: "supervisor:\n  max_round_trips: 0\n"},
		{name: "no video domains", body: "tools:\n  video:\n    domains: [\"\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorContains(t, err, "invalid config")
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config")
}

func TestModelAPIKey(t *testing.T) {
	cfg := Default()
	cfg.APIKeys = APIKeysConfig{Groq: "g", OpenAI: "o", Anthropic: "a"}

	assert.Equal(t, "g", cfg.ModelAPIKey(ModelConfig{Provider: "groq"}))
	assert.Equal(t, "a", cfg.ModelAPIKey(ModelConfig{Provider: "anthropic"}))
	assert.Equal(t, "explicit", cfg.ModelAPIKey(ModelConfig{Provider: "openai", APIKey: "explicit"}))
	assert.Empty(t, cfg.ModelAPIKey(ModelConfig{Provider: "unknown"}))
}
