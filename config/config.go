// Package config loads the tutormesh configuration from an optional YAML file,
// TUTORMESH_* environment variables and the well-known provider key variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TUTORMESH_SERVER_ADDRESS.
const EnvPrefix = "TUTORMESH"

// Config holds all configuration of the tutor service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	APIKeys    APIKeysConfig    `mapstructure:"api_keys"`
	Models     ModelsConfig     `mapstructure:"models"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address        string   `mapstructure:"address" validate:"required"`
	AllowOrigins   []string `mapstructure:"allow_origins"`
	MetricsEnabled bool     `mapstructure:"metrics_enabled"`
}

// LogConfig selects level and handler format.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// APIKeysConfig holds provider credentials. Each key also reads its provider's
// conventional variable (GROQ_API_KEY, OPENAI_API_KEY, ...).
type APIKeysConfig struct {
	Groq      string `mapstructure:"groq"`
	OpenAI    string `mapstructure:"openai"`
	Anthropic string `mapstructure:"anthropic"`
	Tavily    string `mapstructure:"tavily"`
}

// For returns the key of a model provider.
func (k APIKeysConfig) For(provider string) string {
	switch provider {
	case "groq":
		return k.Groq
	case "openai":
		return k.OpenAI
	case "anthropic":
		return k.Anthropic
	default:
		return ""
	}
}

// ModelConfig describes one chat model.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider" validate:"oneof=openai groq anthropic"`
	Name        string  `mapstructure:"name" validate:"required"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gte=0"`
	// APIKey overrides the provider key from APIKeysConfig.
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ModelsConfig assigns a model to every role.
type ModelsConfig struct {
	Retrieval ModelConfig `mapstructure:"retrieval"`
	Reasoning ModelConfig `mapstructure:"reasoning"`
	Fusion    ModelConfig `mapstructure:"fusion"`
}

// EmbeddingConfig selects the embedding backend of the retrieval index.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=openai openai_compat ollama"`
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
}

// RetrievalConfig configures the document index.
type RetrievalConfig struct {
	PDFPath string `mapstructure:"pdf_path" validate:"required"`
	// DatastoreDir persists the vector collection; empty keeps it in memory.
	DatastoreDir string          `mapstructure:"datastore_dir"`
	Collection   string          `mapstructure:"collection" validate:"required"`
	ChunkSize    int             `mapstructure:"chunk_size" validate:"gt=0"`
	ChunkOverlap int             `mapstructure:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	TopK         int             `mapstructure:"top_k" validate:"gt=0"`
	Embedding    EmbeddingConfig `mapstructure:"embedding"`
}

// WikipediaConfig configures the encyclopedia tool.
type WikipediaConfig struct {
	Language string `mapstructure:"language" validate:"required"`
	TopK     int    `mapstructure:"top_k" validate:"gt=0"`
	MaxChars int    `mapstructure:"max_chars" validate:"gt=0"`
	BaseURL  string `mapstructure:"base_url"`
}

// TavilyConfig configures web and video search.
type TavilyConfig struct {
	MaxResults int    `mapstructure:"max_results" validate:"gt=0"`
	BaseURL    string `mapstructure:"base_url"`
}

// VideoConfig restricts video search to domains.
type VideoConfig struct {
	Domains []string `mapstructure:"domains" validate:"min=1"`
}

// CacheConfig configures the tool result cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Backend string        `mapstructure:"backend" validate:"oneof=memory redis"`
	TTL     time.Duration `mapstructure:"ttl" validate:"gt=0"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds Redis connection details.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Prefix   string `mapstructure:"prefix"`
}

// ToolsConfig groups all tool settings.
type ToolsConfig struct {
	Wikipedia WikipediaConfig `mapstructure:"wikipedia"`
	Tavily    TavilyConfig    `mapstructure:"tavily"`
	Video     VideoConfig     `mapstructure:"video"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// SupervisorConfig configures the coordinator.
type SupervisorConfig struct {
	Parallel       bool          `mapstructure:"parallel"`
	MaxRoundTrips  int           `mapstructure:"max_round_trips" validate:"gt=0"`
	MaxParallel    int           `mapstructure:"max_parallel_tools" validate:"gte=0"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" validate:"gte=0"`
	VideoKeywords  []string      `mapstructure:"video_keywords"`
}

// SetDefaults registers the defaults of every key on v. Keys without a
// meaningful default are registered with their zero value so AutomaticEnv
// can override them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.metrics_enabled", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("models.retrieval.provider", "groq")
	v.SetDefault("models.retrieval.name", "qwen/qwen3-32b")
	v.SetDefault("models.retrieval.temperature", 0.6)
	v.SetDefault("models.reasoning.provider", "groq")
	v.SetDefault("models.reasoning.name", "llama-3.1-8b-instant")
	v.SetDefault("models.reasoning.temperature", 0.6)
	v.SetDefault("models.fusion.provider", "groq")
	v.SetDefault("models.fusion.name", "groq/compound-mini")
	v.SetDefault("models.fusion.temperature", 0.5)
	for _, role := range []string{"retrieval", "reasoning", "fusion"} {
		v.SetDefault("models."+role+".max_tokens", 0)
		v.SetDefault("models."+role+".api_key", "")
		v.SetDefault("models."+role+".base_url", "")
	}

	v.SetDefault("retrieval.pdf_path", "data.pdf")
	v.SetDefault("retrieval.datastore_dir", "datastore")
	v.SetDefault("retrieval.collection", "tutor")
	v.SetDefault("retrieval.chunk_size", 400)
	v.SetDefault("retrieval.chunk_overlap", 80)
	v.SetDefault("retrieval.top_k", 4)
	v.SetDefault("retrieval.embedding.provider", "openai")
	v.SetDefault("retrieval.embedding.model", "text-embedding-3-small")
	v.SetDefault("retrieval.embedding.base_url", "")
	v.SetDefault("retrieval.embedding.api_key", "")

	v.SetDefault("tools.wikipedia.language", "en")
	v.SetDefault("tools.wikipedia.top_k", 1)
	v.SetDefault("tools.wikipedia.max_chars", 300)
	v.SetDefault("tools.wikipedia.base_url", "")
	v.SetDefault("tools.tavily.max_results", 5)
	v.SetDefault("tools.tavily.base_url", "")
	v.SetDefault("tools.video.domains", []string{"youtube.com"})
	v.SetDefault("tools.cache.enabled", false)
	v.SetDefault("tools.cache.backend", "memory")
	v.SetDefault("tools.cache.ttl", time.Hour)
	v.SetDefault("tools.cache.redis.addr", "localhost:6379")
	v.SetDefault("tools.cache.redis.db", 0)
	v.SetDefault("tools.cache.redis.prefix", "tutormesh:")

	v.SetDefault("supervisor.parallel", false)
	v.SetDefault("supervisor.max_round_trips", 8)
	v.SetDefault("supervisor.max_parallel_tools", 0)
	v.SetDefault("supervisor.request_timeout", 2*time.Minute)
	// empty falls back to the selector's built-in keywords
	v.SetDefault("supervisor.video_keywords", []string{})
}

// wellKnownEnv maps keys to conventional variables consulted after the
// prefixed override.
var wellKnownEnv = map[string]string{
	"api_keys.groq":              "GROQ_API_KEY",
	"api_keys.openai":            "OPENAI_API_KEY",
	"api_keys.anthropic":         "ANTHROPIC_API_KEY",
	"api_keys.tavily":            "TAVILY_API_KEY",
	"tools.cache.redis.addr":     "REDIS_ADDR",
	"tools.cache.redis.password": "REDIS_PASSWORD",
}

// Load reads the configuration. An empty path searches tutormesh.yaml in the
// working directory and ./config; a missing file is then not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path == "" {
		v.SetConfigName("tutormesh")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range wellKnownEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration without file or environment input.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	cfg.normalize()

	return &cfg
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ModelAPIKey returns the explicit key of m or its provider's key.
func (c *Config) ModelAPIKey(m ModelConfig) string {
	if m.APIKey != "" {
		return m.APIKey
	}
	return c.APIKeys.For(m.Provider)
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	if c.Retrieval.Embedding.APIKey == "" && c.Retrieval.Embedding.Provider == "openai" {
		c.Retrieval.Embedding.APIKey = c.APIKeys.OpenAI
	}

	var domains []string
	for _, d := range c.Tools.Video.Domains {
		if d = strings.TrimSpace(d); d != "" {
			domains = append(domains, d)
		}
	}
	c.Tools.Video.Domains = domains
}
