package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/eduforge/internal/llm"
	"github.com/abhisek/eduforge/internal/observability"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "EDUFORGE"

// Config is the full runtime configuration of the eduforge binaries.
type Config struct {
	LLM    llm.Config
	Server ServerConfig
	Store  StoreConfig
	Log    LogConfig
	Trace  observability.TraceConfig
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
	RateLimit      float64 // requests per second; 0 disables limiting
	RateBurst      int
	CORSOrigins    []string
}

// StoreConfig configures the SQLite database. An empty Path means
// store.DefaultDBPath.
type StoreConfig struct {
	Path string
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Mode  string
	Level string
}

// Load reads configuration from defaults, an optional YAML file and the
// environment. An explicit path that cannot be read is an error; a missing
// default eduforge.yaml is not.
func Load(path string) (Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("eduforge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "eduforge"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return decode(v), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := llm.DefaultConfig()
	v.SetDefault("llm.provider", d.Provider)
	v.SetDefault("llm.temperature", d.Temperature)
	v.SetDefault("llm.max_tokens", d.MaxTokens)
	v.SetDefault("llm.timeout", d.Timeout)
	v.SetDefault("llm.retry.max_attempts", d.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", d.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", d.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", d.Retry.Multiplier)

	providers := map[string]string{
		"groq":       d.Groq.Model,
		"openai":     d.OpenAI.Model,
		"anthropic":  d.Anthropic.Model,
		"gemini":     d.Gemini.Model,
		"openrouter": d.OpenRouter.Model,
	}
	for name, model := range providers {
		v.SetDefault("llm."+name+".model", model)
		v.SetDefault("llm."+name+".base_url", "")
		// The vendor's own variable works too, as the hosted SDKs read it.
		_ = v.BindEnv("llm."+name+".api_key",
			EnvPrefix+"_"+strings.ToUpper(name)+"_API_KEY",
			strings.ToUpper(name)+"_API_KEY",
		)
	}

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.request_timeout", 90*time.Second)
	v.SetDefault("server.rate_limit", 0.0)
	v.SetDefault("server.rate_burst", 5)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("store.path", "")
	_ = v.BindEnv("store.path", EnvPrefix+"_STORE_PATH", EnvPrefix+"_DB")

	v.SetDefault("log.mode", "dev")
	v.SetDefault("log.level", "info")

	v.SetDefault("trace.enabled", false)
	v.SetDefault("trace.endpoint", "")
	v.SetDefault("trace.insecure", true)
	v.SetDefault("trace.sample_ratio", 1.0)
	v.SetDefault("trace.service_name", "eduforge")
	return v
}

func decode(v *viper.Viper) Config {
	cfg := Config{
		LLM: llm.Config{
			Provider: strings.ToLower(v.GetString("llm.provider")),
			Groq: llm.GroqConfig{
				APIKey:  v.GetString("llm.groq.api_key"),
				Model:   v.GetString("llm.groq.model"),
				BaseURL: v.GetString("llm.groq.base_url"),
			},
			OpenAI: llm.OpenAIConfig{
				APIKey:  v.GetString("llm.openai.api_key"),
				Model:   v.GetString("llm.openai.model"),
				BaseURL: v.GetString("llm.openai.base_url"),
			},
			Anthropic: llm.AnthropicConfig{
				APIKey: v.GetString("llm.anthropic.api_key"),
				Model:  v.GetString("llm.anthropic.model"),
			},
			Gemini: llm.GeminiConfig{
				APIKey: v.GetString("llm.gemini.api_key"),
				Model:  v.GetString("llm.gemini.model"),
			},
			OpenRouter: llm.OpenRouterConfig{
				APIKey:  v.GetString("llm.openrouter.api_key"),
				Model:   v.GetString("llm.openrouter.model"),
				BaseURL: v.GetString("llm.openrouter.base_url"),
			},
			Retry: llm.RetryConfig{
				MaxAttempts: v.GetInt("llm.retry.max_attempts"),
				InitialWait: v.GetDuration("llm.retry.initial_wait"),
				MaxWait:     v.GetDuration("llm.retry.max_wait"),
				Multiplier:  v.GetFloat64("llm.retry.multiplier"),
			},
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			Timeout:     v.GetDuration("llm.timeout"),
		},
		Server: ServerConfig{
			Addr:           v.GetString("server.addr"),
			RequestTimeout: v.GetDuration("server.request_timeout"),
			RateLimit:      v.GetFloat64("server.rate_limit"),
			RateBurst:      v.GetInt("server.rate_burst"),
			CORSOrigins:    v.GetStringSlice("server.cors_origins"),
		},
		Store: StoreConfig{
			Path: v.GetString("store.path"),
		},
		Log: LogConfig{
			Mode:  v.GetString("log.mode"),
			Level: v.GetString("log.level"),
		},
		Trace: observability.TraceConfig{
			Enabled:     v.GetBool("trace.enabled"),
			Endpoint:    v.GetString("trace.endpoint"),
			Insecure:    v.GetBool("trace.insecure"),
			SampleRatio: v.GetFloat64("trace.sample_ratio"),
			ServiceName: v.GetString("trace.service_name"),
		},
	}

	// PORT is what most hosting platforms set.
	if port := os.Getenv("PORT"); port != "" && os.Getenv(EnvPrefix+"_SERVER_ADDR") == "" {
		cfg.Server.Addr = ":" + port
	}
	return cfg
}

// Validate checks the parts of the configuration every command needs.
func (c Config) Validate() error {
	if err := c.LLM.Validate(); err != nil {
		return err
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative, got %v", c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst must be at least 1 when rate limiting is on")
	}
	return nil
}
