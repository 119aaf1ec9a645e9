// Package config loads application configuration from a file and
// environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the agent service.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Model   ModelConfig   `mapstructure:"model"`
	Session SessionConfig `mapstructure:"session"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Graph   GraphConfig   `mapstructure:"graph"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ModelConfig selects and configures the completion backend.
type ModelConfig struct {
	// Provider is one of "openai", "anthropic" or "mock".
	Provider    string  `mapstructure:"provider"`
	Name        string  `mapstructure:"name"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`

	// Workers bounds concurrent backend calls across all threads.
	Workers int `mapstructure:"workers"`

	// Thinking keeps model reasoning preambles enabled for the router.
	Thinking bool `mapstructure:"thinking"`
}

// SessionConfig contains checkpoint store settings.
type SessionConfig struct {
	// Backend is "memory" or "redis".
	Backend string      `mapstructure:"backend"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ToolsConfig contains search tool credentials and limits.
type ToolsConfig struct {
	WebSearch  WebSearchConfig  `mapstructure:"web_search"`
	NewsSearch NewsSearchConfig `mapstructure:"news_search"`
}

// WebSearchConfig contains Serper web search settings.
type WebSearchConfig struct {
	APIKey     string `mapstructure:"api_key"`
	MaxResults int    `mapstructure:"max_results"`
}

// NewsSearchConfig contains NewsAPI settings.
type NewsSearchConfig struct {
	APIKey     string `mapstructure:"api_key"`
	MaxResults int    `mapstructure:"max_results"`
}

// GraphConfig contains workflow engine tuning.
type GraphConfig struct {
	MaxToolParallel int `mapstructure:"max_tool_parallel"`
	StepBufferSize  int `mapstructure:"step_buffer_size"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the given file (optional) and from
// environment variables with the AGENTGRAPH_ prefix. Environment variables
// use underscores for nesting, e.g. AGENTGRAPH_MODEL_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("AGENTGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("agentgraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.temperature", 0.7)
	v.SetDefault("model.max_tokens", 4096)
	v.SetDefault("model.workers", 1)
	v.SetDefault("model.thinking", false)

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.ttl", "0s")

	v.SetDefault("tools.web_search.max_results", 5)
	v.SetDefault("tools.news_search.max_results", 5)

	v.SetDefault("graph.max_tool_parallel", 4)
	v.SetDefault("graph.step_buffer_size", 16)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func validate(cfg *Config) error {
	switch cfg.Model.Provider {
	case "openai", "anthropic", "mock":
	default:
		return fmt.Errorf("unknown model provider %q", cfg.Model.Provider)
	}

	switch cfg.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}

	if cfg.Model.Workers < 1 {
		return fmt.Errorf("model.workers must be at least 1")
	}
	if cfg.Graph.MaxToolParallel < 1 {
		return fmt.Errorf("graph.max_tool_parallel must be at least 1")
	}

	return nil
}
