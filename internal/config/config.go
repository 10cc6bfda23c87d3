package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all companion configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Study    StudyConfig    `mapstructure:"study"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Bind string `mapstructure:"bind"`
	Port int    `mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LLMConfig struct {
	Provider       string `mapstructure:"provider"` // "openai", "anthropic", "ollama"
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"base_url"` // OpenAI-compatible gateway
	APIKey         string `mapstructure:"api_key"`
	AnthropicKey   string `mapstructure:"anthropic_key"`
	OllamaURL      string `mapstructure:"ollama_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type StudyConfig struct {
	// DefaultCondition is assigned when registration names none.
	DefaultCondition string `mapstructure:"default_condition"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37777,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		LLM: LLMConfig{
			Provider:       "openai",
			Model:          "llama3.1:latest",
			BaseURL:        "https://genai.rcac.purdue.edu/api/",
			OllamaURL:      "http://localhost:11434",
			TimeoutSeconds: 60,
		},
		Study: StudyConfig{
			DefaultCondition: "SESSION_AUTO",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.companion/companion.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".companion", "companion.toml"), nil
}

// Load reads the TOML config at path (DefaultPath when empty) over the
// defaults. A missing file is not an error. COMPANION_* environment
// variables override file values, e.g. COMPANION_SERVER_PORT.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix("COMPANION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_, statErr := os.Stat(path)
	switch {
	case statErr == nil:
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	case errors.Is(statErr, os.ErrNotExist) && !explicit:
		// defaults and environment only
	default:
		return Config{}, fmt.Errorf("stat config %s: %w", path, statErr)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	// Provider keys commonly live in the environment under their own names.
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = firstEnv("GENAI_API_KEY", "OPENAI_API_KEY")
	}
	if cfg.LLM.AnthropicKey == "" {
		cfg.LLM.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("server.bind", d.Server.Bind)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.anthropic_key", d.LLM.AnthropicKey)
	v.SetDefault("llm.ollama_url", d.LLM.OllamaURL)
	v.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	v.SetDefault("study.default_condition", d.Study.DefaultCondition)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.pretty", d.Logging.Pretty)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

// Timeout returns the per-call generation timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
