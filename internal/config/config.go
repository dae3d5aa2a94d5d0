// Package config loads application configuration with viper.
//
// CONFIGURATION LAYERS:
// Values are resolved in priority order:
//  1. Environment variables (GITHUB_TOKEN, OPENAI_API_KEY, SERVER_PORT, ...)
//  2. An optional config.yaml (searched in ./config and the working directory)
//  3. The defaults set below
//
// Credentials are expected to arrive via the environment — the config file is
// for everything that is safe to commit. Env var names are the config keys
// with "." replaced by "_" ("server.port" → SERVER_PORT), except the two
// credentials, which are bound explicitly to their conventional names.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable of the service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	// Path to the SQLite database file. ":memory:" works for ad-hoc runs.
	Path string `mapstructure:"path"`
}

type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"baseUrl"`
	// PerPage is the repository page size (GitHub caps this at 100).
	PerPage int `mapstructure:"perPage"`
	// MaxPages is the pagination safety ceiling. An upstream that keeps
	// returning non-empty pages past this is treated as faulty rather than
	// looped on forever.
	MaxPages int `mapstructure:"maxPages"`
}

type OpenAIConfig struct {
	APIKey        string `mapstructure:"apiKey"`
	BaseURL       string `mapstructure:"baseUrl"`
	PrimaryModel  string `mapstructure:"primaryModel"`
	FallbackModel string `mapstructure:"fallbackModel"`
	ImageModel    string `mapstructure:"imageModel"`
	ImageSize     string `mapstructure:"imageSize"`
	ImageQuality  string `mapstructure:"imageQuality"`
}

type PipelineConfig struct {
	// RequestTimeout bounds one full pipeline run, including every upstream
	// and generative call. A run that exceeds it fails; partial progress
	// already persisted stays persisted.
	RequestTimeout time.Duration `mapstructure:"requestTimeout"`
}

// Load reads, merges and validates the configuration.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only consults the environment for keys viper already
	// knows about (a default, a config-file entry, or an explicit binding).
	// The credentials have no default and stay out of the config file on
	// purpose, so without these bindings Unmarshal would never see them and
	// an env-only deployment could not start.
	v.BindEnv("github.token", "GITHUB_TOKEN")
	v.BindEnv("openai.apiKey", "OPENAI_API_KEY")

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "data/wrapped.db")
	v.SetDefault("github.baseUrl", "https://api.github.com")
	v.SetDefault("github.perPage", 100)
	v.SetDefault("github.maxPages", 1000)
	v.SetDefault("openai.baseUrl", "https://api.openai.com")
	v.SetDefault("openai.primaryModel", "gpt-4")
	v.SetDefault("openai.fallbackModel", "gpt-3.5-turbo")
	v.SetDefault("openai.imageModel", "dall-e-3")
	v.SetDefault("openai.imageSize", "1024x1024")
	v.SetDefault("openai.imageQuality", "standard")
	v.SetDefault("pipeline.requestTimeout", 10*time.Minute)

	// The config file is optional — env vars plus defaults are a complete
	// configuration. Only a malformed file is an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	if cfg.GitHub.Token == "" {
		return nil, fmt.Errorf("config: github.token (GITHUB_TOKEN) is required")
	}
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("config: openai.apiKey (OPENAI_API_KEY) is required")
	}

	return &cfg, nil
}
