// Package config loads server configuration with viper, from an optional
// config.yaml and from environment variables (env wins).
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port               int    `mapstructure:"PORT"`
	DBPath             string `mapstructure:"DB_PATH"`
	JWTSecret          string `mapstructure:"JWT_SECRET"`
	GitHubClientID     string `mapstructure:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `mapstructure:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `mapstructure:"GITHUB_CALLBACK_URL"`
	// GitHubAPIBaseURL overrides the GitHub REST endpoint. Leave empty for
	// the real API; set it in integration tests.
	GitHubAPIBaseURL string `mapstructure:"GITHUB_API_BASE_URL"`
}

// Load reads configuration from config.yaml in path (if present) and the
// environment. Secrets (JWT_SECRET, the GitHub OAuth app credentials) are
// required; everything else has a default.
func Load(path string) (Config, error) {
	v := viper.New()

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Defaults double as the key registry: AutomaticEnv only surfaces env
	// vars for keys viper already knows about.
	v.SetDefault("PORT", 8080)
	v.SetDefault("DB_PATH", "data/devlink.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("GITHUB_CLIENT_ID", "")
	v.SetDefault("GITHUB_CLIENT_SECRET", "")
	v.SetDefault("GITHUB_CALLBACK_URL", "")
	v.SetDefault("GITHUB_API_BASE_URL", "")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars may carry everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding: %w", err)
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is not set")
	}
	if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
		return Config{}, fmt.Errorf("config: GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are not set")
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return cfg, nil
}
