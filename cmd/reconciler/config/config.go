// Package config assembles runtime settings for the reconciler CLI from
// flags, environment, and an optional config file (all merged by viper
// before this package reads them).
package config

import (
	"fmt"
	"os"

	"statement-reconciliation-service/internal/matcher"
	"statement-reconciliation-service/pkg/logger"

	"github.com/spf13/viper"
)

// Settings is the CLI's effective configuration.
type Settings struct {
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	Actor       string
	WindowDays  int
}

// Load reads settings from viper and validates them.
func Load() (*Settings, error) {
	settings := &Settings{
		DatabaseURL: viper.GetString("database-url"),
		LogLevel:    viper.GetString("log-level"),
		LogFormat:   viper.GetString("log-format"),
		Actor:       viper.GetString("actor"),
		WindowDays:  viper.GetInt("window-days"),
	}

	if settings.LogLevel == "" {
		settings.LogLevel = string(logger.InfoLevel)
	}
	if settings.LogFormat == "" {
		settings.LogFormat = string(logger.TextFormat)
	}
	if settings.Actor == "" {
		settings.Actor = defaultActor()
	}
	if settings.WindowDays == 0 && !viper.IsSet("window-days") {
		settings.WindowDays = matcher.DefaultWindowDays
	}

	if settings.WindowDays < 0 {
		return nil, fmt.Errorf("window-days cannot be negative, got %d", settings.WindowDays)
	}
	if err := settings.LoggerConfig().Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// RequireDatabase fails when no database URL is configured. Commands that
// touch a store call this before connecting.
func (s *Settings) RequireDatabase() error {
	if s.DatabaseURL == "" {
		return fmt.Errorf("no database configured: set --database-url or RECONCILER_DATABASE_URL")
	}
	return nil
}

// LoggerConfig converts the settings into a logger configuration.
func (s *Settings) LoggerConfig() *logger.Config {
	return &logger.Config{
		Level:  logger.Level(s.LogLevel),
		Format: logger.Format(s.LogFormat),
	}
}

// MatcherConfig converts the settings into a matcher configuration.
func (s *Settings) MatcherConfig() *matcher.Config {
	return &matcher.Config{WindowDays: s.WindowDays}
}

func defaultActor() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "unknown"
}
