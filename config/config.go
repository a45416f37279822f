package config

import (
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Authentication provider configuration
//   - storage.go: Credential storage, database and Redis configuration
type AppConfig struct {
	// IsDev controls development mode behavior (relaxed defaults, text logs).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Authentication provider configuration
	Auth AuthConfig

	// Credential storage configuration
	Storage StorageConfig

	// Database configuration (used when Storage.Mode=postgres)
	Postgres DBConfig `envPrefix:"DB_"`

	// Redis configuration (used when Storage.Mode=redis)
	Redis RedisConfig `envPrefix:"REDIS_"`

	// Notification webhook configuration
	Notify NotifyConfig `envPrefix:"NOTIFY_"`
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Auth.Sanitize()
	c.Storage.Sanitize()
	c.detectDevMode()
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
