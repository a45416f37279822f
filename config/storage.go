package config

import (
	"fmt"
	"strings"
)

// StorageMode selects the primary credential store backend.
type StorageMode string

const (
	StorageModeMemory   StorageMode = "memory"
	StorageModeFile     StorageMode = "file"
	StorageModeRedis    StorageMode = "redis"
	StorageModePostgres StorageMode = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageMode.
func (s *StorageMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "memory", "file", "redis", "postgres":
		*s = StorageMode(v)
		return nil
	default:
		return fmt.Errorf("invalid StorageMode: %q (valid options: memory, file, redis, postgres)", v)
	}
}

// StorageConfig selects and parameterizes the credential store tiers.
type StorageConfig struct {
	// Mode selects the primary (durable) tier backend.
	Mode StorageMode `env:"STORAGE_MODE" envDefault:"file"`

	// FilePath is the credential file location (Mode=file).
	FilePath string `env:"STORAGE_FILE" envDefault:".folio/credentials.json"`

	// KeyPrefix namespaces credential keys in shared backends (redis).
	KeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"credentials:"`
}

// Sanitize applies guardrails to storage configuration.
func (c *StorageConfig) Sanitize() {
	if c.FilePath == "" {
		c.FilePath = ".folio/credentials.json"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "credentials:"
	}
}

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"folio"`
	Password string `env:"PASSWORD" envDefault:"folio"`
	Name     string `env:"NAME"     envDefault:"folio"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
}

// NotifyConfig controls the optional webhook notifier. An empty WebhookURL
// disables webhook delivery; notifications then go to the log only.
type NotifyConfig struct {
	WebhookURL string `env:"WEBHOOK_URL" envDefault:""`
	Username   string `env:"USERNAME"    envDefault:"folio-auth"`
	RetryLimit int    `env:"RETRY_LIMIT" envDefault:"2"`
}
