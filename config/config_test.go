package config

import (
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("env.Parse error: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Mode != AuthModeAPI {
		t.Errorf("default auth mode = %q, want %q", cfg.Auth.Mode, AuthModeAPI)
	}
	if cfg.Storage.Mode != StorageModeFile {
		t.Errorf("default storage mode = %q, want %q", cfg.Storage.Mode, StorageModeFile)
	}
	if cfg.Auth.CallTimeout != 10*time.Second {
		t.Errorf("default call timeout = %v, want 10s", cfg.Auth.CallTimeout)
	}
	if cfg.Postgres.Host != "localhost" || cfg.Postgres.Port != 5432 {
		t.Errorf("unexpected postgres defaults: %+v", cfg.Postgres)
	}
	if cfg.Redis.URI != "localhost:6379" {
		t.Errorf("unexpected redis default: %q", cfg.Redis.URI)
	}
}

func TestAppConfig_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_MODE", "oidc")
	t.Setenv("OIDC_DISCOVERY_URL", "https://idp.example.com/.well-known/openid-configuration")
	t.Setenv("STORAGE_MODE", "redis")
	t.Setenv("REDIS_URI", "redis.internal:6380")
	t.Setenv("AUTH_CALL_TIMEOUT", "3s")
	t.Setenv("DEV_AUTH_EMAIL", "me@example.com")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("env.Parse error: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Mode != AuthModeOIDC {
		t.Errorf("auth mode = %q, want oidc", cfg.Auth.Mode)
	}
	if cfg.Auth.OIDC.DiscoveryURL == "" {
		t.Error("OIDC discovery URL not picked up")
	}
	if cfg.Storage.Mode != StorageModeRedis {
		t.Errorf("storage mode = %q, want redis", cfg.Storage.Mode)
	}
	if cfg.Redis.URI != "redis.internal:6380" {
		t.Errorf("redis URI = %q", cfg.Redis.URI)
	}
	if cfg.Auth.CallTimeout != 3*time.Second {
		t.Errorf("call timeout = %v, want 3s", cfg.Auth.CallTimeout)
	}
	if cfg.Auth.DevAuth.Email != "me@example.com" {
		t.Errorf("dev auth email = %q", cfg.Auth.DevAuth.Email)
	}
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		input       string
		expected    AuthMode
		expectError bool
	}{
		{input: "api", expected: AuthModeAPI},
		{input: "OIDC", expected: AuthModeOIDC},
		{input: "Mock", expected: AuthModeMock},
		{input: "oauth", expectError: true},
		{input: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var mode AuthMode
			err := mode.UnmarshalText([]byte(tt.input))
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mode != tt.expected {
				t.Errorf("mode = %q, want %q", mode, tt.expected)
			}
		})
	}
}

func TestStorageMode_UnmarshalText(t *testing.T) {
	tests := []struct {
		input       string
		expected    StorageMode
		expectError bool
	}{
		{input: "memory", expected: StorageModeMemory},
		{input: "FILE", expected: StorageModeFile},
		{input: "redis", expected: StorageModeRedis},
		{input: "postgres", expected: StorageModePostgres},
		{input: "s3", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var mode StorageMode
			err := mode.UnmarshalText([]byte(tt.input))
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mode != tt.expected {
				t.Errorf("mode = %q, want %q", mode, tt.expected)
			}
		})
	}
}

func TestAuthConfig_SanitizeTimeouts(t *testing.T) {
	c := AuthConfig{CallTimeout: -1}
	c.Sanitize()
	if c.CallTimeout != 10*time.Second {
		t.Errorf("sanitized call timeout = %v, want 10s", c.CallTimeout)
	}
	if c.API.Timeout != c.CallTimeout {
		t.Errorf("API timeout = %v, want %v", c.API.Timeout, c.CallTimeout)
	}
}

func TestAppConfig_DetectDevMode(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("env.Parse error: %v", err)
	}
	cfg.Sanitize()

	if !cfg.IsDev {
		t.Error("NODE_ENV=development should enable dev mode")
	}
}
