package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication backend for the session manager.
type AuthMode string

const (
	// AuthModeAPI talks to the product's own REST auth service.
	AuthModeAPI AuthMode = "api"
	// AuthModeOIDC uses an OIDC identity provider (password grant).
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses an in-process dev provider (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "api", "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: api, oidc, mock)", v)
	}
}

// APIConfig contains the REST auth service configuration (Mode=api).
type APIConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:3000/api"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"10s"`
}

// OIDCConfig contains OIDC identity provider configuration (Mode=oidc).
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"folio"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"folio"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	RevokeURL    string `env:"REVOKE_URL"`
}

// DevAuthConfig controls the mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	Email    string `env:"EMAIL"    envDefault:"dev@example.com"`
	Password string `env:"PASSWORD" envDefault:"dev"`
	Role     string `env:"ROLE"     envDefault:"admin"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"api"`

	// API configuration (used when Mode=api).
	API APIConfig `envPrefix:"AUTH_API_"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup is the IdP group granting admin users (Mode=oidc).
	AdminGroup string `env:"ADMIN_GROUP"`

	// UserGroup is the IdP group granting regular users (Mode=oidc).
	UserGroup string `env:"USER_GROUP"`

	// CallTimeout bounds every remote auth call.
	CallTimeout time.Duration `env:"AUTH_CALL_TIMEOUT" envDefault:"10s"`
}

// Sanitize applies guardrails to auth configuration.
func (c *AuthConfig) Sanitize() {
	if c.CallTimeout <= 0 {
		c.CallTimeout = 10 * time.Second
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = c.CallTimeout
	}
}
