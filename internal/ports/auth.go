package ports

// Package ports defines interfaces (hexagonal ports) for the auth session
// subsystem. Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/foliohq/folio-auth/internal/domain/auth"
)

// Well-known credential store keys. The legacy aliases were written by
// earlier versions of the credential schema and must still be purged on
// logout.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"

	LegacyKeyAuthToken = "authToken"
	LegacyKeyToken     = "token"
	LegacyKeyUser      = "user"
)

// CredentialKeys returns every key the session subsystem may have written,
// current schema first.
func CredentialKeys() []string {
	return []string{KeyAccessToken, KeyRefreshToken, LegacyKeyAuthToken, LegacyKeyToken, LegacyKeyUser}
}

// ErrNotFound is returned by CredentialStore.Get for absent keys.
var ErrNotFound = errors.New("credential not found")

// CredentialStore is durable string key-value storage for tokens. Access is
// modeled as a suspend point: implementations may be backed by remote
// storage, so every method takes a context.
//
// The session manager is the only legitimate writer. Concurrent readers
// must tolerate keys disappearing mid-use.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// LoginInput carries user-supplied credentials for login.
type LoginInput struct {
	Email    string
	Password string
}

// RegisterInput carries normalized fields for account registration. The
// session manager splits the user-supplied display name before the input
// reaches an adapter.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ProfileUpdate is the sparse set of profile fields to change, keyed by the
// server's field names. Values absent from the map are left untouched.
type ProfileUpdate map[string]any

// AuthGrant is the outcome of a successful login or registration: the
// authenticated user plus issued credentials. RefreshToken is empty when the
// server did not issue one (registration does not, in the current API).
type AuthGrant struct {
	User         *domainauth.User
	AccessToken  string
	RefreshToken string
}

// AuthAPI is the remote auth service boundary. Implementations translate
// transport failures and response statuses into the internal/errors
// taxonomy; callers branch on error codes, never on transport detail.
type AuthAPI interface {
	Login(ctx context.Context, in LoginInput) (*AuthGrant, error)
	Register(ctx context.Context, in RegisterInput) (*AuthGrant, error)

	// RefreshToken mints a new access token from a refresh token.
	RefreshToken(ctx context.Context, refreshToken string) (string, error)

	// Logout asks the server to invalidate the refresh token server-side.
	// Best effort; callers tolerate failure.
	Logout(ctx context.Context, accessToken string) error

	// GetProfile fetches the current user for the given access token.
	GetProfile(ctx context.Context, accessToken string) (*domainauth.User, error)

	// UpdateProfile applies sparse profile changes and returns the updated user.
	UpdateProfile(ctx context.Context, accessToken string, changes ProfileUpdate) (*domainauth.User, error)
}

// Notifier is a fire-and-forget user-facing message surface. Outcomes are
// observational only; implementations swallow their own delivery failures.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// NotifierFunc adapts a function to the Notifier interface (useful for tests).
type NotifierFunc func(ctx context.Context, level, message string)

// Success implements Notifier.
func (f NotifierFunc) Success(ctx context.Context, message string) {
	if f != nil {
		f(ctx, "success", message)
	}
}

// Error implements Notifier.
func (f NotifierFunc) Error(ctx context.Context, message string) {
	if f != nil {
		f(ctx, "error", message)
	}
}
