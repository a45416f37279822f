package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/foliohq/folio-auth/internal/domain/auth"
	"github.com/foliohq/folio-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthAPI         = (*FakeAuthAPI)(nil)
	_ ports.Notifier        = (*RecordingNotifier)(nil)
	_ ports.CredentialStore = (*FlakyStore)(nil)
)

// FakeAuthAPI simulates the remote auth service with deterministic token
// issuance. Each function field overrides the corresponding default.
type FakeAuthAPI struct {
	LoginFunc         func(ctx context.Context, in ports.LoginInput) (*ports.AuthGrant, error)
	RegisterFunc      func(ctx context.Context, in ports.RegisterInput) (*ports.AuthGrant, error)
	RefreshTokenFunc  func(ctx context.Context, refreshToken string) (string, error)
	LogoutFunc        func(ctx context.Context, accessToken string) error
	GetProfileFunc    func(ctx context.Context, accessToken string) (*domainauth.User, error)
	UpdateProfileFunc func(ctx context.Context, accessToken string, changes ports.ProfileUpdate) (*domainauth.User, error)

	// DefaultUser is returned by the default Login/GetProfile behavior.
	DefaultUser domainauth.User

	mu           sync.Mutex
	loginCount   int
	refreshCount int
	logoutCount  int
}

// NewFakeAuthAPI creates a FakeAuthAPI with a sensible default identity.
func NewFakeAuthAPI() *FakeAuthAPI {
	return &FakeAuthAPI{
		DefaultUser: domainauth.User{
			ID:        "fake-user-1",
			Email:     "fake.user@example.com",
			FirstName: "Fake",
			LastName:  "User",
			Role:      domainauth.RoleUser,
		},
	}
}

func (f *FakeAuthAPI) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthGrant, error) {
	f.mu.Lock()
	f.loginCount++
	n := f.loginCount
	f.mu.Unlock()

	if f.LoginFunc != nil {
		return f.LoginFunc(ctx, in)
	}
	u := f.DefaultUser
	u.Email = in.Email
	return &ports.AuthGrant{
		User:         &u,
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
	}, nil
}

func (f *FakeAuthAPI) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthGrant, error) {
	if f.RegisterFunc != nil {
		return f.RegisterFunc(ctx, in)
	}
	u := f.DefaultUser
	u.Email = in.Email
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	// Registration issues no refresh token.
	return &ports.AuthGrant{User: &u, AccessToken: "access-signup"}, nil
}

func (f *FakeAuthAPI) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	f.mu.Lock()
	f.refreshCount++
	n := f.refreshCount
	f.mu.Unlock()

	if f.RefreshTokenFunc != nil {
		return f.RefreshTokenFunc(ctx, refreshToken)
	}
	return fmt.Sprintf("access-refreshed-%d", n), nil
}

func (f *FakeAuthAPI) Logout(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	f.logoutCount++
	f.mu.Unlock()

	if f.LogoutFunc != nil {
		return f.LogoutFunc(ctx, accessToken)
	}
	return nil
}

func (f *FakeAuthAPI) GetProfile(ctx context.Context, accessToken string) (*domainauth.User, error) {
	if f.GetProfileFunc != nil {
		return f.GetProfileFunc(ctx, accessToken)
	}
	u := f.DefaultUser
	return &u, nil
}

func (f *FakeAuthAPI) UpdateProfile(ctx context.Context, accessToken string, changes ports.ProfileUpdate) (*domainauth.User, error) {
	if f.UpdateProfileFunc != nil {
		return f.UpdateProfileFunc(ctx, accessToken, changes)
	}
	u := f.DefaultUser
	return &u, nil
}

// LoginCalls returns how many times Login was invoked.
func (f *FakeAuthAPI) LoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginCount
}

// RefreshCalls returns how many times RefreshToken was invoked.
func (f *FakeAuthAPI) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCount
}

// LogoutCalls returns how many times Logout was invoked.
func (f *FakeAuthAPI) LogoutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logoutCount
}

// RecordingNotifier captures notifications for assertion.
type RecordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (r *RecordingNotifier) Success(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, message)
}

func (r *RecordingNotifier) Error(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

// Successes returns a copy of the recorded success messages.
func (r *RecordingNotifier) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

// Errors returns a copy of the recorded error messages.
func (r *RecordingNotifier) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

// FlakyStore wraps a CredentialStore and injects failures per method, for
// exercising storage-failure paths.
type FlakyStore struct {
	Inner ports.CredentialStore

	GetErr    error
	SetErr    error
	DeleteErr error
	ClearErr  error
}

func (s *FlakyStore) Get(ctx context.Context, key string) (string, error) {
	if s.GetErr != nil {
		return "", s.GetErr
	}
	return s.Inner.Get(ctx, key)
}

func (s *FlakyStore) Set(ctx context.Context, key, value string) error {
	if s.SetErr != nil {
		return s.SetErr
	}
	return s.Inner.Set(ctx, key, value)
}

func (s *FlakyStore) Delete(ctx context.Context, key string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	return s.Inner.Delete(ctx, key)
}

func (s *FlakyStore) Clear(ctx context.Context) error {
	if s.ClearErr != nil {
		return s.ClearErr
	}
	return s.Inner.Clear(ctx)
}
