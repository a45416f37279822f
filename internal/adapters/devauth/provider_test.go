package devauth

import (
	"context"
	"testing"

	apperrors "github.com/foliohq/folio-auth/internal/errors"
	"github.com/foliohq/folio-auth/internal/ports"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	prov, err := NewProvider(Config{Email: "dev@example.com", Password: "hunter2", Role: "admin"})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	return prov
}

func TestNewProvider_RequiresSeedAccount(t *testing.T) {
	if _, err := NewProvider(Config{Password: "x"}); err == nil {
		t.Fatal("expected error for missing email")
	}
	if _, err := NewProvider(Config{Email: "x@example.com"}); err == nil {
		t.Fatal("expected error for missing password")
	}
}

func TestProvider_LoginAndProfile(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	grant, err := prov.Login(ctx, ports.LoginInput{Email: "DEV@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if grant.AccessToken == "" || grant.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if !grant.User.IsAdmin() {
		t.Fatalf("unexpected role: %s", grant.User.Role)
	}

	user, err := prov.GetProfile(ctx, grant.AccessToken)
	if err != nil {
		t.Fatalf("GetProfile error: %v", err)
	}
	if user.Email != "dev@example.com" {
		t.Fatalf("unexpected email: %s", user.Email)
	}
}

func TestProvider_LoginWrongPassword(t *testing.T) {
	prov := newTestProvider(t)

	_, err := prov.Login(context.Background(), ports.LoginInput{Email: "dev@example.com", Password: "nope"})
	if !apperrors.IsInvalidCredentials(err) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestProvider_RegisterIssuesNoRefreshToken(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	grant, err := prov.Register(ctx, ports.RegisterInput{
		Email: "new@example.com", Password: "pw", FirstName: "New", LastName: "User",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if grant.RefreshToken != "" {
		t.Fatal("registration should not issue a refresh token")
	}
	if grant.AccessToken == "" {
		t.Fatal("registration should issue an access token")
	}

	if _, err := prov.Register(ctx, ports.RegisterInput{Email: "New@Example.com", Password: "pw"}); !apperrors.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
}

func TestProvider_RefreshToken(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	grant, err := prov.Login(ctx, ports.LoginInput{Email: "dev@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	token, err := prov.RefreshToken(ctx, grant.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if token == "" || token == grant.AccessToken {
		t.Fatal("expected a fresh access token")
	}

	if _, err := prov.RefreshToken(ctx, "bogus"); !apperrors.IsTokenExpired(err) {
		t.Fatalf("expected token expired for unknown refresh token, got %v", err)
	}
}

func TestProvider_LogoutRevokesTokens(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	grant, err := prov.Login(ctx, ports.LoginInput{Email: "dev@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if err := prov.Logout(ctx, grant.AccessToken); err != nil {
		t.Fatalf("Logout error: %v", err)
	}
	if _, err := prov.GetProfile(ctx, grant.AccessToken); !apperrors.IsTokenExpired(err) {
		t.Fatalf("expected token expired after logout, got %v", err)
	}
	if _, err := prov.RefreshToken(ctx, grant.RefreshToken); !apperrors.IsTokenExpired(err) {
		t.Fatalf("expected refresh token revoked after logout, got %v", err)
	}

	// Logout with an unknown token is a no-op.
	if err := prov.Logout(ctx, "bogus"); err != nil {
		t.Fatalf("Logout of unknown token should succeed, got %v", err)
	}
}

func TestProvider_UpdateProfile(t *testing.T) {
	prov := newTestProvider(t)
	ctx := context.Background()

	grant, err := prov.Login(ctx, ports.LoginInput{Email: "dev@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	user, err := prov.UpdateProfile(ctx, grant.AccessToken, ports.ProfileUpdate{
		"first_name": "Dev",
		"company":    "Folio",
	})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if user.FirstName != "Dev" {
		t.Fatalf("unexpected first name: %s", user.FirstName)
	}
	if user.Profile.Company != "Folio" {
		t.Fatalf("unexpected company: %s", user.Profile.Company)
	}
	// Identity fields are immutable through profile updates.
	if user.Email != "dev@example.com" || !user.IsAdmin() {
		t.Fatalf("identity fields changed: %+v", user)
	}
}
