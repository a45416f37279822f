package oidcauth

// Package oidcauth implements ports.AuthAPI against an OIDC identity provider
// using the resource-owner password grant. Endpoints are discovered once at
// construction; profile data comes from the UserInfo endpoint.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/foliohq/folio-auth/internal/domain/auth"
	apperrors "github.com/foliohq/folio-auth/internal/errors"
	"github.com/foliohq/folio-auth/internal/ports"
)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	Scope        string
	DiscoveryURL string
	RevokeURL    string       // optional token revocation endpoint
	Roles        StaticRoleMapper
	HTTPClient   *http.Client // optional, defaults to a 30s client
}

// Provider implements ports.AuthAPI using OIDC/OAuth2.
type Provider struct {
	config      *oauth2.Config
	userInfoURL string
	roles       StaticRoleMapper
	revokeURL   string
	httpClient  *http.Client
}

// NewProvider creates a new OIDC provider. It performs a single discovery
// fetch against DiscoveryURL.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}

	var disc struct {
		UserInfoEndpoint string `json:"userinfo_endpoint"`
	}
	if err := op.Claims(&disc); err != nil {
		return nil, fmt.Errorf("oidc discovery claims: %w", err)
	}
	if disc.UserInfoEndpoint == "" {
		return nil, errors.New("identity provider exposes no userinfo endpoint")
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			Scopes:       strings.Fields(config.Scope),
			Endpoint:     op.Endpoint(),
		},
		userInfoURL: disc.UserInfoEndpoint,
		roles:       config.Roles,
		revokeURL:   config.RevokeURL,
		httpClient:  httpClient,
	}, nil
}

func (p *Provider) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthGrant, error) {
	if in.Email == "" || in.Password == "" {
		return nil, apperrors.ValidationField("email", "email and password are required")
	}

	ctx = p.clientContext(ctx)
	token, err := p.config.PasswordCredentialsToken(ctx, in.Email, in.Password)
	if err != nil {
		return nil, mapTokenError(apperrors.OpLogin, err)
	}

	user, err := p.userFromUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}
	return &ports.AuthGrant{
		User:         user,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}

// Register is not supported: account provisioning belongs to the identity
// provider's own admin surface, not the password grant.
func (p *Provider) Register(_ context.Context, _ ports.RegisterInput) (*ports.AuthGrant, error) {
	return nil, apperrors.Validation("registration is not available with this identity provider")
}

func (p *Provider) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", apperrors.TokenExpired(apperrors.MsgSessionExpired)
	}

	ctx = p.clientContext(ctx)
	ts := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := ts.Token()
	if err != nil {
		return "", mapTokenError(apperrors.OpRefresh, err)
	}
	return token.AccessToken, nil
}

// Logout revokes the access token when a revocation endpoint is configured.
// Providers without one treat logout as purely client-side.
func (p *Provider) Logout(ctx context.Context, accessToken string) error {
	if p.revokeURL == "" || accessToken == "" {
		return nil
	}

	form := url.Values{
		"token":           {accessToken},
		"token_type_hint": {"access_token"},
		"client_id":       {p.config.ClientID},
		"client_secret":   {p.config.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.FromTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apperrors.FromStatus(apperrors.OpLogout, resp.StatusCode, "")
	}
	return nil
}

func (p *Provider) GetProfile(ctx context.Context, accessToken string) (*domainauth.User, error) {
	return p.userFromUserInfo(p.clientContext(ctx), accessToken)
}

// UpdateProfile is not supported: the IdP owns the user record.
func (p *Provider) UpdateProfile(_ context.Context, _ string, _ ports.ProfileUpdate) (*domainauth.User, error) {
	return nil, apperrors.Validation("profile updates are not available with this identity provider")
}

// userInfoClaims is a superset of standard OIDC and AD/ADFS claim shapes.
type userInfoClaims struct {
	Subject        string   `json:"sub"`
	SamAccountName string   `json:"samaccountname"`
	Email          string   `json:"email"`
	Mail           string   `json:"mail"`
	GivenName      string   `json:"given_name"`
	FamilyName     string   `json:"family_name"`
	FirstName      string   `json:"firstname"`
	LastName       string   `json:"lastname"`
	Nickname       string   `json:"nickname"`
	Picture        string   `json:"picture"`
	Groups         []string `json:"groups"`
	MemberOf       []string `json:"memberof"`
}

// userFromUserInfo fetches the userinfo endpoint directly so the HTTP status
// survives into the error taxonomy. go-oidc's UserInfo helper flattens the
// status into an opaque error string.
func (p *Provider) userFromUserInfo(ctx context.Context, accessToken string) (*domainauth.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.FromTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.FromStatus(apperrors.OpProfile, resp.StatusCode, "")
	}

	var claims userInfoClaims
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&claims); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeServerError, "decode user info")
	}
	return mapUserInfoClaims(claims, p.roles), nil
}

// mapUserInfoClaims maps raw userinfo claims onto the domain user using
// precedence rules covering both standard OIDC and AD shapes.
func mapUserInfoClaims(c userInfoClaims, roles StaticRoleMapper) *domainauth.User {
	groups := c.Groups
	if len(groups) == 0 {
		groups = c.MemberOf
	}
	return &domainauth.User{
		ID:        firstNonEmpty(c.SamAccountName, c.Subject),
		Email:     firstNonEmpty(c.Email, c.Mail),
		Username:  c.Nickname,
		FirstName: firstNonEmpty(c.GivenName, c.FirstName),
		LastName:  firstNonEmpty(c.FamilyName, c.LastName),
		AvatarURL: c.Picture,
		Role:      roles.Map(groups),
	}
}

// mapTokenError converts oauth2/transport failures into the error taxonomy.
// RetrieveError carries the IdP's HTTP status; everything else is transport.
func mapTokenError(op apperrors.Operation, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := retrieveErr.Response.StatusCode
		// Token endpoints report bad credentials and stale refresh tokens
		// as 400 invalid_grant rather than 401.
		if status == http.StatusBadRequest && retrieveErr.ErrorCode == "invalid_grant" {
			status = http.StatusUnauthorized
		}
		return apperrors.FromStatus(op, status, retrieveErr.ErrorDescription)
	}
	return apperrors.FromTransport(err)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// clientContext threads the configured HTTP client through oauth2 calls.
func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}
