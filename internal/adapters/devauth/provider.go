package devauth

// Package devauth provides a simple, config-driven in-process AuthAPI for
// local development. It keeps accounts and issued tokens in memory, so a
// restart wipes everything except the seeded account.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domainauth "github.com/foliohq/folio-auth/internal/domain/auth"
	apperrors "github.com/foliohq/folio-auth/internal/errors"
	"github.com/foliohq/folio-auth/internal/ports"
)

// Config controls the dev auth provider behavior.
// Email and Password seed the initial account; SessionDuration defaults to 8h.
type Config struct {
	Email           string
	Password        string
	Role            string
	SessionDuration time.Duration
}

type account struct {
	user     domainauth.User
	password string
}

// Provider implements ports.AuthAPI against an in-memory account table.
type Provider struct {
	mu              sync.Mutex
	accounts        map[string]*account // keyed by lowercased email
	access          map[string]string   // access token -> email
	refresh         map[string]string   // refresh token -> email
	expiry          map[string]time.Time
	sessionDuration time.Duration
	nextID          int
}

// NewProvider constructs a dev auth provider seeded with the configured account.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("dev auth: Password is required")
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	p := &Provider{
		accounts:        make(map[string]*account),
		access:          make(map[string]string),
		refresh:         make(map[string]string),
		expiry:          make(map[string]time.Time),
		sessionDuration: dur,
		nextID:          1,
	}
	p.accounts[strings.ToLower(cfg.Email)] = &account{
		user: domainauth.User{
			ID:    p.issueID(),
			Email: cfg.Email,
			Role:  domainauth.NormalizeRole(cfg.Role),
		},
		password: cfg.Password,
	}
	return p, nil
}

func (p *Provider) Login(_ context.Context, in ports.LoginInput) (*ports.AuthGrant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[strings.ToLower(in.Email)]
	if !ok || acct.password != in.Password {
		return nil, apperrors.InvalidCredentials(apperrors.MsgInvalidCredentials)
	}
	return p.grantLocked(acct)
}

func (p *Provider) Register(_ context.Context, in ports.RegisterInput) (*ports.AuthGrant, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := strings.ToLower(in.Email)
	if _, exists := p.accounts[key]; exists {
		return nil, apperrors.Conflict(apperrors.MsgAccountConflict)
	}
	acct := &account{
		user: domainauth.User{
			ID:        p.issueID(),
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      domainauth.RoleUser,
		},
		password: in.Password,
	}
	p.accounts[key] = acct

	// Registration mirrors the hosted API: access token only, no refresh token.
	grant, err := p.grantLocked(acct)
	if err != nil {
		return nil, err
	}
	delete(p.refresh, grant.RefreshToken)
	grant.RefreshToken = ""
	return grant, nil
}

func (p *Provider) RefreshToken(_ context.Context, refreshToken string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.refresh[refreshToken]
	if !ok {
		return "", apperrors.TokenExpired(apperrors.MsgSessionExpired)
	}
	token, err := randomString(32)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	p.access[token] = email
	p.expiry[token] = time.Now().Add(p.sessionDuration)
	return token, nil
}

func (p *Provider) Logout(_ context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	email, ok := p.access[accessToken]
	if !ok {
		return nil
	}
	delete(p.access, accessToken)
	delete(p.expiry, accessToken)
	for rt, e := range p.refresh {
		if e == email {
			delete(p.refresh, rt)
		}
	}
	return nil
}

func (p *Provider) GetProfile(_ context.Context, accessToken string) (*domainauth.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, err := p.authedLocked(accessToken)
	if err != nil {
		return nil, err
	}
	u := acct.user
	return &u, nil
}

func (p *Provider) UpdateProfile(_ context.Context, accessToken string, update ports.ProfileUpdate) (*domainauth.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	acct, err := p.authedLocked(accessToken)
	if err != nil {
		return nil, err
	}

	// Round-trip through JSON so the update keys line up with the wire names.
	raw, err := json.Marshal(update)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid profile update")
	}
	merged := acct.user
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid profile update")
	}
	if err := json.Unmarshal(raw, &merged.Profile); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid profile update")
	}
	merged.ID = acct.user.ID
	merged.Email = acct.user.Email
	merged.Role = acct.user.Role
	acct.user = merged

	u := acct.user
	return &u, nil
}

// grantLocked issues a fresh access/refresh token pair for acct.
// Caller holds p.mu.
func (p *Provider) grantLocked(acct *account) (*ports.AuthGrant, error) {
	access, err := randomString(32)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := randomString(32)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	email := strings.ToLower(acct.user.Email)
	p.access[access] = email
	p.refresh[refresh] = email
	p.expiry[access] = time.Now().Add(p.sessionDuration)

	u := acct.user
	return &ports.AuthGrant{User: &u, AccessToken: access, RefreshToken: refresh}, nil
}

func (p *Provider) authedLocked(accessToken string) (*account, error) {
	email, ok := p.access[accessToken]
	if !ok {
		return nil, apperrors.TokenExpired(apperrors.MsgSessionExpired)
	}
	if exp, ok := p.expiry[accessToken]; ok && time.Now().After(exp) {
		delete(p.access, accessToken)
		delete(p.expiry, accessToken)
		return nil, apperrors.TokenExpired(apperrors.MsgSessionExpired)
	}
	return p.accounts[email], nil
}

func (p *Provider) issueID() string {
	id := fmt.Sprintf("dev-%d", p.nextID)
	p.nextID++
	return id
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
