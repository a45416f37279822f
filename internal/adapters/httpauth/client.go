package httpauth

// Package httpauth implements the AuthAPI port against the Folio auth
// service's REST endpoints. All responses share the
// {success, message, data} envelope; failures are translated into the
// internal/errors taxonomy so the session manager never sees transport
// detail.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/foliohq/folio-auth/internal/domain/auth"
	apperrors "github.com/foliohq/folio-auth/internal/errors"
	"github.com/foliohq/folio-auth/internal/ports"
)

// DefaultTimeout bounds every auth service call so bootstrap, login, and
// logout can never hang indefinitely on a stalled connection.
const DefaultTimeout = 10 * time.Second

// Config holds configuration for the REST auth client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client // optional, replaced by a timeout-bound client when nil
}

// Client is the REST implementation of ports.AuthAPI.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a REST auth client. BaseURL is required.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("auth service base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{baseURL: base, client: hc}, nil
}

var _ ports.AuthAPI = (*Client)(nil)

// envelope is the response shape shared by every auth endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) Login(ctx context.Context, in ports.LoginInput) (*ports.AuthGrant, error) {
	body, err := c.call(ctx, apperrors.OpLogin, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    in.Email,
		"password": in.Password,
	})
	if err != nil {
		return nil, err
	}
	return grantFromBody(body)
}

func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthGrant, error) {
	body, err := c.call(ctx, apperrors.OpSignup, http.MethodPost, "/auth/register", "", map[string]any{
		"email":      in.Email,
		"password":   in.Password,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
	})
	if err != nil {
		return nil, err
	}
	return grantFromBody(body)
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	body, err := c.call(ctx, apperrors.OpRefresh, http.MethodPost, "/auth/refresh", "", map[string]any{
		"refresh_token": refreshToken,
	})
	if err != nil {
		return "", err
	}

	var data struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body.Data, &data); err != nil || data.AccessToken == "" {
		return "", apperrors.Wrap(errAccessTokenMissing, apperrors.ErrCodeTokenExpired, apperrors.MsgSessionExpired)
	}
	return data.AccessToken, nil
}

func (c *Client) Logout(ctx context.Context, accessToken string) error {
	_, err := c.call(ctx, apperrors.OpLogout, http.MethodPost, "/auth/logout", accessToken, nil)
	return err
}

func (c *Client) GetProfile(ctx context.Context, accessToken string) (*domainauth.User, error) {
	body, err := c.call(ctx, apperrors.OpProfile, http.MethodGet, "/auth/profile", accessToken, nil)
	if err != nil {
		return nil, err
	}
	return userFromBody(body)
}

func (c *Client) UpdateProfile(ctx context.Context, accessToken string, changes ports.ProfileUpdate) (*domainauth.User, error) {
	body, err := c.call(ctx, apperrors.OpUpdate, http.MethodPatch, "/auth/profile", accessToken, changes)
	if err != nil {
		return nil, err
	}
	return userFromBody(body)
}

var errAccessTokenMissing = errors.New("response carried no access token")

// call performs one request and returns the decoded envelope. Any
// non-success outcome, at transport, status, or envelope level, comes back
// as an AppError from the taxonomy.
func (c *Client) call(ctx context.Context, op apperrors.Operation, method, path, accessToken string, payload any) (*envelope, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeUnknown, "encode %s request", op)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeUnknown, "build %s request", op)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		// The request never produced a response: network class.
		return nil, apperrors.FromTransport(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.FromTransport(fmt.Errorf("read response: %w", err))
	}

	var env envelope
	// A malformed body on an error status still maps by status alone.
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apperrors.FromStatus(op, resp.StatusCode, env.Message)
	}
	if decodeErr != nil {
		return nil, apperrors.Wrapf(decodeErr, apperrors.ErrCodeServerError, "%s", apperrors.MsgServerError)
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = apperrors.DefaultMessage(op)
		}
		return nil, apperrors.Validation(msg)
	}
	return &env, nil
}

// grantFromBody extracts the user plus issued token pair from a login or
// registration envelope.
func grantFromBody(env *envelope) (*ports.AuthGrant, error) {
	var data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeServerError, "%s", apperrors.MsgServerError)
	}
	if data.AccessToken == "" {
		return nil, apperrors.ServerError(apperrors.MsgServerError)
	}

	user, err := domainauth.MapUserJSON(env.Data)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeServerError, "%s", apperrors.MsgServerError)
	}

	return &ports.AuthGrant{
		User:         user,
		AccessToken:  data.AccessToken,
		RefreshToken: data.RefreshToken,
	}, nil
}

func userFromBody(env *envelope) (*domainauth.User, error) {
	user, err := domainauth.MapUserJSON(env.Data)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeServerError, "%s", apperrors.MsgServerError)
	}
	return user, nil
}
