package httpauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/foliohq/folio-auth/internal/errors"
	"github.com/foliohq/folio-auth/internal/ports"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client, srv
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestClient_Login_Success(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user":          map[string]any{"id": "u-1", "email": "ada@example.com", "role": "admin"},
				"access_token":  "at-1",
				"refresh_token": "rt-1",
			},
		})
	}))

	grant, err := client.Login(context.Background(), ports.LoginInput{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "at-1", grant.AccessToken)
	assert.Equal(t, "rt-1", grant.RefreshToken)
	assert.Equal(t, "u-1", grant.User.ID)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "bad credentials"})
	}))

	_, err := client.Login(context.Background(), ports.LoginInput{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidCredentials(err))
	assert.Equal(t, apperrors.MsgInvalidCredentials, apperrors.UserMessage(err, ""))
}

func TestClient_Login_MalformedErrorBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}))

	_, err := client.Login(context.Background(), ports.LoginInput{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeServerError, apperrors.CodeOf(err))
}

func TestClient_Login_EnvelopeFailure(t *testing.T) {
	// 200 with success=false still counts as a failure.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "account pending review"})
	}))

	_, err := client.Login(context.Background(), ports.LoginInput{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "account pending review", apperrors.UserMessage(err, ""))
}

func TestClient_Login_NetworkUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := NewClient(Config{BaseURL: url})
	require.NoError(t, err)

	_, err = client.Login(context.Background(), ports.LoginInput{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
}

func TestClient_Register_SendsNormalizedFields(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body["first_name"])
		assert.Equal(t, "Lovelace", body["last_name"])

		// Registration issues no refresh token.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"user":         map[string]any{"id": "u-2", "email": body["email"]},
				"access_token": "at-2",
			},
		})
	}))

	grant, err := client.Register(context.Background(), ports.RegisterInput{
		Email: "ada@example.com", Password: "pw", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "at-2", grant.AccessToken)
	assert.Empty(t, grant.RefreshToken)
}

func TestClient_Register_Conflict(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))

	_, err := client.Register(context.Background(), ports.RegisterInput{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, apperrors.MsgAccountConflict, apperrors.UserMessage(err, ""))
}

func TestClient_RefreshToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/refresh", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rt-1", body["refresh_token"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"access_token": "at-new"},
		})
	}))

	token, err := client.RefreshToken(context.Background(), "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "at-new", token)
}

func TestClient_RefreshToken_Rejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))

	_, err := client.RefreshToken(context.Background(), "rt-stale")
	require.Error(t, err)
	assert.True(t, apperrors.IsTokenExpired(err))
}

func TestClient_GetProfile_SendsBearer(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"user": map[string]any{"id": "u-1", "email": "ada@example.com"}},
		})
	}))

	user, err := client.GetProfile(context.Background(), "at-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
}

func TestClient_GetProfile_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.GetProfile(context.Background(), "at-stale")
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthDenied(err))
}

func TestClient_UpdateProfile(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Folio", body["company"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{"user": map[string]any{
				"id": "u-1", "email": "ada@example.com",
				"profile": map[string]any{"company": "Folio"},
			}},
		})
	}))

	user, err := client.UpdateProfile(context.Background(), "at-1", ports.ProfileUpdate{"company": "Folio"})
	require.NoError(t, err)
	assert.Equal(t, "Folio", user.Profile.Company)
}

func TestClient_Logout(t *testing.T) {
	var called bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, "/auth/logout", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))

	require.NoError(t, client.Logout(context.Background(), "at-1"))
	assert.True(t, called)
}
