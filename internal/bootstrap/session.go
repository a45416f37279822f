package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/foliohq/folio-auth/config"
	"github.com/foliohq/folio-auth/internal/adapters/credstore"
	"github.com/foliohq/folio-auth/internal/adapters/devauth"
	"github.com/foliohq/folio-auth/internal/adapters/httpauth"
	"github.com/foliohq/folio-auth/internal/adapters/notify"
	"github.com/foliohq/folio-auth/internal/adapters/oidcauth"
	"github.com/foliohq/folio-auth/internal/ports"
	"github.com/foliohq/folio-auth/internal/service"
)

// CleanupFunc releases resources acquired while building the session manager
// (database pools, redis clients). Safe to call exactly once.
type CleanupFunc func() error

func noopCleanup() error { return nil }

// BuildSessionManager wires a SessionManager from config: the primary
// credential store by storage mode, a session-scoped memory tier, the auth
// backend by auth mode, and the notifier.
func BuildSessionManager(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*service.SessionManager, CleanupFunc, error) {
	primary, cleanup, err := buildPrimaryStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	api, err := buildAuthAPI(cfg.Auth)
	if err != nil {
		return nil, nil, errors.Join(err, cleanup())
	}

	notifier, err := buildNotifier(cfg.Notify, logger)
	if err != nil {
		return nil, nil, errors.Join(err, cleanup())
	}

	mgr, err := service.NewSessionManager(service.SessionManagerOptions{
		API:      api,
		Primary:  primary,
		Session:  credstore.NewMemoryStore(),
		Notifier: notifier,
		Logger:   logger,
		Timeout:  cfg.Auth.CallTimeout,
	})
	if err != nil {
		return nil, nil, errors.Join(err, cleanup())
	}

	logger.InfoContext(ctx, "session manager ready",
		"auth_mode", cfg.Auth.Mode, "storage_mode", cfg.Storage.Mode)
	return mgr, cleanup, nil
}

func buildPrimaryStore(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (ports.CredentialStore, CleanupFunc, error) {
	switch cfg.Storage.Mode {
	case config.StorageModeMemory:
		return credstore.NewMemoryStore(), noopCleanup, nil

	case config.StorageModeFile:
		store, err := credstore.NewFileStore(cfg.Storage.FilePath)
		if err != nil {
			return nil, nil, fmt.Errorf("file credential store: %w", err)
		}
		return store, noopCleanup, nil

	case config.StorageModeRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		store := credstore.NewRedisStore(client, credstore.WithPrefix(cfg.Storage.KeyPrefix))
		return store, client.Close, nil

	case config.StorageModePostgres:
		db, err := ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		return credstore.NewPostgresStore(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage mode: %q", cfg.Storage.Mode)
	}
}

func buildAuthAPI(cfg config.AuthConfig) (ports.AuthAPI, error) {
	switch cfg.Mode {
	case config.AuthModeAPI:
		client, err := httpauth.NewClient(httpauth.Config{
			BaseURL: cfg.API.BaseURL,
			Timeout: cfg.API.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("http auth client: %w", err)
		}
		return client, nil

	case config.AuthModeOIDC:
		provider, err := oidcauth.NewProvider(oidcauth.ProviderConfig{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			Scope:        cfg.OIDC.Scope,
			DiscoveryURL: cfg.OIDC.DiscoveryURL,
			RevokeURL:    cfg.OIDC.RevokeURL,
			Roles: oidcauth.StaticRoleMapper{
				AdminGroup: cfg.AdminGroup,
				UserGroup:  cfg.UserGroup,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("oidc auth provider: %w", err)
		}
		return provider, nil

	case config.AuthModeMock:
		provider, err := devauth.NewProvider(devauth.Config{
			Email:    cfg.DevAuth.Email,
			Password: cfg.DevAuth.Password,
			Role:     cfg.DevAuth.Role,
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		return provider, nil

	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.Mode)
	}
}

func buildNotifier(cfg config.NotifyConfig, logger *slog.Logger) (ports.Notifier, error) {
	if cfg.WebhookURL == "" {
		return notify.NewLogNotifier(logger), nil
	}
	webhook, err := notify.NewWebhook(notify.WebhookConfig{
		URL:        cfg.WebhookURL,
		Username:   cfg.Username,
		RetryLimit: cfg.RetryLimit,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook notifier: %w", err)
	}
	return webhook, nil
}
