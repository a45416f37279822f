package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/foliohq/folio-auth/internal/errors"
	"github.com/foliohq/folio-auth/internal/ports"
)

// PostgresStore keeps credentials in a key-value table, one row per key.
// It is the durable tier for server-side deployments that already carry a
// Postgres dependency. The schema lives in internal/migrate.
type PostgresStore struct {
	DB *sql.DB
}

// NewPostgresStore creates a Postgres-backed credential store. The caller
// owns the connection and must have applied migrations.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

var _ ports.CredentialStore = (*PostgresStore)(nil)

func (s *PostgresStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM auth_credentials WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ports.ErrNotFound
		}
		return "", fmt.Errorf("get credential: %w", apperrors.MapDBError(err))
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO auth_credentials (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("set credential: %w", apperrors.MapDBError(err))
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM auth_credentials WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete credential: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Clear removes the fixed credential key set in one statement.
func (s *PostgresStore) Clear(ctx context.Context) error {
	keys := ports.CredentialKeys()
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = k
	}
	query := `DELETE FROM auth_credentials WHERE key IN (` + strings.Join(placeholders, ", ") + `)`
	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear credentials: %w", apperrors.MapDBError(err))
	}
	return nil
}
