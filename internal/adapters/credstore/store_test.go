package credstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliohq/folio-auth/internal/ports"
)

// contractTest exercises the behavior every CredentialStore must share.
func contractTest(t *testing.T, store ports.CredentialStore) {
	t.Helper()
	ctx := context.Background()

	// Missing key
	_, err := store.Get(ctx, ports.KeyAccessToken)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// Set and read back
	require.NoError(t, store.Set(ctx, ports.KeyAccessToken, "at-1"))
	require.NoError(t, store.Set(ctx, ports.KeyRefreshToken, "rt-1"))

	v, err := store.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "at-1", v)

	// Overwrite
	require.NoError(t, store.Set(ctx, ports.KeyAccessToken, "at-2"))
	v, err = store.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "at-2", v)

	// Delete is idempotent
	require.NoError(t, store.Delete(ctx, ports.KeyAccessToken))
	require.NoError(t, store.Delete(ctx, ports.KeyAccessToken))
	_, err = store.Get(ctx, ports.KeyAccessToken)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// Clear removes everything, including legacy aliases
	require.NoError(t, store.Set(ctx, ports.LegacyKeyAuthToken, "old"))
	require.NoError(t, store.Clear(ctx))
	for _, key := range ports.CredentialKeys() {
		_, err = store.Get(ctx, key)
		assert.ErrorIs(t, err, ports.ErrNotFound, "key %s should be gone after clear", key)
	}
}

func TestMemoryStore_Contract(t *testing.T) {
	contractTest(t, NewMemoryStore())
}

func TestFileStore_Contract(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "credentials.json"))
	require.NoError(t, err)
	contractTest(t, store)
}

func TestFileStore_RequiresPath(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, ports.KeyRefreshToken, "rt-persisted"))

	reopened, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := reopened.Get(ctx, ports.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "rt-persisted", v)
}

func TestFileStore_ClearRemovesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "credentials.json")

	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, ports.KeyAccessToken, "at"))
	require.NoError(t, store.Clear(ctx))
	// Clearing twice is fine even though the file is gone.
	require.NoError(t, store.Clear(ctx))

	_, err = store.Get(ctx, ports.KeyAccessToken)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
