package credstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliohq/folio-auth/internal/ports"
	"github.com/foliohq/folio-auth/internal/testutil"
)

func TestRedisStore_Contract(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	store := NewRedisStore(client, WithPrefix("credstore-test:"))
	require.NoError(t, store.Clear(context.Background()))
	contractTest(t, store)
}

func TestRedisStore_TTL(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client, WithPrefix("credstore-ttl-test:"), WithTTL(100*time.Millisecond))
	require.NoError(t, store.Set(ctx, ports.KeyAccessToken, "at"))

	v, err := store.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "at", v)

	time.Sleep(200 * time.Millisecond)
	_, err = store.Get(ctx, ports.KeyAccessToken)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRedisStore_ClearScopedToPrefix(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	ctx := context.Background()
	a := NewRedisStore(client, WithPrefix("credstore-a:"))
	b := NewRedisStore(client, WithPrefix("credstore-b:"))

	require.NoError(t, a.Set(ctx, ports.KeyAccessToken, "a-token"))
	require.NoError(t, b.Set(ctx, ports.KeyAccessToken, "b-token"))
	require.NoError(t, a.Clear(ctx))

	_, err := a.Get(ctx, ports.KeyAccessToken)
	assert.ErrorIs(t, err, ports.ErrNotFound)

	v, err := b.Get(ctx, ports.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "b-token", v)
}
