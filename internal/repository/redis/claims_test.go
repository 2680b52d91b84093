package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*ClaimStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	return NewClaimStore(client), mr
}

func TestClaimStore_ClaimOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	ok, err := store.Claim(ctx, "typeform", "tok-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "typeform", "tok-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must be rejected")

	ok, err = store.Claim(ctx, "calendly", "tok-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "claims are scoped per provider")
}

func TestClaimStore_Release(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, err := store.Claim(ctx, "samcart", "order-9", time.Hour)
	require.NoError(t, err)
	assert.True(t, mr.Exists("crm:webhook:samcart:order-9"))

	require.NoError(t, store.Release(ctx, "samcart", "order-9"))

	ok, err := store.Claim(ctx, "samcart", "order-9", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClaimStore_Expires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	_, err := store.Claim(ctx, "slack", "Ev1", time.Minute)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	ok, err := store.Claim(ctx, "slack", "Ev1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
