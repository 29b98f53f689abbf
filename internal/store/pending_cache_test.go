package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/wearsync/internal/cache"
)

func newCacheStore(t *testing.T) *CachePendingAuthStore {
	t.Helper()
	c, err := cache.New(cache.Config{Kind: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return NewCachePendingAuthStore(c)
}

func TestCachePendingAuthStore_SaveAndFind(t *testing.T) {
	s := newCacheStore(t)
	ctx := context.Background()
	userID := uuid.New()

	p := PendingAuth{
		UserID:             userID,
		RequestToken:       "rt-1",
		RequestTokenSecret: "rs-1",
		CallbackURL:        "https://app/cb",
		ExpiresAt:          time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, s.Save(ctx, p))

	got, ok, err := s.FindByToken(ctx, "rt-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, "rs-1", got.RequestTokenSecret)
	assert.Equal(t, "https://app/cb", got.CallbackURL)

	_, ok, err = s.FindByToken(ctx, "rt-other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePendingAuthStore_SaveOverwritesPreviousToken(t *testing.T) {
	s := newCacheStore(t)
	ctx := context.Background()
	userID := uuid.New()

	first := PendingAuth{UserID: userID, RequestToken: "rt-1", ExpiresAt: time.Now().Add(time.Minute)}
	second := PendingAuth{UserID: userID, RequestToken: "rt-2", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	// El token del Start anterior quedó invalidado.
	_, ok, err := s.FindByToken(ctx, "rt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.FindByToken(ctx, "rt-2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCachePendingAuthStore_ExpiredIsNotFound(t *testing.T) {
	s := newCacheStore(t)
	ctx := context.Background()

	p := PendingAuth{
		UserID:       uuid.New(),
		RequestToken: "rt-1",
		ExpiresAt:    time.Now().Add(-time.Second),
	}
	require.NoError(t, s.Save(ctx, p))

	// Aunque el backend todavía tenga la key, el registro vencido no se entrega.
	_, ok, err := s.FindByToken(ctx, "rt-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCachePendingAuthStore_DeleteByUser(t *testing.T) {
	s := newCacheStore(t)
	ctx := context.Background()
	userID := uuid.New()

	p := PendingAuth{UserID: userID, RequestToken: "rt-1", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, s.Save(ctx, p))
	require.NoError(t, s.DeleteByUser(ctx, userID))

	_, ok, err := s.FindByToken(ctx, "rt-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Borrar de nuevo es un no-op.
	require.NoError(t, s.DeleteByUser(ctx, userID))
}
