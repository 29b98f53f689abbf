package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/wearsync/internal/cache"
)

// CachePendingAuthStore implementa PendingAuthStore sobre un cache con TTL
// (memory o redis). Mantiene dos keys por registro: token → JSON del pending
// y user → token, para poder pisar el pending previo del mismo usuario.
type CachePendingAuthStore struct {
	c cache.Client
}

// NewCachePendingAuthStore crea el store sobre el cache dado.
func NewCachePendingAuthStore(c cache.Client) *CachePendingAuthStore {
	return &CachePendingAuthStore{c: c}
}

func pendingTokenKey(token string) string { return "garmin:pending:tok:" + token }
func pendingUserKey(id uuid.UUID) string  { return "garmin:pending:usr:" + id.String() }

func (s *CachePendingAuthStore) Save(ctx context.Context, p PendingAuth) error {
	// Pisar el pending anterior del usuario, si existe
	if old, err := s.c.Get(ctx, pendingUserKey(p.UserID)); err == nil && old != "" {
		_ = s.c.Delete(ctx, pendingTokenKey(old))
	}

	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ttl := time.Until(p.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := s.c.Set(ctx, pendingTokenKey(p.RequestToken), string(b), ttl); err != nil {
		return err
	}
	return s.c.Set(ctx, pendingUserKey(p.UserID), p.RequestToken, ttl)
}

func (s *CachePendingAuthStore) FindByToken(ctx context.Context, token string) (PendingAuth, bool, error) {
	raw, err := s.c.Get(ctx, pendingTokenKey(token))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return PendingAuth{}, false, nil
		}
		return PendingAuth{}, false, err
	}
	var p PendingAuth
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return PendingAuth{}, false, err
	}
	// El TTL del backend ya expira la key; el chequeo explícito cubre relojes
	// y backends sin expiración estricta.
	if !p.ExpiresAt.After(time.Now()) {
		return PendingAuth{}, false, nil
	}
	return p, true, nil
}

func (s *CachePendingAuthStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	if tok, err := s.c.Get(ctx, pendingUserKey(userID)); err == nil && tok != "" {
		_ = s.c.Delete(ctx, pendingTokenKey(tok))
	}
	return s.c.Delete(ctx, pendingUserKey(userID))
}
