package pg

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/wearsync/internal/store"
)

// PendingAuthStore implementa store.PendingAuthStore sobre Postgres.
// La tabla tiene PK por user_id: el upsert garantiza a lo sumo un pending
// vivo por usuario. La expiración se aplica en el lookup, no con sweeps.
type PendingAuthStore struct{ S *Store }

func (s *PendingAuthStore) Save(ctx context.Context, p store.PendingAuth) error {
	_, err := s.S.pool.Exec(ctx, `
        INSERT INTO garmin_request_token (user_id, request_token, request_token_secret, callback_url, expires_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id) DO UPDATE
           SET request_token = EXCLUDED.request_token,
               request_token_secret = EXCLUDED.request_token_secret,
               callback_url = EXCLUDED.callback_url,
               expires_at = EXCLUDED.expires_at`,
		p.UserID, p.RequestToken, p.RequestTokenSecret, p.CallbackURL, p.ExpiresAt,
	)
	return err
}

func (s *PendingAuthStore) FindByToken(ctx context.Context, token string) (store.PendingAuth, bool, error) {
	var p store.PendingAuth
	err := s.S.pool.QueryRow(ctx, `
        SELECT user_id, request_token, request_token_secret, callback_url, expires_at
          FROM garmin_request_token
         WHERE request_token = $1 AND expires_at > now()`,
		token,
	).Scan(&p.UserID, &p.RequestToken, &p.RequestTokenSecret, &p.CallbackURL, &p.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.PendingAuth{}, false, nil
		}
		return store.PendingAuth{}, false, err
	}
	return p, true, nil
}

func (s *PendingAuthStore) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.S.pool.Exec(ctx, `DELETE FROM garmin_request_token WHERE user_id = $1`, userID)
	return err
}
