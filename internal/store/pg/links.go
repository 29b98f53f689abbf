package pg

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/wearsync/internal/store"
)

// UserLinkStore implementa store.UserLinkStore sobre la tabla app_user.
// El vínculo vive embebido en la fila del usuario, como en el esquema
// original; cada mutación es un único UPDATE.
type UserLinkStore struct{ S *Store }

func (s *UserLinkStore) SaveLink(ctx context.Context, userID uuid.UUID, garminUserID, accessToken, tokenSecret string) error {
	tag, err := s.S.pool.Exec(ctx, `
        UPDATE app_user
           SET garmin_access_token = $1,
               garmin_token_secret = $2,
               garmin_user_id = $3,
               garmin_connected = TRUE
         WHERE id = $4`,
		accessToken, tokenSecret, garminUserID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *UserLinkStore) Disconnect(ctx context.Context, userID uuid.UUID) error {
	_, err := s.S.pool.Exec(ctx, `
        UPDATE app_user
           SET garmin_access_token = NULL,
               garmin_token_secret = NULL,
               garmin_user_id = NULL,
               garmin_connected = FALSE
         WHERE id = $1`,
		userID,
	)
	return err
}

func (s *UserLinkStore) DeregisterByGarminID(ctx context.Context, garminUserID string) (int64, error) {
	tag, err := s.S.pool.Exec(ctx, `
        UPDATE app_user
           SET garmin_access_token = NULL,
               garmin_token_secret = NULL,
               garmin_user_id = NULL,
               garmin_connected = FALSE
         WHERE garmin_user_id = $1 AND garmin_connected = TRUE`,
		garminUserID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *UserLinkStore) Status(ctx context.Context, userID uuid.UUID) (store.GarminLink, error) {
	var l store.GarminLink
	var garminUserID, accessToken, tokenSecret *string
	err := s.S.pool.QueryRow(ctx, `
        SELECT garmin_connected, garmin_user_id, garmin_access_token, garmin_token_secret
          FROM app_user
         WHERE id = $1`,
		userID,
	).Scan(&l.Connected, &garminUserID, &accessToken, &tokenSecret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.GarminLink{}, store.ErrNotFound
		}
		return store.GarminLink{}, err
	}
	l.GarminUserID = deref(garminUserID)
	l.AccessToken = deref(accessToken)
	l.TokenSecret = deref(tokenSecret)
	return l, nil
}

func (s *UserLinkStore) FindUserByGarminID(ctx context.Context, garminUserID string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := s.S.pool.QueryRow(ctx, `
        SELECT id FROM app_user
         WHERE garmin_user_id = $1 AND garmin_connected = TRUE`,
		garminUserID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return id, true, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
