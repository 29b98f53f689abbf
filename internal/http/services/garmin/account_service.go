package garmin

import (
	"context"
	"errors"

	"github.com/google/uuid"

	dto "github.com/dropDatabas3/wearsync/internal/http/dto/garmin"
	"github.com/dropDatabas3/wearsync/internal/observability/logger"
	"github.com/dropDatabas3/wearsync/internal/store"
)

// AccountService expone estado y desconexión del vínculo, iniciados por el
// propio usuario.
type AccountService interface {
	Status(ctx context.Context, userID uuid.UUID) (dto.StatusResponse, error)
	Disconnect(ctx context.Context, userID uuid.UUID) error
}

type accountService struct {
	links store.UserLinkStore
}

// NewAccountService crea el service de cuenta.
func NewAccountService(links store.UserLinkStore) AccountService {
	return &accountService{links: links}
}

func (s *accountService) Status(ctx context.Context, userID uuid.UUID) (dto.StatusResponse, error) {
	link, err := s.links.Status(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dto.StatusResponse{}, ErrUserNotFound
		}
		return dto.StatusResponse{}, err
	}
	return dto.StatusResponse{
		Connected:    link.Connected,
		GarminUserID: link.GarminUserID,
	}, nil
}

func (s *accountService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("AccountService.Disconnect"), logger.UserID(userID.String()))

	// Incondicional e idempotente: limpia los cuatro campos del vínculo.
	if err := s.links.Disconnect(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		log.Error("disconnect failed", logger.Err(err))
		return err
	}
	log.Info("account disconnected")
	return nil
}
