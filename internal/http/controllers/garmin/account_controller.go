package garmin

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/wearsync/internal/http/dto/garmin"
	httperrors "github.com/dropDatabas3/wearsync/internal/http/errors"
	"github.com/dropDatabas3/wearsync/internal/http/helpers"
	"github.com/dropDatabas3/wearsync/internal/http/middlewares"
	svc "github.com/dropDatabas3/wearsync/internal/http/services/garmin"
	"github.com/dropDatabas3/wearsync/internal/observability/logger"
)

// AccountController maneja estado y desconexión (requieren sesión).
type AccountController struct {
	account svc.AccountService
}

// NewAccountController crea el controller de cuenta.
func NewAccountController(account svc.AccountService) *AccountController {
	return &AccountController{account: account}
}

// Status maneja GET /api/garmin/status.
func (c *AccountController) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middlewares.GetUserID(ctx)

	st, err := c.account.Status(ctx, userID)
	if err != nil {
		if errors.Is(err, svc.ErrUserNotFound) {
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
			return
		}
		logger.From(ctx).Error("status failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, st)
}

// Disconnect maneja POST /api/garmin/disconnect.
func (c *AccountController) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middlewares.GetUserID(ctx)

	if err := c.account.Disconnect(ctx, userID); err != nil {
		if errors.Is(err, svc.ErrUserNotFound) {
			httperrors.WriteError(w, httperrors.ErrUserNotFound)
			return
		}
		logger.From(ctx).Error("disconnect failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.MessageResponse{Message: "Garmin account disconnected"})
}
