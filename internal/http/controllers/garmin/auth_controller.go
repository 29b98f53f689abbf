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

// AuthController maneja start-auth y el callback del proveedor.
type AuthController struct {
	flow svc.FlowService
}

// NewAuthController crea el controller del flujo de autorización.
func NewAuthController(flow svc.FlowService) *AuthController {
	return &AuthController{flow: flow}
}

// StartAuth maneja POST /api/garmin/start-auth (requiere sesión).
func (c *AuthController) StartAuth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.StartAuth"))

	userID := middlewares.GetUserID(ctx)

	var req dto.StartAuthRequest
	if r.ContentLength > 0 {
		if !helpers.ReadJSON(w, r, &req) {
			return
		}
	}

	authURL, err := c.flow.Start(ctx, userID, req.CallbackURL)
	if err != nil {
		switch {
		case errors.Is(err, svc.ErrNotConfigured):
			// Detalle sólo server-side; al caller un 5xx genérico.
			httperrors.WriteError(w, httperrors.ErrNotConfigured)
		case errors.Is(err, svc.ErrProviderUnavailable), errors.Is(err, svc.ErrProviderProtocol):
			httperrors.WriteError(w, httperrors.ErrProviderUnavailable)
		default:
			log.Error("start auth failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError)
		}
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.StartAuthResponse{AuthURL: authURL})
}

// Callback maneja GET /api/garmin/callback (redirect del proveedor, sin
// sesión). Siempre responde 302: el usuario está a mitad de un redirect.
func (c *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	target := c.flow.Callback(r.Context(), r.URL.Query())
	http.Redirect(w, r, target, http.StatusFound)
}
