package garmin

import (
	"errors"
	"io"
	"net/http"

	"github.com/dropDatabas3/wearsync/internal/http/helpers"
	svc "github.com/dropDatabas3/wearsync/internal/http/services/garmin"
	"github.com/dropDatabas3/wearsync/internal/observability/logger"
)

// WebhookController maneja las entregas asíncronas del proveedor.
// Todas las rutas responden 200 salvo body no parseable (400): un no-2xx
// dispara reintentos agresivos del lado del proveedor.
type WebhookController struct {
	webhooks svc.WebhookService
}

// NewWebhookController crea el controller de webhooks.
func NewWebhookController(webhooks svc.WebhookService) *WebhookController {
	return &WebhookController{webhooks: webhooks}
}

// readBody lee el body completo con límite de 5MB.
func readBody(r *http.Request) []byte {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, 5<<20))
	if err != nil {
		return nil
	}
	return body
}

// Sleep maneja POST /api/garmin/sleep-webhook.
func (c *WebhookController) Sleep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := c.webhooks.IngestSleeps(ctx, readBody(r))
	if err != nil {
		if errors.Is(err, svc.ErrInvalidJSON) {
			helpers.WriteErrorJSON(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		// Contrato de ack: cualquier otro fallo se loguea y se responde 200.
		logger.From(ctx).Error("sleep webhook failed", logger.Err(err))
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Dailies maneja POST /api/garmin/dailies-webhook.
func (c *WebhookController) Dailies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := c.webhooks.IngestDailies(ctx, readBody(r))
	if err != nil {
		if errors.Is(err, svc.ErrInvalidJSON) {
			helpers.WriteErrorJSON(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		logger.From(ctx).Error("dailies webhook failed", logger.Err(err))
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// Deregister maneja POST /api/garmin/deregister-webhook.
func (c *WebhookController) Deregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res, err := c.webhooks.Deregister(ctx, readBody(r))
	if err != nil {
		if errors.Is(err, svc.ErrInvalidJSON) {
			helpers.WriteErrorJSON(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		logger.From(ctx).Error("deregister webhook failed", logger.Err(err))
	}
	helpers.WriteJSON(w, http.StatusOK, res)
}

// PermissionChange maneja POST /api/garmin/user-permission-change-webhook.
// El body se ignora; sólo se acusa recibo.
func (c *WebhookController) PermissionChange(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 5<<20))
	r.Body.Close()
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}
