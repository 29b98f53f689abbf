// Package router arma el router chi del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	garminctrl "github.com/dropDatabas3/wearsync/internal/http/controllers/garmin"
	"github.com/dropDatabas3/wearsync/internal/http/helpers"
	mw "github.com/dropDatabas3/wearsync/internal/http/middlewares"
	"github.com/dropDatabas3/wearsync/internal/metrics"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Garmin *garminctrl.Controllers

	Auth        mw.AuthConfig
	CORSOrigins []string

	// Readiness hace ping a las dependencias (DB) para /readyz. Opcional.
	Readiness func(r *http.Request) error
}

// New construye el handler raíz con middlewares globales y rutas.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithRecover())
	r.Use(mw.WithCORS(deps.CORSOrigins))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Readiness != nil {
			if err := deps.Readiness(req); err != nil {
				helpers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"error":  err.Error(),
				})
				return
			}
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/garmin", func(r chi.Router) {
		// Rutas de usuario: requieren sesión local.
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(deps.Auth))
			r.Post("/start-auth", deps.Garmin.Auth.StartAuth)
			r.Post("/disconnect", deps.Garmin.Account.Disconnect)
			r.Get("/status", deps.Garmin.Account.Status)
		})

		// Redirect del proveedor: llega sin sesión.
		r.Get("/callback", deps.Garmin.Auth.Callback)

		// Webhooks: sin autenticación propia, el proveedor no firma las
		// entregas; se confía en el control de acceso de red.
		r.Post("/sleep-webhook", deps.Garmin.Webhook.Sleep)
		r.Post("/dailies-webhook", deps.Garmin.Webhook.Dailies)
		r.Post("/deregister-webhook", deps.Garmin.Webhook.Deregister)
		r.Post("/user-permission-change-webhook", deps.Garmin.Webhook.PermissionChange)
	})

	return r
}
