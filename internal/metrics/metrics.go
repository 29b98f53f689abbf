// Package metrics registra los contadores Prometheus del servicio.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// WebhookItems cuenta items procesados por los webhooks.
	// kind: sleep|daily — outcome: stored|skipped|error.
	WebhookItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wearsync_webhook_items_total",
		Help: "Webhook summary items processed, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// ProviderRequests cuenta llamadas salientes al proveedor.
	// endpoint: request_token|access_token|user_id|backfill_sleeps|backfill_dailies.
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wearsync_provider_requests_total",
		Help: "Outbound provider API requests, by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	// AuthFlows cuenta flujos de autorización por resultado final.
	AuthFlows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wearsync_auth_flows_total",
		Help: "Authorization flow completions, by result.",
	}, []string{"result"})

	// Deregistrations cuenta bajas recibidas desde el proveedor.
	Deregistrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wearsync_deregistrations_total",
		Help: "Deregistration notifications processed.",
	})
)

// Handler expone /metrics.
func Handler() http.Handler { return promhttp.Handler() }
