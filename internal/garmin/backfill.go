package garmin

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/wearsync/internal/observability/logger"
)

// BackfillWindow es el rango histórico pedido al conectar una cuenta.
const BackfillWindow = 30 * 24 * time.Hour

// RequestSleepBackfill pide el histórico de sueño de los últimos 30 días.
// Best-effort: retorna si el proveedor aceptó el pedido, nunca error — los
// datos llegan después por webhook y una falla acá no corta el flujo.
func (c *Client) RequestSleepBackfill(ctx context.Context, access Token) bool {
	return c.requestBackfill(ctx, c.endpoints.SleepBackfillURL, access, "backfill_sleeps")
}

// RequestDailiesBackfill pide el histórico de dailies de los últimos 30 días.
func (c *Client) RequestDailiesBackfill(ctx context.Context, access Token) bool {
	return c.requestBackfill(ctx, c.endpoints.DailiesBackfillURL, access, "backfill_dailies")
}

// RequestBackfills dispara ambos backfills en paralelo.
func (c *Client) RequestBackfills(ctx context.Context, access Token) (sleepOK, dailiesOK bool) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sleepOK = c.RequestSleepBackfill(gctx, access)
		return nil
	})
	g.Go(func() error {
		dailiesOK = c.RequestDailiesBackfill(gctx, access)
		return nil
	})
	_ = g.Wait()
	return sleepOK, dailiesOK
}

func (c *Client) requestBackfill(ctx context.Context, rawURL string, access Token, endpoint string) bool {
	end := time.Now()
	start := end.Add(-BackfillWindow)

	params := map[string]string{
		"oauth_token":               access.Token,
		"summaryStartTimeInSeconds": strconv.FormatInt(start.Unix(), 10),
		"summaryEndTimeInSeconds":   strconv.FormatInt(end.Unix(), 10),
	}
	if _, err := c.signedCall(ctx, http.MethodGet, rawURL, params, access.Secret, endpoint); err != nil {
		c.log.Warn("backfill request not accepted", logger.Endpoint(endpoint), logger.Err(err))
		return false
	}
	c.log.Info("backfill requested", logger.Endpoint(endpoint))
	return true
}
