// Package app cablea la aplicación: stores, cliente del proveedor, services,
// controllers y router.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dropDatabas3/wearsync/internal/cache"
	"github.com/dropDatabas3/wearsync/internal/config"
	"github.com/dropDatabas3/wearsync/internal/garmin"
	garminctrl "github.com/dropDatabas3/wearsync/internal/http/controllers/garmin"
	mw "github.com/dropDatabas3/wearsync/internal/http/middlewares"
	"github.com/dropDatabas3/wearsync/internal/http/router"
	garminsvc "github.com/dropDatabas3/wearsync/internal/http/services/garmin"
	"github.com/dropDatabas3/wearsync/internal/oauth1"
	"github.com/dropDatabas3/wearsync/internal/store"
	"github.com/dropDatabas3/wearsync/internal/store/memory"
	"github.com/dropDatabas3/wearsync/internal/store/pg"
)

// App es la aplicación cableada.
type App struct {
	Handler http.Handler

	// PG es el store Postgres si el driver es postgres; nil con driver memory.
	PG *pg.Store

	cleanup []func()
}

// Close libera pools y conexiones.
func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

// Build arma la aplicación completa a partir de la configuración.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	// ─── Stores ───
	var (
		pendings  store.PendingAuthStore
		links     store.UserLinkStore
		summaries store.SummaryStore
	)

	switch cfg.Storage.Driver {
	case "postgres":
		pgStore, err := pg.New(ctx, cfg.Storage.DSN, pg.Config{
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MinConns:        cfg.Storage.Postgres.MinConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("app: postgres store: %w", err)
		}
		a.PG = pgStore
		a.cleanup = append(a.cleanup, pgStore.Close)

		pendings = &pg.PendingAuthStore{S: pgStore}
		links = &pg.UserLinkStore{S: pgStore}
		summaries = &pg.SummaryStore{S: pgStore}

	case "memory":
		mem := memory.New()
		pendings = mem
		links = mem
		summaries = mem

	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Storage.Driver)
	}

	// Pendings sobre cache (memory/redis) en lugar del storage principal.
	if cfg.Pending.Backend == "cache" {
		cc, err := cache.New(cache.Config{
			Kind:     cfg.Cache.Kind,
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: pending cache: %w", err)
		}
		a.cleanup = append(a.cleanup, func() { _ = cc.Close() })
		pendings = store.NewCachePendingAuthStore(cc)
	}

	// ─── Cliente del proveedor ───
	signer := &oauth1.Signer{
		ConsumerKey:    cfg.Garmin.ConsumerKey,
		ConsumerSecret: cfg.Garmin.ConsumerSecret,
	}
	endpoints := garmin.DefaultEndpoints()
	if v := cfg.Garmin.RequestTokenURL; v != "" {
		endpoints.RequestTokenURL = v
	}
	if v := cfg.Garmin.AuthorizeURL; v != "" {
		endpoints.AuthorizeURL = v
	}
	if v := cfg.Garmin.AccessTokenURL; v != "" {
		endpoints.AccessTokenURL = v
	}
	if v := cfg.Garmin.UserIDURL; v != "" {
		endpoints.UserIDURL = v
	}
	if v := cfg.Garmin.SleepBackfillURL; v != "" {
		endpoints.SleepBackfillURL = v
	}
	if v := cfg.Garmin.DailiesBackfillURL; v != "" {
		endpoints.DailiesBackfillURL = v
	}
	client := garmin.NewClient(signer, endpoints, nil)

	// ─── Services y controllers ───
	flow := garminsvc.NewFlowService(client, pendings, links, garminsvc.FlowConfig{
		BaseURL:     cfg.App.BaseURL,
		FrontendURL: cfg.App.FrontendURL,
	})
	webhooks := garminsvc.NewWebhookService(links, summaries)
	account := garminsvc.NewAccountService(links)

	controllers := garminctrl.New(flow, webhooks, account)

	var readiness func(*http.Request) error
	if a.PG != nil {
		readiness = func(r *http.Request) error { return a.PG.Ping(r.Context()) }
	}

	a.Handler = router.New(router.Deps{
		Garmin: controllers,
		Auth: mw.AuthConfig{
			Secret: []byte(cfg.JWT.Secret),
			Issuer: cfg.JWT.Issuer,
		},
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Readiness:   readiness,
	})

	return a, nil
}
