package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/wearsync/internal/app"
	"github.com/dropDatabas3/wearsync/internal/config"
	httpserver "github.com/dropDatabas3/wearsync/internal/http"
	"github.com/dropDatabas3/wearsync/internal/observability/logger"
)

func main() {
	flagConfig := flag.String("config", "", "ruta al config.yaml (opcional)")
	flagEnvFile := flag.String("env-file", ".env", "archivo .env a cargar")
	flag.Parse()

	// .env best-effort: en prod las vars vienen del entorno.
	_ = godotenv.Load(*flagEnvFile)

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "wearsync",
	})
	defer func() { _ = logger.Sync() }()

	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatal("app wiring failed", logger.Err(err))
	}
	defer a.Close()

	srv := httpserver.NewServer(cfg.Server.Addr, a.Handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		if err := httpserver.Shutdown(srv, 15*time.Second); err != nil {
			log.Error("graceful shutdown failed", logger.Err(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", logger.Err(err))
		}
	}
}
