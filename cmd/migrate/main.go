// Aplica las migraciones SQL embebidas contra Postgres, en orden de nombre.
// Idempotente: el esquema usa IF NOT EXISTS.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"github.com/dropDatabas3/wearsync/internal/observability/logger"
	migrations "github.com/dropDatabas3/wearsync/migrations/postgres"
)

func main() {
	flagDSN := flag.String("dsn", "", "DSN de Postgres (default: DATABASE_URL)")
	flag.Parse()

	_ = godotenv.Load()

	dsn := *flagDSN
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "migrate: falta -dsn o DATABASE_URL")
		os.Exit(2)
	}

	logger.Init(logger.Config{Env: "dev", Level: "info", ServiceName: "wearsync-migrate"})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		log.Fatal("connect failed", logger.Err(err))
	}
	defer conn.Close(ctx)

	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		log.Fatal("read migrations failed", logger.Err(err))
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sql, err := migrations.FS.ReadFile(name)
		if err != nil {
			log.Fatal("read migration failed", logger.String("file", name), logger.Err(err))
		}
		if _, err := conn.Exec(ctx, string(sql)); err != nil {
			log.Fatal("migration failed", logger.String("file", name), logger.Err(err))
		}
		log.Info("migration applied", logger.String("file", name))
	}

	log.Info("migrations complete", logger.Count(len(names)))
}
