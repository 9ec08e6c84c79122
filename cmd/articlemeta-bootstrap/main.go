// Command articlemeta-bootstrap prepares a store for the broker. For a
// PostgreSQL DSN it applies the embedded goose migrations first; for every
// backend it then ensures the history indexes.
//
// Flags:
//
//	--dsn      store DSN (default: database.dsn from config)
//	--timeout  overall deadline (default: 5m)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/scieloorg/articlemeta/internal/adapter/postgres"
	"github.com/scieloorg/articlemeta/internal/app"
	"github.com/scieloorg/articlemeta/internal/config"
)

func main() {
	dsnFlag := flag.String("dsn", "", "store DSN (default: database.dsn from config)")
	timeoutFlag := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *dsnFlag != "" {
		cfg.Database.DSN = *dsnFlag
	}

	logger := app.NewLogger(cfg.Log)
	logger.Info("bootstrap starting", slog.String("version", app.BuildVersion()))

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	if err := run(ctx, logger, cfg.Database); err != nil {
		logger.Error("bootstrap failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("bootstrap complete")
}

func run(ctx context.Context, logger *slog.Logger, db config.DatabaseConfig) error {
	if u, err := url.Parse(db.DSN); err == nil && (u.Scheme == "postgres" || u.Scheme == "postgresql") {
		applied, err := postgres.Migrate(ctx, db.DSN)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", slog.Int("count", applied))
	}

	stores := app.NewStores(db, logger)
	defer func() {
		if err := stores.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("close stores", slog.String("error", err.Error()))
		}
	}()

	store, err := stores.Get(ctx, "")
	if err != nil {
		return err
	}
	return app.EnsureIndexes(ctx, store)
}
