// Command articlemeta-load feeds raw ISIS-JSON records, one JSON object per
// line, through the broker so every write is normalized and recorded in the
// history log.
//
// Flags:
//
//	--kind     article or journal (default: article)
//	--event    add or update (default: add)
//	--input    input file (default: stdin)
//	--workers  concurrent writers (default: loader.workers from config)
//
// Exit codes: 0 = success, 1 = error, 2 = finished with rejected records.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/scieloorg/articlemeta/internal/app"
	"github.com/scieloorg/articlemeta/internal/app/loader"
	"github.com/scieloorg/articlemeta/internal/config"
	"github.com/scieloorg/articlemeta/internal/domain"
	"github.com/scieloorg/articlemeta/internal/service/broker"
)

// Compile-time interface assertion.
var _ loader.Broker = (*broker.Service)(nil)

func main() {
	kindFlag := flag.String("kind", string(domain.KindArticle), "article or journal")
	eventFlag := flag.String("event", string(domain.EventAdd), "add or update")
	inputFlag := flag.String("input", "", "input file (default: stdin)")
	workersFlag := flag.Int("workers", 0, "concurrent writers (default: loader.workers from config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg.Log)

	workers := cfg.Loader.Workers
	if *workersFlag > 0 {
		workers = *workersFlag
	}

	var in io.Reader = os.Stdin
	if *inputFlag != "" {
		f, err := os.Open(*inputFlag)
		if err != nil {
			logger.Error("open input", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := app.NewStores(cfg.Database, logger)
	store, err := stores.Get(ctx, "")
	if err != nil {
		logger.Error("open store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svc := app.NewBroker(logger, store, cfg.Broker)
	l, err := loader.New(logger, svc, loader.Options{
		Kind:    domain.Kind(*kindFlag),
		Event:   domain.Event(*eventFlag),
		Workers: workers,
	})
	if err != nil {
		logger.Error("configure loader", slog.String("error", err.Error()))
		os.Exit(1)
	}

	stats, loadErr := l.Load(ctx, in)
	if err := stores.Close(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("close stores", slog.String("error", err.Error()))
	}

	switch {
	case loadErr != nil:
		logger.Error("load failed", slog.String("error", loadErr.Error()))
		os.Exit(1)
	case stats.Rejected > 0:
		os.Exit(2)
	}
}
