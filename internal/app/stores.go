package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/scieloorg/articlemeta/internal/adapter/memory"
	"github.com/scieloorg/articlemeta/internal/adapter/mongo"
	"github.com/scieloorg/articlemeta/internal/adapter/postgres"
	"github.com/scieloorg/articlemeta/internal/adapter/postgres/document"
	"github.com/scieloorg/articlemeta/internal/config"
	"github.com/scieloorg/articlemeta/internal/docstore"
)

// OpenStore opens the backend selected by the DSN scheme.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (docstore.Store, error) {
	u, err := url.Parse(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return document.New(pool, postgres.NewTxManager(pool), log), nil
	case "mongodb":
		st, err := mongo.Open(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "memory":
		return memory.New(), nil
	}
	return nil, fmt.Errorf("dsn scheme %q not supported", u.Scheme)
}

// Stores opens each DSN once and hands the same store to every caller. It is
// created at startup and closed on shutdown.
type Stores struct {
	mu     sync.Mutex
	base   config.DatabaseConfig
	log    *slog.Logger
	open   map[string]docstore.Store
	opener func(context.Context, config.DatabaseConfig, *slog.Logger) (docstore.Store, error)
}

// NewStores creates a registry. base supplies the pool settings and the DSN
// used when Get is called with an empty one.
func NewStores(base config.DatabaseConfig, log *slog.Logger) *Stores {
	return &Stores{
		base:   base,
		log:    log,
		open:   make(map[string]docstore.Store),
		opener: OpenStore,
	}
}

// Get returns the store for dsn, opening it on first use.
func (s *Stores) Get(ctx context.Context, dsn string) (docstore.Store, error) {
	if dsn == "" {
		dsn = s.base.DSN
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.open[dsn]; ok {
		return st, nil
	}

	cfg := s.base
	cfg.DSN = dsn
	st, err := s.opener(ctx, cfg, s.log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.open[dsn] = st
	s.log.InfoContext(ctx, "store opened", slog.String("dsn", redact(dsn)))
	return st, nil
}

// Close closes every opened store and forgets it.
func (s *Stores) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for dsn, st := range s.open {
		if err := st.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", redact(dsn), err))
		}
		delete(s.open, dsn)
	}
	return errors.Join(errs...)
}

func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "invalid-dsn"
	}
	return u.Redacted()
}
