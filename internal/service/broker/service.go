// Package broker is the change-tracked record broker: it normalizes incoming
// article and journal metadata, upserts it by (code, collection), records a
// history event for every mutation, and serves the read paths.
package broker

import (
	"context"
	"log/slog"
	"time"

	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
	"github.com/scieloorg/articlemeta/internal/service/history"
)

const (
	DefaultPageLimit       = 1000
	DefaultIdentifiersFrom = "1500-01-01"
)

type metadataNormalizer interface {
	NormalizeArticle(raw domain.Metadata) (domain.Article, error)
	NormalizeJournal(raw domain.Metadata) (domain.Journal, error)
}

type historyLog interface {
	Record(ctx context.Context, kind domain.Kind, code, collection *string, event domain.Event, date time.Time) (string, error)
	List(ctx context.Context, kind domain.Kind, q history.Query) (domain.Page[domain.HistoryEvent], error)
}

// Config holds the listing defaults.
type Config struct {
	// PageLimit is the page size used for a negative limit.
	PageLimit int
	// IdentifiersFrom is the inclusive lower bound on processing_date used
	// when an identifier listing has no from date.
	IdentifiersFrom string
}

func (c Config) withDefaults() Config {
	if c.PageLimit <= 0 {
		c.PageLimit = DefaultPageLimit
	}
	if c.IdentifiersFrom == "" {
		c.IdentifiersFrom = DefaultIdentifiersFrom
	}
	return c
}

// Service is safe for concurrent use. Each call runs to completion in the
// caller's goroutine.
type Service struct {
	store   docstore.Store
	norm    metadataNormalizer
	history historyLog
	cfg     Config
	now     func() time.Time
	log     *slog.Logger
}

// NewService creates a broker over store.
func NewService(
	log *slog.Logger,
	store docstore.Store,
	norm metadataNormalizer,
	history historyLog,
	cfg Config,
) *Service {
	return &Service{
		store:   store,
		norm:    norm,
		history: history,
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		log:     log.With("service", "broker"),
	}
}
