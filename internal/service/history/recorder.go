// Package history writes and reads the append-only change logs of article
// and journal records.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
)

const (
	// DefaultFrom is the lower bound of a history listing without a from date.
	DefaultFrom = "1500-01-01T00:00:00"
	// DefaultPageLimit is the page size used for a negative limit.
	DefaultPageLimit = 1000
)

type logStore interface {
	Insert(ctx context.Context, collection string, doc docstore.Document) (string, error)
	Find(ctx context.Context, collection string, filter docstore.Filter, opts docstore.FindOptions) (docstore.Cursor, error)
	Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error)
}

// Recorder appends history events and lists them back.
type Recorder struct {
	store       logStore
	log         *slog.Logger
	now         func() time.Time
	defaultFrom string
	pageLimit   int
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// WithDefaultFrom sets the lower bound used when a query has no From.
func WithDefaultFrom(from string) Option {
	return func(r *Recorder) { r.defaultFrom = from }
}

// WithPageLimit sets the page size used for a negative limit.
func WithPageLimit(limit int) Option {
	return func(r *Recorder) { r.pageLimit = limit }
}

// NewRecorder creates a Recorder over store.
func NewRecorder(log *slog.Logger, store logStore, opts ...Option) *Recorder {
	r := &Recorder{
		store:       store,
		log:         log.With("service", "history"),
		now:         time.Now,
		defaultFrom: DefaultFrom,
		pageLimit:   DefaultPageLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one event to the log of kind and returns the stored id.
// A zero date means now. An unknown kind records nothing and returns an
// empty id without error.
func (r *Recorder) Record(ctx context.Context, kind domain.Kind, code, collection *string, event domain.Event, date time.Time) (string, error) {
	if !kind.IsValid() {
		r.log.DebugContext(ctx, "history skipped for unknown kind", slog.String("kind", kind.String()))
		return "", nil
	}
	if date.IsZero() {
		date = r.now()
	}

	id, err := r.store.Insert(ctx, kind.HistoryCollection(), encode(domain.HistoryEvent{
		Code:       code,
		Collection: collection,
		Event:      event,
		Date:       domain.FormatHistoryDate(date),
	}))
	if err != nil {
		return "", fmt.Errorf("record %s history: %w", kind, err)
	}
	return id, nil
}

func encode(e domain.HistoryEvent) docstore.Document {
	return docstore.Document{
		"code":       docstore.Normalize(e.Code),
		"collection": docstore.Normalize(e.Collection),
		"event":      e.Event.String(),
		"date":       e.Date,
	}
}

func decode(doc docstore.Document) domain.HistoryEvent {
	e := domain.HistoryEvent{}
	if s, ok := doc["code"].(string); ok {
		e.Code = &s
	}
	if s, ok := doc["collection"].(string); ok {
		e.Collection = &s
	}
	if s, ok := doc["event"].(string); ok {
		e.Event = domain.Event(s)
	}
	e.Date, _ = doc["date"].(string)
	return e
}
