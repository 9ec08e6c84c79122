// Package loader feeds raw ISIS-JSON records into the broker. Input is one
// JSON object per line; records are written concurrently by a bounded
// worker pool.
package loader

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/scieloorg/articlemeta/internal/domain"
	"github.com/scieloorg/articlemeta/pkg/ctxutil"
)

// MaxRecordSize bounds a single input line.
const MaxRecordSize = 16 << 20

// Broker is the write side the loader drives.
type Broker interface {
	AddArticle(ctx context.Context, raw domain.Metadata) (*domain.Article, error)
	UpdateArticle(ctx context.Context, raw domain.Metadata) (*domain.Article, error)
	AddJournal(ctx context.Context, raw domain.Metadata) (*domain.Journal, error)
	UpdateJournal(ctx context.Context, raw domain.Metadata) (*domain.Journal, error)
}

// Options selects what the input holds and how it is written.
type Options struct {
	Kind    domain.Kind
	Event   domain.Event
	Workers int
}

// Stats counts records by outcome.
type Stats struct {
	Read     int64
	Loaded   int64
	Rejected int64
}

// Loader is single-use per Load call but safe to reuse sequentially.
type Loader struct {
	put     func(ctx context.Context, raw domain.Metadata) error
	workers int
	log     *slog.Logger
}

// New validates opts and binds the broker operation for kind and event.
func New(log *slog.Logger, b Broker, opts Options) (*Loader, error) {
	put, err := operation(b, opts.Kind, opts.Event)
	if err != nil {
		return nil, err
	}
	return &Loader{
		put:     put,
		workers: max(opts.Workers, 1),
		log:     log.With("service", "loader", "kind", string(opts.Kind), "event", string(opts.Event)),
	}, nil
}

func operation(b Broker, kind domain.Kind, event domain.Event) (func(context.Context, domain.Metadata) error, error) {
	switch {
	case kind == domain.KindArticle && event == domain.EventAdd:
		return func(ctx context.Context, raw domain.Metadata) error { _, err := b.AddArticle(ctx, raw); return err }, nil
	case kind == domain.KindArticle && event == domain.EventUpdate:
		return func(ctx context.Context, raw domain.Metadata) error { _, err := b.UpdateArticle(ctx, raw); return err }, nil
	case kind == domain.KindJournal && event == domain.EventAdd:
		return func(ctx context.Context, raw domain.Metadata) error { _, err := b.AddJournal(ctx, raw); return err }, nil
	case kind == domain.KindJournal && event == domain.EventUpdate:
		return func(ctx context.Context, raw domain.Metadata) error { _, err := b.UpdateJournal(ctx, raw); return err }, nil
	}
	return nil, domain.NewValidationError("loader", fmt.Sprintf("unsupported kind %q with event %q", kind, event))
}

// Load reads r to the end. Malformed lines and records the broker rejects
// as invalid are counted and skipped; any other error stops the load.
func (l *Loader) Load(ctx context.Context, r io.Reader) (Stats, error) {
	var read, loaded, rejected atomic.Int64
	stats := func() Stats {
		return Stats{Read: read.Load(), Loaded: loaded.Load(), Rejected: rejected.Load()}
	}

	runID := uuid.New()
	ctx = ctxutil.WithRunID(ctx, runID)
	log := l.log.With("run_id", runID.String())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), MaxRecordSize)

	line := 0
	for scanner.Scan() {
		line++
		if gctx.Err() != nil {
			break
		}
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		read.Add(1)

		var raw domain.Metadata
		if err := json.Unmarshal(text, &raw); err != nil {
			rejected.Add(1)
			log.WarnContext(ctx, "malformed record", slog.Int("line", line), slog.String("error", err.Error()))
			continue
		}

		n := line
		g.Go(func() error {
			err := l.put(gctx, raw)
			switch {
			case err == nil:
				loaded.Add(1)
				return nil
			case errors.Is(err, domain.ErrValidation):
				rejected.Add(1)
				log.WarnContext(gctx, "record rejected", slog.Int("line", n), slog.String("error", err.Error()))
				return nil
			default:
				return fmt.Errorf("line %d: %w", n, err)
			}
		})
	}

	err := g.Wait()
	if err == nil {
		if scanErr := scanner.Err(); scanErr != nil {
			err = fmt.Errorf("read input: %w", scanErr)
		} else {
			err = ctx.Err()
		}
	}

	s := stats()
	log.InfoContext(ctx, "load finished",
		slog.Int64("read", s.Read),
		slog.Int64("loaded", s.Loaded),
		slog.Int64("rejected", s.Rejected),
	)
	return s, err
}
