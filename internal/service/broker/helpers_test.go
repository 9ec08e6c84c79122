package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/scieloorg/articlemeta/internal/adapter/memory"
	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
	"github.com/scieloorg/articlemeta/internal/normalizer"
	"github.com/scieloorg/articlemeta/internal/service/history"
)

var (
	_ metadataNormalizer = (*normalizer.Normalizer)(nil)
	_ historyLog         = (*history.Recorder)(nil)
)

var fixedNow = time.Date(2021, 3, 15, 10, 30, 0, 0, time.Local)

// tickingClock advances one millisecond per reading so history dates are
// distinct and ordered.
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

// faultyStore fails the configured operations and delegates the rest.
type faultyStore struct {
	*memory.Store
	failUpdate error
	failInsert error
	failRemove error
	failFind   error
}

func (s *faultyStore) Update(ctx context.Context, coll string, f docstore.Filter, patch docstore.Document, upsert bool) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	return s.Store.Update(ctx, coll, f, patch, upsert)
}

func (s *faultyStore) Insert(ctx context.Context, coll string, doc docstore.Document) (string, error) {
	if s.failInsert != nil {
		return "", s.failInsert
	}
	return s.Store.Insert(ctx, coll, doc)
}

func (s *faultyStore) Remove(ctx context.Context, coll string, f docstore.Filter) (int64, error) {
	if s.failRemove != nil {
		return 0, s.failRemove
	}
	return s.Store.Remove(ctx, coll, f)
}

func (s *faultyStore) Find(ctx context.Context, coll string, f docstore.Filter, opts docstore.FindOptions) (docstore.Cursor, error) {
	if s.failFind != nil {
		return nil, s.failFind
	}
	return s.Store.Find(ctx, coll, f, opts)
}

type harness struct {
	svc   *Service
	store *faultyStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := &faultyStore{Store: memory.New()}
	clk := &tickingClock{t: fixedNow}
	norm := normalizer.New(normalizer.WithClock(func() time.Time { return fixedNow }))
	rec := history.NewRecorder(slog.Default(), store, history.WithClock(clk.now))

	svc := NewService(slog.Default(), store, norm, rec, Config{})
	svc.now = func() time.Time { return fixedNow }
	return &harness{svc: svc, store: store}
}

func (h *harness) count(t *testing.T, coll string, f docstore.Filter) int64 {
	t.Helper()
	n, err := h.store.Count(context.Background(), coll, f)
	if err != nil {
		t.Fatalf("count %s: %v", coll, err)
	}
	return n
}

func (h *harness) stored(t *testing.T, coll string, f docstore.Filter) docstore.Document {
	t.Helper()
	doc, err := h.store.FindOne(context.Background(), coll, f)
	if err != nil {
		t.Fatalf("find %s: %v", coll, err)
	}
	return doc
}

func field(v string) []any {
	return []any{map[string]any{"_": v}}
}

// rawArticle builds ISIS-JSON article metadata. extra overrides or adds
// article tags.
func rawArticle(pid, collection, pubDate string, extra map[string]any) domain.Metadata {
	article := map[string]any{
		"v880": field(pid),
		"v65":  field(pubDate),
		"v71":  field("oa"),
	}
	for k, v := range extra {
		article[k] = v
	}
	return domain.Metadata{
		"collection": collection,
		"article":    article,
		"title": map[string]any{
			"v35":  field("PRINT"),
			"v935": field("0001-3765"),
			"v400": field("1678-2690"),
			"v100": field("Snapshot Title"),
		},
	}
}

// rawJournal builds ISIS-JSON journal metadata with typed ISSNs.
func rawJournal(collection, electronic, print, title string) domain.Metadata {
	return domain.Metadata{
		"collection": collection,
		"v435": []any{
			map[string]any{"_": electronic, "t": "ONLIN"},
			map[string]any{"_": print, "t": "PRINT"},
		},
		"v100": field(title),
	}
}

func pid(i int) string {
	return fmt.Sprintf("S0001-376520200001%05d", i)
}
