package history

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/articlemeta/internal/adapter/memory"
	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
)

var baseTime = time.Date(2020, 5, 1, 12, 0, 0, 0, time.Local)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestRecorder(t *testing.T) (*Recorder, *memory.Store) {
	t.Helper()
	store := memory.New()
	c := &clock{t: baseTime}
	return NewRecorder(slog.Default(), store, WithClock(c.now)), store
}

type failingStore struct {
	*memory.Store
	err error
}

func (s failingStore) Insert(context.Context, string, docstore.Document) (string, error) {
	return "", s.err
}

func TestRecord_StoresEvent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, store := newTestRecorder(t)

	id, err := r.Record(ctx, domain.KindArticle, domain.Ptr("S1"), domain.Ptr("scl"), domain.EventAdd, time.Time{})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	doc, err := store.FindOne(ctx, docstore.HistoryArticle, nil)
	require.NoError(t, err)
	assert.Equal(t, "S1", doc["code"])
	assert.Equal(t, "scl", doc["collection"])
	assert.Equal(t, "add", doc["event"])
	assert.Equal(t, "2020-05-01T12:00:01.000000", doc["date"])
}

func TestRecord_ExplicitDateAndNilFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, store := newTestRecorder(t)

	at := time.Date(2019, 1, 2, 3, 4, 5, 6000, time.Local)
	_, err := r.Record(ctx, domain.KindJournal, nil, nil, domain.EventDelete, at)
	require.NoError(t, err)

	doc, err := store.FindOne(ctx, docstore.HistoryJournal, nil)
	require.NoError(t, err)
	assert.Nil(t, doc["code"])
	assert.Nil(t, doc["collection"])
	assert.Equal(t, "2019-01-02T03:04:05.000006", doc["date"])
}

func TestRecord_UnknownKindIsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, store := newTestRecorder(t)

	id, err := r.Record(ctx, domain.Kind("issue"), domain.Ptr("S1"), nil, domain.EventAdd, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, id)

	for _, coll := range []string{docstore.HistoryArticle, docstore.HistoryJournal} {
		n, err := store.Count(ctx, coll, nil)
		require.NoError(t, err)
		assert.Zero(t, n, coll)
	}
}

func TestRecord_StorageFailurePropagates(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	r := NewRecorder(slog.Default(), failingStore{Store: memory.New(), err: boom})

	_, err := r.Record(context.Background(), domain.KindArticle, domain.Ptr("S1"), nil, domain.EventAdd, time.Time{})
	assert.ErrorIs(t, err, boom)
}

func TestList_FiltersSortsAndPaginates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, store := newTestRecorder(t)

	// Insert out of order so sorting is observable.
	dates := []string{
		"2020-01-03T00:00:00.000000",
		"2020-01-01T00:00:00.000000",
		"2020-01-05T00:00:00.000000",
		"2020-01-02T00:00:00.000000",
		"2020-01-04T00:00:00.000000",
	}
	for i, d := range dates {
		coll := "scl"
		if i == 2 {
			coll = "arg"
		}
		_, err := store.Insert(ctx, docstore.HistoryArticle, docstore.Document{
			"code": "S1", "collection": coll, "event": "update", "date": d,
		})
		require.NoError(t, err)
	}

	page, err := r.List(ctx, domain.KindArticle, Query{Collection: domain.Ptr("scl"), Limit: 2, Offset: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(4), page.Meta.Total)
	assert.Equal(t, 2, page.Meta.Limit)
	assert.Equal(t, 1, page.Meta.Offset)
	require.Len(t, page.Objects, 2)
	assert.Equal(t, "2020-01-02T00:00:00.000000", page.Objects[0].Date)
	assert.Equal(t, "2020-01-03T00:00:00.000000", page.Objects[1].Date)
	assert.Equal(t, domain.EventUpdate, page.Objects[0].Event)
	assert.Equal(t, "scl", *page.Objects[0].Collection)
}

func TestList_DateBounds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, store := newTestRecorder(t)

	for _, d := range []string{"2020-01-01T00:00:00.000000", "2020-01-02T00:00:00.000000", "2020-01-03T00:00:00.000000"} {
		_, err := store.Insert(ctx, docstore.HistoryJournal, docstore.Document{"event": "add", "date": d})
		require.NoError(t, err)
	}

	page, err := r.List(ctx, domain.KindJournal, Query{
		From:  domain.Ptr("2020-01-01T00:00:00.000000"),
		Until: domain.Ptr("2020-01-02T00:00:00.000000"),
		Limit: -1,
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultPageLimit, page.Meta.Limit)
	require.Len(t, page.Objects, 1, "from is exclusive and until inclusive")
	assert.Equal(t, "2020-01-02T00:00:00.000000", page.Objects[0].Date)
	assert.Equal(t, docstore.Document{
		"date": docstore.Document{"$gt": "2020-01-01T00:00:00.000000", "$lte": "2020-01-02T00:00:00.000000"},
	}, docstore.Document(page.Meta.Filter))
}

func TestList_OrderIsNonDecreasing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r, _ := newTestRecorder(t)

	for range 20 {
		_, err := r.Record(ctx, domain.KindArticle, domain.Ptr("S1"), domain.Ptr("scl"), domain.EventUpdate, time.Time{})
		require.NoError(t, err)
	}

	page, err := r.List(ctx, domain.KindArticle, Query{Code: domain.Ptr("S1"), Event: domain.Ptr(domain.EventUpdate), Limit: 0})
	require.NoError(t, err)
	require.Len(t, page.Objects, 20)
	for i := 1; i < len(page.Objects); i++ {
		assert.LessOrEqual(t, page.Objects[i-1].Date, page.Objects[i].Date)
	}
}

func TestList_UnknownKindIsEmpty(t *testing.T) {
	t.Parallel()

	r, _ := newTestRecorder(t)
	page, err := r.List(context.Background(), domain.Kind("issue"), Query{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Objects)
	assert.Zero(t, page.Meta.Total)
}
