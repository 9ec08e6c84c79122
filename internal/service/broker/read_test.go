package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
	"github.com/scieloorg/articlemeta/internal/service/history"
)

func TestExistsArticle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.AddArticle(ctx, rawArticle("S0001", "scl", "20200501", nil))
	require.NoError(t, err)

	tests := []struct {
		name       string
		code       string
		collection *string
		want       bool
	}{
		{"any collection", "S0001", nil, true},
		{"matching collection", "S0001", domain.Ptr("scl"), true},
		{"other collection", "S0001", domain.Ptr("arg"), false},
		{"unknown code", "unknown-code", nil, false},
	}
	for _, tt := range tests {
		got, err := h.svc.ExistsArticle(ctx, tt.code, tt.collection)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	got, err := h.svc.GetArticle(context.Background(), "missing", nil, true)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetArticle_ReplaceJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.AddArticle(ctx, rawArticle("S0001", "scl", "20200501", nil))
	require.NoError(t, err)
	_, err = h.svc.AddJournal(ctx, rawJournal("scl", "1678-2690", "0001-3765", "Live Title"))
	require.NoError(t, err)

	plain, err := h.svc.GetArticle(ctx, "S0001", domain.Ptr("scl"), false)
	require.NoError(t, err)
	assert.Equal(t, []any{docstore.Document{"_": "Snapshot Title"}}, plain.Title()["v100"])

	replaced, err := h.svc.GetArticle(ctx, "S0001", domain.Ptr("scl"), true)
	require.NoError(t, err)
	title := replaced.Title()
	require.NotNil(t, title)
	assert.Equal(t, []any{docstore.Document{"_": "Live Title"}}, title["v100"])
	assert.Equal(t, "scl", title["collection"])
}

func TestGetArticle_ReplaceJournalWithoutMatchKeepsSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.svc.AddArticle(ctx, rawArticle("S0001", "scl", "20200501", nil))
	require.NoError(t, err)

	got, err := h.svc.GetArticle(ctx, "S0001", domain.Ptr("scl"), true)
	require.NoError(t, err)
	assert.Equal(t, []any{docstore.Document{"_": "Snapshot Title"}}, got.Title()["v100"])
}

func TestGetArticles_ReplacesOnlyOnSingleMatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	for _, coll := range []string{"scl", "arg"} {
		_, err := h.svc.AddArticle(ctx, rawArticle("S0001", coll, "20200501", nil))
		require.NoError(t, err)
		_, err = h.svc.AddJournal(ctx, rawJournal(coll, "1678-2690", "0001-3765", "Live "+coll))
		require.NoError(t, err)
	}

	titles := func(collection *string) []any {
		var out []any
		for a, err := range h.svc.GetArticles(ctx, "S0001", collection, true) {
			require.NoError(t, err)
			out = append(out, a.Title()["v100"])
		}
		return out
	}

	// Two journals match across collections, so nothing is substituted.
	snapshot := []any{docstore.Document{"_": "Snapshot Title"}}
	assert.Equal(t, []any{snapshot, snapshot}, titles(nil))

	live := []any{docstore.Document{"_": "Live scl"}}
	assert.Equal(t, []any{live}, titles(domain.Ptr("scl")))
}

func TestGetArticles_StopsEarly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	for _, coll := range []string{"scl", "arg", "mex"} {
		_, err := h.svc.AddArticle(ctx, rawArticle("S0001", coll, "20200501", nil))
		require.NoError(t, err)
	}

	seen := 0
	for a, err := range h.svc.GetArticles(ctx, "S0001", nil, false) {
		require.NoError(t, err)
		require.NotNil(t, a)
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestGetArticles_StorageFailure(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	boom := errors.New("cursor lost")
	h.store.failFind = boom

	var errs []error
	for a, err := range h.svc.GetArticles(context.Background(), "S0001", nil, false) {
		assert.Nil(t, a)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], boom)
}

func TestIdentifiersArticle_Pagination(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	for i := range 25 {
		_, err := h.svc.AddArticle(ctx, rawArticle(pid(i), "scl", "20200501", map[string]any{"v91": field("20200601")}))
		require.NoError(t, err)
	}

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
		wantLen    int
	}{
		{"first page", 10, 0, 10, 0, 10},
		{"last page", 10, 20, 10, 20, 5},
		{"negative offset", 10, -4, 10, 0, 10},
		{"negative limit", -1, 0, DefaultPageLimit, 0, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := h.svc.IdentifiersArticle(ctx, IdentifiersQuery{Limit: tt.limit, Offset: tt.offset})
			require.NoError(t, err)
			assert.Equal(t, int64(25), page.Meta.Total)
			assert.Equal(t, tt.wantLimit, page.Meta.Limit)
			assert.Equal(t, tt.wantOffset, page.Meta.Offset)
			assert.Len(t, page.Objects, tt.wantLen)
		})
	}
}

func TestIdentifiersArticle_Filters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	seed := []struct {
		pid, coll, processed string
	}{
		{pid(1), "scl", "20190101"},
		{pid(2), "scl", "20200101"},
		{pid(3), "arg", "20200101"},
		{pid(4), "scl", "20220101"},
	}
	for _, s := range seed {
		_, err := h.svc.AddArticle(ctx, rawArticle(s.pid, s.coll, "20190101", map[string]any{"v91": field(s.processed)}))
		require.NoError(t, err)
	}
	// No processing date: never listed.
	_, err := h.svc.AddArticle(ctx, rawArticle(pid(5), "scl", "20190101", nil))
	require.NoError(t, err)

	page, err := h.svc.IdentifiersArticle(ctx, IdentifiersQuery{Collection: domain.Ptr("scl"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Meta.Total, "until defaults to today")
	assert.Equal(t, docstore.Document{
		"processing_date": docstore.Document{"$gte": "1500-01-01", "$lte": "2021-03-15"},
		"collection":      "scl",
	}, docstore.Document(page.Meta.Filter))

	page, err = h.svc.IdentifiersArticle(ctx, IdentifiersQuery{
		From:  domain.Ptr("2020-01-01"),
		Until: domain.Ptr("2030-01-01"),
		ISSN:  domain.Ptr("0001-3765"),
		Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Meta.Total, "from is inclusive")
	for _, obj := range page.Objects {
		require.NotNil(t, obj.ProcessingDate)
		assert.GreaterOrEqual(t, *obj.ProcessingDate, "2020-01-01")
	}

	page, err = h.svc.IdentifiersArticle(ctx, IdentifiersQuery{ISSN: domain.Ptr("9999-9999"), Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, page.Meta.Total)
	assert.NotNil(t, page.Objects)
}

func TestIdentifiersPressRelease(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	for i, code := range []string{"oa", "pr", "ed"} {
		_, err := h.svc.AddArticle(ctx, rawArticle(pid(i), "scl", "20200101", map[string]any{
			"v71": field(code),
			"v91": field("20200101"),
		}))
		require.NoError(t, err)
	}

	page, err := h.svc.IdentifiersPressRelease(ctx, IdentifiersQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Meta.Total)
	require.Len(t, page.Objects, 1)
	assert.Equal(t, pid(1), page.Objects[0].Code)
	assert.Equal(t, "scl", page.Objects[0].Collection)
	assert.Equal(t, "2020-01-01", *page.Objects[0].ProcessingDate)
}

func TestIdentifiersJournal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	for _, j := range []struct{ coll, e, p string }{
		{"scl", "1111-1111", "2222-2222"},
		{"scl", "3333-3333", "4444-4444"},
		{"arg", "5555-5555", "6666-6666"},
	} {
		_, err := h.svc.AddJournal(ctx, rawJournal(j.coll, j.e, j.p, "J"))
		require.NoError(t, err)
	}

	page, err := h.svc.IdentifiersJournal(ctx, domain.Ptr("scl"), -1, -1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Meta.Total)
	assert.Equal(t, DefaultPageLimit, page.Meta.Limit)
	assert.Equal(t, 0, page.Meta.Offset)
	require.Len(t, page.Objects, 2)
	assert.Equal(t, []string{"1111-1111", "2222-2222"}, page.Objects[0].Code.Values())

	all, err := h.svc.IdentifiersJournal(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Meta.Total)
	assert.Empty(t, all.Meta.Filter)
}

func TestCollections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	for _, c := range []docstore.Document{
		{"code": "scl", "acronym": "scl", "name": "Brasil", "domain": "www.scielo.br"},
		{"code": "arg", "acronym": "arg", "name": "Argentina"},
	} {
		_, err := h.store.Insert(ctx, docstore.Collections, c)
		require.NoError(t, err)
	}

	all, err := h.svc.IdentifiersCollection(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scl, err := h.svc.GetCollection(ctx, "scl")
	require.NoError(t, err)
	require.NotNil(t, scl)
	assert.Equal(t, "Brasil", scl.Name)
	assert.Equal(t, "www.scielo.br", scl.Metadata["domain"])

	missing, err := h.svc.GetCollection(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestHistory_OrderedAndClamped(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	for i := range 5 {
		_, err := h.svc.AddArticle(ctx, rawArticle(pid(i), "scl", "20200501", nil))
		require.NoError(t, err)
		_, err = h.svc.UpdateArticle(ctx, rawArticle(pid(i), "scl", "20200501", nil))
		require.NoError(t, err)
	}
	_, err := h.svc.DeleteArticle(ctx, pid(0), domain.Ptr("scl"))
	require.NoError(t, err)

	page, err := h.svc.History(ctx, domain.KindArticle, history.Query{
		Until:  domain.Ptr("2100-01-01T00:00:00"),
		Limit:  -1,
		Offset: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageLimit, page.Meta.Limit)
	assert.Equal(t, 0, page.Meta.Offset)
	assert.Equal(t, int64(11), page.Meta.Total)
	require.Len(t, page.Objects, 11)
	for i := 1; i < len(page.Objects); i++ {
		assert.LessOrEqual(t, page.Objects[i-1].Date, page.Objects[i].Date)
	}

	deletes, err := h.svc.History(ctx, domain.KindArticle, history.Query{
		Event: domain.Ptr(domain.EventDelete),
		Until: domain.Ptr("2100-01-01T00:00:00"),
		Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, deletes.Objects, 1)
}
