package history

import (
	"context"
	"fmt"

	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
)

// Query selects history events. Nil fields are not filtered on.
type Query struct {
	Collection *string
	Event      *domain.Event
	Code       *string
	// From is an exclusive lower bound on the event date.
	From *string
	// Until is an inclusive upper bound on the event date. Nil means now.
	Until  *string
	Limit  int
	Offset int
}

// Filter builds the store filter for q: date > from AND date <= until plus
// the optional equalities.
func (r *Recorder) Filter(q Query) docstore.Filter {
	from := r.defaultFrom
	if q.From != nil {
		from = *q.From
	}
	until := domain.FormatHistoryDate(r.now())
	if q.Until != nil {
		until = *q.Until
	}

	f := docstore.Filter{docstore.Gt("date", from), docstore.Lte("date", until)}
	if q.Collection != nil {
		f = f.And(docstore.Eq("collection", *q.Collection))
	}
	if q.Event != nil {
		f = f.And(docstore.Eq("event", q.Event.String()))
	}
	if q.Code != nil {
		f = f.And(docstore.Eq("code", *q.Code))
	}
	return f
}

// List returns a page of events of kind sorted ascending by date. Unknown
// kinds yield an empty page.
func (r *Recorder) List(ctx context.Context, kind domain.Kind, q Query) (domain.Page[domain.HistoryEvent], error) {
	limit, offset := domain.ClampPage(q.Limit, q.Offset, r.pageLimit)
	filter := r.Filter(q)

	page := domain.Page[domain.HistoryEvent]{
		Meta: domain.PageMeta{
			Limit:  limit,
			Offset: offset,
			Filter: filter.Document(),
		},
		Objects: []domain.HistoryEvent{},
	}
	if !kind.IsValid() {
		return page, nil
	}
	coll := kind.HistoryCollection()

	total, err := r.store.Count(ctx, coll, filter)
	if err != nil {
		return page, fmt.Errorf("count %s history: %w", kind, err)
	}
	page.Meta.Total = total

	cur, err := r.store.Find(ctx, coll, filter, docstore.FindOptions{
		Projection: []string{"code", "collection", "event", "date"},
		Skip:       int64(offset),
		Limit:      int64(limit),
		Sort:       "date",
	})
	if err != nil {
		return page, fmt.Errorf("find %s history: %w", kind, err)
	}
	docs, err := docstore.All(ctx, cur)
	if err != nil {
		return page, fmt.Errorf("read %s history: %w", kind, err)
	}

	for _, d := range docs {
		page.Objects = append(page.Objects, decode(d))
	}
	return page, nil
}
