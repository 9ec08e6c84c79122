package broker

import (
	"context"
	"fmt"

	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
	"github.com/scieloorg/articlemeta/internal/service/history"
)

// IdentifiersQuery selects article identifiers. Nil fields are not filtered
// on; From and Until bound processing_date inclusively.
type IdentifiersQuery struct {
	Collection *string
	ISSN       *string
	From       *string
	Until      *string
	Limit      int
	Offset     int
}

// IdentifiersArticle lists {code, collection, processing_date} of articles
// processed in [From, Until]. Until defaults to today.
func (s *Service) IdentifiersArticle(ctx context.Context, q IdentifiersQuery) (domain.Page[domain.ArticleIdentifier], error) {
	return s.articleIdentifiers(ctx, q, s.identifiersFilter(q))
}

// IdentifiersPressRelease is IdentifiersArticle restricted to press releases.
func (s *Service) IdentifiersPressRelease(ctx context.Context, q IdentifiersQuery) (domain.Page[domain.ArticleIdentifier], error) {
	f := s.identifiersFilter(q).And(docstore.Eq(fDocumentType, domain.DocumentTypePressRelease))
	return s.articleIdentifiers(ctx, q, f)
}

func (s *Service) identifiersFilter(q IdentifiersQuery) docstore.Filter {
	from := s.cfg.IdentifiersFrom
	if q.From != nil {
		from = *q.From
	}
	until := s.now().Format(domain.DateLayout)
	if q.Until != nil {
		until = *q.Until
	}

	f := docstore.Filter{
		docstore.Gte(fProcessingDate, from),
		docstore.Lte(fProcessingDate, until),
	}
	if q.Collection != nil {
		f = f.And(docstore.Eq(fCollection, *q.Collection))
	}
	if q.ISSN != nil {
		f = f.And(docstore.Eq(fCodeTitle, *q.ISSN))
	}
	return f
}

func (s *Service) articleIdentifiers(ctx context.Context, q IdentifiersQuery, f docstore.Filter) (domain.Page[domain.ArticleIdentifier], error) {
	limit, offset := domain.ClampPage(q.Limit, q.Offset, s.cfg.PageLimit)
	page := domain.Page[domain.ArticleIdentifier]{
		Meta:    domain.PageMeta{Limit: limit, Offset: offset, Filter: f.Document()},
		Objects: []domain.ArticleIdentifier{},
	}

	docs, total, err := s.fetchPage(ctx, docstore.Articles, f, limit, offset, fCode, fCollection, fProcessingDate)
	if err != nil {
		return page, fmt.Errorf("article identifiers: %w", err)
	}
	page.Meta.Total = total

	for _, d := range docs {
		page.Objects = append(page.Objects, domain.ArticleIdentifier{
			Code:           str(d, fCode),
			Collection:     str(d, fCollection),
			ProcessingDate: strPtr(d, fProcessingDate),
		})
	}
	return page, nil
}

// IdentifiersJournal lists {code, collection} of journals, optionally within
// one collection.
func (s *Service) IdentifiersJournal(ctx context.Context, collection *string, limit, offset int) (domain.Page[domain.JournalIdentifier], error) {
	limit, offset = domain.ClampPage(limit, offset, s.cfg.PageLimit)

	var f docstore.Filter
	if collection != nil {
		f = f.And(docstore.Eq(fCollection, *collection))
	}
	page := domain.Page[domain.JournalIdentifier]{
		Meta:    domain.PageMeta{Limit: limit, Offset: offset, Filter: f.Document()},
		Objects: []domain.JournalIdentifier{},
	}

	docs, total, err := s.fetchPage(ctx, docstore.Journals, f, limit, offset, fCode, fCollection)
	if err != nil {
		return page, fmt.Errorf("journal identifiers: %w", err)
	}
	page.Meta.Total = total

	for _, d := range docs {
		page.Objects = append(page.Objects, domain.JournalIdentifier{
			Code:       issns(d[fCode]),
			Collection: str(d, fCollection),
		})
	}
	return page, nil
}

// fetchPage counts the matches of f, then fetches one page of them. The two
// reads are not isolated from concurrent writes.
func (s *Service) fetchPage(ctx context.Context, coll string, f docstore.Filter, limit, offset int, fields ...string) ([]docstore.Document, int64, error) {
	total, err := s.store.Count(ctx, coll, f)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", coll, err)
	}

	cur, err := s.store.Find(ctx, coll, f, docstore.FindOptions{
		Projection: fields,
		Skip:       int64(offset),
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("find %s: %w", coll, err)
	}
	docs, err := docstore.All(ctx, cur)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", coll, err)
	}
	return docs, total, nil
}

// History lists the change log of kind, sorted ascending by date.
func (s *Service) History(ctx context.Context, kind domain.Kind, q history.Query) (domain.Page[domain.HistoryEvent], error) {
	page, err := s.history.List(ctx, kind, q)
	if err != nil {
		return page, fmt.Errorf("history: %w", err)
	}
	return page, nil
}
