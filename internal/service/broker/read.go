package broker

import (
	"context"
	"fmt"
	"iter"

	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
	"github.com/scieloorg/articlemeta/internal/isis"
)

// articleFilter matches code and, when given, collection.
func articleFilter(code string, collection *string) docstore.Filter {
	f := docstore.Filter{docstore.Eq(fCode, code)}
	if collection != nil {
		f = f.And(docstore.Eq(fCollection, *collection))
	}
	return f
}

// GetArticle returns the first article with code (within collection when
// given), or nil when there is none. With replaceJournal the embedded
// journal snapshot is replaced by the first live journal record matching its
// ISSN.
func (s *Service) GetArticle(ctx context.Context, code string, collection *string, replaceJournal bool) (*domain.Article, error) {
	doc, err := s.store.FindOne(ctx, docstore.Articles, articleFilter(code, collection))
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", code, err)
	}
	if doc == nil {
		return nil, nil
	}

	a := decodeArticle(doc)
	if replaceJournal {
		journals, err := s.snapshotJournals(ctx, a, collection)
		if err != nil {
			return nil, err
		}
		if len(journals) > 0 {
			a.ReplaceTitle(domain.Metadata(encodeJournal(journals[0])))
		}
	}
	return a, nil
}

// GetArticles yields every article with code (within collection when given)
// in store order. The sequence is lazy and single-pass; it stops after the
// first error. With replaceJournal the snapshot is replaced only when exactly
// one live journal matches.
func (s *Service) GetArticles(ctx context.Context, code string, collection *string, replaceJournal bool) iter.Seq2[*domain.Article, error] {
	return func(yield func(*domain.Article, error) bool) {
		cur, err := s.store.Find(ctx, docstore.Articles, articleFilter(code, collection), docstore.FindOptions{})
		if err != nil {
			yield(nil, fmt.Errorf("find articles %s: %w", code, err))
			return
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			a := decodeArticle(cur.Document())
			if replaceJournal {
				journals, err := s.snapshotJournals(ctx, a, collection)
				if err != nil {
					yield(nil, err)
					return
				}
				if len(journals) == 1 {
					a.ReplaceTitle(domain.Metadata(encodeJournal(journals[0])))
				}
			}
			if !yield(a, nil) {
				return
			}
		}
		if err := cur.Err(); err != nil {
			yield(nil, fmt.Errorf("read articles %s: %w", code, err))
		}
	}
}

// snapshotJournals looks up the live journals matching the ISSN recorded in
// the article's title snapshot. An article without a snapshot ISSN has none.
func (s *Service) snapshotJournals(ctx context.Context, a *domain.Article, collection *string) ([]domain.Journal, error) {
	issn := isis.NewJournal(a.Title()).SnapshotISSN()
	if issn == "" {
		return nil, nil
	}
	return s.GetJournal(ctx, collection, &issn)
}

// ExistsArticle reports whether at least one article matches.
func (s *Service) ExistsArticle(ctx context.Context, code string, collection *string) (bool, error) {
	n, err := s.store.Count(ctx, docstore.Articles, articleFilter(code, collection))
	if err != nil {
		return false, fmt.Errorf("count articles %s: %w", code, err)
	}
	return n >= 1, nil
}

// GetJournal returns every journal in collection whose ISSN list contains
// issn. Nil arguments are not filtered on.
func (s *Service) GetJournal(ctx context.Context, collection, issn *string) ([]domain.Journal, error) {
	var f docstore.Filter
	if collection != nil {
		f = f.And(docstore.Eq(fCollection, *collection))
	}
	if issn != nil {
		f = f.And(docstore.Eq(fCode, *issn))
	}

	cur, err := s.store.Find(ctx, docstore.Journals, f, docstore.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("find journals: %w", err)
	}
	docs, err := docstore.All(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("read journals: %w", err)
	}

	out := make([]domain.Journal, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeJournal(d))
	}
	return out, nil
}

// IdentifiersCollection lists every collection.
func (s *Service) IdentifiersCollection(ctx context.Context) ([]domain.Collection, error) {
	cur, err := s.store.Find(ctx, docstore.Collections, nil, docstore.FindOptions{})
	if err != nil {
		return nil, fmt.Errorf("find collections: %w", err)
	}
	docs, err := docstore.All(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("read collections: %w", err)
	}

	out := make([]domain.Collection, 0, len(docs))
	for _, d := range docs {
		out = append(out, decodeCollection(d))
	}
	return out, nil
}

// GetCollection returns the collection with code, or nil.
func (s *Service) GetCollection(ctx context.Context, code string) (*domain.Collection, error) {
	doc, err := s.store.FindOne(ctx, docstore.Collections, docstore.Filter{docstore.Eq("code", code)})
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", code, err)
	}
	if doc == nil {
		return nil, nil
	}
	c := decodeCollection(doc)
	return &c, nil
}
