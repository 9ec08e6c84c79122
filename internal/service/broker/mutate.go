package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
	"github.com/scieloorg/articlemeta/pkg/ctxutil"
)

// AddArticle normalizes raw, upserts it by (code, collection) and records an
// add event. created_at is set from processing_date.
//
// Invalid metadata returns a nil record and a *domain.ValidationError
// (errors.Is ErrValidation); nothing is written and no event is recorded.
// The upsert and the history append are separate writes: if the append
// fails the upserted record stays and the error is returned.
func (s *Service) AddArticle(ctx context.Context, raw domain.Metadata) (*domain.Article, error) {
	return s.putArticle(ctx, raw, domain.EventAdd)
}

// UpdateArticle is AddArticle without touching created_at, recording an
// update event.
func (s *Service) UpdateArticle(ctx context.Context, raw domain.Metadata) (*domain.Article, error) {
	return s.putArticle(ctx, raw, domain.EventUpdate)
}

func (s *Service) putArticle(ctx context.Context, raw domain.Metadata, event domain.Event) (*domain.Article, error) {
	a, err := s.norm.NormalizeArticle(raw)
	if err != nil {
		return nil, err
	}
	if event == domain.EventAdd && a.ProcessingDate != nil {
		a.CreatedAt = domain.Ptr(*a.ProcessingDate)
	}

	key := articleKey(a.Code, &a.Collection)
	if err := s.store.Update(ctx, docstore.Articles, key, encodeArticle(a), true); err != nil {
		return nil, fmt.Errorf("upsert article %s/%s: %w", a.Collection, a.Code, err)
	}

	if err := s.record(ctx, domain.KindArticle, &a.Code, &a.Collection, event); err != nil {
		return nil, err
	}
	return &a, nil
}

// AddJournal normalizes raw, upserts it by (code, collection) and records an
// add event. Invalid metadata returns a nil record and a
// *domain.ValidationError without writing anything.
func (s *Service) AddJournal(ctx context.Context, raw domain.Metadata) (*domain.Journal, error) {
	return s.putJournal(ctx, raw, domain.EventAdd)
}

// UpdateJournal is AddJournal recording an update event.
func (s *Service) UpdateJournal(ctx context.Context, raw domain.Metadata) (*domain.Journal, error) {
	return s.putJournal(ctx, raw, domain.EventUpdate)
}

func (s *Service) putJournal(ctx context.Context, raw domain.Metadata, event domain.Event) (*domain.Journal, error) {
	j, err := s.norm.NormalizeJournal(raw)
	if err != nil {
		return nil, err
	}

	key := docstore.Filter{
		docstore.Eq(fCode, j.Code),
		docstore.Eq(fCollection, j.Collection),
	}
	if err := s.store.Update(ctx, docstore.Journals, key, encodeJournal(j), true); err != nil {
		return nil, fmt.Errorf("upsert journal %s/%v: %w", j.Collection, j.Code.Values(), err)
	}

	var code *string
	if len(j.Code) > 0 {
		code = j.Code[0]
	}
	if err := s.record(ctx, domain.KindJournal, code, &j.Collection, event); err != nil {
		return nil, err
	}
	return &j, nil
}

// DeleteArticle removes every article matching (code, collection) and
// records a delete event whether or not anything matched. A nil collection
// matches records without one. It returns the filter used.
func (s *Service) DeleteArticle(ctx context.Context, code string, collection *string) (docstore.Filter, error) {
	key := articleKey(code, collection)
	removed, err := s.store.Remove(ctx, docstore.Articles, key)
	if err != nil {
		return nil, fmt.Errorf("remove article %s: %w", code, err)
	}
	s.log.DebugContext(ctx, "articles removed", slog.String("code", code), slog.Int64("removed", removed))

	if err := s.record(ctx, domain.KindArticle, &code, collection, domain.EventDelete); err != nil {
		return key, err
	}
	return key, nil
}

// DeleteJournal removes every journal whose ISSN list contains issn within
// collection and records a delete event whether or not anything matched.
func (s *Service) DeleteJournal(ctx context.Context, issn string, collection *string) (docstore.Filter, error) {
	key := docstore.Filter{
		docstore.Eq(fCode, issn),
		docstore.Eq(fCollection, collection),
	}
	removed, err := s.store.Remove(ctx, docstore.Journals, key)
	if err != nil {
		return nil, fmt.Errorf("remove journal %s: %w", issn, err)
	}
	s.log.DebugContext(ctx, "journals removed", slog.String("issn", issn), slog.Int64("removed", removed))

	if err := s.record(ctx, domain.KindJournal, &issn, collection, domain.EventDelete); err != nil {
		return key, err
	}
	return key, nil
}

// SetDOAJStatus sets sent_doaj on the first article with code, in any
// collection. It records no history.
func (s *Service) SetDOAJStatus(ctx context.Context, code string, status bool) error {
	patch := docstore.Document{fSentDOAJ: domain.FlagOf(status).String()}
	key := docstore.Filter{docstore.Eq(fCode, code)}
	if err := s.store.Update(ctx, docstore.Articles, key, patch, false); err != nil {
		return fmt.Errorf("set doaj status %s: %w", code, err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, kind domain.Kind, code, collection *string, event domain.Event) error {
	if _, err := s.history.Record(ctx, kind, code, collection, event, time.Time{}); err != nil {
		return fmt.Errorf("record %s %s: %w", kind, event, err)
	}
	attrs := []any{
		slog.String("kind", kind.String()),
		slog.Any("code", deref(code)),
		slog.Any("collection", deref(collection)),
		slog.String("event", event.String()),
	}
	if id, ok := ctxutil.RunIDFromCtx(ctx); ok {
		attrs = append(attrs, slog.String("run_id", id.String()))
	}
	s.log.InfoContext(ctx, "record changed", attrs...)
	return nil
}

func articleKey(code string, collection *string) docstore.Filter {
	return docstore.Filter{
		docstore.Eq(fCode, code),
		docstore.Eq(fCollection, collection),
	}
}

func deref(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
