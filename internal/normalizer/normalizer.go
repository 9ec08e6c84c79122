// Package normalizer derives the system fields of article and journal
// records from raw ISIS-JSON metadata before they are persisted.
package normalizer

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scieloorg/articlemeta/internal/domain"
	"github.com/scieloorg/articlemeta/internal/isis"
)

// Normalizer is stateless apart from its clock and shard id source, and is
// safe for concurrent use.
type Normalizer struct {
	now     func() time.Time
	shardID func() string
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithShardIDs replaces the random shard id generator.
func WithShardIDs(gen func() string) Option {
	return func(n *Normalizer) { n.shardID = gen }
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:     time.Now,
		shardID: NewShardID,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NewShardID returns a random 128-bit value as 32 hex characters.
func NewShardID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// NormalizeArticle derives an Article from raw. The raw sections are kept in
// Article.Metadata. A record without publisher id, collection or publication
// date yields a *domain.ValidationError.
func (n *Normalizer) NormalizeArticle(raw domain.Metadata) (domain.Article, error) {
	view := isis.NewArticle(raw)

	pid := view.PublisherID()
	collection := view.CollectionAcronym()
	published := view.PublicationDate()

	var errs []domain.FieldError
	if pid == "" {
		errs = append(errs, domain.FieldError{Field: "article.v880", Message: "publisher id is required"})
	}
	if collection == "" {
		errs = append(errs, domain.FieldError{Field: "collection", Message: "collection acronym is required"})
	}
	if published == "" {
		errs = append(errs, domain.FieldError{Field: "article.v65", Message: "publication date is required"})
	}
	if len(errs) > 0 {
		return domain.Article{}, domain.NewValidationErrors(errs)
	}

	journal := view.Journal()
	a := domain.Article{
		Code:            pid,
		CodeIssue:       slice(pid, 1, 18),
		CodeTitle:       dedup(journal.AnyISSN(domain.ISSNElectronic), journal.AnyISSN(domain.ISSNPrint)),
		Collection:      collection,
		DocumentType:    view.DocumentType(),
		PublicationYear: slice(published, 0, 4),
		ShardID:         n.shardID(),
		ValidatedSciELO: domain.FlagFalse,
		ValidatedWoS:    domain.FlagFalse,
		SentWoS:         domain.FlagFalse,
		SentDOAJ:        domain.FlagFalse,
		Applicable:      domain.FlagFalse,
		Metadata:        raw.Clone(),
	}

	if doi := view.DOI(); doi != "" {
		a.DOI = &doi
	}

	if pd, ok := view.ProcessingDate(); ok {
		a.ProcessingDate = &pd
	} else if today := n.now().Format(domain.DateLayout); published > today {
		a.ProcessingDate = &today
	}

	return a, nil
}

// NormalizeJournal derives a Journal from raw. Empty metadata or a missing
// collection acronym yields a *domain.ValidationError.
func (n *Normalizer) NormalizeJournal(raw domain.Metadata) (domain.Journal, error) {
	if len(raw) == 0 {
		return domain.Journal{}, domain.NewValidationError("metadata", "journal metadata is empty")
	}

	view := isis.NewJournal(raw)
	if view.CollectionAcronym() == "" {
		return domain.Journal{}, domain.NewValidationError("collection", "collection acronym is required")
	}

	return domain.Journal{
		Code:       dedup(view.AnyISSN(domain.ISSNElectronic), view.AnyISSN(domain.ISSNPrint)),
		Collection: view.CollectionAcronym(),
		Metadata:   raw.Clone(),
	}, nil
}

// dedup keeps the first occurrence of each ISSN, nil included.
func dedup(issns ...*string) domain.ISSNList {
	out := make(domain.ISSNList, 0, len(issns))
	for _, v := range issns {
		seen := false
		for _, o := range out {
			if (o == nil && v == nil) || (o != nil && v != nil && *o == *v) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, v)
		}
	}
	return out
}

// slice returns s[from:to] clamped to the length of s.
func slice(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	return s[from:min(to, len(s))]
}
