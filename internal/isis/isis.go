// Package isis reads the fields the broker derives from raw ISIS-JSON
// bibliographic records: tags such as "v880" hold a list of subfield maps
// whose "_" key carries the value.
package isis

import (
	"strings"

	"github.com/scieloorg/articlemeta/internal/domain"
)

// Article is a read-only view over a raw article record. The record keeps
// the article fields under "article", the journal snapshot under "title"
// and the collection acronym at the top level.
type Article struct {
	raw     domain.Metadata
	article domain.Metadata
}

// NewArticle wraps raw. It never fails; missing fields read as empty.
func NewArticle(raw domain.Metadata) *Article {
	return &Article{raw: raw, article: raw.Section("article")}
}

// HasArticle reports whether the record carries an article section.
func (a *Article) HasArticle() bool { return a.article != nil }

// PublisherID is the article's publisher identifier (PID), tag v880.
func (a *Article) PublisherID() string {
	return FirstValue(a.article, "v880")
}

// CollectionAcronym is the collection the record belongs to.
func (a *Article) CollectionAcronym() string {
	s, _ := a.raw["collection"].(string)
	return strings.TrimSpace(s)
}

// DocumentType maps tag v71 to a document type name. Unknown or missing
// codes read as "undefined".
func (a *Article) DocumentType() string {
	return DocumentType(FirstValue(a.article, "v71"))
}

// PublicationDate is tag v65 in ISO form, or "" when absent.
func (a *Article) PublicationDate() string {
	return FormatDate(FirstValue(a.article, "v65"))
}

// ProcessingDate is tag v91 in ISO form. ok is false when the record has
// no processing date.
func (a *Article) ProcessingDate() (date string, ok bool) {
	v := FirstValue(a.article, "v91")
	if v == "" {
		return "", false
	}
	return FormatDate(v), true
}

// DOI is tag v237, or "" when absent.
func (a *Article) DOI() string {
	return FirstValue(a.article, "v237")
}

// Journal returns a view over the embedded journal snapshot. The snapshot
// inherits the article's collection acronym.
func (a *Article) Journal() *Journal {
	return &Journal{raw: a.raw.Section("title"), collection: a.CollectionAcronym()}
}

// Journal is a read-only view over a raw journal (title) record whose ISIS
// tags sit at the top level.
type Journal struct {
	raw        domain.Metadata
	collection string
}

// NewJournal wraps a raw journal record.
func NewJournal(raw domain.Metadata) *Journal {
	s, _ := raw["collection"].(string)
	return &Journal{raw: raw, collection: strings.TrimSpace(s)}
}

// CollectionAcronym is the collection the journal belongs to.
func (j *Journal) CollectionAcronym() string { return j.collection }

// ElectronicISSN returns the online ISSN, or "" when unknown.
func (j *Journal) ElectronicISSN() string { return j.issnByType("ONLIN") }

// PrintISSN returns the print ISSN, or "" when unknown.
func (j *Journal) PrintISSN() string { return j.issnByType("PRINT") }

// AnyISSN returns the ISSN of the preferred variant, falling back to the
// other one. It returns nil when the journal carries neither.
func (j *Journal) AnyISSN(priority domain.ISSNPriority) *string {
	first, second := j.ElectronicISSN(), j.PrintISSN()
	if priority == domain.ISSNPrint {
		first, second = second, first
	}
	switch {
	case first != "":
		return &first
	case second != "":
		return &second
	}
	return nil
}

// SnapshotISSN is the first v400 value, the key used to find the live
// journal record for an article's embedded snapshot.
func (j *Journal) SnapshotISSN() string {
	return FirstValue(j.raw, "v400")
}

// issnByType resolves the ISSN of type t ("PRINT" or "ONLIN"). Typed v435
// entries win. Otherwise v35 names the type of v935 (falling back to v400),
// and a v400 that differs from v935 is taken as the other type.
func (j *Journal) issnByType(t string) string {
	for _, sub := range Subfields(j.raw, "v435") {
		if v, _ := sub["t"].(string); v == t {
			if issn, _ := sub["_"].(string); issn != "" {
				return strings.TrimSpace(issn)
			}
		}
	}

	current := FirstValue(j.raw, "v935")
	issn := FirstValue(j.raw, "v400")
	typed := FirstValue(j.raw, "v35")
	if typed == "" {
		return ""
	}

	if typed == t {
		if current != "" {
			return current
		}
		return issn
	}
	if current != "" && issn != "" && issn != current {
		return issn
	}
	return ""
}

// Subfields returns the subfield maps stored under tag.
func Subfields(section domain.Metadata, tag string) []domain.Metadata {
	list, ok := section[tag].([]any)
	if !ok {
		return nil
	}
	out := make([]domain.Metadata, 0, len(list))
	for _, item := range list {
		if m, ok := domain.AsMetadata(item); ok {
			out = append(out, m)
		}
	}
	return out
}

// FirstValue returns the "_" subfield of the first occurrence of tag,
// trimmed. A tag holding a plain string is returned as is.
func FirstValue(section domain.Metadata, tag string) string {
	if s, ok := section[tag].(string); ok {
		return strings.TrimSpace(s)
	}
	subs := Subfields(section, tag)
	if len(subs) == 0 {
		return ""
	}
	s, _ := subs[0]["_"].(string)
	return strings.TrimSpace(s)
}
