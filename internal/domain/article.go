package domain

import (
	"maps"
	"reflect"
)

// Metadata is a raw document as received from a caller or read back from a
// store. Keys the broker does not derive are passed through untouched.
type Metadata map[string]any

// Clone returns a shallow copy of m. A nil m yields an empty map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	maps.Copy(out, m)
	return out
}

// Section returns the nested document stored under key, or nil when the key
// is absent or does not hold a document.
func (m Metadata) Section(key string) Metadata {
	sec, _ := AsMetadata(m[key])
	return sec
}

var metadataType = reflect.TypeFor[Metadata]()

// AsMetadata reports whether v is a document, of any map type with string
// keys and any values, and returns it as Metadata.
func AsMetadata(v any) (Metadata, bool) {
	switch x := v.(type) {
	case Metadata:
		return x, true
	case map[string]any:
		return Metadata(x), true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().ConvertibleTo(metadataType) {
		return rv.Convert(metadataType).Interface().(Metadata), true
	}
	return nil, false
}

// ISSNList is an ordered, deduplicated list of ISSNs. A nil entry stands for
// an ISSN lookup that found nothing; it is kept rather than dropped.
type ISSNList []*string

// Values returns the non-nil ISSNs in order.
func (l ISSNList) Values() []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Contains reports whether issn is one of the non-nil entries.
func (l ISSNList) Contains(issn string) bool {
	for _, v := range l {
		if v != nil && *v == issn {
			return true
		}
	}
	return false
}

// Article is a normalized article record, unique by (Code, Collection).
type Article struct {
	Code            string
	CodeIssue       string
	CodeTitle       ISSNList
	Collection      string
	DocumentType    string
	PublicationYear string
	ProcessingDate  *string
	CreatedAt       *string
	DOI             *string
	ShardID         string

	ValidatedSciELO Flag
	ValidatedWoS    Flag
	SentWoS         Flag
	SentDOAJ        Flag
	Applicable      Flag

	// Metadata holds the source sections (article, title, citations, ...).
	Metadata Metadata
}

// Title returns the journal snapshot embedded in the article.
func (a *Article) Title() Metadata {
	return a.Metadata.Section("title")
}

// ReplaceTitle substitutes the embedded journal snapshot with journal.
func (a *Article) ReplaceTitle(journal Metadata) {
	if a.Metadata == nil {
		a.Metadata = Metadata{}
	}
	a.Metadata["title"] = journal
}

// ArticleIdentifier is the minimal projection returned by identifier listings.
type ArticleIdentifier struct {
	Code           string
	Collection     string
	ProcessingDate *string
}
