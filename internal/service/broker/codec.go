package broker

import (
	"slices"

	"github.com/scieloorg/articlemeta/internal/docstore"
	"github.com/scieloorg/articlemeta/internal/domain"
)

// Stored field names of derived article fields.
const (
	fCode            = "code"
	fCodeIssue       = "code_issue"
	fCodeTitle       = "code_title"
	fCollection      = "collection"
	fDocumentType    = "document_type"
	fPublicationYear = "publication_year"
	fProcessingDate  = "processing_date"
	fCreatedAt       = "created_at"
	fDOI             = "doi"
	fShardID         = "_shard_id"
	fValidatedSciELO = "validated_scielo"
	fValidatedWoS    = "validated_wos"
	fSentWoS         = "sent_wos"
	fSentDOAJ        = "sent_doaj"
	fApplicable      = "applicable"
)

var articleFields = []string{
	fCode, fCodeIssue, fCodeTitle, fCollection, fDocumentType, fPublicationYear,
	fProcessingDate, fCreatedAt, fDOI, fShardID,
	fValidatedSciELO, fValidatedWoS, fSentWoS, fSentDOAJ, fApplicable,
}

// encodeArticle renders a as the $set patch of its upsert: the raw sections
// first, derived fields on top. Unset optional fields are left out so that a
// stored value is not overwritten with null.
func encodeArticle(a domain.Article) docstore.Document {
	doc := docstore.Clone(docstore.Document(a.Metadata))
	if doc == nil {
		doc = docstore.Document{}
	}

	doc[fCode] = a.Code
	doc[fCodeIssue] = a.CodeIssue
	doc[fCodeTitle] = docstore.Normalize(a.CodeTitle)
	doc[fCollection] = a.Collection
	doc[fDocumentType] = a.DocumentType
	doc[fPublicationYear] = a.PublicationYear
	doc[fShardID] = a.ShardID
	doc[fValidatedSciELO] = a.ValidatedSciELO.String()
	doc[fValidatedWoS] = a.ValidatedWoS.String()
	doc[fSentWoS] = a.SentWoS.String()
	doc[fSentDOAJ] = a.SentDOAJ.String()
	doc[fApplicable] = a.Applicable.String()

	setOptional(doc, fProcessingDate, a.ProcessingDate)
	setOptional(doc, fCreatedAt, a.CreatedAt)
	setOptional(doc, fDOI, a.DOI)
	return doc
}

func setOptional(doc docstore.Document, key string, v *string) {
	if v != nil {
		doc[key] = *v
	}
}

func decodeArticle(doc docstore.Document) *domain.Article {
	a := &domain.Article{
		Code:            str(doc, fCode),
		CodeIssue:       str(doc, fCodeIssue),
		CodeTitle:       issns(doc[fCodeTitle]),
		Collection:      str(doc, fCollection),
		DocumentType:    str(doc, fDocumentType),
		PublicationYear: str(doc, fPublicationYear),
		ProcessingDate:  strPtr(doc, fProcessingDate),
		CreatedAt:       strPtr(doc, fCreatedAt),
		DOI:             strPtr(doc, fDOI),
		ShardID:         str(doc, fShardID),
		ValidatedSciELO: flag(doc, fValidatedSciELO),
		ValidatedWoS:    flag(doc, fValidatedWoS),
		SentWoS:         flag(doc, fSentWoS),
		SentDOAJ:        flag(doc, fSentDOAJ),
		Applicable:      flag(doc, fApplicable),
		Metadata:        domain.Metadata{},
	}
	for k, v := range doc {
		if !slices.Contains(articleFields, k) {
			a.Metadata[k] = v
		}
	}
	return a
}

func encodeJournal(j domain.Journal) docstore.Document {
	doc := docstore.Clone(docstore.Document(j.Metadata))
	if doc == nil {
		doc = docstore.Document{}
	}
	doc[fCode] = docstore.Normalize(j.Code)
	doc[fCollection] = j.Collection
	return doc
}

func decodeJournal(doc docstore.Document) domain.Journal {
	j := domain.Journal{
		Code:       issns(doc[fCode]),
		Collection: str(doc, fCollection),
		Metadata:   domain.Metadata{},
	}
	for k, v := range doc {
		if k != fCode && k != fCollection {
			j.Metadata[k] = v
		}
	}
	return j
}

func decodeCollection(doc docstore.Document) domain.Collection {
	return domain.Collection{
		Code:     str(doc, "code"),
		Acronym:  str(doc, "acronym"),
		Name:     str(doc, "name"),
		Metadata: domain.Metadata(doc),
	}
}

func str(doc docstore.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func strPtr(doc docstore.Document, key string) *string {
	if s, ok := doc[key].(string); ok {
		return &s
	}
	return nil
}

func flag(doc docstore.Document, key string) domain.Flag {
	if s, ok := doc[key].(string); ok {
		return domain.Flag(s)
	}
	return domain.FlagFalse
}

// issns reads a stored ISSN list. Non-string entries read as nil; a bare
// string reads as a one-element list.
func issns(v any) domain.ISSNList {
	switch x := v.(type) {
	case string:
		return domain.ISSNList{&x}
	case []any:
		out := make(domain.ISSNList, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, &s)
			} else {
				out = append(out, nil)
			}
		}
		return out
	}
	return nil
}
