// Package docstore defines the document storage contract the broker runs on:
// named logical collections of schemaless documents with filtered find,
// count, skip/limit/sort, upsert-by-filter and remove.
//
// Backends live under internal/adapter (postgres, mongo, memory).
package docstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Logical collection names.
const (
	Articles       = "articles"
	Journals       = "journals"
	Collections    = "collections"
	HistoryArticle = "historychanges_article"
	HistoryJournal = "historychanges_journal"
)

// ErrUnknownCollection is returned for a collection name outside Known().
var ErrUnknownCollection = errors.New("unknown collection")

var known = []string{Articles, Journals, Collections, HistoryArticle, HistoryJournal}

// Known returns every logical collection a store serves.
func Known() []string {
	return slices.Clone(known)
}

// CheckCollection returns ErrUnknownCollection if name is not served.
func CheckCollection(name string) error {
	if !slices.Contains(known, name) {
		return fmt.Errorf("collection %q: %w", name, ErrUnknownCollection)
	}
	return nil
}

// Document is a schemaless record. Nested documents are Document values,
// arrays are []any.
type Document map[string]any

// FindOptions shapes the result of Find.
type FindOptions struct {
	// Projection keeps only the listed top-level fields. Empty keeps all.
	Projection []string
	Skip       int64
	// Limit caps the number of documents. Zero means no limit.
	Limit int64
	// Sort orders ascending by this field. Empty means store order.
	Sort string
}

// Cursor is a lazy, single-pass sequence of documents.
type Cursor interface {
	Next(ctx context.Context) bool
	Document() Document
	Err() error
	Close(ctx context.Context) error
}

// Store is implemented by every storage backend. Implementations must be safe
// for concurrent use.
type Store interface {
	Find(ctx context.Context, collection string, filter Filter, opts FindOptions) (Cursor, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
	// FindOne returns the first match, or nil when nothing matches.
	FindOne(ctx context.Context, collection string, filter Filter, projection ...string) (Document, error)
	// Update merges patch's top-level fields into the first document matching
	// filter. With upsert and no match it inserts filter.Equalities() + patch.
	Update(ctx context.Context, collection string, filter Filter, patch Document, upsert bool) error
	// Remove deletes every match and returns how many were removed.
	Remove(ctx context.Context, collection string, filter Filter) (int64, error)
	Insert(ctx context.Context, collection string, doc Document) (string, error)
	// EnsureIndex creates a composite ascending index. Idempotent.
	EnsureIndex(ctx context.Context, collection string, fields ...string) error
	Close(ctx context.Context) error
}

// All drains c into a slice and closes it.
func All(ctx context.Context, c Cursor) ([]Document, error) {
	defer c.Close(ctx)

	var out []Document
	for c.Next(ctx) {
		out = append(out, c.Document())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SliceCursor serves documents from memory. Backends that materialize their
// results use it as their Cursor.
type SliceCursor struct {
	docs []Document
	pos  int
	cur  Document
}

// NewSliceCursor creates a cursor over docs.
func NewSliceCursor(docs []Document) *SliceCursor {
	return &SliceCursor{docs: docs}
}

func (c *SliceCursor) Next(ctx context.Context) bool {
	if ctx.Err() != nil || c.pos >= len(c.docs) {
		c.cur = nil
		return false
	}
	c.cur = c.docs[c.pos]
	c.pos++
	return true
}

func (c *SliceCursor) Document() Document { return c.cur }

func (c *SliceCursor) Err() error { return nil }

func (c *SliceCursor) Close(context.Context) error {
	c.docs = nil
	return nil
}

// Project returns the subset of doc named by fields. An empty field list
// returns doc unchanged.
func Project(doc Document, fields []string) Document {
	if len(fields) == 0 || doc == nil {
		return doc
	}
	out := make(Document, len(fields))
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Clone returns a deep copy of doc with values passed through Normalize.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out, _ := Normalize(doc).(Document)
	return out
}
