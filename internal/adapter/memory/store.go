// Package memory implements docstore.Store in process memory. It backs the
// memory:// DSN and the broker's unit tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/scieloorg/articlemeta/internal/docstore"
)

type record struct {
	id  string
	doc docstore.Document
}

// Store keeps documents per logical collection in insertion order.
type Store struct {
	mu      sync.RWMutex
	data    map[string][]record
	indexes map[string][]string
}

var _ docstore.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		data:    make(map[string][]record),
		indexes: make(map[string][]string),
	}
}

func check(collection string, filter docstore.Filter) error {
	if err := docstore.CheckCollection(collection); err != nil {
		return err
	}
	return filter.Validate()
}

// Find returns a snapshot of the matches taken at call time.
func (s *Store) Find(ctx context.Context, collection string, filter docstore.Filter, opts docstore.FindOptions) (docstore.Cursor, error) {
	if err := check(collection, filter); err != nil {
		return nil, err
	}
	if opts.Sort != "" && !docstore.ValidField(opts.Sort) {
		return nil, fmt.Errorf("invalid sort field %q", opts.Sort)
	}

	s.mu.RLock()
	var docs []docstore.Document
	for _, r := range s.data[collection] {
		if filter.Match(r.doc) {
			docs = append(docs, docstore.Clone(r.doc))
		}
	}
	s.mu.RUnlock()

	if opts.Sort != "" {
		slices.SortStableFunc(docs, func(a, b docstore.Document) int {
			return compareValues(a[opts.Sort], b[opts.Sort])
		})
	}

	skip := min(max(opts.Skip, 0), int64(len(docs)))
	docs = docs[skip:]
	if opts.Limit > 0 && opts.Limit < int64(len(docs)) {
		docs = docs[:opts.Limit]
	}

	for i, d := range docs {
		docs[i] = docstore.Project(d, opts.Projection)
	}

	return docstore.NewSliceCursor(docs), nil
}

func (s *Store) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	if err := check(collection, filter); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.data[collection] {
		if filter.Match(r.doc) {
			n++
		}
	}
	return n, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter docstore.Filter, projection ...string) (docstore.Document, error) {
	if err := check(collection, filter); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.data[collection] {
		if filter.Match(r.doc) {
			return docstore.Project(docstore.Clone(r.doc), projection), nil
		}
	}
	return nil, nil
}

func (s *Store) Update(ctx context.Context, collection string, filter docstore.Filter, patch docstore.Document, upsert bool) error {
	if err := check(collection, filter); err != nil {
		return err
	}
	patch = docstore.Clone(patch)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.data[collection] {
		if filter.Match(r.doc) {
			maps.Copy(r.doc, patch)
			return nil
		}
	}

	if !upsert {
		return nil
	}

	doc := filter.Equalities()
	maps.Copy(doc, patch)
	s.data[collection] = append(s.data[collection], record{id: uuid.NewString(), doc: doc})
	return nil
}

func (s *Store) Remove(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	if err := check(collection, filter); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.data[collection])
	s.data[collection] = slices.DeleteFunc(s.data[collection], func(r record) bool {
		return filter.Match(r.doc)
	})
	return int64(before - len(s.data[collection])), nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	if err := docstore.CheckCollection(collection); err != nil {
		return "", err
	}

	id := uuid.NewString()

	s.mu.Lock()
	s.data[collection] = append(s.data[collection], record{id: id, doc: docstore.Clone(doc)})
	s.mu.Unlock()

	return id, nil
}

func (s *Store) EnsureIndex(ctx context.Context, collection string, fields ...string) error {
	if err := docstore.CheckCollection(collection); err != nil {
		return err
	}
	for _, f := range fields {
		if !docstore.ValidField(f) {
			return fmt.Errorf("invalid index field %q", f)
		}
	}

	name := collection + ":" + strings.Join(fields, ",")

	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.indexes[collection], name) {
		s.indexes[collection] = append(s.indexes[collection], name)
	}
	return nil
}

// Indexes returns the indexes ensured on collection, as "collection:f1,f2".
func (s *Store) Indexes(collection string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.indexes[collection])
}

func (s *Store) Close(context.Context) error { return nil }

// compareValues orders missing and null values first, then numbers, then
// strings. Other types compare equal.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case float64:
		return cmp.Compare(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case float64:
		return 1
	case string:
		return 2
	}
	return 3
}
