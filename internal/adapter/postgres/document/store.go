// Package document implements docstore.Store on PostgreSQL. Each logical
// collection is a table of jsonb documents created by the embedded
// migrations; filters render to jsonb operators.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scieloorg/articlemeta/internal/adapter/postgres"
	"github.com/scieloorg/articlemeta/internal/docstore"
)

// Store is a docstore.Store over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
	tx   *postgres.TxManager
	log  *slog.Logger
}

var _ docstore.Store = (*Store)(nil)

// New creates a Store. The pool is owned by the Store and closed by Close.
func New(pool *pgxpool.Pool, tx *postgres.TxManager, log *slog.Logger) *Store {
	return &Store{pool: pool, tx: tx, log: log.With("store", "postgres")}
}

func (s *Store) Find(ctx context.Context, collection string, filter docstore.Filter, opts docstore.FindOptions) (docstore.Cursor, error) {
	if err := docstore.CheckCollection(collection); err != nil {
		return nil, err
	}
	sql, args, err := selectQuery(collection, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: build find: %w", collection, err)
	}

	rows, err := postgres.QuerierFromCtx(ctx, s.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, collection)
	}
	return &cursor{rows: rows, collection: collection, projection: opts.Projection}, nil
}

func (s *Store) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	if err := docstore.CheckCollection(collection); err != nil {
		return 0, err
	}
	sql, args, err := countQuery(collection, filter)
	if err != nil {
		return 0, fmt.Errorf("%s: build count: %w", collection, err)
	}

	var n int64
	if err := postgres.QuerierFromCtx(ctx, s.pool).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, collection)
	}
	return n, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter docstore.Filter, projection ...string) (docstore.Document, error) {
	c, err := s.Find(ctx, collection, filter, docstore.FindOptions{Projection: projection, Limit: 1})
	if err != nil {
		return nil, err
	}
	docs, err := docstore.All(ctx, c)
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Update locks the first match and merges patch into it. Two concurrent
// upserts of the same key race on the unique index; the loser retries once
// and then finds the winner's row.
func (s *Store) Update(ctx context.Context, collection string, filter docstore.Filter, patch docstore.Document, upsert bool) error {
	if err := docstore.CheckCollection(collection); err != nil {
		return err
	}
	if err := filter.Validate(); err != nil {
		return err
	}
	patch = docstore.Clone(patch)

	var err error
	for attempt := range 2 {
		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			return s.update(ctx, collection, filter, patch, upsert)
		})
		if err == nil || !postgres.IsUniqueViolation(err) {
			break
		}
		s.log.DebugContext(ctx, "upsert conflict, retrying", slog.String("collection", collection), slog.Int("attempt", attempt))
	}
	return postgres.MapError(err, collection)
}

func (s *Store) update(ctx context.Context, collection string, filter docstore.Filter, patch docstore.Document, upsert bool) error {
	q := postgres.QuerierFromCtx(ctx, s.pool)

	sql, args, err := lockFirstQuery(collection, filter)
	if err != nil {
		return fmt.Errorf("build lookup: %w", err)
	}

	var id string
	err = q.QueryRow(ctx, sql, args...).Scan(&id)
	switch {
	case err == nil:
		sql, args, err = mergeQuery(collection, id, patch)
		if err != nil {
			return fmt.Errorf("build merge: %w", err)
		}
		_, err = q.Exec(ctx, sql, args...)
		return err
	case errors.Is(err, pgx.ErrNoRows):
		if !upsert {
			return nil
		}
		doc := filter.Equalities()
		maps.Copy(doc, patch)
		sql, args, err = insertQuery(collection, doc)
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		_, err = q.Exec(ctx, sql, args...)
		return err
	default:
		return err
	}
}

func (s *Store) Remove(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	if err := docstore.CheckCollection(collection); err != nil {
		return 0, err
	}
	sql, args, err := deleteQuery(collection, filter)
	if err != nil {
		return 0, fmt.Errorf("%s: build delete: %w", collection, err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, s.pool).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, collection)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	if err := docstore.CheckCollection(collection); err != nil {
		return "", err
	}
	sql, args, err := insertQuery(collection, docstore.Clone(doc))
	if err != nil {
		return "", fmt.Errorf("%s: build insert: %w", collection, err)
	}

	var id string
	if err := postgres.QuerierFromCtx(ctx, s.pool).QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		return "", postgres.MapError(err, collection)
	}
	return id, nil
}

func (s *Store) EnsureIndex(ctx context.Context, collection string, fields ...string) error {
	if err := docstore.CheckCollection(collection); err != nil {
		return err
	}
	stmt, err := indexStatement(collection, fields)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return postgres.MapError(err, collection)
	}
	s.log.InfoContext(ctx, "index ensured", slog.String("collection", collection), slog.Any("fields", fields))
	return nil
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}
