// Package mongo implements docstore.Store on MongoDB, the store the
// articlemeta database was originally kept in. Logical collections map to
// Mongo collections of the same name.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/scieloorg/articlemeta/internal/config"
	"github.com/scieloorg/articlemeta/internal/docstore"
)

// DefaultDatabase is used when the DSN names no database.
const DefaultDatabase = "articlemeta"

const idField = "_id"

// Store is a docstore.Store over a mongo client.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

var _ docstore.Store = (*Store)(nil)

// Open connects to the server named by cfg.DSN and pings it.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*Store, error) {
	name, err := databaseName(cfg.DSN)
	if err != nil {
		return nil, err
	}

	opts := options.Client().
		ApplyURI(cfg.DSN).
		SetMaxPoolSize(uint64(max(cfg.MaxConns, 1))).
		SetMinPoolSize(uint64(max(cfg.MinConns, 0)))
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}
	if cfg.MaxConnIdleTime > 0 {
		opts.SetMaxConnIdleTime(cfg.MaxConnIdleTime)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx := ctx
	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return New(client, name, log), nil
}

// New wraps an already connected client. Close disconnects it.
func New(client *mongo.Client, database string, log *slog.Logger) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
		log:    log.With("store", "mongo", "database", database),
	}
}

func databaseName(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mongo DSN: %w", err)
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name, nil
	}
	return DefaultDatabase, nil
}

func (s *Store) collection(name string, filter docstore.Filter) (*mongo.Collection, error) {
	if err := docstore.CheckCollection(name); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.db.Collection(name), nil
}

func (s *Store) Find(ctx context.Context, collection string, filter docstore.Filter, opts docstore.FindOptions) (docstore.Cursor, error) {
	coll, err := s.collection(collection, filter)
	if err != nil {
		return nil, err
	}
	fo, err := findOptions(opts)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, toBSON(filter.Document()), fo)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", collection, err)
	}
	return &cursor{cur: cur, collection: collection}, nil
}

func (s *Store) Count(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	coll, err := s.collection(collection, filter)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, toBSON(filter.Document()))
	if err != nil {
		return 0, fmt.Errorf("%s: count: %w", collection, err)
	}
	return n, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, filter docstore.Filter, projection ...string) (docstore.Document, error) {
	coll, err := s.collection(collection, filter)
	if err != nil {
		return nil, err
	}

	opts := options.FindOne().SetSort(bson.D{{Key: idField, Value: 1}})
	if p := projectionDoc(projection); p != nil {
		opts.SetProjection(p)
	}

	var raw bson.M
	err = coll.FindOne(ctx, toBSON(filter.Document()), opts).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: find one: %w", collection, err)
	}
	return fromBSON(raw), nil
}

func (s *Store) Update(ctx context.Context, collection string, filter docstore.Filter, patch docstore.Document, upsert bool) error {
	coll, err := s.collection(collection, filter)
	if err != nil {
		return err
	}

	if len(patch) == 0 {
		// $set rejects an empty document.
		if !upsert {
			return nil
		}
		n, err := s.Count(ctx, collection, filter)
		if err != nil || n > 0 {
			return err
		}
		_, err = s.Insert(ctx, collection, filter.Equalities())
		return err
	}

	update := bson.D{{Key: "$set", Value: toBSON(docstore.Clone(patch))}}
	if _, err := coll.UpdateOne(ctx, toBSON(filter.Document()), update, options.Update().SetUpsert(upsert)); err != nil {
		return fmt.Errorf("%s: update: %w", collection, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, collection string, filter docstore.Filter) (int64, error) {
	coll, err := s.collection(collection, filter)
	if err != nil {
		return 0, err
	}
	res, err := coll.DeleteMany(ctx, toBSON(filter.Document()))
	if err != nil {
		return 0, fmt.Errorf("%s: delete: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	coll, err := s.collection(collection, nil)
	if err != nil {
		return "", err
	}
	res, err := coll.InsertOne(ctx, toBSON(docstore.Clone(doc)))
	if err != nil {
		return "", fmt.Errorf("%s: insert: %w", collection, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

func (s *Store) EnsureIndex(ctx context.Context, collection string, fields ...string) error {
	coll, err := s.collection(collection, nil)
	if err != nil {
		return err
	}
	keys, err := indexKeys(fields)
	if err != nil {
		return err
	}

	name, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys})
	if err != nil {
		return fmt.Errorf("%s: create index: %w", collection, err)
	}
	s.log.InfoContext(ctx, "index ensured", slog.String("collection", collection), slog.String("index", name))
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func findOptions(opts docstore.FindOptions) (*options.FindOptions, error) {
	fo := options.Find()
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	if opts.Sort != "" {
		if !docstore.ValidField(opts.Sort) {
			return nil, fmt.Errorf("invalid sort field %q", opts.Sort)
		}
		fo.SetSort(bson.D{{Key: opts.Sort, Value: 1}, {Key: idField, Value: 1}})
	} else {
		fo.SetSort(bson.D{{Key: idField, Value: 1}})
	}
	if p := projectionDoc(opts.Projection); p != nil {
		fo.SetProjection(p)
	}
	return fo, nil
}

func projectionDoc(fields []string) bson.D {
	if len(fields) == 0 {
		return nil
	}
	out := bson.D{{Key: idField, Value: 0}}
	for _, f := range fields {
		out = append(out, bson.E{Key: f, Value: 1})
	}
	return out
}

func indexKeys(fields []string) (bson.D, error) {
	if len(fields) == 0 {
		return nil, errors.New("index: no fields")
	}
	keys := make(bson.D, 0, len(fields))
	for _, f := range fields {
		if !docstore.ValidField(f) {
			return nil, fmt.Errorf("invalid index field %q", f)
		}
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	return keys, nil
}
