package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/scieloorg/articlemeta/internal/docstore"
)

// toBSON converts a document value into driver types.
func toBSON(v any) any {
	switch x := v.(type) {
	case docstore.Document:
		out := make(bson.M, len(x))
		for k, e := range x {
			out[k] = toBSON(e)
		}
		return out
	case []any:
		out := make(bson.A, len(x))
		for i, e := range x {
			out[i] = toBSON(e)
		}
		return out
	}
	return v
}

// fromBSON converts a decoded record into a document, dropping _id.
func fromBSON(raw bson.M) docstore.Document {
	doc, _ := fromValue(raw).(docstore.Document)
	if doc != nil {
		delete(doc, idField)
	}
	return doc
}

func fromValue(v any) any {
	switch x := v.(type) {
	case bson.M:
		out := make(docstore.Document, len(x))
		for k, e := range x {
			out[k] = fromValue(e)
		}
		return out
	case bson.D:
		out := make(docstore.Document, len(x))
		for _, e := range x {
			out[e.Key] = fromValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromValue(e)
		}
		return out
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC().Format(time.RFC3339Nano)
	case primitive.Null, primitive.Undefined:
		return nil
	}
	return docstore.Normalize(v)
}

type cursor struct {
	cur        *mongo.Cursor
	collection string
	doc        docstore.Document
	err        error
}

var _ docstore.Cursor = (*cursor)(nil)

func (c *cursor) Next(ctx context.Context) bool {
	c.doc = nil
	if c.err != nil || !c.cur.Next(ctx) {
		return false
	}
	var raw bson.M
	if err := c.cur.Decode(&raw); err != nil {
		c.err = err
		return false
	}
	c.doc = fromBSON(raw)
	return true
}

func (c *cursor) Document() docstore.Document { return c.doc }

func (c *cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.cur.Err()
}

func (c *cursor) Close(ctx context.Context) error {
	return c.cur.Close(ctx)
}
