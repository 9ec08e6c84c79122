package document

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/scieloorg/articlemeta/internal/adapter/postgres"
	"github.com/scieloorg/articlemeta/internal/docstore"
)

// cursor streams rows of a single-column doc query.
type cursor struct {
	rows       pgx.Rows
	collection string
	projection []string
	cur        docstore.Document
	err        error
}

var _ docstore.Cursor = (*cursor)(nil)

func (c *cursor) Next(ctx context.Context) bool {
	c.cur = nil
	if c.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		c.err = err
		c.rows.Close()
		return false
	}
	if !c.rows.Next() {
		return false
	}

	var raw map[string]any
	if err := c.rows.Scan(&raw); err != nil {
		c.err = err
		c.rows.Close()
		return false
	}
	c.cur = docstore.Project(docstore.Clone(raw), c.projection)
	return true
}

func (c *cursor) Document() docstore.Document { return c.cur }

func (c *cursor) Err() error {
	if c.err != nil {
		return postgres.MapError(c.err, c.collection)
	}
	if err := c.rows.Err(); err != nil {
		return postgres.MapError(err, c.collection)
	}
	return nil
}

func (c *cursor) Close(context.Context) error {
	c.rows.Close()
	return nil
}
