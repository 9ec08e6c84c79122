package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/scieloorg/articlemeta/internal/docstore"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var sqlOps = map[docstore.Op]string{
	docstore.OpGt:  ">",
	docstore.OpGte: ">=",
	docstore.OpLt:  "<",
	docstore.OpLte: "<=",
}

func table(collection string) string {
	return pgx.Identifier{collection}.Sanitize()
}

// field and text address a top-level document field as jsonb and as text.
// Names are checked with docstore.ValidField before they reach SQL.
func field(name string) string { return "doc->'" + name + "'" }
func text(name string) string  { return "doc->>'" + name + "'" }

func jsonArg(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode %T: %w", v, err)
	}
	return string(b), nil
}

// condition renders c with document-store semantics: a scalar equality also
// matches an array holding the value, a null equality matches a missing field
// and range comparisons only match values of the same JSON type.
func condition(c docstore.Cond) (squirrel.Sqlizer, error) {
	if !docstore.ValidField(c.Field) {
		return nil, fmt.Errorf("invalid filter field %q", c.Field)
	}

	if c.Op == docstore.OpEq {
		switch v := c.Value.(type) {
		case nil:
			return squirrel.Expr(fmt.Sprintf("(%s IS NULL OR %s = 'null'::jsonb)", field(c.Field), field(c.Field))), nil
		case []any, docstore.Document:
			arg, err := jsonArg(v)
			if err != nil {
				return nil, err
			}
			return squirrel.Expr(field(c.Field)+" = ?::jsonb", arg), nil
		default:
			arg, err := jsonArg(v)
			if err != nil {
				return nil, err
			}
			return squirrel.Expr(field(c.Field)+" @> ?::jsonb", arg), nil
		}
	}

	op, ok := sqlOps[c.Op]
	if !ok {
		return nil, fmt.Errorf("invalid filter operator %q on %s", c.Op, c.Field)
	}
	switch v := c.Value.(type) {
	case string:
		return squirrel.Expr(fmt.Sprintf(`(jsonb_typeof(%s) = 'string' AND (%s) COLLATE "C" %s ?)`, field(c.Field), text(c.Field), op), v), nil
	case float64:
		return squirrel.Expr(fmt.Sprintf(`(jsonb_typeof(%s) = 'number' AND (%s)::numeric %s ?)`, field(c.Field), text(c.Field), op), v), nil
	}
	return nil, fmt.Errorf("range on %s: unsupported value %T", c.Field, c.Value)
}

func where(filter docstore.Filter) (squirrel.And, error) {
	out := make(squirrel.And, 0, len(filter))
	for _, c := range filter {
		cond, err := condition(c)
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
	}
	return out, nil
}

func selectQuery(collection string, filter docstore.Filter, opts docstore.FindOptions) (string, []any, error) {
	w, err := where(filter)
	if err != nil {
		return "", nil, err
	}

	q := psql.Select("doc").From(table(collection))
	if len(w) > 0 {
		q = q.Where(w)
	}

	if opts.Sort != "" {
		if !docstore.ValidField(opts.Sort) {
			return "", nil, fmt.Errorf("invalid sort field %q", opts.Sort)
		}
		q = q.OrderBy("("+text(opts.Sort)+`) COLLATE "C" NULLS FIRST`, "seq")
	} else {
		q = q.OrderBy("seq")
	}

	if opts.Skip > 0 {
		q = q.Offset(uint64(opts.Skip))
	}
	if opts.Limit > 0 {
		q = q.Limit(uint64(opts.Limit))
	}

	return q.ToSql()
}

func countQuery(collection string, filter docstore.Filter) (string, []any, error) {
	w, err := where(filter)
	if err != nil {
		return "", nil, err
	}

	q := psql.Select("count(*)").From(table(collection))
	if len(w) > 0 {
		q = q.Where(w)
	}
	return q.ToSql()
}

func lockFirstQuery(collection string, filter docstore.Filter) (string, []any, error) {
	w, err := where(filter)
	if err != nil {
		return "", nil, err
	}

	q := psql.Select("id::text").From(table(collection)).OrderBy("seq").Limit(1).Suffix("FOR UPDATE")
	if len(w) > 0 {
		q = q.Where(w)
	}
	return q.ToSql()
}

func mergeQuery(collection, id string, patch docstore.Document) (string, []any, error) {
	arg, err := jsonArg(patch)
	if err != nil {
		return "", nil, err
	}
	return psql.Update(table(collection)).
		Set("doc", squirrel.Expr("doc || ?::jsonb", arg)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
}

func insertQuery(collection string, doc docstore.Document) (string, []any, error) {
	arg, err := jsonArg(doc)
	if err != nil {
		return "", nil, err
	}
	return psql.Insert(table(collection)).
		Columns("doc").
		Values(squirrel.Expr("?::jsonb", arg)).
		Suffix("RETURNING id::text").
		ToSql()
}

func deleteQuery(collection string, filter docstore.Filter) (string, []any, error) {
	w, err := where(filter)
	if err != nil {
		return "", nil, err
	}

	q := psql.Delete(table(collection))
	if len(w) > 0 {
		q = q.Where(w)
	}
	return q.ToSql()
}

func indexStatement(collection string, fields []string) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("index on %s: no fields", collection)
	}

	exprs := make([]string, len(fields))
	for i, f := range fields {
		if !docstore.ValidField(f) {
			return "", fmt.Errorf("invalid index field %q", f)
		}
		exprs[i] = fmt.Sprintf(`(%s) COLLATE "C"`, text(f))
	}

	name := pgx.Identifier{collection + "_" + strings.Join(fields, "_") + "_idx"}.Sanitize()
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, table(collection), strings.Join(exprs, ", ")), nil
}
