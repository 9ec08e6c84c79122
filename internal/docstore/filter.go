package docstore

import (
	"cmp"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Op is a comparison operator. Values are the Mongo operator names so a
// Filter renders directly into query form.
type Op string

const (
	OpEq  Op = "$eq"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
)

// Cond is a single field condition.
type Cond struct {
	Field string
	Op    Op
	Value any
}

// Eq matches documents whose field equals v. A scalar v also matches an array
// field that contains it; a nil v matches a null or missing field.
func Eq(field string, v any) Cond { return Cond{Field: field, Op: OpEq, Value: Normalize(v)} }

func Gt(field string, v any) Cond  { return Cond{Field: field, Op: OpGt, Value: Normalize(v)} }
func Gte(field string, v any) Cond { return Cond{Field: field, Op: OpGte, Value: Normalize(v)} }
func Lt(field string, v any) Cond  { return Cond{Field: field, Op: OpLt, Value: Normalize(v)} }
func Lte(field string, v any) Cond { return Cond{Field: field, Op: OpLte, Value: Normalize(v)} }

// Filter is a conjunction of conditions. The zero value matches everything.
type Filter []Cond

// And returns a new filter with conds appended.
func (f Filter) And(conds ...Cond) Filter {
	out := make(Filter, 0, len(f)+len(conds))
	out = append(out, f...)
	return append(out, conds...)
}

var fieldRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidField reports whether name can be used as a document field in
// filters, projections, sorts and indexes.
func ValidField(name string) bool {
	return fieldRe.MatchString(name)
}

// Validate checks field names and operators.
func (f Filter) Validate() error {
	for _, c := range f {
		if !ValidField(c.Field) {
			return fmt.Errorf("invalid filter field %q", c.Field)
		}
		switch c.Op {
		case OpEq, OpGt, OpGte, OpLt, OpLte:
		default:
			return fmt.Errorf("invalid filter operator %q on %s", c.Op, c.Field)
		}
	}
	return nil
}

// Equalities returns the fields pinned by Eq conditions. An upsert seeds the
// new document with them.
func (f Filter) Equalities() Document {
	out := Document{}
	for _, c := range f {
		if c.Op == OpEq {
			out[c.Field] = c.Value
		}
	}
	return out
}

// Document renders f in Mongo query form, e.g.
// {"date": {"$gt": "a", "$lte": "b"}, "collection": "scl"}.
func (f Filter) Document() Document {
	out := Document{}
	for _, c := range f {
		if c.Op == OpEq {
			if ops, ok := out[c.Field].(Document); ok {
				ops[string(OpEq)] = c.Value
				continue
			}
			out[c.Field] = c.Value
			continue
		}
		ops, ok := out[c.Field].(Document)
		if !ok {
			ops = Document{}
			if prev, had := out[c.Field]; had {
				ops[string(OpEq)] = prev
			}
			out[c.Field] = ops
		}
		ops[string(c.Op)] = c.Value
	}
	return out
}

// Match evaluates f against doc with document-store semantics.
func (f Filter) Match(doc Document) bool {
	for _, c := range f {
		if !c.match(doc) {
			return false
		}
	}
	return true
}

func (c Cond) match(doc Document) bool {
	v, present := doc[c.Field]
	v = Normalize(v)

	if c.Op == OpEq {
		return equals(v, present, c.Value)
	}

	if arr, ok := v.([]any); ok {
		for _, e := range arr {
			if compares(e, c.Op, c.Value) {
				return true
			}
		}
		return false
	}
	return compares(v, c.Op, c.Value)
}

func equals(v any, present bool, want any) bool {
	if want == nil {
		return !present || v == nil
	}
	if reflect.DeepEqual(v, want) {
		return true
	}
	if _, ok := want.([]any); ok {
		return false
	}
	if arr, ok := v.([]any); ok {
		for _, e := range arr {
			if reflect.DeepEqual(e, want) {
				return true
			}
		}
	}
	return false
}

func compares(v any, op Op, want any) bool {
	var c int
	switch a := v.(type) {
	case string:
		b, ok := want.(string)
		if !ok {
			return false
		}
		c = strings.Compare(a, b)
	case float64:
		b, ok := want.(float64)
		if !ok {
			return false
		}
		c = cmp.Compare(a, b)
	default:
		return false
	}

	switch op {
	case OpGt:
		return c > 0
	case OpGte:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLte:
		return c <= 0
	}
	return false
}

// Normalize converts v into the plain value space used by documents:
// string, bool, float64, nil, []any and Document. Pointers are dereferenced,
// named slice and map types are unwrapped, integers become float64.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, bool, float64:
		return x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case Document:
		out := make(Document, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case map[string]any:
		out := make(Document, len(x))
		for k, e := range x {
			out[k] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Normalize(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(Document, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Normalize(iter.Value().Interface())
		}
		return out
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}
