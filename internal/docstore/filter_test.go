package docstore

import (
	"reflect"
	"testing"
)

type namedList []*string

func strPtr(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"string", "a", "a"},
		{"nil string pointer", (*string)(nil), nil},
		{"string pointer", strPtr("x"), "x"},
		{"int", 3, float64(3)},
		{"string slice", []string{"a", "b"}, []any{"a", "b"}},
		{"named pointer slice keeps nil", namedList{strPtr("a"), nil}, []any{"a", nil}},
		{"nested map", map[string]any{"a": map[string]any{"b": 1}}, Document{"a": Document{"b": float64(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilter_Match(t *testing.T) {
	t.Parallel()

	doc := Document{
		"code":            "S0001",
		"collection":      "scl",
		"code_title":      []any{"1234-5678", "8765-4321"},
		"processing_date": "2020-05-01",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", nil, true},
		{"scalar eq", Filter{Eq("code", "S0001")}, true},
		{"scalar mismatch", Filter{Eq("code", "S0002")}, false},
		{"array contains", Filter{Eq("code_title", "8765-4321")}, true},
		{"array missing member", Filter{Eq("code_title", "0000-0000")}, false},
		{"array exact", Filter{Eq("code_title", []string{"1234-5678", "8765-4321"})}, true},
		{"array subset is not equal", Filter{Eq("code_title", []string{"1234-5678"})}, false},
		{"nil matches missing", Filter{Eq("doi", nil)}, true},
		{"nil does not match present", Filter{Eq("collection", nil)}, false},
		{"range inside", Filter{Gte("processing_date", "2020-01-01"), Lte("processing_date", "2020-12-31")}, true},
		{"range outside", Filter{Gt("processing_date", "2020-05-01")}, false},
		{"range inclusive upper", Filter{Lte("processing_date", "2020-05-01")}, true},
		{"range on missing field", Filter{Gte("created_at", "1500-01-01")}, false},
		{"conjunction", Filter{Eq("code", "S0001"), Eq("collection", "arg")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.filter.Match(doc); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Document(t *testing.T) {
	t.Parallel()

	f := Filter{
		Gt("date", "1500-01-01T00:00:00"),
		Lte("date", "2020-01-01T00:00:00"),
		Eq("collection", "scl"),
	}

	want := Document{
		"date":       Document{"$gt": "1500-01-01T00:00:00", "$lte": "2020-01-01T00:00:00"},
		"collection": "scl",
	}
	if got := f.Document(); !reflect.DeepEqual(got, want) {
		t.Errorf("Document() = %#v, want %#v", got, want)
	}
}

func TestFilter_Equalities(t *testing.T) {
	t.Parallel()

	f := Filter{Eq("code", "S0001"), Eq("collection", nil), Gte("processing_date", "2020")}

	got := f.Equalities()
	want := Document{"code": "S0001", "collection": nil}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Equalities() = %#v, want %#v", got, want)
	}
}

func TestFilter_Validate(t *testing.T) {
	t.Parallel()

	if err := (Filter{Eq("code", "x")}).Validate(); err != nil {
		t.Errorf("valid filter: unexpected error %v", err)
	}
	if err := (Filter{Eq("code'; drop", "x")}).Validate(); err == nil {
		t.Error("field with quote should be rejected")
	}
	if err := (Filter{{Field: "code", Op: "$regex", Value: "x"}}).Validate(); err == nil {
		t.Error("unsupported operator should be rejected")
	}
}

func TestCheckCollection(t *testing.T) {
	t.Parallel()

	for _, name := range Known() {
		if err := CheckCollection(name); err != nil {
			t.Errorf("CheckCollection(%q): unexpected error %v", name, err)
		}
	}
	if err := CheckCollection("users"); err == nil {
		t.Error("CheckCollection(users) should fail")
	}
}

func TestProject(t *testing.T) {
	t.Parallel()

	doc := Document{"code": "a", "collection": "b", "title": Document{}}
	got := Project(doc, []string{"code", "collection", "missing"})
	want := Document{"code": "a", "collection": "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Project = %#v, want %#v", got, want)
	}
}
