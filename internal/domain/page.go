package domain

// PageMeta describes how a page of results was produced. Total is the match
// count of Filter taken separately from the page fetch, so it may drift from
// the page contents under concurrent writes.
type PageMeta struct {
	Limit  int
	Offset int
	Filter map[string]any
	Total  int64
}

// Page is a single page of a listing.
type Page[T any] struct {
	Meta    PageMeta
	Objects []T
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// ClampPage applies the listing contract: a negative offset reads as 0 and a
// negative limit reads as def. A zero limit is passed through and means no
// limit to the store.
func ClampPage(limit, offset, def int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = def
	}
	return limit, offset
}
