package app

import (
	"context"
	"fmt"

	"github.com/scieloorg/articlemeta/internal/docstore"
)

// historyIndex is the key the history listings filter and sort on.
var historyIndex = []string{"date", "collection", "code"}

// EnsureIndexes creates the indexes the broker relies on. It is idempotent.
func EnsureIndexes(ctx context.Context, store docstore.Store) error {
	for _, collection := range []string{docstore.HistoryArticle, docstore.HistoryJournal} {
		if err := store.EnsureIndex(ctx, collection, historyIndex...); err != nil {
			return fmt.Errorf("ensure index on %s: %w", collection, err)
		}
	}
	return nil
}
