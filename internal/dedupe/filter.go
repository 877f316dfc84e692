// Package dedupe filters fetched records that are already persisted. The
// durable store itself is the index; there is no cache layer in between, so
// the answer always reflects committed state.
package dedupe

import (
	"context"
	"fmt"

	"github.com/erictseng47/Stock/internal/models"
)

// Index answers point lookups against the durable store.
type Index interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Filter returns the items whose ids are not yet present in the index, in
// input order. A lookup error aborts the filter: treating an unreadable
// store as "absent" would be safe (upserts are idempotent), but treating it
// as "present" would silently drop data, so errors surface instead.
func Filter(ctx context.Context, idx Index, items []models.NewsItem) ([]models.NewsItem, error) {
	fresh := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		seen, err := idx.Exists(ctx, item.ID)
		if err != nil {
			return nil, fmt.Errorf("dedupe lookup %d: %w", item.ID, err)
		}
		if !seen {
			fresh = append(fresh, item)
		}
	}
	return fresh, nil
}
