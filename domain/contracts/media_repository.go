package contracts

import (
	"context"

	"medianav/domain/media"
)

// MediaRepository defines catalog storage operations. Items are ordered by
// position, so ListRange(offset, limit) is a page of the catalog.
type MediaRepository interface {
	// Count returns the number of catalog entries.
	Count(ctx context.Context) (int, error)

	// ListRange returns up to limit entries starting at offset.
	ListRange(ctx context.Context, offset, limit int) ([]media.Item, error)

	// SaveBatch inserts or replaces entries keyed by position.
	SaveBatch(ctx context.Context, items []media.Item) error

	// DeleteAll empties the catalog.
	DeleteAll(ctx context.Context) error
}
