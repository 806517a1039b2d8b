package sources

import (
	"context"
	"fmt"

	"medianav/domain/contracts"
	"medianav/domain/media"
)

// NewRepositorySource pages the stored catalog: one COUNT plus one
// LIMIT/OFFSET range per page.
func NewRepositorySource(repo contracts.MediaRepository, pageSize int) *RemoteSource[PageResponse[media.Item], media.Item] {
	fetch := func(ctx context.Context, page, size int) (PageResponse[media.Item], error) {
		total, err := repo.Count(ctx)
		if err != nil {
			return PageResponse[media.Item]{}, fmt.Errorf("count catalog: %w", err)
		}
		items, err := repo.ListRange(ctx, (page-1)*size, size)
		if err != nil {
			return PageResponse[media.Item]{}, fmt.Errorf("list catalog: %w", err)
		}
		return PageResponse[media.Item]{Items: items, Total: total}, nil
	}
	return NewRemoteSource(pageSize, fetch, IndexResponse[media.Item](pageSize))
}
