// Package sources provides contracts.Source implementations: an in-memory
// list, a generic remote page API adapter and the concrete remotes built on
// it (HTTP JSON, SQLite catalog, SharePoint list).
package sources

import (
	"context"
	"fmt"

	"medianav/domain/contracts"
	"medianav/domain/paging"
)

// ListSource serves a fixed in-memory slice.
type ListSource[T any] struct {
	items    []T
	pageSize int
	total    int
}

// NewListSource creates a source over items. The slice must not be modified afterwards.
func NewListSource[T any](items []T, pageSize int) *ListSource[T] {
	return &ListSource[T]{items: items, pageSize: pageSize, total: len(items)}
}

func (s *ListSource[T]) Load(ctx context.Context, startIndex int) (paging.Result[T], error) {
	if err := ctx.Err(); err != nil {
		return paging.Result[T]{}, err
	}
	if startIndex < 0 {
		return paging.Result[T]{}, fmt.Errorf("list source start index %d: %w", startIndex, paging.ErrInvalidPage)
	}

	end := min(startIndex+s.pageSize, s.total)
	items := make([]paging.Item[T], 0, max(end-startIndex, 0))
	for i := startIndex; i < end; i++ {
		items = append(items, paging.NewItem(s.items[i], i))
	}
	return paging.Result[T]{Items: items, TotalCount: s.total}, nil
}

var _ contracts.Source[string] = (*ListSource[string])(nil)
