package sources

import (
	"context"
	"fmt"

	"medianav/domain/contracts"
	"medianav/domain/paging"
	"medianav/logging"
)

// FetchFunc loads one page from a remote API that numbers pages from 1.
type FetchFunc[R any] func(ctx context.Context, page, pageSize int) (R, error)

// TransformFunc converts a remote response into a paging result whose items
// start at startIndex.
type TransformFunc[R, T any] func(response R, startIndex int) (paging.Result[T], error)

// RemoteSource adapts a 1-based page API to the index-based Source contract.
type RemoteSource[R, T any] struct {
	pageSize  int
	fetch     FetchFunc[R]
	transform TransformFunc[R, T]
	logger    *logging.Logger
}

// NewRemoteSource creates an adapter that maps startIndex to page
// startIndex/pageSize + 1 and hands the response to transform.
func NewRemoteSource[R, T any](pageSize int, fetch FetchFunc[R], transform TransformFunc[R, T]) *RemoteSource[R, T] {
	return &RemoteSource[R, T]{
		pageSize:  pageSize,
		fetch:     fetch,
		transform: transform,
		logger:    logging.Default().WithComponent("remote_source"),
	}
}

func (s *RemoteSource[R, T]) Load(ctx context.Context, startIndex int) (paging.Result[T], error) {
	page := startIndex/s.pageSize + 1

	response, err := s.fetch(ctx, page, s.pageSize)
	if err != nil {
		return paging.Result[T]{}, fmt.Errorf("fetch remote page %d: %w", page, err)
	}

	result, err := s.transform(response, startIndex)
	if err != nil {
		return paging.Result[T]{}, fmt.Errorf("transform remote page %d: %w", page, err)
	}

	s.logger.Source("Remote page loaded", "page", page, "start_index", startIndex, "items", len(result.Items), "total", result.TotalCount)
	return result, nil
}

// PageResponse is the JSON shape of the /api/media page API.
type PageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// IndexResponse is the TransformFunc for PageResponse: items are numbered
// consecutively from startIndex and anything beyond one page is dropped.
func IndexResponse[T any](pageSize int) TransformFunc[PageResponse[T], T] {
	return func(response PageResponse[T], startIndex int) (paging.Result[T], error) {
		if response.Total < 0 {
			return paging.Result[T]{}, fmt.Errorf("negative total %d", response.Total)
		}
		n := min(len(response.Items), pageSize)
		items := make([]paging.Item[T], n)
		for i := range n {
			items[i] = paging.NewItem(response.Items[i], startIndex+i)
		}
		return paging.Result[T]{Items: items, TotalCount: response.Total}, nil
	}
}

var _ contracts.Source[string] = (*RemoteSource[PageResponse[string], string])(nil)
