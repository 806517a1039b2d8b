package contracts

import (
	"context"

	"medianav/domain/paging"
)

// Source loads one page worth of items starting at an absolute index.
// Implementations may return fewer items than a page near the end of the
// collection but must never return indices outside
// [startIndex, startIndex+pageSize). Timeouts and retries are the source's
// business; the engine treats an error as final for that attempt.
type Source[T any] interface {
	Load(ctx context.Context, startIndex int) (paging.Result[T], error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc[T any] func(ctx context.Context, startIndex int) (paging.Result[T], error)

// Load implements Source.
func (f SourceFunc[T]) Load(ctx context.Context, startIndex int) (paging.Result[T], error) {
	return f(ctx, startIndex)
}
