// Package paging holds the value types shared by the page orchestrator, the
// window controller and every source adapter.
package paging

// Item is one value tagged with its absolute index in the logical collection.
type Item[T any] struct {
	Value T
	Index int
}

// NewItem builds an Item.
func NewItem[T any](value T, index int) Item[T] {
	return Item[T]{Value: value, Index: index}
}

// Result is the successful outcome of a single source call. TotalCount is the
// authoritative size of the whole collection as of that call.
type Result[T any] struct {
	Items      []Item[T]
	TotalCount int
}

// Window is the snapshot of one page emitted by the orchestrator: the cached
// items of the page (present indices only) and the page's start index.
type Window[T any] struct {
	Items      []Item[T]
	StartIndex int
}

// Slot is one position of the controller's accumulated list. Present is false
// for placeholders that are inside the loaded page range but not resolved.
type Slot[T any] struct {
	Value   T
	Present bool
}

// PageOf returns the zero-based page that contains index.
func PageOf(index, pageSize int) int {
	if pageSize <= 0 || index < 0 {
		return 0
	}
	return index / pageSize
}

// StartIndex returns the first absolute index of page.
func StartIndex(page, pageSize int) int {
	return page * pageSize
}

// TotalPages returns ceil(totalCount / pageSize), 0 for an empty collection.
func TotalPages(totalCount, pageSize int) int {
	if totalCount <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalCount + pageSize - 1) / pageSize
}
