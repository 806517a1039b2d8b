package helpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"medianav/domain/media"
	"medianav/domain/paging"
	"medianav/test/mocks"
)

// FakeSource serves a fixed slice in pages and records every call. A gated
// source blocks each Load until Release is called.
type FakeSource[T any] struct {
	mu       sync.Mutex
	items    []T
	pageSize int
	calls    []int
	failures map[int]error
	gated    bool

	// IgnoreContext makes a gated Load wait for Release even after the
	// caller's context ends.
	IgnoreContext bool

	release chan struct{}
	entered chan int
}

// NewFakeSource creates a source over items.
func NewFakeSource[T any](items []T, pageSize int) *FakeSource[T] {
	return &FakeSource[T]{
		items:    items,
		pageSize: pageSize,
		failures: make(map[int]error),
		release:  make(chan struct{}, 100),
		entered:  make(chan int, 100),
	}
}

// Gate makes every later Load block until Release.
func (s *FakeSource[T]) Gate() *FakeSource[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gated = true
	return s
}

// Release lets one blocked Load proceed.
func (s *FakeSource[T]) Release() {
	s.release <- struct{}{}
}

// FailAt makes Load(startIndex) fail with err.
func (s *FakeSource[T]) FailAt(startIndex int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[startIndex] = err
}

// Calls returns the start indices of every Load, in call order.
func (s *FakeSource[T]) Calls() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.calls...)
}

// CallCount returns the number of Load calls.
func (s *FakeSource[T]) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// WaitEntered waits until a Load for startIndex has started.
func (s *FakeSource[T]) WaitEntered(t *testing.T, startIndex int) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case got := <-s.entered:
			if got == startIndex {
				return
			}
		case <-timeout:
			t.Fatalf("load for start index %d never started (calls: %v)", startIndex, s.Calls())
		}
	}
}

func (s *FakeSource[T]) Load(ctx context.Context, startIndex int) (paging.Result[T], error) {
	s.mu.Lock()
	s.calls = append(s.calls, startIndex)
	gated := s.gated
	ignore := s.IgnoreContext
	failure := s.failures[startIndex]
	s.mu.Unlock()

	select {
	case s.entered <- startIndex:
	default:
	}

	if gated {
		if ignore {
			<-s.release
		} else {
			select {
			case <-s.release:
			case <-ctx.Done():
				return paging.Result[T]{}, ctx.Err()
			}
		}
	}

	if failure != nil {
		return paging.Result[T]{}, failure
	}

	end := min(startIndex+s.pageSize, len(s.items))
	items := make([]paging.Item[T], 0, max(end-startIndex, 0))
	for i := startIndex; i < end; i++ {
		items = append(items, paging.NewItem(s.items[i], i))
	}
	return paging.Result[T]{Items: items, TotalCount: len(s.items)}, nil
}

// Strings returns "item-0" .. "item-(n-1)".
func Strings(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("item-%d", i)
	}
	return out
}

// MockRepositories holds repository mocks for easy injection
type MockRepositories struct {
	Media *mocks.MockMediaRepository
}

// NewMockRepositories creates a new set of repository mocks
func NewMockRepositories() *MockRepositories {
	return &MockRepositories{
		Media: &mocks.MockMediaRepository{},
	}
}

// ExpectCatalog sets up Count and ListRange expectations over catalog.
func (m *MockRepositories) ExpectCatalog(catalog []media.Item) {
	m.Media.On("Count", mock.Anything).Return(len(catalog), nil)
	m.Media.On("ListRange", mock.Anything, mock.AnythingOfType("int"), mock.AnythingOfType("int")).
		Return(func(_ context.Context, offset, limit int) []media.Item {
			end := min(offset+limit, len(catalog))
			if offset >= end {
				return []media.Item{}
			}
			return catalog[offset:end]
		}, nil)
}

// AssertAllExpectations asserts all mock expectations were met
func (m *MockRepositories) AssertAllExpectations(t mock.TestingT) {
	m.Media.AssertExpectations(t)
}
