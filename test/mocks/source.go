package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"medianav/domain/paging"
)

// MockSource is a mock implementation of contracts.Source for testing
type MockSource[T any] struct {
	mock.Mock
}

func (m *MockSource[T]) Load(ctx context.Context, startIndex int) (paging.Result[T], error) {
	args := m.Called(ctx, startIndex)
	if args.Get(0) == nil {
		return paging.Result[T]{}, args.Error(1)
	}
	return args.Get(0).(paging.Result[T]), args.Error(1)
}
