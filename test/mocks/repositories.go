package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"medianav/domain/media"
)

// MockMediaRepository is a mock implementation of MediaRepository for testing
type MockMediaRepository struct {
	mock.Mock
}

func (m *MockMediaRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockMediaRepository) ListRange(ctx context.Context, offset, limit int) ([]media.Item, error) {
	args := m.Called(ctx, offset, limit)
	if fn, ok := args.Get(0).(func(context.Context, int, int) []media.Item); ok {
		return fn(ctx, offset, limit), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]media.Item), args.Error(1)
}

func (m *MockMediaRepository) SaveBatch(ctx context.Context, items []media.Item) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockMediaRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
