package mocks

import (
	"github.com/stretchr/testify/mock"

	"medianav/domain/events"
)

// MockPagingEventPublisher is a mock implementation of PagingEventPublisher for testing
type MockPagingEventPublisher[T any] struct {
	mock.Mock
}

func (m *MockPagingEventPublisher[T]) PublishPageWindow(event events.PageWindowEvent[T]) {
	m.Called(event)
}

func (m *MockPagingEventPublisher[T]) PublishFetchFailed(event events.PageFetchFailedEvent) {
	m.Called(event)
}
