package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"medianav/domain/events"
	"medianav/domain/paging"
)

// MockSSEBroadcaster for testing NotificationEventHandlers
type MockSSEBroadcaster struct {
	mock.Mock
}

func (m *MockSSEBroadcaster) BroadcastWindowUpdate(sessionID string) {
	m.Called(sessionID)
}

func (m *MockSSEBroadcaster) BroadcastFetchError(sessionID string, page int, message string) {
	m.Called(sessionID, page, message)
}

// fakeSession captures the handlers a registration installs
type fakeSession struct {
	failed   func(events.PageFetchFailedEvent)
	changed  func()
	removals int
}

func (s *fakeSession) OnFetchFailed(handler func(events.PageFetchFailedEvent)) func() {
	s.failed = handler
	return func() { s.removals++ }
}

func (s *fakeSession) OnWindowChanged(handler func()) func() {
	s.changed = handler
	return func() { s.removals++ }
}

func TestNotificationEventHandlers_WindowChanged(t *testing.T) {
	// Arrange
	mockSSE := &MockSSEBroadcaster{}
	mockSSE.On("BroadcastWindowUpdate", "session-1").Return().Twice()
	handlers := NewNotificationEventHandlers(mockSSE)
	session := &fakeSession{}

	// Act
	handlers.RegisterSession("session-1", session)
	session.changed()
	session.changed()

	// Assert
	mockSSE.AssertExpectations(t)
}

func TestNotificationEventHandlers_FetchFailedUnwrapsSourceError(t *testing.T) {
	// Arrange
	mockSSE := &MockSSEBroadcaster{}
	mockSSE.On("BroadcastFetchError", "session-2", 3, "connection refused").Return().Once()
	handlers := NewNotificationEventHandlers(mockSSE)
	session := &fakeSession{}
	handlers.RegisterSession("session-2", session)

	// Act
	session.failed(events.PageFetchFailedEvent{
		Page: 3,
		Err:  &paging.SourceError{Page: 3, StartIndex: 60, Err: errors.New("connection refused")},
	})

	// Assert
	mockSSE.AssertExpectations(t)
}

func TestNotificationEventHandlers_FetchFailedPlainError(t *testing.T) {
	mockSSE := &MockSSEBroadcaster{}
	mockSSE.On("BroadcastFetchError", "s", 0, "boom").Return().Once()
	handlers := NewNotificationEventHandlers(mockSSE)
	session := &fakeSession{}
	handlers.RegisterSession("s", session)

	session.failed(events.PageFetchFailedEvent{Page: 0, Err: errors.New("boom")})

	mockSSE.AssertExpectations(t)
}

func TestNotificationEventHandlers_Unregister(t *testing.T) {
	handlers := NewNotificationEventHandlers(&MockSSEBroadcaster{})
	session := &fakeSession{}

	unregister := handlers.RegisterSession("s", session)
	unregister()

	assert.Equal(t, 2, session.removals)
}
