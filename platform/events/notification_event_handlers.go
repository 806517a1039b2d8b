package events

import (
	"errors"

	"medianav/domain/events"
	"medianav/domain/paging"
	"medianav/logging"
)

// SSEBroadcaster defines the interface for SSE broadcasting
type SSEBroadcaster interface {
	BroadcastWindowUpdate(sessionID string)
	BroadcastFetchError(sessionID string, page int, message string)
}

// SessionEvents is what a browse session exposes for notifications.
type SessionEvents interface {
	OnFetchFailed(handler func(events.PageFetchFailedEvent)) func()
	OnWindowChanged(handler func()) func()
}

// NotificationEventHandlers turns session events into SSE notifications
type NotificationEventHandlers struct {
	sseBroadcaster SSEBroadcaster
	logger         *logging.Logger
}

// NewNotificationEventHandlers creates event handlers for notifications
func NewNotificationEventHandlers(sseBroadcaster SSEBroadcaster) *NotificationEventHandlers {
	return &NotificationEventHandlers{
		sseBroadcaster: sseBroadcaster,
		logger:         logging.Default().WithComponent("notification_events"),
	}
}

// RegisterSession subscribes to one session's events. The returned function
// removes every subscription.
func (h *NotificationEventHandlers) RegisterSession(sessionID string, session SessionEvents) func() {
	offFailed := session.OnFetchFailed(func(event events.PageFetchFailedEvent) {
		h.handleFetchFailed(sessionID, event)
	})
	offWindow := session.OnWindowChanged(func() {
		h.sseBroadcaster.BroadcastWindowUpdate(sessionID)
	})

	h.logger.Debug("Session notifications registered", "session_id", sessionID)
	return func() {
		offFailed()
		offWindow()
	}
}

func (h *NotificationEventHandlers) handleFetchFailed(sessionID string, event events.PageFetchFailedEvent) {
	message := "failed to load page"
	var srcErr *paging.SourceError
	if errors.As(event.Err, &srcErr) && srcErr.Err != nil {
		message = srcErr.Err.Error()
	} else if event.Err != nil {
		message = event.Err.Error()
	}

	h.logger.Info("Handling page fetch failure", "session_id", sessionID, "page", event.Page, "error", event.Err)
	h.sseBroadcaster.BroadcastFetchError(sessionID, event.Page, message)
}
