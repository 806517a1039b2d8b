package events

// PagingEventPublisher defines the interface for publishing page orchestration events.
type PagingEventPublisher[T any] interface {
	PublishPageWindow(event PageWindowEvent[T])
	PublishFetchFailed(event PageFetchFailedEvent)
}
