package events

import (
	"sync"

	"medianav/domain/events"
	"medianav/logging"
)

type handlerEntry[E any] struct {
	id uint64
	fn func(E)
}

// PagingEventBus provides type-safe publishing and subscription for one
// orchestrator's page windows and fetch failures.
//
// Page windows are delivered synchronously and in publish order: the window
// controller merges them into its accumulated list and relies on seeing them
// in fetch order. Fetch failures are fanned out asynchronously.
type PagingEventBus[T any] struct {
	mu     sync.RWMutex
	logger *logging.Logger
	nextID uint64

	pageWindowHandlers  []handlerEntry[events.PageWindowEvent[T]]
	fetchFailedHandlers []handlerEntry[events.PageFetchFailedEvent]
}

// NewPagingEventBus creates a new typed paging event bus
func NewPagingEventBus[T any]() *PagingEventBus[T] {
	return &PagingEventBus[T]{
		logger: logging.Default().WithComponent("paging_event_bus"),
	}
}

// Subscribe methods for each event type. Each returns an unsubscribe function.

func (bus *PagingEventBus[T]) OnPageWindow(handler func(events.PageWindowEvent[T])) func() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	id := bus.nextID
	bus.nextID++
	bus.pageWindowHandlers = append(bus.pageWindowHandlers, handlerEntry[events.PageWindowEvent[T]]{id: id, fn: handler})
	return func() {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		bus.pageWindowHandlers = removeHandler(bus.pageWindowHandlers, id)
	}
}

func (bus *PagingEventBus[T]) OnFetchFailed(handler func(events.PageFetchFailedEvent)) func() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	id := bus.nextID
	bus.nextID++
	bus.fetchFailedHandlers = append(bus.fetchFailedHandlers, handlerEntry[events.PageFetchFailedEvent]{id: id, fn: handler})
	return func() {
		bus.mu.Lock()
		defer bus.mu.Unlock()
		bus.fetchFailedHandlers = removeHandler(bus.fetchFailedHandlers, id)
	}
}

// Publish methods for each event type

func (bus *PagingEventBus[T]) PublishPageWindow(event events.PageWindowEvent[T]) {
	bus.mu.RLock()
	handlers := make([]handlerEntry[events.PageWindowEvent[T]], len(bus.pageWindowHandlers))
	copy(handlers, bus.pageWindowHandlers)
	bus.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.logger.Error("Event handler panicked in PageWindow",
						"page", event.Page,
						"start_index", event.Window.StartIndex,
						"panic", r)
				}
			}()
			h.fn(event)
		}()
	}
}

func (bus *PagingEventBus[T]) PublishFetchFailed(event events.PageFetchFailedEvent) {
	bus.mu.RLock()
	handlers := make([]handlerEntry[events.PageFetchFailedEvent], len(bus.fetchFailedHandlers))
	copy(handlers, bus.fetchFailedHandlers)
	bus.mu.RUnlock()

	// Execute handlers asynchronously to avoid blocking the fetch path
	for _, h := range handlers {
		go func(fn func(events.PageFetchFailedEvent)) {
			defer func() {
				if r := recover(); r != nil {
					bus.logger.Error("Event handler panicked in FetchFailed",
						"page", event.Page,
						"error", event.Err,
						"panic", r)
				}
			}()
			fn(event)
		}(h.fn)
	}
}

func removeHandler[E any](handlers []handlerEntry[E], id uint64) []handlerEntry[E] {
	out := handlers[:0:0]
	for _, h := range handlers {
		if h.id != id {
			out = append(out, h)
		}
	}
	return out
}

var _ events.PagingEventPublisher[int] = (*PagingEventBus[int])(nil)
