package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medianav/domain/events"
	"medianav/domain/paging"
)

func createTestWindow(page, pageSize int) events.PageWindowEvent[string] {
	start := page * pageSize
	items := make([]paging.Item[string], 0, pageSize)
	for i := start; i < start+pageSize; i++ {
		items = append(items, paging.NewItem("v", i))
	}
	return events.PageWindowEvent[string]{
		Page:      page,
		Window:    paging.Window[string]{Items: items, StartIndex: start},
		Timestamp: time.Now(),
	}
}

func TestPagingEventBus_PublishPageWindow_Synchronous(t *testing.T) {
	// Arrange
	bus := NewPagingEventBus[string]()
	var received []events.PageWindowEvent[string]
	bus.OnPageWindow(func(event events.PageWindowEvent[string]) {
		received = append(received, event)
	})

	// Act
	bus.PublishPageWindow(createTestWindow(0, 5))
	bus.PublishPageWindow(createTestWindow(3, 5))

	// Assert: handlers have run by the time Publish returns.
	require.Len(t, received, 2)
	assert.Equal(t, 0, received[0].Page)
	assert.Equal(t, 3, received[1].Page)
	assert.Equal(t, 15, received[1].Window.StartIndex)
	assert.Len(t, received[1].Window.Items, 5)
}

func TestPagingEventBus_PublishPageWindow_HandlerOrder(t *testing.T) {
	bus := NewPagingEventBus[string]()
	var order []string
	bus.OnPageWindow(func(events.PageWindowEvent[string]) { order = append(order, "first") })
	bus.OnPageWindow(func(events.PageWindowEvent[string]) { order = append(order, "second") })

	bus.PublishPageWindow(createTestWindow(1, 2))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPagingEventBus_PublishPageWindow_PanicRecovery(t *testing.T) {
	// Arrange
	bus := NewPagingEventBus[string]()
	called := false
	bus.OnPageWindow(func(events.PageWindowEvent[string]) { panic("test panic") })
	bus.OnPageWindow(func(events.PageWindowEvent[string]) { called = true })

	// Act
	assert.NotPanics(t, func() { bus.PublishPageWindow(createTestWindow(0, 1)) })

	// Assert
	assert.True(t, called, "handlers after a panicking one still run")
}

func TestPagingEventBus_Unsubscribe(t *testing.T) {
	bus := NewPagingEventBus[string]()
	calls := 0
	unsubscribe := bus.OnPageWindow(func(events.PageWindowEvent[string]) { calls++ })

	bus.PublishPageWindow(createTestWindow(0, 1))
	unsubscribe()
	unsubscribe()
	bus.PublishPageWindow(createTestWindow(1, 1))

	assert.Equal(t, 1, calls)
}

func TestPagingEventBus_PublishFetchFailed_Async(t *testing.T) {
	// Arrange
	bus := NewPagingEventBus[string]()
	release := make(chan struct{})
	done := make(chan events.PageFetchFailedEvent, 1)
	bus.OnFetchFailed(func(event events.PageFetchFailedEvent) {
		<-release
		done <- event
	})

	// Act: a blocked handler must not block the publisher.
	boom := errors.New("boom")
	published := make(chan struct{})
	go func() {
		bus.PublishFetchFailed(events.PageFetchFailedEvent{Page: 2, StartIndex: 40, Err: boom, Timestamp: time.Now()})
		close(published)
	}()

	select {
	case <-published:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("PublishFetchFailed blocked on its handler")
	}
	close(release)

	// Assert
	select {
	case event := <-done:
		assert.Equal(t, 2, event.Page)
		assert.Equal(t, 40, event.StartIndex)
		assert.ErrorIs(t, event.Err, boom)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Handler was not called within timeout")
	}
}

func TestPagingEventBus_ConcurrentSubscribeAndPublish(t *testing.T) {
	bus := NewPagingEventBus[string]()
	var mu sync.Mutex
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			bus.OnPageWindow(func(events.PageWindowEvent[string]) {
				mu.Lock()
				count++
				mu.Unlock()
			})
		}()
		go func(page int) {
			defer wg.Done()
			bus.PublishPageWindow(createTestWindow(page, 1))
		}(i)
	}
	wg.Wait()

	bus.PublishPageWindow(createTestWindow(99, 1))
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, count, 10)
}
