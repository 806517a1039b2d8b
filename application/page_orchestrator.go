package application

import (
	"context"
	"fmt"
	"time"

	"medianav/domain/contracts"
	"medianav/domain/events"
	"medianav/domain/paging"
	"medianav/infrastructure/cache"
	"medianav/logging"
	"medianav/platform/observable"
	platformevents "medianav/platform/events"
)

// PageOrchestrator owns the item cache of one paged view. It serves pages from
// the cache when they are complete, loads them from the source otherwise,
// emits the resulting window to subscribers and evicts distant entries.
//
// At most one FetchPage body runs at a time. The lock is held for the whole
// load + store + emit + evict sequence, so no caller ever observes a torn
// cache or window.
type PageOrchestrator[T any] struct {
	source   contracts.Source[T]
	store    contracts.ItemStore[T]
	settings paging.Settings
	bus      *platformevents.PagingEventBus[T]
	logger   *logging.Logger

	// publisher is the bus unless a test swaps it
	publisher events.PagingEventPublisher[T]

	// fetchLock is a one-slot semaphore instead of a sync.Mutex so waiting
	// callers can give up through their context.
	fetchLock chan struct{}

	currentPage *observable.Value[int]
	totalPages  *observable.Value[int]
	totalCount  *observable.Value[int]
}

// NewPageOrchestrator creates an orchestrator over source. A nil store gets a
// ProximityStore sized from settings.
func NewPageOrchestrator[T any](source contracts.Source[T], store contracts.ItemStore[T], settings paging.Settings) (*PageOrchestrator[T], error) {
	if source == nil {
		return nil, fmt.Errorf("page orchestrator: source cannot be nil")
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("page orchestrator: %w", err)
	}
	if store == nil {
		store = cache.NewProximityStore[T](settings.MaxCacheSize, settings.KeepWindow)
	}

	bus := platformevents.NewPagingEventBus[T]()
	return &PageOrchestrator[T]{
		source:      source,
		store:       store,
		settings:    settings,
		bus:         bus,
		publisher:   bus,
		logger:      logging.Default().WithComponent("page_orchestrator"),
		fetchLock:   make(chan struct{}, 1),
		currentPage: observable.NewValue(0),
		totalPages:  observable.NewValue(0),
		totalCount:  observable.NewValue(0),
	}, nil
}

// FetchPage makes page available and emits its window.
//
// Source failures are not returned: they are published to OnFetchFailed and
// the window is still emitted from whatever the cache holds. The only errors
// returned are ErrInvalidPage and the caller's own cancellation, in which case
// nothing is emitted.
func (o *PageOrchestrator[T]) FetchPage(ctx context.Context, page int) error {
	if page < 0 {
		return fmt.Errorf("fetch page %d: %w", page, paging.ErrInvalidPage)
	}

	select {
	case o.fetchLock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-o.fetchLock }()

	if err := ctx.Err(); err != nil {
		return err
	}

	started := time.Now()
	startIndex := paging.StartIndex(page, o.settings.PageSize)
	fromCache := o.pageCached(startIndex)

	if !fromCache {
		result, err := o.source.Load(ctx, startIndex)
		switch {
		case err != nil && ctx.Err() != nil:
			o.logger.Paging("Fetch abandoned by caller", "page", page, "error", err)
			return ctx.Err()
		case err != nil:
			o.reportFailure(page, startIndex, err)
		default:
			o.storeResult(page, startIndex, result)
		}
	}

	window := o.buildWindow(startIndex)
	o.publisher.PublishPageWindow(events.PageWindowEvent[T]{
		Page:      page,
		Window:    window,
		FromCache: fromCache,
		Timestamp: time.Now(),
	})

	if removed := o.store.Evict(startIndex); removed > 0 {
		o.logger.Cache("Evicted distant entries", "anchor", startIndex, "removed", removed, "remaining", o.store.Len())
	}

	o.logger.Paging("Page fetched",
		"page", page,
		"items", len(window.Items),
		"from_cache", fromCache,
		"duration_ms", time.Since(started).Milliseconds())
	return nil
}

// SetCurrentPage records the page the consumer is looking at. No I/O.
func (o *PageOrchestrator[T]) SetCurrentPage(page int) {
	observable.SetIfChanged(o.currentPage, page)
}

// pageCached reports whether every index of the page starting at startIndex is cached.
func (o *PageOrchestrator[T]) pageCached(startIndex int) bool {
	for i := startIndex; i < startIndex+o.settings.PageSize; i++ {
		if !o.store.Has(i) {
			return false
		}
	}
	return true
}

func (o *PageOrchestrator[T]) storeResult(page, startIndex int, result paging.Result[T]) {
	end := startIndex + o.settings.PageSize
	for _, item := range result.Items {
		if item.Index < startIndex || item.Index >= end {
			o.logger.Warn("Source returned item outside requested page",
				"page", page,
				"index", item.Index,
				"start_index", startIndex)
			continue
		}
		o.store.Put(item.Index, item.Value)
	}

	total := max(result.TotalCount, 0)
	o.totalCount.Set(total)
	o.totalPages.Set(paging.TotalPages(total, o.settings.PageSize))
}

func (o *PageOrchestrator[T]) reportFailure(page, startIndex int, err error) {
	srcErr := &paging.SourceError{Page: page, StartIndex: startIndex, Err: err}
	o.logger.Warn("Source load failed", "page", page, "start_index", startIndex, "error", err)
	o.publisher.PublishFetchFailed(events.PageFetchFailedEvent{
		Page:       page,
		StartIndex: startIndex,
		Err:        srcErr,
		Timestamp:  time.Now(),
	})
}

func (o *PageOrchestrator[T]) buildWindow(startIndex int) paging.Window[T] {
	items := make([]paging.Item[T], 0, o.settings.PageSize)
	for i := startIndex; i < startIndex+o.settings.PageSize; i++ {
		if v, ok := o.store.Get(i); ok {
			items = append(items, paging.NewItem(v, i))
		}
	}
	return paging.Window[T]{Items: items, StartIndex: startIndex}
}

// OnPageWindow subscribes to emitted windows. Handlers run synchronously on
// the fetching goroutine, in fetch order, while the fetch lock is held; they
// must not call FetchPage.
func (o *PageOrchestrator[T]) OnPageWindow(handler func(events.PageWindowEvent[T])) func() {
	return o.bus.OnPageWindow(handler)
}

// OnFetchFailed subscribes to source failures.
func (o *PageOrchestrator[T]) OnFetchFailed(handler func(events.PageFetchFailedEvent)) func() {
	return o.bus.OnFetchFailed(handler)
}

// CurrentPage is the consumer-reported viewing page.
func (o *PageOrchestrator[T]) CurrentPage() *observable.Value[int] {
	return o.currentPage
}

// TotalPages is ceil(totalCount / pageSize) as of the last successful load.
func (o *PageOrchestrator[T]) TotalPages() *observable.Value[int] {
	return o.totalPages
}

// TotalCount is the collection size as of the last successful load.
func (o *PageOrchestrator[T]) TotalCount() *observable.Value[int] {
	return o.totalCount
}

// PageSize returns the configured page size.
func (o *PageOrchestrator[T]) PageSize() int {
	return o.settings.PageSize
}

// CacheSize returns the number of cached items.
func (o *PageOrchestrator[T]) CacheSize() int {
	return o.store.Len()
}

// Close releases observable subscriptions.
func (o *PageOrchestrator[T]) Close() {
	o.currentPage.Close()
	o.totalPages.Close()
	o.totalCount.Close()
}
