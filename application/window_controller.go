package application

import (
	"context"
	"errors"
	"slices"
	"sync"

	"medianav/domain/events"
	"medianav/domain/paging"
	"medianav/logging"
	"medianav/platform/observable"
)

// PageFetcher is the part of PageOrchestrator a WindowController drives.
type PageFetcher[T any] interface {
	FetchPage(ctx context.Context, page int) error
	SetCurrentPage(page int)
	OnPageWindow(handler func(events.PageWindowEvent[T])) func()
	CurrentPage() *observable.Value[int]
	TotalPages() *observable.Value[int]
	PageSize() int
}

// WindowSnapshot is a consistent copy of a controller's state.
type WindowSnapshot[T any] struct {
	Items       []paging.Slot[T]
	BaseIndex   int
	LoadedPages []int
	CurrentPage int
	TotalPages  int
	Loading     bool
	Jumping     bool
}

// WindowController accumulates the windows emitted by a PageFetcher into one
// contiguous, sparse list of slots covering the loaded page range. It decides
// when to prefetch the next page, tracks which page is on screen and runs
// cancellable jumps to arbitrary pages.
//
// Only windows for pages this controller requested in the current generation
// are merged. A jump bumps the generation, so windows that arrive for an older
// request are dropped.
type WindowController[T any] struct {
	pages    PageFetcher[T]
	pageSize int
	logger   *logging.Logger

	mu          sync.Mutex
	slots       []paging.Slot[T]
	loadedPages map[int]struct{}
	requested   map[int]struct{}
	minPage     int
	maxPage     int
	loading     bool
	jumping     bool
	jumpTarget  int
	jumpCtx     context.Context
	cancelJump  context.CancelCauseFunc
	generation  uint64

	loadedItems *observable.Value[[]paging.Slot[T]]
	isLoading   *observable.Value[bool]
	isJumping   *observable.Value[bool]

	scrollMu       sync.RWMutex
	scrollHandlers map[uint64]func(int)
	nextScrollID   uint64

	ctx         context.Context
	cancel      context.CancelCauseFunc
	wg          sync.WaitGroup
	unsubscribe func()
}

// NewWindowController subscribes a controller to pages. Call Start to load the
// first page.
func NewWindowController[T any](pages PageFetcher[T]) *WindowController[T] {
	ctx, cancel := context.WithCancelCause(context.Background())
	c := &WindowController[T]{
		pages:          pages,
		pageSize:       pages.PageSize(),
		logger:         logging.Default().WithComponent("window_controller"),
		slots:          []paging.Slot[T]{},
		loadedPages:    make(map[int]struct{}),
		requested:      make(map[int]struct{}),
		loadedItems:    observable.NewValue([]paging.Slot[T]{}),
		isLoading:      observable.NewValue(false),
		isJumping:      observable.NewValue(false),
		scrollHandlers: make(map[uint64]func(int)),
		ctx:            ctx,
		cancel:         cancel,
	}
	c.unsubscribe = pages.OnPageWindow(c.handlePageWindow)
	return c
}

// Start resets the window and loads page 0.
func (c *WindowController[T]) Start() {
	c.mu.Lock()
	if c.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.abortJumpLocked(paging.ErrJumpSuperseded)
	c.generation++
	gen := c.generation
	c.resetLocked()
	c.requested[0] = struct{}{}
	c.loading = true
	c.publishLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Paging("Starting window", "generation", gen)
	c.fetchAsync(gen, 0)
}

// UpdateViewingPageFromScroll reports the visible range, given as positions in
// the loaded list, and updates the current page. Ignored while a load or jump
// is in progress, since positions then refer to a list that is about to change.
func (c *WindowController[T]) UpdateViewingPageFromScroll(firstVisible, lastVisible int) {
	c.mu.Lock()
	if c.loading || c.jumping || len(c.slots) == 0 {
		c.mu.Unlock()
		return
	}

	base := c.minPage * c.pageSize
	page := paging.PageOf(base+max(firstVisible, 0), c.pageSize)

	// A short final page may never put its first item at the top of the
	// viewport, so reaching the end of the list counts as viewing it.
	if totalPages := c.pages.TotalPages().Get(); totalPages > 0 {
		if _, ok := c.loadedPages[totalPages-1]; ok && lastVisible >= c.lastPresentLocked() {
			page = totalPages - 1
		}
	}
	c.mu.Unlock()

	c.pages.SetCurrentPage(page)
}

// PrefetchIfNeeded requests the page after the highest loaded one once the
// last visible position reaches the end of the loaded list.
func (c *WindowController[T]) PrefetchIfNeeded(lastVisible int) {
	c.mu.Lock()
	if c.loading || c.jumping || c.ctx.Err() != nil || len(c.slots) == 0 || lastVisible < len(c.slots)-1 {
		c.mu.Unlock()
		return
	}

	next := c.maxPage + 1
	_, loaded := c.loadedPages[next]
	_, pending := c.requested[next]
	if loaded || pending || next >= c.pages.TotalPages().Get() {
		c.mu.Unlock()
		return
	}

	c.requested[next] = struct{}{}
	c.loading = true
	gen := c.generation
	c.publishLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Paging("Prefetching next page", "page", next)
	c.fetchAsync(gen, next)
}

// JumpToPage discards the window and loads page on its own. The window is
// cleared before JumpToPage returns. A newer jump, Start or Close cancels this
// one; so does the returned task's Cancel.
func (c *WindowController[T]) JumpToPage(page int) *JumpTask {
	if page < 0 {
		return completedJump(page, paging.ErrInvalidPage)
	}
	if totalPages := c.pages.TotalPages().Get(); totalPages > 0 && page >= totalPages {
		return completedJump(page, paging.ErrInvalidPage)
	}

	c.mu.Lock()
	if err := c.ctx.Err(); err != nil {
		c.mu.Unlock()
		return completedJump(page, context.Cause(c.ctx))
	}
	c.abortJumpLocked(paging.ErrJumpSuperseded)
	c.generation++
	gen := c.generation
	c.resetLocked()
	c.requested[page] = struct{}{}
	c.loading = true
	c.jumping = true
	c.jumpTarget = page
	ctx, cancel := context.WithCancelCause(c.ctx)
	c.jumpCtx = ctx
	c.cancelJump = cancel
	c.publishLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Paging("Jumping to page", "page", page, "generation", gen)

	task := newJumpTask(page, cancel)
	go func() {
		defer c.wg.Done()
		defer cancel(nil)
		err := c.runJump(ctx, page)
		task.finish(c.finishJump(ctx, gen, page, err))
	}()
	return task
}

func (c *WindowController[T]) runJump(ctx context.Context, page int) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	c.pages.SetCurrentPage(page)
	if err := c.pages.FetchPage(ctx, page); err != nil {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		return err
	}
	return nil
}

// finishJump clears the flags of a jump whose window never got merged and
// returns the jump's outcome. A jump only succeeds if its window landed.
func (c *WindowController[T]) finishJump(ctx context.Context, gen uint64, page int, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		if err == nil {
			err = context.Cause(ctx)
		}
		if err == nil {
			err = paging.ErrJumpSuperseded
		}
		return err
	}
	c.cancelJump = nil
	c.jumpCtx = nil
	if !c.jumping {
		return nil
	}
	if err == nil {
		err = context.Cause(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, paging.ErrJumpSuperseded) {
		c.logger.Warn("Jump failed", "page", page, "error", err)
	}
	delete(c.requested, page)
	c.jumping = false
	c.loading = false
	c.publishLocked()
	return err
}

// fetchAsync loads page on behalf of generation gen. The caller has already
// added to c.wg.
func (c *WindowController[T]) fetchAsync(gen uint64, page int) {
	go func() {
		defer c.wg.Done()
		err := c.pages.FetchPage(c.ctx, page)

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.generation {
			return
		}
		if _, pending := c.requested[page]; !pending {
			return
		}
		// The fetch returned without a window reaching us.
		if err != nil {
			c.logger.Paging("Fetch ended without a window", "page", page, "error", err)
		}
		delete(c.requested, page)
		c.loading = false
		c.publishLocked()
	}()
}

// handlePageWindow runs on the fetching goroutine while the orchestrator's
// fetch lock is held.
func (c *WindowController[T]) handlePageWindow(event events.PageWindowEvent[T]) {
	page := event.Page

	c.mu.Lock()
	if _, ok := c.requested[page]; !ok {
		c.mu.Unlock()
		c.logger.Paging("Dropped unrequested page window", "page", page)
		return
	}
	if c.jumping && (page != c.jumpTarget || (c.jumpCtx != nil && c.jumpCtx.Err() != nil)) {
		c.mu.Unlock()
		c.logger.Paging("Dropped page window during jump", "page", page, "target", c.jumpTarget)
		return
	}

	delete(c.requested, page)
	if len(event.Window.Items) > 0 {
		c.mergeLocked(page, event.Window.Items)
	}
	c.loading = false

	scrollTo := -1
	if c.jumping {
		c.jumping = false
		if _, ok := c.loadedPages[page]; ok {
			scrollTo = paging.StartIndex(page, c.pageSize) - c.baseIndexLocked()
		}
	}
	c.publishLocked()
	c.mu.Unlock()

	if scrollTo >= 0 {
		c.notifyScroll(scrollTo)
	}
}

// mergeLocked writes items into a fresh slot slice spanning the old range
// plus page. Published snapshots are never mutated.
func (c *WindowController[T]) mergeLocked(page int, items []paging.Item[T]) {
	newMin, newMax := page, page
	if len(c.loadedPages) > 0 {
		newMin = min(c.minPage, page)
		newMax = max(c.maxPage, page)
	}

	grown := make([]paging.Slot[T], (newMax-newMin+1)*c.pageSize)
	if len(c.loadedPages) > 0 {
		copy(grown[(c.minPage-newMin)*c.pageSize:], c.slots)
	}

	base := newMin * c.pageSize
	for _, item := range items {
		rel := item.Index - base
		if rel < 0 || rel >= len(grown) {
			continue
		}
		grown[rel] = paging.Slot[T]{Value: item.Value, Present: true}
	}

	c.slots = grown
	c.minPage, c.maxPage = newMin, newMax
	c.loadedPages[page] = struct{}{}
}

func (c *WindowController[T]) resetLocked() {
	c.slots = []paging.Slot[T]{}
	c.loadedPages = make(map[int]struct{})
	c.requested = make(map[int]struct{})
	c.minPage, c.maxPage = 0, 0
	c.loading = false
	c.jumping = false
}

func (c *WindowController[T]) abortJumpLocked(cause error) {
	if c.cancelJump != nil {
		c.cancelJump(cause)
		c.cancelJump = nil
		c.jumpCtx = nil
	}
}

func (c *WindowController[T]) publishLocked() {
	c.loadedItems.Set(c.slots)
	observable.SetIfChanged(c.isLoading, c.loading)
	observable.SetIfChanged(c.isJumping, c.jumping)
}

func (c *WindowController[T]) baseIndexLocked() int {
	if len(c.loadedPages) == 0 {
		return 0
	}
	return c.minPage * c.pageSize
}

func (c *WindowController[T]) lastPresentLocked() int {
	for i := len(c.slots) - 1; i >= 0; i-- {
		if c.slots[i].Present {
			return i
		}
	}
	return -1
}

// OnScrollTo registers fn to receive the list position a finished jump wants
// brought into view. Returns an unsubscribe function.
func (c *WindowController[T]) OnScrollTo(fn func(position int)) func() {
	c.scrollMu.Lock()
	defer c.scrollMu.Unlock()
	id := c.nextScrollID
	c.nextScrollID++
	c.scrollHandlers[id] = fn
	return func() {
		c.scrollMu.Lock()
		defer c.scrollMu.Unlock()
		delete(c.scrollHandlers, id)
	}
}

func (c *WindowController[T]) notifyScroll(position int) {
	c.scrollMu.RLock()
	handlers := make([]func(int), 0, len(c.scrollHandlers))
	for _, fn := range c.scrollHandlers {
		handlers = append(handlers, fn)
	}
	c.scrollMu.RUnlock()

	for _, fn := range handlers {
		fn(position)
	}
}

// LoadedItems is the accumulated slot list. Each published slice is immutable.
func (c *WindowController[T]) LoadedItems() *observable.Value[[]paging.Slot[T]] {
	return c.loadedItems
}

// IsLoading is true while any page requested by this controller is in flight.
func (c *WindowController[T]) IsLoading() *observable.Value[bool] {
	return c.isLoading
}

// IsJumping is true from JumpToPage until its window lands or the jump ends.
func (c *WindowController[T]) IsJumping() *observable.Value[bool] {
	return c.isJumping
}

// CurrentPage forwards the fetcher's current page.
func (c *WindowController[T]) CurrentPage() *observable.Value[int] {
	return c.pages.CurrentPage()
}

// TotalPages forwards the fetcher's total page count.
func (c *WindowController[T]) TotalPages() *observable.Value[int] {
	return c.pages.TotalPages()
}

// ListBaseIndex is the global index of list position 0.
func (c *WindowController[T]) ListBaseIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseIndexLocked()
}

// LoadedPages returns the merged pages in ascending order.
func (c *WindowController[T]) LoadedPages() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadedPagesLocked()
}

func (c *WindowController[T]) loadedPagesLocked() []int {
	pages := make([]int, 0, len(c.loadedPages))
	for p := range c.loadedPages {
		pages = append(pages, p)
	}
	slices.Sort(pages)
	return pages
}

// Snapshot returns the controller state as one consistent value.
func (c *WindowController[T]) Snapshot() WindowSnapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WindowSnapshot[T]{
		Items:       c.slots,
		BaseIndex:   c.baseIndexLocked(),
		LoadedPages: c.loadedPagesLocked(),
		CurrentPage: c.pages.CurrentPage().Get(),
		TotalPages:  c.pages.TotalPages().Get(),
		Loading:     c.loading,
		Jumping:     c.jumping,
	}
}

// Close cancels outstanding work, waits for it and stops all notifications.
func (c *WindowController[T]) Close() {
	c.mu.Lock()
	c.abortJumpLocked(paging.ErrControllerClosed)
	c.cancel(paging.ErrControllerClosed)
	c.mu.Unlock()

	c.unsubscribe()
	c.wg.Wait()

	c.loadedItems.Close()
	c.isLoading.Close()
	c.isJumping.Close()
}

// JumpTask is the handle of one JumpToPage call.
type JumpTask struct {
	Page   int
	cancel context.CancelCauseFunc
	done   chan struct{}
	err    error
}

func newJumpTask(page int, cancel context.CancelCauseFunc) *JumpTask {
	return &JumpTask{Page: page, cancel: cancel, done: make(chan struct{})}
}

func completedJump(page int, err error) *JumpTask {
	t := newJumpTask(page, nil)
	t.finish(err)
	return t
}

func (t *JumpTask) finish(err error) {
	t.err = err
	close(t.done)
}

// Cancel abandons the jump. The controller's loading flags are reset once the
// jump goroutine observes it.
func (t *JumpTask) Cancel() {
	if t.cancel != nil {
		t.cancel(context.Canceled)
	}
}

// Done is closed when the jump has finished, successfully or not.
func (t *JumpTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the jump finishes or ctx ends. A superseded jump reports
// ErrJumpSuperseded.
func (t *JumpTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
