package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medianav/domain/paging"
	"medianav/test/helpers"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

func newTestController(t *testing.T, source *helpers.FakeSource[string], s paging.Settings) (*WindowController[string], *PageOrchestrator[string]) {
	t.Helper()
	o := newTestOrchestrator(t, source, s)
	c := NewWindowController[string](o)
	t.Cleanup(c.Close)
	return c, o
}

// waitForPages blocks until the controller has merged exactly pages and is idle.
func waitForPages(t *testing.T, c *WindowController[string], pages ...int) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return !snap.Loading && !snap.Jumping && assert.ObjectsAreEqual(pages, snap.LoadedPages)
	}, waitFor, tick, "expected loaded pages %v, got %v", pages, c.LoadedPages())
}

func presentValues(slots []paging.Slot[string]) []string {
	var out []string
	for _, s := range slots {
		if s.Present {
			out = append(out, s.Value)
		}
	}
	return out
}

func TestWindowController_StartLoadsFirstPage(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, o := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)

	items := c.LoadedItems().Get()
	require.Len(t, items, 10)
	assert.Equal(t, helpers.Strings(10), presentValues(items))
	assert.Equal(t, 0, c.ListBaseIndex())
	assert.Equal(t, 10, o.TotalPages().Get())
	assert.False(t, c.IsLoading().Get())
}

func TestWindowController_PrefetchAppendsNextPage(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)

	// Not at the end of the list yet.
	c.PrefetchIfNeeded(5)
	assert.Equal(t, 1, source.CallCount())

	c.PrefetchIfNeeded(9)
	waitForPages(t, c, 0, 1)

	items := c.LoadedItems().Get()
	require.Len(t, items, 20)
	assert.Equal(t, helpers.Strings(20), presentValues(items))
	assert.Equal(t, []int{0, 10}, source.Calls())
}

func TestWindowController_PrefetchIgnoredWhileLoading(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)

	source.Gate()
	c.PrefetchIfNeeded(9)
	source.WaitEntered(t, 10)
	assert.True(t, c.IsLoading().Get())

	c.PrefetchIfNeeded(9)
	c.PrefetchIfNeeded(9)
	source.Release()
	waitForPages(t, c, 0, 1)

	assert.Equal(t, []int{0, 10}, source.Calls())
}

func TestWindowController_PrefetchStopsAtLastPage(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(15), 10)
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)
	c.PrefetchIfNeeded(9)
	waitForPages(t, c, 0, 1)

	items := c.LoadedItems().Get()
	require.Len(t, items, 20)
	assert.Len(t, presentValues(items), 15)
	assert.False(t, items[15].Present, "positions past the collection end are placeholders")

	c.PrefetchIfNeeded(19)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, source.CallCount())
	assert.False(t, c.IsLoading().Get())
}

func TestWindowController_UpdateViewingPageFromScroll(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(25), 10)
	c, o := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)
	c.PrefetchIfNeeded(9)
	waitForPages(t, c, 0, 1)

	c.UpdateViewingPageFromScroll(12, 15)
	assert.Equal(t, 1, o.CurrentPage().Get())

	c.UpdateViewingPageFromScroll(3, 8)
	assert.Equal(t, 0, o.CurrentPage().Get())

	c.PrefetchIfNeeded(19)
	waitForPages(t, c, 0, 1, 2)

	// The last page is loaded and the final item is visible.
	c.UpdateViewingPageFromScroll(14, 24)
	assert.Equal(t, 2, o.CurrentPage().Get())

	c.UpdateViewingPageFromScroll(14, 23)
	assert.Equal(t, 1, o.CurrentPage().Get())
}

func TestWindowController_JumpClearsWindowImmediately(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, o := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)
	c.PrefetchIfNeeded(9)
	waitForPages(t, c, 0, 1)

	source.Gate()
	task := c.JumpToPage(5)

	assert.Empty(t, c.LoadedItems().Get())
	assert.Empty(t, c.LoadedPages())
	assert.True(t, c.IsJumping().Get())
	assert.True(t, c.IsLoading().Get())

	// Scroll reports are meaningless while the list is being replaced.
	c.UpdateViewingPageFromScroll(0, 3)
	c.PrefetchIfNeeded(0)

	source.WaitEntered(t, 50)
	assert.Equal(t, 5, o.CurrentPage().Get())
	source.Release()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, task.Wait(ctx))

	waitForPages(t, c, 5)
	assert.Equal(t, 50, c.ListBaseIndex())
	assert.Equal(t, helpers.Strings(60)[50:], presentValues(c.LoadedItems().Get()))
	assert.Equal(t, []int{0, 10, 50}, source.Calls())
}

func TestWindowController_JumpRequestsScroll(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	scrolls := make(chan int, 4)
	c.OnScrollTo(func(pos int) { scrolls <- pos })

	c.Start()
	waitForPages(t, c, 0)

	task := c.JumpToPage(3)
	<-task.Done()

	select {
	case pos := <-scrolls:
		assert.Equal(t, 0, pos)
	case <-time.After(waitFor):
		t.Fatal("no scroll request after jump")
	}
}

func TestWindowController_PrefetchAfterJump(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)
	<-c.JumpToPage(5).Done()
	waitForPages(t, c, 5)

	c.PrefetchIfNeeded(9)
	waitForPages(t, c, 5, 6)

	assert.Equal(t, 50, c.ListBaseIndex())
	assert.Equal(t, helpers.Strings(70)[50:], presentValues(c.LoadedItems().Get()))
}

func TestWindowController_NewJumpSupersedesOld(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)

	source.Gate()
	first := c.JumpToPage(3)
	source.WaitEntered(t, 30)

	second := c.JumpToPage(7)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	assert.ErrorIs(t, first.Wait(ctx), paging.ErrJumpSuperseded)

	source.WaitEntered(t, 70)
	source.Release()
	require.NoError(t, second.Wait(ctx))

	waitForPages(t, c, 7)
	assert.Equal(t, 70, c.ListBaseIndex())
	assert.Equal(t, helpers.Strings(80)[70:], presentValues(c.LoadedItems().Get()))
}

func TestWindowController_StaleJumpWindowIsDropped(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	source.IgnoreContext = true
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)

	source.Gate()
	first := c.JumpToPage(3)
	source.WaitEntered(t, 30)
	second := c.JumpToPage(7)

	// The superseded load completes and emits page 3 anyway.
	source.Release()
	source.WaitEntered(t, 70)
	source.Release()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, second.Wait(ctx))
	assert.ErrorIs(t, first.Wait(ctx), paging.ErrJumpSuperseded)

	waitForPages(t, c, 7)
	assert.Equal(t, helpers.Strings(80)[70:], presentValues(c.LoadedItems().Get()))
}

func TestWindowController_CancelJumpResetsFlags(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)

	source.Gate()
	task := c.JumpToPage(4)
	source.WaitEntered(t, 40)
	task.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	assert.ErrorIs(t, task.Wait(ctx), context.Canceled)

	require.Eventually(t, func() bool {
		return !c.IsJumping().Get() && !c.IsLoading().Get()
	}, waitFor, tick)
	assert.Empty(t, c.LoadedPages())
}

func TestWindowController_InvalidJump(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	waitForPages(t, c, 0)

	for _, page := range []int{-1, 10, 42} {
		task := c.JumpToPage(page)
		select {
		case <-task.Done():
		default:
			t.Fatalf("invalid jump to %d should complete immediately", page)
		}
		assert.ErrorIs(t, task.Wait(context.Background()), paging.ErrInvalidPage)
	}

	assert.Equal(t, []int{0}, c.LoadedPages(), "invalid jumps leave the window alone")
	assert.False(t, c.IsJumping().Get())
}

func TestWindowController_FailedPageIsNotMarkedLoaded(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	source.FailAt(0, errors.New("offline"))
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	require.Eventually(t, func() bool {
		return source.CallCount() == 1 && !c.IsLoading().Get()
	}, waitFor, tick)

	assert.Empty(t, c.LoadedPages())
	assert.Empty(t, c.LoadedItems().Get())

	// Start retries from scratch.
	source.FailAt(0, nil)
	c.Start()
	waitForPages(t, c, 0)
}

func TestWindowController_JumpBackReloadsEvictedPage(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10)
	c, o := newTestController(t, source, testSettings(10, 20, 10))

	c.Start()
	waitForPages(t, c, 0)
	c.PrefetchIfNeeded(9)
	waitForPages(t, c, 0, 1)
	c.PrefetchIfNeeded(19)
	waitForPages(t, c, 0, 1, 2)

	// The controller still shows page 0 but the cache dropped it.
	assert.Len(t, presentValues(c.LoadedItems().Get()), 30)
	assert.LessOrEqual(t, o.CacheSize(), 20)

	<-c.JumpToPage(0).Done()
	waitForPages(t, c, 0)
	assert.Equal(t, []int{0, 10, 20, 0}, source.Calls())
}

func TestWindowController_CloseStopsWork(t *testing.T) {
	source := helpers.NewFakeSource(helpers.Strings(100), 10).Gate()
	c, _ := newTestController(t, source, testSettings(10, 1000, 200))

	c.Start()
	source.WaitEntered(t, 0)
	c.Close()

	task := c.JumpToPage(1)
	assert.ErrorIs(t, task.Wait(context.Background()), paging.ErrControllerClosed)
}
