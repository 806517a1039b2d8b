// Package tui is a terminal consumer of a window controller: a scrolling list
// of catalog entries with page jumps.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"medianav/application"
	"medianav/domain/events"
	"medianav/domain/media"
	"medianav/domain/paging"
	"medianav/platform/observable"
)

// Controller is the window controller surface the browser drives.
type Controller interface {
	Snapshot() application.WindowSnapshot[media.Item]
	UpdateViewingPageFromScroll(firstVisible, lastVisible int)
	PrefetchIfNeeded(lastVisible int)
	JumpToPage(page int) *application.JumpTask
	OnScrollTo(fn func(position int)) func()
	LoadedItems() *observable.Value[[]paging.Slot[media.Item]]
	IsLoading() *observable.Value[bool]
	IsJumping() *observable.Value[bool]
}

// FailureSource publishes page load failures.
type FailureSource interface {
	OnFetchFailed(handler func(events.PageFetchFailedEvent)) func()
}

// WindowChangedMsg is sent when the loaded items or flags change.
type WindowChangedMsg struct{}

// ScrollToMsg asks the list to move to a position, after a jump lands.
type ScrollToMsg struct{ Position int }

// FetchFailedMsg reports a page that failed to load.
type FetchFailedMsg struct {
	Page int
	Err  error
}

// JumpDoneMsg is the outcome of a jump started from the keyboard.
type JumpDoneMsg struct {
	Page int
	Err  error
}

const defaultRows = 20

var (
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cursorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	kindStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Browser is a bubbletea model over one controller.
type Browser struct {
	ctrl Controller

	changes  chan struct{}
	scrolls  chan int
	failures chan FetchFailedMsg
	cleanup  []func()

	snap    application.WindowSnapshot[media.Item]
	cursor  int
	offset  int
	rows    int
	jumping bool
	input   string
	status  string
	failed  bool
}

// NewBrowser subscribes to ctrl and, when failures is not nil, to its load
// failures. Call Close when the program exits.
func NewBrowser(ctrl Controller, failures FailureSource) *Browser {
	b := &Browser{
		ctrl:     ctrl,
		changes:  make(chan struct{}, 1),
		scrolls:  make(chan int, 1),
		failures: make(chan FetchFailedMsg, 8),
		rows:     defaultRows,
		snap:     ctrl.Snapshot(),
	}

	notify := func() {
		select {
		case b.changes <- struct{}{}:
		default:
		}
	}
	b.cleanup = append(b.cleanup,
		ctrl.LoadedItems().Subscribe(func([]paging.Slot[media.Item]) { notify() }),
		ctrl.IsLoading().Subscribe(func(bool) { notify() }),
		ctrl.IsJumping().Subscribe(func(bool) { notify() }),
		ctrl.OnScrollTo(func(position int) {
			// Only the latest request matters
			select {
			case <-b.scrolls:
			default:
			}
			b.scrolls <- position
		}),
	)
	if failures != nil {
		b.cleanup = append(b.cleanup, failures.OnFetchFailed(func(e events.PageFetchFailedEvent) {
			select {
			case b.failures <- FetchFailedMsg{Page: e.Page, Err: e.Err}:
			default:
			}
		}))
	}
	return b
}

// Close removes every subscription.
func (b *Browser) Close() {
	for _, fn := range b.cleanup {
		fn()
	}
	b.cleanup = nil
}

// Init starts listening for controller events.
func (b *Browser) Init() tea.Cmd {
	return tea.Batch(b.waitForChange(), b.waitForScroll(), b.waitForFailure())
}

func (b *Browser) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-b.changes
		return WindowChangedMsg{}
	}
}

func (b *Browser) waitForScroll() tea.Cmd {
	return func() tea.Msg {
		return ScrollToMsg{Position: <-b.scrolls}
	}
}

func (b *Browser) waitForFailure() tea.Cmd {
	return func() tea.Msg {
		return <-b.failures
	}
}

func (b *Browser) jump(page int) tea.Cmd {
	task := b.ctrl.JumpToPage(page)
	return func() tea.Msg {
		return JumpDoneMsg{Page: page, Err: task.Wait(context.Background())}
	}
}

// Update handles messages.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// header and footer take two lines each
		b.rows = max(msg.Height-4, 1)
		b.clamp()
		b.reportScroll()
		return b, nil

	case WindowChangedMsg:
		b.snap = b.ctrl.Snapshot()
		b.clamp()
		return b, b.waitForChange()

	case ScrollToMsg:
		b.snap = b.ctrl.Snapshot()
		b.cursor = msg.Position
		b.offset = msg.Position
		b.clamp()
		return b, b.waitForScroll()

	case FetchFailedMsg:
		b.status = fmt.Sprintf("page %d failed: %v", msg.Page+1, msg.Err)
		b.failed = true
		return b, b.waitForFailure()

	case JumpDoneMsg:
		switch {
		case msg.Err == nil:
			b.status = fmt.Sprintf("jumped to page %d", msg.Page+1)
			b.failed = false
		case errors.Is(msg.Err, paging.ErrJumpSuperseded), errors.Is(msg.Err, context.Canceled):
		default:
			b.status = fmt.Sprintf("jump to page %d failed: %v", msg.Page+1, msg.Err)
			b.failed = true
		}
		return b, nil

	case tea.KeyMsg:
		return b.handleKey(msg)
	}
	return b, nil
}

func (b *Browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return b, tea.Quit
	}

	if b.jumping {
		switch {
		case key == "esc":
			b.jumping, b.input = false, ""
		case key == "backspace":
			if b.input != "" {
				b.input = b.input[:len(b.input)-1]
			}
		case key == "enter":
			b.jumping = false
			number, err := strconv.Atoi(b.input)
			b.input = ""
			if err != nil || number < 1 {
				b.status, b.failed = "enter a page number", true
				return b, nil
			}
			return b, b.jump(number - 1)
		case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
			b.input += key
		}
		return b, nil
	}

	switch key {
	case "q":
		return b, tea.Quit
	case "g":
		b.jumping, b.input = true, ""
		return b, nil
	case "up", "k":
		b.move(-1)
	case "down", "j":
		b.move(1)
	case "pgup":
		b.move(-b.rows)
	case "pgdown", " ":
		b.move(b.rows)
	case "home":
		b.move(-b.cursor)
	case "end":
		b.move(len(b.snap.Items) - 1 - b.cursor)
	}
	return b, nil
}

func (b *Browser) move(delta int) {
	b.cursor += delta
	b.clamp()
	b.reportScroll()
}

// reportScroll tells the controller what is visible and prefetches when the
// bottom of the loaded list is on screen.
func (b *Browser) reportScroll() {
	n := len(b.snap.Items)
	if n == 0 {
		return
	}
	last := min(b.offset+b.rows, n) - 1
	b.ctrl.UpdateViewingPageFromScroll(b.offset, last)
	b.ctrl.PrefetchIfNeeded(last)
}

func (b *Browser) clamp() {
	n := len(b.snap.Items)
	b.cursor = max(min(b.cursor, n-1), 0)
	if b.cursor < b.offset {
		b.offset = b.cursor
	}
	if b.cursor >= b.offset+b.rows {
		b.offset = b.cursor - b.rows + 1
	}
	b.offset = max(min(b.offset, n-b.rows), 0)
}

// View renders the list.
func (b *Browser) View() string {
	var sb strings.Builder

	header := fmt.Sprintf("MediaNav  page %d/%d  loaded %v", b.snap.CurrentPage+1, max(b.snap.TotalPages, 1), b.snap.LoadedPages)
	switch {
	case b.snap.Jumping:
		header += "  jumping…"
	case b.snap.Loading:
		header += "  loading…"
	}
	sb.WriteString(headerStyle.Render(header))
	sb.WriteString("\n\n")

	end := min(b.offset+b.rows, len(b.snap.Items))
	for i := b.offset; i < end; i++ {
		sb.WriteString(b.renderRow(i))
		sb.WriteString("\n")
	}
	if len(b.snap.Items) == 0 && !b.snap.Loading && !b.snap.Jumping {
		sb.WriteString(placeholderStyle.Render("(empty)"))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	switch {
	case b.jumping:
		sb.WriteString(fmt.Sprintf("go to page: %s_", b.input))
	case b.status != "" && b.failed:
		sb.WriteString(errorStyle.Render(b.status))
	case b.status != "":
		sb.WriteString(helpStyle.Render(b.status))
	default:
		sb.WriteString(helpStyle.Render("↑/↓ scroll  g jump  q quit"))
	}
	return sb.String()
}

func (b *Browser) renderRow(i int) string {
	slot := b.snap.Items[i]
	index := b.snap.BaseIndex + i

	var line string
	if slot.Present {
		line = fmt.Sprintf("%6d  %-40s %s", index+1, slot.Value.Label(), kindStyle.Render(string(slot.Value.Kind)))
	} else {
		line = placeholderStyle.Render(fmt.Sprintf("%6d  …", index+1))
	}
	if i == b.cursor {
		return cursorStyle.Render(line)
	}
	return line
}

// Cursor returns the selected position in the loaded list.
func (b *Browser) Cursor() int {
	return b.cursor
}
