package presenters

import (
	"github.com/a-h/templ"

	"medianav/application"
	"medianav/domain/media"
	"medianav/interfaces/web/templates/components/core"
)

// Window-related view data structures

// ItemVM is one slot of the loaded window. Fields other than Index and
// Loaded are empty for placeholders.
type ItemVM struct {
	Index     int        `json:"index"`
	Loaded    bool       `json:"loaded"`
	ID        int64      `json:"id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Kind      media.Kind `json:"kind,omitempty"`
	Year      int        `json:"year,omitempty"`
	PosterURL string     `json:"posterUrl,omitempty"`
	Label     string     `json:"label,omitempty"`
}

// WindowVM is the JSON and HTML view model of a browse session.
type WindowVM struct {
	SessionID   string   `json:"sessionId"`
	BaseIndex   int      `json:"baseIndex"`
	CurrentPage int      `json:"currentPage"`
	TotalPages  int      `json:"totalPages"`
	PageSize    int      `json:"pageSize"`
	LoadedPages []int    `json:"loadedPages"`
	Loading     bool     `json:"loading"`
	Jumping     bool     `json:"jumping"`
	Items       []ItemVM `json:"items"`
}

// WindowPresenter transforms controller snapshots into view models.
type WindowPresenter struct {
	pageSize int
}

// NewWindowPresenter creates a new window presenter.
func NewWindowPresenter(pageSize int) *WindowPresenter {
	return &WindowPresenter{pageSize: pageSize}
}

// ToWindowViewModel converts a snapshot to a view model. Item indices are
// absolute catalog positions.
func (p *WindowPresenter) ToWindowViewModel(sessionID string, snap application.WindowSnapshot[media.Item]) *WindowVM {
	items := make([]ItemVM, len(snap.Items))
	for i, slot := range snap.Items {
		index := snap.BaseIndex + i
		if !slot.Present {
			items[i] = ItemVM{Index: index}
			continue
		}
		items[i] = ItemVM{
			Index:     index,
			Loaded:    true,
			ID:        slot.Value.ID,
			Title:     slot.Value.Title,
			Kind:      slot.Value.Kind,
			Year:      slot.Value.Year,
			PosterURL: slot.Value.PosterURL,
			Label:     slot.Value.Label(),
		}
	}

	loaded := snap.LoadedPages
	if loaded == nil {
		loaded = []int{}
	}

	return &WindowVM{
		SessionID:   sessionID,
		BaseIndex:   snap.BaseIndex,
		CurrentPage: snap.CurrentPage,
		TotalPages:  snap.TotalPages,
		PageSize:    p.pageSize,
		LoadedPages: loaded,
		Loading:     snap.Loading,
		Jumping:     snap.Jumping,
		Items:       items,
	}
}

// ToWindowView converts a view model into the grid component's input.
func (p *WindowPresenter) ToWindowView(vm *WindowVM) core.WindowView {
	cards := make([]core.CardView, len(vm.Items))
	for i, item := range vm.Items {
		cards[i] = core.CardView{
			Index:     item.Index,
			Loaded:    item.Loaded,
			Label:     item.Label,
			Kind:      string(item.Kind),
			PosterURL: item.PosterURL,
		}
	}

	pages := make([]core.PageLink, vm.TotalPages)
	for page := range pages {
		pages[page] = core.PageLink{Number: page + 1, Page: page}
	}

	return core.WindowView{
		SessionID:   vm.SessionID,
		Cards:       cards,
		CurrentPage: vm.CurrentPage,
		TotalPages:  vm.TotalPages,
		PageSize:    vm.PageSize,
		Loading:     vm.Loading,
		Jumping:     vm.Jumping,
		Pages:       pages,
	}
}

// Grid returns the grid fragment for vm.
func (p *WindowPresenter) Grid(vm *WindowVM) templ.Component {
	return core.WindowGrid(p.ToWindowView(vm))
}

// Page returns the full browse document for vm.
func (p *WindowPresenter) Page(vm *WindowVM) templ.Component {
	return core.BrowsePage(p.ToWindowView(vm))
}
