package presenters

import (
	"github.com/a-h/templ"

	"medianav/application"
	"medianav/domain/media"
)

// WindowPresenterInterface defines the contract for window presentation logic.
type WindowPresenterInterface interface {
	// ToWindowViewModel converts a controller snapshot to a WindowVM view model.
	ToWindowViewModel(sessionID string, snap application.WindowSnapshot[media.Item]) *WindowVM
	Grid(vm *WindowVM) templ.Component
	Page(vm *WindowVM) templ.Component
}

// Ensure WindowPresenter implements the interface.
var _ WindowPresenterInterface = (*WindowPresenter)(nil)
