package presenters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medianav/interfaces/web/templates/components/ui"
)

// ToastPresenter handles toast notification view logic and formatting.
type ToastPresenter struct{}

// NewToastPresenter creates a new toast presenter.
func NewToastPresenter() *ToastPresenter {
	return &ToastPresenter{}
}

// FormatToastNotification renders a toast notification to an HTML string.
func (p *ToastPresenter) FormatToastNotification(title, message, toastType string) (string, error) {
	return p.render(ui.ToastNotificationView{
		Title:     title,
		Message:   message,
		Type:      toastType,
		Timestamp: time.Now(),
	})
}

// FormatFetchErrorToast renders the toast shown when a page fails to load.
// page is zero-based and shown 1-based.
func (p *ToastPresenter) FormatFetchErrorToast(page int, message string) (string, error) {
	return p.render(ui.ToastNotificationView{
		Title:     fmt.Sprintf("Page %d failed to load", page+1),
		Message:   message,
		Type:      "error",
		Page:      page,
		Timestamp: time.Now(),
	})
}

func (p *ToastPresenter) render(view ui.ToastNotificationView) (string, error) {
	var buf strings.Builder
	if err := ui.ToastNotification(view).Render(context.Background(), &buf); err != nil {
		return "", err
	}
	// SSE data lines cannot contain raw newlines
	return strings.ReplaceAll(buf.String(), "\n", " "), nil
}
