package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

func toastClass(toastType string) string {
	switch toastType {
	case "error":
		return "border-red-300 bg-red-50 text-red-800"
	case "success":
		return "border-green-300 bg-green-50 text-green-800"
	default:
		return "border-slate-300 bg-white text-slate-800"
	}
}

// ToastNotification renders a dismissable toast.
func ToastNotification(view ToastNotificationView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="toast rounded border px-4 py-3 shadow %s" role="alert" data-page="%d"><p class="font-medium">%s</p><p class="text-sm">%s</p><time class="text-xs opacity-70">%s</time></div>`,
			toastClass(view.Type),
			view.Page,
			templ.EscapeString(view.Title),
			templ.EscapeString(view.Message),
			view.Timestamp.Format("15:04:05"),
		)
		return err
	})
}
