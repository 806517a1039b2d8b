// Package handlers render provides HTTP response and HTMX utilities.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"medianav/logging"
)

// RenderResponse renders Templ components to HTTP responses.
func RenderResponse(ctx context.Context, w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(ctx, w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// RenderJSON writes v as a JSON response with the given status.
func RenderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Default().Error("Failed to encode JSON response", "error", err)
	}
}

// RenderError writes a JSON error body.
func RenderError(w http.ResponseWriter, status int, message string) {
	RenderJSON(w, status, map[string]string{"error": message})
}

// IsHTMXRequest checks if the request came from HTMX.
func IsHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// WantsHTML reports whether the client asked for an HTML fragment.
func WantsHTML(r *http.Request) bool {
	return IsHTMXRequest(r) || strings.Contains(r.Header.Get("Accept"), "text/html")
}

// GetHTMXTarget returns the HTMX target element ID.
func GetHTMXTarget(r *http.Request) string {
	target := r.Header.Get("HX-Target")
	// Remove # prefix if present
	return strings.TrimPrefix(target, "#")
}
