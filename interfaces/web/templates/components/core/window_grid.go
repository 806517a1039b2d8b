// Package core holds the page-level components of the browse UI.
package core

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

// CardView is one grid cell.
type CardView struct {
	Index     int
	Loaded    bool
	Label     string
	Kind      string
	PosterURL string
}

// PageLink is one page-number button. Number is 1-based, Page zero-based.
type PageLink struct {
	Number int
	Page   int
}

// WindowView is the rendered state of a browse session.
type WindowView struct {
	SessionID   string
	Cards       []CardView
	CurrentPage int
	TotalPages  int
	PageSize    int
	Loading     bool
	Jumping     bool
	Pages       []PageLink
}

// printer stops writing after the first error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// WindowGrid renders the loaded window, its page bar and a load-more trigger.
// The grid refetches itself when the session's SSE stream reports a change.
func WindowGrid(view WindowView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		id := templ.EscapeString(view.SessionID)

		p.printf(`<section id="window" hx-get="/browse/%s" hx-trigger="sse:window" hx-swap="outerHTML" data-loading="%t" data-jumping="%t">`,
			id, view.Loading, view.Jumping)

		p.printf(`<nav class="flex gap-1" role="tablist">`)
		for _, link := range view.Pages {
			p.printf(`<button class="px-2 py-1 %s" role="tab" aria-selected="%s" hx-post="/browse/%s/jump/%d" hx-target="#window" hx-swap="outerHTML">%d</button>`,
				pageButtonClass(view.CurrentPage, link.Page), isSelected(view.CurrentPage, link.Page), id, link.Number, link.Number)
		}
		p.printf(`</nav>`)

		if view.Jumping || (view.Loading && len(view.Cards) == 0) {
			p.printf(`<p class="text-slate-500">Loading…</p>`)
		}

		p.printf(`<ol class="grid grid-cols-4 gap-2">`)
		for _, card := range view.Cards {
			if !card.Loaded {
				p.printf(`<li class="card placeholder" data-index="%d"></li>`, card.Index)
				continue
			}
			p.printf(`<li class="card" data-index="%d" data-kind="%s">`, card.Index, templ.EscapeString(card.Kind))
			if card.PosterURL != "" {
				p.printf(`<img src="%s" alt="" loading="lazy">`, templ.EscapeString(card.PosterURL))
			}
			p.printf(`<span>%s</span></li>`, templ.EscapeString(card.Label))
		}
		p.printf(`</ol>`)

		if n := len(view.Cards); n > 0 && !view.Loading && !view.Jumping {
			p.printf(`<button hx-post="/browse/%s/scroll?first=%d&last=%d" hx-swap="none">Load more</button>`, id, max(n-view.PageSize, 0), n-1)
		}
		p.printf(`</section>`)
		return p.err
	})
}

// BrowsePage is the full HTML document around a session's grid.
func BrowsePage(view WindowView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.printf(`<!doctype html><html lang="en"><head><meta charset="utf-8"><title>MediaNav</title>`)
		p.printf(`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`)
		p.printf(`<script src="https://unpkg.com/htmx-ext-sse@2.2.2/sse.js"></script>`)
		p.printf(`</head><body hx-ext="sse" sse-connect="/events?session=%s">`, templ.EscapeString(view.SessionID))
		p.printf(`<div id="toasts" sse-swap="fetch-error" hx-swap="afterbegin"></div>`)
		if p.err != nil {
			return p.err
		}
		if err := WindowGrid(view).Render(ctx, w); err != nil {
			return err
		}
		p.printf(`</body></html>`)
		return p.err
	})
}
