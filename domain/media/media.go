// Package media defines the catalog entries MediaNav browses.
package media

import "fmt"

// Kind classifies a catalog entry.
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "series"
	KindMusic  Kind = "music"
	KindBook   Kind = "book"
)

// Item is a single catalog entry. Position is its zero-based place in the
// catalog ordering and is what absolute paging indices refer to.
type Item struct {
	ID        int64  `json:"id"`
	Position  int    `json:"position"`
	Title     string `json:"title"`
	Kind      Kind   `json:"kind"`
	Year      int    `json:"year"`
	PosterURL string `json:"poster_url,omitempty"`
}

// Label is the short text used by grid cells.
func (i Item) Label() string {
	if i.Year > 0 {
		return fmt.Sprintf("%s (%d)", i.Title, i.Year)
	}
	return i.Title
}

// Generate builds count synthetic catalog entries, used for seeding and demos.
func Generate(count int) []Item {
	kinds := []Kind{KindMovie, KindSeries, KindMusic, KindBook}
	items := make([]Item, count)
	for i := range count {
		items[i] = Item{
			ID:       int64(i + 1),
			Position: i,
			Title:    fmt.Sprintf("Title %04d", i+1),
			Kind:     kinds[i%len(kinds)],
			Year:     1970 + i%55,
		}
	}
	return items
}
