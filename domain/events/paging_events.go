package events

import (
	"time"

	"medianav/domain/paging"
)

// PageWindowEvent carries the window computed by one FetchPage call.
type PageWindowEvent[T any] struct {
	Page      int
	Window    paging.Window[T]
	FromCache bool
	Timestamp time.Time
}

// PageFetchFailedEvent reports a source failure for one page. The cache is
// unchanged by the failed attempt.
type PageFetchFailedEvent struct {
	Page       int
	StartIndex int
	Err        error
	Timestamp  time.Time
}
