package paging

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPage is returned for negative pages or jumps past the known last page.
	ErrInvalidPage = errors.New("invalid page")

	// ErrJumpSuperseded is the cancel cause of a jump replaced by a newer one.
	ErrJumpSuperseded = errors.New("jump superseded by a newer jump")

	// ErrControllerClosed is the cancel cause of work abandoned by Close.
	ErrControllerClosed = errors.New("window controller closed")
)

// SourceError reports a failed source call for one page.
type SourceError struct {
	Page       int
	StartIndex int
	Err        error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("load page %d (start index %d): %v", e.Page, e.StartIndex, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
