package repositories

import "fmt"

// ErrDuplicatePosition occurs when one batch carries two entries for the same catalog position
type ErrDuplicatePosition struct {
	Position int
	FirstID  int64
	SecondID int64
}

func (e ErrDuplicatePosition) Error() string {
	return fmt.Sprintf("duplicate catalog position %d: entries %d and %d", e.Position, e.FirstID, e.SecondID)
}
