package contracts

import "errors"

// Common errors for domain contracts
var (
	// ErrInvalidRange occurs when a repository receives a negative offset or a non-positive limit
	ErrInvalidRange = errors.New("invalid catalog range")
)
