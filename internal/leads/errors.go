package leads

import "errors"

var (
	// ErrMissingSender is returned when a record has no sender identifier.
	ErrMissingSender = errors.New("sender identifier is required")

	// ErrMissingName is returned when a record has no name.
	ErrMissingName = errors.New("name is required")
)
