package dashboard

import "errors"

var (
	// ErrInvalidRange indicates start is after end. The filter state is left
	// untouched; the caller renders nothing and shows a corrective message.
	ErrInvalidRange = errors.New("dashboard: invalid date range")
	// ErrOutOfBounds indicates a date outside the loaded data's bounds.
	ErrOutOfBounds = errors.New("dashboard: date out of bounds")
)
