package records

import "errors"

// ErrUnavailable indicates the backing source could not be reached or refused
// the connection. The current render halts; there is no retry.
var ErrUnavailable = errors.New("records: source unavailable")
