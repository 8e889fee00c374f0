package quota

import "errors"

// Policy validation errors.
var (
	ErrNegativeLimit = errors.New("free posting limit must not be negative")
	ErrNegativePrice = errors.New("posting price must not be negative")
)
