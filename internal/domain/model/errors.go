package model

import "errors"

// Error kinds shared by the domain packages. Callers match them with errors.Is;
// the HTTP layer maps each kind to a status code.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrPaymentRequired = errors.New("payment required")
)
