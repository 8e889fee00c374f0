package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrClosed   = errors.New("repository closed")
	ErrEmptyKey = errors.New("snapshot key is empty")
	ErrEncode   = errors.New("snapshot encode failed")
	ErrDecode   = errors.New("snapshot decode failed")
)
