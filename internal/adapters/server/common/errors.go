package common

import "errors"

// Adapter-level error categories mapped onto transport status codes.
var (
	ErrNotFound       = errors.New("not found")
	ErrMoveRejected   = errors.New("move rejected")
	ErrInvalidRequest = errors.New("invalid request")
)
