package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound        = errors.New("not found")
	ErrMoveRejected    = errors.New("move rejected")
	ErrWIPLimitReached = errors.New("wip limit reached")
	ErrColumnLocked    = errors.New("column locked")
	ErrUnknownColumn   = errors.New("unknown column")
)
