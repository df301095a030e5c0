package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidTitle     = errors.New("invalid title")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidPosition  = errors.New("invalid position")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidWIPLimit  = errors.New("invalid wip limit")
	ErrInvalidBoardKind = errors.New("invalid board kind")
)
