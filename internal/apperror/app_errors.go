package apperror

import "errors"

var (
	ErrInvalidBoard    = errors.New("invalid board")
	ErrNoLegalMove     = errors.New("no legal move available")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownMode     = errors.New("unknown game mode")
	ErrUnknownMark     = errors.New("unknown player mark")
)
