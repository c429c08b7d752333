package domain

import "errors"

// Remote call failures. Adapters wrap these so callers can use errors.Is.
var (
	ErrAuth       = errors.New("not authorized")
	ErrValidation = errors.New("rejected by server")
	ErrNotFound   = errors.New("record not found")
	ErrNetwork    = errors.New("api unreachable")
)

// ErrNoSession is returned when a browser has no signed-in user.
var ErrNoSession = errors.New("no active session")
