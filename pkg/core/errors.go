package core

import "errors"

// Common errors.
var (
	ErrReadOnly        = errors.New("store is in read-only mode")
	ErrNothingToUndo   = errors.New("nothing to undo")
	ErrMalformedAction = errors.New("malformed action")
	ErrNoStorage       = errors.New("store has no storage")
)
