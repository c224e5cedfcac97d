package model

import "errors"

// Failure kinds surfaced by the scoring core. Callers match them with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrMalformedResearch = errors.New("malformed research")
	ErrIncompleteContext = errors.New("incomplete context")
	ErrCacheIO           = errors.New("cache io")
)
