package censor

import "github.com/pkg/errors"

var (
	// ErrInvalidTolerance is returned when approximate region scale factor is not positive
	ErrInvalidTolerance = errors.New("approximate region tolerance must be positive")
	// ErrInvalidMargin is returned when margin would invert the box
	ErrInvalidMargin = errors.New("margin must not be below -1.0")
	// ErrUnknownState is returned for state names other than unprotected, revealed and protected
	ErrUnknownState = errors.New("unknown state")
	// ErrUnknownShape is returned when no shape generator is registered for the name
	ErrUnknownShape = errors.New("unknown shape")
	// ErrNoPolicy is returned when a detection label has no resolved policy
	ErrNoPolicy = errors.New("no policy for label")
)
