package censor

import (
	"strings"

	"github.com/pkg/errors"
)

// State is protection level of a part. Higher values take precedence in conflict resolution.
type State uint8

const (
	StateUnprotected State = iota + 1
	StateRevealed
	StateProtected
)

func (s State) String() string {
	switch s {
	case StateUnprotected:
		return "unprotected"
	case StateRevealed:
		return "revealed"
	case StateProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// ParseState converts configuration name of the state (case insensitive)
func ParseState(name string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "unprotected":
		return StateUnprotected, nil
	case "revealed":
		return StateRevealed, nil
	case "protected":
		return StateProtected, nil
	default:
		return 0, errors.Wrapf(ErrUnknownState, "%q", name)
	}
}
