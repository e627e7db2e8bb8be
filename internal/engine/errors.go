// ABOUTME: Transport error taxonomy
// ABOUTME: Sentinel and typed errors surfaced to transport callers
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineUnavailable means the audio output could not be acquired
	ErrEngineUnavailable = errors.New("audio engine unavailable")

	// ErrInvalidTransition means the transport call is illegal in the current state
	ErrInvalidTransition = errors.New("invalid transport transition")
)

// TransitionError records which call was rejected and the state it was made in
type TransitionError struct {
	Op   string
	From State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s while %s: %v", e.Op, e.From, ErrInvalidTransition)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
