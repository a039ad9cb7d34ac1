package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is the root of every lookup failure: unknown specification, node,
// or a persisted entity reference that no longer resolves.
var ErrNotFound = errors.New("not found")

// ErrUnknownEvent is returned when an event names no edge on the current node.
var ErrUnknownEvent = errors.New("unknown event")

// ErrEmptyStack is returned when the stack has nothing to pop or read.
var ErrEmptyStack = errors.New("fsm stack is empty")

// ErrHopLimit is returned when chained transitions exceed the configured bound.
var ErrHopLimit = errors.New("transition hop limit exceeded")

// ErrUnknownStateKey is returned when a state bag key is not a recognized key.
var ErrUnknownStateKey = errors.New("unknown state key")

// ErrInvalidStage is returned when a live question cannot move to the requested stage.
var ErrInvalidStage = errors.New("invalid live stage transition")

// ErrInvalidInput is returned when event data fails validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrSessionNotFound is returned when a session key has no persisted stack.
var ErrSessionNotFound = errors.New("session not found")

// NotFoundError describes what could not be found.
type NotFoundError struct {
	Kind string // "specification", "node", or an EntityKind
	Name string
	In   string // owning specification, when relevant
}

func (e *NotFoundError) Error() string {
	if e.In != "" {
		return fmt.Sprintf("%s %q not found in %q", e.Kind, e.Name, e.In)
	}
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// UnknownEventError reports an event with no matching edge or handler.
type UnknownEventError struct {
	Spec  string
	Node  string
	Event string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("event %q is not defined on node %s.%s", e.Event, e.Spec, e.Node)
}

func (e *UnknownEventError) Unwrap() error { return ErrUnknownEvent }

// StageError reports a rejected live stage move.
type StageError struct {
	QuestionID string
	From       Stage
	Event      string
	Err        error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("live question %s: cannot %s from stage %s", e.QuestionID, e.Event, e.From)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() []error { return []error{ErrInvalidStage, e.Err} }
