package task

import (
	"errors"
	"fmt"
)

// Kind classifies planner errors.
type Kind string

const (
	KindInvalidTask       Kind = "INVALID_TASK"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindInvalidScore      Kind = "INVALID_SCORE"
	KindInvalidTree       Kind = "INVALID_TREE"
	KindState             Kind = "STATE_ERROR"
)

var kindTitles = map[Kind]string{
	KindInvalidTask:       "Invalid task operation",
	KindInvalidTransition: "Invalid status transition",
	KindInvalidScore:      "Invalid score values",
	KindInvalidTree:       "Invalid tree structure",
	KindState:             "State update error",
}

// Title returns the short human-readable heading for the kind.
func (k Kind) Title() string {
	if t, ok := kindTitles[k]; ok {
		return t
	}
	return "Error"
}

// Error is a typed planner failure.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.Title()
	}
	return e.Msg
}

// Is matches sentinels (errors without a message) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// Sentinels for errors.Is.
var (
	ErrInvalidTask       = &Error{Kind: KindInvalidTask}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrInvalidScore      = &Error{Kind: KindInvalidScore}
	ErrInvalidTree       = &Error{Kind: KindInvalidTree}
	ErrState             = &Error{Kind: KindState}
)

// Errorf builds an *Error of the given kind.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err. Errors not raised by the planner are
// reported as KindState.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindState
}

// Describe splits err into a display title and message.
func Describe(err error) (title, message string) {
	if err == nil {
		return "", ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.Title(), e.Error()
	}
	return KindState.Title(), err.Error()
}
