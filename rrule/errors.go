package rrule

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors produced by the engine.
type ErrorKind string

const (
	// ErrInvalidRule is a construction error: the rule's raw fields are
	// contradictory or out of range. It is raised before iteration starts.
	ErrInvalidRule ErrorKind = "invalid_rule"
	// ErrGenerationLimit is raised mid-iteration when a loop guard trips.
	// The iterator that raised it stays failed.
	ErrGenerationLimit ErrorKind = "generation_limit"
)

// Error represents an engine error
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err wraps an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func invalidRule(format string, args ...any) error {
	return &Error{Kind: ErrInvalidRule, Message: fmt.Sprintf(format, args...)}
}

func generationLimit(format string, args ...any) error {
	return &Error{Kind: ErrGenerationLimit, Message: fmt.Sprintf(format, args...)}
}
