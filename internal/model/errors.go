package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a profile, lead or connection does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError wraps a user-facing validation message. Err, when set, is
// the sentinel the message came from.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return e.Err }

// UpstreamError reports a failed call to the AI backend. Its message is safe
// to show to the user.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s failed: %v", e.Op, e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }
