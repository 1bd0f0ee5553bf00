package common

import "errors"

var (
	// ErrPrecondition marks caller misuse: an operation invoked in a state
	// that does not allow it. It is never converted into a user-facing
	// message; callers match it with errors.Is.
	ErrPrecondition = errors.New("precondition failed")
)
