package agent

import (
	"errors"
	"fmt"
)

// Configuration errors, fatal at startup. Match with errors.Is.
var (
	ErrNoAgent     = errors.New("no usable transfer agent found on PATH")
	ErrBadTemplate = errors.New("argument template must contain exactly one {source} and one {destination}")
)

// ErrorKind classifies agent invocation failures.
type ErrorKind string

const (
	ExecutableNotFound ErrorKind = "executable not found"
	NonZeroExit        ErrorKind = "non-zero exit"
	EmptyResponse      ErrorKind = "empty response"
	Cancelled          ErrorKind = "cancelled"
)

// Error is returned for failures of a single agent invocation.
// Output holds whatever the agent wrote before failing, kept for diagnostics.
type Error struct {
	Kind     ErrorKind
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transfer agent %s: %s: %v", e.Command, e.Kind, e.Err)
	}
	return fmt.Sprintf("transfer agent %s: %s", e.Command, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is an agent Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}
