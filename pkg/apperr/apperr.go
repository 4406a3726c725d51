// Package apperr defines the failure categories reported by the acquisition pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Type categorizes an error for consistent messaging and exit codes.
type Type string

const (
	Network     Type = "network"      // transport or HTTP failure while downloading
	InstallTool Type = "install_tool" // the extractor exited with a nonzero status
	NotFound    Type = "not_found"    // executable, archive or catalogue entry is missing
	Filesystem  Type = "filesystem"   // mkdir, write or chmod failed
	Validation  Type = "validation"
	Internal    Type = "internal"
)

// NoExitCode marks errors that did not come from a subprocess.
const NoExitCode = -1

// Error is a categorized, human-readable failure.
type Error struct {
	Type     Type
	Message  string
	ExitCode int
	Err      error // optional underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs an Error without an exit code.
func New(t Type, msg string, err error) *Error {
	return &Error{Type: t, Message: msg, ExitCode: NoExitCode, Err: err}
}

// WithExitCode constructs an InstallTool error carrying the subprocess exit status.
func WithExitCode(code int, msg string, err error) *Error {
	return &Error{Type: InstallTool, Message: msg, ExitCode: code, Err: err}
}

// IsType reports whether any error in err's chain is an *Error of type t.
func IsType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// ExitCodeOf returns the subprocess exit code carried by err, if any.
func ExitCodeOf(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.ExitCode != NoExitCode {
		return e.ExitCode, true
	}
	return 0, false
}
