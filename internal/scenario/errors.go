package scenario

import (
	"fmt"

	"tower/internal/diag"
	"tower/internal/source"
)

// Error is a fixture problem tied to a code and, for YAML fixtures, a
// position.
type Error struct {
	Code    diag.Code
	Pos     source.Pos
	Subject string
	Err     error
}

func (e *Error) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s: %v", e.Code.ID(), e.Subject, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code.ID(), e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func fixtureError(code diag.Code, pos source.Pos, subject, format string, args ...any) *Error {
	return &Error{Code: code, Pos: pos, Subject: subject, Err: fmt.Errorf(format, args...)}
}
