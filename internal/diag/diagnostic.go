package diag

import (
	"tower/internal/source"
)

// Note adds context to a diagnostic, e.g. a rejected candidate.
type Note struct {
	Pos source.Pos
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	// Subject names what the diagnostic is about, usually a query.
	Subject string
	Message string
	// Primary points into the fixture; the zero line means "whole file".
	Primary source.Pos
	Notes   []Note
}
