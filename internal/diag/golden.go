package diag

import (
	"fmt"
	"sort"
	"strings"

	"tower/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Location string
	Line     uint32
	Column   uint32
	Subject  string
	Message  string
}

// FormatShort renders diagnostics one per line in a stable order, suitable
// for golden files and terse CLI output. Without a FileSet positions render
// as "-".
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendDiagnostic(rendered, &diags[i], fs, includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Location != dj.Location {
			return di.Location < dj.Location
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Subject != dj.Subject {
			return di.Subject < dj.Subject
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s", d.Severity, d.Code, d.Location)
		if d.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", d.Line, d.Column)
		}
		if d.Subject != "" {
			fmt.Fprintf(&b, " %s:", d.Subject)
		}
		fmt.Fprintf(&b, " %s", d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []shortDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes bool) []shortDiagnostic {
	path := locate(fs, d.Primary)
	out = append(out, shortDiagnostic{
		Severity: severityLabel(d.Severity),
		Code:     d.Code.ID(),
		Location: path,
		Line:     d.Primary.Line,
		Column:   d.Primary.Col,
		Subject:  d.Subject,
		Message:  sanitizeMessage(d.Message),
	})

	if includeNotes {
		for _, note := range d.Notes {
			pos := note.Pos
			if !pos.IsValid() {
				pos = d.Primary
			}
			out = append(out, shortDiagnostic{
				Severity: "note",
				Code:     d.Code.ID(),
				Location: locate(fs, pos),
				Line:     pos.Line,
				Column:   pos.Col,
				Subject:  d.Subject,
				Message:  sanitizeMessage(note.Msg),
			})
		}
	}
	return out
}

func locate(fs *source.FileSet, pos source.Pos) string {
	if fs == nil {
		return "-"
	}
	f := fs.Get(pos.File)
	if f == nil {
		return "-"
	}
	return f.DisplayPath(fs.BaseDir())
}

func severityLabel(sev Severity) string {
	switch sev {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
