package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"tower/internal/diag"
	"tower/internal/source"
)

type palette struct {
	sev      map[diag.Severity]*color.Color
	location *color.Color
	gutter   *color.Color
	note     *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevInfo:    color.New(color.FgCyan),
		},
		location: color.New(color.Bold),
		gutter:   color.New(color.FgBlue),
		note:     color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.location, p.gutter, p.note, p.sev[diag.SevError], p.sev[diag.SevWarning], p.sev[diag.SevInfo]} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty форматирует диагностики в человекочитаемый вид. Идёт по
// bag.Items() (ожидается bag.Sort() заранее). Each diagnostic is
//
//	<path>:<line>:<col>: <SEV> <CODE>: <subject>: <message>
//
// followed by the fixture line with a caret and then the notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}

	var b strings.Builder
	for i := range items {
		d := &items[i]
		b.WriteString(p.location.Sprint(describe(fs, d.Primary, opts.PathMode)))
		b.WriteString(": ")
		b.WriteString(p.sev[d.Severity].Sprintf("%s %s", d.Severity, d.Code.ID()))
		b.WriteString(": ")
		if d.Subject != "" {
			b.WriteString(d.Subject)
			b.WriteString(": ")
		}
		b.WriteString(d.Message)
		b.WriteByte('\n')

		if opts.ShowSource {
			if preview, ok := buildPreview(fs, d.Primary); ok {
				fmt.Fprintf(&b, "%s %s\n", p.gutter.Sprintf("%5d |", d.Primary.Line), preview.line)
				fmt.Fprintf(&b, "%s %s\n", p.gutter.Sprint("      |"), p.sev[d.Severity].Sprint(preview.caret))
			}
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				b.WriteString("  ")
				b.WriteString(p.note.Sprint("note"))
				b.WriteString(": ")
				if n.Pos.IsValid() && n.Pos != d.Primary {
					b.WriteString(describe(fs, n.Pos, opts.PathMode))
					b.WriteString(": ")
				}
				b.WriteString(n.Msg)
				b.WriteByte('\n')
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func describe(fs *source.FileSet, pos source.Pos, mode PathMode) string {
	if fs == nil {
		return "-"
	}
	path := formatPath(fs, pos.File, mode)
	if !pos.IsValid() {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, pos.Line, pos.Col)
}
