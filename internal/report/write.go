package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/vmihailenco/msgpack/v5"

	"tower/internal/diag"
	"tower/internal/diagfmt"
	"tower/internal/scenario"
	"tower/internal/source"
)

// Output formats.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
	FormatShort   = "short"
)

// Formats lists every format Write accepts.
var Formats = []string{FormatText, FormatJSON, FormatMsgpack, FormatShort}

// Options controls rendering.
type Options struct {
	Format         string
	Color          bool
	MaxDiagnostics int
	PathMode       diagfmt.PathMode
	// Verbose shows info diagnostics in text output.
	Verbose bool
}

// Collect diagnoses runs into a sorted bag holding at most max entries.
func Collect(runs []*Run, max int) *diag.Bag {
	bag := diag.NewBag(max)
	reporter := diag.BagReporter{Bag: bag}
	for _, run := range runs {
		Diagnose(run, reporter)
	}
	bag.Sort()
	return bag
}

// Write renders runs and their diagnostics in opts.Format.
func Write(w io.Writer, runs []*Run, bag *diag.Bag, fs *source.FileSet, opts Options) error {
	switch opts.Format {
	case FormatText, "":
		return writeText(w, runs, bag, fs, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(BuildDocument(runs, bag, fs, opts))
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(BuildDocument(runs, bag, fs, opts))
	case FormatShort:
		_, err := io.WriteString(w, diag.FormatShort(bag.Items(), fs, false))
		return err
	}
	return fmt.Errorf("unknown format %q (want one of %s)", opts.Format, strings.Join(Formats, ", "))
}

// DecodeMsgpack reads a document written with FormatMsgpack.
func DecodeMsgpack(r io.Reader) (Document, error) {
	var doc Document
	err := msgpack.NewDecoder(r).Decode(&doc)
	return doc, err
}

const (
	subjectWidth       = 36
	applicabilityWidth = 24
)

type textStyles struct {
	heading lipgloss.Style
	pass    *color.Color
	fail    *color.Color
	faint   *color.Color
	color   bool
}

func newTextStyles(enabled bool) textStyles {
	s := textStyles{
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		pass:    color.New(color.FgGreen),
		fail:    color.New(color.FgRed, color.Bold),
		faint:   color.New(color.Faint),
		color:   enabled,
	}
	for _, c := range []*color.Color{s.pass, s.fail, s.faint} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

func (s textStyles) title(text string) string {
	if !s.color {
		return text
	}
	return s.heading.Render(text)
}

func writeText(w io.Writer, runs []*Run, bag *diag.Bag, fs *source.FileSet, opts Options) error {
	st := newTextStyles(opts.Color)
	var b strings.Builder
	var total Summary
	for _, run := range runs {
		heading := run.Fixture
		if fs != nil {
			if f := fs.Get(run.File); f != nil {
				heading += " (" + f.Path + ")"
			}
		}
		b.WriteString(st.title(heading))
		b.WriteByte('\n')
		if run.Err != nil {
			b.WriteString("  " + st.fail.Sprint("error") + ": " + run.Err.Error() + "\n")
		}
		for i := range run.Results {
			res := &run.Results[i]
			b.WriteString("  ")
			b.WriteString(cell(res.Query.Subject(), subjectWidth))
			b.WriteString(" ")
			b.WriteString(cell(outcomeTier(res), applicabilityWidth))
			b.WriteString(" ")
			b.WriteString(st.mark(res))
			if names := outcomeNames(res); names != "" {
				b.WriteString("  ")
				b.WriteString(names)
			}
			b.WriteByte('\n')
		}
		if run.Timings != nil {
			b.WriteString(indent(run.Timings.Summary(), "  "))
		}
		total.Add(run.Summary())
	}

	if bag != nil && bag.Len() > 0 {
		shown := diag.NewBag(bag.Len())
		for _, d := range bag.Items() {
			if opts.Verbose || d.Severity > diag.SevInfo {
				shown.Add(d)
			}
		}
		if shown.Len() > 0 {
			b.WriteByte('\n')
			if _, err := io.WriteString(w, b.String()); err != nil {
				return err
			}
			b.Reset()
			if err := diagfmt.Pretty(w, shown, fs, diagfmt.PrettyOpts{
				Color:      opts.Color,
				PathMode:   opts.PathMode,
				ShowSource: true,
				ShowNotes:  true,
				Max:        opts.MaxDiagnostics,
			}); err != nil {
				return err
			}
		}
	}

	b.WriteByte('\n')
	line := fmt.Sprintf("%d queries: %d passed, %d failed, %d errors, %d unchecked",
		total.Queries, total.Passed, total.Failed, total.Errors, total.Unchecked)
	if total.OK() {
		b.WriteString(st.pass.Sprint(line))
	} else {
		b.WriteString(st.fail.Sprint(line))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

func (s textStyles) mark(res *scenario.Result) string {
	switch {
	case res.Err != nil:
		return s.fail.Sprint("ERR ")
	case !res.Checked():
		return s.faint.Sprint("-   ")
	case res.Passed():
		return s.pass.Sprint("ok  ")
	default:
		return s.fail.Sprint("FAIL")
	}
}

func outcomeTier(res *scenario.Result) string {
	if res.Err != nil {
		return "error"
	}
	return scenario.ApplicabilityOf(res.Outcome)
}

func outcomeNames(res *scenario.Result) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return strings.Join(scenario.CandidateStrings(res.Outcome), ", ")
}

// cell pads or truncates text to width display columns.
func cell(text string, width int) string {
	if runewidth.StringWidth(text) > width {
		text = runewidth.Truncate(text, width, "…")
	}
	return runewidth.FillRight(text, width)
}

func indent(text, prefix string) string {
	lines := strings.SplitAfter(text, "\n")
	lines = slices.DeleteFunc(lines, func(l string) bool { return l == "" })
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "")
}
