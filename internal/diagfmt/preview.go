package diagfmt

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"tower/internal/source"
)

// sourcePreview is the fixture line of a position with a caret under its
// column.
type sourcePreview struct {
	line  string
	caret string
}

func buildPreview(fs *source.FileSet, pos source.Pos) (sourcePreview, bool) {
	if fs == nil || !pos.IsValid() {
		return sourcePreview{}, false
	}
	f := fs.Get(pos.File)
	if f == nil {
		return sourcePreview{}, false
	}
	line := strings.ReplaceAll(f.Line(pos.Line), "\t", "    ")
	if strings.TrimSpace(line) == "" {
		return sourcePreview{}, false
	}

	// columns count bytes; the caret is placed by display width
	prefix := f.Line(pos.Line)
	if col := int(pos.Col); col > 1 && col-1 <= len(prefix) {
		prefix = prefix[:col-1]
	} else {
		prefix = ""
	}
	prefix = strings.ReplaceAll(prefix, "\t", "    ")
	return sourcePreview{
		line:  line,
		caret: strings.Repeat(" ", runewidth.StringWidth(prefix)) + "^",
	}, true
}
