package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tower/internal/diag"
	"tower/internal/observ"
	"tower/internal/scenario"
	"tower/internal/source"
)

const fixture = `name: report
class:
  - name: C
    members:
      - {name: f, kind: fun}
      - {name: secret, kind: fun, visibility: private}
scope:
  - name: main
    decl:
      - {name: g, type: "(C) -> Unit"}
      - {name: g, type: "(C) -> Unit"}
receiver:
  - {name: x, type: C}
query:
  - {name: plain, shape: function, id: f, receiver: x, expect: {candidates: [C.f]}}
  - {name: missing, id: nope}
  - {name: expected missing, id: nope, shape: variable, expect: {empty: true}}
  - {name: ambiguous, id: g}
  - {name: hidden, shape: function, id: secret, receiver: x}
  - {name: wrong, shape: function, id: f, receiver: x, expect: {applicability: inapplicable}}
  - {name: broken, id: f, at: nowhere}
`

func runFixture(t *testing.T) (*Run, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet("")
	fx, err := scenario.Decode(fs, fs.AddVirtual("report.yaml", []byte(fixture)))
	require.NoError(t, err)
	u, err := scenario.Build(fx)
	require.NoError(t, err)
	results, err := scenario.RunAll(context.Background(), u, 2, true)
	require.NoError(t, err)
	return NewRun(fx, results), fs
}

func bySubject(bag *diag.Bag) map[string][]diag.Diagnostic {
	out := make(map[string][]diag.Diagnostic)
	for _, d := range bag.Items() {
		out[d.Subject] = append(out[d.Subject], d)
	}
	return out
}

func codes(ds []diag.Diagnostic) []string {
	var out []string
	for _, d := range ds {
		out = append(out, d.Severity.String()+" "+d.Code.ID())
	}
	return out
}

func TestSummary(t *testing.T) {
	run, _ := runFixture(t)
	assert.Equal(t, Summary{Queries: 7, Passed: 2, Failed: 1, Errors: 1, Unchecked: 3}, run.Summary())
	assert.False(t, run.Summary().OK())
	assert.Equal(t, Summary{Errors: 1}, FailedRun("x", 0, assert.AnError).Summary())
}

func TestDiagnose(t *testing.T) {
	run, _ := runFixture(t)
	got := bySubject(Collect([]*Run{run}, 100))

	assert.Equal(t, []string{"INFO RES1000"}, codes(got["plain"]))
	assert.Equal(t, []string{"ERROR RES1001"}, codes(got["missing"]))
	assert.Equal(t, []string{"INFO RES1001"}, codes(got["expected missing"]), "expected outcomes are informational")
	assert.Equal(t, []string{"ERROR RES1003"}, codes(got["hidden"]))
	assert.Equal(t, []string{"ERROR FIX3002"}, codes(got["broken"]))

	require.Len(t, got["ambiguous"], 1)
	amb := got["ambiguous"][0]
	assert.Equal(t, diag.ResAmbiguous, amb.Code)
	assert.Equal(t, []string{"main.g -> invoke", "main.g -> invoke"}, []string{amb.Notes[0].Msg, amb.Notes[1].Msg})
	assert.Equal(t, uint32(18), amb.Primary.Line)

	assert.ElementsMatch(t, []string{"ERROR RES1100", "INFO RES1000"}, codes(got["wrong"]))
}

func TestDiagnoseFailedRun(t *testing.T) {
	fs := source.NewFileSet("")
	_, err := scenario.Decode(fs, fs.AddVirtual("bad.yaml", []byte("query:\n  - name: q\n")))
	require.Error(t, err)

	bag := Collect([]*Run{FailedRun("bad", 0, err)}, 10)
	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, diag.FixInvalid, d.Code)
	assert.Equal(t, "q", d.Subject)
	assert.Equal(t, uint32(2), d.Primary.Line)
}

func TestWriteText(t *testing.T) {
	run, fs := runFixture(t)
	run.Timings = &observ.Report{TotalMS: 1.5, Phases: []observ.PhaseReport{{Name: "run", DurationMS: 1.5}}}
	bag := Collect([]*Run{run}, 100)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []*Run{run}, bag, fs, Options{Format: FormatText}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "report (report.yaml)\n"))
	assert.Contains(t, out, "  plain                                resolved                 ok    C.f\n")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "ERR ")
	assert.Contains(t, out, "  timings:\n")
	assert.Contains(t, out, "report.yaml:16:5: ERROR RES1001: missing: unresolved reference \"nope\"")
	assert.NotContains(t, out, "RES1000", "info diagnostics need verbose output")
	assert.NotContains(t, out, "\x1b[")
	assert.True(t, strings.HasSuffix(out, "7 queries: 2 passed, 1 failed, 1 errors, 3 unchecked\n"))

	buf.Reset()
	require.NoError(t, Write(&buf, []*Run{run}, bag, fs, Options{Format: FormatText, Verbose: true}))
	assert.Contains(t, buf.String(), "RES1000")
}

func TestWriteMachineFormats(t *testing.T) {
	run, fs := runFixture(t)
	bag := Collect([]*Run{run}, 100)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []*Run{run}, bag, fs, Options{Format: FormatJSON}))
	var fromJSON Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))

	buf.Reset()
	require.NoError(t, Write(&buf, []*Run{run}, bag, fs, Options{Format: FormatMsgpack}))
	fromMsgpack, err := DecodeMsgpack(&buf)
	require.NoError(t, err)

	for _, doc := range []Document{fromJSON, fromMsgpack} {
		require.Len(t, doc.Runs, 1)
		rd := doc.Runs[0]
		assert.Equal(t, run.ID.String(), rd.ID)
		assert.Equal(t, "report.yaml", rd.File)
		require.Len(t, rd.Queries, 7)
		assert.Equal(t, "C.f", rd.Queries[0].Candidates[0].Name)
		assert.Equal(t, "dispatch", rd.Queries[0].Candidates[0].Kind)
		assert.NotEmpty(t, rd.Queries[0].Stats.Attempt)
		assert.Equal(t, "none", rd.Queries[1].Applicability)
		assert.Equal(t, []string{"visibility-error(secret)"}, rd.Queries[4].Candidates[0].Diagnostics)
		assert.NotEmpty(t, rd.Queries[6].Error)
		assert.Empty(t, rd.Queries[6].Stats.Attempt)
		assert.Equal(t, run.Summary(), doc.Summary)
		assert.Equal(t, bag.Len(), doc.Diagnostics.Count)
	}
}

func TestWriteShortAndUnknown(t *testing.T) {
	run, fs := runFixture(t)
	bag := Collect([]*Run{run}, 100)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []*Run{run}, bag, fs, Options{Format: FormatShort}))
	assert.Equal(t, diag.FormatShort(bag.Items(), fs, false), buf.String())

	err := Write(&buf, []*Run{run}, bag, fs, Options{Format: "xml"})
	assert.ErrorContains(t, err, "unknown format")
}

func TestCellAlignment(t *testing.T) {
	assert.Equal(t, "ab  ", cell("ab", 4))
	assert.Equal(t, "名前 ", cell("名前", 5))
	assert.Equal(t, 4, len([]rune(cell("abcdefgh", 4))))
}
