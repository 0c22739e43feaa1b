package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tower/internal/source"
	"tower/internal/trace"
)

func loadUniverse(t *testing.T, name string) *Universe {
	t.Helper()
	fx, err := Load(source.NewFileSet(""), filepath.Join("testdata", name))
	require.NoError(t, err)
	u, err := Build(fx)
	require.NoError(t, err)
	return u
}

func TestFixturesPass(t *testing.T) {
	for _, name := range []string{"members.toml", "invoke.yaml"} {
		t.Run(name, func(t *testing.T) {
			u := loadUniverse(t, name)
			results, err := RunAll(context.Background(), u, 4, true)
			require.NoError(t, err)
			require.Len(t, results, len(u.Fixture.Queries))
			for i := range results {
				r := &results[i]
				assert.Same(t, &u.Fixture.Queries[i], r.Query, "results keep fixture order")
				assert.NoError(t, r.Err, r.Query.Subject())
				assert.Empty(t, r.Mismatches, r.Query.Subject())
				assert.True(t, r.Checked())
			}
		})
	}
}

func TestTwoInvokableValuesAreAmbiguous(t *testing.T) {
	u := loadUniverse(t, "invoke.yaml")
	q := &Query{Shape: ShapeCall, ID: "g"}
	r := u.Run(context.Background(), q, true)
	require.NoError(t, r.Err)
	require.Len(t, r.Outcome.Candidates, 2)
	assert.NotEqual(t, r.Outcome.Candidates[0].Variable.Descriptor(), r.Outcome.Candidates[1].Variable.Descriptor())
	assert.False(t, r.Checked())
	assert.True(t, r.Passed())
}

func TestRunReportsMismatches(t *testing.T) {
	u := loadUniverse(t, "members.toml")
	q := &Query{Shape: ShapeFunction, ID: "f", Receiver: "x", Expect: &Expect{
		Applicability: "inapplicable",
		Candidates:    []string{"f"},
		Kind:          "extension",
		Diagnostics:   []string{"synthesized"},
		Empty:         true,
	}}
	r := u.Run(context.Background(), q, true)
	require.NoError(t, r.Err)
	assert.False(t, r.Passed())
	assert.Equal(t, []string{
		"expected no candidates, got 1",
		"applicability: want inapplicable, got resolved",
		"candidates: want [f], got [C.f]",
		"receiver kind of C.f: want extension, got dispatch",
		"missing diagnostic synthesized",
	}, r.Mismatches)
}

func TestRunQueryErrors(t *testing.T) {
	u := loadUniverse(t, "members.toml")
	for _, q := range []*Query{
		{Shape: ShapeCall, ID: "f", At: "nowhere"},
		{Shape: ShapeCall, ID: "f", Receiver: "ghost"},
		{Shape: ShapeCall, ID: "f", Qualifier: "Ghost"},
		{Shape: ShapeExplicitInvoke, ID: "invoke", Value: "ghost"},
		{Shape: "lambda", ID: "f"},
	} {
		r := u.Run(context.Background(), q, true)
		assert.Error(t, r.Err, "%+v", q)
		assert.Empty(t, r.Outcome.Candidates)
		assert.False(t, r.Passed())
	}
}

func TestQualifierByFixtureName(t *testing.T) {
	u := mustBuild(t, `import:
  - name: lib
    decl: [{name: util, kind: fun}]
decl:
  - {name: util, kind: fun}
`)
	r := u.Run(context.Background(), &Query{Shape: ShapeFunction, ID: "util", Qualifier: "lib"}, true)
	require.NoError(t, r.Err)
	assert.Equal(t, []string{"util"}, CandidateStrings(r.Outcome))

	r = u.Run(context.Background(), &Query{Shape: ShapeFunction, ID: "util"}, true)
	require.Len(t, r.Outcome.Candidates, 1)
	id, ok := u.Table.SymbolOf(r.Outcome.Candidates[0].Descriptor())
	require.True(t, ok)
	assert.Equal(t, u.packages["fixture"], u.Table.Symbols.Get(id).Scope, "the file scope shadows imports")
}

func TestRunAllCancelled(t *testing.T) {
	u := loadUniverse(t, "invoke.yaml")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunAll(ctx, u, 2, true)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "run invoke")
}

func TestRunAllTraces(t *testing.T) {
	u := loadUniverse(t, "invoke.yaml")
	ring := trace.NewRingTracer(1024, trace.LevelDebug)
	_, err := RunAll(trace.WithTracer(context.Background(), ring), u, 1, false)
	require.NoError(t, err)

	var runs int
	for _, ev := range ring.Snapshot() {
		if ev.Scope == trace.ScopeDriver && ev.Name == "run" && ev.Kind == trace.KindSpanEnd {
			runs++
		}
	}
	assert.Equal(t, 1, runs)
}

func TestRunAllEmpty(t *testing.T) {
	u := mustBuild(t, "decl: [{name: f}]\n")
	results, err := RunAll(context.Background(), u, 0, true)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestApplicabilityOfEmptyOutcome(t *testing.T) {
	u := mustBuild(t, "decl: [{name: f}]\n")
	r := u.Run(context.Background(), &Query{Shape: ShapeVariable, ID: "g"}, true)
	assert.Equal(t, NoCandidates, ApplicabilityOf(r.Outcome))
	assert.Empty(t, CandidateStrings(r.Outcome))
}
