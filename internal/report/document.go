package report

import (
	"time"

	"tower/internal/diag"
	"tower/internal/diagfmt"
	"tower/internal/observ"
	"tower/internal/policy"
	"tower/internal/scenario"
	"tower/internal/source"
)

// Document is the machine-readable form of a report, shared by the JSON and
// msgpack encoders.
type Document struct {
	Runs        []RunDoc                  `json:"runs" msgpack:"runs"`
	Summary     Summary                   `json:"summary" msgpack:"summary"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics" msgpack:"diagnostics"`
}

type RunDoc struct {
	ID      string         `json:"id" msgpack:"id"`
	Fixture string         `json:"fixture" msgpack:"fixture"`
	File    string         `json:"file,omitempty" msgpack:"file,omitempty"`
	Error   string         `json:"error,omitempty" msgpack:"error,omitempty"`
	Summary Summary        `json:"summary" msgpack:"summary"`
	Queries []QueryDoc     `json:"queries" msgpack:"queries"`
	Timings *observ.Report `json:"timings,omitempty" msgpack:"timings,omitempty"`
}

type QueryDoc struct {
	Subject       string         `json:"subject" msgpack:"subject"`
	Shape         string         `json:"shape" msgpack:"shape"`
	ID            string         `json:"id" msgpack:"id"`
	Line          uint32         `json:"line,omitempty" msgpack:"line,omitempty"`
	Applicability string         `json:"applicability" msgpack:"applicability"`
	Candidates    []CandidateDoc `json:"candidates" msgpack:"candidates"`
	Passed        bool           `json:"passed" msgpack:"passed"`
	Mismatches    []string       `json:"mismatches,omitempty" msgpack:"mismatches,omitempty"`
	Error         string         `json:"error,omitempty" msgpack:"error,omitempty"`
	Stats         StatsDoc       `json:"stats" msgpack:"stats"`
}

type CandidateDoc struct {
	Name          string   `json:"name" msgpack:"name"`
	Kind          string   `json:"kind" msgpack:"kind"`
	Applicability string   `json:"applicability" msgpack:"applicability"`
	Diagnostics   []string `json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

// StatsDoc mirrors tower.Stats.
type StatsDoc struct {
	Attempt   string  `json:"attempt" msgpack:"attempt"`
	Steps     int     `json:"steps" msgpack:"steps"`
	Groups    int     `json:"groups" msgpack:"groups"`
	Levels    int     `json:"levels" msgpack:"levels"`
	Receivers int     `json:"receivers" msgpack:"receivers"`
	Early     bool    `json:"early" msgpack:"early"`
	ElapsedMS float64 `json:"elapsed_ms" msgpack:"elapsed_ms"`
}

// BuildDocument converts runs and their diagnostics.
func BuildDocument(runs []*Run, bag *diag.Bag, fs *source.FileSet, opts Options) Document {
	doc := Document{Runs: make([]RunDoc, 0, len(runs))}
	for _, run := range runs {
		rd := RunDoc{
			ID:      run.ID.String(),
			Fixture: run.Fixture,
			Summary: run.Summary(),
			Queries: make([]QueryDoc, 0, len(run.Results)),
			Timings: run.Timings,
		}
		if fs != nil && fs.Get(run.File) != nil {
			rd.File = fs.Get(run.File).Path
		}
		if run.Err != nil {
			rd.Error = run.Err.Error()
		}
		for i := range run.Results {
			rd.Queries = append(rd.Queries, queryDoc(&run.Results[i]))
		}
		doc.Summary.Add(rd.Summary)
		doc.Runs = append(doc.Runs, rd)
	}
	doc.Diagnostics = diagfmt.BuildDiagnosticsOutput(bag, fs, diagfmt.JSONOpts{
		IncludePositions: true,
		PathMode:         opts.PathMode,
		Max:              opts.MaxDiagnostics,
		IncludeNotes:     true,
	})
	return doc
}

func queryDoc(res *scenario.Result) QueryDoc {
	q := res.Query
	out := res.Outcome
	qd := QueryDoc{
		Subject:       q.Subject(),
		Shape:         string(q.Shape),
		ID:            q.ID,
		Line:          q.Pos.Line,
		Applicability: scenario.ApplicabilityOf(out),
		Candidates:    make([]CandidateDoc, 0, len(out.Candidates)),
		Passed:        res.Passed(),
		Mismatches:    res.Mismatches,
		Stats: StatsDoc{
			Steps:     out.Stats.Steps,
			Groups:    out.Stats.Groups,
			Levels:    out.Stats.Levels,
			Receivers: out.Stats.Receivers,
			Early:     out.Stats.Early,
			ElapsedMS: float64(out.Stats.Elapsed) / float64(time.Millisecond),
		},
	}
	if res.Err != nil {
		qd.Error = res.Err.Error()
	} else {
		qd.Stats.Attempt = out.Stats.Attempt.String()
	}
	for _, c := range out.Candidates {
		qd.Candidates = append(qd.Candidates, candidateDoc(c))
	}
	return qd
}

func candidateDoc(c *policy.Candidate) CandidateDoc {
	cd := CandidateDoc{
		Name:          c.String(),
		Kind:          c.Kind.String(),
		Applicability: c.Applicability().String(),
	}
	for _, d := range c.Status.Diagnostics {
		cd.Diagnostics = append(cd.Diagnostics, d.String())
	}
	return cd
}
