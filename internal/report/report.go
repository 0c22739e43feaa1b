package report

import (
	"github.com/google/uuid"

	"tower/internal/observ"
	"tower/internal/scenario"
	"tower/internal/source"
)

// Run is the outcome of running one fixture.
type Run struct {
	ID      uuid.UUID
	Fixture string
	File    source.FileID
	Results []scenario.Result
	// Timings is set when phase timings were requested.
	Timings *observ.Report
	// Err is a fixture that could not be loaded or built; Results is then
	// empty.
	Err error
}

// NewRun wraps the results of fx under a fresh run id.
func NewRun(fx *scenario.Fixture, results []scenario.Result) *Run {
	return &Run{
		ID:      uuid.New(),
		Fixture: fx.Name,
		File:    fx.File,
		Results: results,
	}
}

// FailedRun records a fixture that never produced results.
func FailedRun(name string, file source.FileID, err error) *Run {
	return &Run{ID: uuid.New(), Fixture: name, File: file, Err: err}
}

// Summary counts query outcomes.
type Summary struct {
	Queries   int `json:"queries" msgpack:"queries"`
	Passed    int `json:"passed" msgpack:"passed"`
	Failed    int `json:"failed" msgpack:"failed"`
	Errors    int `json:"errors" msgpack:"errors"`
	Unchecked int `json:"unchecked" msgpack:"unchecked"`
}

// Add folds other into s.
func (s *Summary) Add(other Summary) {
	s.Queries += other.Queries
	s.Passed += other.Passed
	s.Failed += other.Failed
	s.Errors += other.Errors
	s.Unchecked += other.Unchecked
}

// OK reports a summary without failures or errors.
func (s Summary) OK() bool { return s.Failed == 0 && s.Errors == 0 }

// Summary counts the results of r. A run that failed to load counts as one
// error.
func (r *Run) Summary() Summary {
	if r.Err != nil {
		return Summary{Errors: 1}
	}
	s := Summary{Queries: len(r.Results)}
	for i := range r.Results {
		res := &r.Results[i]
		switch {
		case res.Err != nil:
			s.Errors++
		case !res.Checked():
			s.Unchecked++
		case res.Passed():
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}
