package scenario

import (
	"fmt"
	"slices"
	"strings"

	"tower/internal/policy"
	"tower/internal/tower"
)

// NoCandidates is the applicability an empty outcome is reported with.
const NoCandidates = "none"

// ApplicabilityOf renders the tier of an outcome, NoCandidates when empty.
func ApplicabilityOf(out tower.Outcome[*policy.Candidate]) string {
	if len(out.Candidates) == 0 {
		return NoCandidates
	}
	return out.Applicability.String()
}

// CandidateStrings renders the candidates of an outcome in order.
func CandidateStrings(out tower.Outcome[*policy.Candidate]) []string {
	rendered := make([]string, len(out.Candidates))
	for i, c := range out.Candidates {
		rendered[i] = c.String()
	}
	return rendered
}

func (e *Expect) check(out tower.Outcome[*policy.Candidate]) []string {
	if e == nil {
		return nil
	}
	var mismatches []string
	if e.Empty && len(out.Candidates) > 0 {
		mismatches = append(mismatches, fmt.Sprintf("expected no candidates, got %d", len(out.Candidates)))
	}
	if e.Applicability != "" {
		if got := ApplicabilityOf(out); got != e.Applicability {
			mismatches = append(mismatches, fmt.Sprintf("applicability: want %s, got %s", e.Applicability, got))
		}
	}
	if e.Candidates != nil {
		if got := CandidateStrings(out); !slices.Equal(got, e.Candidates) {
			mismatches = append(mismatches, fmt.Sprintf("candidates: want [%s], got [%s]",
				strings.Join(e.Candidates, ", "), strings.Join(got, ", ")))
		}
	}
	if e.Kind != "" {
		for _, c := range out.Candidates {
			if got := c.Kind.String(); got != e.Kind {
				mismatches = append(mismatches, fmt.Sprintf("receiver kind of %s: want %s, got %s", c, e.Kind, got))
			}
		}
	}
	if len(e.Diagnostics) > 0 {
		var seen []string
		for _, c := range out.Candidates {
			for _, d := range c.Status.Diagnostics {
				seen = append(seen, d.Kind.String())
			}
		}
		for _, want := range e.Diagnostics {
			if !slices.Contains(seen, want) {
				mismatches = append(mismatches, fmt.Sprintf("missing diagnostic %s", want))
			}
		}
	}
	return mismatches
}
