package report

import (
	"errors"
	"fmt"
	"strings"

	"tower/internal/diag"
	"tower/internal/policy"
	"tower/internal/scenario"
	"tower/internal/source"
	"tower/internal/tower"
)

// Diagnose reports every result of run to r. Outcomes that meet an explicit
// expectation are reported as info; mismatches and failed queries are
// errors.
func Diagnose(run *Run, r diag.Reporter) {
	r = diag.NewDedupReporter(r)
	if run.Err != nil {
		reportError(r, run.Err, run.Fixture, source.Pos{File: run.File})
		return
	}
	for i := range run.Results {
		diagnoseResult(r, &run.Results[i])
	}
}

func reportError(r diag.Reporter, err error, subject string, pos source.Pos) {
	var fe *scenario.Error
	if errors.As(err, &fe) {
		if fe.Pos.IsValid() || !pos.IsValid() {
			pos = fe.Pos
		}
		if fe.Subject != "" {
			subject = fe.Subject
		}
		diag.ReportError(r, fe.Code, subject, pos, fe.Err.Error()).Emit()
		return
	}
	diag.ReportError(r, diag.ResQueryFailed, subject, pos, err.Error()).Emit()
}

func diagnoseResult(r diag.Reporter, res *scenario.Result) {
	q := res.Query
	subject := q.Subject()
	if res.Err != nil {
		reportError(r, res.Err, subject, q.Pos)
		return
	}
	if len(res.Mismatches) > 0 {
		b := diag.ReportError(r, diag.ResExpectationMismatch, subject, q.Pos,
			fmt.Sprintf("%d expectation(s) not met", len(res.Mismatches)))
		for _, m := range res.Mismatches {
			b.WithNote(source.Pos{}, m)
		}
		b.Emit()
	}

	expected := res.Checked() && res.Passed()
	sev := func(s diag.Severity) diag.Severity {
		if expected {
			return diag.SevInfo
		}
		return s
	}

	out := res.Outcome
	switch len(out.Candidates) {
	case 0:
		diag.NewReportBuilder(r, sev(diag.SevError), diag.ResUnresolved, subject, q.Pos,
			fmt.Sprintf("unresolved reference %q", q.ID)).Emit()
		return
	case 1:
	default:
		b := diag.NewReportBuilder(r, sev(diag.SevError), diag.ResAmbiguous, subject, q.Pos,
			fmt.Sprintf("ambiguous %q: %d candidates at %s", q.ID, len(out.Candidates), out.Applicability))
		for _, c := range out.Candidates {
			b.WithNote(source.Pos{}, c.String())
		}
		b.Emit()
	}

	annotated := false
	for _, c := range out.Candidates {
		for _, d := range c.Status.Diagnostics {
			code := codeFor(d)
			diag.NewReportBuilder(r, sev(severityFor(d.Level)), code, subject, q.Pos,
				fmt.Sprintf("%s: %s", c, d)).Emit()
			annotated = true
		}
	}
	if len(out.Candidates) == 1 && !annotated {
		c := out.Candidates[0]
		diag.ReportInfo(r, diag.ResInfo, subject, q.Pos, describeCandidate(c)).Emit()
	}
	if out.Stats.Levels > 1 && out.Applicability.IsSuccess() {
		diag.ReportInfo(r, diag.ResNonLocalResolution, subject, q.Pos,
			fmt.Sprintf("resolved on tower level %d", out.Stats.Levels)).Emit()
	}
}

func describeCandidate(c *policy.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "resolved to %s", c)
	if c.Kind != tower.NoExplicitReceiver {
		fmt.Fprintf(&b, " (%s receiver)", c.Kind)
	}
	return b.String()
}

func codeFor(d tower.Diagnostic) diag.Code {
	switch d.Kind {
	case tower.DiagErrorDescriptor:
		return diag.ResErrorDescriptor
	case tower.DiagSynthesized:
		return diag.ResSynthesized
	case tower.DiagUsedSmartCastForDispatchReceiver:
		return diag.ResSmartCastDispatch
	case tower.DiagUnstableSmartCast:
		return diag.ResUnstableSmartCast
	case tower.DiagVisibilityError:
		return diag.ResInvisibleMember
	case tower.DiagNestedClassViaInstanceReference:
		return diag.ResNestedViaInstance
	case tower.DiagInnerClassViaStaticReference:
		return diag.ResInnerViaStatic
	case tower.DiagUnsupportedInnerClassCall:
		return diag.ResUnsupportedInnerCall
	case tower.DiagPreviousResolutionError:
		if d.Level == tower.Inapplicable {
			return diag.ResReceiverMismatch
		}
		return diag.ResRuntimeError
	}
	return diag.ResHint
}

func severityFor(level tower.Applicability) diag.Severity {
	switch {
	case level.IsSuccess():
		return diag.SevInfo
	case level <= tower.MayThrowRuntimeError:
		return diag.SevWarning
	default:
		return diag.SevError
	}
}
