package tower

// Applicability ranks candidates; lower values win.
type Applicability uint8

const (
	Resolved Applicability = iota
	ResolvedSynthesized
	ConventionError
	MayThrowRuntimeError
	RuntimeError
	ImpossibleToGenerate
	Inapplicable
)

func (a Applicability) String() string {
	switch a {
	case Resolved:
		return "resolved"
	case ResolvedSynthesized:
		return "resolved-synthesized"
	case ConventionError:
		return "convention-error"
	case MayThrowRuntimeError:
		return "may-throw-runtime-error"
	case RuntimeError:
		return "runtime-error"
	case ImpossibleToGenerate:
		return "impossible-to-generate"
	case Inapplicable:
		return "inapplicable"
	default:
		return "unknown"
	}
}

// IsSuccess reports the two tiers a call may be completed with.
func (a Applicability) IsSuccess() bool {
	return a == Resolved || a == ResolvedSynthesized
}

// Status is the set of diagnostics a policy attributes to a candidate.
type Status struct {
	Diagnostics []Diagnostic
}

// NewStatus builds a status from diagnostics.
func NewStatus(diagnostics ...Diagnostic) Status {
	return Status{Diagnostics: diagnostics}
}

// Applicability is the worst tier among the diagnostics, Resolved if there are none.
func (s Status) Applicability() Applicability {
	result := Resolved
	for _, d := range s.Diagnostics {
		if d.Level > result {
			result = d.Level
		}
	}
	return result
}

// ResolutionStatus is the outcome of an earlier, non-tower resolution stage.
type ResolutionStatus uint8

const (
	StatusSuccess ResolutionStatus = iota
	StatusIncompleteTypeInference
	StatusUnsafeCallError
	StatusOtherError
)

func (s ResolutionStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusIncompleteTypeInference:
		return "incomplete-type-inference"
	case StatusUnsafeCallError:
		return "unsafe-call-error"
	default:
		return "other-error"
	}
}

// PreviousResolveError maps an earlier stage outcome to a diagnostic. Success
// and incomplete inference carry no penalty.
func PreviousResolveError(status ResolutionStatus) (Diagnostic, bool) {
	switch status {
	case StatusSuccess, StatusIncompleteTypeInference:
		return Diagnostic{}, false
	case StatusUnsafeCallError:
		return PreviousResolutionError(MayThrowRuntimeError), true
	default:
		return PreviousResolutionError(Inapplicable), true
	}
}
