package tower

import (
	"fmt"

	"tower/internal/descriptors"
)

// DiagnosticKind enumerates the closed set of candidate annotations.
type DiagnosticKind uint8

const (
	DiagErrorDescriptor DiagnosticKind = iota + 1
	DiagSynthesized
	DiagUsedSmartCastForDispatchReceiver
	DiagUnstableSmartCast
	DiagVisibilityError
	DiagNestedClassViaInstanceReference
	DiagInnerClassViaStaticReference
	DiagUnsupportedInnerClassCall
	DiagPreviousResolutionError
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagErrorDescriptor:
		return "error-descriptor"
	case DiagSynthesized:
		return "synthesized"
	case DiagUsedSmartCastForDispatchReceiver:
		return "used-smart-cast-for-dispatch-receiver"
	case DiagUnstableSmartCast:
		return "unstable-smart-cast"
	case DiagVisibilityError:
		return "visibility-error"
	case DiagNestedClassViaInstanceReference:
		return "nested-class-via-instance-reference"
	case DiagInnerClassViaStaticReference:
		return "inner-class-via-static-reference"
	case DiagUnsupportedInnerClassCall:
		return "unsupported-inner-class-call"
	case DiagPreviousResolutionError:
		return "previous-resolution-error"
	default:
		return "unknown"
	}
}

// Diagnostic annotates a candidate with the tier it implies. Only the payload
// field matching Kind is set.
type Diagnostic struct {
	Kind  DiagnosticKind
	Level Applicability

	SmartCastType   descriptors.Type       // DiagUsedSmartCastForDispatchReceiver
	InvisibleMember descriptors.Descriptor // DiagVisibilityError
	Class           descriptors.Class      // nested/inner class diagnostics
	Message         string                 // DiagUnsupportedInnerClassCall
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagUsedSmartCastForDispatchReceiver:
		return fmt.Sprintf("%s(%s)", d.Kind, typeString(d.SmartCastType))
	case DiagVisibilityError:
		if d.InvisibleMember != nil {
			return fmt.Sprintf("%s(%s)", d.Kind, d.InvisibleMember.Name())
		}
	case DiagNestedClassViaInstanceReference, DiagInnerClassViaStaticReference:
		if d.Class != nil {
			return fmt.Sprintf("%s(%s)", d.Kind, d.Class.Name())
		}
	case DiagUnsupportedInnerClassCall:
		return fmt.Sprintf("%s(%s)", d.Kind, d.Message)
	case DiagPreviousResolutionError:
		return fmt.Sprintf("%s(%s)", d.Kind, d.Level)
	}
	return d.Kind.String()
}

func typeString(t descriptors.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// ErrorDescriptor marks a candidate whose descriptor is an error placeholder.
// It does not lower the tier: the error was already reported elsewhere.
func ErrorDescriptor() Diagnostic {
	return Diagnostic{Kind: DiagErrorDescriptor, Level: Resolved}
}

// Synthesized marks synthesized and low-priority candidates.
func Synthesized() Diagnostic {
	return Diagnostic{Kind: DiagSynthesized, Level: ResolvedSynthesized}
}

// UsedSmartCastForDispatchReceiver records that t was needed to find the member.
func UsedSmartCastForDispatchReceiver(t descriptors.Type) Diagnostic {
	return Diagnostic{Kind: DiagUsedSmartCastForDispatchReceiver, Level: Resolved, SmartCastType: t}
}

// UnstableSmartCast marks members found through a narrowing that may not hold.
func UnstableSmartCast() Diagnostic {
	return Diagnostic{Kind: DiagUnstableSmartCast, Level: MayThrowRuntimeError}
}

// VisibilityError marks candidates that are not visible from the use site.
func VisibilityError(invisible descriptors.Descriptor) Diagnostic {
	return Diagnostic{Kind: DiagVisibilityError, Level: RuntimeError, InvisibleMember: invisible}
}

// NestedClassViaInstanceReference marks a nested class reached through a value.
func NestedClassViaInstanceReference(c descriptors.Class) Diagnostic {
	return Diagnostic{Kind: DiagNestedClassViaInstanceReference, Level: ImpossibleToGenerate, Class: c}
}

// InnerClassViaStaticReference marks an inner class reached through a qualifier.
func InnerClassViaStaticReference(c descriptors.Class) Diagnostic {
	return Diagnostic{Kind: DiagInnerClassViaStaticReference, Level: ImpossibleToGenerate, Class: c}
}

// UnsupportedInnerClassCall marks inner class constructors called without an instance.
func UnsupportedInnerClassCall(message string) Diagnostic {
	return Diagnostic{Kind: DiagUnsupportedInnerClassCall, Level: ImpossibleToGenerate, Message: message}
}

// PreviousResolutionError carries the tier of an earlier resolution stage.
func PreviousResolutionError(level Applicability) Diagnostic {
	return Diagnostic{Kind: DiagPreviousResolutionError, Level: level}
}
