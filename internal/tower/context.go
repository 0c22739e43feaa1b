package tower

import "tower/internal/descriptors"

// ExplicitReceiverKind says which receiver slots of a candidate are filled by
// the receiver written at the call site.
type ExplicitReceiverKind uint8

const (
	NoExplicitReceiver ExplicitReceiverKind = iota
	DispatchReceiver
	ExtensionReceiver
	BothReceivers
)

func (k ExplicitReceiverKind) String() string {
	switch k {
	case NoExplicitReceiver:
		return "none"
	case DispatchReceiver:
		return "dispatch"
	case ExtensionReceiver:
		return "extension"
	case BothReceivers:
		return "both"
	default:
		return "unknown"
	}
}

// Context is the caller's policy for one resolution attempt. C is opaque to
// the engine: it is only created, ranked and transformed through the context.
type Context[C any] interface {
	// Name is the identifier being resolved.
	Name() descriptors.Name
	ScopeTower() *ScopeTower

	CreateCandidate(b Bound, kind ExplicitReceiverKind, extension descriptors.ReceiverValue) C
	Status(c C) Status

	// TransformCandidate combines a variable with the invoke found on it.
	TransformCandidate(variable, invoke C) C
	// ContextForVariable is the context used to look up the value part of an
	// invoke call, optionally ignoring the explicit receiver.
	ContextForVariable(stripExplicitReceiver bool) Context[C]
	// ContextForInvoke returns the receiver a variable evaluates to and the
	// context to resolve invoke on it.
	ContextForInvoke(variable C, useExplicitReceiver bool) (descriptors.ReceiverValue, Context[C])
}

func applicability[C any](ctx Context[C], c C) Applicability {
	return ctx.Status(c).Applicability()
}
