package descriptors

import "fmt"

// Receiver is anything usable as the explicit receiver of a call: a
// ReceiverValue or a Qualifier.
type Receiver interface {
	fmt.Stringer
}

// ReceiverValue is a typed value usable as dispatch or extension receiver.
// Implementations must be comparable.
type ReceiverValue interface {
	Receiver
	Type() Type
}

// Qualifier is a package or class reference written before a dot.
type Qualifier interface {
	Receiver
	// StaticScope holds nested classifiers and static members.
	StaticScope() Scope
	// CompanionReceiver is the companion object value, nil if there is none.
	CompanionReceiver() ReceiverValue
}

type noReceiver struct{}

func (noReceiver) String() string { return "<no receiver>" }
func (noReceiver) Type() Type     { return nil }

// NoReceiver is passed to collaborators where a receiver is mandatory but
// absent.
var NoReceiver ReceiverValue = noReceiver{}

// IsNoReceiver reports nil or the sentinel.
func IsNoReceiver(r ReceiverValue) bool {
	return r == nil || r == NoReceiver
}

// DataFlowValue is the data-flow identity of a receiver.
type DataFlowValue interface {
	// IsStable reports whether the value cannot change between its
	// evaluation and its use.
	IsStable() bool
}

// DataFlowInfo provides smart-cast facts at the resolution point.
type DataFlowInfo interface {
	DataFlowValue(r ReceiverValue) DataFlowValue
	// PossibleTypes lists narrowed types of v, excluding the declared type.
	PossibleTypes(v DataFlowValue) []Type
}

// VisibilityChecker finds the member that makes d invisible from the given
// owner, or returns nil when d is visible.
type VisibilityChecker interface {
	FindInvisibleMember(dispatch ReceiverValue, d Descriptor, from Descriptor) Descriptor
}

// VisibilityFunc adapts a function to VisibilityChecker.
type VisibilityFunc func(dispatch ReceiverValue, d Descriptor, from Descriptor) Descriptor

// FindInvisibleMember calls f.
func (f VisibilityFunc) FindInvisibleMember(dispatch ReceiverValue, d Descriptor, from Descriptor) Descriptor {
	return f(dispatch, d, from)
}

// InvokeSynthesizer turns the invoke member of an extension function type
// into an extension function.
type InvokeSynthesizer interface {
	SynthesizeInvoke(invoke Descriptor) Descriptor
}
