package tower

import (
	"slices"

	"tower/internal/descriptors"
)

// Bound is a descriptor found at one point of the tower, bound to the
// dispatch receiver it was found on. Values are never mutated after creation.
type Bound struct {
	Descriptor       descriptors.Descriptor
	DispatchReceiver descriptors.ReceiverValue // nil when there is none
	Diagnostics      []Diagnostic
}

// RequiresExtensionReceiver reports whether the descriptor is an extension.
func (b Bound) RequiresExtensionReceiver() bool {
	return descriptors.HasExtensionReceiver(b.Descriptor)
}

// WithDiagnostic returns a copy of b with d appended.
func (b Bound) WithDiagnostic(d Diagnostic) Bound {
	out := b
	out.Diagnostics = append(slices.Clip(b.Diagnostics), d)
	return out
}

// HasDiagnostic reports whether b carries a diagnostic of the given kind.
func (b Bound) HasDiagnostic(kind DiagnosticKind) bool {
	for _, d := range b.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// ObjectVariable is the variable a singleton (or a class with a companion)
// is seen as when its name is used as an expression.
type ObjectVariable struct {
	Class descriptors.Class
}

var _ descriptors.Descriptor = ObjectVariable{}

func (o ObjectVariable) Name() descriptors.Name                { return o.Class.Name() }
func (ObjectVariable) Kind() descriptors.Kind                  { return descriptors.KindVariable }
func (o ObjectVariable) Visibility() descriptors.Visibility    { return o.Class.Visibility() }
func (ObjectVariable) ExtensionReceiverType() descriptors.Type { return nil }
func (o ObjectVariable) ValueType() descriptors.Type           { return o.Class.DefaultType() }
func (ObjectVariable) IsSynthesized() bool                     { return false }
func (ObjectVariable) HasLowPriority() bool                    { return false }
func (o ObjectVariable) IsError() bool                         { return o.Class.IsError() }
func (ObjectVariable) Overridden() []descriptors.Descriptor    { return nil }
func (o ObjectVariable) Container() descriptors.Descriptor     { return o.Class.Container() }
