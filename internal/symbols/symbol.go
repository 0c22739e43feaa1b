package symbols

import (
	"tower/internal/descriptors"
	"tower/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolVariable
	SymbolFunction
	SymbolClass
	SymbolConstructor
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolFunction:
		return "function"
	case SymbolClass:
		return "class"
	case SymbolConstructor:
		return "constructor"
	default:
		return "invalid"
	}
}

// Descriptor maps the kind onto the descriptor model.
func (k SymbolKind) Descriptor() descriptors.Kind {
	switch k {
	case SymbolVariable:
		return descriptors.KindVariable
	case SymbolFunction:
		return descriptors.KindFunction
	case SymbolClass:
		return descriptors.KindClass
	case SymbolConstructor:
		return descriptors.KindConstructor
	default:
		return descriptors.KindInvalid
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	SymbolFlagSynthesized SymbolFlags = 1 << iota
	SymbolFlagLowPriority
	SymbolFlagError
	SymbolFlagInner
	SymbolFlagMutable
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 5)
	if f&SymbolFlagSynthesized != 0 {
		labels = append(labels, "synthesized")
	}
	if f&SymbolFlagLowPriority != 0 {
		labels = append(labels, "low-priority")
	}
	if f&SymbolFlagError != 0 {
		labels = append(labels, "error")
	}
	if f&SymbolFlagInner != 0 {
		labels = append(labels, "inner")
	}
	if f&SymbolFlagMutable != 0 {
		labels = append(labels, "mutable")
	}
	return labels
}

// Symbol describes a named entity available in a scope. Class and
// constructor fields are zero for other kinds.
type Symbol struct {
	Name       source.StringID
	Kind       SymbolKind
	Scope      ScopeID
	Owner      SymbolID
	Flags      SymbolFlags
	Visibility descriptors.Visibility
	// Extension is the required extension receiver type.
	Extension TypeID
	// Value is the variable type or the function result type.
	Value     TypeID
	Overrides []SymbolID

	ClassKind    descriptors.ClassKind
	Type         TypeID
	Members      ScopeID
	Statics      ScopeID
	Companion    SymbolID
	Constructors []SymbolID
	This         ReceiverID

	// Class is the constructed class of a constructor.
	Class SymbolID
	// Outer is the outer instance an inner class constructor needs.
	Outer ReceiverID
}

// Receiver is a named value usable as a dispatch or extension receiver.
type Receiver struct {
	Label string
	Type  TypeID
}
