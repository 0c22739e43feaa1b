package descriptors

// Name is an identifier as it appears at a use site.
type Name string

// InvokeName is the operator name used by the invoke convention.
const InvokeName Name = "invoke"

// Kind classifies a declared symbol.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindVariable
	KindFunction
	KindClass
	KindConstructor
)

func (k Kind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindConstructor:
		return "constructor"
	default:
		return "invalid"
	}
}

// Visibility is the declared visibility of a symbol.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityInternal
	VisibilityProtected
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityInternal:
		return "internal"
	case VisibilityProtected:
		return "protected"
	case VisibilityPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Descriptor is a declared symbol. Implementations are immutable for the
// duration of a resolution attempt.
type Descriptor interface {
	Name() Name
	Kind() Kind
	Visibility() Visibility
	// ExtensionReceiverType is nil unless the symbol requires an extension receiver.
	ExtensionReceiverType() Type
	// ValueType is the type of a variable or the return type of a function.
	ValueType() Type
	// IsSynthesized reports symbols that are synthesized or override one.
	IsSynthesized() bool
	HasLowPriority() bool
	// IsError marks placeholders produced for unresolved declarations.
	IsError() bool
	Overridden() []Descriptor
	// Container is the declaration owning this one, nil at top level.
	Container() Descriptor
}

// ClassKind distinguishes classifier flavours.
type ClassKind uint8

const (
	ClassKindClass ClassKind = iota
	ClassKindInterface
	ClassKindEnum
	ClassKindObject
	ClassKindCompanion
)

// IsSingleton reports kinds that have exactly one instance.
func (k ClassKind) IsSingleton() bool {
	return k == ClassKindObject || k == ClassKindCompanion
}

func (k ClassKind) String() string {
	switch k {
	case ClassKindClass:
		return "class"
	case ClassKindInterface:
		return "interface"
	case ClassKindEnum:
		return "enum"
	case ClassKindObject:
		return "object"
	case ClassKindCompanion:
		return "companion"
	default:
		return "unknown"
	}
}

// Class is a classifier descriptor.
type Class interface {
	Descriptor
	ClassKind() ClassKind
	IsInner() bool
	Constructors() []Constructor
	// HasClassValue reports classifiers usable as an expression by bare name
	// (objects and classes with a companion).
	HasClassValue() bool
	DefaultType() Type
}

// Constructor is a constructor descriptor.
type Constructor interface {
	Descriptor
	ConstructedClass() Class
	// DispatchReceiverParameter is the outer instance an inner class
	// constructor needs, nil for other constructors.
	DispatchReceiverParameter() ReceiverValue
}

// HasExtensionReceiver reports whether d can only be called on an extension receiver.
func HasExtensionReceiver(d Descriptor) bool {
	return d != nil && d.ExtensionReceiverType() != nil
}
