package descriptors

// Location identifies the use site a lookup is made from. It is opaque to the
// resolution engine and only forwarded to scopes.
type Location string

// NoLocation is used for lookups that are not attributable to a use site.
const NoLocation Location = ""

// Type is a typed view used for member lookup and receiver matching.
type Type interface {
	String() string
	MemberScope() Scope
	IsError() bool
	// IsExtensionFunctionType reports receiver-bound function types.
	IsExtensionFunctionType() bool
	IsSubtypeOf(other Type) bool
}

// Scope answers by-name queries.
type Scope interface {
	Variables(name Name, loc Location) []Descriptor
	Functions(name Name, loc Location) []Descriptor
	// Classifier returns nil when no classifier with that name exists.
	Classifier(name Name, loc Location) Descriptor
}

// HierarchicalScope is a scope with an enclosing parent.
type HierarchicalScope interface {
	Scope
	Parent() HierarchicalScope
}

// LexicalScope is a scope of a function body, block or class body.
type LexicalScope interface {
	HierarchicalScope
	IsLocal() bool
	// ImplicitReceiver is the receiver available inside the scope, nil if none.
	ImplicitReceiver() ReceiverValue
	// Owner is the declaration the scope belongs to.
	Owner() Descriptor
}

// ImportingScope is a file or import scope. Besides ordinary members it
// contributes synthetic extensions for a set of receiver types.
type ImportingScope interface {
	HierarchicalScope
	SyntheticExtensionVariables(receiverTypes []Type, name Name, loc Location) []Descriptor
	SyntheticExtensionFunctions(receiverTypes []Type, name Name, loc Location) []Descriptor
}

// ParentsWithSelf lists s followed by all its parents, innermost first.
func ParentsWithSelf(s HierarchicalScope) []HierarchicalScope {
	var out []HierarchicalScope
	for cur := s; cur != nil; cur = cur.Parent() {
		out = append(out, cur)
	}
	return out
}
