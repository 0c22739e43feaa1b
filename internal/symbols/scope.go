package symbols

import "tower/internal/source"

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeImport             // file or import scope, outermost
	ScopeClass              // class body, carries the class receiver
	ScopeFunction           // function body, local
	ScopeBlock              // block inside a function, local
	ScopeMembers            // members of a class type, not part of any chain
	ScopeStatic             // nested classifiers and statics of a class or package
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeImport:
		return "import"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeMembers:
		return "members"
	case ScopeStatic:
		return "static"
	default:
		return "invalid"
	}
}

// IsLocal reports scopes whose declarations win over everything else.
func (k ScopeKind) IsLocal() bool {
	return k == ScopeFunction || k == ScopeBlock
}

// IsLexical reports scopes that form the chain above a use site, apart from
// the importing ones.
func (k ScopeKind) IsLexical() bool {
	return k == ScopeClass || k == ScopeFunction || k == ScopeBlock
}

// Scope models a scope with a parent-child hierarchy.
type Scope struct {
	Kind   ScopeKind
	Label  string
	Parent ScopeID
	// Owner is the declaration the scope belongs to.
	Owner SymbolID
	// Receiver is the implicit receiver available inside the scope.
	Receiver ReceiverID
	// Delegate answers lookups in place of this scope (class bodies
	// delegate to the class statics).
	Delegate  ScopeID
	NameIndex map[source.StringID][]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
}
