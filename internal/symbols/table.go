package symbols

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"tower/internal/descriptors"
	"tower/internal/source"
)

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Symbols, Types uint }

// SyntheticScope contributes synthetic extensions to importing scopes.
type SyntheticScope interface {
	SyntheticExtensionVariables(receiverTypes []descriptors.Type, name descriptors.Name, loc descriptors.Location) []descriptors.Descriptor
	SyntheticExtensionFunctions(receiverTypes []descriptors.Type, name descriptors.Name, loc descriptors.Location) []descriptors.Descriptor
}

// Table aggregates the arenas of a declaration universe.
type Table struct {
	Scopes    *Scopes
	Symbols   *Symbols
	Types     *Types
	Receivers *Receivers
	Strings   *source.Interner

	synthetic     SyntheticScope
	functionTypes map[string]TypeID
	errorTypes    map[string]TypeID
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	typeCap, err := safecast.Conv[uint32](h.Types)
	if err != nil {
		panic(fmt.Errorf("type capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:        newArena[ScopeID, Scope]("scopes", scopeCap),
		Symbols:       newArena[SymbolID, Symbol]("symbols", symCap),
		Types:         newArena[TypeID, Type]("types", typeCap),
		Receivers:     newArena[ReceiverID, Receiver]("receivers", 0),
		Strings:       strings,
		functionTypes: make(map[string]TypeID),
		errorTypes:    make(map[string]TypeID),
	}
}

// SetSynthetic installs the provider importing scopes ask for synthetic
// extensions.
func (t *Table) SetSynthetic(s SyntheticScope) { t.synthetic = s }

// NewScope allocates a scope under parent.
func (t *Table) NewScope(kind ScopeKind, parent ScopeID, owner SymbolID, label string) ScopeID {
	id := t.Scopes.New(Scope{
		Kind:      kind,
		Label:     label,
		Parent:    parent,
		Owner:     owner,
		NameIndex: make(map[source.StringID][]SymbolID),
	})
	if parent.IsValid() {
		if parentScope := t.Scopes.Get(parent); parentScope != nil {
			parentScope.Children = append(parentScope.Children, id)
		}
	}
	return id
}

// SetReceiver makes r the implicit receiver of scope.
func (t *Table) SetReceiver(scope ScopeID, r ReceiverID) {
	if s := t.Scopes.Get(scope); s != nil {
		s.Receiver = r
	}
}

// Declare installs sym into scope and returns its ID. The owner defaults to
// the owner of the scope.
func (t *Table) Declare(scope ScopeID, sym Symbol) SymbolID {
	s := t.Scopes.Get(scope)
	if s == nil {
		panic(fmt.Errorf("symbols.Declare: invalid scope %d", scope))
	}
	sym.Scope = scope
	if !sym.Owner.IsValid() {
		sym.Owner = s.Owner
	}
	id := t.Symbols.New(sym)
	s.Symbols = append(s.Symbols, id)
	s.NameIndex[sym.Name] = append(s.NameIndex[sym.Name], id)
	return id
}

// ClassSpec describes a classifier for DeclareClass.
type ClassSpec struct {
	Kind       descriptors.ClassKind
	Inner      bool
	Visibility descriptors.Visibility
	Flags      SymbolFlags
	Supers     []TypeID
}

// DeclareClass declares a classifier in scope together with its type, its
// member and static scopes and the receiver its body sees as this.
func (t *Table) DeclareClass(scope ScopeID, name string, spec ClassSpec) SymbolID {
	flags := spec.Flags
	if spec.Inner {
		flags |= SymbolFlagInner
	}
	id := t.Declare(scope, Symbol{
		Name:       t.Strings.Intern(name),
		Kind:       SymbolClass,
		Flags:      flags,
		Visibility: spec.Visibility,
		ClassKind:  spec.Kind,
	})
	typ := t.Types.New(Type{
		Kind:   TypeClass,
		Label:  name,
		Class:  id,
		Supers: spec.Supers,
	})
	members := t.NewScope(ScopeMembers, NoScopeID, id, name)
	statics := t.NewScope(ScopeStatic, NoScopeID, id, name)
	this := t.Receivers.New(Receiver{Label: "this@" + name, Type: typ})

	sym := t.Symbols.Get(id)
	sym.Type = typ
	sym.Value = typ
	sym.Members = members
	sym.Statics = statics
	sym.This = this
	return id
}

// NewClassBody opens the lexical scope of a class body under parent. It sees
// the class statics and has the class receiver as implicit receiver.
func (t *Table) NewClassBody(class SymbolID, parent ScopeID) ScopeID {
	sym := t.mustClass(class)
	body := t.NewScope(ScopeClass, parent, class, t.Strings.MustLookup(sym.Name))
	s := t.Scopes.Get(body)
	s.Receiver = sym.This
	s.Delegate = sym.Statics
	return body
}

// DeclareConstructor adds a constructor to class. Constructors of inner
// classes need the receiver of the enclosing class.
func (t *Table) DeclareConstructor(class SymbolID, visibility descriptors.Visibility) SymbolID {
	sym := t.mustClass(class)
	ctor := Symbol{
		Name:       sym.Name,
		Kind:       SymbolConstructor,
		Owner:      class,
		Visibility: visibility,
		Value:      sym.Type,
		Class:      class,
		Flags:      sym.Flags & SymbolFlagError,
	}
	if sym.Flags&SymbolFlagInner != 0 {
		if outer := t.Symbols.Get(sym.Owner); outer != nil && outer.Kind == SymbolClass {
			ctor.Outer = outer.This
		}
	}
	id := t.Symbols.New(ctor)
	sym = t.Symbols.Get(class)
	sym.Constructors = append(sym.Constructors, id)
	return id
}

// SetCompanion marks companion as the companion object of class.
func (t *Table) SetCompanion(class, companion SymbolID) {
	t.mustClass(class).Companion = companion
}

// DeclareMember declares a member of class visible through its type.
func (t *Table) DeclareMember(class SymbolID, sym Symbol) SymbolID {
	return t.Declare(t.mustClass(class).Members, sym)
}

// DeclareStatic declares a static member or nested classifier of class.
func (t *Table) DeclareStatic(class SymbolID, sym Symbol) SymbolID {
	return t.Declare(t.mustClass(class).Statics, sym)
}

// DeclareNestedClass declares a classifier nested in class.
func (t *Table) DeclareNestedClass(class SymbolID, name string, spec ClassSpec) SymbolID {
	return t.DeclareClass(t.mustClass(class).Statics, name, spec)
}

func (t *Table) mustClass(id SymbolID) *Symbol {
	sym := t.Symbols.Get(id)
	if sym == nil || sym.Kind != SymbolClass {
		panic(fmt.Errorf("symbols: %d is not a class", id))
	}
	return sym
}

// ClassType returns the type of class.
func (t *Table) ClassType(class SymbolID) TypeID {
	return t.mustClass(class).Type
}

// FunctionType returns the function type with the given shape, creating it
// with its invoke member on first use. A valid receiver makes it an
// extension function type.
func (t *Table) FunctionType(receiver TypeID, params []TypeID, result TypeID) TypeID {
	label := t.functionTypeLabel(receiver, params, result)
	if id, ok := t.functionTypes[label]; ok {
		return id
	}
	id := t.Types.New(Type{
		Kind:     TypeFunction,
		Label:    label,
		Receiver: receiver,
		Params:   append([]TypeID(nil), params...),
		Result:   result,
	})
	members := t.NewScope(ScopeMembers, NoScopeID, NoSymbolID, label)
	t.Types.Get(id).Members = members
	t.Declare(members, Symbol{
		Name:  t.Strings.Intern(string(descriptors.InvokeName)),
		Kind:  SymbolFunction,
		Value: result,
		Type:  id,
	})
	t.functionTypes[label] = id
	return id
}

// ErrorType returns the placeholder type for an unresolved type reference.
func (t *Table) ErrorType(label string) TypeID {
	if id, ok := t.errorTypes[label]; ok {
		return id
	}
	id := t.Types.New(Type{Kind: TypeError, Label: "<error: " + label + ">"})
	t.errorTypes[label] = id
	return id
}

// NewReceiver allocates a receiver value of the given type.
func (t *Table) NewReceiver(label string, typ TypeID) ReceiverID {
	return t.Receivers.New(Receiver{Label: label, Type: typ})
}

// Name returns the text of a symbol name.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	return t.Strings.MustLookup(sym.Name)
}

// Path renders a symbol with its owners, outermost first.
func (t *Table) Path(id SymbolID) string {
	var parts []string
	for cur := id; cur.IsValid(); {
		sym := t.Symbols.Get(cur)
		if sym == nil {
			break
		}
		parts = append(parts, t.Strings.MustLookup(sym.Name))
		if sym.Kind == SymbolConstructor {
			cur = sym.Class
			parts = parts[:len(parts)-1]
			parts = append(parts, "<init>")
			continue
		}
		cur = sym.Owner
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}
