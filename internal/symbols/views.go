package symbols

import (
	"fmt"

	"tower/internal/descriptors"
	"tower/internal/source"
)

// The views below implement the descriptor model over a Table. They are
// small comparable values: two views of the same entry are equal.

type entity struct {
	t  *Table
	id SymbolID
}

func (e entity) sym() *Symbol {
	sym := e.t.Symbols.Get(e.id)
	if sym == nil {
		panic(fmt.Errorf("symbols: dangling symbol %d", e.id))
	}
	return sym
}

// ID returns the symbol the view refers to.
func (e entity) ID() SymbolID { return e.id }

func (e entity) Name() descriptors.Name {
	return descriptors.Name(e.t.Strings.MustLookup(e.sym().Name))
}

func (e entity) Kind() descriptors.Kind { return e.sym().Kind.Descriptor() }

func (e entity) Visibility() descriptors.Visibility { return e.sym().Visibility }

func (e entity) ExtensionReceiverType() descriptors.Type { return e.t.typeOf(e.sym().Extension) }

func (e entity) ValueType() descriptors.Type { return e.t.typeOf(e.sym().Value) }

func (e entity) IsSynthesized() bool { return e.sym().Flags&SymbolFlagSynthesized != 0 }

func (e entity) HasLowPriority() bool { return e.sym().Flags&SymbolFlagLowPriority != 0 }

func (e entity) IsError() bool { return e.sym().Flags&SymbolFlagError != 0 }

func (e entity) Overridden() []descriptors.Descriptor {
	ids := e.sym().Overrides
	if len(ids) == 0 {
		return nil
	}
	out := make([]descriptors.Descriptor, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.t.Descriptor(id))
	}
	return out
}

func (e entity) Container() descriptors.Descriptor {
	sym := e.sym()
	if sym.Kind == SymbolConstructor {
		return e.t.Descriptor(sym.Class)
	}
	return e.t.Descriptor(sym.Owner)
}

func (e entity) String() string { return e.t.Path(e.id) }

// Callable is a variable or function.
type Callable struct{ entity }

// Class is a classifier.
type Class struct{ entity }

// Constructor is a class constructor.
type Constructor struct{ entity }

var (
	_ descriptors.Descriptor  = Callable{}
	_ descriptors.Class       = Class{}
	_ descriptors.Constructor = Constructor{}
)

func (c Class) ClassKind() descriptors.ClassKind { return c.sym().ClassKind }

func (c Class) IsInner() bool { return c.sym().Flags&SymbolFlagInner != 0 }

func (c Class) Constructors() []descriptors.Constructor {
	ids := c.sym().Constructors
	out := make([]descriptors.Constructor, 0, len(ids))
	for _, id := range ids {
		out = append(out, Constructor{entity{c.t, id}})
	}
	return out
}

func (c Class) HasClassValue() bool {
	sym := c.sym()
	return sym.ClassKind.IsSingleton() || sym.Companion.IsValid()
}

func (c Class) DefaultType() descriptors.Type { return c.t.typeOf(c.sym().Type) }

func (c Constructor) ConstructedClass() descriptors.Class {
	return Class{entity{c.t, c.sym().Class}}
}

func (c Constructor) DispatchReceiverParameter() descriptors.ReceiverValue {
	return c.t.receiverOf(c.sym().Outer)
}

// Descriptor returns the view matching the kind of id, nil for NoSymbolID.
func (t *Table) Descriptor(id SymbolID) descriptors.Descriptor {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return nil
	}
	e := entity{t, id}
	switch sym.Kind {
	case SymbolClass:
		return Class{e}
	case SymbolConstructor:
		return Constructor{e}
	default:
		return Callable{e}
	}
}

// SymbolOf returns the symbol behind a view produced by this table.
func (t *Table) SymbolOf(d descriptors.Descriptor) (SymbolID, bool) {
	var e entity
	switch v := d.(type) {
	case Callable:
		e = v.entity
	case Class:
		e = v.entity
	case Constructor:
		e = v.entity
	default:
		return NoSymbolID, false
	}
	if e.t != t {
		return NoSymbolID, false
	}
	return e.id, true
}

// TypeRef is a type of the table.
type TypeRef struct {
	t  *Table
	id TypeID
}

var _ descriptors.Type = TypeRef{}

func (t *Table) typeOf(id TypeID) descriptors.Type {
	if !id.IsValid() {
		return nil
	}
	return TypeRef{t, id}
}

// Type returns the view of id, nil for NoTypeID.
func (t *Table) Type(id TypeID) descriptors.Type { return t.typeOf(id) }

// ID returns the type the view refers to.
func (r TypeRef) ID() TypeID { return r.id }

func (r TypeRef) String() string { return r.t.TypeLabel(r.id) }

func (r TypeRef) MemberScope() descriptors.Scope {
	typ := r.t.Types.Get(r.id)
	if typ == nil || typ.Kind == TypeError {
		return nil
	}
	return memberScope{r.t, r.id}
}

func (r TypeRef) IsError() bool {
	typ := r.t.Types.Get(r.id)
	return typ == nil || typ.Kind == TypeError
}

func (r TypeRef) IsExtensionFunctionType() bool {
	typ := r.t.Types.Get(r.id)
	return typ != nil && typ.Kind == TypeFunction && typ.Receiver.IsValid()
}

func (r TypeRef) IsSubtypeOf(other descriptors.Type) bool {
	o, ok := other.(TypeRef)
	if !ok || o.t != r.t {
		return false
	}
	return r.t.isSubtype(r.id, o.id)
}

// memberScope looks up members of a type and its supertypes. Members
// overridden by an already collected member are skipped.
type memberScope struct {
	t   *Table
	typ TypeID
}

func (m memberScope) scopes(pick func(sym *Symbol, typ *Type) ScopeID) []ScopeID {
	var out []ScopeID
	for _, id := range m.t.linearize(m.typ) {
		typ := m.t.Types.Get(id)
		if typ == nil {
			continue
		}
		var class *Symbol
		if typ.Kind == TypeClass {
			class = m.t.Symbols.Get(typ.Class)
		}
		if s := pick(class, typ); s.IsValid() {
			out = append(out, s)
		}
	}
	return out
}

func (m memberScope) members(name descriptors.Name, kind SymbolKind) []descriptors.Descriptor {
	key, ok := m.t.Strings.ID(string(name))
	if !ok {
		return nil
	}
	scopes := m.scopes(func(class *Symbol, typ *Type) ScopeID {
		if class != nil {
			return class.Members
		}
		return typ.Members
	})
	var out []descriptors.Descriptor
	overridden := make(map[SymbolID]bool)
	for _, sid := range scopes {
		for _, id := range m.t.Scopes.Get(sid).NameIndex[key] {
			sym := m.t.Symbols.Get(id)
			if sym.Kind != kind || overridden[id] {
				continue
			}
			for _, o := range sym.Overrides {
				overridden[o] = true
			}
			out = append(out, m.t.Descriptor(id))
		}
	}
	return out
}

func (m memberScope) Variables(name descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	return m.members(name, SymbolVariable)
}

func (m memberScope) Functions(name descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	return m.members(name, SymbolFunction)
}

func (m memberScope) Classifier(name descriptors.Name, _ descriptors.Location) descriptors.Descriptor {
	key, ok := m.t.Strings.ID(string(name))
	if !ok {
		return nil
	}
	scopes := m.scopes(func(class *Symbol, _ *Type) ScopeID {
		if class != nil {
			return class.Statics
		}
		return NoScopeID
	})
	for _, sid := range scopes {
		if d := m.t.classifierIn(sid, key); d != nil {
			return d
		}
	}
	return nil
}

func (m memberScope) String() string { return "members of " + m.t.TypeLabel(m.typ) }

// lookup returns the symbols named key declared in scope (or its delegate)
// with the given kind, in declaration order.
func (t *Table) lookup(scope ScopeID, key source.StringID, kind SymbolKind) []descriptors.Descriptor {
	s := t.Scopes.Get(scope)
	if s == nil {
		return nil
	}
	if s.Delegate.IsValid() {
		s = t.Scopes.Get(s.Delegate)
	}
	var out []descriptors.Descriptor
	for _, id := range s.NameIndex[key] {
		if t.Symbols.Get(id).Kind == kind {
			out = append(out, t.Descriptor(id))
		}
	}
	return out
}

// classifierIn returns the newest classifier named key in scope.
func (t *Table) classifierIn(scope ScopeID, key source.StringID) descriptors.Descriptor {
	found := t.lookup(scope, key, SymbolClass)
	if len(found) == 0 {
		return nil
	}
	return found[len(found)-1]
}

type scopeView struct {
	t  *Table
	id ScopeID
}

func (v scopeView) byName(name descriptors.Name, kind SymbolKind) []descriptors.Descriptor {
	key, ok := v.t.Strings.ID(string(name))
	if !ok {
		return nil
	}
	return v.t.lookup(v.id, key, kind)
}

func (v scopeView) Variables(name descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	return v.byName(name, SymbolVariable)
}

func (v scopeView) Functions(name descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	return v.byName(name, SymbolFunction)
}

func (v scopeView) Classifier(name descriptors.Name, _ descriptors.Location) descriptors.Descriptor {
	key, ok := v.t.Strings.ID(string(name))
	if !ok {
		return nil
	}
	return v.t.classifierIn(v.id, key)
}

func (v scopeView) Parent() descriptors.HierarchicalScope {
	s := v.t.Scopes.Get(v.id)
	if s == nil || !s.Parent.IsValid() {
		return nil
	}
	return v.t.hierarchical(s.Parent)
}

func (v scopeView) String() string {
	s := v.t.Scopes.Get(v.id)
	if s == nil {
		return fmt.Sprintf("scope#%d", v.id)
	}
	if s.Label == "" {
		return fmt.Sprintf("%s#%d", s.Kind, v.id)
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Label)
}

// ID returns the scope the view refers to.
func (v scopeView) ID() ScopeID { return v.id }

// Lexical is a class body, function body or block scope.
type Lexical struct{ scopeView }

// Importing is a file or import scope.
type Importing struct{ scopeView }

// Static is the static scope of a class or package qualifier.
type Static struct{ scopeView }

var (
	_ descriptors.LexicalScope   = Lexical{}
	_ descriptors.ImportingScope = Importing{}
	_ descriptors.Scope          = Static{}
)

func (t *Table) hierarchical(id ScopeID) descriptors.HierarchicalScope {
	s := t.Scopes.Get(id)
	if s == nil {
		return nil
	}
	v := scopeView{t, id}
	switch {
	case s.Kind == ScopeImport:
		return Importing{v}
	case s.Kind.IsLexical():
		return Lexical{v}
	default:
		panic(fmt.Errorf("symbols: %s scope %d cannot be part of a scope chain", s.Kind, id))
	}
}

// LexicalScope returns the view of a lexical scope.
func (t *Table) LexicalScope(id ScopeID) Lexical {
	s := t.Scopes.Get(id)
	if s == nil || !s.Kind.IsLexical() {
		panic(fmt.Errorf("symbols: scope %d is not lexical", id))
	}
	return Lexical{scopeView{t, id}}
}

func (l Lexical) IsLocal() bool { return l.t.Scopes.Get(l.id).Kind.IsLocal() }

func (l Lexical) ImplicitReceiver() descriptors.ReceiverValue {
	return l.t.receiverOf(l.t.Scopes.Get(l.id).Receiver)
}

func (l Lexical) Owner() descriptors.Descriptor {
	return l.t.Descriptor(l.t.Scopes.Get(l.id).Owner)
}

func (i Importing) SyntheticExtensionVariables(receiverTypes []descriptors.Type, name descriptors.Name, loc descriptors.Location) []descriptors.Descriptor {
	if i.t.synthetic == nil || len(receiverTypes) == 0 {
		return nil
	}
	return i.t.synthetic.SyntheticExtensionVariables(receiverTypes, name, loc)
}

func (i Importing) SyntheticExtensionFunctions(receiverTypes []descriptors.Type, name descriptors.Name, loc descriptors.Location) []descriptors.Descriptor {
	if i.t.synthetic == nil || len(receiverTypes) == 0 {
		return nil
	}
	return i.t.synthetic.SyntheticExtensionFunctions(receiverTypes, name, loc)
}

// Value is a receiver value of the table.
type Value struct {
	t  *Table
	id ReceiverID
}

var _ descriptors.ReceiverValue = Value{}

func (t *Table) receiverOf(id ReceiverID) descriptors.ReceiverValue {
	if !id.IsValid() {
		return nil
	}
	return Value{t, id}
}

// Receiver returns the view of id, nil for NoReceiverID.
func (t *Table) Receiver(id ReceiverID) descriptors.ReceiverValue { return t.receiverOf(id) }

// ID returns the receiver the view refers to.
func (v Value) ID() ReceiverID { return v.id }

func (v Value) String() string {
	if r := v.t.Receivers.Get(v.id); r != nil {
		return r.Label
	}
	return fmt.Sprintf("receiver#%d", v.id)
}

func (v Value) Type() descriptors.Type {
	r := v.t.Receivers.Get(v.id)
	if r == nil {
		return nil
	}
	return v.t.typeOf(r.Type)
}

// Qualifier is a package or class reference used as explicit receiver.
type Qualifier struct {
	t     *Table
	scope ScopeID
	class SymbolID
	label string
}

var _ descriptors.Qualifier = Qualifier{}

// PackageQualifier refers to the static scope of a package.
func (t *Table) PackageQualifier(label string, statics ScopeID) Qualifier {
	return Qualifier{t: t, scope: statics, label: label}
}

// ClassQualifier refers to class by name.
func (t *Table) ClassQualifier(class SymbolID) Qualifier {
	sym := t.mustClass(class)
	return Qualifier{t: t, scope: sym.Statics, class: class, label: t.Strings.MustLookup(sym.Name)}
}

func (q Qualifier) String() string { return q.label }

func (q Qualifier) StaticScope() descriptors.Scope { return Static{scopeView{q.t, q.scope}} }

func (q Qualifier) CompanionReceiver() descriptors.ReceiverValue {
	if !q.class.IsValid() {
		return nil
	}
	companion := q.t.Symbols.Get(q.t.mustClass(q.class).Companion)
	if companion == nil {
		return nil
	}
	return q.t.receiverOf(companion.This)
}
