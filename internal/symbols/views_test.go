package symbols

import (
	"testing"

	"tower/internal/descriptors"
)

type fixture struct {
	table *Table
	file  ScopeID
	base  SymbolID
	sub   SymbolID
}

func newFixture() fixture {
	table := NewTable(Hints{}, nil)
	file := table.NewScope(ScopeImport, NoScopeID, NoSymbolID, "file")
	base := table.DeclareClass(file, "Base", ClassSpec{})
	sub := table.DeclareClass(file, "Sub", ClassSpec{Supers: []TypeID{table.ClassType(base)}})
	return fixture{table: table, file: file, base: base, sub: sub}
}

func (f fixture) member(class SymbolID, name string, kind SymbolKind, vis descriptors.Visibility) descriptors.Descriptor {
	id := f.table.DeclareMember(class, Symbol{Name: f.table.Strings.Intern(name), Kind: kind, Visibility: vis})
	return f.table.Descriptor(id)
}

func TestMemberScopeWalksSupertypes(t *testing.T) {
	f := newFixture()
	inherited := f.member(f.base, "size", SymbolVariable, descriptors.VisibilityPublic)
	own := f.member(f.sub, "name", SymbolVariable, descriptors.VisibilityPublic)

	scope := f.table.Type(f.table.ClassType(f.sub)).MemberScope()
	if got := scope.Variables("size", descriptors.NoLocation); len(got) != 1 || got[0] != inherited {
		t.Fatalf("inherited lookup = %v", got)
	}
	if got := scope.Variables("name", descriptors.NoLocation); len(got) != 1 || got[0] != own {
		t.Fatalf("own lookup = %v", got)
	}
	if got := scope.Functions("size", descriptors.NoLocation); len(got) != 0 {
		t.Fatalf("variables leaked into function lookup: %v", got)
	}
	if got := scope.Variables("unknown", descriptors.NoLocation); got != nil {
		t.Fatalf("unknown name = %v", got)
	}
}

func TestMemberScopeSkipsOverridden(t *testing.T) {
	f := newFixture()
	baseID := f.table.DeclareMember(f.base, Symbol{Name: f.table.Strings.Intern("draw"), Kind: SymbolFunction})
	subID := f.table.DeclareMember(f.sub, Symbol{Name: f.table.Strings.Intern("draw"), Kind: SymbolFunction, Overrides: []SymbolID{baseID}})

	got := f.table.Type(f.table.ClassType(f.sub)).MemberScope().Functions("draw", descriptors.NoLocation)
	if len(got) != 1 || got[0] != f.table.Descriptor(subID) {
		t.Fatalf("expected only the override, got %v", got)
	}
	if over := got[0].Overridden(); len(over) != 1 || over[0] != f.table.Descriptor(baseID) {
		t.Fatalf("unexpected overridden list %v", over)
	}
}

func TestSubtyping(t *testing.T) {
	f := newFixture()
	base := f.table.Type(f.table.ClassType(f.base))
	sub := f.table.Type(f.table.ClassType(f.sub))
	if !sub.IsSubtypeOf(base) || base.IsSubtypeOf(sub) {
		t.Fatalf("Sub must be a subtype of Base only")
	}
	if !base.IsSubtypeOf(base) {
		t.Fatalf("subtyping must be reflexive")
	}
	other := NewTable(Hints{}, nil)
	foreign := other.Type(other.ErrorType("x"))
	if base.IsSubtypeOf(foreign) {
		t.Fatalf("types of different tables are unrelated")
	}
}

func TestLexicalChain(t *testing.T) {
	f := newFixture()
	body := f.table.NewClassBody(f.sub, f.file)
	fn := f.table.Declare(body, Symbol{Name: f.table.Strings.Intern("run"), Kind: SymbolFunction})
	block := f.table.NewScope(ScopeFunction, body, fn, "fun run")
	f.table.DeclareStatic(f.sub, Symbol{Name: f.table.Strings.Intern("LIMIT"), Kind: SymbolVariable})

	lex := f.table.LexicalScope(block)
	if !lex.IsLocal() || lex.ImplicitReceiver() != nil {
		t.Fatalf("function scope must be local without receiver")
	}
	if lex.Owner() != f.table.Descriptor(fn) {
		t.Fatalf("unexpected owner %v", lex.Owner())
	}

	classScope, ok := lex.Parent().(Lexical)
	if !ok {
		t.Fatalf("parent is %T, want Lexical", lex.Parent())
	}
	if classScope.IsLocal() {
		t.Fatalf("class body must not be local")
	}
	if got := classScope.ImplicitReceiver().String(); got != "this@Sub" {
		t.Fatalf("unexpected receiver %q", got)
	}
	if got := classScope.Variables("LIMIT", descriptors.NoLocation); len(got) != 1 {
		t.Fatalf("class body must see statics, got %v", got)
	}

	file, ok := classScope.Parent().(Importing)
	if !ok {
		t.Fatalf("root is %T, want Importing", classScope.Parent())
	}
	if file.Parent() != nil {
		t.Fatalf("importing scope must be the root")
	}
	if c, ok := file.Classifier("Base", descriptors.NoLocation).(descriptors.Class); !ok || c.ClassKind() != descriptors.ClassKindClass {
		t.Fatalf("expected Base classifier")
	}
}

func TestLexicalScopePanicsOnMembers(t *testing.T) {
	f := newFixture()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	f.table.LexicalScope(f.table.Symbols.Get(f.base).Members)
}

type extensionsStub struct{ calls int }

func (s *extensionsStub) SyntheticExtensionVariables(_ []descriptors.Type, _ descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	s.calls++
	return nil
}

func (s *extensionsStub) SyntheticExtensionFunctions(_ []descriptors.Type, _ descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	s.calls++
	return nil
}

func TestImportingAsksSyntheticProvider(t *testing.T) {
	f := newFixture()
	stub := &extensionsStub{}
	f.table.SetSynthetic(stub)
	file := Importing{scopeView{f.table, f.file}}

	file.SyntheticExtensionVariables(nil, "x", descriptors.NoLocation)
	if stub.calls != 0 {
		t.Fatalf("provider must not be asked without receiver types")
	}
	types := []descriptors.Type{f.table.Type(f.table.ClassType(f.base))}
	file.SyntheticExtensionVariables(types, "x", descriptors.NoLocation)
	file.SyntheticExtensionFunctions(types, "x", descriptors.NoLocation)
	if stub.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", stub.calls)
	}
}

func TestQualifiers(t *testing.T) {
	f := newFixture()
	companion := f.table.DeclareNestedClass(f.base, "Companion", ClassSpec{Kind: descriptors.ClassKindCompanion})
	f.table.SetCompanion(f.base, companion)

	q := f.table.ClassQualifier(f.base)
	if q.String() != "Base" {
		t.Fatalf("unexpected label %q", q.String())
	}
	if got := q.CompanionReceiver(); got == nil || got.String() != "this@Companion" {
		t.Fatalf("unexpected companion receiver %v", got)
	}
	if c := q.StaticScope().Classifier("Companion", descriptors.NoLocation); c == nil {
		t.Fatalf("companion must be a nested classifier")
	}
	if f.table.ClassQualifier(f.sub).CompanionReceiver() != nil {
		t.Fatalf("Sub has no companion")
	}
	pkg := f.table.PackageQualifier("pkg", f.file)
	if pkg.CompanionReceiver() != nil || pkg.String() != "pkg" {
		t.Fatalf("unexpected package qualifier %v", pkg)
	}
	if err := f.table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestVisibilityRules(t *testing.T) {
	f := newFixture()
	rules := VisibilityRules{}
	secret := f.member(f.base, "secret", SymbolVariable, descriptors.VisibilityPrivate)
	shared := f.member(f.base, "shared", SymbolVariable, descriptors.VisibilityProtected)
	inBase := f.member(f.base, "peek", SymbolFunction, descriptors.VisibilityPublic)
	inSub := f.member(f.sub, "look", SymbolFunction, descriptors.VisibilityPublic)
	topLevel := f.table.Descriptor(f.table.Declare(f.file, Symbol{Name: f.table.Strings.Intern("main"), Kind: SymbolFunction}))
	hidden := f.table.Descriptor(f.table.Declare(f.file, Symbol{Name: f.table.Strings.Intern("helper"), Kind: SymbolFunction, Visibility: descriptors.VisibilityPrivate}))

	cases := []struct {
		name      string
		d, from   descriptors.Descriptor
		invisible bool
	}{
		{"private from inside", secret, inBase, false},
		{"private from subclass", secret, inSub, true},
		{"private from top level", secret, topLevel, true},
		{"protected from subclass", shared, inSub, false},
		{"protected from top level", shared, topLevel, true},
		{"top-level private", hidden, inSub, false},
		{"public", inBase, nil, false},
	}
	for _, tc := range cases {
		got := rules.FindInvisibleMember(nil, tc.d, tc.from)
		if (got != nil) != tc.invisible {
			t.Errorf("%s: FindInvisibleMember = %v, invisible %v", tc.name, got, tc.invisible)
		}
	}
}

func TestDataFlowNarrow(t *testing.T) {
	f := newFixture()
	baseType := f.table.ClassType(f.base)
	subType := f.table.ClassType(f.sub)
	x := f.table.NewReceiver("x", baseType)
	y := f.table.NewReceiver("y", baseType)

	flow := NewDataFlow(f.table)
	flow.Narrow(x, true, subType)

	xv := flow.DataFlowValue(f.table.Receiver(x))
	if xv == nil || !xv.IsStable() {
		t.Fatalf("x must be stable")
	}
	if got := flow.PossibleTypes(xv); len(got) != 1 || got[0].String() != "Sub" {
		t.Fatalf("possible types = %v", got)
	}
	if got := flow.PossibleTypes(flow.DataFlowValue(f.table.Receiver(y))); got != nil {
		t.Fatalf("y has no casts, got %v", got)
	}

	flow.Narrow(x, false)
	if flow.DataFlowValue(f.table.Receiver(x)).IsStable() {
		t.Fatalf("x must become unstable")
	}

	other := NewTable(Hints{}, nil)
	foreign := other.Receiver(other.NewReceiver("z", NoTypeID))
	if flow.DataFlowValue(foreign) != nil {
		t.Fatalf("receivers of another table have no value")
	}
}

func TestSynthesizeInvoke(t *testing.T) {
	f := newFixture()
	baseType := f.table.ClassType(f.base)
	ext := f.table.FunctionType(baseType, nil, baseType)
	invoke := f.table.Type(ext).MemberScope().Functions(descriptors.InvokeName, descriptors.NoLocation)[0]

	got := f.table.SynthesizeInvoke(invoke)
	if got.Name() != descriptors.InvokeName || got.Kind() != descriptors.KindFunction {
		t.Fatalf("unexpected synthesized invoke %v", got)
	}
	if got.ExtensionReceiverType().String() != "Base" || got.ValueType().String() != "Base" {
		t.Fatalf("unexpected signature of %v", got)
	}
	extInvoke, ok := got.(ExtensionInvoke)
	if !ok {
		t.Fatalf("synthesized invoke is %T, want ExtensionInvoke", got)
	}
	if extInvoke.String() != "Base.() -> Base.invoke" {
		t.Fatalf("unexpected label %q", extInvoke.String())
	}

	plain := f.table.FunctionType(NoTypeID, nil, NoTypeID)
	plainInvoke := f.table.Type(plain).MemberScope().Functions(descriptors.InvokeName, descriptors.NoLocation)[0]
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for a plain function type")
		}
	}()
	f.table.SynthesizeInvoke(plainInvoke)
}
