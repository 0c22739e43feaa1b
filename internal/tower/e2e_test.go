package tower_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tower/internal/descriptors"
	"tower/internal/policy"
	"tower/internal/symbols"
	"tower/internal/synthetic"
	"tower/internal/tower"
)

type universe struct {
	t    *testing.T
	tab  *symbols.Table
	file symbols.ScopeID
	flow *symbols.DataFlow
}

func newUniverse(t *testing.T) *universe {
	t.Helper()
	tab := symbols.NewTable(symbols.Hints{}, nil)
	tab.SetSynthetic(synthetic.NewScopes(synthetic.BeanProperties{}))
	return &universe{
		t:    t,
		tab:  tab,
		file: tab.NewScope(symbols.ScopeImport, symbols.NoScopeID, symbols.NoSymbolID, "file"),
		flow: symbols.NewDataFlow(tab),
	}
}

func (u *universe) class(name string, spec symbols.ClassSpec) (symbols.SymbolID, symbols.TypeID) {
	id := u.tab.DeclareClass(u.file, name, spec)
	u.tab.DeclareConstructor(id, descriptors.VisibilityPublic)
	return id, u.tab.ClassType(id)
}

func (u *universe) fn(name string, result symbols.TypeID) symbols.Symbol {
	return symbols.Symbol{Name: u.tab.Strings.Intern(name), Kind: symbols.SymbolFunction, Value: result}
}

func (u *universe) val(name string, typ symbols.TypeID) symbols.Symbol {
	return symbols.Symbol{Name: u.tab.Strings.Intern(name), Kind: symbols.SymbolVariable, Value: typ}
}

func (u *universe) options(scope symbols.ScopeID, explicit descriptors.Receiver) tower.Options {
	require.NoError(u.t, u.tab.Validate())
	return tower.Options{
		Scope:            u.tab.LexicalScope(scope),
		ExplicitReceiver: explicit,
		DataFlow:         u.flow,
		Visibility:       symbols.VisibilityRules{},
		Invokes:          u.tab,
	}
}

type processorFactory func(ctx tower.Context[*policy.Candidate], explicit descriptors.Receiver) tower.Processor[*policy.Candidate]

var (
	variables processorFactory = tower.NewVariableProcessor[*policy.Candidate]
	functions processorFactory = tower.NewFunctionProcessor[*policy.Candidate]
	calls     processorFactory = tower.NewCallProcessor[*policy.Candidate]
)

func (u *universe) resolve(name string, opts tower.Options, factory processorFactory) tower.Outcome[*policy.Candidate] {
	ctx := policy.New(descriptors.Name(name), opts)
	return tower.Resolve[*policy.Candidate](context.Background(), ctx, factory(ctx, opts.ExplicitReceiver), true)
}

func TestMemberBeatsExtension(t *testing.T) {
	u := newUniverse(t)
	c, cType := u.class("C", symbols.ClassSpec{})
	member := u.tab.DeclareMember(c, u.fn("f", symbols.NoTypeID))
	ext := u.fn("f", symbols.NoTypeID)
	ext.Extension = cType
	u.tab.Declare(u.file, ext)

	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	x := u.tab.Receiver(u.tab.NewReceiver("x", cType))

	out := u.resolve("f", u.options(main, x), functions)
	require.Len(t, out.Candidates, 1)
	got := out.Candidates[0]
	assert.Equal(t, u.tab.Descriptor(member), got.Descriptor())
	assert.Equal(t, tower.Resolved, out.Applicability)
	assert.Equal(t, tower.DispatchReceiver, got.Kind)
	assert.Equal(t, x, got.Bound.DispatchReceiver)
	assert.Equal(t, 1, out.Stats.Steps)
}

func TestExtensionFoundOnImportLevel(t *testing.T) {
	u := newUniverse(t)
	_, cType := u.class("C", symbols.ClassSpec{})
	ext := u.fn("g", symbols.NoTypeID)
	ext.Extension = cType
	extID := u.tab.Declare(u.file, ext)

	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	x := u.tab.Receiver(u.tab.NewReceiver("x", cType))

	out := u.resolve("g", u.options(main, x), functions)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, u.tab.Descriptor(extID), out.Candidates[0].Descriptor())
	assert.Equal(t, tower.ExtensionReceiver, out.Candidates[0].Kind)
	assert.Equal(t, x, out.Candidates[0].Extension)
}

func TestExtensionOnWrongReceiverIsInapplicable(t *testing.T) {
	u := newUniverse(t)
	_, cType := u.class("C", symbols.ClassSpec{})
	_, dType := u.class("D", symbols.ClassSpec{})
	ext := u.fn("g", symbols.NoTypeID)
	ext.Extension = cType
	u.tab.Declare(u.file, ext)

	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	y := u.tab.Receiver(u.tab.NewReceiver("y", dType))

	out := u.resolve("g", u.options(main, y), functions)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, tower.Inapplicable, out.Applicability)
	assert.Empty(t, out.Candidates[0].Bound.Diagnostics)
	assert.Equal(t, tower.DiagPreviousResolutionError, out.Candidates[0].Status.Diagnostics[0].Kind)
	assert.False(t, out.Stats.Early)
}

func TestExtensionPairsWithFirstImplicitReceiverOnly(t *testing.T) {
	u := newUniverse(t)
	outer, outerType := u.class("Outer", symbols.ClassSpec{})
	inner := u.tab.DeclareNestedClass(outer, "Inner", symbols.ClassSpec{Inner: true})
	ext := u.fn("g", symbols.NoTypeID)
	ext.Extension = outerType
	u.tab.Declare(u.file, ext)

	outerBody := u.tab.NewClassBody(outer, u.file)
	innerBody := u.tab.NewClassBody(inner, outerBody)
	method := u.tab.NewScope(symbols.ScopeFunction, innerBody, inner, "method")

	opts := u.options(method, nil)
	receivers := tower.NewScopeTower(opts).ImplicitReceivers()
	require.Len(t, receivers, 2)
	assert.Equal(t, "this@Inner", receivers[0].String())
	assert.Equal(t, "this@Outer", receivers[1].String())

	// this@Outer would match, but the extension is bound to this@Inner alone
	out := u.resolve("g", opts, functions)
	require.Len(t, out.Candidates, 1)
	got := out.Candidates[0]
	assert.Equal(t, tower.Inapplicable, out.Applicability)
	assert.Equal(t, receivers[0], got.Extension)
	assert.Equal(t, tower.DiagPreviousResolutionError, got.Status.Diagnostics[0].Kind)
}

func TestLocalsWin(t *testing.T) {
	u := newUniverse(t)
	c, cType := u.class("C", symbols.ClassSpec{})
	u.tab.DeclareMember(c, u.val("x", cType))
	u.tab.Declare(u.file, u.val("x", cType))

	body := u.tab.NewClassBody(c, u.file)
	method := u.tab.NewScope(symbols.ScopeFunction, body, c, "method")
	block := u.tab.NewScope(symbols.ScopeBlock, method, c, "block")
	local := u.tab.Declare(method, u.val("x", cType))

	out := u.resolve("x", u.options(block, nil), variables)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, u.tab.Descriptor(local), out.Candidates[0].Descriptor())
	assert.Equal(t, tower.NoExplicitReceiver, out.Candidates[0].Kind)
}

func TestImplicitReceiverMemberBeforeImports(t *testing.T) {
	u := newUniverse(t)
	c, cType := u.class("C", symbols.ClassSpec{})
	member := u.tab.DeclareMember(c, u.val("x", cType))
	u.tab.Declare(u.file, u.val("x", cType))

	body := u.tab.NewClassBody(c, u.file)
	method := u.tab.NewScope(symbols.ScopeFunction, body, c, "method")

	out := u.resolve("x", u.options(method, nil), variables)
	require.Len(t, out.Candidates, 1)
	got := out.Candidates[0]
	assert.Equal(t, u.tab.Descriptor(member), got.Descriptor())
	assert.Equal(t, "this@C", got.Bound.DispatchReceiver.String())
}

func TestSmartCastStability(t *testing.T) {
	for _, tc := range []struct {
		name   string
		stable bool
		tier   tower.Applicability
		tags   []tower.DiagnosticKind
	}{
		{
			name:   "stable",
			stable: true,
			tier:   tower.Resolved,
			tags:   []tower.DiagnosticKind{tower.DiagUsedSmartCastForDispatchReceiver},
		},
		{
			name: "unstable",
			tier: tower.MayThrowRuntimeError,
			tags: []tower.DiagnosticKind{tower.DiagUnstableSmartCast, tower.DiagUsedSmartCastForDispatchReceiver},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			u := newUniverse(t)
			_, aType := u.class("A", symbols.ClassSpec{})
			b, bType := u.class("B", symbols.ClassSpec{Supers: []symbols.TypeID{aType}})
			u.tab.DeclareMember(b, u.fn("onlyB", symbols.NoTypeID))

			main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
			a := u.tab.NewReceiver("a", aType)
			u.flow.Narrow(a, tc.stable, bType)

			out := u.resolve("onlyB", u.options(main, u.tab.Receiver(a)), functions)
			require.Len(t, out.Candidates, 1)
			assert.Equal(t, tc.tier, out.Applicability)

			var kinds []tower.DiagnosticKind
			for _, d := range out.Candidates[0].Bound.Diagnostics {
				kinds = append(kinds, d.Kind)
			}
			assert.Equal(t, tc.tags, kinds)
		})
	}
}

func TestNestedAndInnerConstructors(t *testing.T) {
	u := newUniverse(t)
	outer, outerType := u.class("Outer", symbols.ClassSpec{})
	nested := u.tab.DeclareNestedClass(outer, "Nested", symbols.ClassSpec{})
	u.tab.DeclareConstructor(nested, descriptors.VisibilityPublic)
	inner := u.tab.DeclareNestedClass(outer, "Inner", symbols.ClassSpec{Inner: true})
	u.tab.DeclareConstructor(inner, descriptors.VisibilityPublic)
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	o := u.tab.Receiver(u.tab.NewReceiver("o", outerType))

	t.Run("nested via instance", func(t *testing.T) {
		out := u.resolve("Nested", u.options(main, o), functions)
		require.Len(t, out.Candidates, 1)
		assert.Equal(t, tower.ImpossibleToGenerate, out.Applicability)
		assert.True(t, out.Candidates[0].Bound.HasDiagnostic(tower.DiagNestedClassViaInstanceReference))
		assert.Nil(t, out.Candidates[0].Bound.DispatchReceiver)
	})

	t.Run("inner via instance", func(t *testing.T) {
		out := u.resolve("Inner", u.options(main, o), functions)
		require.Len(t, out.Candidates, 1)
		assert.Equal(t, tower.Resolved, out.Applicability)
		assert.Empty(t, out.Candidates[0].Bound.Diagnostics)
		assert.Equal(t, o, out.Candidates[0].Bound.DispatchReceiver)
	})

	t.Run("inner via qualifier", func(t *testing.T) {
		out := u.resolve("Inner", u.options(main, u.tab.ClassQualifier(outer)), functions)
		require.Len(t, out.Candidates, 1)
		assert.True(t, out.Candidates[0].Bound.HasDiagnostic(tower.DiagInnerClassViaStaticReference))
		assert.Equal(t, "this@Outer", out.Candidates[0].Bound.DispatchReceiver.String())
	})

	t.Run("nested via qualifier", func(t *testing.T) {
		out := u.resolve("Nested", u.options(main, u.tab.ClassQualifier(outer)), functions)
		require.Len(t, out.Candidates, 1)
		assert.Equal(t, tower.Resolved, out.Applicability)
	})

	t.Run("inner inside the outer body", func(t *testing.T) {
		body := u.tab.NewClassBody(outer, u.file)
		method := u.tab.NewScope(symbols.ScopeFunction, body, outer, "method")
		out := u.resolve("Inner", u.options(method, nil), functions)
		require.Len(t, out.Candidates, 1)
		assert.Equal(t, tower.Resolved, out.Applicability)
		assert.Equal(t, "this@Outer", out.Candidates[0].Bound.DispatchReceiver.String())
	})
}

func TestObjectAndCompanionVariables(t *testing.T) {
	u := newUniverse(t)
	obj := u.tab.DeclareClass(u.file, "Registry", symbols.ClassSpec{Kind: descriptors.ClassKindObject})
	u.tab.DeclareConstructor(obj, descriptors.VisibilityPrivate)
	c, _ := u.class("Config", symbols.ClassSpec{})
	companion := u.tab.DeclareNestedClass(c, "Companion", symbols.ClassSpec{Kind: descriptors.ClassKindCompanion})
	u.tab.SetCompanion(c, companion)
	u.tab.DeclareMember(companion, u.fn("load", u.tab.ClassType(c)))
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")

	out := u.resolve("Registry", u.options(main, nil), variables)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, tower.ObjectVariable{Class: u.tab.Descriptor(obj).(descriptors.Class)}, out.Candidates[0].Descriptor())

	assert.Empty(t, u.resolve("Registry", u.options(main, nil), functions).Candidates)

	out = u.resolve("load", u.options(main, u.tab.ClassQualifier(c)), functions)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, tower.DispatchReceiver, out.Candidates[0].Kind)
	assert.Equal(t, "this@Companion", out.Candidates[0].Bound.DispatchReceiver.String())
}

func TestPrivateMemberOutsideClass(t *testing.T) {
	u := newUniverse(t)
	c, cType := u.class("C", symbols.ClassSpec{})
	secret := u.fn("secret", symbols.NoTypeID)
	secret.Visibility = descriptors.VisibilityPrivate
	u.tab.DeclareMember(c, secret)
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	x := u.tab.Receiver(u.tab.NewReceiver("x", cType))

	out := u.resolve("secret", u.options(main, x), functions)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, tower.RuntimeError, out.Applicability)
	assert.True(t, out.Candidates[0].Bound.HasDiagnostic(tower.DiagVisibilityError))

	body := u.tab.NewClassBody(c, u.file)
	method := u.tab.NewScope(symbols.ScopeFunction, body, c, "method")
	out = u.resolve("secret", u.options(method, nil), functions)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, tower.Resolved, out.Applicability)
}

func TestSyntheticBeanProperty(t *testing.T) {
	u := newUniverse(t)
	_, strType := u.class("String", symbols.ClassSpec{})
	bean, beanType := u.class("Bean", symbols.ClassSpec{})
	getter := u.tab.DeclareMember(bean, u.fn("getTitle", strType))
	u.tab.DeclareMember(bean, u.fn("setTitle", symbols.NoTypeID))
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	b := u.tab.Receiver(u.tab.NewReceiver("b", beanType))

	out := u.resolve("title", u.options(main, b), variables)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, tower.ResolvedSynthesized, out.Applicability)
	prop, ok := out.Candidates[0].Descriptor().(synthetic.Property)
	require.True(t, ok)
	assert.Equal(t, u.tab.Descriptor(getter), prop.Getter)
	assert.True(t, prop.IsMutable())
	assert.Equal(t, tower.ExtensionReceiver, out.Candidates[0].Kind)
}

func TestCallPrefersFunctionOverInvoke(t *testing.T) {
	u := newUniverse(t)
	_, unit := u.class("Unit", symbols.ClassSpec{})
	fnType := u.tab.FunctionType(symbols.NoTypeID, nil, unit)
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	fn := u.tab.Declare(main, u.fn("h", unit))
	u.tab.Declare(main, u.val("h", fnType))

	out := u.resolve("h", u.options(main, nil), calls)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, u.tab.Descriptor(fn), out.Candidates[0].Descriptor())
	assert.Nil(t, out.Candidates[0].Variable)
}

func TestCallThroughInvoke(t *testing.T) {
	u := newUniverse(t)
	_, unit := u.class("Unit", symbols.ClassSpec{})
	fnType := u.tab.FunctionType(symbols.NoTypeID, []symbols.TypeID{unit}, unit)
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	h := u.tab.Declare(main, u.val("h", fnType))

	out := u.resolve("h", u.options(main, nil), calls)
	require.Len(t, out.Candidates, 1)
	got := out.Candidates[0]
	assert.Equal(t, descriptors.InvokeName, got.Descriptor().Name())
	require.NotNil(t, got.Variable)
	assert.Equal(t, u.tab.Descriptor(h), got.Variable.Descriptor())
	assert.Equal(t, "h -> "+policy.Describe(got.Descriptor()), got.String())
}

func TestTwoInvokableValuesAtOneLevelAreAmbiguous(t *testing.T) {
	u := newUniverse(t)
	_, intType := u.class("Int", symbols.ClassSpec{})
	_, unit := u.class("Unit", symbols.ClassSpec{})
	extType := u.tab.FunctionType(intType, []symbols.TypeID{intType}, unit)
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	g1 := u.tab.Declare(main, u.val("g", extType))
	g2 := u.tab.Declare(main, u.val("g", extType))

	out := u.resolve("g", u.options(main, nil), calls)
	require.Len(t, out.Candidates, 2)
	assert.Equal(t, tower.Resolved, out.Applicability)
	assert.Equal(t, u.tab.Descriptor(g1), out.Candidates[0].Variable.Descriptor())
	assert.Equal(t, u.tab.Descriptor(g2), out.Candidates[1].Variable.Descriptor())
}

func TestInnerInvokableValueShadowsOuter(t *testing.T) {
	u := newUniverse(t)
	_, intType := u.class("Int", symbols.ClassSpec{})
	_, unit := u.class("Unit", symbols.ClassSpec{})
	extType := u.tab.FunctionType(intType, []symbols.TypeID{intType}, unit)
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	u.tab.Declare(main, u.val("g", extType))
	block := u.tab.NewScope(symbols.ScopeBlock, main, symbols.NoSymbolID, "block")
	inner := u.tab.Declare(block, u.val("g", extType))

	out := u.resolve("g", u.options(block, nil), calls)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, u.tab.Descriptor(inner), out.Candidates[0].Variable.Descriptor())
}

func TestExtensionInvokeOnExplicitReceiver(t *testing.T) {
	u := newUniverse(t)
	_, cType := u.class("C", symbols.ClassSpec{})
	_, dType := u.class("D", symbols.ClassSpec{})
	_, unit := u.class("Unit", symbols.ClassSpec{})
	extType := u.tab.FunctionType(cType, nil, unit)
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	e := u.tab.Declare(main, u.val("e", extType))

	x := u.tab.Receiver(u.tab.NewReceiver("x", cType))
	out := u.resolve("e", u.options(main, x), calls)
	require.Len(t, out.Candidates, 1)
	got := out.Candidates[0]
	assert.Equal(t, tower.Resolved, out.Applicability)
	assert.Equal(t, tower.BothReceivers, got.Kind)
	assert.Equal(t, x, got.Extension)
	assert.Equal(t, u.tab.Descriptor(e), got.Variable.Descriptor())
	assert.IsType(t, symbols.ExtensionInvoke{}, got.Descriptor())

	y := u.tab.Receiver(u.tab.NewReceiver("y", dType))
	out = u.resolve("e", u.options(main, y), calls)
	require.Len(t, out.Candidates, 1)
	assert.Equal(t, tower.Inapplicable, out.Applicability)
}

func TestExplicitReceiverRoundTripThroughComposite(t *testing.T) {
	u := newUniverse(t)
	c, cType := u.class("C", symbols.ClassSpec{})
	u.tab.DeclareMember(c, u.fn("f", symbols.NoTypeID))
	u.tab.DeclareMember(c, u.fn("f", cType))
	main := u.tab.NewScope(symbols.ScopeFunction, u.file, symbols.NoSymbolID, "main")
	x := u.tab.Receiver(u.tab.NewReceiver("x", cType))
	opts := u.options(main, x)
	ctx := policy.New("f", opts)

	plain := tower.NewExplicitReceiverProcessor[*policy.Candidate](ctx, x, tower.Functions)
	wrapped := tower.NewCompositeProcessor[*policy.Candidate](tower.NewExplicitReceiverProcessor[*policy.Candidate](ctx, x, tower.Functions))

	describe := func(p tower.Processor[*policy.Candidate]) [][]string {
		var out [][]string
		for _, g := range p.CandidatesGroups() {
			var names []string
			for _, cand := range g {
				names = append(names, cand.String())
			}
			out = append(out, names)
		}
		return out
	}
	assert.Equal(t, describe(plain), describe(wrapped))
	assert.Len(t, describe(plain)[0], 2)
}
