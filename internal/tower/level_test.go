package tower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tower/internal/descriptors"
)

func TestReceiverLevelSmartCastMembers(t *testing.T) {
	n := newNestedScopes()
	declared := function("f")
	n.classTy.members.add(declared)

	narrowed := &fakeType{name: "D", members: newScopeData("D")}
	viaCast := function("f")
	narrowed.members.add(viaCast)

	for _, tc := range []struct {
		name     string
		unstable bool
		want     []DiagnosticKind
	}{
		{name: "stable", want: []DiagnosticKind{DiagUsedSmartCastForDispatchReceiver}},
		{name: "unstable", unstable: true, want: []DiagnosticKind{DiagUnstableSmartCast, DiagUsedSmartCastForDispatchReceiver}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			flow := newFakeFlow()
			flow.casts[n.this] = []descriptors.Type{narrowed}
			flow.unstable[n.this] = tc.unstable
			st := NewScopeTower(Options{Scope: n.block, DataFlow: flow})

			found := newReceiverLevel(st, n.this).Functions("f")
			require.Len(t, found, 2)
			assert.Same(t, declared, found[0].Descriptor)
			assert.Empty(t, found[0].Diagnostics)
			assert.Same(t, viaCast, found[1].Descriptor)
			assert.Equal(t, tc.want, diagnosticKinds(found[1]))
			assert.Equal(t, descriptors.ReceiverValue(n.this), found[1].DispatchReceiver)
		})
	}
}

func TestReceiverLevelNestedClasses(t *testing.T) {
	n := newNestedScopes()
	nested := class("Nested", descriptors.ClassKindClass)
	nested.addConstructor(nil)
	inner := class("Inner", descriptors.ClassKindClass)
	inner.inner = true
	inner.addConstructor(n.this)
	object := class("Obj", descriptors.ClassKindObject)
	object.addConstructor(nil)
	n.classTy.members.add(nested, inner, object)

	st := NewScopeTower(Options{Scope: n.block})
	level := newReceiverLevel(st, n.this)

	got := level.Functions("Nested")
	require.Len(t, got, 1)
	assert.Nil(t, got[0].DispatchReceiver)
	assert.Equal(t, []DiagnosticKind{DiagNestedClassViaInstanceReference}, diagnosticKinds(got[0]))

	got = level.Functions("Inner")
	require.Len(t, got, 1)
	assert.Equal(t, descriptors.ReceiverValue(n.this), got[0].DispatchReceiver)
	assert.Empty(t, got[0].Diagnostics)

	assert.Empty(t, level.Functions("Obj"))

	vars := level.Variables("Obj")
	require.Len(t, vars, 1)
	assert.Equal(t, ObjectVariable{Class: object}, vars[0].Descriptor)
	assert.Nil(t, vars[0].DispatchReceiver)
	assert.Equal(t, []DiagnosticKind{DiagNestedClassViaInstanceReference}, diagnosticKinds(vars[0]))
}

func TestReceiverLevelUnstableCastTagsNested(t *testing.T) {
	n := newNestedScopes()
	narrowed := &fakeType{name: "D", members: newScopeData("D")}
	nested := class("Nested", descriptors.ClassKindClass)
	nested.addConstructor(nil)
	narrowed.members.add(nested)

	flow := newFakeFlow()
	flow.casts[n.this] = []descriptors.Type{narrowed}
	flow.unstable[n.this] = true
	st := NewScopeTower(Options{Scope: n.block, DataFlow: flow})

	got := newReceiverLevel(st, n.this).Functions("Nested")
	require.Len(t, got, 1)
	assert.Equal(t, []DiagnosticKind{
		DiagNestedClassViaInstanceReference,
		DiagUsedSmartCastForDispatchReceiver,
		DiagUnstableSmartCast,
	}, diagnosticKinds(got[0]))
	assert.Equal(t, ImpossibleToGenerate, NewStatus(got[0].Diagnostics...).Applicability())
}

func TestReceiverLevelUnstableCastOnInnerClass(t *testing.T) {
	n := newNestedScopes()
	narrowed := &fakeType{name: "D", members: newScopeData("D")}
	inner := class("Inner", descriptors.ClassKindClass)
	inner.inner = true
	inner.addConstructor(n.this)
	narrowed.members.add(inner)

	flow := newFakeFlow()
	flow.casts[n.this] = []descriptors.Type{narrowed}
	flow.unstable[n.this] = true
	st := NewScopeTower(Options{Scope: n.block, DataFlow: flow})

	got := newReceiverLevel(st, n.this).Functions("Inner")
	require.Len(t, got, 1)
	assert.Equal(t, descriptors.ReceiverValue(n.this), got[0].DispatchReceiver)
	assert.Equal(t, []DiagnosticKind{
		DiagUsedSmartCastForDispatchReceiver,
		DiagUnstableSmartCast,
	}, diagnosticKinds(got[0]))
	assert.Equal(t, MayThrowRuntimeError, NewStatus(got[0].Diagnostics...).Applicability())
}

func TestScopeLevelConstructors(t *testing.T) {
	n := newNestedScopes()
	plain := class("Plain", descriptors.ClassKindClass)
	plain.addConstructor(nil)
	plain.addConstructor(nil)
	inner := class("Inner", descriptors.ClassKindClass)
	inner.inner = true
	inner.addConstructor(n.this)
	broken := class("Broken", descriptors.ClassKindClass)
	broken.isError = true
	broken.addConstructor(nil)
	n.class.add(plain, inner, broken)

	st := NewScopeTower(Options{Scope: n.block})
	level := newScopeLevel(st, n.class)

	got := level.Functions("Plain")
	require.Len(t, got, 2)
	for _, b := range got {
		assert.Nil(t, b.DispatchReceiver)
		assert.Empty(t, b.Diagnostics)
	}

	got = level.Functions("Inner")
	require.Len(t, got, 1)
	assert.Equal(t, descriptors.ReceiverValue(n.this), got[0].DispatchReceiver)
	require.Len(t, got[0].Diagnostics, 1)
	assert.Equal(t, DiagUnsupportedInnerClassCall, got[0].Diagnostics[0].Kind)
	assert.Equal(t, unsupportedInnerClassMessage, got[0].Diagnostics[0].Message)

	assert.Empty(t, level.Functions("Broken"))
}

func TestScopeLevelObjectVariable(t *testing.T) {
	n := newNestedScopes()
	object := class("Obj", descriptors.ClassKindObject)
	x := variable("Obj", object.typ)
	n.class.add(object, x)

	st := NewScopeTower(Options{Scope: n.block})
	got := newScopeLevel(st, n.class).Variables("Obj")
	require.Len(t, got, 2)
	assert.Same(t, x, got[0].Descriptor)
	assert.Equal(t, ObjectVariable{Class: object}, got[1].Descriptor)
	assert.Empty(t, got[1].Diagnostics)
	assert.Equal(t, descriptors.Type(object.typ), got[1].Descriptor.ValueType())
}

func TestQualifierLevel(t *testing.T) {
	n := newNestedScopes()
	statics := newScopeData("C")
	inner := class("Inner", descriptors.ClassKindClass)
	inner.inner = true
	inner.addConstructor(n.this)
	companion := class("Companion", descriptors.ClassKindCompanion)
	statics.add(inner, companion, function("create"))

	st := NewScopeTower(Options{Scope: n.block})
	level := newQualifierLevel(st, &fakeQualifier{name: "C", statics: statics})
	assert.Equal(t, "qualifier(C)", level.String())

	got := level.Functions("Inner")
	require.Len(t, got, 1)
	assert.Equal(t, []DiagnosticKind{DiagInnerClassViaStaticReference}, diagnosticKinds(got[0]))
	assert.Equal(t, "inner-class-via-static-reference(Inner)", got[0].Diagnostics[0].String())

	assert.Len(t, level.Functions("create"), 1)

	vars := level.Variables("Companion")
	require.Len(t, vars, 1)
	assert.Empty(t, vars[0].Diagnostics)
}

func TestImportingLevelSynthetics(t *testing.T) {
	n := newNestedScopes()
	top := variable("size", nil)
	synthetic := variable("size", nil)
	synthetic.synthesized = true
	n.file.add(top)
	n.file.syntheticVars["size"] = []descriptors.Descriptor{synthetic}

	st := NewScopeTower(Options{Scope: n.block})
	got := newImportingLevel(st, n.file).Variables("size")
	require.Len(t, got, 2)
	assert.Same(t, top, got[0].Descriptor)
	assert.Same(t, synthetic, got[1].Descriptor)
	assert.Equal(t, []DiagnosticKind{DiagSynthesized}, diagnosticKinds(got[1]))
	assert.Equal(t, []descriptors.Type{n.classTy}, n.file.seenReceivers)

	assert.Empty(t, newImportingLevel(st, n.file).Functions("size"))
}

func TestLevelKindString(t *testing.T) {
	assert.Equal(t, "scope", LevelScope.String())
	assert.Equal(t, "importing", LevelImporting.String())
	assert.Equal(t, "receiver", LevelReceiver.String())
	assert.Equal(t, "qualifier", LevelQualifier.String())
	assert.Equal(t, "unknown", LevelKind(42).String())
}
