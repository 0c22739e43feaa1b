package tower

import (
	"tower/internal/descriptors"
)

type fakeType struct {
	name    string
	members *scopeData
	supers  []*fakeType
	extFn   bool
	isError bool
}

func (t *fakeType) String() string { return t.name }

func (t *fakeType) MemberScope() descriptors.Scope {
	if t.members == nil {
		return nil
	}
	return t.members
}

func (t *fakeType) IsError() bool                 { return t.isError }
func (t *fakeType) IsExtensionFunctionType() bool { return t.extFn }

func (t *fakeType) IsSubtypeOf(other descriptors.Type) bool {
	o, ok := other.(*fakeType)
	if !ok {
		return false
	}
	if t == o {
		return true
	}
	for _, s := range t.supers {
		if s.IsSubtypeOf(o) {
			return true
		}
	}
	return false
}

type fakeDescriptor struct {
	name        descriptors.Name
	kind        descriptors.Kind
	visibility  descriptors.Visibility
	ext         descriptors.Type
	value       descriptors.Type
	synthesized bool
	lowPriority bool
	isError     bool
	overridden  []descriptors.Descriptor
	container   descriptors.Descriptor
}

func (d *fakeDescriptor) Name() descriptors.Name                  { return d.name }
func (d *fakeDescriptor) Kind() descriptors.Kind                  { return d.kind }
func (d *fakeDescriptor) Visibility() descriptors.Visibility      { return d.visibility }
func (d *fakeDescriptor) ExtensionReceiverType() descriptors.Type { return d.ext }
func (d *fakeDescriptor) ValueType() descriptors.Type             { return d.value }
func (d *fakeDescriptor) IsSynthesized() bool                     { return d.synthesized }
func (d *fakeDescriptor) HasLowPriority() bool                    { return d.lowPriority }
func (d *fakeDescriptor) IsError() bool                           { return d.isError }
func (d *fakeDescriptor) Overridden() []descriptors.Descriptor    { return d.overridden }
func (d *fakeDescriptor) Container() descriptors.Descriptor       { return d.container }
func (d *fakeDescriptor) String() string                          { return string(d.name) }

func variable(name string, typ descriptors.Type) *fakeDescriptor {
	return &fakeDescriptor{name: descriptors.Name(name), kind: descriptors.KindVariable, value: typ}
}

func function(name string) *fakeDescriptor {
	return &fakeDescriptor{name: descriptors.Name(name), kind: descriptors.KindFunction}
}

func extension(name string, on descriptors.Type) *fakeDescriptor {
	d := function(name)
	d.ext = on
	return d
}

type fakeClass struct {
	fakeDescriptor
	classKind descriptors.ClassKind
	inner     bool
	ctors     []descriptors.Constructor
	hasValue  bool
	typ       *fakeType
}

func (c *fakeClass) ClassKind() descriptors.ClassKind        { return c.classKind }
func (c *fakeClass) IsInner() bool                           { return c.inner }
func (c *fakeClass) Constructors() []descriptors.Constructor { return c.ctors }
func (c *fakeClass) HasClassValue() bool                     { return c.hasValue }
func (c *fakeClass) DefaultType() descriptors.Type           { return c.typ }

type fakeCtor struct {
	fakeDescriptor
	class *fakeClass
	outer descriptors.ReceiverValue
}

func (c *fakeCtor) ConstructedClass() descriptors.Class                  { return c.class }
func (c *fakeCtor) DispatchReceiverParameter() descriptors.ReceiverValue { return c.outer }

func class(name string, kind descriptors.ClassKind) *fakeClass {
	c := &fakeClass{
		fakeDescriptor: fakeDescriptor{name: descriptors.Name(name), kind: descriptors.KindClass},
		classKind:      kind,
		typ:            &fakeType{name: name, members: newScopeData(name)},
	}
	c.hasValue = kind.IsSingleton()
	return c
}

func (c *fakeClass) addConstructor(outer descriptors.ReceiverValue) *fakeCtor {
	ctor := &fakeCtor{
		fakeDescriptor: fakeDescriptor{name: c.name, kind: descriptors.KindConstructor, container: c},
		class:          c,
		outer:          outer,
	}
	c.ctors = append(c.ctors, ctor)
	return ctor
}

type fakeReceiver struct {
	name string
	typ  descriptors.Type
}

func (r *fakeReceiver) String() string         { return r.name }
func (r *fakeReceiver) Type() descriptors.Type { return r.typ }

// scopeData answers by-name queries and counts them.
type scopeData struct {
	label   string
	vars    map[descriptors.Name][]descriptors.Descriptor
	funcs   map[descriptors.Name][]descriptors.Descriptor
	classes map[descriptors.Name]descriptors.Descriptor
	parent  descriptors.HierarchicalScope
	queries int
}

func newScopeData(label string) *scopeData {
	return &scopeData{
		label:   label,
		vars:    make(map[descriptors.Name][]descriptors.Descriptor),
		funcs:   make(map[descriptors.Name][]descriptors.Descriptor),
		classes: make(map[descriptors.Name]descriptors.Descriptor),
	}
}

func (s *scopeData) add(ds ...descriptors.Descriptor) {
	for _, d := range ds {
		switch d.Kind() {
		case descriptors.KindVariable:
			s.vars[d.Name()] = append(s.vars[d.Name()], d)
		case descriptors.KindFunction:
			s.funcs[d.Name()] = append(s.funcs[d.Name()], d)
		case descriptors.KindClass:
			s.classes[d.Name()] = d
		}
	}
}

func (s *scopeData) Variables(name descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	s.queries++
	return s.vars[name]
}

func (s *scopeData) Functions(name descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	s.queries++
	return s.funcs[name]
}

func (s *scopeData) Classifier(name descriptors.Name, _ descriptors.Location) descriptors.Descriptor {
	if c, ok := s.classes[name]; ok {
		return c
	}
	return nil
}

func (s *scopeData) Parent() descriptors.HierarchicalScope { return s.parent }
func (s *scopeData) String() string                        { return s.label }

type fakeLexical struct {
	*scopeData
	local    bool
	receiver descriptors.ReceiverValue
	owner    descriptors.Descriptor
}

func (s *fakeLexical) IsLocal() bool                               { return s.local }
func (s *fakeLexical) ImplicitReceiver() descriptors.ReceiverValue { return s.receiver }
func (s *fakeLexical) Owner() descriptors.Descriptor               { return s.owner }

type fakeImporting struct {
	*scopeData
	syntheticVars map[descriptors.Name][]descriptors.Descriptor
	seenReceivers []descriptors.Type
}

func (s *fakeImporting) SyntheticExtensionVariables(types []descriptors.Type, name descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	s.seenReceivers = types
	return s.syntheticVars[name]
}

func (s *fakeImporting) SyntheticExtensionFunctions(types []descriptors.Type, _ descriptors.Name, _ descriptors.Location) []descriptors.Descriptor {
	s.seenReceivers = types
	return nil
}

func importing(label string) *fakeImporting {
	return &fakeImporting{scopeData: newScopeData(label), syntheticVars: make(map[descriptors.Name][]descriptors.Descriptor)}
}

func lexical(label string, parent descriptors.HierarchicalScope, local bool) *fakeLexical {
	s := &fakeLexical{scopeData: newScopeData(label), local: local}
	if parent != nil {
		s.parent = parent
	}
	return s
}

type fakeFlowValue struct {
	receiver descriptors.ReceiverValue
	stable   bool
}

func (v fakeFlowValue) IsStable() bool { return v.stable }

type fakeFlow struct {
	casts    map[descriptors.ReceiverValue][]descriptors.Type
	unstable map[descriptors.ReceiverValue]bool
	calls    int
}

func newFakeFlow() *fakeFlow {
	return &fakeFlow{
		casts:    make(map[descriptors.ReceiverValue][]descriptors.Type),
		unstable: make(map[descriptors.ReceiverValue]bool),
	}
}

func (f *fakeFlow) DataFlowValue(r descriptors.ReceiverValue) descriptors.DataFlowValue {
	f.calls++
	return fakeFlowValue{receiver: r, stable: !f.unstable[r]}
}

func (f *fakeFlow) PossibleTypes(v descriptors.DataFlowValue) []descriptors.Type {
	return f.casts[v.(fakeFlowValue).receiver]
}

type fakeInvokes struct{}

func (fakeInvokes) SynthesizeInvoke(invoke descriptors.Descriptor) descriptors.Descriptor {
	return &fakeDescriptor{name: descriptors.InvokeName, kind: descriptors.KindFunction, value: invoke.ValueType(), container: invoke}
}

// testCandidate is the candidate type of testContext.
type testCandidate struct {
	bound     Bound
	kind      ExplicitReceiverKind
	extension descriptors.ReceiverValue
	status    Status
	variable  *testCandidate
}

// testContext ranks candidates by their diagnostics only; extensions
// without a receiver are inapplicable.
type testContext struct {
	name  descriptors.Name
	tower *ScopeTower
	opts  Options
}

func newTestContext(name string, opts Options) *testContext {
	return &testContext{name: descriptors.Name(name), tower: NewScopeTower(opts), opts: opts}
}

func (c *testContext) Name() descriptors.Name  { return c.name }
func (c *testContext) ScopeTower() *ScopeTower { return c.tower }

func (c *testContext) CreateCandidate(b Bound, kind ExplicitReceiverKind, ext descriptors.ReceiverValue) *testCandidate {
	diagnostics := b.Diagnostics
	if b.RequiresExtensionReceiver() && ext == nil {
		diagnostics = append(diagnostics[:len(diagnostics):len(diagnostics)], PreviousResolutionError(Inapplicable))
	}
	return &testCandidate{bound: b, kind: kind, extension: ext, status: NewStatus(diagnostics...)}
}

func (c *testContext) Status(tc *testCandidate) Status { return tc.status }

func (c *testContext) TransformCandidate(variable, invoke *testCandidate) *testCandidate {
	out := *invoke
	out.variable = variable
	return &out
}

func (c *testContext) ContextForVariable(strip bool) Context[*testCandidate] {
	if !strip {
		return c
	}
	opts := c.opts
	opts.ExplicitReceiver = nil
	return &testContext{name: c.name, tower: NewScopeTower(opts), opts: opts}
}

func (c *testContext) ContextForInvoke(variable *testCandidate, useExplicit bool) (descriptors.ReceiverValue, Context[*testCandidate]) {
	value := &fakeReceiver{name: string(variable.bound.Descriptor.Name()), typ: variable.bound.Descriptor.ValueType()}
	opts := c.opts
	if !useExplicit {
		opts.ExplicitReceiver = value
	}
	return value, &testContext{name: descriptors.InvokeName, tower: NewScopeTower(opts), opts: opts}
}

func descriptorsOf(cs []*testCandidate) []descriptors.Descriptor {
	out := make([]descriptors.Descriptor, len(cs))
	for i, c := range cs {
		out[i] = c.bound.Descriptor
	}
	return out
}

func groupDescriptors(groups [][]*testCandidate) [][]descriptors.Descriptor {
	out := make([][]descriptors.Descriptor, len(groups))
	for i, g := range groups {
		out[i] = descriptorsOf(g)
	}
	return out
}
