package tower

import (
	"fmt"

	"tower/internal/descriptors"
)

// Processor accumulates candidates while the resolver walks the tower. After
// every event CandidatesGroups returns the groups produced by that event only,
// highest priority group first.
type Processor[C any] interface {
	ProcessLevel(level Level)
	ProcessImplicitReceiver(receiver descriptors.ReceiverValue)
	CandidatesGroups() [][]C
}

// Selector picks the members a processor asks a level for.
type Selector func(level Level, name descriptors.Name) []Bound

var (
	// Variables selects variables and object names.
	Variables Selector = Level.Variables
	// Functions selects functions and constructors.
	Functions Selector = Level.Functions
)

func single[C any](candidates []C) [][]C {
	if len(candidates) == 0 {
		return nil
	}
	return [][]C{candidates}
}

func partitionExtensions(bs []Bound) (members, extensions []Bound) {
	for _, b := range bs {
		if b.RequiresExtensionReceiver() {
			extensions = append(extensions, b)
		} else {
			members = append(members, b)
		}
	}
	return members, extensions
}

func createAll[C any](ctx Context[C], bs []Bound, kind ExplicitReceiverKind, extension descriptors.ReceiverValue) []C {
	if len(bs) == 0 {
		return nil
	}
	out := make([]C, 0, len(bs))
	for _, b := range bs {
		out = append(out, ctx.CreateCandidate(b, kind, extension))
	}
	return out
}

// KnownResultProcessor reports a fixed result before the first event and
// nothing afterwards.
type KnownResultProcessor[C any] struct {
	candidates []C
}

func NewKnownResultProcessor[C any](result []C) *KnownResultProcessor[C] {
	return &KnownResultProcessor[C]{candidates: result}
}

func (p *KnownResultProcessor[C]) ProcessLevel(Level) { p.candidates = nil }

func (p *KnownResultProcessor[C]) ProcessImplicitReceiver(descriptors.ReceiverValue) {
	p.candidates = nil
}

func (p *KnownResultProcessor[C]) CandidatesGroups() [][]C { return single(p.candidates) }

// CompositeProcessor fans events out to its parts and concatenates their
// groups in part order.
type CompositeProcessor[C any] struct {
	parts []Processor[C]
}

func NewCompositeProcessor[C any](parts ...Processor[C]) *CompositeProcessor[C] {
	return &CompositeProcessor[C]{parts: parts}
}

func (p *CompositeProcessor[C]) ProcessLevel(level Level) {
	for _, part := range p.parts {
		part.ProcessLevel(level)
	}
}

func (p *CompositeProcessor[C]) ProcessImplicitReceiver(receiver descriptors.ReceiverValue) {
	for _, part := range p.parts {
		part.ProcessImplicitReceiver(receiver)
	}
}

func (p *CompositeProcessor[C]) CandidatesGroups() [][]C {
	var out [][]C
	for _, part := range p.parts {
		out = append(out, part.CandidatesGroups()...)
	}
	return out
}

// ExplicitReceiverProcessor resolves a name written after a value. Members of
// the receiver are found up front, extensions on every later level.
type ExplicitReceiverProcessor[C any] struct {
	ctx        Context[C]
	receiver   descriptors.ReceiverValue
	collect    Selector
	candidates []C
}

func NewExplicitReceiverProcessor[C any](ctx Context[C], receiver descriptors.ReceiverValue, collect Selector) *ExplicitReceiverProcessor[C] {
	p := &ExplicitReceiverProcessor[C]{ctx: ctx, receiver: receiver, collect: collect}
	p.candidates = p.resolveAsMember()
	return p
}

func (p *ExplicitReceiverProcessor[C]) resolveAsMember() []C {
	level := newReceiverLevel(p.ctx.ScopeTower(), p.receiver)
	members, _ := partitionExtensions(p.collect(level, p.ctx.Name()))
	return createAll(p.ctx, members, DispatchReceiver, nil)
}

func (p *ExplicitReceiverProcessor[C]) ProcessLevel(level Level) {
	_, extensions := partitionExtensions(p.collect(level, p.ctx.Name()))
	p.candidates = createAll(p.ctx, extensions, ExtensionReceiver, p.receiver)
}

// ProcessImplicitReceiver yields nothing: the explicit receiver already took
// the receiver slot.
func (p *ExplicitReceiverProcessor[C]) ProcessImplicitReceiver(descriptors.ReceiverValue) {
	p.candidates = nil
}

func (p *ExplicitReceiverProcessor[C]) CandidatesGroups() [][]C { return single(p.candidates) }

// QualifierProcessor resolves a name written after a package or class
// reference. Everything is found before the first event.
type QualifierProcessor[C any] struct {
	candidates []C
}

func NewQualifierProcessor[C any](ctx Context[C], q descriptors.Qualifier, collect Selector) *QualifierProcessor[C] {
	level := newQualifierLevel(ctx.ScopeTower(), q)
	statics, _ := partitionExtensions(collect(level, ctx.Name()))
	return &QualifierProcessor[C]{candidates: createAll(ctx, statics, NoExplicitReceiver, nil)}
}

func (p *QualifierProcessor[C]) ProcessLevel(Level) { p.candidates = nil }

func (p *QualifierProcessor[C]) ProcessImplicitReceiver(descriptors.ReceiverValue) {
	p.candidates = nil
}

func (p *QualifierProcessor[C]) CandidatesGroups() [][]C { return single(p.candidates) }

// NoExplicitReceiverProcessor resolves a bare name. Extensions found on a
// level wait for the implicit receiver that follows it.
type NoExplicitReceiverProcessor[C any] struct {
	ctx        Context[C]
	collect    Selector
	candidates []C
	pending    []Bound
}

func NewNoExplicitReceiverProcessor[C any](ctx Context[C], collect Selector) *NoExplicitReceiverProcessor[C] {
	return &NoExplicitReceiverProcessor[C]{ctx: ctx, collect: collect}
}

func (p *NoExplicitReceiverProcessor[C]) ProcessLevel(level Level) {
	members, extensions := partitionExtensions(p.collect(level, p.ctx.Name()))
	p.pending = extensions
	p.candidates = createAll(p.ctx, members, NoExplicitReceiver, nil)
}

func (p *NoExplicitReceiverProcessor[C]) ProcessImplicitReceiver(receiver descriptors.ReceiverValue) {
	p.candidates = createAll(p.ctx, p.pending, NoExplicitReceiver, receiver)
	p.pending = nil
}

func (p *NoExplicitReceiverProcessor[C]) CandidatesGroups() [][]C { return single(p.candidates) }

func newSimpleProcessor[C any](ctx Context[C], explicit descriptors.Receiver, collect Selector) Processor[C] {
	switch r := explicit.(type) {
	case nil:
		return NewNoExplicitReceiverProcessor(ctx, collect)
	case descriptors.ReceiverValue:
		return NewExplicitReceiverProcessor(ctx, r, collect)
	case descriptors.Qualifier:
		qualifier := NewQualifierProcessor(ctx, r, collect)
		companion := r.CompanionReceiver()
		if companion == nil {
			return qualifier
		}
		return NewCompositeProcessor[C](qualifier, NewExplicitReceiverProcessor(ctx, companion, collect))
	default:
		panic(fmt.Errorf("tower: illegal explicit receiver %v (%T)", explicit, explicit))
	}
}

// NewVariableProcessor resolves name as a variable for the given explicit
// receiver, which must be nil, a ReceiverValue or a Qualifier.
func NewVariableProcessor[C any](ctx Context[C], explicit descriptors.Receiver) Processor[C] {
	return newSimpleProcessor(ctx, explicit, Variables)
}

// NewFunctionProcessor resolves name as a function or constructor.
func NewFunctionProcessor[C any](ctx Context[C], explicit descriptors.Receiver) Processor[C] {
	return newSimpleProcessor(ctx, explicit, Functions)
}
