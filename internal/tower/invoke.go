package tower

import "tower/internal/descriptors"

type eventKind uint8

const (
	eventInitial eventKind = iota
	eventLevel
	eventImplicitReceiver
)

// event is one entry of an invoke processor's replay log.
type event struct {
	kind     eventKind
	level    Level
	receiver descriptors.ReceiverValue
}

func applyEvent[C any](p Processor[C], e event) {
	switch e.kind {
	case eventLevel:
		p.ProcessLevel(e.level)
	case eventImplicitReceiver:
		p.ProcessImplicitReceiver(e.receiver)
	}
}

type invokeSpawn[C any] struct {
	variable C
	invokes  Processor[C]
}

// invokeBatch holds the invoke processors spawned for the variables that
// became successful in the same variable group.
type invokeBatch[C any] []invokeSpawn[C]

func (b invokeBatch[C]) apply(e event) {
	for _, s := range b {
		applyEvent(s.invokes, e)
	}
}

func (b invokeBatch[C]) groups(ctx Context[C]) [][]C {
	transform := func(s invokeSpawn[C], group []C) []C {
		out := make([]C, 0, len(group))
		for _, c := range group {
			out = append(out, ctx.TransformCandidate(s.variable, c))
		}
		return out
	}
	switch len(b) {
	case 0:
		return nil
	case 1:
		var out [][]C
		for _, group := range b[0].invokes.CandidatesGroups() {
			out = append(out, transform(b[0], group))
		}
		return out
	default:
		// equally ranked variables must not be ordered by declaration
		var flat []C
		for _, s := range b {
			for _, group := range s.invokes.CandidatesGroups() {
				flat = append(flat, transform(s, group)...)
			}
		}
		return single(flat)
	}
}

// InvokeProcessor resolves calls through the invoke convention. A variable
// processor finds values; every successful value gets its own invoke
// processor, which is brought up to date by replaying the event log.
type InvokeProcessor[C any] struct {
	ctx       Context[C]
	variables Processor[C]
	spawn     func(variable C) Processor[C]

	log     []event
	batches []invokeBatch[C]
	groups  [][]C
}

func newInvokeProcessor[C any](ctx Context[C], variables Processor[C], spawn func(C) Processor[C]) *InvokeProcessor[C] {
	p := &InvokeProcessor[C]{ctx: ctx, variables: variables, spawn: spawn}
	p.run(event{kind: eventInitial})
	return p
}

func (p *InvokeProcessor[C]) ProcessLevel(level Level) {
	p.run(event{kind: eventLevel, level: level})
}

func (p *InvokeProcessor[C]) ProcessImplicitReceiver(receiver descriptors.ReceiverValue) {
	p.run(event{kind: eventImplicitReceiver, receiver: receiver})
}

func (p *InvokeProcessor[C]) CandidatesGroups() [][]C { return p.groups }

func (p *InvokeProcessor[C]) run(e event) {
	p.groups = nil
	p.log = append(p.log, e)

	for _, batch := range p.batches {
		batch.apply(e)
		p.groups = append(p.groups, batch.groups(p.ctx)...)
	}

	applyEvent(p.variables, e)
	p.spawnInvokes()
}

func (p *InvokeProcessor[C]) spawnInvokes() {
	for _, group := range p.variables.CandidatesGroups() {
		var batch invokeBatch[C]
		for _, v := range group {
			if applicability(p.ctx, v).IsSuccess() {
				batch = append(batch, invokeSpawn[C]{variable: v, invokes: p.spawn(v)})
			}
		}
		if len(batch) == 0 {
			continue
		}
		p.batches = append(p.batches, batch)
		for _, e := range p.log {
			batch.apply(e)
			p.groups = append(p.groups, batch.groups(p.ctx)...)
		}
	}
}

// NewInvokeProcessor resolves name(args) where name is a value whose type
// has an invoke member or extension.
func NewInvokeProcessor[C any](ctx Context[C], explicit descriptors.Receiver) *InvokeProcessor[C] {
	variables := NewVariableProcessor(ctx.ContextForVariable(false), explicit)
	return newInvokeProcessor(ctx, variables, func(variable C) Processor[C] {
		receiver, invokeCtx := ctx.ContextForInvoke(variable, false)
		return NewExplicitReceiverProcessor(invokeCtx, receiver, Functions)
	})
}

// NewInvokeExtensionProcessor resolves explicit.name(args) where name is a
// value of an extension function type and explicit, or an implicit receiver,
// becomes its extension receiver.
func NewInvokeExtensionProcessor[C any](ctx Context[C], explicit descriptors.ReceiverValue) *InvokeProcessor[C] {
	variables := NewVariableProcessor[C](ctx.ContextForVariable(true), nil)
	return newInvokeProcessor(ctx, variables, func(variable C) Processor[C] {
		receiver, invokeCtx := ctx.ContextForInvoke(variable, true)
		invoke, ok := ctx.ScopeTower().ExtensionInvokeCandidate(receiver)
		if !ok {
			return NewKnownResultProcessor[C](nil)
		}
		return newInvokeExtensionCallProcessor(invokeCtx, invoke, explicit)
	})
}

// invokeExtensionCallProcessor binds a synthesized extension invoke to the
// explicit receiver up front and to each implicit receiver as it comes.
type invokeExtensionCallProcessor[C any] struct {
	ctx        Context[C]
	invoke     Bound
	candidates []C
}

func newInvokeExtensionCallProcessor[C any](ctx Context[C], invoke Bound, explicit descriptors.ReceiverValue) *invokeExtensionCallProcessor[C] {
	p := &invokeExtensionCallProcessor[C]{ctx: ctx, invoke: invoke}
	p.candidates = p.bind(explicit, BothReceivers)
	return p
}

func (p *invokeExtensionCallProcessor[C]) bind(extension descriptors.ReceiverValue, kind ExplicitReceiverKind) []C {
	if extension == nil {
		return nil
	}
	return []C{p.ctx.CreateCandidate(p.invoke, kind, extension)}
}

func (p *invokeExtensionCallProcessor[C]) ProcessLevel(Level) { p.candidates = nil }

func (p *invokeExtensionCallProcessor[C]) ProcessImplicitReceiver(receiver descriptors.ReceiverValue) {
	p.candidates = p.bind(receiver, DispatchReceiver)
}

func (p *invokeExtensionCallProcessor[C]) CandidatesGroups() [][]C { return single(p.candidates) }

// NewExplicitInvokeProcessor resolves a call on a computed value, as in
// (expr)() or receiver.(expr)(). Without an extension invoke the explicit
// receiver has nowhere to go and nothing is found.
func NewExplicitInvokeProcessor[C any](ctx Context[C], value, explicit descriptors.ReceiverValue) Processor[C] {
	extension, ok := ctx.ScopeTower().ExtensionInvokeCandidate(value)
	if !ok && explicit != nil {
		return NewKnownResultProcessor[C](nil)
	}
	usual := NewExplicitReceiverProcessor(ctx, value, Functions)
	if !ok {
		return usual
	}
	return NewCompositeProcessor[C](usual, newInvokeExtensionCallProcessor(ctx, extension, explicit))
}

// NewCallProcessor is the processor for a call written as name(args): plain
// functions first, then invokes on variables, then extension invokes.
func NewCallProcessor[C any](ctx Context[C], explicit descriptors.Receiver) Processor[C] {
	parts := []Processor[C]{
		NewFunctionProcessor(ctx, explicit),
		NewInvokeProcessor(ctx, explicit),
	}
	switch r := explicit.(type) {
	case nil:
		parts = append(parts, NewInvokeExtensionProcessor[C](ctx, nil))
	case descriptors.ReceiverValue:
		parts = append(parts, NewInvokeExtensionProcessor(ctx, r))
	}
	return NewCompositeProcessor(parts...)
}
