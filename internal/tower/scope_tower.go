package tower

import (
	"fmt"
	"iter"
	"sync"

	"tower/internal/descriptors"
)

// Options configure a ScopeTower for one resolution attempt.
type Options struct {
	// Scope is the innermost lexical scope at the use site.
	Scope descriptors.LexicalScope
	// ExplicitReceiver is a ReceiverValue, a Qualifier or nil.
	ExplicitReceiver descriptors.Receiver
	Location         descriptors.Location
	DataFlow         descriptors.DataFlowInfo
	Visibility       descriptors.VisibilityChecker
	Invokes          descriptors.InvokeSynthesizer
}

// ScopeTower exposes the levels and implicit receivers searched for one use
// site, plus the smart-cast and visibility services levels need.
type ScopeTower struct {
	scope            descriptors.LexicalScope
	explicitReceiver descriptors.Receiver
	location         descriptors.Location
	dataFlow         descriptors.DataFlowInfo
	visibility       descriptors.VisibilityChecker
	invokes          descriptors.InvokeSynthesizer

	implicitReceivers []descriptors.ReceiverValue
	prototypes        []levelPrototype

	castsMu sync.Mutex
	casts   map[descriptors.ReceiverValue]smartCastInfo

	syntheticReceivers *publishOnce[[]descriptors.Type]
}

type smartCastInfo struct {
	value         descriptors.DataFlowValue
	possibleTypes []descriptors.Type
}

// NewScopeTower builds the tower for opts.Scope. The level prototypes and the
// implicit receiver list are computed here, levels themselves on traversal.
func NewScopeTower(opts Options) *ScopeTower {
	if opts.Scope == nil {
		panic("tower.NewScopeTower: nil lexical scope")
	}
	t := &ScopeTower{
		scope:            opts.Scope,
		explicitReceiver: opts.ExplicitReceiver,
		location:         opts.Location,
		dataFlow:         opts.DataFlow,
		visibility:       opts.Visibility,
		invokes:          opts.Invokes,
		casts:            make(map[descriptors.ReceiverValue]smartCastInfo),
	}
	t.implicitReceivers = collectImplicitReceivers(opts.Scope)
	t.prototypes = createPrototypeLevels(opts.Scope)
	t.syntheticReceivers = newPublishOnce(t.computeSyntheticReceivers)
	return t
}

// LexicalScope is the innermost scope at the use site.
func (t *ScopeTower) LexicalScope() descriptors.LexicalScope { return t.scope }

// ExplicitReceiver returns the receiver written before the name, nil if none.
func (t *ScopeTower) ExplicitReceiver() descriptors.Receiver { return t.explicitReceiver }

// Location is forwarded to every scope lookup.
func (t *ScopeTower) Location() descriptors.Location { return t.location }

// ImplicitReceivers lists receivers available at the use site, innermost first.
func (t *ScopeTower) ImplicitReceivers() []descriptors.ReceiverValue { return t.implicitReceivers }

// Levels yields the tower levels, highest priority first. A level is only
// created when the consumer asks for it.
func (t *ScopeTower) Levels() iter.Seq[Level] {
	return func(yield func(Level) bool) {
		for _, proto := range t.prototypes {
			if !yield(proto.asLevel(t)) {
				return
			}
		}
	}
}

// LevelCount is the number of levels Levels yields.
func (t *ScopeTower) LevelCount() int { return len(t.prototypes) }

func collectImplicitReceivers(scope descriptors.LexicalScope) []descriptors.ReceiverValue {
	var out []descriptors.ReceiverValue
	for _, s := range descriptors.ParentsWithSelf(scope) {
		lexical, ok := s.(descriptors.LexicalScope)
		if !ok {
			continue
		}
		r := lexical.ImplicitReceiver()
		if r == nil || r.Type() == nil || r.Type().IsError() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func createPrototypeLevels(scope descriptors.LexicalScope) []levelPrototype {
	parents := descriptors.ParentsWithSelf(scope)
	var result []levelPrototype

	// locals win
	for _, s := range parents {
		if lexical, ok := s.(descriptors.LexicalScope); ok && lexical.IsLocal() {
			result = append(result, levelPrototype{kind: protoLocal, lexical: lexical})
		}
	}

	for _, s := range parents {
		switch s := s.(type) {
		case descriptors.LexicalScope:
			if !s.IsLocal() {
				result = append(result, levelPrototype{kind: protoScope, lexical: s})
			}
			if r := s.ImplicitReceiver(); r != nil {
				result = append(result, levelPrototype{kind: protoReceiver, receiver: r})
			}
		case descriptors.ImportingScope:
			result = append(result, levelPrototype{kind: protoImporting, importing: s})
		default:
			panic(fmt.Errorf("tower: scope %T is neither lexical nor importing", s))
		}
	}
	return result
}

func (t *ScopeTower) smartCastInfo(r descriptors.ReceiverValue) smartCastInfo {
	t.castsMu.Lock()
	defer t.castsMu.Unlock()
	if info, ok := t.casts[r]; ok {
		return info
	}
	var info smartCastInfo
	if t.dataFlow != nil {
		info.value = t.dataFlow.DataFlowValue(r)
		if info.value != nil {
			info.possibleTypes = t.dataFlow.PossibleTypes(info.value)
		}
	}
	t.casts[r] = info
	return info
}

// DataFlowValue returns the data-flow identity of r, nil without data-flow info.
func (t *ScopeTower) DataFlowValue(r descriptors.ReceiverValue) descriptors.DataFlowValue {
	return t.smartCastInfo(r).value
}

// PossibleTypes lists the narrowed types of r, excluding its declared type.
func (t *ScopeTower) PossibleTypes(r descriptors.ReceiverValue) []descriptors.Type {
	return t.smartCastInfo(r).possibleTypes
}

// AllPossibleTypes lists the narrowed types of r followed by its declared type.
func (t *ScopeTower) AllPossibleTypes(r descriptors.ReceiverValue) []descriptors.Type {
	possible := t.PossibleTypes(r)
	out := make([]descriptors.Type, 0, len(possible)+1)
	out = append(out, possible...)
	if r.Type() != nil {
		out = append(out, r.Type())
	}
	return out
}

// IsStableReceiver reports whether smart casts on r are predictable. Receivers
// without a data-flow identity are stable.
func (t *ScopeTower) IsStableReceiver(r descriptors.ReceiverValue) bool {
	v := t.smartCastInfo(r).value
	return v == nil || v.IsStable()
}

// SyntheticExtensionReceivers is the receiver type set importing levels ask
// synthetic scopes about. Computed on first use.
func (t *ScopeTower) SyntheticExtensionReceivers() []descriptors.Type {
	return t.syntheticReceivers.get()
}

func (t *ScopeTower) computeSyntheticReceivers() []descriptors.Type {
	if t.explicitReceiver != nil {
		switch r := t.explicitReceiver.(type) {
		case descriptors.ReceiverValue:
			return t.AllPossibleTypes(r)
		case descriptors.Qualifier:
			if companion := r.CompanionReceiver(); companion != nil {
				return t.PossibleTypes(companion)
			}
		}
		// package or class without companion object
		return nil
	}
	var out []descriptors.Type
	for _, r := range t.implicitReceivers {
		out = append(out, t.AllPossibleTypes(r)...)
	}
	return out
}

func (t *ScopeTower) owner() descriptors.Descriptor {
	return t.scope.Owner()
}

// createCandidate binds d and attaches the diagnostics every level agrees on.
func (t *ScopeTower) createCandidate(
	d descriptors.Descriptor,
	dispatch descriptors.ReceiverValue,
	special *Diagnostic,
	smartCastType descriptors.Type,
) Bound {
	var diagnostics []Diagnostic
	if special != nil {
		diagnostics = append(diagnostics, *special)
	}
	if d.IsError() {
		diagnostics = append(diagnostics, ErrorDescriptor())
	}
	if isSynthesized(d) {
		diagnostics = append(diagnostics, Synthesized())
	}
	if smartCastType != nil {
		diagnostics = append(diagnostics, UsedSmartCastForDispatchReceiver(smartCastType))
	}
	if t.visibility != nil {
		receiver := dispatch
		if receiver == nil {
			receiver = descriptors.NoReceiver
		}
		if invisible := t.visibility.FindInvisibleMember(receiver, d, t.owner()); invisible != nil {
			diagnostics = append(diagnostics, VisibilityError(invisible))
		}
	}
	return Bound{Descriptor: d, DispatchReceiver: dispatch, Diagnostics: diagnostics}
}

func isSynthesized(d descriptors.Descriptor) bool {
	return orOverridesSynthesized(d, 0) || d.HasLowPriority()
}

func orOverridesSynthesized(d descriptors.Descriptor, depth int) bool {
	if d.IsSynthesized() {
		return true
	}
	// cyclic override graphs
	if depth > 64 {
		return false
	}
	for _, o := range d.Overridden() {
		if orOverridesSynthesized(o, depth+1) {
			return true
		}
	}
	return false
}

// ExtensionInvokeCandidate returns the synthesized invoke of an extension
// function typed receiver. It returns false when the receiver is not of an
// extension function type and panics when the type breaks the contract of
// exposing exactly one clean invoke member.
func (t *ScopeTower) ExtensionInvokeCandidate(receiver descriptors.ReceiverValue) (Bound, bool) {
	if receiver == nil || receiver.Type() == nil || !receiver.Type().IsExtensionFunctionType() {
		return Bound{}, false
	}
	invokes := newReceiverLevel(t, receiver).Functions(descriptors.InvokeName)
	if len(invokes) != 1 {
		panic(fmt.Errorf("tower: extension function type %s has %d invoke members, expected 1", receiver.Type(), len(invokes)))
	}
	found := invokes[0]
	if len(found.Diagnostics) != 0 {
		panic(fmt.Errorf("tower: invoke of %s carries diagnostics %v", receiver.Type(), found.Diagnostics))
	}
	if t.invokes == nil {
		panic("tower: extension invoke requested without an invoke synthesizer")
	}
	synthesized := t.invokes.SynthesizeInvoke(found.Descriptor)
	// no Synthesized diagnostic: it must rank like a member
	return Bound{Descriptor: synthesized, DispatchReceiver: receiver}, true
}
