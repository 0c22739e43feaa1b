// Package policy is the reference candidate policy: it checks extension
// receivers against their declared type and ranks candidates by their
// diagnostics.
package policy

import (
	"fmt"
	"strings"

	"tower/internal/descriptors"
	"tower/internal/tower"
)

// Candidate is a bound descriptor together with the receivers it was
// matched with.
type Candidate struct {
	Bound     tower.Bound
	Kind      tower.ExplicitReceiverKind
	Extension descriptors.ReceiverValue
	Status    tower.Status
	// Variable is the value an invoke candidate is called on.
	Variable *Candidate
}

// Descriptor is the resolved declaration.
func (c *Candidate) Descriptor() descriptors.Descriptor { return c.Bound.Descriptor }

// Applicability is the tier of the candidate.
func (c *Candidate) Applicability() tower.Applicability { return c.Status.Applicability() }

func (c *Candidate) String() string {
	var sb strings.Builder
	if c.Variable != nil {
		sb.WriteString(Describe(c.Variable.Descriptor()))
		sb.WriteString(" -> ")
	}
	sb.WriteString(Describe(c.Descriptor()))
	return sb.String()
}

// Describe renders a descriptor for messages.
func Describe(d descriptors.Descriptor) string {
	if d == nil {
		return "<nil>"
	}
	if s, ok := d.(fmt.Stringer); ok {
		return s.String()
	}
	return string(d.Name())
}

// Context implements tower.Context for *Candidate.
type Context struct {
	name  descriptors.Name
	opts  tower.Options
	tower *tower.ScopeTower
}

var _ tower.Context[*Candidate] = (*Context)(nil)

// New creates the context for resolving name with the given tower options.
func New(name descriptors.Name, opts tower.Options) *Context {
	return &Context{name: name, opts: opts, tower: tower.NewScopeTower(opts)}
}

func (c *Context) Name() descriptors.Name { return c.name }

func (c *Context) ScopeTower() *tower.ScopeTower { return c.tower }

// CreateCandidate checks that an extension has a receiver of a fitting type.
// A missing or mismatching receiver makes the candidate inapplicable.
func (c *Context) CreateCandidate(b tower.Bound, kind tower.ExplicitReceiverKind, extension descriptors.ReceiverValue) *Candidate {
	diagnostics := b.Diagnostics
	if b.RequiresExtensionReceiver() && !c.receiverFits(extension, b.Descriptor.ExtensionReceiverType()) {
		if d, ok := tower.PreviousResolveError(tower.StatusOtherError); ok {
			diagnostics = append(diagnostics[:len(diagnostics):len(diagnostics)], d)
		}
	}
	return &Candidate{
		Bound:     b,
		Kind:      kind,
		Extension: extension,
		Status:    tower.NewStatus(diagnostics...),
	}
}

func (c *Context) receiverFits(r descriptors.ReceiverValue, expected descriptors.Type) bool {
	if descriptors.IsNoReceiver(r) {
		return false
	}
	for _, t := range c.tower.AllPossibleTypes(r) {
		if t.IsSubtypeOf(expected) {
			return true
		}
	}
	return false
}

func (c *Context) Status(candidate *Candidate) tower.Status { return candidate.Status }

// TransformCandidate keeps the invoke and carries the variable's diagnostics
// over, so a bad variable makes the whole call bad.
func (c *Context) TransformCandidate(variable, invoke *Candidate) *Candidate {
	merged := make([]tower.Diagnostic, 0, len(variable.Status.Diagnostics)+len(invoke.Status.Diagnostics))
	merged = append(merged, variable.Status.Diagnostics...)
	merged = append(merged, invoke.Status.Diagnostics...)
	out := *invoke
	out.Status = tower.NewStatus(merged...)
	out.Variable = variable
	return &out
}

func (c *Context) ContextForVariable(stripExplicitReceiver bool) tower.Context[*Candidate] {
	if !stripExplicitReceiver || c.opts.ExplicitReceiver == nil {
		return c
	}
	opts := c.opts
	opts.ExplicitReceiver = nil
	return New(c.name, opts)
}

func (c *Context) ContextForInvoke(variable *Candidate, useExplicitReceiver bool) (descriptors.ReceiverValue, tower.Context[*Candidate]) {
	value := VariableValue{Variable: variable.Descriptor(), Dispatch: variable.Bound.DispatchReceiver}
	opts := c.opts
	if !useExplicitReceiver {
		opts.ExplicitReceiver = value
	}
	return value, New(descriptors.InvokeName, opts)
}

// VariableValue is the value a variable evaluates to, used as the receiver
// of its invoke.
type VariableValue struct {
	Variable descriptors.Descriptor
	Dispatch descriptors.ReceiverValue
}

var _ descriptors.ReceiverValue = VariableValue{}

func (v VariableValue) String() string { return Describe(v.Variable) }

func (v VariableValue) Type() descriptors.Type { return v.Variable.ValueType() }
