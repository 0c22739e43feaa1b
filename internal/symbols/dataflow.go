package symbols

import "tower/internal/descriptors"

// Fact is what data-flow analysis knows about a receiver at the use site.
type Fact struct {
	// Unstable receivers may change between the check and the use.
	Unstable bool
	// Casts are the narrowed types, excluding the declared one.
	Casts []TypeID
}

// DataFlow holds smart-cast facts for receivers of one table. Receivers
// without a fact are stable and not narrowed.
type DataFlow struct {
	t     *Table
	facts map[ReceiverID]Fact
}

var _ descriptors.DataFlowInfo = (*DataFlow)(nil)

// NewDataFlow returns an empty fact set for t.
func NewDataFlow(t *Table) *DataFlow {
	return &DataFlow{t: t, facts: make(map[ReceiverID]Fact)}
}

// Narrow records that r is known to also have the given types.
func (d *DataFlow) Narrow(r ReceiverID, stable bool, casts ...TypeID) {
	f := d.facts[r]
	f.Unstable = f.Unstable || !stable
	f.Casts = append(f.Casts, casts...)
	d.facts[r] = f
}

type flowValue struct {
	id     ReceiverID
	stable bool
}

func (v flowValue) IsStable() bool { return v.stable }

func (d *DataFlow) DataFlowValue(r descriptors.ReceiverValue) descriptors.DataFlowValue {
	v, ok := r.(Value)
	if !ok || v.t != d.t {
		return nil
	}
	return flowValue{id: v.id, stable: !d.facts[v.id].Unstable}
}

func (d *DataFlow) PossibleTypes(v descriptors.DataFlowValue) []descriptors.Type {
	fv, ok := v.(flowValue)
	if !ok {
		return nil
	}
	casts := d.facts[fv.id].Casts
	if len(casts) == 0 {
		return nil
	}
	out := make([]descriptors.Type, 0, len(casts))
	for _, c := range casts {
		out = append(out, d.t.typeOf(c))
	}
	return out
}
