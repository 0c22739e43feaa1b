package symbols

import (
	"fmt"

	"tower/internal/descriptors"
)

// ExtensionInvoke is the invoke of an extension function type seen as an
// extension function on the receiver type.
type ExtensionInvoke struct {
	t  *Table
	fn TypeID
}

var (
	_ descriptors.Descriptor        = ExtensionInvoke{}
	_ descriptors.InvokeSynthesizer = (*Table)(nil)
)

// SynthesizeInvoke turns the invoke member of an extension function type
// into an extension function.
func (t *Table) SynthesizeInvoke(invoke descriptors.Descriptor) descriptors.Descriptor {
	id, ok := t.SymbolOf(invoke)
	if !ok {
		panic(fmt.Errorf("symbols: invoke %v does not belong to this table", invoke))
	}
	fn := t.Symbols.Get(id).Type
	typ := t.Types.Get(fn)
	if typ == nil || typ.Kind != TypeFunction || !typ.Receiver.IsValid() {
		panic(fmt.Errorf("symbols: %v is not the invoke of an extension function type", invoke))
	}
	return ExtensionInvoke{t: t, fn: fn}
}

func (ExtensionInvoke) Name() descriptors.Name { return descriptors.InvokeName }

func (ExtensionInvoke) Kind() descriptors.Kind { return descriptors.KindFunction }

func (ExtensionInvoke) Visibility() descriptors.Visibility { return descriptors.VisibilityPublic }

func (e ExtensionInvoke) ExtensionReceiverType() descriptors.Type {
	return e.t.typeOf(e.t.Types.Get(e.fn).Receiver)
}

func (e ExtensionInvoke) ValueType() descriptors.Type {
	return e.t.typeOf(e.t.Types.Get(e.fn).Result)
}

func (ExtensionInvoke) IsSynthesized() bool { return false }

func (ExtensionInvoke) HasLowPriority() bool { return false }

func (ExtensionInvoke) IsError() bool { return false }

func (ExtensionInvoke) Overridden() []descriptors.Descriptor { return nil }

func (ExtensionInvoke) Container() descriptors.Descriptor { return nil }

func (e ExtensionInvoke) String() string { return e.t.TypeLabel(e.fn) + ".invoke" }
