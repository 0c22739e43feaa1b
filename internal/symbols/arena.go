package symbols

import (
	"fmt"
	"iter"

	"fortio.org/safecast"
)

// Arena stores values of one kind in a compact slice. Index 0 is reserved so
// that the zero ID always means "none".
type Arena[ID ~uint32, T any] struct {
	what string
	data []T
}

func newArena[ID ~uint32, T any](what string, capacity uint32) *Arena[ID, T] {
	if capacity == 0 {
		capacity = 32
	}
	return &Arena[ID, T]{
		what: what,
		data: make([]T, 1, capacity+1),
	}
}

// Scopes stores all allocated scopes.
type Scopes = Arena[ScopeID, Scope]

// Symbols stores declared symbols.
type Symbols = Arena[SymbolID, Symbol]

// Types stores class and function types.
type Types = Arena[TypeID, Type]

// Receivers stores receiver values.
type Receivers = Arena[ReceiverID, Receiver]

// New appends v and returns its ID.
func (a *Arena[ID, T]) New(v T) ID {
	value, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("%s arena overflow: %w", a.what, err))
	}
	a.data = append(a.data, v)
	return ID(value)
}

// Get returns a pointer to the stored value or nil if ID is invalid.
func (a *Arena[ID, T]) Get(id ID) *T {
	if id == 0 || int(id) >= len(a.data) {
		return nil
	}
	return &a.data[id]
}

// Len reports the number of stored values excluding the sentinel.
func (a *Arena[ID, T]) Len() int { return len(a.data) - 1 }

// Data exposes the underlying slice without the sentinel.
func (a *Arena[ID, T]) Data() []T {
	if len(a.data) <= 1 {
		return nil
	}
	return a.data[1:]
}

// All yields every stored value with its ID in allocation order.
func (a *Arena[ID, T]) All() iter.Seq2[ID, *T] {
	return func(yield func(ID, *T) bool) {
		for idx := 1; idx < len(a.data); idx++ {
			value, err := safecast.Conv[uint32](idx)
			if err != nil {
				return
			}
			if !yield(ID(value), &a.data[idx]) {
				return
			}
		}
	}
}
