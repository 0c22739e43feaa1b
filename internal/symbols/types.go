package symbols

import (
	"fmt"
	"strings"
)

// TypeKind classifies a type.
type TypeKind uint8

const (
	TypeInvalid TypeKind = iota
	TypeClass
	TypeFunction
	TypeError
)

func (k TypeKind) String() string {
	switch k {
	case TypeClass:
		return "class"
	case TypeFunction:
		return "function"
	case TypeError:
		return "error"
	default:
		return "invalid"
	}
}

// Type is a class type or a function type. Function types with a Receiver
// are extension function types.
type Type struct {
	Kind  TypeKind
	Label string
	// Class is the classifier of a class type.
	Class  SymbolID
	Supers []TypeID

	Receiver TypeID
	Params   []TypeID
	Result   TypeID
	// Members holds the invoke member of a function type.
	Members ScopeID
}

func (t *Table) functionTypeLabel(receiver TypeID, params []TypeID, result TypeID) string {
	var sb strings.Builder
	if receiver.IsValid() {
		sb.WriteString(t.TypeLabel(receiver))
		sb.WriteByte('.')
	}
	sb.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.TypeLabel(p))
	}
	sb.WriteString(") -> ")
	if result.IsValid() {
		sb.WriteString(t.TypeLabel(result))
	} else {
		sb.WriteString("Unit")
	}
	return sb.String()
}

// TypeLabel renders a type for messages.
func (t *Table) TypeLabel(id TypeID) string {
	typ := t.Types.Get(id)
	if typ == nil {
		return fmt.Sprintf("<type %d>", id)
	}
	return typ.Label
}

// isSubtype walks the declared supertypes of sub breadth-first.
func (t *Table) isSubtype(sub, super TypeID) bool {
	if sub == super {
		return true
	}
	seen := map[TypeID]bool{sub: true}
	queue := []TypeID{sub}
	for len(queue) > 0 {
		cur := t.Types.Get(queue[0])
		queue = queue[1:]
		if cur == nil {
			continue
		}
		for _, s := range cur.Supers {
			if s == super {
				return true
			}
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return false
}

// linearize lists id followed by its supertypes, breadth-first, without
// duplicates.
func (t *Table) linearize(id TypeID) []TypeID {
	out := []TypeID{id}
	seen := map[TypeID]bool{id: true}
	for i := 0; i < len(out); i++ {
		cur := t.Types.Get(out[i])
		if cur == nil {
			continue
		}
		for _, s := range cur.Supers {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
