package scenario

import (
	"fmt"
	"strings"

	"tower/internal/symbols"
)

// typeResolver maps type expressions onto table types.
type typeResolver struct {
	table *symbols.Table
	// classes maps class paths, and unambiguous simple names, to classes.
	classes map[string]symbols.SymbolID
	// ambiguous holds simple names declared more than once.
	ambiguous map[string]bool
	// opaque holds undeclared names; they live outside every scope chain.
	opaque      map[string]symbols.TypeID
	opaqueScope symbols.ScopeID
}

func newTypeResolver(table *symbols.Table) *typeResolver {
	return &typeResolver{
		table:       table,
		classes:     make(map[string]symbols.SymbolID),
		ambiguous:   make(map[string]bool),
		opaque:      make(map[string]symbols.TypeID),
		opaqueScope: table.NewScope(symbols.ScopeStatic, symbols.NoScopeID, symbols.NoSymbolID, "opaque"),
	}
}

func (r *typeResolver) register(path, simple string, id symbols.SymbolID) {
	r.classes[path] = id
	if path == simple {
		return
	}
	if _, taken := r.classes[simple]; taken {
		r.ambiguous[simple] = true
		return
	}
	r.classes[simple] = id
}

func (r *typeResolver) class(name string) (symbols.SymbolID, error) {
	if r.ambiguous[name] {
		if id, ok := r.classes[name]; ok && r.table.Path(id) == name {
			return id, nil
		}
		return symbols.NoSymbolID, fmt.Errorf("class name %q is ambiguous, use its path", name)
	}
	id, ok := r.classes[name]
	if !ok {
		return symbols.NoSymbolID, fmt.Errorf("unknown class %q", name)
	}
	return id, nil
}

// resolve parses a type expression.
func (r *typeResolver) resolve(expr string) (symbols.TypeID, error) {
	s := strings.TrimSpace(expr)
	switch {
	case s == "" || s == "Unit":
		return symbols.NoTypeID, nil
	case strings.HasPrefix(s, "error:"):
		return r.table.ErrorType(strings.TrimSpace(strings.TrimPrefix(s, "error:"))), nil
	}

	arrow, err := topLevelArrow(s)
	if err != nil {
		return symbols.NoTypeID, err
	}
	if arrow < 0 {
		if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
			return r.resolve(s[1 : len(s)-1])
		}
		return r.named(s)
	}

	result, err := r.resolve(s[arrow+2:])
	if err != nil {
		return symbols.NoTypeID, err
	}
	left := strings.TrimSpace(s[:arrow])
	open := matchingOpen(left)
	if open < 0 {
		return symbols.NoTypeID, fmt.Errorf("malformed function type %q", expr)
	}

	receiver := symbols.NoTypeID
	if head := strings.TrimSpace(left[:open]); head != "" {
		if !strings.HasSuffix(head, ".") {
			return symbols.NoTypeID, fmt.Errorf("malformed receiver in %q", expr)
		}
		if receiver, err = r.resolve(strings.TrimSuffix(head, ".")); err != nil {
			return symbols.NoTypeID, err
		}
		if !receiver.IsValid() {
			return symbols.NoTypeID, fmt.Errorf("receiver of %q must not be Unit", expr)
		}
	}

	var params []symbols.TypeID
	for _, part := range splitTopLevel(left[open+1 : len(left)-1]) {
		p, err := r.resolve(part)
		if err != nil {
			return symbols.NoTypeID, err
		}
		params = append(params, p)
	}
	return r.table.FunctionType(receiver, params, result), nil
}

func (r *typeResolver) named(name string) (symbols.TypeID, error) {
	if strings.ContainsAny(name, "(),-> ") {
		return symbols.NoTypeID, fmt.Errorf("malformed type %q", name)
	}
	if _, known := r.classes[name]; known || r.ambiguous[name] {
		id, err := r.class(name)
		if err != nil {
			return symbols.NoTypeID, err
		}
		return r.table.ClassType(id), nil
	}
	if id, ok := r.opaque[name]; ok {
		return id, nil
	}
	id := r.table.ClassType(r.table.DeclareClass(r.opaqueScope, name, symbols.ClassSpec{}))
	r.opaque[name] = id
	return id, nil
}

// topLevelArrow finds the first "->" outside parentheses.
func topLevelArrow(s string) (int, error) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return -1, fmt.Errorf("unbalanced parentheses in %q", s)
			}
		case '-':
			if depth == 0 && i+1 < len(s) && s[i+1] == '>' {
				return i, nil
			}
		}
	}
	if depth != 0 {
		return -1, fmt.Errorf("unbalanced parentheses in %q", s)
	}
	return -1, nil
}

// matchingOpen returns the index of the parenthesis closed by the last byte
// of s, or -1.
func matchingOpen(s string) int {
	if !strings.HasSuffix(s, ")") {
		return -1
	}
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func splitTopLevel(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
