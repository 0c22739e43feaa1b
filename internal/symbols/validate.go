package symbols

import (
	"errors"
	"fmt"
	"slices"

	"tower/internal/descriptors"
)

// Validate walks internal arenas checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues.
func (t *Table) Validate() error {
	var errs []error

	// Check scopes.
	for scopeID, scope := range t.Scopes.All() {
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("scope %d has invalid kind", scopeID))
		}
		if scope.Parent.IsValid() {
			parent := t.Scopes.Get(scope.Parent)
			if parent == nil || scope.Parent == scopeID {
				errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", scopeID, scope.Parent))
				continue
			}
			if !slices.Contains(parent.Children, scopeID) {
				errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", scopeID, scope.Parent))
			}
			if scope.Kind.IsLexical() && !parent.Kind.IsLexical() && parent.Kind != ScopeImport {
				errs = append(errs, fmt.Errorf("scope %d (%s) nested in %s scope %d", scopeID, scope.Kind, parent.Kind, scope.Parent))
			}
		}
		if scope.Receiver.IsValid() && t.Receivers.Get(scope.Receiver) == nil {
			errs = append(errs, fmt.Errorf("scope %d has invalid receiver %d", scopeID, scope.Receiver))
		}
		if scope.Delegate.IsValid() && t.Scopes.Get(scope.Delegate) == nil {
			errs = append(errs, fmt.Errorf("scope %d has invalid delegate %d", scopeID, scope.Delegate))
		}
	}

	// Check child backlink consistency.
	for scopeID, scope := range t.Scopes.All() {
		for _, child := range scope.Children {
			c := t.Scopes.Get(child)
			if c == nil || child == scopeID {
				errs = append(errs, fmt.Errorf("scope %d has invalid child %d", scopeID, child))
				continue
			}
			if c.Parent != scopeID {
				errs = append(errs, fmt.Errorf("scope %d child %d missing parent backlink", scopeID, child))
			}
		}
	}

	// Check name index consistency.
	for scopeID, scope := range t.Scopes.All() {
		symbolSet := make(map[SymbolID]struct{}, len(scope.Symbols))
		for _, id := range scope.Symbols {
			symbolSet[id] = struct{}{}
		}
		covered := make(map[SymbolID]struct{}, len(scope.Symbols))
		for name, bucket := range scope.NameIndex {
			for _, id := range bucket {
				if _, ok := symbolSet[id]; !ok {
					errs = append(errs, fmt.Errorf("scope %d name index %d references missing symbol %d", scopeID, name, id))
					continue
				}
				covered[id] = struct{}{}
			}
		}
		for _, id := range scope.Symbols {
			if _, ok := covered[id]; !ok {
				errs = append(errs, fmt.Errorf("scope %d symbol %d missing in name index", scopeID, id))
			}
		}
	}

	// Check symbols.
	for symbolID, symbol := range t.Symbols.All() {
		if symbol.Kind == SymbolConstructor {
			class := t.Symbols.Get(symbol.Class)
			if class == nil || class.Kind != SymbolClass {
				errs = append(errs, fmt.Errorf("constructor %d has invalid class %d", symbolID, symbol.Class))
			} else if !slices.Contains(class.Constructors, symbolID) {
				errs = append(errs, fmt.Errorf("constructor %d is missing from class %d", symbolID, symbol.Class))
			}
			continue
		}
		scope := t.Scopes.Get(symbol.Scope)
		if scope == nil {
			errs = append(errs, fmt.Errorf("symbol %d has invalid scope %d", symbolID, symbol.Scope))
			continue
		}
		if !slices.Contains(scope.Symbols, symbolID) {
			errs = append(errs, fmt.Errorf("symbol %d is missing from scope %d list", symbolID, symbol.Scope))
		}
		for _, ref := range []TypeID{symbol.Extension, symbol.Value, symbol.Type} {
			if ref.IsValid() && t.Types.Get(ref) == nil {
				errs = append(errs, fmt.Errorf("symbol %d references invalid type %d", symbolID, ref))
			}
		}
		if symbol.Companion.IsValid() {
			companion := t.Symbols.Get(symbol.Companion)
			if companion == nil || companion.ClassKind != descriptors.ClassKindCompanion {
				errs = append(errs, fmt.Errorf("class %d has invalid companion %d", symbolID, symbol.Companion))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
