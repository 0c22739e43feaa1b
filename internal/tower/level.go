package tower

import (
	"fmt"

	"tower/internal/descriptors"
)

// LevelKind tags the flavour of a tower level.
type LevelKind uint8

const (
	// LevelScope is a lexical scope, local or not.
	LevelScope LevelKind = iota
	// LevelImporting is a file or import scope with synthetic extensions.
	LevelImporting
	// LevelReceiver holds the members of an implicit or explicit receiver.
	LevelReceiver
	// LevelQualifier holds the statics of a package or class reference.
	LevelQualifier
)

func (k LevelKind) String() string {
	switch k {
	case LevelScope:
		return "scope"
	case LevelImporting:
		return "importing"
	case LevelReceiver:
		return "receiver"
	case LevelQualifier:
		return "qualifier"
	default:
		return "unknown"
	}
}

// Level answers by-name candidate queries for one layer of the tower. Levels
// hold no state between queries.
type Level interface {
	fmt.Stringer
	Kind() LevelKind
	Variables(name descriptors.Name) []Bound
	Functions(name descriptors.Name) []Bound
}

type level struct {
	tower     *ScopeTower
	kind      LevelKind
	scope     descriptors.Scope
	importing descriptors.ImportingScope
	receiver  descriptors.ReceiverValue
	qualifier descriptors.Qualifier
}

type levelStrategy struct {
	variables func(l *level, name descriptors.Name) []Bound
	functions func(l *level, name descriptors.Name) []Bound
}

var levelStrategies = [...]levelStrategy{
	LevelScope:     {variables: scopeVariables, functions: scopeFunctions},
	LevelImporting: {variables: importingVariables, functions: importingFunctions},
	LevelReceiver:  {variables: receiverVariables, functions: receiverFunctions},
	LevelQualifier: {variables: qualifierVariables, functions: qualifierFunctions},
}

func (l *level) Kind() LevelKind { return l.kind }

func (l *level) Variables(name descriptors.Name) []Bound {
	return levelStrategies[l.kind].variables(l, name)
}

func (l *level) Functions(name descriptors.Name) []Bound {
	return levelStrategies[l.kind].functions(l, name)
}

func (l *level) String() string {
	switch l.kind {
	case LevelReceiver:
		return fmt.Sprintf("receiver(%s)", l.receiver)
	case LevelQualifier:
		return fmt.Sprintf("qualifier(%s)", l.qualifier)
	default:
		return fmt.Sprintf("%s(%v)", l.kind, l.scope)
	}
}

func newScopeLevel(t *ScopeTower, scope descriptors.Scope) *level {
	return &level{tower: t, kind: LevelScope, scope: scope}
}

func newImportingLevel(t *ScopeTower, scope descriptors.ImportingScope) *level {
	return &level{tower: t, kind: LevelImporting, scope: scope, importing: scope}
}

func newReceiverLevel(t *ScopeTower, receiver descriptors.ReceiverValue) *level {
	return &level{tower: t, kind: LevelReceiver, receiver: receiver}
}

func newQualifierLevel(t *ScopeTower, q descriptors.Qualifier) *level {
	return &level{tower: t, kind: LevelQualifier, scope: q.StaticScope(), qualifier: q}
}

type protoKind uint8

const (
	protoLocal protoKind = iota
	protoScope
	protoReceiver
	protoImporting
)

// levelPrototype is what the tower stores; the level is built on traversal.
type levelPrototype struct {
	kind      protoKind
	lexical   descriptors.LexicalScope
	importing descriptors.ImportingScope
	receiver  descriptors.ReceiverValue
}

func (p levelPrototype) asLevel(t *ScopeTower) Level {
	switch p.kind {
	case protoLocal, protoScope:
		return newScopeLevel(t, p.lexical)
	case protoReceiver:
		return newReceiverLevel(t, p.receiver)
	case protoImporting:
		return newImportingLevel(t, p.importing)
	default:
		panic(fmt.Errorf("tower: unknown level prototype %d", p.kind))
	}
}

type classTag func(c descriptors.Class) *Diagnostic

func noClassTag(descriptors.Class) *Diagnostic { return nil }

func tagged(d Diagnostic) *Diagnostic { return &d }

// constructorCandidates binds the constructors of classifier. Singletons and
// error classifiers have no callable constructors.
func constructorCandidates(
	t *ScopeTower,
	classifier descriptors.Descriptor,
	dispatch descriptors.ReceiverValue,
	smartCastType descriptors.Type,
	tag classTag,
) []Bound {
	class, ok := classifier.(descriptors.Class)
	if !ok || class.IsError() || class.ClassKind().IsSingleton() {
		return nil
	}
	special := tag(class)
	ctors := class.Constructors()
	out := make([]Bound, 0, len(ctors))
	for _, c := range ctors {
		receiver := dispatch
		outer := c.DispatchReceiverParameter()
		switch {
		case dispatch == nil && outer != nil:
			receiver = outer
		case dispatch != nil && outer == nil:
			receiver = nil
		}
		out = append(out, t.createCandidate(c, receiver, special, smartCastType))
	}
	return out
}

// objectVariableCandidate produces the variable an object name denotes.
func objectVariableCandidate(
	t *ScopeTower,
	classifier descriptors.Descriptor,
	smartCastType descriptors.Type,
	tag classTag,
) (Bound, bool) {
	class, ok := classifier.(descriptors.Class)
	if !ok || !class.HasClassValue() {
		return Bound{}, false
	}
	return t.createCandidate(ObjectVariable{Class: class}, nil, tag(class), smartCastType), true
}

func bindAll(t *ScopeTower, ds []descriptors.Descriptor, dispatch descriptors.ReceiverValue) []Bound {
	if len(ds) == 0 {
		return nil
	}
	out := make([]Bound, 0, len(ds))
	for _, d := range ds {
		out = append(out, t.createCandidate(d, dispatch, nil, nil))
	}
	return out
}

func staticVariables(l *level, name descriptors.Name) []Bound {
	t := l.tower
	if l.scope == nil {
		return nil
	}
	out := bindAll(t, l.scope.Variables(name, t.location), nil)
	if b, ok := objectVariableCandidate(t, l.scope.Classifier(name, t.location), nil, noClassTag); ok {
		out = append(out, b)
	}
	return out
}

func staticFunctions(l *level, name descriptors.Name, tag classTag) []Bound {
	t := l.tower
	if l.scope == nil {
		return nil
	}
	out := bindAll(t, l.scope.Functions(name, t.location), nil)
	return append(out, constructorCandidates(t, l.scope.Classifier(name, t.location), nil, nil, tag)...)
}

const unsupportedInnerClassMessage = "Constructor call for inner class from subclass unsupported"

func scopeVariables(l *level, name descriptors.Name) []Bound {
	return staticVariables(l, name)
}

func scopeFunctions(l *level, name descriptors.Name) []Bound {
	return staticFunctions(l, name, func(c descriptors.Class) *Diagnostic {
		if !c.IsInner() {
			return nil
		}
		return tagged(UnsupportedInnerClassCall(unsupportedInnerClassMessage))
	})
}

func qualifierVariables(l *level, name descriptors.Name) []Bound {
	return staticVariables(l, name)
}

func qualifierFunctions(l *level, name descriptors.Name) []Bound {
	return staticFunctions(l, name, func(c descriptors.Class) *Diagnostic {
		if !c.IsInner() {
			return nil
		}
		return tagged(InnerClassViaStaticReference(c))
	})
}

func importingVariables(l *level, name descriptors.Name) []Bound {
	t := l.tower
	out := scopeVariables(l, name)
	receivers := t.SyntheticExtensionReceivers()
	return append(out, bindAll(t, l.importing.SyntheticExtensionVariables(receivers, name, t.location), nil)...)
}

func importingFunctions(l *level, name descriptors.Name) []Bound {
	t := l.tower
	out := scopeFunctions(l, name)
	receivers := t.SyntheticExtensionReceivers()
	return append(out, bindAll(t, l.importing.SyntheticExtensionFunctions(receivers, name, t.location), nil)...)
}

// receiverMembers collects members of the receiver's declared type, then the
// members of each narrowed type tagged with the cast that found them.
func receiverMembers(
	l *level,
	members func(scope descriptors.Scope) []descriptors.Descriptor,
	additional func(scope descriptors.Scope, smartCastType descriptors.Type) []Bound,
) []Bound {
	t := l.tower
	var result []Bound
	if declared := l.receiver.Type(); declared != nil {
		if scope := declared.MemberScope(); scope != nil {
			result = append(result, bindAll(t, members(scope), l.receiver)...)
			result = append(result, additional(scope, nil)...)
		}
	}

	possible := t.PossibleTypes(l.receiver)
	if len(possible) == 0 {
		return result
	}
	var unstable *Diagnostic
	if !t.IsStableReceiver(l.receiver) {
		unstable = tagged(UnstableSmartCast())
	}
	for _, cast := range possible {
		scope := cast.MemberScope()
		if scope == nil {
			continue
		}
		for _, d := range members(scope) {
			result = append(result, t.createCandidate(d, l.receiver, unstable, cast))
		}
		for _, b := range additional(scope, cast) {
			if unstable != nil {
				b = b.WithDiagnostic(*unstable)
			}
			result = append(result, b)
		}
	}
	return result
}

func nestedViaInstance(c descriptors.Class) *Diagnostic {
	return tagged(NestedClassViaInstanceReference(c))
}

func receiverVariables(l *level, name descriptors.Name) []Bound {
	t := l.tower
	return receiverMembers(l,
		func(scope descriptors.Scope) []descriptors.Descriptor {
			return scope.Variables(name, t.location)
		},
		func(scope descriptors.Scope, cast descriptors.Type) []Bound {
			b, ok := objectVariableCandidate(t, scope.Classifier(name, t.location), cast, nestedViaInstance)
			if !ok {
				return nil
			}
			return []Bound{b}
		},
	)
}

func receiverFunctions(l *level, name descriptors.Name) []Bound {
	t := l.tower
	return receiverMembers(l,
		func(scope descriptors.Scope) []descriptors.Descriptor {
			return scope.Functions(name, t.location)
		},
		func(scope descriptors.Scope, cast descriptors.Type) []Bound {
			return constructorCandidates(t, scope.Classifier(name, t.location), l.receiver, cast, func(c descriptors.Class) *Diagnostic {
				if c.IsInner() {
					return nil
				}
				return nestedViaInstance(c)
			})
		},
	)
}
