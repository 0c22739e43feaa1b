package scenario

import (
	"fmt"
	"strings"

	"tower/internal/descriptors"
	"tower/internal/diag"
	"tower/internal/source"
	"tower/internal/symbols"
	"tower/internal/synthetic"
)

// defaultScope is opened when a fixture declares no scope of its own.
const defaultScope = "main"

// Universe is a fixture built into a symbol table.
type Universe struct {
	Fixture *Fixture
	Table   *symbols.Table
	Flow    *symbols.DataFlow

	file      symbols.ScopeID
	packages  map[string]symbols.ScopeID
	scopes    map[string]symbols.ScopeID
	innermost symbols.ScopeID
	receivers map[string]symbols.ReceiverID
	types     *typeResolver
}

type builder struct {
	u       *Universe
	t       *symbols.Table
	classes []pendingClass
	imports []symbols.ScopeID
	// overrides are linked once every member exists.
	overrides []pendingOverride
}

type pendingClass struct {
	decl *ClassDecl
	id   symbols.SymbolID
	path string
}

type pendingOverride struct {
	id   symbols.SymbolID
	refs []string
	pos  source.Pos
}

// Build declares everything fx describes. The returned universe is not
// modified by queries.
func Build(fx *Fixture) (*Universe, error) {
	table := symbols.NewTable(symbols.Hints{
		Scopes:  uint(len(fx.Scopes) + 3*len(fx.Classes) + len(fx.Imports) + 2),
		Symbols: uint(len(fx.Decls) + 4*len(fx.Classes)),
	}, nil)
	table.SetSynthetic(synthetic.NewScopes(synthetic.BeanProperties{}))

	u := &Universe{
		Fixture:   fx,
		Table:     table,
		Flow:      symbols.NewDataFlow(table),
		packages:  make(map[string]symbols.ScopeID),
		scopes:    make(map[string]symbols.ScopeID),
		receivers: make(map[string]symbols.ReceiverID),
		types:     newTypeResolver(table),
	}
	b := &builder{u: u, t: table}

	steps := []func() error{
		b.declareImports,
		func() error { return b.declareClasses(u.file, symbols.NoSymbolID, "", fx.Classes) },
		b.linkSupers,
		b.fillClasses,
		b.declareTopLevel,
		b.declareScopes,
		b.linkOverrides,
		b.declareReceivers,
		b.applyNarrowing,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	if err := table.Validate(); err != nil {
		return nil, fixtureError(diag.FixInvalid, source.Pos{File: fx.File}, fx.Name, "inconsistent declarations: %w", err)
	}
	return u, nil
}

func (b *builder) whole() source.Pos { return source.Pos{File: b.u.Fixture.File} }

func (b *builder) declareImports() error {
	fx := b.u.Fixture
	parent := symbols.NoScopeID
	b.imports = make([]symbols.ScopeID, len(fx.Imports))
	for i := len(fx.Imports) - 1; i >= 0; i-- {
		imp := fx.Imports[i]
		if imp.Name == "" || imp.Name == fx.Name {
			return fixtureError(diag.FixInvalid, b.whole(), imp.Name, "import scopes need a name distinct from the fixture")
		}
		if _, dup := b.u.packages[imp.Name]; dup {
			return fixtureError(diag.FixDuplicate, b.whole(), imp.Name, "duplicate import scope")
		}
		parent = b.t.NewScope(symbols.ScopeImport, parent, symbols.NoSymbolID, imp.Name)
		b.imports[i] = parent
		b.u.packages[imp.Name] = parent
	}
	b.u.file = b.t.NewScope(symbols.ScopeImport, parent, symbols.NoSymbolID, fx.Name)
	b.u.packages[fx.Name] = b.u.file
	return nil
}

func (b *builder) declareClasses(scope symbols.ScopeID, outer symbols.SymbolID, prefix string, decls []ClassDecl) error {
	for i := range decls {
		c := &decls[i]
		path := c.Name
		if prefix != "" {
			path = prefix + "." + c.Name
		}
		if c.Name == "" || strings.Contains(c.Name, ".") {
			return fixtureError(diag.FixInvalid, c.Pos, path, "invalid class name")
		}
		if _, dup := b.u.types.classes[path]; dup {
			return fixtureError(diag.FixDuplicate, c.Pos, path, "duplicate class")
		}

		kind, err := parseClassKind(c.Kind)
		if err != nil {
			return &Error{Code: diag.FixInvalid, Pos: c.Pos, Subject: path, Err: err}
		}
		visibility, err := parseVisibility(c.Visibility)
		if err != nil {
			return &Error{Code: diag.FixInvalid, Pos: c.Pos, Subject: path, Err: err}
		}
		flags, err := parseFlags(c.Flags)
		if err != nil {
			return &Error{Code: diag.FixInvalid, Pos: c.Pos, Subject: path, Err: err}
		}
		if c.Inner && !outer.IsValid() {
			return fixtureError(diag.FixInvalid, c.Pos, path, "only nested classes can be inner")
		}

		spec := symbols.ClassSpec{Kind: kind, Inner: c.Inner, Visibility: visibility, Flags: flags}
		var id symbols.SymbolID
		if outer.IsValid() {
			id = b.t.DeclareNestedClass(outer, c.Name, spec)
		} else {
			id = b.t.DeclareClass(scope, c.Name, spec)
		}
		b.u.types.register(path, c.Name, id)
		b.classes = append(b.classes, pendingClass{decl: c, id: id, path: path})

		if kind == descriptors.ClassKindCompanion {
			if !outer.IsValid() {
				return fixtureError(diag.FixInvalid, c.Pos, path, "a companion must be nested")
			}
			if b.t.Symbols.Get(outer).Companion.IsValid() {
				return fixtureError(diag.FixDuplicate, c.Pos, path, "second companion of %s", prefix)
			}
			b.t.SetCompanion(outer, id)
		}
		if err := b.declareClasses(symbols.NoScopeID, id, path, c.Nested); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) linkSupers() error {
	for _, pc := range b.classes {
		if len(pc.decl.Supers) == 0 {
			continue
		}
		own := b.t.ClassType(pc.id)
		supers := make([]symbols.TypeID, 0, len(pc.decl.Supers))
		for _, name := range pc.decl.Supers {
			id, err := b.u.types.class(name)
			if err != nil {
				return &Error{Code: diag.FixUnknownName, Pos: pc.decl.Pos, Subject: pc.path, Err: err}
			}
			super := b.t.ClassType(id)
			if super == own {
				return fixtureError(diag.FixInvalid, pc.decl.Pos, pc.path, "class extends itself")
			}
			supers = append(supers, super)
		}
		b.t.Types.Get(own).Supers = supers
	}
	return nil
}

func (b *builder) fillClasses() error {
	for _, pc := range b.classes {
		c := pc.decl
		ctors := c.Constructors
		if len(ctors) == 0 && b.t.Symbols.Get(pc.id).ClassKind == descriptors.ClassKindClass {
			ctors = []string{"public"}
		}
		for _, v := range ctors {
			if v == "none" {
				continue
			}
			visibility, err := parseVisibility(v)
			if err != nil {
				return &Error{Code: diag.FixInvalid, Pos: c.Pos, Subject: pc.path, Err: err}
			}
			b.t.DeclareConstructor(pc.id, visibility)
		}

		for _, d := range c.Members {
			if _, err := b.declare(d, c.Pos, func(sym symbols.Symbol) symbols.SymbolID {
				return b.t.DeclareMember(pc.id, sym)
			}); err != nil {
				return err
			}
		}
		for _, d := range c.Statics {
			if _, err := b.declare(d, c.Pos, func(sym symbols.Symbol) symbols.SymbolID {
				return b.t.DeclareStatic(pc.id, sym)
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) declareTopLevel() error {
	fx := b.u.Fixture
	for _, d := range fx.Decls {
		if _, err := b.declareIn(b.u.file, d, b.whole()); err != nil {
			return err
		}
	}
	for i, imp := range fx.Imports {
		for _, d := range imp.Decls {
			if _, err := b.declareIn(b.imports[i], d, b.whole()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) declareIn(scope symbols.ScopeID, d Decl, pos source.Pos) (symbols.SymbolID, error) {
	return b.declare(d, pos, func(sym symbols.Symbol) symbols.SymbolID {
		return b.t.Declare(scope, sym)
	})
}

// declare converts d and hands it to install.
func (b *builder) declare(d Decl, pos source.Pos, install func(symbols.Symbol) symbols.SymbolID) (symbols.SymbolID, error) {
	sym, err := b.symbol(d)
	if err != nil {
		return symbols.NoSymbolID, &Error{Code: diag.FixInvalid, Pos: pos, Subject: d.Name, Err: err}
	}
	id := install(sym)
	if len(d.Overrides) > 0 {
		b.overrides = append(b.overrides, pendingOverride{id: id, refs: d.Overrides, pos: pos})
	}
	return id, nil
}

func (b *builder) symbol(d Decl) (symbols.Symbol, error) {
	if d.Name == "" {
		return symbols.Symbol{}, fmt.Errorf("declaration without a name")
	}
	flags, err := parseFlags(d.Flags)
	if err != nil {
		return symbols.Symbol{}, err
	}
	var kind symbols.SymbolKind
	switch d.Kind {
	case "", "val":
		kind = symbols.SymbolVariable
	case "var":
		kind = symbols.SymbolVariable
		flags |= symbols.SymbolFlagMutable
	case "fun":
		kind = symbols.SymbolFunction
	default:
		return symbols.Symbol{}, fmt.Errorf("unknown declaration kind %q", d.Kind)
	}
	visibility, err := parseVisibility(d.Visibility)
	if err != nil {
		return symbols.Symbol{}, err
	}
	value, err := b.u.types.resolve(d.Type)
	if err != nil {
		return symbols.Symbol{}, err
	}
	extension, err := b.u.types.resolve(d.Receiver)
	if err != nil {
		return symbols.Symbol{}, err
	}
	return symbols.Symbol{
		Name:       b.t.Strings.Intern(d.Name),
		Kind:       kind,
		Flags:      flags,
		Visibility: visibility,
		Extension:  extension,
		Value:      value,
	}, nil
}

func (b *builder) declareScopes() error {
	fx := b.u.Fixture
	if len(fx.Scopes) == 0 {
		fx.Scopes = []ScopeDecl{{Name: defaultScope, Kind: "function", Pos: b.whole()}}
	}
	for i := range fx.Scopes {
		s := &fx.Scopes[i]
		if s.Name == "" {
			return fixtureError(diag.FixInvalid, s.Pos, "", "scope without a name")
		}
		if _, dup := b.u.scopes[s.Name]; dup {
			return fixtureError(diag.FixDuplicate, s.Pos, s.Name, "duplicate scope")
		}
		parent := b.u.file
		if s.Parent != "" {
			p, ok := b.u.scopes[s.Parent]
			if !ok {
				return fixtureError(diag.FixUnknownName, s.Pos, s.Name, "unknown parent scope %q", s.Parent)
			}
			parent = p
		}

		id, err := b.openScope(s, parent)
		if err != nil {
			return err
		}
		for _, d := range s.Decls {
			if _, err := b.declareIn(id, d, s.Pos); err != nil {
				return err
			}
		}
		b.u.scopes[s.Name] = id
		b.u.innermost = id
	}
	return nil
}

func (b *builder) openScope(s *ScopeDecl, parent symbols.ScopeID) (symbols.ScopeID, error) {
	switch s.Kind {
	case "class":
		class, err := b.u.types.class(s.Class)
		if err != nil {
			return symbols.NoScopeID, &Error{Code: diag.FixUnknownName, Pos: s.Pos, Subject: s.Name, Err: err}
		}
		return b.t.NewClassBody(class, parent), nil

	case "function", "":
		fn, err := b.declare(Decl{
			Name:       s.Name,
			Kind:       "fun",
			Type:       s.Type,
			Receiver:   s.Receiver,
			Visibility: s.Visibility,
		}, s.Pos, func(sym symbols.Symbol) symbols.SymbolID {
			if body := b.t.Scopes.Get(parent); body.Kind == symbols.ScopeClass {
				return b.t.DeclareMember(body.Owner, sym)
			}
			return b.t.Declare(parent, sym)
		})
		if err != nil {
			return symbols.NoScopeID, err
		}
		id := b.t.NewScope(symbols.ScopeFunction, parent, fn, "fun "+s.Name)
		if ext := b.t.Symbols.Get(fn).Extension; ext.IsValid() {
			r := b.t.NewReceiver("this@"+s.Name, ext)
			b.t.SetReceiver(id, r)
			b.u.receivers["this@"+s.Name] = r
		}
		return id, nil

	case "block":
		if !b.t.Scopes.Get(parent).Kind.IsLocal() {
			return symbols.NoScopeID, fixtureError(diag.FixInvalid, s.Pos, s.Name, "blocks must be inside a function")
		}
		return b.t.NewScope(symbols.ScopeBlock, parent, b.t.Scopes.Get(parent).Owner, s.Name), nil

	default:
		return symbols.NoScopeID, fixtureError(diag.FixInvalid, s.Pos, s.Name, "unknown scope kind %q", s.Kind)
	}
}

func (b *builder) linkOverrides() error {
	for _, po := range b.overrides {
		sym := b.t.Symbols.Get(po.id)
		subject := b.t.Path(po.id)
		for _, ref := range po.refs {
			dot := strings.LastIndex(ref, ".")
			if dot <= 0 {
				return fixtureError(diag.FixInvalid, po.pos, subject, "override %q is not Class.member", ref)
			}
			class, err := b.u.types.class(ref[:dot])
			if err != nil {
				return &Error{Code: diag.FixUnknownName, Pos: po.pos, Subject: subject, Err: err}
			}
			target, ok := b.member(class, ref[dot+1:], sym.Kind)
			if !ok {
				return fixtureError(diag.FixUnknownName, po.pos, subject, "no member %q", ref)
			}
			sym.Overrides = append(sym.Overrides, target)
		}
	}
	return nil
}

func (b *builder) member(class symbols.SymbolID, name string, kind symbols.SymbolKind) (symbols.SymbolID, bool) {
	key, ok := b.t.Strings.ID(name)
	if !ok {
		return symbols.NoSymbolID, false
	}
	members := b.t.Scopes.Get(b.t.Symbols.Get(class).Members)
	for _, id := range members.NameIndex[key] {
		if b.t.Symbols.Get(id).Kind == kind {
			return id, true
		}
	}
	return symbols.NoSymbolID, false
}

func (b *builder) declareReceivers() error {
	for _, r := range b.u.Fixture.Receivers {
		if r.Name == "" || strings.HasPrefix(r.Name, "this@") {
			return fixtureError(diag.FixInvalid, r.Pos, r.Name, "receiver names must not be empty or start with this@")
		}
		if _, dup := b.u.receivers[r.Name]; dup {
			return fixtureError(diag.FixDuplicate, r.Pos, r.Name, "duplicate receiver")
		}
		typ, err := b.u.types.resolve(r.Type)
		if err != nil {
			return &Error{Code: diag.FixInvalid, Pos: r.Pos, Subject: r.Name, Err: err}
		}
		if !typ.IsValid() {
			return fixtureError(diag.FixInvalid, r.Pos, r.Name, "receiver needs a type")
		}
		id := b.t.NewReceiver(r.Name, typ)
		b.u.receivers[r.Name] = id
		if err := b.narrow(id, r.Name, r.Casts, r.Unstable, r.Pos); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) applyNarrowing() error {
	for _, n := range b.u.Fixture.Narrow {
		id, err := b.u.receiver(n.Receiver)
		if err != nil {
			return &Error{Code: diag.FixUnknownName, Pos: n.Pos, Subject: n.Receiver, Err: err}
		}
		if err := b.narrow(id, n.Receiver, n.Casts, n.Unstable, n.Pos); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) narrow(id symbols.ReceiverID, name string, casts []string, unstable bool, pos source.Pos) error {
	if len(casts) == 0 && !unstable {
		return nil
	}
	types := make([]symbols.TypeID, 0, len(casts))
	for _, c := range casts {
		typ, err := b.u.types.resolve(c)
		if err != nil {
			return &Error{Code: diag.FixInvalid, Pos: pos, Subject: name, Err: err}
		}
		if !typ.IsValid() {
			return fixtureError(diag.FixInvalid, pos, name, "cannot cast to Unit")
		}
		types = append(types, typ)
	}
	b.u.Flow.Narrow(id, !unstable, types...)
	return nil
}

// receiver finds a declared receiver, a function receiver this@fn or a
// class receiver this@Class.
func (u *Universe) receiver(name string) (symbols.ReceiverID, error) {
	if id, ok := u.receivers[name]; ok {
		return id, nil
	}
	if path, ok := strings.CutPrefix(name, "this@"); ok {
		class, err := u.types.class(path)
		if err != nil {
			return symbols.NoReceiverID, err
		}
		return u.Table.Symbols.Get(class).This, nil
	}
	return symbols.NoReceiverID, fmt.Errorf("unknown receiver %q", name)
}

func parseVisibility(s string) (descriptors.Visibility, error) {
	switch s {
	case "", "public":
		return descriptors.VisibilityPublic, nil
	case "internal":
		return descriptors.VisibilityInternal, nil
	case "protected":
		return descriptors.VisibilityProtected, nil
	case "private":
		return descriptors.VisibilityPrivate, nil
	}
	return descriptors.VisibilityPublic, fmt.Errorf("unknown visibility %q", s)
}

func parseClassKind(s string) (descriptors.ClassKind, error) {
	switch s {
	case "", "class":
		return descriptors.ClassKindClass, nil
	case "interface":
		return descriptors.ClassKindInterface, nil
	case "enum":
		return descriptors.ClassKindEnum, nil
	case "object":
		return descriptors.ClassKindObject, nil
	case "companion":
		return descriptors.ClassKindCompanion, nil
	}
	return descriptors.ClassKindClass, fmt.Errorf("unknown class kind %q", s)
}

func parseFlags(names []string) (symbols.SymbolFlags, error) {
	var flags symbols.SymbolFlags
	for _, n := range names {
		switch n {
		case "synthesized":
			flags |= symbols.SymbolFlagSynthesized
		case "low-priority":
			flags |= symbols.SymbolFlagLowPriority
		case "error":
			flags |= symbols.SymbolFlagError
		default:
			return 0, fmt.Errorf("unknown flag %q", n)
		}
	}
	return flags, nil
}
