package scenario

import (
	"tower/internal/source"
)

// Fixture is the decoded form of a scenario file. TOML and YAML share the
// same keys.
type Fixture struct {
	Name      string         `toml:"name" yaml:"name"`
	Imports   []ImportDecl   `toml:"import" yaml:"import"`
	Classes   []ClassDecl    `toml:"class" yaml:"class"`
	Decls     []Decl         `toml:"decl" yaml:"decl"`
	Scopes    []ScopeDecl    `toml:"scope" yaml:"scope"`
	Receivers []ReceiverDecl `toml:"receiver" yaml:"receiver"`
	Narrow    []NarrowDecl   `toml:"narrow" yaml:"narrow"`
	Queries   []Query        `toml:"query" yaml:"query"`

	File source.FileID `toml:"-" yaml:"-"`
}

// ImportDecl is an importing scope outside the file scope. The first one
// listed is searched first.
type ImportDecl struct {
	Name  string `toml:"name" yaml:"name"`
	Decls []Decl `toml:"decl" yaml:"decl"`
}

type ClassDecl struct {
	Name       string   `toml:"name" yaml:"name"`
	Kind       string   `toml:"kind" yaml:"kind"`
	Inner      bool     `toml:"inner" yaml:"inner"`
	Visibility string   `toml:"visibility" yaml:"visibility"`
	Supers     []string `toml:"supers" yaml:"supers"`
	// Constructors lists constructor visibilities. Plain classes without
	// the key get one public constructor.
	Constructors []string    `toml:"constructors" yaml:"constructors"`
	Flags        []string    `toml:"flags" yaml:"flags"`
	Members      []Decl      `toml:"members" yaml:"members"`
	Statics      []Decl      `toml:"statics" yaml:"statics"`
	Nested       []ClassDecl `toml:"nested" yaml:"nested"`

	Pos source.Pos `toml:"-" yaml:"-"`
}

// Decl is a variable or function.
type Decl struct {
	Name string `toml:"name" yaml:"name"`
	// Kind is val, var or fun.
	Kind string `toml:"kind" yaml:"kind"`
	// Type is the variable type or the function result.
	Type string `toml:"type" yaml:"type"`
	// Receiver is the extension receiver type.
	Receiver   string   `toml:"receiver" yaml:"receiver"`
	Visibility string   `toml:"visibility" yaml:"visibility"`
	Flags      []string `toml:"flags" yaml:"flags"`
	// Overrides names members as Class.member.
	Overrides []string `toml:"overrides" yaml:"overrides"`
}

// ScopeDecl opens a lexical scope. Function scopes declare their function
// in the parent scope, as a member when the parent is a class body.
type ScopeDecl struct {
	Name string `toml:"name" yaml:"name"`
	// Kind is class, function or block.
	Kind   string `toml:"kind" yaml:"kind"`
	Parent string `toml:"parent" yaml:"parent"`
	// Class is the class a class body belongs to.
	Class string `toml:"class" yaml:"class"`
	// Receiver makes a function an extension; its body sees this@Name.
	Receiver   string `toml:"receiver" yaml:"receiver"`
	Type       string `toml:"type" yaml:"type"`
	Visibility string `toml:"visibility" yaml:"visibility"`
	Decls      []Decl `toml:"decl" yaml:"decl"`

	Pos source.Pos `toml:"-" yaml:"-"`
}

// ReceiverDecl is a value usable as explicit receiver.
type ReceiverDecl struct {
	Name     string   `toml:"name" yaml:"name"`
	Type     string   `toml:"type" yaml:"type"`
	Casts    []string `toml:"casts" yaml:"casts"`
	Unstable bool     `toml:"unstable" yaml:"unstable"`

	Pos source.Pos `toml:"-" yaml:"-"`
}

// NarrowDecl adds smart casts to a receiver, including this@Class values.
type NarrowDecl struct {
	Receiver string   `toml:"receiver" yaml:"receiver"`
	Casts    []string `toml:"casts" yaml:"casts"`
	Unstable bool     `toml:"unstable" yaml:"unstable"`

	Pos source.Pos `toml:"-" yaml:"-"`
}

// Shape is the syntactic form a query resolves.
type Shape string

const (
	ShapeVariable        Shape = "variable"
	ShapeFunction        Shape = "function"
	ShapeCall            Shape = "call"
	ShapeInvoke          Shape = "invoke"
	ShapeInvokeExtension Shape = "invoke-extension"
	ShapeExplicitInvoke  Shape = "explicit-invoke"
)

var shapes = []Shape{ShapeVariable, ShapeFunction, ShapeCall, ShapeInvoke, ShapeInvokeExtension, ShapeExplicitInvoke}

type Query struct {
	Name  string `toml:"name" yaml:"name"`
	Shape Shape  `toml:"shape" yaml:"shape"`
	ID    string `toml:"id" yaml:"id"`
	// Receiver names an explicit receiver value.
	Receiver string `toml:"receiver" yaml:"receiver"`
	// Qualifier is a class path, or the fixture name for the file scope.
	Qualifier string `toml:"qualifier" yaml:"qualifier"`
	// Value is the computed value of an explicit-invoke query.
	Value string `toml:"value" yaml:"value"`
	// At names the use-site scope; the last declared scope by default.
	At        string  `toml:"at" yaml:"at"`
	Unordered bool    `toml:"unordered" yaml:"unordered"`
	Expect    *Expect `toml:"expect" yaml:"expect"`

	Pos source.Pos `toml:"-" yaml:"-"`
}

// Expect is the outcome a query should produce. Unset fields are not
// checked.
type Expect struct {
	Applicability string `toml:"applicability" yaml:"applicability"`
	// Candidates are rendered like policy.Candidate.String, in order.
	Candidates []string `toml:"candidates" yaml:"candidates"`
	// Kind is the explicit receiver kind of every candidate.
	Kind string `toml:"kind" yaml:"kind"`
	// Diagnostics lists diagnostic kinds, each carried by some candidate.
	Diagnostics []string `toml:"diagnostics" yaml:"diagnostics"`
	Empty       bool     `toml:"empty" yaml:"empty"`
}

// Subject names q for reports.
func (q *Query) Subject() string {
	if q.Name != "" {
		return q.Name
	}
	return string(q.Shape) + " " + q.ID
}
