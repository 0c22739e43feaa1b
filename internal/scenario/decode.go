package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"tower/internal/diag"
	"tower/internal/source"
)

// Load reads a fixture from disk into fs and decodes it.
func Load(fs *source.FileSet, path string) (*Fixture, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, &Error{Code: diag.IOLoadFileError, Subject: path, Err: err}
	}
	return Decode(fs, id)
}

// Decode decodes a fixture already stored in fs. The format follows the
// file extension.
func Decode(fs *source.FileSet, id source.FileID) (*Fixture, error) {
	f := fs.Get(id)
	if f == nil {
		return nil, fmt.Errorf("scenario: unknown file %d", id)
	}
	whole := source.Pos{File: id}

	var (
		fx  *Fixture
		err error
	)
	ext := strings.ToLower(filepath.Ext(f.Path))
	switch ext {
	case ".toml":
		fx, err = decodeTOML(f)
	case ".yaml", ".yml":
		fx, err = decodeYAML(f)
	default:
		return nil, fixtureError(diag.FixDecode, whole, f.Path, "unsupported fixture extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	fx.File = id
	if fx.Name == "" {
		fx.Name = strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))
	}
	fx.anchor(id)
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return fx, nil
}

func decodeTOML(f *source.File) (*Fixture, error) {
	var fx Fixture
	meta, err := toml.Decode(string(f.Content), &fx)
	if err != nil {
		pos := source.Pos{File: f.ID}
		var perr toml.ParseError
		if errors.As(err, &perr) {
			// the lexer may stop on the final newline
			pos.Line = min(toLine(perr.Position.Line), f.LastLine())
			pos.Col = 1
		}
		return nil, &Error{Code: diag.FixDecode, Pos: pos, Subject: f.Path, Err: err}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fixtureError(diag.FixDecode, source.Pos{File: f.ID}, f.Path, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return &fx, nil
}

func decodeYAML(f *source.File) (*Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(bytes.NewReader(f.Content))
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fixtureError(diag.FixDecode, source.Pos{File: f.ID}, f.Path, "empty fixture")
		}
		return nil, &Error{Code: diag.FixDecode, Pos: source.Pos{File: f.ID}, Subject: f.Path, Err: err}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(f.Content, &root); err != nil {
		return nil, &Error{Code: diag.FixDecode, Pos: source.Pos{File: f.ID}, Subject: f.Path, Err: err}
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	fx.locate(f.ID, doc)
	return &fx, nil
}

// locate copies node positions of list entries into the fixture.
func (fx *Fixture) locate(file source.FileID, doc *yaml.Node) {
	at := func(n *yaml.Node) source.Pos {
		return source.Pos{File: file, Line: toLine(n.Line), Col: toLine(n.Column)}
	}
	for i, n := range sequenceItems(doc, "class") {
		if i < len(fx.Classes) {
			locateClass(&fx.Classes[i], n, at)
		}
	}
	for i, n := range sequenceItems(doc, "scope") {
		if i < len(fx.Scopes) {
			fx.Scopes[i].Pos = at(n)
		}
	}
	for i, n := range sequenceItems(doc, "receiver") {
		if i < len(fx.Receivers) {
			fx.Receivers[i].Pos = at(n)
		}
	}
	for i, n := range sequenceItems(doc, "narrow") {
		if i < len(fx.Narrow) {
			fx.Narrow[i].Pos = at(n)
		}
	}
	for i, n := range sequenceItems(doc, "query") {
		if i < len(fx.Queries) {
			fx.Queries[i].Pos = at(n)
		}
	}
}

func locateClass(c *ClassDecl, n *yaml.Node, at func(*yaml.Node) source.Pos) {
	c.Pos = at(n)
	for i, nested := range sequenceItems(n, "nested") {
		if i < len(c.Nested) {
			locateClass(&c.Nested[i], nested, at)
		}
	}
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func sequenceItems(n *yaml.Node, key string) []*yaml.Node {
	seq := mappingValue(n, key)
	if seq == nil || seq.Kind != yaml.SequenceNode {
		return nil
	}
	return seq.Content
}

func toLine(v int) uint32 {
	line, err := safecast.Conv[uint32](v)
	if err != nil {
		return 0
	}
	return line
}

// anchor ties entries without a position to the fixture file.
func (fx *Fixture) anchor(file source.FileID) {
	var classes func([]ClassDecl)
	classes = func(cs []ClassDecl) {
		for i := range cs {
			cs[i].Pos.File = file
			classes(cs[i].Nested)
		}
	}
	classes(fx.Classes)
	for i := range fx.Scopes {
		fx.Scopes[i].Pos.File = file
	}
	for i := range fx.Receivers {
		fx.Receivers[i].Pos.File = file
	}
	for i := range fx.Narrow {
		fx.Narrow[i].Pos.File = file
	}
	for i := range fx.Queries {
		fx.Queries[i].Pos.File = file
	}
}

func (fx *Fixture) validate() error {
	seen := make(map[string]bool, len(fx.Queries))
	for i := range fx.Queries {
		q := &fx.Queries[i]
		if q.Shape == "" {
			q.Shape = ShapeCall
		}
		subject := q.Subject()
		switch {
		case strings.TrimSpace(q.ID) == "":
			return fixtureError(diag.FixInvalid, q.Pos, subject, "query has no id")
		case !slices.Contains(shapes, q.Shape):
			return fixtureError(diag.FixInvalid, q.Pos, subject, "unknown shape %q", q.Shape)
		case q.Receiver != "" && q.Qualifier != "":
			return fixtureError(diag.FixInvalid, q.Pos, subject, "receiver and qualifier are exclusive")
		case q.Qualifier != "" && (q.Shape == ShapeInvokeExtension || q.Shape == ShapeExplicitInvoke):
			return fixtureError(diag.FixInvalid, q.Pos, subject, "%s queries take no qualifier", q.Shape)
		case q.Shape == ShapeExplicitInvoke && q.Value == "":
			return fixtureError(diag.FixInvalid, q.Pos, subject, "explicit-invoke needs a value")
		case q.Shape != ShapeExplicitInvoke && q.Value != "":
			return fixtureError(diag.FixInvalid, q.Pos, subject, "value is only used by explicit-invoke")
		}
		if seen[subject] {
			return fixtureError(diag.FixDuplicate, q.Pos, subject, "duplicate query")
		}
		seen[subject] = true
	}
	return nil
}
