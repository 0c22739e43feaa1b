package synthetic

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tower/internal/descriptors"
)

// BeanProperties exposes getFoo()/isFoo() members as extension properties
// foo/isFoo on the type declaring them. A setFoo member makes the property
// mutable.
type BeanProperties struct{}

var _ Provider = BeanProperties{}

// Property is a synthetic extension property backed by accessor members.
type Property struct {
	name     descriptors.Name
	receiver descriptors.Type
	Getter   descriptors.Descriptor
	Setter   descriptors.Descriptor // nil for read-only properties
}

var _ descriptors.Descriptor = Property{}

func (p Property) Name() descriptors.Name                  { return p.name }
func (Property) Kind() descriptors.Kind                    { return descriptors.KindVariable }
func (p Property) Visibility() descriptors.Visibility      { return p.Getter.Visibility() }
func (p Property) ExtensionReceiverType() descriptors.Type { return p.receiver }
func (p Property) ValueType() descriptors.Type             { return p.Getter.ValueType() }
func (Property) IsSynthesized() bool                       { return true }
func (Property) HasLowPriority() bool                      { return false }
func (p Property) IsError() bool                           { return p.Getter.IsError() }
func (Property) Overridden() []descriptors.Descriptor      { return nil }
func (p Property) Container() descriptors.Descriptor       { return p.Getter.Container() }
func (p Property) IsMutable() bool                         { return p.Setter != nil }
func (p Property) String() string                          { return p.receiver.String() + "." + string(p.name) }

func (BeanProperties) SyntheticExtensionVariables(receiverTypes []descriptors.Type, name descriptors.Name, loc descriptors.Location) []descriptors.Descriptor {
	getterName, setterName, ok := accessorNames(string(name))
	if !ok {
		return nil
	}
	var out []descriptors.Descriptor
	seen := make(map[descriptors.Type]struct{}, len(receiverTypes))
	for _, t := range receiverTypes {
		if t == nil {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		scope := t.MemberScope()
		if scope == nil {
			continue
		}
		getter := findAccessor(scope.Functions(getterName, loc), func(d descriptors.Descriptor) bool {
			return d.ValueType() != nil
		})
		if getter == nil {
			continue
		}
		setter := findAccessor(scope.Functions(setterName, loc), func(d descriptors.Descriptor) bool {
			return d.ValueType() == nil
		})
		out = append(out, Property{name: name, receiver: t, Getter: getter, Setter: setter})
	}
	return out
}

func (BeanProperties) SyntheticExtensionFunctions([]descriptors.Type, descriptors.Name, descriptors.Location) []descriptors.Descriptor {
	return nil
}

// accessorNames maps foo to getFoo/setFoo and isFoo to isFoo/setFoo. Names
// starting with an upper-case letter have no accessors.
func accessorNames(name string) (getter, setter descriptors.Name, ok bool) {
	first, size := utf8.DecodeRuneInString(name)
	if name == "" || first == utf8.RuneError || unicode.IsUpper(first) {
		return "", "", false
	}
	if rest, found := strings.CutPrefix(name, "is"); found && rest != "" {
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsUpper(r) {
			return descriptors.Name(name), descriptors.Name("set" + rest), true
		}
	}
	// a Caser is stateful, so one per call
	capitalized := cases.Upper(language.Und).String(name[:size]) + name[size:]
	return descriptors.Name("get" + capitalized), descriptors.Name("set" + capitalized), true
}

func findAccessor(candidates []descriptors.Descriptor, accept func(descriptors.Descriptor) bool) descriptors.Descriptor {
	for _, d := range candidates {
		if descriptors.HasExtensionReceiver(d) || !accept(d) {
			continue
		}
		return d
	}
	return nil
}
