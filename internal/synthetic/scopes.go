// Package synthetic contributes extension members that are derived by
// convention from real members, such as bean-style properties.
package synthetic

import "tower/internal/descriptors"

// Provider contributes synthetic extensions for a set of receiver types.
type Provider interface {
	SyntheticExtensionVariables(receiverTypes []descriptors.Type, name descriptors.Name, loc descriptors.Location) []descriptors.Descriptor
	SyntheticExtensionFunctions(receiverTypes []descriptors.Type, name descriptors.Name, loc descriptors.Location) []descriptors.Descriptor
}

// Scopes merges several providers. Results keep provider order and a
// descriptor contributed twice is reported once.
type Scopes struct {
	providers []Provider
}

var _ Provider = (*Scopes)(nil)

func NewScopes(providers ...Provider) *Scopes {
	return &Scopes{providers: providers}
}

func (s *Scopes) SyntheticExtensionVariables(receiverTypes []descriptors.Type, name descriptors.Name, loc descriptors.Location) []descriptors.Descriptor {
	return s.collect(func(p Provider) []descriptors.Descriptor {
		return p.SyntheticExtensionVariables(receiverTypes, name, loc)
	})
}

func (s *Scopes) SyntheticExtensionFunctions(receiverTypes []descriptors.Type, name descriptors.Name, loc descriptors.Location) []descriptors.Descriptor {
	return s.collect(func(p Provider) []descriptors.Descriptor {
		return p.SyntheticExtensionFunctions(receiverTypes, name, loc)
	})
}

func (s *Scopes) collect(query func(Provider) []descriptors.Descriptor) []descriptors.Descriptor {
	var out []descriptors.Descriptor
	seen := make(map[descriptors.Descriptor]struct{})
	for _, p := range s.providers {
		for _, d := range query(p) {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}
