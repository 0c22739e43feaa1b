package source

import (
	"slices"

	"golang.org/x/text/unicode/norm"
)

// StringID identifies an interned name.
type StringID uint32

// NoStringID is reserved for the empty string.
const NoStringID StringID = 0

// Interner maps names to compact IDs. Names are stored in NFC so that
// visually identical identifiers written with different code point
// sequences share one ID.
type Interner struct {
	byID  []string            // id -> string (byID[0] = "" for NoStringID)
	index map[string]StringID // string -> id
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern inserts s and returns its ID. An already known string keeps its ID.
func (i *Interner) Intern(s string) StringID {
	s = norm.NFC.String(s)
	if id, ok := i.index[s]; ok {
		return id
	}

	// Own copy so the interner never pins a caller's buffer.
	cpy := string([]byte(s))
	id := StringID(len(i.byID))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// InternBytes inserts b and returns the ID of the resulting string.
func (i *Interner) InternBytes(b []byte) StringID {
	return i.Intern(string(b))
}

// ID returns the ID of s without inserting it. Safe for concurrent readers
// once no more names are being interned.
func (i *Interner) ID(s string) (StringID, bool) {
	id, ok := i.index[norm.NFC.String(s)]
	return id, ok
}

// Lookup returns the string for id.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if !i.Has(id) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup returns the string for id and panics on an unknown id.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Has reports whether id is known.
func (i *Interner) Has(id StringID) bool {
	return int(id) < len(i.byID)
}

// Len returns the number of stored strings including NoStringID.
func (i *Interner) Len() int {
	return len(i.byID)
}

// Snapshot returns a copy of all stored strings.
func (i *Interner) Snapshot() []string {
	return slices.Clone(i.byID)
}
