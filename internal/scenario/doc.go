// Package scenario describes declaration universes and resolution queries
// in TOML or YAML fixtures, builds them into a symbols.Table and runs the
// queries through the tower resolver.
//
// A fixture lists classes, top-level declarations, importing scopes, the
// lexical scopes of use sites, receiver values with their smart casts, and
// the queries to resolve. Each query names the identifier, the call shape
// (variable, function, call, invoke, invoke-extension, explicit-invoke), an
// optional explicit receiver or qualifier, the scope it is made from and
// the expected outcome.
//
// Type expressions are written as Name, Outer.Inner, (A, B) -> R or
// R.(A) -> T. Unit and the empty string denote no type. error:Name is an
// unresolved type. Names that no class declares become opaque classes that
// are not visible by name.
//
// A built Universe is read-only, so queries may run concurrently.
package scenario
