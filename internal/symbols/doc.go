// Package symbols is an in-memory declaration universe: arenas of scopes,
// symbols, types and receiver values, with views that implement the
// descriptor model the resolver consumes.
package symbols
