// Package tower resolves names and calls by walking a tower of scopes.
//
// A ScopeTower lists, for one use site, the levels to search (local scopes
// innermost first, then each enclosing scope followed by its implicit
// receiver, then importing scopes) and the implicit receivers available.
// A Processor turns level and implicit-receiver events into groups of
// candidates; processors compose, and the invoke processors replay their
// event log into the invoke lookups they spawn for every successful variable.
// RunResolve feeds the tower into a processor and keeps the best group, where
// a group only replaces the current one when its best tier is strictly
// better. The first Resolved group ends the walk.
//
// Candidates are opaque to the engine: a Context created by the caller wraps
// every Bound into its own type and decides its tier.
package tower
