// Package trace provides the tracing subsystem of the resolution toolchain.
//
// Tracing shows which tower levels and implicit receivers a resolution
// attempt visited, which step produced the winning group and how long each
// batch of queries took.
//
// # Usage
//
//	tower resolve --trace=- --trace-level=debug scenario.toml
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer kept in memory
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: reserved for failures
//   - LevelPhase: driver phases
//   - LevelDetail: one span per resolution attempt
//   - LevelDebug: every tower step
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeDriver, "resolve", 0)
//	defer span.End("")
package trace
