// Package trace provides the diagnostic tracing subsystem for testexec.
//
// Standard output of the harness is reserved for the progress protocol, so every
// diagnostic the harness produces about itself goes through a Tracer instead.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	testexec --trace=- --trace-level=test bin/ test/*.v3
//
// # Architecture
//
//   - Nop: zero-overhead tracer when disabled
//   - StreamTracer: immediate write to a file or stderr (text or NDJSON)
//   - RingTracer: bounded in-memory buffer, dumped when the batch aborts
//   - MultiTracer: fans out to several tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: nothing is streamed; the ring is dumped on a fatal abort
//   - LevelBatch: batch boundaries
//   - LevelTest: one span per test file
//   - LevelDebug: everything, including every sub-case run and watchdog kills
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeTest, "test:"+path, parentID)
//	defer span.End("")
package trace
