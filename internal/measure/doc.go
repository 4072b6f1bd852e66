// Package measure implements the block-execution measurement core.
//
// The core is a two-part subsystem: the Ledger records the lifecycle of
// individual timed executions, and the Report aggregates completed
// timings by block identity.
//
// LIFECYCLE:
//
// Each execution progresses through a two-state machine:
//
//	Begin  -> in-flight (monotonic start instant captured)
//	Finish -> completed (block identity + elapsed duration, computed once)
//
// The transition happens at most once. A second Finish for the same index
// is a caller contract violation and returns a typed error; it never
// overwrites the first result.
//
// BATCHES:
//
// Drain consumes every record in the ledger, producing an immutable
// Report and resetting indices to 0. Records still in flight at drain
// time are a host usage anomaly: they are logged, counted in the report's
// Discarded tally, and never contribute a timing sample.
//
// OWNERSHIP:
//
// The Ledger is not internally synchronized. It is owned by exactly one
// logical execution context; concurrent hosts wrap Begin/Finish in a
// single external lock with short critical sections (see internal/host).
// The guest execution itself always runs outside any locked region.
package measure
