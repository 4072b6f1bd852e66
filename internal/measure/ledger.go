package measure

import (
	"log/slog"
	"time"
)

// BlockID is an opaque block identity token minted by the block registry.
// The core never inspects it; it is only a grouping key.
type BlockID string

// Index is a stable handle to one execution within the current batch.
//
// Indices are assigned sequentially from 0 in Begin call order. Drain
// invalidates all outstanding indices and starts a new batch at 0.
type Index uint32

// recordState tracks the two-state record lifecycle.
//
// States: inFlight -> completed. The transition happens at most once
// (enforced by Ledger.Finish); there is no transition back and no third
// state.
type recordState int

const (
	stateInFlight recordState = iota
	stateCompleted
)

// record is one per-execution measurement.
//
// An in-flight record holds only the start instant. A completed record
// additionally holds the block identity observed at completion time and
// the elapsed duration, computed exactly once during the transition.
type record struct {
	state   recordState
	start   time.Time
	block   BlockID
	elapsed time.Duration
}

// Ledger owns the measurement records for the current batch.
//
// The ledger is append-only between drains: Begin appends, Finish
// transitions a record in place, Drain consumes everything and resets.
//
// Thread-safety: the Ledger is NOT internally synchronized. It is
// designed to be owned by exactly one logical execution context at a
// time. Callers sharing a Ledger across goroutines must guard Begin and
// Finish with a single external lock whose critical sections cover only
// index allocation and state transition - never the guest execution,
// which must run outside the locked region. See internal/host.
type Ledger struct {
	clock   Clock
	records []record
}

// NewLedger creates an empty ledger using the system clock.
func NewLedger() *Ledger {
	return NewLedgerWithClock(SystemClock{})
}

// NewLedgerWithClock creates an empty ledger with an injected clock.
// Used by tests for deterministic durations.
func NewLedgerWithClock(clock Clock) *Ledger {
	return &Ledger{clock: clock}
}

// Begin allocates a new in-flight record stamped with the current clock
// reading and returns its index. Never fails.
func (l *Ledger) Begin() Index {
	idx := Index(len(l.records))
	l.records = append(l.records, record{
		state: stateInFlight,
		start: l.clock.Now(),
	})
	return idx
}

// Finish transitions the record at idx from in-flight to completed,
// tagging it with block and the elapsed time since its Begin.
//
// Returns a *LedgerError with ErrCodeIndexOutOfRange if idx has no
// record in the current batch, and ErrCodeAlreadyCompleted if the record
// was already finished. A double finish never overwrites the first
// result; the host decides whether either condition is fatal.
func (l *Ledger) Finish(idx Index, block BlockID) error {
	if int(idx) >= len(l.records) {
		return newOutOfRangeError(idx, len(l.records))
	}

	rec := &l.records[idx]
	if rec.state == stateCompleted {
		return newAlreadyCompletedError(idx, rec.block)
	}

	rec.state = stateCompleted
	rec.block = block
	rec.elapsed = l.clock.Now().Sub(rec.start)
	return nil
}

// Len returns the number of records in the current batch, finished or not.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Drain converts all records into an aggregated Report and resets the
// ledger to empty; the next Begin starts a new batch at index 0.
//
// Completed records are grouped by block identity. Within one identity
// the samples keep the order in which the records were visited; the
// identities themselves keep first-encounter order.
//
// In-flight records at drain time are a usage anomaly in the host, not a
// ledger fault: each is logged as a warning, counted in the report's
// Discarded tally, and never contributes a sample.
func (l *Ledger) Drain() *Report {
	report := &Report{
		samples: make(map[BlockID][]time.Duration),
	}

	for i, rec := range l.records {
		if rec.state == stateInFlight {
			slog.Warn("measurement begun but never finished, discarding",
				"index", i,
			)
			report.discarded++
			continue
		}

		if _, seen := report.samples[rec.block]; !seen {
			report.order = append(report.order, rec.block)
		}
		report.samples[rec.block] = append(report.samples[rec.block], rec.elapsed)
	}

	l.records = nil
	return report
}
