// Package host drives instrumented guest-code executions against a
// single measurement ledger.
//
// The ledger itself is unsynchronized; Host supplies the
// external mutual exclusion the core requires when executions run
// concurrently. Critical sections cover only index allocation and state
// transition - the guest execution always runs outside the lock.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/blockprof/internal/measure"
	"github.com/roach88/blockprof/internal/registry"
)

// BlockFunc is one guest-code block execution.
type BlockFunc func(ctx context.Context) error

// Host owns a ledger plus the lock guarding it.
//
// Thread-safety model:
//   - Begin/Finish/Run: safe from any goroutine
//   - Drain: safe from any goroutine; concurrent in-flight executions
//     whose Begin landed in the drained batch surface as discarded
//     records, exactly like abandoned executions
type Host struct {
	mu     sync.Mutex
	ledger *measure.Ledger
	tokens registry.IDGenerator
}

// New creates a host with a fresh system-clock ledger and UUIDv7
// session tokens.
func New() *Host {
	return NewWithLedger(measure.NewLedger(), registry.UUIDv7Generator{})
}

// NewWithLedger creates a host around an existing ledger and token
// generator. Used by tests to inject a deterministic clock and fixed
// session tokens.
func NewWithLedger(ledger *measure.Ledger, tokens registry.IDGenerator) *Host {
	return &Host{ledger: ledger, tokens: tokens}
}

// Begin allocates an execution index under the host lock.
//
// Callers that use Begin directly (instead of Run) own the index and
// must pass it to Finish exactly once; an execution left unfinished is
// discarded with a warning at drain time.
func (h *Host) Begin() measure.Index {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.Begin()
}

// Finish completes the execution at idx, attributing it to block.
func (h *Host) Finish(idx measure.Index, block measure.BlockID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ledger.Finish(idx, block)
}

// Run executes fn as one timed execution of block.
//
// The measurement is taken even when fn fails - a failing execution
// still spent the time it spent. A ledger misuse error from Finish takes
// precedence over the guest error; otherwise the guest error is returned
// wrapped.
func (h *Host) Run(ctx context.Context, block measure.BlockID, fn BlockFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	idx := h.Begin()
	runErr := fn(ctx)

	if err := h.Finish(idx, block); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("block %s: %w", block, runErr)
	}
	return nil
}

// Session is one drained measurement batch.
type Session struct {
	// Token identifies the batch, for log correlation.
	Token string

	// Report is the immutable aggregated snapshot.
	Report *measure.Report
}

// Drain snapshots and resets the ledger, returning the batch as a
// Session. Subsequent executions start a new batch at index 0.
func (h *Host) Drain() *Session {
	h.mu.Lock()
	report := h.ledger.Drain()
	h.mu.Unlock()

	token := string(h.tokens.Generate())
	slog.Info("measurement batch drained",
		"session", token,
		"blocks", report.Len(),
		"discarded", report.Discarded(),
	)

	return &Session{Token: token, Report: report}
}
