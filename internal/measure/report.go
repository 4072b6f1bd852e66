package measure

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Header is the fixed first row of every rendered report.
//
// The column count is fixed at five; all duration figures are decimal
// integer nanoseconds. This header is the only wire-format contract.
var Header = []string{"block", "executions", "avg in ns", "min in ns", "max in ns"}

// Resolver resolves a block identity to its display form.
//
// Implemented by the block registry. The report only ever reads it, and
// only for the duration of a Render call.
type Resolver interface {
	// Lookup returns the display name for id. Fails if the identity is
	// unknown to the registry.
	Lookup(id BlockID) (string, error)
}

// Report is an immutable snapshot of completed measurements grouped by
// block identity, produced by Ledger.Drain.
//
// Grouping is insertion-ordered: the key order records when each block
// identity was first encountered during the drain, and each identity's
// sample sequence keeps per-identity completion order. Rendered rows
// follow the key order, so output is deterministic for a given sequence
// of completions.
type Report struct {
	order     []BlockID
	samples   map[BlockID][]time.Duration
	discarded int
}

// Blocks returns the block identities present in the report.
func (r *Report) Blocks() []BlockID {
	out := make([]BlockID, len(r.order))
	copy(out, r.order)
	return out
}

// Samples returns the recorded durations for block, in completion order.
// Returns nil for identities not present in the report.
func (r *Report) Samples(block BlockID) []time.Duration {
	src, ok := r.samples[block]
	if !ok {
		return nil
	}
	out := make([]time.Duration, len(src))
	copy(out, src)
	return out
}

// Len returns the number of distinct block identities in the report.
func (r *Report) Len() int {
	return len(r.order)
}

// Discarded returns how many begun-but-never-finished records were
// dropped when this report was drained.
func (r *Report) Discarded() int {
	return r.discarded
}

// BlockStats holds the per-block rollup figures for one report row.
type BlockStats struct {
	Executions int
	Avg        time.Duration // floor of sum/executions in nanoseconds
	Min        time.Duration
	Max        time.Duration
}

// Stats computes the statistical rollup for one block identity.
//
// Every entry in a report carries at least one sample by construction,
// so an empty sequence here is an internal consistency violation
// (ErrCodeInternal), not a normal code path.
func (r *Report) Stats(block BlockID) (BlockStats, error) {
	samples, ok := r.samples[block]
	if !ok || len(samples) == 0 {
		return BlockStats{}, newInternalError(block)
	}

	var sum time.Duration
	min, max := samples[0], samples[0]
	for _, d := range samples {
		sum += d
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}

	// Durations are integer nanoseconds, so this division floors.
	return BlockStats{
		Executions: len(samples),
		Avg:        sum / time.Duration(len(samples)),
		Min:        min,
		Max:        max,
	}, nil
}

// Render writes the report to w as a CSV table: the fixed Header row
// followed by one row per block identity, all CRLF-terminated.
//
// Block identities are resolved to display names through resolver.
// An unknown identity stops rendering at the first failure and the
// lookup error is propagated unchanged - a row is never silently
// omitted. I/O failures of w propagate unchanged as well.
func (r *Report) Render(resolver Resolver, w io.Writer) error {
	wtr := csv.NewWriter(w)
	wtr.UseCRLF = true

	if err := wtr.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, block := range r.order {
		stats, err := r.Stats(block)
		if err != nil {
			return err
		}

		name, err := resolver.Lookup(block)
		if err != nil {
			return fmt.Errorf("resolve block %s: %w", block, err)
		}

		row := []string{
			name,
			strconv.Itoa(stats.Executions),
			strconv.FormatInt(stats.Avg.Nanoseconds(), 10),
			strconv.FormatInt(stats.Min.Nanoseconds(), 10),
			strconv.FormatInt(stats.Max.Nanoseconds(), 10),
		}
		if err := wtr.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", name, err)
		}
	}

	wtr.Flush()
	return wtr.Error()
}
