package measure

import "time"

// Clock supplies the instants the ledger uses to time executions.
//
// Production code uses SystemClock. Tests inject a manual clock (see
// internal/testutil) so elapsed durations are exact instead of
// wall-time dependent.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock.
//
// time.Now carries a monotonic reading on all supported platforms, so
// subtracting two readings yields a monotonic elapsed duration that is
// immune to wall-clock adjustments.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
