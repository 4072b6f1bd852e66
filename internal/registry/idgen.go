package registry

import (
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/blockprof/internal/measure"
)

// IDGenerator mints opaque block identity tokens.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() measure.BlockID
}

// UUIDv7Generator mints time-sortable UUIDv7 identities.
//
// UUIDv7 embeds a timestamp in the most significant bits, making
// identities sortable by registration time, which helps when scanning a
// persistent catalog by hand.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 identity as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() measure.BlockID {
	return measure.BlockID(uuid.Must(uuid.NewV7()).String())
}

// FixedGenerator returns predetermined identities for testing.
//
// This keeps minted IDs deterministic so tests can assert on exact
// report contents and golden files.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []measure.BlockID
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Panics once all ids are consumed - a fail-fast way to catch a test
// registering more blocks than it expected.
func NewFixedGenerator(ids ...measure.BlockID) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined identity.
func (g *FixedGenerator) Generate() measure.BlockID {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
