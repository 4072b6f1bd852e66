package registry

import (
	"sync"

	"github.com/roach88/blockprof/internal/measure"
)

// Memory is an in-memory block registry.
//
// Thread-safety: internally synchronized. The measurement core only ever
// reads it through Lookup, during rendering.
type Memory struct {
	mu     sync.RWMutex
	gen    IDGenerator
	blocks map[measure.BlockID]Block
	order  []measure.BlockID
}

// NewMemory creates an empty registry minting UUIDv7 identities.
func NewMemory() *Memory {
	return NewMemoryWithGenerator(UUIDv7Generator{})
}

// NewMemoryWithGenerator creates an empty registry with an injected
// identity generator. Used by tests for deterministic IDs.
func NewMemoryWithGenerator(gen IDGenerator) *Memory {
	return &Memory{
		gen:    gen,
		blocks: make(map[measure.BlockID]Block),
	}
}

// Register mints a new identity for a block and stores the entry.
// Each call mints a fresh identity, even for a repeated name.
func (m *Memory) Register(name, description string) measure.BlockID {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.gen.Generate()
	m.blocks[id] = Block{ID: id, Name: name, Description: description}
	m.order = append(m.order, id)
	return id
}

// Lookup returns the display name for id.
// Implements measure.Resolver; fails with *NotFoundError for unknown identities.
func (m *Memory) Lookup(id measure.BlockID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blocks[id]
	if !ok {
		return "", &NotFoundError{ID: id}
	}
	return b.Name, nil
}

// Get returns the full entry for id.
func (m *Memory) Get(id measure.BlockID) (Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blocks[id]
	if !ok {
		return Block{}, &NotFoundError{ID: id}
	}
	return b, nil
}

// List returns all entries in registration order.
func (m *Memory) List() []Block {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Block, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.blocks[id])
	}
	return out
}
