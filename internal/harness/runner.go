package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/blockprof/internal/host"
	"github.com/roach88/blockprof/internal/measure"
	"github.com/roach88/blockprof/internal/registry"
)

// Runner executes scenarios through a host, resolving step block names
// against a registry.
//
// Block names already present in the registry (e.g. loaded from a
// catalog) are reused; unknown names are registered on first use.
type Runner struct {
	host *host.Host
	reg  *registry.Memory
	ids  map[string]measure.BlockID
}

// NewRunner creates a runner over the given host and registry.
func NewRunner(h *host.Host, reg *registry.Memory) *Runner {
	ids := make(map[string]measure.BlockID)
	for _, b := range reg.List() {
		ids[b.Name] = b.ID
	}
	return &Runner{host: h, reg: reg, ids: ids}
}

// Registry returns the resolver backing this runner, for rendering.
func (r *Runner) Registry() *registry.Memory {
	return r.reg
}

// Run executes every step in order and drains the resulting session.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*host.Session, error) {
	slog.Debug("running scenario", "name", s.Name, "steps", len(s.Steps))

	for i, step := range s.Steps {
		id := r.blockID(step.Block)

		repeat := step.Repeat
		if repeat == 0 {
			repeat = 1
		}

		for n := 0; n < repeat; n++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if step.Abandon {
				// Begun, deliberately never finished.
				r.host.Begin()
				continue
			}

			busy := time.Duration(step.Busy)
			err := r.host.Run(ctx, id, func(ctx context.Context) error {
				if busy <= 0 {
					return nil
				}
				select {
				case <-time.After(busy):
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
			if err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, step.Block, err)
			}
		}
	}

	return r.host.Drain(), nil
}

// blockID resolves a display name to its identity, registering unknown
// names on first use.
func (r *Runner) blockID(name string) measure.BlockID {
	if id, ok := r.ids[name]; ok {
		return id
	}
	id := r.reg.Register(name, "")
	r.ids[name] = id
	return id
}
