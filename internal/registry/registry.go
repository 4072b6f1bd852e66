// Package registry maps opaque block identities to human-readable block
// metadata.
//
// The registry mints and owns BlockIDs; the measurement core treats them
// as unstructured tokens and only reads the registry back through the
// measure.Resolver interface while rendering a report.
//
// Two implementations are provided: Memory (per-process, used by the
// scenario runner) and Catalog (SQLite-backed, persistent across runs).
package registry

import (
	"errors"
	"fmt"

	"github.com/roach88/blockprof/internal/measure"
)

// Block is one registry entry: a registered guest-code block.
type Block struct {
	ID          measure.BlockID `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
}

// NotFoundError indicates a lookup for a block identity the registry
// never minted.
type NotFoundError struct {
	ID measure.BlockID
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("block %s not found", e.ID)
}

// IsNotFound returns true if the error is an unknown-identity error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
