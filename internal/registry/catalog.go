package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/blockprof/internal/measure"
)

//go:embed schema.sql
var schemaSQL string

// Catalog is a SQLite-backed persistent block registry.
//
// The catalog survives process restarts, so block identities stay stable
// across profiling runs and old reports remain resolvable.
type Catalog struct {
	db  *sql.DB
	gen IDGenerator
}

// Open creates or opens a catalog database at the given path.
// Applies required pragmas and the schema automatically; idempotent.
func Open(path string) (*Catalog, error) {
	return OpenWithGenerator(path, UUIDv7Generator{})
}

// OpenWithGenerator opens a catalog with an injected identity generator.
// Used by tests for deterministic IDs.
func OpenWithGenerator(path string, gen IDGenerator) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY errors under concurrent registration.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Catalog{db: db, gen: gen}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Register stores a block under name, minting a new identity.
//
// Registration is idempotent on name: if the name already exists, the
// existing identity is returned and the stored entry is left untouched
// (ON CONFLICT DO NOTHING).
func (c *Catalog) Register(ctx context.Context, name, description string) (measure.BlockID, error) {
	id := c.gen.Generate()

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO blocks (id, name, description)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, string(id), name, description)
	if err != nil {
		return "", fmt.Errorf("register block %q: %w", name, err)
	}

	// Read back the winning row: either the one just inserted or the
	// pre-existing entry for this name.
	var stored string
	err = c.db.QueryRowContext(ctx,
		`SELECT id FROM blocks WHERE name = ?`, name,
	).Scan(&stored)
	if err != nil {
		return "", fmt.Errorf("read back block %q: %w", name, err)
	}

	return measure.BlockID(stored), nil
}

// LookupContext returns the display name for id.
// Fails with *NotFoundError for identities the catalog never minted.
func (c *Catalog) LookupContext(ctx context.Context, id measure.BlockID) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx,
		`SELECT name FROM blocks WHERE id = ?`, string(id),
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &NotFoundError{ID: id}
	}
	if err != nil {
		return "", fmt.Errorf("lookup block %s: %w", id, err)
	}
	return name, nil
}

// Lookup implements measure.Resolver.
func (c *Catalog) Lookup(id measure.BlockID) (string, error) {
	return c.LookupContext(context.Background(), id)
}

// List returns all catalog entries ordered by name.
func (c *Catalog) List(ctx context.Context) ([]Block, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, description FROM blocks ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []Block
	for rows.Next() {
		var b Block
		var id string
		if err := rows.Scan(&id, &b.Name, &b.Description); err != nil {
			return nil, fmt.Errorf("scan block row: %w", err)
		}
		b.ID = measure.BlockID(id)
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate block rows: %w", err)
	}

	return blocks, nil
}
