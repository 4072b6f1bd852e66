package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockprof/internal/registry"
)

func seedCatalogDB(t *testing.T, names ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")

	cat, err := registry.Open(path)
	require.NoError(t, err)
	defer cat.Close()

	for _, name := range names {
		_, err := cat.Register(context.Background(), name, "")
		require.NoError(t, err)
	}
	return path
}

func TestBlocksListsSorted(t *testing.T) {
	dbPath := seedCatalogDB(t, "search", "checkout", "billing")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewBlocksCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "billing")
	assert.Contains(t, output, "checkout")
	assert.Contains(t, output, "search")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("billing")), bytes.Index(buf.Bytes(), []byte("checkout")))
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("checkout")), bytes.Index(buf.Bytes(), []byte("search")))
}

func TestBlocksJSON(t *testing.T) {
	dbPath := seedCatalogDB(t, "checkout")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewBlocksCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, data, 1)

	entry, ok := data[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "checkout", entry["name"])
	assert.NotEmpty(t, entry["id"])
}

func TestBlocksEmptyDatabase(t *testing.T) {
	dbPath := seedCatalogDB(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewBlocksCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No blocks registered.")
}

func TestBlocksMissingDBFlag(t *testing.T) {
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewBlocksCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db")
}
