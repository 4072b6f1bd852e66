package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockprof/internal/registry"
)

const runTestCatalog = `
package catalog

block: checkout: {
	name:        "checkout"
	description: "shopping cart checkout flow"
}

block: search: {
	name: "search"
}
`

const runTestScenario = `
name: smoke
description: minimal end-to-end run
steps:
  - block: checkout
    busy: 5ms
    repeat: 3
  - block: search
    busy: 1ms
  - block: stale
    abandon: true
`

func writeRunFixtures(t *testing.T) (catalogDir, scenarioPath string) {
	t.Helper()
	catalogDir = writeCatalog(t, map[string]string{"blocks.cue": runTestCatalog})
	scenarioPath = filepath.Join(t.TempDir(), "scenario.yaml")
	err := os.WriteFile(scenarioPath, []byte(runTestScenario), 0644)
	require.NoError(t, err)
	return catalogDir, scenarioPath
}

func parseCSVReport(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunScenario(t *testing.T) {
	catalogDir, scenarioPath := writeRunFixtures(t)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs([]string{catalogDir, scenarioPath})

	err := cmd.Execute()
	require.NoError(t, err)

	records := parseCSVReport(t, stdout.Bytes())
	require.Len(t, records, 3, "header + two finished blocks")
	assert.Equal(t, []string{"block", "executions", "avg in ns", "min in ns", "max in ns"}, records[0])

	rows := map[string][]string{}
	for _, rec := range records[1:] {
		require.Len(t, rec, 5)
		rows[rec[0]] = rec
	}

	checkout, ok := rows["checkout"]
	require.True(t, ok)
	assert.Equal(t, "3", checkout[1])

	search, ok := rows["search"]
	require.True(t, ok)
	assert.Equal(t, "1", search[1])

	// Averages land between min and max, all positive.
	for name, rec := range rows {
		avg, err := strconv.ParseInt(rec[2], 10, 64)
		require.NoError(t, err, name)
		min, err := strconv.ParseInt(rec[3], 10, 64)
		require.NoError(t, err, name)
		max, err := strconv.ParseInt(rec[4], 10, 64)
		require.NoError(t, err, name)
		assert.Positive(t, min, name)
		assert.LessOrEqual(t, min, avg, name)
		assert.LessOrEqual(t, avg, max, name)
	}
}

func TestRunScenarioOutputFile(t *testing.T) {
	catalogDir, scenarioPath := writeRunFixtures(t)
	outPath := filepath.Join(t.TempDir(), "report.csv")

	stdout := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{catalogDir, scenarioPath, "-o", outPath})

	err := cmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "Report written to "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "block,executions,avg in ns,min in ns,max in ns\r\n")

	records := parseCSVReport(t, data)
	assert.Len(t, records, 3)
}

func TestRunScenarioPersistsCatalog(t *testing.T) {
	catalogDir, scenarioPath := writeRunFixtures(t)
	dbPath := filepath.Join(t.TempDir(), "catalog.db")

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{catalogDir, scenarioPath, "--db", dbPath})

	err := cmd.Execute()
	require.NoError(t, err)

	cat, err := registry.Open(dbPath)
	require.NoError(t, err)
	defer cat.Close()

	blocks, err := cat.List(context.Background())
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "checkout", blocks[0].Name)
	assert.Equal(t, "search", blocks[1].Name)
}

func TestRunScenarioBadCatalog(t *testing.T) {
	_, scenarioPath := writeRunFixtures(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"/nonexistent/catalog", scenarioPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load catalog")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunScenarioBadScenarioPath(t *testing.T) {
	catalogDir, _ := writeRunFixtures(t)

	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{catalogDir, "/nonexistent/scenario.yaml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load scenario")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
