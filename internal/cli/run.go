package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/blockprof/internal/harness"
	"github.com/roach88/blockprof/internal/host"
	"github.com/roach88/blockprof/internal/registry"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Output   string
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <catalog-dir> <scenario.yaml>",
		Short: "Run a scenario and render its timing report",
		Long: `Run a profiling scenario against a CUE block catalog.

Blocks declared in the catalog are registered, the scenario's steps are
executed through the instrumented host, and the aggregated per-block
timing report is rendered as CSV.

Example:
  blockprof run ./catalog ./scenario.yaml
  blockprof run ./catalog ./scenario.yaml -o report.csv --db ./catalog.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the CSV report to this file (default stdout)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "also persist catalog blocks to this database")

	return cmd
}

func runScenario(opts *RunOptions, catalogDir, scenarioPath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	// Load catalog
	slog.Info("loading catalog", "dir", catalogDir)
	loadResult, loadErrors := LoadCatalog(catalogDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return WrapExitError(ExitCommandError, "failed to load catalog", loadErr)
		}
		return WrapExitError(ExitCommandError, "failed to load catalog", loadErrors[0])
	}
	slog.Info("catalog loaded", "blocks", len(loadResult.Definitions))

	// Register catalog blocks
	reg := registry.NewMemory()
	for _, def := range loadResult.Definitions {
		reg.Register(def.Name, def.Description)
	}

	// Optionally persist the catalog
	if opts.Database != "" {
		if err := persistCatalog(cmd, opts.Database, loadResult.Definitions); err != nil {
			return WrapExitError(ExitCommandError, "failed to persist catalog", err)
		}
	}

	// Load scenario
	scenario, err := harness.Load(scenarioPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	slog.Info("scenario loaded", "name", scenario.Name, "steps", len(scenario.Steps))

	// Execute
	runner := harness.NewRunner(host.New(), reg)
	session, err := runner.Run(cmd.Context(), scenario)
	if err != nil {
		return WrapExitError(ExitFailure, "scenario execution failed", err)
	}

	// Render
	out := cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create output file", err)
		}
		defer f.Close()
		out = f
	}

	if err := session.Report.Render(reg, out); err != nil {
		return WrapExitError(ExitFailure, "failed to render report", err)
	}

	slog.Info("report rendered",
		"session", session.Token,
		"blocks", session.Report.Len(),
		"discarded", session.Report.Discarded(),
	)
	if opts.Output != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", opts.Output)
	}
	return nil
}

// persistCatalog registers catalog definitions in the durable database.
func persistCatalog(cmd *cobra.Command, path string, defs []Definition) error {
	cat, err := registry.Open(path)
	if err != nil {
		return err
	}
	defer cat.Close()

	for _, def := range defs {
		if _, err := cat.Register(cmd.Context(), def.Name, def.Description); err != nil {
			return err
		}
	}
	slog.Info("catalog persisted", "path", path, "blocks", len(defs))
	return nil
}
