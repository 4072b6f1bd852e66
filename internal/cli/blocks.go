package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/roach88/blockprof/internal/registry"
)

// BlocksOptions holds flags for the blocks command.
type BlocksOptions struct {
	*RootOptions
	Database string
}

// NewBlocksCommand creates the blocks command.
func NewBlocksCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BlocksOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "blocks",
		Short: "List blocks registered in the catalog database",
		Long: `List all blocks in the persistent catalog database.

Rows are sorted by display name using locale-aware collation.

Example:
  blockprof blocks --db ./catalog.db
  blockprof blocks --db ./catalog.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBlocks(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to catalog database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runBlocks(opts *BlocksOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cat, err := registry.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	defer cat.Close()

	blocks, err := cat.List(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list blocks", err)
	}

	// The catalog already orders by raw name; re-sort with a collator so
	// non-ASCII display names land where a human expects them.
	coll := collate.New(language.Und)
	sort.SliceStable(blocks, func(i, j int) bool {
		return coll.CompareString(blocks[i].Name, blocks[j].Name) < 0
	})

	if opts.Format == "json" {
		return formatter.Success(blocks)
	}

	if len(blocks) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No blocks registered.")
		return nil
	}
	for _, b := range blocks {
		if b.Description != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", b.ID, b.Name, b.Description)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.ID, b.Name)
		}
	}
	return nil
}
