package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationIssue is one problem found while validating a catalog.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	FileCount int               `json:"file_count"`
	Blocks    int               `json:"blocks"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <catalog-dir>",
		Short: "Validate a block catalog without running anything",
		Long: `Validate CUE block catalog files.

Checks that every declared block has a valid name and well-typed fields
without touching the catalog database or executing any workload.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, catalogDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadCatalog(catalogDir, LoadModeCollectAll)

	// Handle hard load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return WrapExitError(ExitCommandError, loadErr.Code, loadErr)
		}
		_ = formatter.Error(ErrCodeGeneric, loadErrors[0].Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeGeneric, loadErrors[0])
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, catalogDir)

	if len(loadErrors) > 0 {
		issues := make([]ValidationIssue, 0, len(loadErrors))
		for _, err := range loadErrors {
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				issues = append(issues, ValidationIssue{Code: loadErr.Code, Message: loadErr.Message})
			} else {
				issues = append(issues, ValidationIssue{Code: ErrCodeGeneric, Message: err.Error()})
			}
		}

		if opts.Format == "json" {
			_ = formatter.Success(ValidationResult{
				Valid:     false,
				FileCount: loadResult.FileCount,
				Blocks:    len(loadResult.Definitions),
				Errors:    issues,
			})
		} else {
			for _, issue := range issues {
				fmt.Fprintf(cmd.OutOrStdout(), "Error [%s]: %s\n", issue.Code, issue.Message)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("catalog invalid: %d error(s)", len(issues)))
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:     true,
			FileCount: loadResult.FileCount,
			Blocks:    len(loadResult.Definitions),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Catalog valid (%d block(s) in %d file(s))\n",
		len(loadResult.Definitions), loadResult.FileCount)
	return nil
}
