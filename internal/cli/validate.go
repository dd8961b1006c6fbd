package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/skb/internal/core/entry"
	"github.com/example/skb/internal/wire"
)

// ValidateCmd returns the validate command.
func ValidateCmd(services *wire.Services) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate KB entry files",
		Long: `Validate a single entry file or every entry file under a directory.

With no path, validates the project tier. Warnings do not fail the
command; any hard error exits non-zero.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path := services.Config().ProjectRoot
			if len(args) > 0 {
				path = args[0]
			}

			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("cannot validate %s: %w", path, err)
			}

			var reports []*entry.FileReport
			if info.IsDir() {
				summary, err := services.Validate.ValidateTree(ctx, path)
				if err != nil {
					return err
				}
				reports = summary.Reports
			} else {
				report, err := services.Validate.ValidateFile(ctx, path)
				if err != nil {
					return err
				}
				reports = []*entry.FileReport{report}
			}

			if asJSON {
				if err := printJSON(reports); err != nil {
					return err
				}
			}

			errorCount, warningCount := 0, 0
			for _, report := range reports {
				errorCount += len(report.Errors)
				warningCount += len(report.Warnings)
				if asJSON {
					continue
				}
				for _, d := range report.Errors {
					fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("error:"), d)
				}
				for _, d := range report.Warnings {
					fmt.Printf("%s %s\n", color.New(color.FgYellow).Sprint("warning:"), d)
				}
			}

			if errorCount > 0 {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d errors, %d warnings in %d files",
					errorCount, warningCount, len(reports))}
			}
			if !asJSON {
				fmt.Printf("%s %d files valid (%d warnings)\n",
					color.New(color.FgGreen).Sprint("✓"), len(reports), warningCount)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON reports")
	return cmd
}
