package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/ports/secondary"
	"github.com/example/skb/internal/wire"
)

// SubmitCmd returns the submit command.
func SubmitCmd(services *wire.Services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit knowledge to the KB",
	}

	cmd.AddCommand(submitLocalCmd(services))
	cmd.AddCommand(submitSharedCmd(services))

	return cmd
}

func submitLocalCmd(services *wire.Services) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "local [entry-file]",
		Short: "Write one entry into the project tier",
		Long: `Write a single entry (YAML) into the project tier, routed by category
into integrations/, endpoints/, decisions/, lessons/, or knowledge/.
No review; the entry only has to validate. Resubmitting the same entry
overwrites it.

Examples:
  skb submit local entry.yaml --category async`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			resp, err := services.Submission.SubmitLocal(cmd.Context(), primary.SubmitLocalRequest{
				Category: category,
				Content:  content,
				Agent:    services.Config().Agent,
			})
			if err != nil {
				return submitError(err)
			}

			fmt.Printf("%s Added %s to %s (quality %d)\n",
				color.New(color.FgGreen).Sprint("✓"), resp.EntryID, resp.FilePath, resp.Quality)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Entry category, drives routing (required)")
	cmd.MarkFlagRequired("category")
	return cmd
}

func submitSharedCmd(services *wire.Services) *cobra.Command {
	var (
		title       string
		description string
		domainF     string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "shared [entry-file]",
		Short: "Submit an entry file for shared-tier review",
		Long: `Validate and quality-gate a full entry file, then file it with the
review host. Submissions scoring below the quality threshold need
--force.

Exit codes: 0 filed, 1 validation failure, 2 transport failure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			resp, err := services.Submission.SubmitShared(cmd.Context(), primary.SubmitSharedRequest{
				Title:         title,
				Description:   description,
				Domain:        domainF,
				Content:       content,
				ProjectSource: services.Config().ProjectRoot,
				Agent:         services.Config().Agent,
				Force:         force,
			})
			if err != nil {
				return submitError(err)
			}

			for _, warning := range resp.Warnings {
				fmt.Fprintf(os.Stderr, "%s %s\n", color.New(color.FgYellow).Sprint("warning:"), warning)
			}

			if resp.NeedsConfirm {
				return &ExitError{Code: 1, Err: fmt.Errorf(
					"quality %d (%s) is below the threshold; re-run with --force to submit anyway",
					resp.Quality, resp.QualityTier)}
			}

			fmt.Printf("%s Filed submission %s as %s (quality %d, %s)\n",
				color.New(color.FgGreen).Sprint("✓"),
				resp.SubmissionID, resp.ReviewID, resp.Quality, resp.QualityTier)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Review item title")
	cmd.Flags().StringVar(&description, "description", "", "Why this belongs in the shared tier")
	cmd.Flags().StringVar(&domainF, "domain", "", "Target domain (inferred when omitted)")
	cmd.Flags().BoolVar(&force, "force", false, "Submit below the quality threshold")
	return cmd
}

// submitError maps pipeline failures to exit codes: transport failures
// exit 2, everything else 1.
func submitError(err error) error {
	var te *secondary.TransportError
	if errors.As(err, &te) {
		return &ExitError{Code: 2, Err: err}
	}
	return &ExitError{Code: 1, Err: err}
}
