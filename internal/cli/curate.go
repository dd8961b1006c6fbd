package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/wire"
)

// CurateCmd returns the curate command.
func CurateCmd(services *wire.Services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Review shared-tier submissions",
	}

	cmd.AddCommand(curateListCmd(services))
	cmd.AddCommand(curateShowCmd(services))
	cmd.AddCommand(curateValidateCmd(services))
	cmd.AddCommand(curateApproveCmd(services))
	cmd.AddCommand(curateRequestChangesCmd(services))
	cmd.AddCommand(curateRejectCmd(services))

	return cmd
}

func curateListCmd(services *wire.Services) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List submissions awaiting review",
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := services.Submission.ListPending(cmd.Context())
			if err != nil {
				return err
			}

			if len(pending) == 0 {
				fmt.Println("No pending submissions.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "REVIEW\tDOMAIN\tQUALITY\tENTRIES\tTITLE")
			for _, sub := range pending {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
					sub.ReviewID, sub.Domain, sub.Quality, len(sub.EntryIDs), sub.Title)
			}
			return w.Flush()
		},
	}
}

func curateShowCmd(services *wire.Services) *cobra.Command {
	return &cobra.Command{
		Use:   "show [review-id]",
		Short: "Show one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := services.Submission.GetSubmission(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", color.New(color.FgCyan).Sprint(sub.ReviewID), sub.Title)
			fmt.Printf("  state:    %s\n", sub.State)
			fmt.Printf("  domain:   %s\n", sub.Domain)
			fmt.Printf("  type:     %s\n", sub.Type)
			fmt.Printf("  category: %s\n", sub.Category)
			fmt.Printf("  quality:  %d (verified: %t)\n", sub.Quality, sub.Verified)
			fmt.Printf("  entries:  %v\n", sub.EntryIDs)
			if sub.ProjectSource != "" {
				fmt.Printf("  source:   %s\n", sub.ProjectSource)
			}
			if sub.TargetPath != "" {
				fmt.Printf("  target:   %s\n", sub.TargetPath)
			}
			if sub.Reason != "" {
				fmt.Printf("  reason:   %s\n", sub.Reason)
			}
			if sub.Description != "" {
				fmt.Printf("\n%s\n", sub.Description)
			}
			return nil
		},
	}
}

func curateValidateCmd(services *wire.Services) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [review-id]",
		Short: "Re-validate a submission's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := services.Submission.ValidateSubmission(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			for _, d := range report.Errors {
				fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("error:"), d)
			}
			for _, d := range report.Warnings {
				fmt.Printf("%s %s\n", color.New(color.FgYellow).Sprint("warning:"), d)
			}
			if !report.Valid() {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d errors", len(report.Errors))}
			}
			fmt.Printf("%s submission validates (%d warnings)\n",
				color.New(color.FgGreen).Sprint("✓"), len(report.Warnings))
			return nil
		},
	}
}

func curateApproveCmd(services *wire.Services) *cobra.Command {
	return &cobra.Command{
		Use:   "approve [review-id]",
		Short: "Approve a submission into the shared tier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := services.Submission.Approve(cmd.Context(), primary.ApproveRequest{
				ReviewID: args[0],
				Curator:  services.Config().Agent,
			})
			if err != nil {
				return submitError(err)
			}

			if resp.AlreadyApproved {
				fmt.Printf("%s already approved, materialized at %s\n",
					color.New(color.FgGreen).Sprint("✓"), resp.TargetPath)
				return nil
			}
			fmt.Printf("%s Approved %s: %v -> %s\n",
				color.New(color.FgGreen).Sprint("✓"), resp.ReviewID, resp.EntryIDs, resp.TargetPath)
			return nil
		},
	}
}

func curateRequestChangesCmd(services *wire.Services) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "request-changes [review-id]",
		Short: "Send a submission back to draft with feedback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := services.Submission.RequestChanges(cmd.Context(), args[0],
				services.Config().Agent, reason)
			if err != nil {
				return submitError(err)
			}
			fmt.Printf("%s Sent %s back to draft\n", color.New(color.FgYellow).Sprint("↩"), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "What needs to change")
	return cmd
}

func curateRejectCmd(services *wire.Services) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject [review-id]",
		Short: "Reject a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := services.Submission.Reject(cmd.Context(), args[0],
				services.Config().Agent, reason)
			if err != nil {
				return submitError(err)
			}
			fmt.Printf("%s Rejected %s\n", color.New(color.FgGreen).Sprint("✓"), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the submission was rejected")
	return cmd
}
