package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/skb/internal/core/sidecar"
	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/wire"
)

// MetaCmd returns the meta command.
func MetaCmd(services *wire.Services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Manage entry metadata sidecars",
	}

	cmd.AddCommand(metaInitCmd(services))
	cmd.AddCommand(metaShowCmd(services))
	cmd.AddCommand(metaUpdateCmd(services))
	cmd.AddCommand(metaDueCmd(services))

	return cmd
}

func metaInitCmd(services *wire.Services) *cobra.Command {
	return &cobra.Command{
		Use:   "init [entry-file]",
		Short: "Create a metadata sidecar for an entry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := services.Metadata.Initialize(cmd.Context(), primary.InitializeRequest{
				EntryPath: args[0],
				Agent:     services.Config().Agent,
			})
			if err != nil {
				return err
			}

			fmt.Printf("%s Created sidecar for %s (%d entries tracked)\n",
				color.New(color.FgGreen).Sprint("✓"), args[0], sc.FileMetadata.EntryCount)
			return nil
		},
	}
}

func metaShowCmd(services *wire.Services) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [entry-file]",
		Short: "Show the sidecar for an entry file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := services.Metadata.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if sc == nil {
				return fmt.Errorf("no sidecar for %s: run skb meta init first", args[0])
			}

			if asJSON {
				return printJSON(sc)
			}

			fmt.Printf("%s  version %d, %d entries, modified %s\n",
				sc.FileMetadata.FileID, sc.FileMetadata.Version,
				sc.FileMetadata.EntryCount, sc.FileMetadata.LastModified)

			w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "ENTRY\tSTATUS\tQUALITY\tNEXT CHECK")
			for _, id := range sortedMetaIDs(sc) {
				meta := sc.Entries[id]
				quality := "-"
				if meta.QualityScore != nil {
					quality = fmt.Sprintf("%d", *meta.QualityScore)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					id, meta.ValidationStatus, quality, meta.NextVersionCheckDue)
			}
			w.Flush()

			fmt.Printf("\nHistory (%d records):\n", len(sc.ChangeHistory))
			for _, rec := range sc.ChangeHistory {
				fmt.Printf("  %s  %s by %s %v\n", rec.Timestamp, rec.Action, rec.Agent, rec.EntriesAffected)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func metaUpdateCmd(services *wire.Services) *cobra.Command {
	var (
		entryID      string
		status       string
		quality      int
		reason       string
		analyzed     bool
		deprecate    bool
		supersededBy string
	)

	cmd := &cobra.Command{
		Use:   "update [entry-file]",
		Short: "Update one entry's tracked metadata",
		Long: `Update an entry's metadata record. Every update bumps the sidecar
version and appends to its change history.

Examples:
  skb meta update kb/async.yaml --entry ASYNC-001 --status validated
  skb meta update kb/async.yaml --entry ASYNC-001 --analyzed
  skb meta update kb/async.yaml --entry ASYNC-001 --deprecate --superseded-by ASYNC-014`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := primary.UpdateMetadataRequest{
				EntryPath:        args[0],
				EntryID:          entryID,
				Agent:            services.Config().Agent,
				Reason:           reason,
				ValidationStatus: status,
				MarkAnalyzed:     analyzed,
				Deprecate:        deprecate,
				SupersededBy:     supersededBy,
			}
			if cmd.Flags().Changed("quality") {
				req.QualityScore = &quality
			}

			meta, err := services.Metadata.Update(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Printf("%s Updated %s (status %s, next check %s)\n",
				color.New(color.FgGreen).Sprint("✓"), entryID,
				meta.ValidationStatus, meta.NextVersionCheckDue)
			return nil
		},
	}

	cmd.Flags().StringVar(&entryID, "entry", "", "Entry id to update (required)")
	cmd.MarkFlagRequired("entry")
	cmd.Flags().StringVar(&status, "status", "", "New validation status")
	cmd.Flags().IntVar(&quality, "quality", 0, "Recorded quality score")
	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded in the change history")
	cmd.Flags().BoolVar(&analyzed, "analyzed", false, "Mark the entry analyzed now")
	cmd.Flags().BoolVar(&deprecate, "deprecate", false, "Deprecate the entry")
	cmd.Flags().StringVar(&supersededBy, "superseded-by", "", "Replacement entry id")
	return cmd
}

func metaDueCmd(services *wire.Services) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List entries whose version check is due",
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := services.Metadata.EntriesDue(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(due)
			}

			if len(due) == 0 {
				fmt.Println("Nothing due.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "ENTRY\tSEVERITY\tDUE\tSTATUS\tFILE")
			for _, d := range due {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					d.EntryID, d.Severity, d.DueAt, d.Status, d.FilePath)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func sortedMetaIDs(sc *sidecar.Sidecar) []string {
	ids := make([]string, 0, len(sc.Entries))
	for id := range sc.Entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
