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

// IndexCmd returns the index command.
func IndexCmd(services *wire.Services) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the shared-tier domain index",
	}

	cmd.AddCommand(indexRebuildCmd(services))
	cmd.AddCommand(indexListCmd(services))
	cmd.AddCommand(indexValidateCmd(services))
	cmd.AddCommand(indexLoadCmd(services))
	cmd.AddCommand(indexBackfillCmd(services))

	return cmd
}

func indexRebuildCmd(services *wire.Services) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Scan the shared tier and rewrite the domain index",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := services.Index.Rebuild(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to rebuild index: %w", err)
			}

			m := resp.Manifest
			fmt.Printf("%s Rebuilt %s: %d entries across %d files, %.1f%% domain coverage\n",
				color.New(color.FgGreen).Sprint("✓"), resp.Path,
				m.TotalEntries, resp.FilesScanned, m.CoveragePercent)
			return nil
		},
	}
}

func indexListCmd(services *wire.Services) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"show"},
		Short:   "Show the current domain index",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := services.Index.Manifest(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(m)
			}

			fmt.Printf("version: %s  updated: %s\n", m.Version, m.LastUpdated)
			fmt.Printf("entries: %d total, %d with domains (%.1f%%)\n\n",
				m.TotalEntries, m.EntriesWithDomains, m.CoveragePercent)

			w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "DOMAIN\tENTRIES")
			for _, name := range m.DomainNames() {
				fmt.Fprintf(w, "%s\t%d\n", name, m.Domains[name])
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func indexValidateCmd(services *wire.Services) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the domain index against a fresh scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			drift, err := services.Index.ValidateManifest(cmd.Context())
			if err != nil {
				return err
			}

			if !drift.Stale {
				fmt.Printf("%s index matches the shared tier\n", color.New(color.FgGreen).Sprint("✓"))
				return nil
			}

			for _, detail := range drift.Details {
				fmt.Printf("%s %s\n", color.New(color.FgYellow).Sprint("drift:"), detail)
			}
			return &ExitError{Code: 1, Err: fmt.Errorf("index is stale, run: skb index rebuild")}
		},
	}
}

func indexLoadCmd(services *wire.Services) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "load [domain]",
		Short: "List the files to load for one domain",
		Long: `List the entry files belonging to one domain so a consumer can load
only that slice of the shared tier instead of the whole thing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			load, err := services.Index.LoadDomain(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(load)
			}

			fmt.Printf("%s: %s\n", load.Domain, load.Description)
			fmt.Printf("%d entries in %d of %d files (%.1f%% skipped)\n\n",
				load.EntryCount, len(load.Files), load.TotalFiles, load.SkippedPct)
			for _, file := range load.Files {
				fmt.Println("  " + file)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func indexBackfillCmd(services *wire.Services) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Infer missing domain assignments from tags",
		Long: `Infer a domain for entries that lack one, from tag keywords.

Inference is advisory: without --write nothing changes, the command only
reports what it would assign.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := services.Index.Backfill(cmd.Context(), primary.BackfillRequest{
				Write: write,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Scanned %d entries, %d missing a domain.\n", resp.Scanned, resp.Missing)
			for _, a := range resp.Assignments {
				marker := "would assign"
				if a.Applied {
					marker = "assigned"
				}
				fmt.Printf("  %s %s -> %s (%s)\n", marker, a.EntryID, a.Primary, a.FilePath)
			}
			for _, id := range resp.Unresolved {
				fmt.Printf("  %s %s: no keyword match\n", color.New(color.FgYellow).Sprint("skipped"), id)
			}
			if !write && len(resp.Assignments) > 0 {
				fmt.Println("\nRe-run with --write to apply.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&write, "write", false, "Apply the inferred assignments")
	return cmd
}
