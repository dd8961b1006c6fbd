package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/wire"
)

// StatsCmd returns the stats command.
func StatsCmd(services *wire.Services) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show KB statistics and health",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := services.Metrics.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(stats)
			}

			if stats.Project != nil {
				printTierStats("project", stats.Project)
				fmt.Println()
			}
			if stats.Shared != nil {
				printTierStats("shared", stats.Shared)
				fmt.Println()
			}
			if stats.Combined != nil {
				printTierStats("combined", stats.Combined)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printTierStats(name string, ts *primary.TierStats) {
	fmt.Printf("%s tier: %s\n", name, healthLabel(ts.Health))
	fmt.Printf("  %d files, %d entries (%d errors, %d patterns)\n",
		ts.Files, ts.Entries, ts.Errors, ts.Patterns)
	fmt.Printf("  average quality %.1f\n", ts.AvgQuality)
	if ts.InvalidFiles > 0 {
		fmt.Printf("  %s %d files failed validation\n",
			color.New(color.FgYellow).Sprint("!"), ts.InvalidFiles)
	}

	if len(ts.BySeverity) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "  SEVERITY\tENTRIES")
		for _, k := range sortedKeys(ts.BySeverity) {
			fmt.Fprintf(w, "  %s\t%d\n", k, ts.BySeverity[k])
		}
		w.Flush()
	}
	if len(ts.QualityTiers) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "  QUALITY\tENTRIES")
		for _, k := range sortedKeys(ts.QualityTiers) {
			fmt.Fprintf(w, "  %s\t%d\n", k, ts.QualityTiers[k])
		}
		w.Flush()
	}
}

func healthLabel(health string) string {
	switch health {
	case primary.HealthHealthy:
		return color.New(color.FgGreen).Sprint(health)
	case primary.HealthDegraded:
		return color.New(color.FgYellow).Sprint(health)
	default:
		return color.New(color.FgRed).Sprint(health)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
