package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/skb/internal/ports/primary"
	"github.com/example/skb/internal/wire"
)

// SearchCmd returns the search command.
func SearchCmd(services *wire.Services) *cobra.Command {
	var (
		kind     string
		category string
		severity string
		scope    string
		domainF  string
		tags     []string
		tier     string
		limit    int
		offset   int
		asJSON   bool
		preview  bool
		stats    bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the knowledge base",
		Long: `Search both KB tiers for entries matching a query and filters.

The project tier is searched first; a project entry with the same id as a
shared entry shadows it.

Examples:
  skb search "async timeout"
  skb search --severity critical --scope python
  skb search websocket --domain fastapi --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}

			resp, err := services.Search.Search(cmd.Context(), primary.SearchRequest{
				Query:    query,
				Kind:     kind,
				Category: category,
				Severity: severity,
				Scope:    scope,
				Domain:   domainF,
				Tags:     tags,
				Tier:     tier,
				Limit:    limit,
				Offset:   offset,
			})
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if asJSON {
				return printJSON(searchJSON(resp))
			}
			printSearchResponse(resp, preview, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Filter by entry kind (error|pattern)")
	cmd.Flags().StringVar(&category, "category", "", "Filter by file category")
	cmd.Flags().StringVar(&severity, "severity", "", "Filter by severity")
	cmd.Flags().StringVar(&scope, "scope", "", "Filter by scope")
	cmd.Flags().StringVar(&domainF, "domain", "", "Filter by domain")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Require a tag (repeatable)")
	cmd.Flags().StringVar(&tier, "tier", "", "Restrict to one tier (project|shared)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (default 20, max 500)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip the first N results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&preview, "preview", false, "Show a content preview per result")
	cmd.Flags().BoolVar(&stats, "stats", false, "Show scan statistics")

	return cmd
}

func printSearchResponse(resp *primary.SearchResponse, preview, stats bool) {
	for _, warning := range resp.Warnings {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.New(color.FgYellow).Sprint("warning:"), warning)
	}

	if len(resp.Results) == 0 {
		fmt.Println("No entries found.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIER\tSEVERITY\tTITLE")
	for _, r := range resp.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Entry.ID, r.Tier, r.Entry.Severity, r.Entry.Title)
	}
	w.Flush()

	if preview {
		for _, r := range resp.Results {
			fmt.Println()
			fmt.Printf("%s %s (%s)\n", color.New(color.FgCyan).Sprint(r.Entry.ID), r.Entry.Title, r.FilePath)
			fmt.Printf("  %s\n", r.Preview)
		}
	}

	for _, note := range resp.Notes {
		fmt.Printf("\nnote: %s\n", note)
	}

	if resp.Truncated {
		fmt.Printf("\nShowing %d of %d matches.\n", len(resp.Results), resp.Total)
	}
	if stats {
		fmt.Printf("\nScanned %d files in %dms.\n", resp.FilesScanned, resp.ElapsedMS)
	}
}

type searchResultJSON struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Severity  string  `json:"severity,omitempty"`
	Scope     string  `json:"scope,omitempty"`
	Tier      string  `json:"tier"`
	FilePath  string  `json:"file_path"`
	Relevance float64 `json:"relevance_score"`
	Preview   string  `json:"preview"`
}

type searchResponseJSON struct {
	Query     string             `json:"query"`
	Total     int                `json:"total"`
	Truncated bool               `json:"truncated,omitempty"`
	Results   []searchResultJSON `json:"results"`
	Notes     []string           `json:"notes,omitempty"`
	Warnings  []string           `json:"warnings,omitempty"`
	ElapsedMS int64              `json:"elapsed_ms"`
}

func searchJSON(resp *primary.SearchResponse) searchResponseJSON {
	out := searchResponseJSON{
		Query:     resp.Query,
		Total:     resp.Total,
		Truncated: resp.Truncated,
		Results:   []searchResultJSON{},
		Notes:     resp.Notes,
		Warnings:  resp.Warnings,
		ElapsedMS: resp.ElapsedMS,
	}
	for _, r := range resp.Results {
		out.Results = append(out.Results, searchResultJSON{
			ID:        r.Entry.ID,
			Title:     r.Entry.Title,
			Severity:  r.Entry.Severity,
			Scope:     r.Entry.Scope,
			Tier:      r.Tier,
			FilePath:  r.FilePath,
			Relevance: r.Relevance,
			Preview:   r.Preview,
		})
	}
	return out
}

// GetCmd returns the get command.
func GetCmd(services *wire.Services) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get [entry-id]",
		Short: "Show a single entry by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.Search.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(result)
			}

			e := result.Entry
			fmt.Printf("%s %s\n", color.New(color.FgCyan).Sprint(e.ID), e.Title)
			fmt.Printf("  tier:     %s (%s)\n", result.Tier, result.FilePath)
			fmt.Printf("  kind:     %s\n", e.Kind)
			if e.Severity != "" {
				fmt.Printf("  severity: %s\n", e.Severity)
			}
			if e.Scope != "" {
				fmt.Printf("  scope:    %s\n", e.Scope)
			}
			if e.Domains != nil {
				fmt.Printf("  domain:   %s\n", e.Domains.Primary)
			}
			if len(e.Tags) > 0 {
				fmt.Printf("  tags:     %s\n", strings.Join(e.SortedTags(), ", "))
			}
			if e.Problem != "" {
				fmt.Printf("\nProblem:\n  %s\n", e.Problem)
			}
			if e.Pattern != "" {
				fmt.Printf("\nPattern:\n  %s\n", e.Pattern)
			}
			if e.RootCause != "" {
				fmt.Printf("\nRoot cause:\n  %s\n", e.RootCause)
			}
			if e.Solution != nil {
				if e.Solution.Explanation != "" {
					fmt.Printf("\nSolution:\n  %s\n", e.Solution.Explanation)
				}
				if e.Solution.Code != "" {
					fmt.Printf("\n%s\n", e.Solution.Code)
				}
			}
			if e.Prevention != "" {
				fmt.Printf("\nPrevention:\n  %s\n", e.Prevention)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
