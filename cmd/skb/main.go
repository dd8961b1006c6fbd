package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/skb/internal/cli"
	"github.com/example/skb/internal/config"
	"github.com/example/skb/internal/version"
	"github.com/example/skb/internal/wire"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	services, err := wire.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer services.Close()

	// Ctrl-C cancels the command context so long scans stop cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:     "skb",
		Short:   "skb - two-tier engineering knowledge base",
		Version: version.String(),
		Long: `skb stores, searches, and curates engineering knowledge as structured
YAML entries across a private project tier and a reviewed shared tier.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.SearchCmd(services))
	rootCmd.AddCommand(cli.GetCmd(services))
	rootCmd.AddCommand(cli.ValidateCmd(services))
	rootCmd.AddCommand(cli.IndexCmd(services))
	rootCmd.AddCommand(cli.SubmitCmd(services))
	rootCmd.AddCommand(cli.CurateCmd(services))
	rootCmd.AddCommand(cli.MetaCmd(services))
	rootCmd.AddCommand(cli.StatsCmd(services))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
