package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/klass-lk/folio/internal/app"
	"github.com/klass-lk/folio/internal/config"
	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Connect to the configured store and report its version and posts table",
	Args:  cobra.NoArgs,
	RunE:  ping,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

// ping leaves the schema alone so a missing posts table shows up as such.
func ping(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Driver: %s\n", color.New(color.Bold).Sprint(cfg.StoreDriver))

	s, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	backend, err := s.Describe(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Connected to %s\n", color.New(color.FgHiGreen).Sprint("✓"), backend.Version)

	if !backend.PostsReady {
		fmt.Fprintf(out, "%s %s does not exist yet, run `folio migrate`\n", color.New(color.FgHiYellow).Sprint("!"), backend.Posts)
		return nil
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s is ready with %s (%d published, %d drafts)\n",
		color.New(color.FgHiGreen).Sprint("✓"),
		backend.Posts,
		color.New(color.Bold).Sprintf("%d posts", stats.Total),
		stats.Published,
		stats.Drafts,
	)
	return nil
}
