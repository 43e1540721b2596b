package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var publishAllCmd = &cobra.Command{
	Use:   "publish-all",
	Short: "Publish every draft",
	Args:  cobra.NoArgs,
	RunE:  publishAll,
}

func init() {
	rootCmd.AddCommand(publishAllCmd)
}

func publishAll(cmd *cobra.Command, args []string) error {
	s, posts, err := openPosts(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	published, err := posts.PublishAllDrafts(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(published) == 0 {
		fmt.Fprintln(out, "🤷 No drafts to publish")
		return nil
	}
	for _, p := range published {
		fmt.Fprintf(out, "  %s %s\n", color.New(color.FgHiGreen).Sprint("✓"), p.Title)
	}
	fmt.Fprintf(out, "✅ Published %s\n", color.New(color.Bold).Sprintf("%d drafts", len(published)))
	return nil
}
