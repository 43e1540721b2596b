package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample posts into an empty store",
	Args:  cobra.NoArgs,
	RunE:  seed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seed(cmd *cobra.Command, args []string) error {
	s, posts, err := openPosts(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := posts.SeedSamples(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if n == 0 {
		fmt.Fprintln(out, "🤷 Store already has posts, nothing seeded")
		return nil
	}
	fmt.Fprintf(out, "✅ Seeded %s\n", color.New(color.Bold, color.FgHiGreen).Sprintf("%d sample posts", n))
	return nil
}
