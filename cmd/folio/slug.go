package main

import (
	"fmt"
	"strings"

	"github.com/klass-lk/folio/internal/slug"
	"github.com/spf13/cobra"
)

var slugCmd = &cobra.Command{
	Use:   "slug [title...]",
	Short: "Print the slug derived from a title",
	Args:  cobra.MinimumNArgs(1),
	Run:   printSlug,
}

func init() {
	rootCmd.AddCommand(slugCmd)
}

func printSlug(cmd *cobra.Command, args []string) {
	fmt.Fprintln(cmd.OutOrStdout(), slug.Derive(strings.Join(args, " ")))
}
