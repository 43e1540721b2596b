package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Show post totals, every post, and what readers can see",
	Args:  cobra.NoArgs,
	RunE:  check,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func check(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, posts, err := openPosts(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := posts.Stats(ctx)
	if err != nil {
		return err
	}
	all, err := posts.ListPosts(ctx)
	if err != nil {
		return err
	}
	public, err := posts.ListPublishedPosts(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	bold := color.New(color.Bold)

	fmt.Fprintf(out, "Total posts: %s\n", bold.Sprint(stats.Total))
	fmt.Fprintf(out, "Published:   %s\n", color.New(color.Bold, color.FgHiGreen).Sprint(stats.Published))
	fmt.Fprintf(out, "Drafts:      %s\n", color.New(color.Bold, color.FgHiYellow).Sprint(stats.Drafts))
	fmt.Fprintln(out)

	if len(all) == 0 {
		fmt.Fprintln(out, "🤷 No posts")
		return nil
	}

	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"ID", "Title", "Slug", "Status", "Created"})
	for _, p := range all {
		status := "draft"
		style := []tablewriter.Colors{{}, {}, {}, {tablewriter.FgHiYellowColor}, {}}
		if p.Published {
			status = "published"
			style[3] = tablewriter.Colors{tablewriter.FgHiGreenColor}
		}
		row := []string{
			strconv.FormatInt(p.ID, 10),
			p.Title,
			p.Slug,
			status,
			p.CreatedAt.Format("2006-01-02 15:04"),
		}
		table.Rich(row, style)
	}
	table.Render()
	fmt.Fprintln(out)

	bold.Fprintln(out, "Public list")
	if len(public) == 0 {
		fmt.Fprintln(out, "🤷 Readers see no posts")
		return nil
	}
	for i, p := range public {
		fmt.Fprintf(out, "%d. %s (/%s)\n", i+1, p.Title, p.Slug)
	}
	return nil
}
