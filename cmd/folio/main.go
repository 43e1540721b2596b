package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "folio [command]",
	Short:         "folio: a single-author blog backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		outputErrorAndExit("%v", err)
	}
}

func outputErrorAndExit(msg string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, color.New(color.FgHiRed, color.Bold).Sprint("Error: ")+fmt.Sprintf(msg, args...))
	os.Exit(1)
}
