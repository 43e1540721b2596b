package main

import (
	"fmt"

	"github.com/klass-lk/folio/security"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash to use as ADMIN_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE:  hashPassword,
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}

func hashPassword(cmd *cobra.Command, args []string) error {
	hash, err := security.NewBcryptEncoder().GetPasswordHash(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}
