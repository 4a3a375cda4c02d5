package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metroviz/crimedash/internal/auth"
)

var hashpwCmd = &cobra.Command{
	Use:   "hashpw <password>",
	Short: "Print the password hash for the credentials file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(auth.HashPassword(args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashpwCmd)
}
