package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notestate"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of notestate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "notestate version %s\n", strings.TrimSpace(notestate.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
