package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notestate"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a state directory",
	Long: `Create the state directory with an empty index. With the fs adapter the
directory is also put under git unless --gitless is set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveDir()
		if err != nil {
			return err
		}

		inst, err := openState(cmd, notestate.WithAutoInit(true))
		if err != nil {
			return err
		}
		defer inst.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Initialized empty notestate in", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
