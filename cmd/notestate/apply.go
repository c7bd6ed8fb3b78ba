package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/notestate/pkg/core"
)

var applyCmd = &cobra.Command{
	Use:   "apply FILE",
	Short: "Dispatch the actions of a YAML or JSON script ('-' reads stdin)",
	Long: `Dispatch a list of actions in order. Each entry is an action envelope:

  - type: ADD_REPOSITORY
    repository: {key: r1, name: Notes}
  - type: STAR_NOTE
    repository: r1
    note: n1

Actions that change nothing are skipped. The first failing commit stops
the script; actions before it stay applied.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}

		actions, err := core.ParseActionScript(in)
		if err != nil {
			return err
		}

		inst, err := openState(cmd)
		if err != nil {
			return err
		}
		defer inst.Close()

		for i, a := range actions {
			if _, err := inst.Dispatch(cmd.Context(), a); err != nil {
				return fmt.Errorf("action %d (%s): %w", i, a.Type(), err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %d actions.\n", len(actions))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
}
