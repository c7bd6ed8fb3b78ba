package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/notestate/pkg/adapters/lifecycle"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload on external edits and print every transition until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		inst, err := openState(cmd)
		if err != nil {
			return err
		}
		defer inst.Close()

		src := lifecycle.NewSource(inst)
		if err := src.Start(ctx); err != nil {
			return err
		}
		if err := inst.Follow(ctx); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes (Ctrl+C to stop)...")
		for e := range src.Events() {
			fmt.Fprintln(cmd.OutOrStdout(), e.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
