package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/notestate/pkg/core"
)

// journalReader is implemented by storages that keep the action journal.
type journalReader interface {
	Entries(ctx context.Context) ([]core.JournalEntry, error)
}

var journalJSON bool

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Print the recorded actions (badger adapter)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := openState(cmd)
		if err != nil {
			return err
		}
		defer inst.Close()

		j, ok := inst.Storage().(journalReader)
		if !ok {
			return errors.New("the selected adapter keeps no journal, use --adapter badger")
		}
		entries, err := j.Entries(cmd.Context())
		if err != nil {
			return err
		}

		if journalJSON {
			if entries == nil {
				entries = []core.JournalEntry{}
			}
			return writeJSON(cmd.OutOrStdout(), entries)
		}
		for _, e := range entries {
			a, err := e.Decode()
			if err != nil {
				return fmt.Errorf("entry %s: %w", e.ID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.At.Format("2006-01-02 15:04:05"), e.ID, a.Type())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.Flags().BoolVar(&journalJSON, "json", false, "Output in JSON format")
}
