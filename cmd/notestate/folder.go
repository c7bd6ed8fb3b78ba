package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/notestate/pkg/core"
)

var (
	folderKey   string
	folderName  string
	folderColor string
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage the folders of a repository",
}

var folderAddCmd = &cobra.Command{
	Use:   "add REPO",
	Short: "Add a folder (replaces a folder with the same key)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := folderKey
		if key == "" {
			key = uuid.NewString()
		}
		folder := core.Folder{Key: key, Name: folderName, Color: folderColor}
		if err := upsertFolder(cmd, args[0], core.AddFolder{Key: args[0], Folder: folder}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var folderEditCmd = &cobra.Command{
	Use:   "edit REPO KEY",
	Short: "Rename or recolor a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := core.Folder{Key: args[1], Name: folderName, Color: folderColor}
		if err := upsertFolder(cmd, args[0], core.EditFolder{Key: args[0], Folder: folder}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Folder '%s' saved.\n", args[1])
		return nil
	},
}

var folderRmCmd = &cobra.Command{
	Use:   "rm REPO KEY",
	Short: "Remove a folder (its notes are kept)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := openState(cmd)
		if err != nil {
			return err
		}
		defer inst.Close()

		r, err := findRepository(inst.Snapshot(), args[0])
		if err != nil {
			return err
		}
		if _, i := r.Folder(args[1]); i < 0 {
			return fmt.Errorf("folder %q not found in %q", args[1], args[0])
		}
		if _, err := inst.Dispatch(cmd.Context(), core.RemoveFolder{Repository: args[0], Folder: args[1]}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Folder '%s' removed.\n", args[1])
		return nil
	},
}

func upsertFolder(cmd *cobra.Command, repo string, a core.Action) error {
	inst, err := openState(cmd)
	if err != nil {
		return err
	}
	defer inst.Close()

	if _, err := findRepository(inst.Snapshot(), repo); err != nil {
		return err
	}
	_, err = inst.Dispatch(cmd.Context(), a)
	return err
}

func init() {
	rootCmd.AddCommand(folderCmd)
	folderCmd.AddCommand(folderAddCmd, folderEditCmd, folderRmCmd)

	folderAddCmd.Flags().StringVar(&folderKey, "key", "", "Folder key (default: random UUID)")
	for _, c := range []*cobra.Command{folderAddCmd, folderEditCmd} {
		c.Flags().StringVar(&folderName, "name", "", "Folder name")
		c.Flags().StringVar(&folderColor, "color", "", "Folder color")
		c.MarkFlagRequired("name")
	}
}
