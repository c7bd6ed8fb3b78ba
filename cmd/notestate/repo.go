package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/notestate/pkg/core"
)

var (
	repoKey  string
	repoName string
	repoPath string
	repoJSON bool
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage repositories",
}

var repoAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := openState(cmd)
		if err != nil {
			return err
		}
		defer inst.Close()

		key := repoKey
		if key == "" {
			key = uuid.NewString()
		}
		if r, _ := inst.Snapshot().Repositories.Find(key); r != nil {
			return fmt.Errorf("repository %q already exists", key)
		}

		_, err = inst.Dispatch(cmd.Context(), core.AddRepository{Repository: &core.Repository{
			Key:    key,
			Name:   repoName,
			Path:   repoPath,
			Status: core.StatusIdle,
		}})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var repoRmCmd = &cobra.Command{
	Use:   "rm KEY",
	Short: "Remove a repository with its folders and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := openState(cmd)
		if err != nil {
			return err
		}
		defer inst.Close()

		if _, err := findRepository(inst.Snapshot(), args[0]); err != nil {
			return err
		}
		_, err = inst.Dispatch(cmd.Context(), core.RemoveRepository{Key: args[0]})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Repository '%s' removed.\n", args[0])
		return nil
	},
}

var repoLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := openState(cmd)
		if err != nil {
			return err
		}
		defer inst.Close()

		repos := inst.Snapshot().Repositories
		if repoJSON {
			return writeJSON(cmd.OutOrStdout(), repos)
		}
		for _, r := range repos {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d notes, %d starred\n",
				r.Key, r.Name, r.Path, len(r.Notes), r.Starred.Len())
		}
		return nil
	},
}

func findRepository(st core.State, key string) (*core.Repository, error) {
	r, _ := st.Repositories.Find(key)
	if r == nil {
		return nil, fmt.Errorf("repository %q not found", key)
	}
	return r, nil
}

func init() {
	rootCmd.AddCommand(repoCmd)
	repoCmd.AddCommand(repoAddCmd, repoRmCmd, repoLsCmd)

	repoAddCmd.Flags().StringVar(&repoKey, "key", "", "Repository key (default: random UUID)")
	repoAddCmd.Flags().StringVar(&repoName, "name", "", "Display name")
	repoAddCmd.Flags().StringVar(&repoPath, "path", "", "Location of the repository")
	repoAddCmd.MarkFlagRequired("name")

	repoLsCmd.Flags().BoolVar(&repoJSON, "json", false, "Output in JSON format")
}
