package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/notestate/pkg/core"
)

var (
	noteKey     string
	noteTitle   string
	noteContent string
	noteFolder  string
	noteTags    []string
	noteStarred bool
	noteJSON    bool
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage the notes of a repository",
}

var noteAddCmd = &cobra.Command{
	Use:   "add REPO",
	Short: "Append a note",
	Args:  cobra.ExactArgs(1),
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
		key := noteKey
		if key == "" {
			key = uuid.NewString()
		}
		if _, i := r.Note(key); i >= 0 {
			return fmt.Errorf("note %q already exists in %q, use 'note save'", key, args[0])
		}

		note := core.Note{
			Key:     key,
			Title:   noteTitle,
			Content: noteContent,
			Folder:  noteFolder,
			Tags:    noteTags,
		}
		if _, err := inst.Dispatch(cmd.Context(), core.AddNote{Repository: args[0], Note: note}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

var noteSaveCmd = &cobra.Command{
	Use:   "save REPO KEY",
	Short: "Save a note, creating it when missing",
	Long: `Save a note and stamp its modification time. Only the fields given as
flags change; the others keep their current value.`,
	Args: cobra.ExactArgs(2),
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
		note, i := r.Note(args[1])
		if i < 0 {
			note = core.Note{Key: args[1]}
		}

		flags := cmd.Flags()
		if flags.Changed("title") {
			note.Title = noteTitle
		}
		if flags.Changed("content") {
			note.Content = noteContent
		}
		if flags.Changed("folder") {
			note.Folder = noteFolder
		}
		if flags.Changed("tag") {
			note.Tags = noteTags
		}

		st, err := inst.Dispatch(cmd.Context(), core.SaveNote{Repository: args[0], Note: note})
		if err != nil {
			return err
		}
		r, _ = st.Repositories.Find(args[0])
		saved, _ := r.Note(args[1])
		fmt.Fprintf(cmd.OutOrStdout(), "Note '%s' saved at %s.\n", args[1], saved.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var noteStarCmd = &cobra.Command{
	Use:   "star REPO KEY",
	Short: "Star a note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleStar(cmd, args, true)
	},
}

var noteUnstarCmd = &cobra.Command{
	Use:   "unstar REPO KEY",
	Short: "Unstar a note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleStar(cmd, args, false)
	},
}

var noteLsCmd = &cobra.Command{
	Use:   "ls REPO",
	Short: "List the notes of a repository",
	Args:  cobra.ExactArgs(1),
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
		notes := r.Notes
		if noteStarred {
			notes = r.StarredNotes()
		}

		if noteJSON {
			if notes == nil {
				notes = []core.Note{}
			}
			return writeJSON(cmd.OutOrStdout(), notes)
		}
		for _, n := range notes {
			star := " "
			if r.Starred.Has(n.Key) {
				star = "*"
			}
			line := fmt.Sprintf("%s %s\t%s", star, n.Key, n.Title)
			if n.Folder != "" {
				line += "\t[" + n.Folder + "]"
			}
			if len(n.Tags) > 0 {
				line += "\t#" + strings.Join(n.Tags, " #")
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func toggleStar(cmd *cobra.Command, args []string, star bool) error {
	inst, err := openState(cmd)
	if err != nil {
		return err
	}
	defer inst.Close()

	r, err := findRepository(inst.Snapshot(), args[0])
	if err != nil {
		return err
	}

	var a core.Action = core.UnstarNote{Repository: args[0], Note: args[1]}
	verb := "unstarred"
	if star {
		if _, i := r.Note(args[1]); i < 0 {
			return fmt.Errorf("note %q not found in %q", args[1], args[0])
		}
		a = core.StarNote{Repository: args[0], Note: args[1]}
		verb = "starred"
	}
	if _, err := inst.Dispatch(cmd.Context(), a); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Note '%s' %s.\n", args[1], verb)
	return nil
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteSaveCmd, noteStarCmd, noteUnstarCmd, noteLsCmd)

	noteAddCmd.Flags().StringVar(&noteKey, "key", "", "Note key (default: random UUID)")
	for _, c := range []*cobra.Command{noteAddCmd, noteSaveCmd} {
		c.Flags().StringVar(&noteTitle, "title", "", "Note title")
		c.Flags().StringVar(&noteContent, "content", "", "Note body")
		c.Flags().StringVar(&noteFolder, "folder", "", "Folder key")
		c.Flags().StringSliceVar(&noteTags, "tag", nil, "Tag (repeatable)")
	}
	noteAddCmd.MarkFlagRequired("title")

	noteLsCmd.Flags().BoolVar(&noteStarred, "starred", false, "Only starred notes")
	noteLsCmd.Flags().BoolVar(&noteJSON, "json", false, "Output in JSON format")
}
