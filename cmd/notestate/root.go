package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/notestate"
)

var (
	verbose  bool
	stateDir string
	adapter  string
	gitless  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notestate",
	Short: "Repositories, folders and notes kept as a versioned state store",
	Long: `notestate keeps repositories of notes, their folders and starred notes,
plus a few UI settings. Every change is an action applied to the last
snapshot and committed to storage (YAML + Markdown under git, or Badger).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&stateDir, "dir", "", "State directory (default: nearest root above the working directory)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", notestate.AdapterFS, "Storage adapter (fs, badger)")
	rootCmd.PersistentFlags().BoolVar(&gitless, "gitless", false, "Disable git versioning")
}

// resolveDir returns --dir, or the nearest fs root above the working
// directory, or the working directory itself.
func resolveDir() (string, error) {
	if stateDir != "" {
		return stateDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	if adapter == notestate.AdapterFS {
		if root, err := notestate.FindRoot(cwd); err == nil {
			return root, nil
		}
	}
	return cwd, nil
}

// openState loads the state selected by the global flags.
func openState(cmd *cobra.Command, extra ...notestate.Option) (*notestate.Instance, error) {
	dir, err := resolveDir()
	if err != nil {
		return nil, err
	}

	opts := []notestate.Option{
		notestate.WithAdapter(adapter),
		notestate.WithLogger(slog.Default()),
	}
	if gitless {
		opts = append(opts, notestate.WithVersioning(false))
	}
	opts = append(opts, extra...)

	inst, err := notestate.New(cmd.Context(), dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("open state at %s: %w", dir, err)
	}
	return inst, nil
}
