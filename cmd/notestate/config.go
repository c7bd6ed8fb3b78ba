package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/notestate/pkg/core"
)

var (
	configZoom      float64
	configListWidth int
	configFolded    bool
	configExtra     []string
	configJSON      bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the settings",
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings; unspecified settings are kept",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := configPatch(cmd)
		if err != nil {
			return err
		}

		inst, err := openState(cmd)
		if err != nil {
			return err
		}
		defer inst.Close()

		st, err := inst.Dispatch(cmd.Context(), core.SetConfig{Config: patch})
		if err != nil {
			return err
		}
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(st.Config)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := openState(cmd)
		if err != nil {
			return err
		}
		defer inst.Close()

		cfg := inst.Snapshot().Config
		if configJSON {
			return writeJSON(cmd.OutOrStdout(), cfg)
		}
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
}

// configPatch builds a patch from the flags that were actually given.
// Extra values are parsed as YAML scalars, so "true" and "3" keep their type.
func configPatch(cmd *cobra.Command) (core.ConfigPatch, error) {
	var p core.ConfigPatch
	flags := cmd.Flags()
	if flags.Changed("zoom") {
		p.Zoom = &configZoom
	}
	if flags.Changed("list-width") {
		p.ListWidth = &configListWidth
	}
	if flags.Changed("sidenav-folded") {
		p.IsSideNavFolded = &configFolded
	}
	for _, kv := range configExtra {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return p, fmt.Errorf("invalid --extra %q, want key=value", kv)
		}
		var value any
		if err := yaml.Unmarshal([]byte(v), &value); err != nil {
			return p, fmt.Errorf("invalid --extra value for %s: %w", k, err)
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = value
	}

	if p.Zoom == nil && p.ListWidth == nil && p.IsSideNavFolded == nil && p.Extra == nil {
		return p, errors.New("nothing to set")
	}
	return p, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd, configShowCmd)

	configSetCmd.Flags().Float64Var(&configZoom, "zoom", 1, "Zoom factor")
	configSetCmd.Flags().IntVar(&configListWidth, "list-width", 250, "Note list width")
	configSetCmd.Flags().BoolVar(&configFolded, "sidenav-folded", false, "Fold the side navigation")
	configSetCmd.Flags().StringArrayVar(&configExtra, "extra", nil, "Extra setting as key=value (repeatable)")

	configShowCmd.Flags().BoolVar(&configJSON, "json", false, "Output in JSON format")
}
