package main

import (
	"fmt"

	"github.com/On-Jun9/ShutterMeta/internal/config"
	"github.com/spf13/cobra"
)

var presetDescription string

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Manage saved settings presets",
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the current settings as a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		pm, err := config.NewPresetManager()
		if err != nil {
			return err
		}
		return pm.SavePreset(config.ConfigToPreset(cfg, args[0], presetDescription))
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := config.NewPresetManager()
		if err != nil {
			return err
		}
		presets, err := pm.ListPresets()
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), presets)
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pm, err := config.NewPresetManager()
		if err != nil {
			return err
		}
		if err := pm.DeletePreset(args[0]); err != nil {
			return fmt.Errorf("preset %q: %w", args[0], err)
		}
		return nil
	},
}

func init() {
	presetCmd.AddCommand(presetSaveCmd)
	presetCmd.AddCommand(presetListCmd)
	presetCmd.AddCommand(presetDeleteCmd)

	presetSaveCmd.Flags().StringVar(&presetDescription, "description", "", "preset description")
}
