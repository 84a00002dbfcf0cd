package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/On-Jun9/ShutterMeta/pkg/types"
)

// PresetManager manages named configuration presets.
type PresetManager struct {
	presetsDir string
}

// NewPresetManager creates a new preset manager under ~/.shuttermeta/presets.
func NewPresetManager() (*PresetManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	presetsDir := filepath.Join(homeDir, ".shuttermeta", "presets")
	if err := os.MkdirAll(presetsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create presets directory: %w", err)
	}

	return &PresetManager{presetsDir: presetsDir}, nil
}

// ConfigToPreset converts a Config to a ConfigPreset. Log destination is
// left out; it belongs to the invocation, not the preset.
func ConfigToPreset(cfg *Config, name, description string) *types.ConfigPreset {
	return &types.ConfigPreset{
		Name:        name,
		Description: description,
		FFprobePath: cfg.FFprobePath,
		MakerNotes:  cfg.MakerNotes,
		SidecarXML:  cfg.SidecarXML,
		Jobs:        cfg.Jobs,
		LogLevel:    cfg.LogLevel,
		CreatedAt:   time.Now(),
	}
}

// PresetToConfig converts a ConfigPreset to a Config.
func PresetToConfig(preset *types.ConfigPreset) *Config {
	cfg := DefaultConfig()
	if preset.FFprobePath != "" {
		cfg.FFprobePath = preset.FFprobePath
	}
	cfg.MakerNotes = preset.MakerNotes
	cfg.SidecarXML = preset.SidecarXML
	cfg.Jobs = preset.Jobs
	if preset.LogLevel != "" {
		cfg.LogLevel = preset.LogLevel
	}
	return cfg
}

func (pm *PresetManager) presetPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("preset name cannot be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid preset name: %q", name)
	}
	return filepath.Join(pm.presetsDir, name+".json"), nil
}

// SavePreset saves a preset to disk.
func (pm *PresetManager) SavePreset(preset *types.ConfigPreset) error {
	filename, err := pm.presetPath(preset.Name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	return nil
}

// LoadPreset loads a preset from disk.
func (pm *PresetManager) LoadPreset(name string) (*types.ConfigPreset, error) {
	filename, err := pm.presetPath(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset types.ConfigPreset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preset: %w", err)
	}

	return &preset, nil
}

// DeletePreset deletes a preset from disk.
func (pm *PresetManager) DeletePreset(name string) error {
	filename, err := pm.presetPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filename); err != nil {
		return fmt.Errorf("failed to delete preset file: %w", err)
	}
	return nil
}

// ListPresets lists all available presets. Unreadable files are skipped.
func (pm *PresetManager) ListPresets() ([]types.ConfigPreset, error) {
	entries, err := os.ReadDir(pm.presetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets directory: %w", err)
	}

	var presets []types.ConfigPreset
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		preset, err := pm.LoadPreset(name)
		if err != nil {
			continue
		}
		presets = append(presets, *preset)
	}

	return presets, nil
}
