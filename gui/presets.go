package gui

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Preset is a saved recap selection.
type Preset struct {
	Name     string `json:"name"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Category string `json:"category"`
}

const presetsFile = "presets.json"

// LoadPresets reads the saved presets from the data directory. A missing
// file is an empty list.
func LoadPresets(dataDir string) ([]Preset, error) {
	path := filepath.Join(dataDir, presetsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	var presets []Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}
	return presets, nil
}

// SavePresets writes the preset list to the data directory.
func SavePresets(dataDir string, presets []Preset) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(presets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode presets: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, presetsFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write presets: %w", err)
	}
	return nil
}
