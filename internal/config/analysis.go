// Package config loads analysis tuning parameters from JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/breath.report/internal/csi"
	"github.com/banshee-data/breath.report/internal/units"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
// This is the single source of truth for all default analysis values.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds the tunable parameters of the breathing
// estimation pipeline. Pointer fields distinguish "not set" from an
// explicit zero, so partial config files are safe.
type AnalysisConfig struct {
	// Peak estimation params
	BreathingMinFreq *float64 `json:"breathing_min_freq,omitempty"`
	BreathingMaxFreq *float64 `json:"breathing_max_freq,omitempty"`
	PeakProminence   *float64 `json:"peak_prominence,omitempty"`

	// Subcarrier selection params
	TopSubcarriers *int `json:"top_subcarriers,omitempty"`

	// Capture defaults
	DefaultChannelWidth *string `json:"default_channel_width,omitempty"`
	CollectionDuration  *int    `json:"collection_duration,omitempty"`
}

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and stay under the max file size.
// Fields omitted from the JSON keep their defaults via the Get* methods.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *AnalysisConfig) Validate() error {
	minFreq, maxFreq := c.GetBreathingMinFreq(), c.GetBreathingMaxFreq()
	if minFreq <= 0 {
		return fmt.Errorf("breathing_min_freq must be positive, got %f", minFreq)
	}
	if minFreq >= maxFreq {
		return fmt.Errorf("breathing_min_freq (%f) must be below breathing_max_freq (%f)", minFreq, maxFreq)
	}

	if c.PeakProminence != nil && *c.PeakProminence < 0 {
		return fmt.Errorf("peak_prominence must be non-negative, got %f", *c.PeakProminence)
	}

	if c.TopSubcarriers != nil && *c.TopSubcarriers <= 0 {
		return fmt.Errorf("top_subcarriers must be positive, got %d", *c.TopSubcarriers)
	}

	if c.DefaultChannelWidth != nil && !units.IsValidWidth(*c.DefaultChannelWidth) {
		return fmt.Errorf("default_channel_width must be one of %s, got %q",
			units.GetValidWidthsString(), *c.DefaultChannelWidth)
	}

	if c.CollectionDuration != nil && *c.CollectionDuration <= 0 {
		return fmt.Errorf("collection_duration must be positive, got %d", *c.CollectionDuration)
	}

	return nil
}

// GetBreathingMinFreq returns the breathing_min_freq value or the default.
func (c *AnalysisConfig) GetBreathingMinFreq() float64 {
	if c.BreathingMinFreq == nil {
		return 0.2
	}
	return *c.BreathingMinFreq
}

// GetBreathingMaxFreq returns the breathing_max_freq value or the default.
func (c *AnalysisConfig) GetBreathingMaxFreq() float64 {
	if c.BreathingMaxFreq == nil {
		return 0.33
	}
	return *c.BreathingMaxFreq
}

// GetPeakProminence returns the peak_prominence value or the default.
func (c *AnalysisConfig) GetPeakProminence() float64 {
	if c.PeakProminence == nil {
		return 0.1
	}
	return *c.PeakProminence
}

// GetTopSubcarriers returns the top_subcarriers value or the default.
func (c *AnalysisConfig) GetTopSubcarriers() int {
	if c.TopSubcarriers == nil {
		return csi.DefaultTopSubcarriers
	}
	return *c.TopSubcarriers
}

// GetDefaultChannelWidth returns the default_channel_width value or the default.
func (c *AnalysisConfig) GetDefaultChannelWidth() string {
	if c.DefaultChannelWidth == nil {
		return units.Width80MHz
	}
	return *c.DefaultChannelWidth
}

// GetCollectionDuration returns the collection_duration value or the default.
func (c *AnalysisConfig) GetCollectionDuration() int {
	if c.CollectionDuration == nil {
		return csi.DefaultCollectionDuration
	}
	return *c.CollectionDuration
}

// Tuning converts the peak estimation fields into pipeline tuning.
func (c *AnalysisConfig) Tuning() csi.EstimatorTuning {
	return csi.EstimatorTuning{
		BreathingMinFreq: c.GetBreathingMinFreq(),
		BreathingMaxFreq: c.GetBreathingMaxFreq(),
		PeakProminence:   c.GetPeakProminence(),
	}
}
