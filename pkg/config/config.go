// Package config holds the watchtrace configuration: window geometry for the
// two review cursors, summary lookup tuning, annotation key bindings, and
// ambient settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/watchtrace/watchtrace/pkg/window"
)

// Config represents the watchtrace configuration.
type Config struct {
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	HistoryPath string `yaml:"history_path"`

	// Sensor cursor geometry.
	SensorsWindowSize     int `yaml:"sensors_window_size"`
	SensorsWinSizeAdjRate int `yaml:"sensors_win_size_adj_rate"`
	SensorsStepDeltaRate  int `yaml:"sensors_step_delta_rate"`

	// GPS cursor geometry.
	GPSWindowSize     int `yaml:"gps_window_size"`
	GPSWinSizeAdjRate int `yaml:"gps_win_size_adj_rate"`
	GPSStepDeltaRate  int `yaml:"gps_step_delta_rate"`

	// Label/note summary lookup.
	LabelMaxLines  int `yaml:"label_max_lines"`
	NoteMaxLines   int `yaml:"note_max_lines"`
	SearchHorizonS int `yaml:"search_horizon_s"`

	// Single-character key bindings mapping to annotation label values. The
	// core stores and echoes these; the shell applies them.
	AnnotationKeys map[string]string `yaml:"annotation_keys"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "info",
		LogFile:     "",
		HistoryPath: "",

		SensorsWindowSize:     500,
		SensorsWinSizeAdjRate: 10,
		SensorsStepDeltaRate:  10,

		GPSWindowSize:     20,
		GPSWinSizeAdjRate: 5,
		GPSStepDeltaRate:  5,

		LabelMaxLines:  9,
		NoteMaxLines:   5,
		SearchHorizonS: 300,

		AnnotationKeys: map[string]string{
			"w": "Walk",
			"r": "Run",
			"e": "Eat",
			"l": "Sleep",
			"k": "Work",
		},
	}
}

// Load reads the configuration file at path. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories as
// needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// SensorPolicy returns the configured sensor cursor geometry.
func (c *Config) SensorPolicy() window.Policy {
	return window.Policy{
		WindowSize:   c.SensorsWindowSize,
		ResizeStep:   c.SensorsWinSizeAdjRate,
		NavigateStep: c.SensorsStepDeltaRate,
	}
}

// GPSPolicy returns the configured GPS cursor geometry.
func (c *Config) GPSPolicy() window.Policy {
	return window.Policy{
		WindowSize:   c.GPSWindowSize,
		ResizeStep:   c.GPSWinSizeAdjRate,
		NavigateStep: c.GPSStepDeltaRate,
	}
}

// SetSensorPolicy stores an effective sensor geometry back into the
// configuration, after size-policy clamping.
func (c *Config) SetSensorPolicy(p window.Policy) {
	c.SensorsWindowSize = p.WindowSize
	c.SensorsWinSizeAdjRate = p.ResizeStep
	c.SensorsStepDeltaRate = p.NavigateStep
}

// SetGPSPolicy stores an effective GPS geometry back into the configuration.
func (c *Config) SetGPSPolicy(p window.Policy) {
	c.GPSWindowSize = p.WindowSize
	c.GPSWinSizeAdjRate = p.ResizeStep
	c.GPSStepDeltaRate = p.NavigateStep
}

// SearchHorizon returns the label/note lookup horizon as a duration.
func (c *Config) SearchHorizon() time.Duration {
	return time.Duration(c.SearchHorizonS) * time.Second
}
