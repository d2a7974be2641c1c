package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/vibration.report/internal/analysis"
)

// TuningConfig represents the optional analysis tuning file. The schema
// matches the params section of /api/config so the same JSON can be captured
// from a running server and fed back at startup. All fields are pointers so
// a partial config only overrides what it names.
type TuningConfig struct {
	SpectralWindowSize *int     `json:"spectral_window_size,omitempty"`
	SampleRate         *float64 `json:"sample_rate,omitempty"`
	PeakThreshold      *float64 `json:"peak_threshold,omitempty"`
	SpectralPeakFloor  *float64 `json:"spectral_peak_floor,omitempty"`
	RMSMinSamples      *int     `json:"rms_min_samples,omitempty"`
	PeakMinSamples     *int     `json:"peak_min_samples,omitempty"`

	WindowCapacity *int `json:"window_capacity,omitempty"`
	RecentCapacity *int `json:"recent_capacity,omitempty"`
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the
// max file size. Fields omitted from the JSON file retain their default
// values, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.SpectralWindowSize != nil && *c.SpectralWindowSize < 2 {
		return fmt.Errorf("spectral_window_size must be at least 2, got %d", *c.SpectralWindowSize)
	}
	if c.SampleRate != nil && *c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %f", *c.SampleRate)
	}
	if c.PeakThreshold != nil && *c.PeakThreshold <= 0 {
		return fmt.Errorf("peak_threshold must be positive, got %f", *c.PeakThreshold)
	}
	if c.SpectralPeakFloor != nil && (*c.SpectralPeakFloor < 0 || *c.SpectralPeakFloor > 1) {
		return fmt.Errorf("spectral_peak_floor must be between 0 and 1, got %f", *c.SpectralPeakFloor)
	}
	if c.RMSMinSamples != nil && *c.RMSMinSamples < 1 {
		return fmt.Errorf("rms_min_samples must be at least 1, got %d", *c.RMSMinSamples)
	}
	if c.PeakMinSamples != nil && *c.PeakMinSamples < 3 {
		return fmt.Errorf("peak_min_samples must be at least 3, got %d", *c.PeakMinSamples)
	}
	if c.WindowCapacity != nil {
		// compare against the effective spectral size: a capacity below the
		// default would silently never fill far enough to produce a spectrum
		spectral := analysis.DefaultEngineParams().SpectralWindowSize
		if c.SpectralWindowSize != nil {
			spectral = *c.SpectralWindowSize
		}
		if *c.WindowCapacity < spectral {
			return fmt.Errorf("window_capacity %d is smaller than spectral_window_size %d",
				*c.WindowCapacity, spectral)
		}
	}
	return nil
}

// EngineParams merges the config over the default engine parameters.
func (c *TuningConfig) EngineParams() analysis.EngineParams {
	p := analysis.DefaultEngineParams()
	if c.SpectralWindowSize != nil {
		p.SpectralWindowSize = *c.SpectralWindowSize
	}
	if c.SampleRate != nil {
		p.SampleRate = *c.SampleRate
	}
	if c.PeakThreshold != nil {
		p.PeakThreshold = *c.PeakThreshold
	}
	if c.SpectralPeakFloor != nil {
		p.SpectralPeakFloor = *c.SpectralPeakFloor
	}
	if c.RMSMinSamples != nil {
		p.RMSMinSamples = *c.RMSMinSamples
	}
	if c.PeakMinSamples != nil {
		p.PeakMinSamples = *c.PeakMinSamples
	}
	return p
}

// GetWindowCapacity returns the window_capacity value or the default.
func (c *TuningConfig) GetWindowCapacity() int {
	if c.WindowCapacity == nil {
		return analysis.DefaultWindowCapacity
	}
	return *c.WindowCapacity
}

// GetRecentCapacity returns the recent_capacity value or the default.
func (c *TuningConfig) GetRecentCapacity() int {
	if c.RecentCapacity == nil {
		return analysis.DefaultRecentCapacity
	}
	return *c.RecentCapacity
}
