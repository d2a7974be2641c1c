package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadTuningConfig_Partial(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{"sample_rate": 50, "peak_threshold": 3.5}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}

	params := cfg.EngineParams()
	if params.SampleRate != 50 {
		t.Errorf("sample rate = %f, want 50", params.SampleRate)
	}
	if params.PeakThreshold != 3.5 {
		t.Errorf("peak threshold = %f, want 3.5", params.PeakThreshold)
	}
	// Untouched fields keep their defaults
	if params.SpectralWindowSize != 128 {
		t.Errorf("spectral window size = %d, want default 128", params.SpectralWindowSize)
	}
	if cfg.GetWindowCapacity() != 256 {
		t.Errorf("window capacity = %d, want default 256", cfg.GetWindowCapacity())
	}
	if cfg.GetRecentCapacity() != 500 {
		t.Errorf("recent capacity = %d, want default 500", cfg.GetRecentCapacity())
	}
}

func TestLoadTuningConfig_Empty(t *testing.T) {
	path := writeConfig(t, "tuning.json", `{}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}
	params := cfg.EngineParams()
	if params.SampleRate != 20 || params.SpectralWindowSize != 128 {
		t.Errorf("empty config should yield defaults, got %+v", params)
	}
}

func TestLoadTuningConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"wrong extension", "tuning.yaml", `{}`},
		{"malformed json", "tuning.json", `{not json`},
		{"bad sample rate", "tuning.json", `{"sample_rate": -1}`},
		{"bad peak floor", "tuning.json", `{"spectral_peak_floor": 1.5}`},
		{"window smaller than fft", "tuning.json", `{"window_capacity": 64, "spectral_window_size": 128}`},
		{"window smaller than default fft", "tuning.json", `{"window_capacity": 64}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.content)
			if _, err := LoadTuningConfig(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadTuningConfig_Missing(t *testing.T) {
	if _, err := LoadTuningConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
