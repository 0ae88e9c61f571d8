package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultTuningConfig(t *testing.T) {
	cfg := DefaultTuningConfig()

	// Test that defaults are set via pointers
	if cfg.MaximumStrokesDetectedPerSecond == nil || *cfg.MaximumStrokesDetectedPerSecond != 12 {
		t.Errorf("Expected MaximumStrokesDetectedPerSecond 12, got %v", cfg.MaximumStrokesDetectedPerSecond)
	}
	if cfg.PercentageOfFramesToKeep == nil || *cfg.PercentageOfFramesToKeep != 10 {
		t.Errorf("Expected PercentageOfFramesToKeep 10, got %v", cfg.PercentageOfFramesToKeep)
	}
	if cfg.Mask != nil {
		t.Errorf("Expected no default mask, got %+v", cfg.Mask)
	}

	// Every pointer default must agree with its getter.
	empty := EmptyTuningConfig()
	if cfg.GetMaximumStrokesDetectedPerSecond() != empty.GetMaximumStrokesDetectedPerSecond() {
		t.Errorf("strokes per second default mismatch")
	}
	if cfg.GetPercentageOfFramesToKeep() != empty.GetPercentageOfFramesToKeep() {
		t.Errorf("percentage of frames default mismatch")
	}
	if cfg.GetMaximumMemoryUsageMB() != empty.GetMaximumMemoryUsageMB() {
		t.Errorf("memory default mismatch")
	}
	if cfg.GetClampToAvailableMemory() != empty.GetClampToAvailableMemory() {
		t.Errorf("clamp default mismatch")
	}
	if cfg.GetActivityFloor() != empty.GetActivityFloor() || cfg.GetQualityFloor() != empty.GetQualityFloor() {
		t.Errorf("floor default mismatch")
	}
	if cfg.GetMinCoveragePercent() != empty.GetMinCoveragePercent() {
		t.Errorf("coverage default mismatch")
	}
	if cfg.GetTransitionSkipFrames() != empty.GetTransitionSkipFrames() || cfg.GetFocusWindowFrames() != empty.GetFocusWindowFrames() {
		t.Errorf("trainer default mismatch")
	}
	if cfg.GetSimplifyColumns() != empty.GetSimplifyColumns() || cfg.GetSimplifyRows() != empty.GetSimplifyRows() {
		t.Errorf("simplify default mismatch")
	}
	if cfg.GetKeepSimplified() != empty.GetKeepSimplified() {
		t.Errorf("keep simplified default mismatch")
	}
	if cfg.GetSmoothingEnabled() != empty.GetSmoothingEnabled() ||
		cfg.GetSmoothingScale() != empty.GetSmoothingScale() ||
		cfg.GetSmoothingAdd() != empty.GetSmoothingAdd() {
		t.Errorf("smoothing default mismatch")
	}
	if cfg.GetGenerationStart() != 0 || cfg.GetGenerationEnd() != 0 {
		t.Errorf("generation window defaults should be zero")
	}
}

func TestDefaultsFileMatchesGetters(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	def := DefaultTuningConfig()

	if cfg.GetMaximumStrokesDetectedPerSecond() != def.GetMaximumStrokesDetectedPerSecond() {
		t.Errorf("maximum_strokes_detected_per_second = %v, want %v", cfg.GetMaximumStrokesDetectedPerSecond(), def.GetMaximumStrokesDetectedPerSecond())
	}
	if cfg.GetPercentageOfFramesToKeep() != def.GetPercentageOfFramesToKeep() {
		t.Errorf("percentage_of_frames_to_keep = %d, want %d", cfg.GetPercentageOfFramesToKeep(), def.GetPercentageOfFramesToKeep())
	}
	if cfg.GetQualityFloor() != def.GetQualityFloor() {
		t.Errorf("quality_floor = %v, want %v", cfg.GetQualityFloor(), def.GetQualityFloor())
	}
	if cfg.GetFocusWindowFrames() != def.GetFocusWindowFrames() {
		t.Errorf("focus_window_frames = %d, want %d", cfg.GetFocusWindowFrames(), def.GetFocusWindowFrames())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "maximum_strokes_detected_per_second": 6.5,
  "percentage_of_frames_to_keep": 25,
  "mask": {"x": 10, "y": 20, "width": 300, "height": 200},
  "quality_floor": 75,
  "generation_start": "90s",
  "smoothing_enabled": true
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if got := cfg.GetMaximumStrokesDetectedPerSecond(); got != 6.5 {
		t.Errorf("Expected 6.5 strokes per second, got %v", got)
	}
	if got := cfg.GetPercentageOfFramesToKeep(); got != 25 {
		t.Errorf("Expected 25%% of frames, got %d", got)
	}
	if m := cfg.GetMask(); m == nil || *m != (MaskRect{X: 10, Y: 20, Width: 300, Height: 200}) {
		t.Errorf("Unexpected mask %+v", m)
	}
	if got := cfg.GetQualityFloor(); got != 75 {
		t.Errorf("Expected quality floor 75, got %v", got)
	}
	if got := cfg.GetGenerationStart(); got != 90*time.Second {
		t.Errorf("Expected generation start 90s, got %v", got)
	}
	if !cfg.GetSmoothingEnabled() {
		t.Errorf("Expected smoothing enabled")
	}
	// Omitted fields fall back to defaults.
	if got := cfg.GetActivityFloor(); got != 10 {
		t.Errorf("Expected default activity floor 10, got %v", got)
	}
}

func TestLoadTuningConfigYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tuning.yaml")

	testYAML := `maximum_memory_usage_mb: 64
clamp_to_available_memory: false
mask:
  x: 0
  y: 0
  width: 640
  height: 360
min_coverage_percent: 12.5
smoothing_scale: 0.8
smoothing_add: 5
`
	if err := os.WriteFile(configPath, []byte(testYAML), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if got := cfg.GetMaximumMemoryUsageMB(); got != 64 {
		t.Errorf("Expected 64 MB, got %d", got)
	}
	if cfg.GetClampToAvailableMemory() {
		t.Errorf("Expected clamp disabled")
	}
	if m := cfg.GetMask(); m == nil || m.Width != 640 || m.Height != 360 {
		t.Errorf("Unexpected mask %+v", m)
	}
	if got := cfg.GetMinCoveragePercent(); got != 12.5 {
		t.Errorf("Expected coverage 12.5, got %v", got)
	}
	if cfg.GetSmoothingScale() != 0.8 || cfg.GetSmoothingAdd() != 5 {
		t.Errorf("Unexpected smoothing %v/%v", cfg.GetSmoothingScale(), cfg.GetSmoothingAdd())
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigBadExtension(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "tuning.toml")
	if err := os.WriteFile(configPath, []byte("x = 1"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	_, err := LoadTuningConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "extension") {
		t.Errorf("Expected extension error, got %v", err)
	}
}

func TestLoadTuningConfigTooLarge(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "big.json")
	if err := os.WriteFile(configPath, make([]byte, 1024*1024+1), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	_, err := LoadTuningConfig(configPath)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected size error, got %v", err)
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "quality_floor": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{"empty", EmptyTuningConfig(), false},
		{"defaults", DefaultTuningConfig(), false},
		{"zero strokes", &TuningConfig{MaximumStrokesDetectedPerSecond: ptrFloat64(0)}, true},
		{"keep over 100", &TuningConfig{PercentageOfFramesToKeep: ptrInt(101)}, true},
		{"negative keep", &TuningConfig{PercentageOfFramesToKeep: ptrInt(-1)}, true},
		{"zero memory", &TuningConfig{MaximumMemoryUsageMB: ptrInt(0)}, true},
		{"empty mask", &TuningConfig{Mask: &MaskRect{Width: 0, Height: 10}}, true},
		{"valid mask", &TuningConfig{Mask: &MaskRect{X: 5, Y: 5, Width: 10, Height: 10}}, false},
		{"quality over 100", &TuningConfig{QualityFloor: ptrFloat64(120)}, true},
		{"negative activity", &TuningConfig{ActivityFloor: ptrFloat64(-1)}, true},
		{"negative skip", &TuningConfig{TransitionSkipFrames: ptrInt(-2)}, true},
		{"zero simplify columns", &TuningConfig{SimplifyColumns: ptrInt(0)}, true},
		{"bad generation end", &TuningConfig{GenerationEnd: ptrString("soon")}, true},
		{"good generation end", &TuningConfig{GenerationEnd: ptrString("2m30s")}, false},
		{"negative smoothing scale", &TuningConfig{SmoothingScale: ptrFloat64(-0.5)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetGenerationEndParseErrorFallsBack(t *testing.T) {
	cfg := &TuningConfig{GenerationEnd: ptrString("not-a-duration")}
	if got := cfg.GetGenerationEnd(); got != 0 {
		t.Errorf("GetGenerationEnd() = %v, want 0", got)
	}
}
