package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// MaskRect is a pixel rectangle restricting which cells a ruleset keeps.
type MaskRect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// TuningConfig represents the root configuration for tuning parameters.
// The same schema is accepted as JSON or YAML.
type TuningConfig struct {
	// Synthesis params
	MaximumStrokesDetectedPerSecond *float64 `json:"maximum_strokes_detected_per_second,omitempty" yaml:"maximum_strokes_detected_per_second,omitempty"`
	PercentageOfFramesToKeep        *int     `json:"percentage_of_frames_to_keep,omitempty" yaml:"percentage_of_frames_to_keep,omitempty"`

	// Frame store params
	MaximumMemoryUsageMB   *int  `json:"maximum_memory_usage_mb,omitempty" yaml:"maximum_memory_usage_mb,omitempty"`
	ClampToAvailableMemory *bool `json:"clamp_to_available_memory,omitempty" yaml:"clamp_to_available_memory,omitempty"`

	// Ruleset filter params
	Mask               *MaskRect `json:"mask,omitempty" yaml:"mask,omitempty"`
	ActivityFloor      *float64  `json:"activity_floor,omitempty" yaml:"activity_floor,omitempty"`
	QualityFloor       *float64  `json:"quality_floor,omitempty" yaml:"quality_floor,omitempty"`
	MinCoveragePercent *float64  `json:"min_coverage_percent,omitempty" yaml:"min_coverage_percent,omitempty"`

	// Trainer params
	TransitionSkipFrames *int  `json:"transition_skip_frames,omitempty" yaml:"transition_skip_frames,omitempty"`
	FocusWindowFrames    *int  `json:"focus_window_frames,omitempty" yaml:"focus_window_frames,omitempty"`
	SimplifyColumns      *int  `json:"simplify_columns,omitempty" yaml:"simplify_columns,omitempty"`
	SimplifyRows         *int  `json:"simplify_rows,omitempty" yaml:"simplify_rows,omitempty"`
	KeepSimplified       *bool `json:"keep_simplified,omitempty" yaml:"keep_simplified,omitempty"`

	// Generation window, duration strings like "90s"; empty means the whole file.
	GenerationStart *string `json:"generation_start,omitempty" yaml:"generation_start,omitempty"`
	GenerationEnd   *string `json:"generation_end,omitempty" yaml:"generation_end,omitempty"`

	// Smoothing params
	SmoothingEnabled *bool    `json:"smoothing_enabled,omitempty" yaml:"smoothing_enabled,omitempty"`
	SmoothingScale   *float64 `json:"smoothing_scale,omitempty" yaml:"smoothing_scale,omitempty"`
	SmoothingAdd     *float64 `json:"smoothing_add,omitempty" yaml:"smoothing_add,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to the
// value its getter falls back to.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		MaximumStrokesDetectedPerSecond: ptrFloat64(12),
		PercentageOfFramesToKeep:        ptrInt(10),
		MaximumMemoryUsageMB:            ptrInt(500),
		ClampToAvailableMemory:          ptrBool(true),
		ActivityFloor:                   ptrFloat64(10),
		QualityFloor:                    ptrFloat64(60),
		MinCoveragePercent:              ptrFloat64(5),
		TransitionSkipFrames:            ptrInt(3),
		FocusWindowFrames:               ptrInt(6),
		SimplifyColumns:                 ptrInt(8),
		SimplifyRows:                    ptrInt(6),
		KeepSimplified:                  ptrBool(true),
		GenerationStart:                 ptrString(""),
		GenerationEnd:                   ptrString(""),
		SmoothingEnabled:                ptrBool(false),
		SmoothingScale:                  ptrFloat64(1),
		SmoothingAdd:                    ptrFloat64(0),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON or YAML file.
// The file is validated to ensure it has a known extension and is under the max file size.
// Fields omitted from the file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	// The Get* methods provide fallback defaults for any fields not specified.
	cfg := EmptyTuningConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/motion/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MaximumStrokesDetectedPerSecond != nil && *c.MaximumStrokesDetectedPerSecond <= 0 {
		return fmt.Errorf("maximum_strokes_detected_per_second must be positive, got %f", *c.MaximumStrokesDetectedPerSecond)
	}
	if c.PercentageOfFramesToKeep != nil {
		if *c.PercentageOfFramesToKeep < 0 || *c.PercentageOfFramesToKeep > 100 {
			return fmt.Errorf("percentage_of_frames_to_keep must be between 0 and 100, got %d", *c.PercentageOfFramesToKeep)
		}
	}
	if c.MaximumMemoryUsageMB != nil && *c.MaximumMemoryUsageMB <= 0 {
		return fmt.Errorf("maximum_memory_usage_mb must be positive, got %d", *c.MaximumMemoryUsageMB)
	}
	if c.Mask != nil && (c.Mask.Width <= 0 || c.Mask.Height <= 0) {
		return fmt.Errorf("mask must have a positive size, got %dx%d", c.Mask.Width, c.Mask.Height)
	}
	for name, v := range map[string]*float64{
		"activity_floor":       c.ActivityFloor,
		"quality_floor":        c.QualityFloor,
		"min_coverage_percent": c.MinCoveragePercent,
	} {
		if v != nil && (*v < 0 || *v > 100) {
			return fmt.Errorf("%s must be between 0 and 100, got %f", name, *v)
		}
	}
	for name, v := range map[string]*int{
		"transition_skip_frames": c.TransitionSkipFrames,
		"focus_window_frames":    c.FocusWindowFrames,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %d", name, *v)
		}
	}
	if c.SimplifyColumns != nil && *c.SimplifyColumns <= 0 {
		return fmt.Errorf("simplify_columns must be positive, got %d", *c.SimplifyColumns)
	}
	if c.SimplifyRows != nil && *c.SimplifyRows <= 0 {
		return fmt.Errorf("simplify_rows must be positive, got %d", *c.SimplifyRows)
	}
	for name, v := range map[string]*string{
		"generation_start": c.GenerationStart,
		"generation_end":   c.GenerationEnd,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}
	if c.SmoothingScale != nil && *c.SmoothingScale < 0 {
		return fmt.Errorf("smoothing_scale must be non-negative, got %f", *c.SmoothingScale)
	}
	return nil
}

// GetMaximumStrokesDetectedPerSecond returns the maximum_strokes_detected_per_second value or the default.
func (c *TuningConfig) GetMaximumStrokesDetectedPerSecond() float64 {
	if c.MaximumStrokesDetectedPerSecond == nil {
		return 12
	}
	return *c.MaximumStrokesDetectedPerSecond
}

// GetPercentageOfFramesToKeep returns the percentage_of_frames_to_keep value or the default.
func (c *TuningConfig) GetPercentageOfFramesToKeep() int {
	if c.PercentageOfFramesToKeep == nil {
		return 10
	}
	return *c.PercentageOfFramesToKeep
}

// GetMaximumMemoryUsageMB returns the maximum_memory_usage_mb value or the default.
func (c *TuningConfig) GetMaximumMemoryUsageMB() int {
	if c.MaximumMemoryUsageMB == nil {
		return 500
	}
	return *c.MaximumMemoryUsageMB
}

// GetClampToAvailableMemory returns the clamp_to_available_memory value or the default.
func (c *TuningConfig) GetClampToAvailableMemory() bool {
	if c.ClampToAvailableMemory == nil {
		return true
	}
	return *c.ClampToAvailableMemory
}

// GetMask returns the mask rectangle, or nil when masking is disabled.
func (c *TuningConfig) GetMask() *MaskRect {
	return c.Mask
}

// GetActivityFloor returns the activity_floor value or the default.
func (c *TuningConfig) GetActivityFloor() float64 {
	if c.ActivityFloor == nil {
		return 10
	}
	return *c.ActivityFloor
}

// GetQualityFloor returns the quality_floor value or the default.
func (c *TuningConfig) GetQualityFloor() float64 {
	if c.QualityFloor == nil {
		return 60
	}
	return *c.QualityFloor
}

// GetMinCoveragePercent returns the min_coverage_percent value or the default.
func (c *TuningConfig) GetMinCoveragePercent() float64 {
	if c.MinCoveragePercent == nil {
		return 5
	}
	return *c.MinCoveragePercent
}

// GetTransitionSkipFrames returns the transition_skip_frames value or the default.
func (c *TuningConfig) GetTransitionSkipFrames() int {
	if c.TransitionSkipFrames == nil {
		return 3
	}
	return *c.TransitionSkipFrames
}

// GetFocusWindowFrames returns the focus_window_frames value or the default.
func (c *TuningConfig) GetFocusWindowFrames() int {
	if c.FocusWindowFrames == nil {
		return 6
	}
	return *c.FocusWindowFrames
}

// GetSimplifyColumns returns the simplify_columns value or the default.
func (c *TuningConfig) GetSimplifyColumns() int {
	if c.SimplifyColumns == nil {
		return 8
	}
	return *c.SimplifyColumns
}

// GetSimplifyRows returns the simplify_rows value or the default.
func (c *TuningConfig) GetSimplifyRows() int {
	if c.SimplifyRows == nil {
		return 6
	}
	return *c.SimplifyRows
}

// GetKeepSimplified returns the keep_simplified value or the default.
func (c *TuningConfig) GetKeepSimplified() bool {
	if c.KeepSimplified == nil {
		return true
	}
	return *c.KeepSimplified
}

// GetGenerationStart parses and returns the GenerationStart as a time.Duration.
func (c *TuningConfig) GetGenerationStart() time.Duration {
	return parseDurationOr(c.GenerationStart, 0)
}

// GetGenerationEnd parses and returns the GenerationEnd as a time.Duration.
// Zero means the end of the file.
func (c *TuningConfig) GetGenerationEnd() time.Duration {
	return parseDurationOr(c.GenerationEnd, 0)
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// GetSmoothingEnabled returns the smoothing_enabled value or the default.
func (c *TuningConfig) GetSmoothingEnabled() bool {
	if c.SmoothingEnabled == nil {
		return false // default: smoothing disabled
	}
	return *c.SmoothingEnabled
}

// GetSmoothingScale returns the smoothing_scale value or the default.
func (c *TuningConfig) GetSmoothingScale() float64 {
	if c.SmoothingScale == nil {
		return 1
	}
	return *c.SmoothingScale
}

// GetSmoothingAdd returns the smoothing_add value or the default.
func (c *TuningConfig) GetSmoothingAdd() float64 {
	if c.SmoothingAdd == nil {
		return 0
	}
	return *c.SmoothingAdd
}
