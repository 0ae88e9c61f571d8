package pipeline

import (
	"image"

	"github.com/banshee-data/mvscript/internal/config"
	"github.com/banshee-data/mvscript/internal/motion/l4training"
	"github.com/banshee-data/mvscript/internal/motion/l5actions"
)

// Config holds the per-stage parameters of one run.
type Config struct {
	Trainer     l4training.Options
	Synthesizer l5actions.Options

	// Mask restricts rules to cells overlapping it; nil keeps every cell.
	Mask               *image.Rectangle
	ActivityFloor      float64
	QualityFloor       float64
	MinCoveragePercent float64

	// GenerationStartMs and GenerationEndMs bound synthesis. An end of
	// zero runs to the end of the source.
	GenerationStartMs int64
	GenerationEndMs   int64

	Smoothing      bool
	SmoothingScale float64
	SmoothingAdd   float64
}

// DefaultConfig returns the configuration matching the tuning defaults.
func DefaultConfig() Config {
	return FromTuning(config.EmptyTuningConfig())
}

// FromTuning maps a tuning config onto pipeline stages.
func FromTuning(t *config.TuningConfig) Config {
	cfg := Config{
		Trainer: l4training.Options{
			TransitionSkipFrames: t.GetTransitionSkipFrames(),
			FocusWindowFrames:    t.GetFocusWindowFrames(),
			SimplifyColumns:      t.GetSimplifyColumns(),
			SimplifyRows:         t.GetSimplifyRows(),
			KeepSimplified:       t.GetKeepSimplified(),
		},
		Synthesizer: l5actions.Options{
			MaximumStrokesDetectedPerSecond: t.GetMaximumStrokesDetectedPerSecond(),
			PercentageOfFramesToKeep:        t.GetPercentageOfFramesToKeep(),
		},
		ActivityFloor:      t.GetActivityFloor(),
		QualityFloor:       t.GetQualityFloor(),
		MinCoveragePercent: t.GetMinCoveragePercent(),
		GenerationStartMs:  t.GetGenerationStart().Milliseconds(),
		GenerationEndMs:    t.GetGenerationEnd().Milliseconds(),
		Smoothing:          t.GetSmoothingEnabled(),
		SmoothingScale:     t.GetSmoothingScale(),
		SmoothingAdd:       t.GetSmoothingAdd(),
	}
	if m := t.GetMask(); m != nil {
		r := image.Rect(m.X, m.Y, m.X+m.Width, m.Y+m.Height)
		cfg.Mask = &r
	}
	return cfg
}
