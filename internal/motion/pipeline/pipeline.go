package pipeline

import (
	"context"
	"fmt"
	"iter"
	"math"
	"sort"
	"time"

	"github.com/banshee-data/mvscript/internal/motion/l2frames"
	"github.com/banshee-data/mvscript/internal/motion/l3rules"
	"github.com/banshee-data/mvscript/internal/motion/l4training"
	"github.com/banshee-data/mvscript/internal/motion/l5actions"
	"github.com/banshee-data/mvscript/internal/motion/l6smoothing"
)

// FrameSource is the read side of a motion-vector store.
type FrameSource interface {
	Layout() l2frames.Layout
	FrameDurationMs() float64
	ReadFrames(startMs, endMs int64) iter.Seq2[*l2frames.Frame, error]
}

// Timings records how long each stage took.
type Timings struct {
	Train      time.Duration
	Synthesize time.Duration
	Smooth     time.Duration
}

// Output is everything a run produces.
type Output struct {
	Actions []l5actions.Action
	Points  []l5actions.ActionPoint

	Training *l4training.Result
	// Coarse, Peaks and Valleys are the masked and filtered rulesets used
	// for synthesis.
	Coarse  *l3rules.RuleSet
	Peaks   *l3rules.RuleSet
	Valleys *l3rules.RuleSet

	SmoothingPasses int
	Timings         Timings
}

// Run trains on the frames spanned by reference and synthesises actions
// over the generation window. ctx is checked between stages only.
func Run(ctx context.Context, src FrameSource, reference []l5actions.Action, cfg Config) (*Output, error) {
	out, err := Train(ctx, src, reference, cfg)
	if err != nil {
		return nil, err
	}
	gen, err := Generate(ctx, src, out.Coarse, out.Peaks, out.Valleys, cfg)
	if err != nil {
		return nil, err
	}
	gen.Training = out.Training
	gen.Timings.Train = out.Timings.Train
	return gen, nil
}

// Train learns the three rulesets from the frames spanned by reference and
// refines them with the configured mask and floors. The returned Output
// has no actions.
func Train(ctx context.Context, src FrameSource, reference []l5actions.Action, cfg Config) (*Output, error) {
	if len(reference) < 2 {
		return nil, l4training.ErrNotEnoughActions
	}
	ref := make([]l5actions.Action, len(reference))
	copy(ref, reference)
	sort.SliceStable(ref, func(i, j int) bool { return ref[i].At < ref[j].At })

	trainer, err := l4training.NewTrainer(cfg.Trainer)
	if err != nil {
		return nil, err
	}
	out := &Output{}
	start := time.Now()
	res, err := trainer.Train(src.Layout(), src.FrameDurationMs(), src.ReadFrames(ref[0].At, ref[len(ref)-1].At+1), ref)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	out.Training = res
	out.Timings.Train = time.Since(start)
	diagf("trained on %d/%d frames in %v", res.FramesUsed, res.FramesSeen, out.Timings.Train)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.Coarse = cfg.refine(res.Coarse, "coarse")
	out.Peaks = cfg.refine(res.Peaks, "peaks")
	out.Valleys = cfg.refine(res.Valleys, "valleys")
	return out, nil
}

// Generate synthesises actions from src over the generation window with
// already refined rulesets, then optionally smooths them.
func Generate(ctx context.Context, src FrameSource, coarse, peaks, valleys *l3rules.RuleSet, cfg Config) (*Output, error) {
	if coarse != nil && coarse.Layout() != src.Layout() {
		return nil, fmt.Errorf("%w: rules trained on %s, source is %s", l5actions.ErrLayoutMismatch, coarse.Layout(), src.Layout())
	}
	synth, err := l5actions.NewSynthesizer(coarse, peaks, valleys, cfg.Synthesizer)
	if err != nil {
		return nil, err
	}
	out := &Output{Coarse: coarse, Peaks: peaks, Valleys: valleys}

	end := cfg.GenerationEndMs
	if end <= 0 {
		end = math.MaxInt64
	}
	start := time.Now()
	points, err := synth.Synthesize(src.ReadFrames(cfg.GenerationStartMs, end))
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	out.Points = points
	out.Actions = l5actions.ToActions(points)
	out.Timings.Synthesize = time.Since(start)
	diagf("synthesized %d actions in %v", len(out.Actions), out.Timings.Synthesize)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Smoothing && len(out.Actions) > 1 {
		start = time.Now()
		opt := l6smoothing.NewOptimizer(out.Actions)
		opt.Scale(cfg.SmoothingScale, cfg.SmoothingAdd)
		out.SmoothingPasses = opt.Nudge()
		if err := opt.Apply(out.Actions); err != nil {
			return nil, fmt.Errorf("smooth: %w", err)
		}
		out.Timings.Smooth = time.Since(start)
		if out.SmoothingPasses >= l6smoothing.MaxPasses {
			opsf("smoothing stopped at the %d pass cap", l6smoothing.MaxPasses)
		}
		diagf("smoothed %d nodes in %d passes (%v)", len(opt.Nodes()), out.SmoothingPasses, out.Timings.Smooth)
	}
	return out, nil
}

// refine applies the mask and the floors to a trained ruleset.
func (c Config) refine(rs *l3rules.RuleSet, name string) *l3rules.RuleSet {
	if c.Mask != nil {
		rs = rs.Mask(c.Mask.Min.X, c.Mask.Min.Y, c.Mask.Dx(), c.Mask.Dy())
	}
	filtered := rs.Filter(c.ActivityFloor, c.QualityFloor, c.MinCoveragePercent)
	if filtered.Len() == 0 {
		opsf("%s ruleset is empty after filtering (activity>=%.1f quality>=%.1f)", name, c.ActivityFloor, c.QualityFloor)
	}
	diagf("%s ruleset: %d -> %d rules", name, rs.Len(), filtered.Len())
	return filtered
}
