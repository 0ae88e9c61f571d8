package l4training

import (
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/banshee-data/mvscript/internal/monitoring"
	"github.com/banshee-data/mvscript/internal/motion/l1lookup"
	"github.com/banshee-data/mvscript/internal/motion/l2frames"
	"github.com/banshee-data/mvscript/internal/motion/l3rules"
)

// ErrNotEnoughActions is returned when the reference timeline has fewer
// than two actions and therefore no segment to learn from.
var ErrNotEnoughActions = errors.New("reference timeline needs at least two actions")

// Options tunes the trainer.
type Options struct {
	// TransitionSkipFrames drops frames closer than this to a segment boundary.
	TransitionSkipFrames int
	// FocusWindowFrames is the half width of the window around each
	// extremum used for the peaks and valleys rulesets.
	FocusWindowFrames int
	// SimplifyColumns and SimplifyRows size the down-sampled copy.
	SimplifyColumns int
	SimplifyRows    int
	KeepSimplified  bool
}

// DefaultOptions returns the trainer defaults.
func DefaultOptions() Options {
	return Options{
		TransitionSkipFrames: 3,
		FocusWindowFrames:    6,
		SimplifyColumns:      8,
		SimplifyRows:         6,
		KeepSimplified:       true,
	}
}

// Result holds everything one training pass produces.
type Result struct {
	// Coarse is trained on every usable frame.
	Coarse *l3rules.RuleSet
	// Peaks is trained around bottoms, where an upward stroke starts.
	Peaks *l3rules.RuleSet
	// Valleys is trained around tops, where a downward stroke starts.
	Valleys *l3rules.RuleSet

	Simplified []*l2frames.SimplifiedFrame
	// Tops and Bottoms are frame indices of the reference extrema.
	Tops    []int
	Bottoms []int

	FramesSeen int
	FramesUsed int
}

// Trainer learns direction rules. It holds no state between Train calls.
type Trainer struct {
	opts Options
}

// NewTrainer validates opts and returns a trainer.
func NewTrainer(opts Options) (*Trainer, error) {
	if opts.TransitionSkipFrames < 0 {
		return nil, fmt.Errorf("transition skip frames must be >= 0, got %d", opts.TransitionSkipFrames)
	}
	if opts.FocusWindowFrames < 0 {
		return nil, fmt.Errorf("focus window frames must be >= 0, got %d", opts.FocusWindowFrames)
	}
	if opts.KeepSimplified && (opts.SimplifyColumns <= 0 || opts.SimplifyRows <= 0) {
		return nil, fmt.Errorf("invalid simplified grid %dx%d", opts.SimplifyColumns, opts.SimplifyRows)
	}
	return &Trainer{opts: opts}, nil
}

// Train walks frames in time order against reference and returns the
// coarse, peaks and valleys rulesets. Frames outside the reference span,
// on flat segments, or near a segment boundary do not contribute.
func (t *Trainer) Train(layout l2frames.Layout, frameDurationMs float64, frames iter.Seq2[*l2frames.Frame, error], reference []l2frames.Action) (*Result, error) {
	if len(reference) < 2 {
		return nil, ErrNotEnoughActions
	}
	if frameDurationMs <= 0 {
		return nil, fmt.Errorf("invalid frame duration %v ms", frameDurationMs)
	}
	ref := make([]l2frames.Action, len(reference))
	copy(ref, reference)
	sort.SliceStable(ref, func(i, j int) bool { return ref[i].At < ref[j].At })

	res := &Result{}
	topActions, bottomActions := Extrema(ref)
	for _, i := range topActions {
		res.Tops = append(res.Tops, frameAt(ref[i].At, frameDurationMs))
	}
	for _, i := range bottomActions {
		res.Bottoms = append(res.Bottoms, frameAt(ref[i].At, frameDurationMs))
	}

	var simplifiedLayout l2frames.Layout
	if t.opts.KeepSimplified {
		var err error
		simplifiedLayout, err = layout.Coarser(min(t.opts.SimplifyColumns, layout.Columns), min(t.opts.SimplifyRows, layout.Rows))
		if err != nil {
			return nil, fmt.Errorf("simplified layout: %w", err)
		}
	}

	cells := layout.Cells()
	coarse := newAccumulator(cells)
	peaks := newAccumulator(cells)
	valleys := newAccumulator(cells)
	table := l1lookup.Shared()
	var weights [l1lookup.StoredDirections]int16

	seg := 0
	for f, err := range frames {
		if err != nil {
			return nil, fmt.Errorf("training frames: %w", err)
		}
		if f.Cells() != cells {
			return nil, fmt.Errorf("frame %d has %d cells, layout expects %d", f.Index, f.Cells(), cells)
		}
		res.FramesSeen++

		if t.opts.KeepSimplified {
			sf, err := f.Simplify(layout, simplifiedLayout)
			if err != nil {
				return nil, err
			}
			res.Simplified = append(res.Simplified, sf)
		}

		if f.TimestampMs < ref[0].At || f.TimestampMs >= ref[len(ref)-1].At {
			continue
		}
		for seg+2 < len(ref) && ref[seg+1].At <= f.TimestampMs {
			seg++
		}
		expected := sign(ref[seg+1].Pos - ref[seg].Pos)
		if expected == 0 {
			continue
		}
		start := frameAt(ref[seg].At, frameDurationMs)
		end := frameAt(ref[seg+1].At, frameDurationMs)
		if f.Index-start < t.opts.TransitionSkipFrames || end-f.Index < t.opts.TransitionSkipFrames {
			continue
		}
		res.FramesUsed++

		nearBottom := near(f.Index, res.Bottoms, t.opts.FocusWindowFrames)
		nearTop := near(f.Index, res.Tops, t.opts.FocusWindowFrames)
		coarse.frames++
		if nearBottom {
			peaks.frames++
		}
		if nearTop {
			valleys.frames++
		}

		for cell := 0; cell < cells; cell++ {
			x, y := f.X[cell], f.Y[cell]
			if x == 0 && y == 0 {
				continue
			}
			table.Weights(x, y, &weights)
			coarse.add(cell, &weights, expected)
			if nearBottom {
				peaks.add(cell, &weights, expected)
			}
			if nearTop {
				valleys.add(cell, &weights, expected)
			}
		}
	}

	var err error
	if res.Coarse, err = l3rules.NewRuleSet(layout, coarse.rules(), 0, 0); err != nil {
		return nil, err
	}
	if res.Peaks, err = l3rules.NewRuleSet(layout, peaks.rules(), 0, 0); err != nil {
		return nil, err
	}
	if res.Valleys, err = l3rules.NewRuleSet(layout, valleys.rules(), 0, 0); err != nil {
		return nil, err
	}

	monitoring.Logf("[Trainer] Trained %d cells: frames_seen=%d frames_used=%d (peaks=%d valleys=%d) tops=%d bottoms=%d",
		cells, res.FramesSeen, res.FramesUsed, peaks.frames, valleys.frames, len(res.Tops), len(res.Bottoms))
	return res, nil
}

// near reports whether idx lies within window frames of any of points.
// points is sorted ascending.
func near(idx int, points []int, window int) bool {
	i := sort.SearchInts(points, idx-window)
	return i < len(points) && points[i] <= idx+window
}
