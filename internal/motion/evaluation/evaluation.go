// Package evaluation scores a generated action timeline against a reference
// timeline for the same video.
package evaluation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/mvscript/internal/motion/l4training"
	"github.com/banshee-data/mvscript/internal/motion/l5actions"
)

// ErrNoOverlap is returned when the two timelines share less than one grid step.
var ErrNoOverlap = errors.New("timelines do not overlap")

// Options controls resampling and extremum matching.
type Options struct {
	// GridMs is the resampling step.
	GridMs int64
	// MatchWindowMs is how far a generated turn may sit from a reference
	// turn of the same kind and still count as matched.
	MatchWindowMs int64
}

// DefaultOptions returns a 10 ms grid and a 150 ms match window.
func DefaultOptions() Options {
	return Options{GridMs: 10, MatchWindowMs: 150}
}

// Report summarises how closely generated follows reference.
type Report struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
	Samples int   `json:"samples"`

	// Correlation is the Pearson correlation of the resampled positions.
	// It is 0 when either timeline is constant over the window.
	Correlation float64 `json:"correlation"`
	// MeanAbsError is the mean absolute position difference.
	MeanAbsError float64 `json:"mean_abs_error"`

	ReferenceStrokes int `json:"reference_strokes"`
	GeneratedStrokes int `json:"generated_strokes"`

	ReferenceExtrema  int     `json:"reference_extrema"`
	MatchedExtrema    int     `json:"matched_extrema"`
	MatchedPercent    float64 `json:"matched_percent"`
	MeanTimingErrorMs float64 `json:"mean_timing_error_ms"`
}

// Compare resamples both timelines over their common span and scores them.
func Compare(reference, generated []l5actions.Action, opts Options) (*Report, error) {
	if opts.GridMs <= 0 {
		return nil, fmt.Errorf("grid step must be positive, got %d", opts.GridMs)
	}
	ref := sorted(reference)
	gen := sorted(generated)
	if len(ref) == 0 || len(gen) == 0 {
		return nil, ErrNoOverlap
	}

	start := max(ref[0].At, gen[0].At)
	end := min(ref[len(ref)-1].At, gen[len(gen)-1].At)
	if end-start < opts.GridMs {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrNoOverlap, start, end)
	}

	x := Resample(ref, start, end, opts.GridMs)
	y := Resample(gen, start, end, opts.GridMs)

	r := &Report{
		StartMs:          start,
		EndMs:            end,
		Samples:          len(x),
		MeanAbsError:     floats.Distance(x, y, 1) / float64(len(x)),
		ReferenceStrokes: Strokes(ref),
		GeneratedStrokes: Strokes(gen),
	}
	if c := stat.Correlation(x, y, nil); !math.IsNaN(c) {
		r.Correlation = c
	}

	refTops, refBottoms := l4training.Extrema(ref)
	genTops, genBottoms := l4training.Extrema(gen)
	r.ReferenceExtrema = len(refTops) + len(refBottoms)

	var timing []float64
	timing = append(timing, match(times(ref, refTops), times(gen, genTops), opts.MatchWindowMs)...)
	timing = append(timing, match(times(ref, refBottoms), times(gen, genBottoms), opts.MatchWindowMs)...)
	r.MatchedExtrema = len(timing)
	if r.ReferenceExtrema > 0 {
		r.MatchedPercent = 100 * float64(r.MatchedExtrema) / float64(r.ReferenceExtrema)
	}
	if len(timing) > 0 {
		r.MeanTimingErrorMs = stat.Mean(timing, nil)
	}
	return r, nil
}

// Resample returns the linearly interpolated position of actions at every
// step from startMs to endMs inclusive. Positions are held flat before the
// first action and after the last. actions must be ordered by time.
func Resample(actions []l5actions.Action, startMs, endMs, stepMs int64) []float64 {
	if len(actions) == 0 || stepMs <= 0 || endMs < startMs {
		return nil
	}
	out := make([]float64, 0, (endMs-startMs)/stepMs+1)
	j := 0
	for t := startMs; t <= endMs; t += stepMs {
		for j+1 < len(actions) && actions[j+1].At <= t {
			j++
		}
		a := actions[j]
		switch {
		case t <= actions[0].At:
			out = append(out, float64(actions[0].Pos))
		case j+1 >= len(actions):
			out = append(out, float64(a.Pos))
		default:
			b := actions[j+1]
			f := float64(t-a.At) / float64(b.At-a.At)
			out = append(out, float64(a.Pos)+f*float64(b.Pos-a.Pos))
		}
	}
	return out
}

// Strokes counts the moves between turning points. A timeline that never
// moves has no strokes.
func Strokes(actions []l5actions.Action) int {
	tops, bottoms := l4training.Extrema(actions)
	for i := 0; i+1 < len(actions); i++ {
		if actions[i+1].Pos != actions[i].Pos {
			return len(tops) + len(bottoms) + 1
		}
	}
	return 0
}

// match pairs each reference time with the nearest unused candidate inside
// window and returns the absolute timing error of every pair.
func match(reference, candidates []int64, window int64) []float64 {
	used := make([]bool, len(candidates))
	var errs []float64
	for _, rt := range reference {
		best := -1
		var bestDist int64
		for i, ct := range candidates {
			if used[i] {
				continue
			}
			d := ct - rt
			if d < 0 {
				d = -d
			}
			if d <= window && (best < 0 || d < bestDist) {
				best, bestDist = i, d
			}
		}
		if best >= 0 {
			used[best] = true
			errs = append(errs, float64(bestDist))
		}
	}
	return errs
}

func times(actions []l5actions.Action, idx []int) []int64 {
	out := make([]int64, len(idx))
	for i, k := range idx {
		out[i] = actions[k].At
	}
	return out
}

func sorted(actions []l5actions.Action) []l5actions.Action {
	out := make([]l5actions.Action, len(actions))
	copy(out, actions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	return out
}
