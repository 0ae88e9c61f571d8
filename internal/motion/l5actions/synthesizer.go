package l5actions

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"sort"

	"github.com/banshee-data/mvscript/internal/monitoring"
	"github.com/banshee-data/mvscript/internal/motion/l2frames"
	"github.com/banshee-data/mvscript/internal/motion/l3rules"
)

// ErrLayoutMismatch is returned when the three rulesets do not share a layout.
var ErrLayoutMismatch = errors.New("rulesets do not share a layout")

// Options tunes segmentation and intensity.
type Options struct {
	// MaximumStrokesDetectedPerSecond bounds how short a run may be.
	MaximumStrokesDetectedPerSecond float64
	// PercentageOfFramesToKeep sizes the snapping window and the number of
	// frames summed for intensity.
	PercentageOfFramesToKeep int
}

// DefaultOptions returns the synthesizer defaults.
func DefaultOptions() Options {
	return Options{
		MaximumStrokesDetectedPerSecond: 12,
		PercentageOfFramesToKeep:        10,
	}
}

// MinimumRunMs returns the shortest run duration kept by segmentation.
func (o Options) MinimumRunMs() float64 {
	return 1000/(2*o.MaximumStrokesDetectedPerSecond) - 20
}

// Synthesizer turns frames into action points using a coarse ruleset for
// the direction signal and two specialised rulesets for transitions.
type Synthesizer struct {
	coarse  *l3rules.RuleSet
	peaks   *l3rules.RuleSet
	valleys *l3rules.RuleSet
	opts    Options
}

// NewSynthesizer checks that the rulesets share a layout.
func NewSynthesizer(coarse, peaks, valleys *l3rules.RuleSet, opts Options) (*Synthesizer, error) {
	if coarse == nil || peaks == nil || valleys == nil {
		return nil, fmt.Errorf("synthesizer needs three rulesets")
	}
	if coarse.Layout() != peaks.Layout() || coarse.Layout() != valleys.Layout() {
		return nil, fmt.Errorf("%w: coarse %s, peaks %s, valleys %s",
			ErrLayoutMismatch, coarse.Layout(), peaks.Layout(), valleys.Layout())
	}
	if opts.MaximumStrokesDetectedPerSecond <= 0 {
		return nil, fmt.Errorf("maximum strokes per second must be positive, got %v", opts.MaximumStrokesDetectedPerSecond)
	}
	if opts.PercentageOfFramesToKeep < 0 || opts.PercentageOfFramesToKeep > 100 {
		return nil, fmt.Errorf("percentage of frames to keep must be in [0,100], got %d", opts.PercentageOfFramesToKeep)
	}
	return &Synthesizer{coarse: coarse, peaks: peaks, valleys: valleys, opts: opts}, nil
}

// sample is one scored frame.
type sample struct {
	at     int64
	coarse l3rules.FrameScore
	peak   int64
	valley int64
}

// run is a span of samples [first, last] sharing the sign of the coarse weight.
type run struct {
	sign        int
	first, last int
}

func (r run) len() int { return r.last - r.first + 1 }

// Synthesize scores every frame and returns the normalised action points.
func (s *Synthesizer) Synthesize(frames iter.Seq2[*l2frames.Frame, error]) ([]ActionPoint, error) {
	samples, err := s.score(frames)
	if err != nil {
		return nil, err
	}
	runs := s.segment(samples)
	points := s.emit(samples, runs)
	NormalizePositions(points)
	monitoring.Logf("[Synthesizer] %d frames, %d runs, %d action points", len(samples), len(runs), len(points))
	return points, nil
}

func (s *Synthesizer) score(frames iter.Seq2[*l2frames.Frame, error]) ([]sample, error) {
	var samples []sample
	for f, err := range frames {
		if err != nil {
			return nil, fmt.Errorf("synthesis frames: %w", err)
		}
		c, err := s.coarse.Score(f)
		if err != nil {
			return nil, err
		}
		p, err := s.peaks.Score(f)
		if err != nil {
			return nil, err
		}
		v, err := s.valleys.Score(f)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample{at: f.TimestampMs, coarse: c, peak: p.Weight, valley: v.Weight})
	}
	return samples, nil
}

// segment groups samples into runs by the sign of the coarse weight. A
// run shorter than MinimumRunMs does not survive a flip: it is absorbed by
// the preceding run when that run moves the same way as the new frame,
// otherwise by the run the flip starts.
func (s *Synthesizer) segment(samples []sample) []run {
	minMs := s.opts.MinimumRunMs()
	var closed []run
	var cur *run
	duration := func(r run) float64 { return float64(samples[r.last].at - samples[r.first].at) }

	for i, smp := range samples {
		sg := sign64(smp.coarse.Weight)
		if cur == nil {
			if sg != 0 {
				cur = &run{sign: sg, first: i, last: i}
			}
			continue
		}
		if sg == 0 || sg == cur.sign {
			cur.last = i
			continue
		}
		switch {
		case duration(*cur) >= minMs:
			closed = append(closed, *cur)
			cur = &run{sign: sg, first: i, last: i}
		case len(closed) > 0 && closed[len(closed)-1].sign == sg:
			prev := closed[len(closed)-1]
			closed = closed[:len(closed)-1]
			cur = &run{sign: sg, first: prev.first, last: i}
		default:
			cur = &run{sign: sg, first: cur.first, last: i}
		}
	}
	if cur != nil && duration(*cur) >= minMs {
		closed = append(closed, *cur)
	}
	return closed
}

// window returns how many frames of a run take part in snapping.
func (s *Synthesizer) window(r run) int {
	n := r.len()
	return max(1, min(n/3, n*s.opts.PercentageOfFramesToKeep/100))
}

// transition returns the sample index where run next starts, searched over
// the tail of prev and the head of next. The peaks weight is used when
// next moves up and the valleys weight otherwise; ties go to the earliest.
func (s *Synthesizer) transition(samples []sample, prev, next run) int {
	from := max(prev.first, prev.last-s.window(prev)+1)
	to := min(next.last, next.first+s.window(next)-1)
	best, bestW := next.first, int64(-1)
	for i := from; i <= to; i++ {
		w := samples[i].valley
		if next.sign > 0 {
			w = samples[i].peak
		}
		if w = abs64(w); w > bestW {
			best, bestW = i, w
		}
	}
	return best
}

// intensity sums the K strongest frames of r by |coarse weight|.
func (s *Synthesizer) intensity(samples []sample, r run) (weight, partial int64) {
	idx := make([]int, 0, r.len())
	for i := r.first; i <= r.last; i++ {
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return abs64(samples[idx[a]].coarse.Weight) > abs64(samples[idx[b]].coarse.Weight)
	})
	k := max(2, int(math.Ceil(float64(r.len()*s.opts.PercentageOfFramesToKeep)/100)))
	for _, i := range idx[:min(k, len(idx))] {
		c := samples[i].coarse
		weight += c.Weight
		if sign64(c.Weight) == r.sign {
			partial += c.Partial
		}
	}
	return weight, partial
}

// emit turns runs into start and end points. An end point carries the
// intensity of the run that follows it; the last run has no follower and
// carries its own.
func (s *Synthesizer) emit(samples []sample, runs []run) []ActionPoint {
	if len(runs) == 0 {
		return nil
	}
	bounds := make([]int, len(runs)+1)
	bounds[0] = runs[0].first
	for k := 1; k < len(runs); k++ {
		bounds[k] = s.transition(samples, runs[k-1], runs[k])
	}
	bounds[len(runs)] = runs[len(runs)-1].last

	var points []ActionPoint
	push := func(p ActionPoint) {
		if n := len(points); n > 0 && points[n-1].At == p.At && points[n-1].Pos == p.Pos {
			return
		}
		points = append(points, p)
	}
	for k, r := range runs {
		startPos, endPos := PosMax, PosMin
		if r.sign > 0 {
			startPos, endPos = PosMin, PosMax
		}
		start, end := samples[bounds[k]].at, samples[bounds[k+1]].at
		follower := r
		if k+1 < len(runs) {
			follower = runs[k+1]
		}
		w, pw := s.intensity(samples, follower)
		push(ActionPoint{Action: Action{At: start, Pos: startPos}, StartAt: start, EndAt: start})
		push(ActionPoint{
			Action:        Action{At: end, Pos: endPos},
			StartAt:       start,
			EndAt:         end,
			Weight:        w,
			PartialWeight: pw,
			Peak:          r.sign > 0,
		})
	}
	return points
}

func sign64(v int64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
