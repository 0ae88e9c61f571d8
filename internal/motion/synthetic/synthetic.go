// Package synthetic generates motion-vector streams whose motion follows
// a known action timeline. The gen-mvs tool and the package tests use it
// as ground truth.
package synthetic

import (
	"math/rand/v2"

	"github.com/banshee-data/mvscript/internal/motion/l2frames"
)

// Header returns a header for a width x height video split into
// columns x rows cells at fps frames per second.
func Header(width, height, columns, rows int, fps float64, frames int) l2frames.Header {
	h := l2frames.Header{
		Version:              l2frames.FormatVersion,
		FramerateThousandths: int32(fps*1000 + 0.5),
		FrameCount:           int32(frames),
		Width:                int32(width),
		Height:               int32(height),
		Columns:              int32(columns),
		Rows:                 int32(rows),
	}
	if frames > 0 {
		h.DurationMs = int32(h.NominalTimestamp(frames))
	}
	return h
}

// StrokeTimeline alternates between 0 and 100 every periodMs, starting at
// 0 at startMs, for the given number of strokes.
func StrokeTimeline(strokes int, startMs, periodMs int64) []l2frames.Action {
	out := make([]l2frames.Action, 0, strokes+1)
	for i := 0; i <= strokes; i++ {
		pos := 0
		if i%2 == 1 {
			pos = 100
		}
		out = append(out, l2frames.Action{At: startMs + int64(i)*periodMs, Pos: pos})
	}
	return out
}

// directionAt returns +1 while reference rises at ms, -1 while it falls and 0 otherwise.
func directionAt(reference []l2frames.Action, ms int64) int {
	for i := 0; i+1 < len(reference); i++ {
		if ms >= reference[i].At && ms < reference[i+1].At {
			switch d := reference[i+1].Pos - reference[i].Pos; {
			case d > 0:
				return 1
			case d < 0:
				return -1
			}
			return 0
		}
	}
	return 0
}

// FollowingFrames builds the frames of h. Cells listed in moving point up
// while reference rises and down while it falls, with magnitude speed;
// every other cell carries small seeded noise.
func FollowingFrames(h l2frames.Header, reference []l2frames.Action, moving []int, speed int8, seed uint64) []*l2frames.Frame {
	cells := int(h.Columns * h.Rows)
	isMoving := make([]bool, cells)
	for _, c := range moving {
		isMoving[c] = true
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	frames := make([]*l2frames.Frame, h.FrameCount)
	for i := range frames {
		ts := h.NominalTimestamp(i)
		f := &l2frames.Frame{Index: i, TimestampMs: ts, Type: 'P', X: make([]int8, cells), Y: make([]int8, cells)}
		if i == 0 {
			f.Type = 'I'
		}
		dir := directionAt(reference, ts)
		for c := 0; c < cells; c++ {
			if isMoving[c] {
				f.Y[c] = int8(-dir) * speed
				continue
			}
			f.X[c] = int8(rng.IntN(5) - 2)
			f.Y[c] = int8(rng.IntN(5) - 2)
		}
		frames[i] = f
	}
	return frames
}

