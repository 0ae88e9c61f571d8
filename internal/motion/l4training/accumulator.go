package l4training

import (
	"github.com/banshee-data/mvscript/internal/motion/l1lookup"
	"github.com/banshee-data/mvscript/internal/motion/l3rules"
)

// directionStats counts how a cell's projections onto one canonical
// direction agreed with the expected sign.
type directionStats struct {
	right, wrong             int
	weightRight, weightWrong int64
}

// accumulator gathers per (cell, canonical direction) statistics for one ruleset.
type accumulator struct {
	frames int
	stats  []directionStats // cell*StoredDirections + dir
}

func newAccumulator(cells int) *accumulator {
	return &accumulator{stats: make([]directionStats, cells*l1lookup.StoredDirections)}
}

func (a *accumulator) add(cell int, weights *[l1lookup.StoredDirections]int16, expected int) {
	base := cell * l1lookup.StoredDirections
	for d, w := range weights {
		s := &a.stats[base+d]
		v := int(w)
		switch {
		case v == 0:
		case sign(v) == expected:
			s.right++
			s.weightRight += int64(abs(v))
		default:
			s.wrong++
			s.weightWrong += int64(abs(v))
		}
	}
}

// score ranks a direction by its Laplace-smoothed share of agreeing weight.
func score(weightRight, weightWrong int64) float64 {
	return 1000 * float64(weightRight) / float64(weightRight+weightWrong+1)
}

// rules picks the best of the twelve directions for every cell. Direction
// d+StoredDirections sees the same projections with right and wrong swapped.
func (a *accumulator) rules() []l3rules.Rule {
	cells := len(a.stats) / l1lookup.StoredDirections
	out := make([]l3rules.Rule, cells)
	for cell := range out {
		best := l3rules.Rule{Cell: cell, Quality: 50}
		bestScore := -1.0
		for dir := 0; dir < l1lookup.Directions; dir++ {
			s := a.stats[cell*l1lookup.StoredDirections+dir%l1lookup.StoredDirections]
			right, wrong, wr, ww := s.right, s.wrong, s.weightRight, s.weightWrong
			if dir >= l1lookup.StoredDirections {
				right, wrong, wr, ww = wrong, right, ww, wr
			}
			sc := score(wr, ww)
			if sc <= bestScore {
				continue
			}
			bestScore = sc
			best.Direction = dir
			best.Weight = sc
			best.Activity = 0
			best.Quality = 50
			if a.frames > 0 {
				best.Activity = 100 * float64(right+wrong) / float64(a.frames)
			}
			if right+wrong > 0 {
				best.Quality = 100 * float64(right) / float64(right+wrong)
			}
		}
		out[cell] = best
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
