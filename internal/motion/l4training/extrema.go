package l4training

import (
	"math"

	"github.com/banshee-data/mvscript/internal/motion/l2frames"
)

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Extrema returns the indices into actions where the timeline turns from
// rising to falling (tops) and from falling to rising (bottoms). On a
// plateau the turn is placed at the last action of the plateau.
func Extrema(actions []l2frames.Action) (tops, bottoms []int) {
	last := 0
	for i := 0; i+1 < len(actions); i++ {
		s := sign(actions[i+1].Pos - actions[i].Pos)
		if s == 0 {
			continue
		}
		if last != 0 && s != last {
			if last > 0 {
				tops = append(tops, i)
			} else {
				bottoms = append(bottoms, i)
			}
		}
		last = s
	}
	return tops, bottoms
}

// frameAt maps a timestamp to the index of the frame displayed at that time.
func frameAt(ms int64, frameDurationMs float64) int {
	return int(math.Round(float64(ms) / frameDurationMs))
}
