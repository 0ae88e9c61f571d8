package l5actions

import "github.com/banshee-data/mvscript/internal/motion/l2frames"

// Action is a timestamped position in [0, 100].
type Action = l2frames.Action

const (
	// PosMin and PosMax bound every action position.
	PosMin = 0
	PosMax = 100
)

// ActionPoint is an Action carrying the synthesis data it was derived from.
type ActionPoint struct {
	Action
	// StartAt and EndAt span the run the point terminates.
	StartAt int64
	EndAt   int64
	// Weight and PartialWeight sum the strongest frames of that run.
	Weight        int64
	PartialWeight int64
	// Peak marks the end of an upward run.
	Peak bool
}

// ToActions strips synthesis data and drops any point whose timestamp does
// not strictly increase over the previous one.
func ToActions(points []ActionPoint) []Action {
	out := make([]Action, 0, len(points))
	for _, p := range points {
		if n := len(out); n > 0 && p.At <= out[n-1].At {
			continue
		}
		out = append(out, p.Action)
	}
	return out
}

// Clamp limits pos to [lo, hi].
func Clamp(pos, lo, hi int) int {
	return max(lo, min(hi, pos))
}
