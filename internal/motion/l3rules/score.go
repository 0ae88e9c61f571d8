package l3rules

import (
	"fmt"

	"github.com/banshee-data/mvscript/internal/motion/l1lookup"
	"github.com/banshee-data/mvscript/internal/motion/l2frames"
)

// FrameScore is the projection of one frame onto a ruleset.
type FrameScore struct {
	// Weight is the sum over rules of the lookup value at each rule's direction.
	Weight int64
	// Partial sums only the contributions sharing Weight's sign.
	Partial int64
}

// Score projects f onto the rules. f must match the ruleset layout.
func (rs *RuleSet) Score(f *l2frames.Frame) (FrameScore, error) {
	if f.Cells() != rs.layout.Cells() {
		return FrameScore{}, fmt.Errorf("frame %d has %d cells, ruleset expects %d", f.Index, f.Cells(), rs.layout.Cells())
	}
	table := l1lookup.Shared()
	var pos, neg int64
	for _, r := range rs.rules {
		v := int64(table.Weight(f.X[r.Cell], f.Y[r.Cell], r.Direction))
		if v > 0 {
			pos += v
		} else {
			neg += v
		}
	}
	s := FrameScore{Weight: pos + neg}
	switch {
	case s.Weight > 0:
		s.Partial = pos
	case s.Weight < 0:
		s.Partial = neg
	}
	return s, nil
}
