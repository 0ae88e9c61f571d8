package l3rules

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/banshee-data/mvscript/internal/monitoring"
	"github.com/banshee-data/mvscript/internal/motion/l1lookup"
	"github.com/banshee-data/mvscript/internal/motion/l2frames"
)

// Rule is the learned direction of one grid cell.
type Rule struct {
	Cell      int
	Direction int     // base direction in [0, l1lookup.Directions)
	Activity  float64 // % of frames where the cell showed directional motion
	Quality   float64 // % of directional frames matching the expected sign
	Weight    float64 // ranking score of the chosen direction
}

// RuleSet is an immutable bundle of rules bound to a layout. Mask and
// Filter return new rulesets and never modify the receiver.
type RuleSet struct {
	layout        l2frames.Layout
	rules         []Rule
	activityFloor float64
	qualityFloor  float64
}

// NewRuleSet copies rules, orders them by cell and validates them against layout.
func NewRuleSet(layout l2frames.Layout, rules []Rule, activityFloor, qualityFloor float64) (*RuleSet, error) {
	out := make([]Rule, len(rules))
	copy(out, rules)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cell < out[j].Cell })
	for i, r := range out {
		if r.Cell < 0 || r.Cell >= layout.Cells() {
			return nil, fmt.Errorf("rule cell %d outside layout of %d cells", r.Cell, layout.Cells())
		}
		if r.Direction < 0 || r.Direction >= l1lookup.Directions {
			return nil, fmt.Errorf("rule for cell %d has invalid direction %d", r.Cell, r.Direction)
		}
		if i > 0 && out[i-1].Cell == r.Cell {
			return nil, fmt.Errorf("duplicate rule for cell %d", r.Cell)
		}
	}
	return &RuleSet{layout: layout, rules: out, activityFloor: activityFloor, qualityFloor: qualityFloor}, nil
}

// Layout returns the grid geometry the rules apply to.
func (rs *RuleSet) Layout() l2frames.Layout { return rs.layout }

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// Rules returns a copy of the rules ordered by cell.
func (rs *RuleSet) Rules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// ActivityFloor returns the activity floor the set was filtered with.
func (rs *RuleSet) ActivityFloor() float64 { return rs.activityFloor }

// QualityFloor returns the quality floor the set was filtered with.
func (rs *RuleSet) QualityFloor() float64 { return rs.qualityFloor }

// Mask keeps the rules whose cell box intersects the given pixel rectangle.
func (rs *RuleSet) Mask(x, y, width, height int) *RuleSet {
	rect := image.Rect(x, y, x+width, y+height)
	kept := make([]Rule, 0, len(rs.rules))
	for _, r := range rs.rules {
		if rs.layout.CellBounds(r.Cell).Overlaps(rect) {
			kept = append(kept, r)
		}
	}
	return &RuleSet{layout: rs.layout, rules: kept, activityFloor: rs.activityFloor, qualityFloor: rs.qualityFloor}
}

// MinimumCount returns how many rules minPercentage of the layout's cells represents.
func (rs *RuleSet) MinimumCount(minPercentage float64) int {
	if minPercentage <= 0 {
		return 0
	}
	return int(math.Ceil(minPercentage * float64(rs.layout.Cells()) / 100))
}

// Filter keeps rules meeting both floors. When fewer than minPercentage %
// of the layout's cells survive, it falls back to the rules meeting the
// activity floor alone, best quality first, truncated to that minimum.
func (rs *RuleSet) Filter(activityFloor, qualityFloor, minPercentage float64) *RuleSet {
	kept := make([]Rule, 0, len(rs.rules))
	for _, r := range rs.rules {
		if r.Activity >= activityFloor && r.Quality >= qualityFloor {
			kept = append(kept, r)
		}
	}

	minCount := rs.MinimumCount(minPercentage)
	if len(kept) < minCount {
		active := make([]Rule, 0, len(rs.rules))
		for _, r := range rs.rules {
			if r.Activity >= activityFloor {
				active = append(active, r)
			}
		}
		sort.SliceStable(active, func(i, j int) bool { return active[i].Quality > active[j].Quality })
		if len(active) > minCount {
			active = active[:minCount]
		}
		sort.SliceStable(active, func(i, j int) bool { return active[i].Cell < active[j].Cell })
		monitoring.Debugf("[RuleSet] Quality floor %.1f kept %d rules (< %d), using %d best active rules",
			qualityFloor, len(kept), minCount, len(active))
		kept = active
	}

	return &RuleSet{layout: rs.layout, rules: kept, activityFloor: activityFloor, qualityFloor: qualityFloor}
}
