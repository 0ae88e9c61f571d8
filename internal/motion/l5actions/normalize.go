package l5actions

import (
	"math"
	"sort"
)

// ReferenceIntensity returns the 90th percentile of |PartialWeight| over
// the peak points, or 0 when there are none.
func ReferenceIntensity(points []ActionPoint) int64 {
	var partials []int64
	for _, p := range points {
		if p.Peak {
			partials = append(partials, abs64(p.PartialWeight))
		}
	}
	if len(partials) == 0 {
		return 0
	}
	sort.Slice(partials, func(i, j int) bool { return partials[i] < partials[j] })
	return partials[len(partials)*9/10]
}

// NormalizePositions rescales every peak point against ReferenceIntensity
// so a stroke as strong as the reference lands on 100. Points are updated
// in place; nothing changes when the reference is zero.
func NormalizePositions(points []ActionPoint) {
	ref := ReferenceIntensity(points)
	if ref == 0 {
		return
	}
	for i := range points {
		if !points[i].Peak {
			continue
		}
		scaled := math.Round(100 * float64(abs64(points[i].Weight)) / float64(ref))
		points[i].Pos = Clamp(int(min(scaled, PosMax)), 1, PosMax)
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
