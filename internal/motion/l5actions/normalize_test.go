package l5actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func peak(at, weight, partial int64) ActionPoint {
	return ActionPoint{Action: Action{At: at, Pos: PosMax}, Weight: weight, PartialWeight: partial, Peak: true}
}

func TestNormalizePositions_SinglePeakAtReference(t *testing.T) {
	t.Parallel()
	points := []ActionPoint{peak(100, -750, -750)}
	NormalizePositions(points)
	assert.Equal(t, 100, points[0].Pos)
}

func TestNormalizePositions_Bounds(t *testing.T) {
	t.Parallel()
	var points []ActionPoint
	for i := int64(1); i <= 20; i++ {
		points = append(points, peak(i*100, i*100, i*100))
		points = append(points, ActionPoint{Action: Action{At: i*100 + 50, Pos: PosMin}})
	}
	points = append(points, peak(5000, 0, 0), peak(5100, 10, 0))

	// 22 peak partials ascending: 0, 0, 100, ..., 2000; index 22*9/10 = 19.
	assert.Equal(t, int64(1800), ReferenceIntensity(points))
	NormalizePositions(points)

	for _, p := range points {
		if p.Peak {
			assert.GreaterOrEqual(t, p.Pos, 1)
			assert.LessOrEqual(t, p.Pos, 100)
		} else {
			assert.Equal(t, PosMin, p.Pos)
		}
	}
	assert.Equal(t, 100, points[38].Pos) // weight 2000
	assert.Equal(t, 6, points[0].Pos)    // round(100*100/1800)
	assert.Equal(t, 1, points[40].Pos)   // zero weight clamps up
	assert.Equal(t, 1, points[41].Pos)
}

func TestNormalizePositions_ZeroReferenceLeavesPoints(t *testing.T) {
	t.Parallel()
	points := []ActionPoint{peak(0, 500, 0)}
	NormalizePositions(points)
	assert.Equal(t, PosMax, points[0].Pos)
	assert.Equal(t, int64(0), ReferenceIntensity(nil))
}

func TestToActions_StrictlyIncreasing(t *testing.T) {
	t.Parallel()
	points := []ActionPoint{
		{Action: Action{At: 0, Pos: 0}},
		{Action: Action{At: 100, Pos: 100}},
		{Action: Action{At: 100, Pos: 0}},
		{Action: Action{At: 50, Pos: 20}},
		{Action: Action{At: 200, Pos: 0}},
	}
	assert.Equal(t, []Action{{At: 0, Pos: 0}, {At: 100, Pos: 100}, {At: 200, Pos: 0}}, ToActions(points))
	assert.Empty(t, ToActions(nil))
}

func TestClamp(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, Clamp(-5, 0, 100))
	assert.Equal(t, 100, Clamp(120, 0, 100))
	assert.Equal(t, 42, Clamp(42, 0, 100))
}
