package l2frames

import (
	"fmt"
	"math"
)

// Frame is one decoded motion-vector record.
type Frame struct {
	Index       int
	TimestampMs int64
	Type        byte
	// X and Y hold one component per cell, row-major.
	X []int8
	Y []int8
}

// Vector returns the motion vector of a cell.
func (f *Frame) Vector(cell int) Vector[int8] {
	return Vector[int8]{X: f.X[cell], Y: f.Y[cell]}
}

// Cells returns the number of cells in the frame.
func (f *Frame) Cells() int {
	return len(f.X)
}

// SimplifiedFrame is a frame resampled onto a coarser grid.
type SimplifiedFrame struct {
	Index       int
	TimestampMs int64
	Layout      Layout
	Vectors     []Vector[int32]
}

// Energy returns the sum of vector lengths across the frame.
func (s *SimplifiedFrame) Energy() float64 {
	total := 0.0
	for _, v := range s.Vectors {
		total += math.Sqrt(float64(v.SquaredLength()))
	}
	return total
}

// Simplify resamples f from src onto target. Each source cell contributes
// its vector weighted by the fraction of its area overlapping each target
// cell, so target components may exceed the int8 range.
func (f *Frame) Simplify(src, target Layout) (*SimplifiedFrame, error) {
	if src.Width != target.Width || src.Height != target.Height {
		return nil, fmt.Errorf("cannot simplify %s onto %s", src, target)
	}
	if f.Cells() != src.Cells() {
		return nil, fmt.Errorf("frame %d has %d cells, layout expects %d", f.Index, f.Cells(), src.Cells())
	}

	sumX := make([]float64, target.Cells())
	sumY := make([]float64, target.Cells())
	srcArea := float64(src.CellWidth * src.CellHeight)

	for cell := 0; cell < src.Cells(); cell++ {
		vx, vy := f.X[cell], f.Y[cell]
		if vx == 0 && vy == 0 {
			continue
		}
		box := src.CellBounds(cell)
		c0 := box.Min.X / target.CellWidth
		c1 := (box.Max.X - 1) / target.CellWidth
		r0 := box.Min.Y / target.CellHeight
		r1 := (box.Max.Y - 1) / target.CellHeight
		for r := r0; r <= r1 && r < target.Rows; r++ {
			for c := c0; c <= c1 && c < target.Columns; c++ {
				t := r*target.Columns + c
				overlap := box.Intersect(target.CellBounds(t))
				if overlap.Empty() {
					continue
				}
				w := float64(overlap.Dx()*overlap.Dy()) / srcArea
				sumX[t] += float64(vx) * w
				sumY[t] += float64(vy) * w
			}
		}
	}

	out := &SimplifiedFrame{
		Index:       f.Index,
		TimestampMs: f.TimestampMs,
		Layout:      target,
		Vectors:     make([]Vector[int32], target.Cells()),
	}
	for t := range out.Vectors {
		out.Vectors[t] = Vector[int32]{X: int32(math.Round(sumX[t])), Y: int32(math.Round(sumY[t]))}
	}
	return out, nil
}
