package l2frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLayout(t *testing.T) {
	t.Parallel()
	l, err := NewLayout(640, 480, 40, 30)
	require.NoError(t, err)
	assert.Equal(t, 16, l.CellWidth)
	assert.Equal(t, 16, l.CellHeight)
	assert.Equal(t, 1200, l.Cells())

	_, err = NewLayout(0, 480, 40, 30)
	assert.Error(t, err)
	_, err = NewLayout(10, 10, 20, 1)
	assert.Error(t, err)
}

func TestLayout_CellBounds(t *testing.T) {
	t.Parallel()
	l, err := NewLayout(64, 32, 4, 2)
	require.NoError(t, err)
	b := l.CellBounds(5) // row 1, column 1
	assert.Equal(t, 16, b.Min.X)
	assert.Equal(t, 16, b.Min.Y)
	assert.Equal(t, 32, b.Max.X)
	assert.Equal(t, 32, b.Max.Y)
}

func TestFrame_SimplifyAccumulatesOverlappingCells(t *testing.T) {
	t.Parallel()
	src, err := NewLayout(64, 64, 4, 4)
	require.NoError(t, err)
	dst, err := src.Coarser(2, 2)
	require.NoError(t, err)

	f := &Frame{Index: 7, TimestampMs: 233, X: make([]int8, 16), Y: make([]int8, 16)}
	// Top-left 2x2 block all move right at 100; together they exceed int8.
	for _, c := range []int{0, 1, 4, 5} {
		f.X[c] = 100
	}
	f.Y[15] = -8

	s, err := f.Simplify(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 7, s.Index)
	assert.Equal(t, int64(233), s.TimestampMs)
	require.Len(t, s.Vectors, 4)
	assert.Equal(t, Vector[int32]{X: 400, Y: 0}, s.Vectors[0])
	assert.True(t, s.Vectors[1].IsZero())
	assert.Equal(t, Vector[int32]{X: 0, Y: -8}, s.Vectors[3])
	assert.InDelta(t, 408, s.Energy(), 1e-9)
}

func TestFrame_SimplifyPartialOverlap(t *testing.T) {
	t.Parallel()
	src, err := NewLayout(60, 20, 3, 1) // 20px cells
	require.NoError(t, err)
	dst, err := src.Coarser(2, 1) // 30px cells
	require.NoError(t, err)

	f := &Frame{X: []int8{0, 10, 0}, Y: []int8{0, 0, 0}}
	s, err := f.Simplify(src, dst)
	require.NoError(t, err)
	// The middle cell straddles both targets equally.
	assert.Equal(t, int32(5), s.Vectors[0].X)
	assert.Equal(t, int32(5), s.Vectors[1].X)
}

func TestFrame_SimplifyRejectsMismatch(t *testing.T) {
	t.Parallel()
	src, _ := NewLayout(64, 64, 4, 4)
	other, _ := NewLayout(32, 32, 2, 2)
	f := &Frame{X: make([]int8, 16), Y: make([]int8, 16)}
	_, err := f.Simplify(src, other)
	assert.Error(t, err)

	_, err = src.Coarser(8, 8)
	assert.Error(t, err)
}

func TestVector_SquaredLength(t *testing.T) {
	t.Parallel()
	v := Vector[int8]{X: -128, Y: -128}
	assert.Equal(t, int64(32768), v.SquaredLength())
}
