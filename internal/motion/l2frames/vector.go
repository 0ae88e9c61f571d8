package l2frames

// Coord is the set of integer types a cell vector component may use.
// Raw frames use int8; resampled frames accumulate into wider types.
type Coord interface {
	~int8 | ~int16 | ~int32
}

// Vector is a two-component motion vector.
type Vector[T Coord] struct {
	X T
	Y T
}

// IsZero reports whether the vector has no motion.
func (v Vector[T]) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// SquaredLength returns X²+Y² widened to int64.
func (v Vector[T]) SquaredLength() int64 {
	x, y := int64(v.X), int64(v.Y)
	return x*x + y*y
}
