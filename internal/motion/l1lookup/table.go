package l1lookup

import (
	"fmt"
	"math"
	"sync"
)

const (
	// Directions is the number of base directions spaced evenly around the circle.
	Directions = 12
	// StoredDirections is the number of canonical directions held in the table.
	// Direction d+StoredDirections is the exact sign inverse of direction d.
	StoredDirections = Directions / 2
	// Multiplier scales projections so they can be stored as integers.
	Multiplier = 100

	// directionOffset rotates index 0 to "up" (screen -Y).
	directionOffset = -3

	coordSpan = 256 // int8 domain
)

// Table maps (x, y, direction) to len(v) * cos(angle(v) - base(direction)) * Multiplier.
// It is immutable once built.
type Table struct {
	weights []int16
}

// Shared returns the process-wide table, building it on first use.
var Shared = sync.OnceValue(func() *Table {
	return build()
})

func build() *Table {
	t := &Table{weights: make([]int16, coordSpan*coordSpan*StoredDirections)}
	for x := math.MinInt8; x <= math.MaxInt8; x++ {
		for y := math.MinInt8; y <= math.MaxInt8; y++ {
			base := index(int8(x), int8(y))
			for d := 0; d < StoredDirections; d++ {
				t.weights[base+d] = int16(math.Round(Compute(float64(x), float64(y), d) * Multiplier))
			}
		}
	}
	return t
}

func index(x, y int8) int {
	return ((int(x)+128)*coordSpan + (int(y) + 128)) * StoredDirections
}

// Weight returns the scaled projection of (x, y) onto direction dir in [0, Directions).
func (t *Table) Weight(x, y int8, dir int) int16 {
	if dir >= StoredDirections {
		return -t.weights[index(x, y)+dir-StoredDirections]
	}
	return t.weights[index(x, y)+dir]
}

// Weights fills out with the projections of (x, y) onto the canonical directions.
func (t *Table) Weights(x, y int8, out *[StoredDirections]int16) {
	copy(out[:], t.weights[index(x, y):index(x, y)+StoredDirections])
}

// BaseAngle returns the angle in radians of direction dir, in screen
// coordinates (Y grows downwards). Direction 0 points up and directions
// advance clockwise.
func BaseAngle(dir int) float64 {
	return float64(dir+directionOffset) * 2 * math.Pi / Directions
}

// Compute is the unscaled projection for arbitrary (wide) coordinates.
func Compute(x, y float64, dir int) float64 {
	if x == 0 && y == 0 {
		return 0
	}
	length := math.Hypot(x, y)
	angle := math.Atan2(y, x)
	return length * math.Cos(angle-BaseAngle(dir))
}

// Opposite returns the direction pointing the other way.
func Opposite(dir int) int {
	return (dir + StoredDirections) % Directions
}

// Name returns a short clock-face label for dir, e.g. "12h" for up.
func Name(dir int) string {
	if dir < 0 || dir >= Directions {
		return fmt.Sprintf("dir(%d)", dir)
	}
	hour := dir
	if hour == 0 {
		hour = 12
	}
	return fmt.Sprintf("%dh", hour)
}
