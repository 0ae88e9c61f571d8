package l1lookup

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeight_OppositeDirectionsAreSignInverses(t *testing.T) {
	t.Parallel()
	table := Shared()

	for x := math.MinInt8; x <= math.MaxInt8; x++ {
		for y := math.MinInt8; y <= math.MaxInt8; y++ {
			for d := 0; d < StoredDirections; d++ {
				w := table.Weight(int8(x), int8(y), d)
				inv := table.Weight(int8(x), int8(y), d+StoredDirections)
				if w != -inv {
					t.Fatalf("Weight(%d,%d,%d)=%d but opposite=%d", x, y, d, w, inv)
				}
			}
		}
	}
}

func TestWeight_ZeroVector(t *testing.T) {
	t.Parallel()
	table := Shared()
	for d := 0; d < Directions; d++ {
		assert.Equal(t, int16(0), table.Weight(0, 0, d), "direction %d", d)
	}
}

func TestWeight_CardinalDirections(t *testing.T) {
	t.Parallel()
	table := Shared()

	tests := []struct {
		name string
		x, y int8
		dir  int
		want int16
	}{
		{"up along up", 0, -10, 0, 1000},
		{"up along down", 0, -10, 6, -1000},
		{"right along 3h", 10, 0, 3, 1000},
		{"down along 6h", 0, 10, 6, 1000},
		{"left along 9h", -10, 0, 9, 1000},
		{"right is orthogonal to up", 10, 0, 0, 0},
		{"up at 30 degrees", 0, -10, 1, 866},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Weight(tt.x, tt.y, tt.dir))
		})
	}
}

func TestWeight_ExtremeRangeFitsInt16(t *testing.T) {
	t.Parallel()
	table := Shared()
	// |(-128,-128)| ~ 181, times Multiplier stays well within int16.
	w := table.Weight(-128, -128, 0)
	assert.Greater(t, w, int16(0))
	assert.InDelta(t, Compute(-128, -128, 0)*Multiplier, float64(w), 0.5)
}

func TestWeights_MatchesWeight(t *testing.T) {
	t.Parallel()
	table := Shared()
	var out [StoredDirections]int16
	table.Weights(7, -3, &out)
	for d := 0; d < StoredDirections; d++ {
		assert.Equal(t, table.Weight(7, -3, d), out[d])
	}
}

func TestShared_ConcurrentFirstUse(t *testing.T) {
	t.Parallel()
	var wg sync.WaitGroup
	tables := make([]*Table, 8)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i] = Shared()
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(tables); i++ {
		require.Same(t, tables[0], tables[i])
	}
}

func TestOppositeAndName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 6, Opposite(0))
	assert.Equal(t, 3, Opposite(9))
	assert.Equal(t, "12h", Name(0))
	assert.Equal(t, "3h", Name(3))
	assert.Equal(t, "dir(12)", Name(12))
}
