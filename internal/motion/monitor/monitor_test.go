package monitor

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mvscript/internal/fsutil"
	"github.com/banshee-data/mvscript/internal/motion/l2frames"
	"github.com/banshee-data/mvscript/internal/motion/l3rules"
	"github.com/banshee-data/mvscript/internal/motion/l5actions"
	"github.com/banshee-data/mvscript/internal/testutil"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func testRuleSet(t *testing.T) *l3rules.RuleSet {
	t.Helper()
	layout, err := l2frames.NewLayout(64, 32, 8, 4)
	require.NoError(t, err)
	rs, err := l3rules.NewRuleSet(layout, []l3rules.Rule{
		{Cell: 0, Direction: 0, Activity: 90, Quality: 80},
		{Cell: 9, Direction: 3, Activity: 40, Quality: 100},
		{Cell: 31, Direction: 5, Activity: 10, Quality: 55},
	}, 0, 0)
	require.NoError(t, err)
	return rs
}

func TestRuleGrid(t *testing.T) {
	t.Parallel()
	g := newRuleGrid(testRuleSet(t), func(r l3rules.Rule) float64 { return r.Quality })

	c, r := g.Dims()
	assert.Equal(t, 8, c)
	assert.Equal(t, 4, r)
	// Cell 0 is the top-left cell, which is the last plot row.
	assert.Equal(t, 80.0, g.Z(0, 3))
	assert.Equal(t, 100.0, g.Z(1, 2))
	assert.Equal(t, 55.0, g.Z(7, 0))
	assert.True(t, math.IsNaN(g.Z(4, 1)))
	assert.Equal(t, 7.0, g.X(7))
	assert.Equal(t, 2.0, g.Y(2))
}

func TestPlotRuleHeatmaps(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()

	paths, err := PlotRuleHeatmaps(fs, testRuleSet(t), "out/plots", "coarse")
	require.NoError(t, err)
	assert.Equal(t, []string{"out/plots/coarse_activity.png", "out/plots/coarse_quality.png"}, paths)
	for _, p := range paths {
		data, err := fs.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", p)
	}

	_, err = PlotRuleHeatmaps(fs, nil, "out", "none")
	assert.Error(t, err)
}

func TestPlotMotionEnergy(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	layout, err := l2frames.NewLayout(64, 32, 2, 2)
	require.NoError(t, err)

	var frames []*l2frames.SimplifiedFrame
	for i := 0; i < 30; i++ {
		frames = append(frames, &l2frames.SimplifiedFrame{
			Index:       i,
			TimestampMs: int64(i) * 33,
			Layout:      layout,
			Vectors:     []l2frames.Vector[int32]{{X: int32(i), Y: 0}, {}, {}, {X: 3, Y: 4}},
		})
	}

	path, err := PlotMotionEnergy(fs, frames, "out")
	require.NoError(t, err)
	assert.Equal(t, "out/motion_energy.png", path)
	data, err := fs.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))

	path, err = PlotMotionEnergy(fs, nil, "out")
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestWriteTimelineHTML(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	ref := testutil.StrokeTimeline(4, 0, 500)
	gen := []l5actions.Action{{At: 10, Pos: 0}, {At: 480, Pos: 92}, {At: 1020, Pos: 0}}

	require.NoError(t, WriteTimelineHTML(fs, ref, gen, "report/timeline.html", "test run"))

	data, err := fs.ReadFile("report/timeline.html")
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Action timeline")
	assert.Contains(t, html, "reference")
	assert.Contains(t, html, "generated")
	assert.Contains(t, html, "echarts")
	assert.True(t, fs.Exists("report"))
}
