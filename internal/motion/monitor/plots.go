package monitor

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/mvscript/internal/fsutil"
	"github.com/banshee-data/mvscript/internal/motion/l2frames"
	"github.com/banshee-data/mvscript/internal/motion/l3rules"
)

const paletteSize = 64

// ruleGrid exposes one rule statistic over the layout as a plotter.GridXYZ.
// Plot rows count upward from the bottom of the frame; cells without a
// rule are NaN and left blank.
type ruleGrid struct {
	layout l2frames.Layout
	values []float64
}

func newRuleGrid(rs *l3rules.RuleSet, value func(l3rules.Rule) float64) *ruleGrid {
	layout := rs.Layout()
	g := &ruleGrid{layout: layout, values: make([]float64, layout.Cells())}
	for i := range g.values {
		g.values[i] = math.NaN()
	}
	for _, r := range rs.Rules() {
		g.values[r.Cell] = value(r)
	}
	return g
}

func (g *ruleGrid) Dims() (c, r int) { return g.layout.Columns, g.layout.Rows }

func (g *ruleGrid) Z(c, r int) float64 {
	row := g.layout.Rows - 1 - r
	return g.values[row*g.layout.Columns+c]
}

func (g *ruleGrid) X(c int) float64 { return float64(c) }
func (g *ruleGrid) Y(r int) float64 { return float64(r) }

// PlotRuleHeatmaps writes activity and quality heatmaps of rs into dir as
// <name>_activity.png and <name>_quality.png and returns the paths written.
func PlotRuleHeatmaps(fs fsutil.FileSystem, rs *l3rules.RuleSet, dir, name string) ([]string, error) {
	if rs == nil {
		return nil, fmt.Errorf("no ruleset to plot")
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	stats := []struct {
		suffix string
		title  string
		value  func(l3rules.Rule) float64
	}{
		{"activity", "Activity (%)", func(r l3rules.Rule) float64 { return r.Activity }},
		{"quality", "Quality (%)", func(r l3rules.Rule) float64 { return r.Quality }},
	}

	var paths []string
	for _, s := range stats {
		cmap := moreland.SmoothBlueRed()
		cmap.SetMin(0)
		cmap.SetMax(100)

		hm := plotter.NewHeatMap(newRuleGrid(rs, s.value), cmap.Palette(paletteSize))
		hm.Min, hm.Max = 0, 100
		hm.NaN = color.Transparent

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s - %s, %d rules on %s", name, s.title, rs.Len(), rs.Layout())
		p.X.Label.Text = "Column"
		p.Y.Label.Text = "Row (from bottom)"
		p.Add(hm)

		path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", name, s.suffix))
		if err := savePNG(fs, p, 8*vg.Inch, 5*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("save %s heatmap: %w", s.suffix, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// PlotMotionEnergy writes a line plot of the per-frame motion energy of the
// simplified frames to dir/motion_energy.png. It returns "" when there are
// no frames to plot.
func PlotMotionEnergy(fs fsutil.FileSystem, frames []*l2frames.SimplifiedFrame, dir string) (string, error) {
	if len(frames) == 0 {
		return "", nil
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	pts := make(plotter.XYs, 0, len(frames))
	for _, f := range frames {
		pts = append(pts, plotter.XY{X: float64(f.TimestampMs) / 1000, Y: f.Energy()})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", err
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Motion energy (%s)", frames[0].Layout)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Energy"
	p.Add(plotter.NewGrid(), line)

	path := filepath.Join(dir, "motion_energy.png")
	if err := savePNG(fs, p, 14*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save energy plot: %w", err)
	}
	return path, nil
}

func savePNG(fs fsutil.FileSystem, p *plot.Plot, w, h vg.Length, path string) error {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return err
	}
	return fs.WriteFile(path, buf.Bytes(), 0644)
}
