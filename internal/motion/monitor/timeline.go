package monitor

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/mvscript/internal/fsutil"
	"github.com/banshee-data/mvscript/internal/motion/l5actions"
)

// echartsAssetsHost serves the echarts script for rendered pages.
const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// WriteTimelineHTML renders reference and generated positions over time as
// an interactive line chart and writes it to path.
func WriteTimelineHTML(fs fsutil.FileSystem, reference, generated []l5actions.Action, path, subtitle string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Action timeline", Width: "100%", Height: "600px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Action timeline", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Time (ms)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Min: 0, Max: 100, Name: "Position"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.AddSeries("reference", lineData(reference))
	line.AddSeries("generated", lineData(generated))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	return fs.WriteFile(path, buf.Bytes(), 0644)
}

func lineData(actions []l5actions.Action) []opts.LineData {
	data := make([]opts.LineData, 0, len(actions))
	for _, a := range actions {
		data = append(data, opts.LineData{Value: []interface{}{a.At, a.Pos}})
	}
	return data
}
