// Command gen-mvs generates a synthetic .mvs recording together with the
// action timeline its motion follows, for exercising mvscript end to end.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/mvscript/internal/actionfile"
	"github.com/banshee-data/mvscript/internal/fsutil"
	"github.com/banshee-data/mvscript/internal/motion/l2frames"
	"github.com/banshee-data/mvscript/internal/motion/synthetic"
	"github.com/banshee-data/mvscript/internal/version"
)

func main() {
	output := flag.String("o", "sample.mvs", "output .mvs path")
	reference := flag.String("ref", "", "output path for the reference timeline (default: <output>.json)")
	width := flag.Int("width", 320, "video width in pixels")
	height := flag.Int("height", 180, "video height in pixels")
	columns := flag.Int("cols", 16, "grid columns")
	rows := flag.Int("rows", 9, "grid rows")
	fps := flag.Float64("fps", 30, "frames per second")
	strokes := flag.Int("strokes", 20, "number of strokes")
	period := flag.Int64("period", 500, "stroke duration in ms")
	speed := flag.Int("speed", 10, "motion vector magnitude of moving cells")
	moving := flag.String("moving", "", "comma-separated moving cells (default: centre quarter of the grid)")
	seed := flag.Uint64("seed", 1, "noise seed")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("gen-mvs"))
		return
	}
	if *speed < 1 || *speed > 127 {
		log.Fatalf("speed must be in [1,127], got %d", *speed)
	}

	refPath := *reference
	if refPath == "" {
		refPath = strings.TrimSuffix(*output, ".mvs") + ".json"
	}

	timeline := synthetic.StrokeTimeline(*strokes, 0, *period)
	frameCount := int(float64(int64(*strokes)**period) * *fps / 1000)
	h := synthetic.Header(*width, *height, *columns, *rows, *fps, frameCount)
	layout, err := h.Layout()
	if err != nil {
		log.Fatalf("invalid layout: %v", err)
	}

	cells, err := parseCells(*moving, layout)
	if err != nil {
		log.Fatalf("invalid -moving: %v", err)
	}

	fsys := fsutil.OSFileSystem{}
	w, err := l2frames.CreateFile(fsys, *output, h)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	frames := synthetic.FollowingFrames(h, timeline, cells, int8(*speed), *seed)
	for i, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			w.Close()
			os.Remove(*output)
			log.Fatalf("write frame %d: %v", i, err)
		}
		if (i+1)%500 == 0 {
			log.Printf("%d/%d frames", i+1, len(frames))
		}
	}
	if err := w.Close(); err != nil {
		log.Fatalf("close %s: %v", *output, err)
	}

	if err := actionfile.Write(fsys, refPath, actionfile.New(timeline)); err != nil {
		log.Fatalf("write reference: %v", err)
	}
	log.Printf("Created %s (%d frames, %s) and %s (%d actions)", *output, len(frames), layout, refPath, len(timeline))
}

// parseCells parses a comma-separated cell list. An empty list selects the
// cells of the centre quarter of the grid.
func parseCells(s string, layout l2frames.Layout) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		var cells []int
		for r := layout.Rows / 4; r < layout.Rows-layout.Rows/4; r++ {
			for c := layout.Columns / 4; c < layout.Columns-layout.Columns/4; c++ {
				cells = append(cells, r*layout.Columns+c)
			}
		}
		return cells, nil
	}
	var cells []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if n < 0 || n >= layout.Cells() {
			return nil, fmt.Errorf("cell %d outside grid of %d cells", n, layout.Cells())
		}
		cells = append(cells, n)
	}
	return cells, nil
}
