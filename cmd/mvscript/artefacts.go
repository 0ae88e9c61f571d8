package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/mvscript/internal/motion/evaluation"
	"github.com/banshee-data/mvscript/internal/motion/l3rules"
	"github.com/banshee-data/mvscript/internal/motion/l5actions"
	"github.com/banshee-data/mvscript/internal/motion/monitor"
	"github.com/banshee-data/mvscript/internal/motion/pipeline"
)

// writeArtefacts renders the report files for a pipeline output into dir
// concurrently. When reference and generated actions are both present it
// also scores the run and returns the evaluation.
func writeArtefacts(ctx context.Context, dir string, out *pipeline.Output, reference []l5actions.Action) (*evaluation.Report, error) {
	if err := osFS.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report dir: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	var written []string
	record := func(paths ...string) {
		mu.Lock()
		defer mu.Unlock()
		for _, p := range paths {
			if p != "" {
				written = append(written, p)
			}
		}
	}

	for name, rs := range map[string]*l3rules.RuleSet{
		"coarse":  out.Coarse,
		"peaks":   out.Peaks,
		"valleys": out.Valleys,
	} {
		if rs == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			paths, err := monitor.PlotRuleHeatmaps(osFS, rs, dir, name)
			record(paths...)
			return err
		})
	}

	if out.Training != nil && len(out.Training.Simplified) > 0 {
		g.Go(func() error {
			path, err := monitor.PlotMotionEnergy(osFS, out.Training.Simplified, dir)
			record(path)
			return err
		})
	}

	var report *evaluation.Report
	if len(reference) > 1 && len(out.Actions) > 1 {
		g.Go(func() error {
			r, err := evaluation.Compare(reference, out.Actions, evaluation.DefaultOptions())
			if errors.Is(err, evaluation.ErrNoOverlap) {
				log.Printf("skipping evaluation: %v", err)
				return writeTimeline(dir, reference, out.Actions, nil)
			}
			if err != nil {
				return err
			}
			report = r
			data, err := json.MarshalIndent(r, "", "  ")
			if err != nil {
				return err
			}
			path := filepath.Join(dir, "evaluation.json")
			if err := osFS.WriteFile(path, data, 0644); err != nil {
				return err
			}
			record(path, filepath.Join(dir, "timeline.html"))
			return writeTimeline(dir, reference, out.Actions, r)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Printf("Wrote %d report files to %s", len(written), dir)
	return report, nil
}

func writeTimeline(dir string, reference, generated []l5actions.Action, r *evaluation.Report) error {
	subtitle := fmt.Sprintf("%d reference / %d generated actions", len(reference), len(generated))
	if r != nil {
		subtitle += fmt.Sprintf(", r=%.3f, MAE=%.1f", r.Correlation, r.MeanAbsError)
	}
	return monitor.WriteTimelineHTML(osFS, reference, generated, filepath.Join(dir, "timeline.html"), subtitle)
}
