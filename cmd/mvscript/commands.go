package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/mvscript/internal/actionfile"
	"github.com/banshee-data/mvscript/internal/config"
	"github.com/banshee-data/mvscript/internal/fsutil"
	"github.com/banshee-data/mvscript/internal/monitoring"
	"github.com/banshee-data/mvscript/internal/motion/evaluation"
	"github.com/banshee-data/mvscript/internal/motion/l2frames"
	"github.com/banshee-data/mvscript/internal/motion/l3rules"
	"github.com/banshee-data/mvscript/internal/motion/l5actions"
	"github.com/banshee-data/mvscript/internal/motion/pipeline"
	"github.com/banshee-data/mvscript/internal/motion/storage/sqlite"
)

var osFS fsutil.FileSystem = fsutil.OSFileSystem{}

// commonFlags are accepted by every command that runs the pipeline.
type commonFlags struct {
	configPath *string
	verbose    *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configPath: fs.String("config", "", "tuning config file (.json, .yaml or .yml)"),
		verbose:    fs.Bool("v", false, "verbose diagnostics"),
	}
}

// load reads the tuning config and configures logging.
func (c *commonFlags) load() (*config.TuningConfig, error) {
	monitoring.SetDebug(*c.verbose)
	var diag io.Writer
	if *c.verbose {
		diag = os.Stderr
	}
	pipeline.SetLogWriters(os.Stderr, diag)

	if *c.configPath == "" {
		return config.EmptyTuningConfig(), nil
	}
	return config.LoadTuningConfig(*c.configPath)
}

func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func openStore(path string, tuning *config.TuningConfig) (*l2frames.FrameStore, error) {
	return l2frames.OpenFrameStore(osFS, path, l2frames.StoreOptions{
		MaximumMemoryUsageMB:   tuning.GetMaximumMemoryUsageMB(),
		ClampToAvailableMemory: tuning.GetClampToAvailableMemory(),
	})
}

func readReference(path string) ([]l5actions.Action, error) {
	f, err := actionfile.Read(osFS, path)
	if err != nil {
		return nil, err
	}
	if f.Inverted {
		for i := range f.Actions {
			f.Actions[i].Pos = l5actions.PosMax - f.Actions[i].Pos
		}
	}
	return f.Actions, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runTrain(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	common := addCommonFlags(fs)
	mvsPath := fs.String("mvs", "", "motion-vector file (required)")
	refPath := fs.String("ref", "", "reference timeline (required)")
	dbPath := fs.String("db", "", "run database (required)")
	reportDir := fs.String("report", "", "directory for rule heatmaps and the motion energy plot")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mvsPath == "" || *refPath == "" || *dbPath == "" {
		return errors.New("-mvs, -ref and -db are required")
	}

	tuning, err := common.load()
	if err != nil {
		return err
	}
	reference, err := readReference(*refPath)
	if err != nil {
		return err
	}
	store, err := openStore(*mvsPath, tuning)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signalContext()
	defer stop()

	out, err := pipeline.Train(ctx, store, reference, pipeline.FromTuning(tuning))
	if err != nil {
		return err
	}
	if *reportDir != "" {
		if _, err := writeArtefacts(ctx, *reportDir, out, nil); err != nil {
			return err
		}
	}

	runID, err := saveRun(*dbPath, *mvsPath, *refPath, tuning, out, nil)
	if err != nil {
		return err
	}
	log.Printf("Trained %s on %d/%d frames: coarse=%d peaks=%d valleys=%d rules, run %s",
		*mvsPath, out.Training.FramesUsed, out.Training.FramesSeen,
		out.Coarse.Len(), out.Peaks.Len(), out.Valleys.Len(), runID)
	return nil
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	common := addCommonFlags(fs)
	mvsPath := fs.String("mvs", "", "motion-vector file (required)")
	outPath := fs.String("out", "", "output timeline (required)")
	refPath := fs.String("ref", "", "reference timeline; rules are trained on it first")
	dbPath := fs.String("db", "", "run database")
	runID := fs.String("run", "", "stored run whose rules to use")
	from := fs.String("from", "", "use the latest stored run trained on this .mvs file")
	reportDir := fs.String("report", "", "directory for plots, timeline and evaluation")
	smooth := fs.Bool("smooth", false, "smooth the generated timeline (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mvsPath == "" || *outPath == "" {
		return errors.New("-mvs and -out are required")
	}
	if *refPath == "" && (*dbPath == "" || (*runID == "" && *from == "")) {
		return errors.New("either -ref, or -db with -run or -from, is required")
	}

	tuning, err := common.load()
	if err != nil {
		return err
	}
	if flagWasSet(fs, "smooth") {
		tuning.SmoothingEnabled = smooth
	}
	cfg := pipeline.FromTuning(tuning)

	store, err := openStore(*mvsPath, tuning)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signalContext()
	defer stop()

	var reference []l5actions.Action
	var out *pipeline.Output
	if *refPath != "" {
		if reference, err = readReference(*refPath); err != nil {
			return err
		}
		if out, err = pipeline.Run(ctx, store, reference, cfg); err != nil {
			return err
		}
	} else {
		id, rules, err := loadRules(*dbPath, *runID, *from)
		if err != nil {
			return err
		}
		log.Printf("Using rules from run %s", id)
		if out, err = pipeline.Generate(ctx, store, rules[0], rules[1], rules[2], cfg); err != nil {
			return err
		}
	}

	if err := actionfile.Write(osFS, *outPath, actionfile.New(out.Actions)); err != nil {
		return err
	}

	var report *evaluation.Report
	if *reportDir != "" {
		if report, err = writeArtefacts(ctx, *reportDir, out, reference); err != nil {
			return err
		}
	}
	if *refPath != "" && *dbPath != "" {
		id, err := saveRun(*dbPath, *mvsPath, *refPath, tuning, out, report)
		if err != nil {
			return err
		}
		log.Printf("Stored run %s", id)
	}

	log.Printf("Wrote %d actions to %s (synthesis %v, smoothing %d passes)",
		len(out.Actions), *outPath, out.Timings.Synthesize.Round(time.Millisecond), out.SmoothingPasses)
	if report != nil {
		log.Printf("Correlation %.3f, mean abs error %.1f, %d/%d turns matched",
			report.Correlation, report.MeanAbsError, report.MatchedExtrema, report.ReferenceExtrema)
	}
	return nil
}

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	refPath := fs.String("ref", "", "reference timeline (required)")
	genPath := fs.String("gen", "", "generated timeline (required)")
	outDir := fs.String("out", "", "directory for timeline.html and evaluation.json")
	grid := fs.Int64("grid", evaluation.DefaultOptions().GridMs, "resampling step in ms")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *refPath == "" || *genPath == "" {
		return errors.New("-ref and -gen are required")
	}

	reference, err := readReference(*refPath)
	if err != nil {
		return err
	}
	generated, err := readReference(*genPath)
	if err != nil {
		return err
	}
	opts := evaluation.DefaultOptions()
	opts.GridMs = *grid
	report, err := evaluation.Compare(reference, generated, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	if *outDir != "" {
		if err := osFS.MkdirAll(*outDir, 0755); err != nil {
			return err
		}
		if err := osFS.WriteFile(filepath.Join(*outDir, "evaluation.json"), data, 0644); err != nil {
			return err
		}
		return writeTimeline(*outDir, reference, generated, report)
	}
	return nil
}

func runList(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", "", "run database (required)")
	limit := fs.Int("n", 20, "maximum runs to list (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return errors.New("-db is required")
	}

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := sqlite.NewRunStore(db.DB).ListRuns(*limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSOURCE\tGRID\tFRAMES\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%d/%d\t%s\n", r.RunID, r.SourcePath,
			r.Layout.Columns, r.Layout.Rows, r.FramesUsed, r.FramesSeen,
			time.Unix(0, r.CreatedAt).Format(time.RFC3339))
	}
	return tw.Flush()
}

// saveRun stores the trained rulesets, and the evaluation when present,
// under a new run ID.
func saveRun(dbPath, mvsPath, refPath string, tuning *config.TuningConfig, out *pipeline.Output, report *evaluation.Report) (string, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer db.Close()
	runs := sqlite.NewRunStore(db.DB)

	cfgJSON, err := json.Marshal(tuning)
	if err != nil {
		return "", err
	}
	run := &sqlite.TrainingRun{
		SourcePath:    absPath(mvsPath),
		ReferencePath: absPath(refPath),
		Layout:        out.Coarse.Layout(),
		ConfigJSON:    cfgJSON,
	}
	if out.Training != nil {
		run.FramesSeen = out.Training.FramesSeen
		run.FramesUsed = out.Training.FramesUsed
	}
	if report != nil {
		if run.EvaluationJSON, err = json.Marshal(report); err != nil {
			return "", err
		}
	}
	if err := runs.InsertRun(run); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	for kind, rs := range map[string]*l3rules.RuleSet{
		sqlite.KindCoarse:  out.Coarse,
		sqlite.KindPeaks:   out.Peaks,
		sqlite.KindValleys: out.Valleys,
	} {
		if err := runs.InsertRuleSet(run.RunID, kind, rs); err != nil {
			return "", fmt.Errorf("insert %s ruleset: %w", kind, err)
		}
	}
	return run.RunID, nil
}

// loadRules returns the coarse, peaks and valleys rulesets of runID, or of
// the latest run trained on from when runID is empty.
func loadRules(dbPath, runID, from string) (string, [3]*l3rules.RuleSet, error) {
	var rules [3]*l3rules.RuleSet
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return "", rules, err
	}
	defer db.Close()
	runs := sqlite.NewRunStore(db.DB)

	if runID == "" {
		run, err := runs.LatestRun(absPath(from))
		if err != nil {
			return "", rules, err
		}
		runID = run.RunID
	}
	for i, kind := range []string{sqlite.KindCoarse, sqlite.KindPeaks, sqlite.KindValleys} {
		if rules[i], err = runs.GetRuleSet(runID, kind); err != nil {
			return "", rules, err
		}
	}
	return runID, rules, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
