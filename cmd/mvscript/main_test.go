package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/mvscript/internal/actionfile"
	"github.com/banshee-data/mvscript/internal/testutil"
)

// writeClip writes a 5 s clip that follows ten 500 ms strokes and its
// reference timeline into dir.
func writeClip(t *testing.T, dir string) (mvsPath, refPath string) {
	t.Helper()
	h := testutil.Header(64, 32, 8, 4, 30, 150)
	ref := testutil.StrokeTimeline(10, 0, 500)
	frames := testutil.FollowingFrames(h, ref, []int{9, 10, 11, 12, 17, 18, 19, 20}, 10, 42)
	mvsPath = testutil.WriteMVSFile(t, dir, "clip.mvs", h, frames)
	refPath = filepath.Join(dir, "clip.json")
	require.NoError(t, actionfile.Write(osFS, refPath, actionfile.New(ref)))
	return mvsPath, refPath
}

func TestGenerate_TrainStoreAndReuse(t *testing.T) {
	dir := t.TempDir()
	mvsPath, refPath := writeClip(t, dir)
	dbPath := filepath.Join(dir, "runs.db")
	outPath := filepath.Join(dir, "out", "generated.json")
	reportDir := filepath.Join(dir, "report")

	require.NoError(t, runGenerate([]string{
		"-mvs", mvsPath, "-ref", refPath, "-out", outPath, "-db", dbPath, "-report", reportDir,
	}))

	generated, err := actionfile.Read(osFS, outPath)
	require.NoError(t, err)
	assert.Len(t, generated.Actions, 11)

	for _, name := range []string{
		"coarse_activity.png", "coarse_quality.png", "peaks_quality.png", "valleys_activity.png",
		"motion_energy.png", "timeline.html", "evaluation.json",
	} {
		assert.True(t, osFS.Exists(filepath.Join(reportDir, name)), "missing %s", name)
	}

	var listing bytes.Buffer
	require.NoError(t, runList([]string{"-db", dbPath}, &listing))
	assert.Contains(t, listing.String(), "RUN ID")
	assert.Contains(t, listing.String(), absPath(mvsPath))

	reusedPath := filepath.Join(dir, "reused.json")
	require.NoError(t, runGenerate([]string{
		"-mvs", mvsPath, "-db", dbPath, "-from", mvsPath, "-out", reusedPath,
	}))
	reused, err := actionfile.Read(osFS, reusedPath)
	require.NoError(t, err)
	if diff := cmp.Diff(generated.Actions, reused.Actions); diff != "" {
		t.Errorf("stored rules generate a different timeline (-fresh +stored):\n%s", diff)
	}
}

func TestTrainThenReport(t *testing.T) {
	dir := t.TempDir()
	mvsPath, refPath := writeClip(t, dir)
	dbPath := filepath.Join(dir, "runs.db")

	require.NoError(t, runTrain([]string{"-mvs", mvsPath, "-ref", refPath, "-db", dbPath}))

	runID, rules, err := loadRules(dbPath, "", mvsPath)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	for _, rs := range rules {
		require.NotNil(t, rs)
	}

	outPath := filepath.Join(dir, "generated.json")
	require.NoError(t, runGenerate([]string{"-mvs", mvsPath, "-db", dbPath, "-run", runID, "-out", outPath, "-smooth"}))

	reportDir := filepath.Join(dir, "report")
	require.NoError(t, runReport([]string{"-ref", refPath, "-gen", outPath, "-out", reportDir}))
	assert.True(t, osFS.Exists(filepath.Join(reportDir, "evaluation.json")))
	assert.True(t, osFS.Exists(filepath.Join(reportDir, "timeline.html")))
}

func TestCommands_RequiredFlags(t *testing.T) {
	assert.Error(t, runTrain([]string{"-mvs", "a.mvs"}))
	assert.Error(t, runGenerate([]string{"-mvs", "a.mvs", "-out", "b.json"}))
	assert.Error(t, runGenerate([]string{"-mvs", "a.mvs", "-out", "b.json", "-db", "runs.db"}))
	assert.Error(t, runReport([]string{"-ref", "a.json"}))
	assert.Error(t, runList(nil, &bytes.Buffer{}))
}

func TestReadReference_Inverted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inv.json")
	f := actionfile.New(testutil.StrokeTimeline(2, 0, 100))
	f.Inverted = true
	require.NoError(t, actionfile.Write(osFS, path, f))

	got, err := readReference(path)
	require.NoError(t, err)
	assert.Equal(t, []int{100, 0, 100}, []int{got[0].Pos, got[1].Pos, got[2].Pos})
}
