// Package testutil provides shared test utilities and fixtures.
//
// This package centralises the synthetic motion-vector streams and action
// timelines used across the motion packages, so tests agree on one shape
// of "video that follows a script".
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/mvscript/internal/motion/l2frames"
	"github.com/banshee-data/mvscript/internal/motion/synthetic"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Header returns a header for a width x height video split into
// columns x rows cells at fps frames per second.
func Header(width, height, columns, rows int, fps float64, frames int) l2frames.Header {
	return synthetic.Header(width, height, columns, rows, fps, frames)
}

// StrokeTimeline alternates between 0 and 100 every periodMs, starting at
// 0 at startMs, for the given number of strokes.
func StrokeTimeline(strokes int, startMs, periodMs int64) []l2frames.Action {
	return synthetic.StrokeTimeline(strokes, startMs, periodMs)
}

// FollowingFrames builds the frames of h with the moving cells tracking
// reference. See synthetic.FollowingFrames.
func FollowingFrames(h l2frames.Header, reference []l2frames.Action, moving []int, speed int8, seed uint64) []*l2frames.Frame {
	return synthetic.FollowingFrames(h, reference, moving, speed, seed)
}

// EncodeMVS serialises frames into an in-memory .mvs file.
func EncodeMVS(t testing.TB, h l2frames.Header, frames []*l2frames.Frame) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := l2frames.NewWriter(&buf, h)
	AssertNoError(t, err)
	for _, f := range frames {
		AssertNoError(t, w.WriteFrame(f))
	}
	AssertNoError(t, w.Close())
	return buf.Bytes()
}

// OpenMemoryStore serves frames from memory through a FrameStore.
func OpenMemoryStore(t testing.TB, h l2frames.Header, frames []*l2frames.Frame, opts l2frames.StoreOptions) *l2frames.FrameStore {
	t.Helper()
	s, err := l2frames.NewFrameStore(bytes.NewReader(EncodeMVS(t, h, frames)), "memory.mvs", opts)
	AssertNoError(t, err)
	return s
}

// WriteMVSFile writes frames to name inside dir and returns the path.
func WriteMVSFile(t testing.TB, dir, name string, h l2frames.Header, frames []*l2frames.Frame) string {
	t.Helper()
	path := filepath.Join(dir, name)
	AssertNoError(t, os.WriteFile(path, EncodeMVS(t, h, frames), 0o644))
	return path
}
