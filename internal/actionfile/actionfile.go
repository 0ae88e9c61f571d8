// Package actionfile reads and writes JSON action timelines.
package actionfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/banshee-data/mvscript/internal/fsutil"
	"github.com/banshee-data/mvscript/internal/motion/l5actions"
)

// Version is written into new files.
const Version = "1.0"

// File is the on-disk action container.
type File struct {
	Version  string             `json:"version"`
	Inverted bool               `json:"inverted"`
	Range    int                `json:"range"`
	Actions  []l5actions.Action `json:"actions"`
}

// New wraps actions in a File with default metadata.
func New(actions []l5actions.Action) *File {
	return &File{Version: Version, Range: 100, Actions: actions}
}

// Read parses path and normalises its actions: ordered by time, one
// action per timestamp (the last one wins) and positions clamped to [0, 100].
func Read(fsys fsutil.FileSystem, path string) (*File, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read action file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse action file %s: %w", path, err)
	}
	f.Actions = Normalize(f.Actions)
	return &f, nil
}

// Normalize returns a sorted, de-duplicated and clamped copy of actions.
func Normalize(actions []l5actions.Action) []l5actions.Action {
	sorted := make([]l5actions.Action, len(actions))
	copy(sorted, actions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })

	out := sorted[:0]
	for _, a := range sorted {
		a.Pos = l5actions.Clamp(a.Pos, l5actions.PosMin, l5actions.PosMax)
		if n := len(out); n > 0 && out[n-1].At == a.At {
			out[n-1] = a
			continue
		}
		out = append(out, a)
	}
	return out
}

// Write stores f at path, creating parent directories.
func Write(fsys fsutil.FileSystem, path string, f *File) error {
	if f.Version == "" {
		f.Version = Version
	}
	if f.Range == 0 {
		f.Range = 100
	}
	if f.Actions == nil {
		f.Actions = []l5actions.Action{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := fsys.WriteFile(path, data, os.FileMode(0o644)); err != nil {
		return fmt.Errorf("write action file: %w", err)
	}
	return nil
}
