package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_Exists(t *testing.T) {
	fs := OSFileSystem{}

	if !fs.Exists("filesystem.go") {
		t.Error("expected filesystem.go to exist")
	}

	if fs.Exists("nonexistent_file_xyz.go") {
		t.Error("expected nonexistent file to not exist")
	}
}

func TestOSFileSystem_WriteFileReplaces(t *testing.T) {
	osfs := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "actions.json")

	if err := osfs.WriteFile(path, []byte("first"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := osfs.WriteFile(path, []byte("second"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := osfs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected %q, got %q", "second", data)
	}

	info, err := osfs.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no temporary files left behind, got %d entries", len(entries))
	}
}

func TestOSFileSystem_OpenSeek(t *testing.T) {
	osfs := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "clip.mvs")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := osfs.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if _, err := f.Seek(6, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(f, buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf) != "6789" {
		t.Errorf("expected %q, got %q", "6789", buf)
	}

	if _, err := osfs.Open(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	testData := []byte("hello, world")
	if err := mfs.WriteFile("/test.txt", testData, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/test.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if string(data) != string(testData) {
		t.Errorf("expected %q, got %q", testData, data)
	}
}

func TestMemoryFileSystem_CreateAndWrite(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/created.txt")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("part one, ")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := w.Write([]byte("part two")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := mfs.ReadFile("/created.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "part one, part two" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestMemoryFileSystem_OpenSeek(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.WriteFile("/clip.mvs", []byte("FTMV-header-body"), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := mfs.Open("/clip.mvs")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if _, err := f.Seek(-4, io.SeekEnd); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	rest, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(rest) != "body" {
		t.Errorf("expected %q, got %q", "body", rest)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Name() != "clip.mvs" || info.Size() != 16 {
		t.Errorf("unexpected info %s/%d", info.Name(), info.Size())
	}
}

func TestMemoryFileSystem_OpenNonExistent(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if _, err := mfs.Open("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.ReadFile("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
	if _, err := mfs.Stat("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestMemoryFileSystem_MkdirAllAndStat(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.MkdirAll("/out/reports/run1", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	for _, dir := range []string{"/out", "/out/reports", "/out/reports/run1"} {
		if !mfs.Exists(dir) {
			t.Errorf("expected %s to exist", dir)
		}
	}

	info, err := mfs.Stat("/out/reports")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory")
	}
}

func TestMemoryFileSystem_PathCleaning(t *testing.T) {
	mfs := NewMemoryFileSystem()
	if err := mfs.WriteFile("/a/../b/./c.json", []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if !mfs.Exists("/b/c.json") {
		t.Error("expected cleaned path to exist")
	}
}

func TestMemoryFileSystem_DataIsolation(t *testing.T) {
	mfs := NewMemoryFileSystem()
	original := []byte("abc")
	if err := mfs.WriteFile("/x", original, 0644); err != nil {
		t.Fatal(err)
	}
	original[0] = 'z'

	data, _ := mfs.ReadFile("/x")
	if string(data) != "abc" {
		t.Errorf("stored data changed with caller slice: %q", data)
	}
	data[1] = 'z'
	again, _ := mfs.ReadFile("/x")
	if string(again) != "abc" {
		t.Errorf("stored data changed with returned slice: %q", again)
	}
}
