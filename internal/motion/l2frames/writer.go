package l2frames

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/mvscript/internal/fsutil"
)

// Writer produces .mvs files. Frames must be written in index order
// starting at zero. When the destination is seekable, Close rewrites the
// header with the final frame count and duration.
type Writer struct {
	w      io.Writer
	closer io.Closer
	header Header
	layout Layout
	buf    []byte
	count  int
	lastTs int64
}

// CreateFile creates path on fsys and writes the header. The header is
// finalised on Close when the created file is seekable.
func CreateFile(fsys fsutil.FileSystem, path string, h Header) (*Writer, error) {
	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create motion vector file: %w", err)
	}
	w, err := NewWriter(f, h)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewWriter writes the header to w.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	layout, err := h.Layout()
	if err != nil {
		return nil, err
	}
	if h.Version == 0 {
		h.Version = FormatVersion
	}
	if _, err := w.Write(encodeHeader(h)); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{w: w, header: h, layout: layout, buf: make([]byte, h.RecordSize())}, nil
}

// Layout returns the grid geometry being written.
func (w *Writer) Layout() Layout { return w.layout }

// WriteFrame appends one record.
func (w *Writer) WriteFrame(f *Frame) error {
	if f.Index != w.count {
		return fmt.Errorf("frame index %d written out of order, expected %d", f.Index, w.count)
	}
	if len(f.X) != w.layout.Cells() || len(f.Y) != w.layout.Cells() {
		return fmt.Errorf("frame %d has %d/%d cells, expected %d", f.Index, len(f.X), len(f.Y), w.layout.Cells())
	}
	encodeRecord(w.buf, f)
	if _, err := w.w.Write(w.buf); err != nil {
		return fmt.Errorf("write frame %d: %w", f.Index, err)
	}
	w.count++
	w.lastTs = f.TimestampMs
	return nil
}

// Count returns the number of frames written.
func (w *Writer) Count() int { return w.count }

// Close finalises the header when possible and closes a file opened by
// CreateFile. The file is closed even when finalising fails.
func (w *Writer) Close() error {
	err := w.finalise()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
		w.closer = nil
	}
	return err
}

func (w *Writer) finalise() error {
	ws, ok := w.w.(io.WriteSeeker)
	if !ok {
		return nil
	}
	h := w.header
	h.FrameCount = int32(w.count)
	if h.DurationMs == 0 && w.count > 0 {
		h.DurationMs = int32(w.lastTs + int64(h.FrameDurationMs()+0.5))
	}
	if _, err := ws.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek header: %w", err)
	}
	if _, err := ws.Write(encodeHeader(h)); err != nil {
		return fmt.Errorf("rewrite header: %w", err)
	}
	if _, err := ws.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek end: %w", err)
	}
	return nil
}
