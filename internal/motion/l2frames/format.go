package l2frames

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

/*
.mvs motion-vector file layout (all integers little-endian int32)

HEADER (60 bytes)
├── magic          [4]byte "FTMV"
├── version
├── duration       milliseconds
├── framerate      frames per second × 1000
├── frame count
├── width, height  pixels
├── columns, rows  grid cells
└── reserved       [24]byte

FRAME RECORD (2×cells + 20 bytes)
├── frame index
├── timestamp      milliseconds
├── frame type     1 byte
├── reserved       [11]byte
├── X              [cells]int8, row-major
└── Y              [cells]int8, row-major
*/

const (
	Magic          = "FTMV"
	FormatVersion  = 1
	HeaderSize     = 4 + 8*4 + headerReserved
	RecordOverhead = 4 + 4 + 1 + recordReserved

	headerReserved = 24
	recordReserved = 11
)

// ErrBadFormat is returned when a file is not a readable .mvs file.
var ErrBadFormat = errors.New("invalid motion vector file")

// ErrCorrupt is the sentinel wrapped by CorruptionError.
var ErrCorrupt = errors.New("corrupt motion vector file")

// CorruptionError reports a frame record whose index does not match its
// position in the file.
type CorruptionError struct {
	Path     string
	Expected int
	Actual   int
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("%s: frame index out of sequence: expected %d, got %d", e.Path, e.Expected, e.Actual)
}

func (e *CorruptionError) Unwrap() error { return ErrCorrupt }

// Header is the fixed file header.
type Header struct {
	Version              int32
	DurationMs           int32
	FramerateThousandths int32
	FrameCount           int32
	Width                int32
	Height               int32
	Columns              int32
	Rows                 int32
}

// FrameRate returns frames per second.
func (h Header) FrameRate() float64 {
	return float64(h.FramerateThousandths) / 1000
}

// FrameDurationMs returns the nominal duration of one frame.
func (h Header) FrameDurationMs() float64 {
	if h.FramerateThousandths <= 0 {
		return 0
	}
	return 1e6 / float64(h.FramerateThousandths)
}

// Layout derives the grid geometry declared by the header.
func (h Header) Layout() (Layout, error) {
	return NewLayout(int(h.Width), int(h.Height), int(h.Columns), int(h.Rows))
}

// RecordSize returns the byte size of one frame record.
func (h Header) RecordSize() int {
	return 2*int(h.Columns)*int(h.Rows) + RecordOverhead
}

// NominalTimestamp returns the timestamp a writer assigns to frame index i.
func (h Header) NominalTimestamp(i int) int64 {
	if h.FramerateThousandths <= 0 {
		return 0
	}
	return int64(float64(i)*1e6/float64(h.FramerateThousandths) + 0.5)
}

func readHeader(r io.Reader, name string) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("%w: %s: truncated header: %v", ErrBadFormat, name, err)
	}
	if string(buf[:4]) != Magic {
		return Header{}, fmt.Errorf("%w: %s: bad magic %q", ErrBadFormat, name, buf[:4])
	}
	le := binary.LittleEndian
	field := func(i int) int32 { return int32(le.Uint32(buf[4+4*i:])) }
	h := Header{
		Version:              field(0),
		DurationMs:           field(1),
		FramerateThousandths: field(2),
		FrameCount:           field(3),
		Width:                field(4),
		Height:               field(5),
		Columns:              field(6),
		Rows:                 field(7),
	}
	if h.FrameCount < 0 {
		return Header{}, fmt.Errorf("%w: %s: negative frame count %d", ErrBadFormat, name, h.FrameCount)
	}
	if _, err := h.Layout(); err != nil {
		return Header{}, fmt.Errorf("%w: %s: %v", ErrBadFormat, name, err)
	}
	return h, nil
}

func encodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	copy(buf, Magic)
	le := binary.LittleEndian
	fields := []int32{h.Version, h.DurationMs, h.FramerateThousandths, h.FrameCount, h.Width, h.Height, h.Columns, h.Rows}
	for i, v := range fields {
		le.PutUint32(buf[4+4*i:], uint32(v))
	}
	return buf
}

// decodeRecord parses one record. X and Y are copied out of buf.
func decodeRecord(buf []byte, cells int) *Frame {
	le := binary.LittleEndian
	f := &Frame{
		Index:       int(int32(le.Uint32(buf[0:]))),
		TimestampMs: int64(int32(le.Uint32(buf[4:]))),
		Type:        buf[8],
		X:           make([]int8, cells),
		Y:           make([]int8, cells),
	}
	xs := buf[RecordOverhead : RecordOverhead+cells]
	ys := buf[RecordOverhead+cells : RecordOverhead+2*cells]
	for i := 0; i < cells; i++ {
		f.X[i] = int8(xs[i])
		f.Y[i] = int8(ys[i])
	}
	return f
}

func encodeRecord(buf []byte, f *Frame) {
	le := binary.LittleEndian
	clear(buf[:RecordOverhead])
	le.PutUint32(buf[0:], uint32(int32(f.Index)))
	le.PutUint32(buf[4:], uint32(int32(f.TimestampMs)))
	buf[8] = f.Type
	cells := len(f.X)
	for i := 0; i < cells; i++ {
		buf[RecordOverhead+i] = byte(f.X[i])
		buf[RecordOverhead+cells+i] = byte(f.Y[i])
	}
}
