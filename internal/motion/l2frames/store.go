package l2frames

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"math"

	"github.com/golang/groupcache/lru"

	"github.com/banshee-data/mvscript/internal/fsutil"
	"github.com/banshee-data/mvscript/internal/monitoring"
)

// StoreOptions configures a FrameStore.
type StoreOptions struct {
	// MaximumMemoryUsageMB bounds the frame cache. Zero disables caching.
	MaximumMemoryUsageMB int
	// ClampToAvailableMemory limits the cache to half of free system memory.
	ClampToAvailableMemory bool
	// MaxCachedFrames overrides the memory-derived capacity when positive.
	MaxCachedFrames int
}

// CacheStats reports frame cache activity.
type CacheStats struct {
	Capacity  int
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// FrameStore reads frames from a .mvs file with a bounded LRU cache of
// decoded frames. It is not safe for concurrent use: a single store must
// not be driven by more than one read loop at a time.
type FrameStore struct {
	name       string
	r          io.ReadSeeker
	closer     io.Closer
	header     Header
	layout     Layout
	recordSize int

	buf   []byte
	pos   int64 // current offset of r, or -1 when unknown
	cache *lru.Cache
	stats CacheStats
}

// OpenFrameStore opens a .mvs file from fsys. The store owns the file
// until Close.
func OpenFrameStore(fsys fsutil.FileSystem, path string, opts StoreOptions) (*FrameStore, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open motion vector file: %w", err)
	}
	s, err := NewFrameStore(f, path, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	if info, err := f.Stat(); err == nil {
		if held := (info.Size() - HeaderSize) / int64(s.recordSize); held < int64(s.FrameCount()) {
			monitoring.Logf("[FrameStore] %s declares %d frames but holds %d", path, s.FrameCount(), held)
		}
	}
	return s, nil
}

// NewFrameStore reads the header from r and prepares the store. name is
// used in error messages. The caller keeps ownership of r.
func NewFrameStore(r io.ReadSeeker, name string, opts StoreOptions) (*FrameStore, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", name, err)
	}
	h, err := readHeader(r, name)
	if err != nil {
		return nil, err
	}
	layout, _ := h.Layout()

	s := &FrameStore{
		name:       name,
		r:          r,
		header:     h,
		layout:     layout,
		recordSize: h.RecordSize(),
		pos:        HeaderSize,
	}
	s.buf = make([]byte, s.recordSize)

	capacity := opts.MaxCachedFrames
	if capacity <= 0 {
		capacity = CacheCapacity(s.recordSize, opts.MaximumMemoryUsageMB, opts.ClampToAvailableMemory)
	}
	if capacity > 0 {
		s.cache = lru.New(capacity)
		s.cache.OnEvicted = func(lru.Key, interface{}) { s.stats.Evictions++ }
		s.stats.Capacity = capacity
	}

	monitoring.Logf("[FrameStore] Opened %s: %d frames @ %.3f fps, %s, cache=%d records",
		name, h.FrameCount, h.FrameRate(), layout, s.stats.Capacity)
	return s, nil
}

// Header returns the file header.
func (s *FrameStore) Header() Header { return s.header }

// Layout returns the grid geometry.
func (s *FrameStore) Layout() Layout { return s.layout }

// FrameCount returns the number of frame records declared by the header.
func (s *FrameStore) FrameCount() int { return int(s.header.FrameCount) }

// FrameDurationMs returns the nominal duration of one frame.
func (s *FrameStore) FrameDurationMs() float64 { return s.header.FrameDurationMs() }

// CacheStats returns a snapshot of cache counters.
func (s *FrameStore) CacheStats() CacheStats {
	st := s.stats
	if s.cache != nil {
		st.Entries = s.cache.Len()
	}
	return st
}

// Close releases the underlying file if the store opened it.
func (s *FrameStore) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// ReadFrames returns the frames whose timestamps lie in [startMs, endMs).
// The sequence is lazy and forward-only; ranging over it again restarts
// the read. Returned frames may be shared with the cache and must not be
// modified. A read error is yielded once and ends the sequence.
func (s *FrameStore) ReadFrames(startMs, endMs int64) iter.Seq2[*Frame, error] {
	return func(yield func(*Frame, error) bool) {
		for idx := s.firstIndexAt(startMs); idx < s.FrameCount(); idx++ {
			f, err := s.frame(idx)
			if err != nil {
				yield(nil, err)
				return
			}
			if f.TimestampMs < startMs {
				continue
			}
			if f.TimestampMs >= endMs {
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// AllFrames returns every frame in the file.
func (s *FrameStore) AllFrames() iter.Seq2[*Frame, error] {
	return s.ReadFrames(0, math.MaxInt64)
}

// firstIndexAt estimates the first frame that can have a timestamp >= ms.
// The estimate backs off one frame to absorb timestamp rounding.
func (s *FrameStore) firstIndexAt(ms int64) int {
	if ms <= 0 || s.header.FramerateThousandths <= 0 {
		return 0
	}
	idx := int(ms*int64(s.header.FramerateThousandths)/1e6) - 1
	if idx < 0 {
		return 0
	}
	if idx > s.FrameCount() {
		return s.FrameCount()
	}
	return idx
}

func (s *FrameStore) frame(idx int) (*Frame, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(idx); ok {
			s.stats.Hits++
			return v.(*Frame), nil
		}
	}
	s.stats.Misses++

	offset := int64(HeaderSize) + int64(idx)*int64(s.recordSize)
	if s.pos != offset {
		if _, err := s.r.Seek(offset, io.SeekStart); err != nil {
			s.pos = -1
			return nil, fmt.Errorf("seek %s to frame %d: %w", s.name, idx, err)
		}
	}
	if _, err := io.ReadFull(s.r, s.buf); err != nil {
		s.pos = -1
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %s: truncated frame %d", ErrBadFormat, s.name, idx)
		}
		return nil, fmt.Errorf("read %s frame %d: %w", s.name, idx, err)
	}
	s.pos = offset + int64(s.recordSize)

	f := decodeRecord(s.buf, s.layout.Cells())
	if f.Index != idx {
		return nil, &CorruptionError{Path: s.name, Expected: idx, Actual: f.Index}
	}
	if s.cache != nil {
		s.cache.Add(idx, f)
	}
	return f, nil
}
