package seqread

import (
	"fmt"
	"sync/atomic"
)

// ReaderOptions configures a [SequentialReader].
type ReaderOptions struct {
	// FileName is the name reported by [SequentialReader.FileName].
	// Informational only; this package never touches the filesystem.
	FileName string

	// Stats, if non-nil, receives the byte count of every read.
	// May be shared across readers; see [ReadStats].
	Stats ReadCounter
}

// SequentialReader wraps one raw [SequentialFile] behind a conventional
// "read N bytes" interface.
//
// When the file uses direct I/O, every request is expanded to the enclosing
// sector-aligned byte range, read with a single positioned read into a
// temporary [AlignedBuffer], and only the requested sub-range is copied out.
// The caller never sees the alignment expansion.
//
// In direct-I/O mode the logical offset is advanced with an atomic
// fetch-and-add, so concurrent Read calls on one reader reserve disjoint,
// gap-free logical ranges before any I/O occurs. That guarantees disjoint
// ranges only; the wrapped file's PositionedRead must itself tolerate
// concurrent invocation.
//
// The reader exclusively owns the file it wraps.
type SequentialReader struct {
	file     SequentialFile
	fileName string
	stats    ReadCounter

	// Next unread logical byte position as seen by callers. Only
	// meaningful in direct-I/O mode; never decreases, and advances by the
	// requested length even when the read comes back short at end of file.
	offset atomic.Int64
}

// NewSequentialReader returns a reader wrapping file.
//
// Returns [ErrInvalidInput] if file is nil.
func NewSequentialReader(file SequentialFile, opts ReaderOptions) (*SequentialReader, error) {
	if file == nil {
		return nil, fmt.Errorf("file is required: %w", ErrInvalidInput)
	}

	return &SequentialReader{
		file:     file,
		fileName: opts.FileName,
		stats:    opts.Stats,
	}, nil
}

// Read reads up to len(p) bytes into p and returns the number of bytes read.
//
// A count shorter than len(p) with a nil error means end of file. I/O errors
// from the wrapped file propagate unchanged; the logical offset still
// advances by the full requested length.
func (r *SequentialReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if !r.file.UsesDirectIO() {
		n, err := r.file.Read(p)
		r.countBytes(n)

		return n, err
	}

	n := int64(len(p))
	off := r.offset.Add(n) - n

	alignment := int64(r.alignment())
	alignedOff := truncateTo(off, alignment)
	advance := int(off - alignedOff)
	size := int(roundUp(off+n, alignment) - alignedOff)

	buf := NewAlignedBuffer(int(alignment))
	buf.Allocate(size)

	got, err := r.file.PositionedRead(buf.Bytes()[:size], alignedOff)

	read := 0
	if err == nil && advance < got {
		buf.SetLen(got)
		read = buf.CopyTo(p, advance)
	}

	r.countBytes(read)

	return read, err
}

// Skip advances the read position by n bytes.
//
// In direct-I/O mode every read is independently positioned, so skipping is
// pure bookkeeping on the logical offset and touches no I/O. Otherwise it
// delegates to the wrapped file.
func (r *SequentialReader) Skip(n int64) error {
	if r.file.UsesDirectIO() {
		r.offset.Add(n)

		return nil
	}

	return r.file.Skip(n)
}

// FileName returns the name given at construction.
func (r *SequentialReader) FileName() string {
	return r.fileName
}

// UsesDirectIO reports whether the wrapped file bypasses the OS page cache.
func (r *SequentialReader) UsesDirectIO() bool {
	return r.file.UsesDirectIO()
}

func (r *SequentialReader) countBytes(n int) {
	if r.stats != nil {
		r.stats.AddBytesRead(int64(n))
	}
}

// alignment returns the wrapped file's required alignment, falling back to
// the OS page size if the file reports a degenerate value.
func (r *SequentialReader) alignment() int {
	if a := r.file.RequiredBufferAlignment(); a > 0 {
		return a
	}

	return pageSize
}
