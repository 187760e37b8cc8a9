package seqread

import "sync"

// NewReadaheadFile wraps file with a prefetch cache of readaheadSize bytes:
// reads are served from memory when possible and the cache is refilled
// opportunistically, avoiding a raw I/O round-trip per call - worthwhile
// when the file data is slow to reach, for example remote.
//
// If the file's required buffer alignment is at least readaheadSize,
// wrapping cannot prefetch more than a single aligned unit and the file is
// returned unwrapped. Otherwise the effective readahead size is
// readaheadSize rounded up to the alignment.
//
// The decorator exclusively owns the file it wraps.
func NewReadaheadFile(file SequentialFile, readaheadSize int) SequentialFile {
	if file.RequiredBufferAlignment() >= readaheadSize {
		return file
	}

	return newReadaheadFile(file, readaheadSize)
}

// readaheadFile is a [SequentialFile] decorator holding a private
// [AlignedBuffer] as prefetch cache.
//
// One mutex guards all cache state: the buffer, bufferOffset and readOffset
// change only together, so Read, Skip and InvalidateCache mutually exclude
// each other and no caller can observe a torn window. PositionedRead is
// deliberately stateless and lock-free.
type readaheadFile struct {
	file          SequentialFile
	alignment     int
	readaheadSize int

	mu sync.Mutex
	// Prefetched data. [bufferOffset, bufferOffset+buf.Len()) is the file
	// range currently cached.
	buf          *AlignedBuffer
	bufferOffset int64
	// The position the caller is logically at. After a forwarded Skip this
	// is an upper bound on the true file position, since the raw Skip does
	// not report the distance actually skipped; monotonicity is all the
	// cache-hit check needs.
	readOffset int64
	// Set when a refill came back short, meaning end of file is inside or
	// at the edge of the cached window. Cleared with the cache.
	eof bool
}

var _ SequentialFile = (*readaheadFile)(nil)

func newReadaheadFile(file SequentialFile, readaheadSize int) *readaheadFile {
	alignment := file.RequiredBufferAlignment()
	if alignment <= 0 {
		alignment = pageSize
	}

	size := int(roundUp(int64(readaheadSize), int64(alignment)))

	buf := NewAlignedBuffer(alignment)
	buf.Allocate(size)

	return &readaheadFile{
		file:          file,
		alignment:     alignment,
		readaheadSize: size,
		buf:           buf,
	}
}

// Read serves [readOffset, readOffset+len(p)) from the cached window where
// possible, refills the window when a modest remainder is missing, and
// bypasses the cache entirely when the remainder is too large for a
// readahead window to pay off.
//
// A count shorter than len(p) with a nil error means end of file.
func (f *readaheadFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(p)

	cached := f.tryReadFromCache(p)
	if cached == n || (cached > 0 && f.buf.Len() < f.readaheadSize) {
		// Read exactly what was needed, or the window is short because a
		// previous refill hit end of file and no more data exists.
		return cached, nil
	}

	if f.eof && f.readOffset >= f.bufferOffset+int64(f.buf.Len()) {
		// End of file is already confirmed and the window is exhausted;
		// issuing more raw reads cannot produce data.
		return cached, nil
	}

	remaining := n - cached

	// Readahead only makes sense with some slack left after this request.
	if int64(remaining)+int64(f.alignment) > int64(f.readaheadSize) {
		m, err := f.file.Read(p[cached : cached+remaining])
		if err == nil {
			f.readOffset += int64(m)
		}

		f.clearCache()

		return cached + m, err
	}

	if err := f.refill(); err != nil {
		// The window was not touched; readOffset still marks the last
		// confirmed position, so the caller may safely retry.
		return cached, err
	}

	return cached + f.tryReadFromCache(p[cached:n]), nil
}

// Skip consumes the skip distance against the cached window first and
// forwards only the residual to the raw file.
func (f *readaheadFile) Skip(n int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.buf.Len() > 0 {
		end := f.bufferOffset + int64(f.buf.Len())
		if f.readOffset+n < end {
			// The whole skip lies inside the cached window.
			f.readOffset += n

			return nil
		}

		n -= end - f.readOffset
		f.readOffset = end
	}

	if n > 0 {
		err := f.file.Skip(n)
		if err == nil {
			f.readOffset += n
		}

		f.clearCache()

		return err
	}

	return nil
}

// PositionedRead is a pure passthrough: it neither consults nor updates the
// cache and takes no lock. Interleaving it with sequential Read/Skip calls
// on the same instance is a caller-level ordering hazard this layer does not
// arbitrate.
func (f *readaheadFile) PositionedRead(p []byte, off int64) (int, error) {
	return f.file.PositionedRead(p, off)
}

// InvalidateCache drops the prefetched window and forwards the request.
func (f *readaheadFile) InvalidateCache(off, length int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.clearCache()

	return f.file.InvalidateCache(off, length)
}

func (f *readaheadFile) RequiredBufferAlignment() int {
	return f.alignment
}

func (f *readaheadFile) UsesDirectIO() bool {
	return f.file.UsesDirectIO()
}

// tryReadFromCache copies up to len(p) cached bytes at readOffset into p and
// advances readOffset by the count copied. Returns 0 on a cache miss.
func (f *readaheadFile) tryReadFromCache(p []byte) int {
	if f.readOffset < f.bufferOffset || f.readOffset >= f.bufferOffset+int64(f.buf.Len()) {
		return 0
	}

	n := f.buf.CopyTo(p, int(f.readOffset-f.bufferOffset))
	f.readOffset += int64(n)

	return n
}

// refill reads the next window of up to readaheadSize bytes from the raw
// file into the buffer. On success the window starts at readOffset; a short
// count latches eof. On failure the previous window is left untouched.
func (f *readaheadFile) refill() error {
	n := f.readaheadSize
	if n > f.buf.Capacity() {
		n = f.buf.Capacity()
	}

	// n stays alignment-compatible: readaheadSize was rounded up to the
	// alignment at construction and the capacity is a multiple of it.
	m, err := f.file.Read(f.buf.Bytes()[:n])
	if err != nil {
		return err
	}

	f.bufferOffset = f.readOffset
	f.buf.SetLen(m)
	f.eof = m < n

	return nil
}

func (f *readaheadFile) clearCache() {
	f.buf.Clear()
	f.eof = false
}
