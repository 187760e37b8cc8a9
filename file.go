package seqread

// SequentialFile is the raw sequential file wrapped by this layer.
//
// Implementations sit below seqread: an OS file handle, a remote-storage
// fetcher, an encrypting wrapper, or the readahead decorator returned by
// [NewReadaheadFile]. This package never opens, closes or deletes files -
// whoever constructs the SequentialFile owns its lifecycle.
//
// All methods are synchronous: they return only after the underlying I/O
// completed or failed.
type SequentialFile interface {
	// Read reads up to len(p) bytes from the file's cursor into p and
	// returns the number of bytes read.
	//
	// A count shorter than len(p) with a nil error means end of file;
	// implementations must not return io.EOF for an ordinary short read.
	Read(p []byte) (int, error)

	// Skip advances the cursor by n bytes, best effort.
	//
	// The actual distance skipped is not reported; skipping past end of
	// file is not an error.
	Skip(n int64) error

	// PositionedRead reads up to len(p) bytes at absolute offset off,
	// independent of the cursor. Same short-read semantics as Read.
	//
	// When UsesDirectIO reports true, off and len(p) must be multiples of
	// RequiredBufferAlignment and p must be alignment-allocated.
	// Implementations may require PositionedRead to be safe for concurrent
	// use; [SequentialReader] depends on that in direct-I/O mode.
	PositionedRead(p []byte, off int64) (int, error)

	// InvalidateCache hints that cached data for [off, off+length) will
	// not be needed soon. length == 0 means to the end of the file.
	InvalidateCache(off, length int64) error

	// RequiredBufferAlignment returns the sector alignment direct I/O
	// requests must satisfy. Meaningful only when UsesDirectIO is true.
	RequiredBufferAlignment() int

	// UsesDirectIO reports whether reads bypass the OS page cache.
	UsesDirectIO() bool
}

// ReadCounter receives the byte counts this layer hands to an external
// statistics sink. Implementations must be safe for concurrent use.
//
// [ReadStats] is the bundled implementation.
type ReadCounter interface {
	// AddBytesRead records that n bytes were returned to a caller.
	AddBytesRead(n int64)
}
