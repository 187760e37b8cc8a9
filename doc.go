// Package seqread provides the sequential-read layer of a storage engine's
// file stack: correctly-aligned unbuffered I/O when direct (page-cache
// bypassing) I/O is in use, and an optional readahead cache that serves
// subsequent reads from memory instead of issuing a new I/O per call.
//
// Callers only ever see a conventional "read N bytes" interface; alignment
// expansion and prefetching happen underneath it.
//
// # Basic Usage
//
//	var raw seqread.SequentialFile // e.g. a direct-I/O file handle
//
//	// Optionally layer a prefetch cache over the raw file.
//	file := seqread.NewReadaheadFile(raw, 256*1024)
//
//	r, err := seqread.NewSequentialReader(file, seqread.ReaderOptions{
//	    FileName: "MANIFEST-000042",
//	})
//	if err != nil {
//	    // invalid options, see [ErrInvalidInput]
//	}
//
//	buf := make([]byte, 4096)
//	n, err := r.Read(buf)
//	// n < len(buf) with a nil error means end of file.
//
// # Concurrency
//
//   - [SequentialReader] in direct-I/O mode may be shared by concurrent
//     callers: each Read reserves a disjoint logical byte range via an atomic
//     counter before issuing its own positioned read. This relies on the
//     wrapped file's PositionedRead being safe for concurrent use.
//   - The readahead decorator serializes Read, Skip and InvalidateCache
//     behind one mutex. Its PositionedRead deliberately bypasses both the
//     lock and the cache; interleaving positional and sequential calls on
//     one instance is a caller-level ordering hazard.
//
// # Error Handling
//
// I/O errors from the wrapped file propagate unchanged; this layer never
// retries. Short reads are not errors - they signal end of file implicitly
// and the returned count communicates this. [ErrInvalidInput] covers only
// misuse of this package's own constructors.
package seqread
