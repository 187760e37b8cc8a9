package seqread

import "errors"

// Sentinel errors returned by seqread constructors.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, seqread.ErrInvalidInput) {
//	    // fix the call site; this is a programming error
//	}
//
// I/O errors are never wrapped in these sentinels: whatever the wrapped
// [SequentialFile] returns is propagated unchanged.
var (
	// ErrInvalidInput indicates invalid arguments were provided.
	//
	// Common causes: nil file, non-positive alignment or capacity.
	//
	// This is a programming error.
	ErrInvalidInput = errors.New("seqread: invalid input")
)
