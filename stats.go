package seqread

import "sync/atomic"

// ReadStats is an atomic byte counter implementing [ReadCounter].
//
// The zero value is ready to use and safe for concurrent use. A single
// ReadStats instance may be shared by any number of readers.
type ReadStats struct {
	bytesRead atomic.Int64
}

// AddBytesRead records that n bytes were returned to a caller.
func (s *ReadStats) AddBytesRead(n int64) {
	s.bytesRead.Add(n)
}

// BytesRead returns a snapshot of the total bytes returned so far.
func (s *ReadStats) BytesRead() int64 {
	return s.bytesRead.Load()
}

// Reset sets the counter back to zero.
func (s *ReadStats) Reset() {
	s.bytesRead.Store(0)
}

// Compile-time interface check.
var _ ReadCounter = (*ReadStats)(nil)
