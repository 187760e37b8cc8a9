package seqread

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// pageSize is the fallback alignment when a file reports a degenerate
// (non-positive) buffer alignment.
var pageSize = unix.Getpagesize()

// AlignedBuffer is a fixed-capacity memory region whose start address and
// capacity are both multiples of a required alignment, as direct I/O demands.
//
// The buffer is allocated once by [AlignedBuffer.Allocate]; its filled region
// is replaced wholesale on refill ([AlignedBuffer.Bytes] + [AlignedBuffer.SetLen])
// or logically emptied by [AlignedBuffer.Clear] without deallocation.
//
// AlignedBuffer performs no I/O and no locking; callers synchronize access.
// Contract violations (see each method) panic - they are programming errors,
// never data-dependent.
type AlignedBuffer struct {
	alignment int
	raw       []byte // backing allocation, over-sized by one alignment unit
	data      []byte // aligned window into raw, len == capacity
	size      int    // filled bytes, <= len(data)
}

// NewAlignedBuffer returns an empty buffer with the given alignment and no
// capacity. Panics if alignment is not positive.
func NewAlignedBuffer(alignment int) *AlignedBuffer {
	if alignment <= 0 {
		panic(fmt.Sprintf("seqread: buffer alignment must be positive, got %d", alignment))
	}

	return &AlignedBuffer{alignment: alignment}
}

// Alignment returns the required alignment in bytes.
func (b *AlignedBuffer) Alignment() int {
	return b.alignment
}

// Allocate replaces the backing allocation with a fresh one of at least
// capacity bytes, rounded up to the alignment. The buffer becomes empty.
//
// Panics if capacity is negative.
func (b *AlignedBuffer) Allocate(capacity int) {
	if capacity < 0 {
		panic(fmt.Sprintf("seqread: negative buffer capacity %d", capacity))
	}

	capacity = int(roundUp(int64(capacity), int64(b.alignment)))

	// Over-allocate by one alignment unit, then slice at the first aligned
	// address. The Go allocator gives no alignment guarantee beyond the
	// type's natural one, so the offset must be computed from the actual
	// address.
	b.raw = make([]byte, capacity+b.alignment)

	off := 0
	if rem := int(uintptr(unsafe.Pointer(&b.raw[0])) % uintptr(b.alignment)); rem != 0 {
		off = b.alignment - rem
	}

	b.data = b.raw[off : off+capacity]
	b.size = 0
}

// Capacity returns the usable aligned capacity in bytes.
func (b *AlignedBuffer) Capacity() int {
	return len(b.data)
}

// Len returns the number of filled bytes.
func (b *AlignedBuffer) Len() int {
	return b.size
}

// Bytes returns the full aligned region, capacity bytes long, for a refill
// to read into. Call [AlignedBuffer.SetLen] afterwards with the byte count
// actually read.
func (b *AlignedBuffer) Bytes() []byte {
	return b.data
}

// SetLen records n as the filled size after a refill.
//
// Panics if n is negative or exceeds the capacity.
func (b *AlignedBuffer) SetLen(n int) {
	if n < 0 || n > len(b.data) {
		panic(fmt.Sprintf("seqread: buffer size %d out of range [0, %d]", n, len(b.data)))
	}

	b.size = n
}

// CopyTo copies filled bytes starting at off into dst, clamped to what is
// available, and returns the number of bytes copied. off at or past the
// filled size copies nothing.
//
// Panics if off is negative.
func (b *AlignedBuffer) CopyTo(dst []byte, off int) int {
	if off < 0 {
		panic(fmt.Sprintf("seqread: negative buffer offset %d", off))
	}

	if off >= b.size {
		return 0
	}

	return copy(dst, b.data[off:b.size])
}

// Clear empties the buffer without freeing its allocation.
func (b *AlignedBuffer) Clear() {
	b.size = 0
}

// truncateTo rounds v down to a multiple of alignment.
func truncateTo(v, alignment int64) int64 {
	return v - v%alignment
}

// roundUp rounds v up to a multiple of alignment.
func roundUp(v, alignment int64) int64 {
	return truncateTo(v+alignment-1, alignment)
}
