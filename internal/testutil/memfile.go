// Package testutil provides test collaborators for the seqread package:
//   - [MemFile]: in-memory [seqread.SequentialFile] with operation counters
//   - [StrictFile]: decorator that traces operations and fails the test on
//     direct-I/O contract violations
//   - [FlakyFile]: decorator that injects deterministic, single-shot errors
package testutil

import (
	"sync"

	"github.com/calvinalkan/seqread"
)

// MemFileOptions configures a [MemFile].
type MemFileOptions struct {
	// Alignment is the value reported by RequiredBufferAlignment.
	// Defaults to 1.
	Alignment int

	// DirectIO is the value reported by UsesDirectIO.
	DirectIO bool
}

// MemFile is an in-memory [seqread.SequentialFile].
//
// It honors the boundary contract exactly: short reads only at end of file
// with a nil error, best-effort Skip that does not report the distance
// actually moved, and a stateless PositionedRead. Every raw operation is
// counted so tests can assert how much I/O a wrapper really issued.
//
// Safe for concurrent use.
type MemFile struct {
	alignment int
	directIO  bool

	mu            sync.Mutex
	content       []byte
	pos           int64
	reads         int
	lastReadLen   int
	positioned    int
	skips         int
	invalidations int
}

var _ seqread.SequentialFile = (*MemFile)(nil)

// NewMemFile returns a MemFile over content. The slice is not copied.
func NewMemFile(content []byte, opts MemFileOptions) *MemFile {
	alignment := opts.Alignment
	if alignment == 0 {
		alignment = 1
	}

	return &MemFile{
		alignment: alignment,
		directIO:  opts.DirectIO,
		content:   content,
	}
}

func (m *MemFile) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	m.lastReadLen = len(p)

	n := 0
	if m.pos < int64(len(m.content)) {
		n = copy(p, m.content[m.pos:])
	}

	m.pos += int64(n)

	return n, nil
}

func (m *MemFile) Skip(n int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.skips++

	// Best effort: clamp at end of file and do not report the shortfall.
	m.pos += n
	if m.pos > int64(len(m.content)) {
		m.pos = int64(len(m.content))
	}

	return nil
}

func (m *MemFile) PositionedRead(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positioned++

	if off >= int64(len(m.content)) {
		return 0, nil
	}

	return copy(p, m.content[off:]), nil
}

func (m *MemFile) InvalidateCache(off, length int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invalidations++

	return nil
}

func (m *MemFile) RequiredBufferAlignment() int {
	return m.alignment
}

func (m *MemFile) UsesDirectIO() bool {
	return m.directIO
}

// Reads returns the number of sequential Read calls seen.
func (m *MemFile) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.reads
}

// LastReadLen returns len(p) of the most recent Read call.
func (m *MemFile) LastReadLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lastReadLen
}

// PositionedReads returns the number of PositionedRead calls seen.
func (m *MemFile) PositionedReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.positioned
}

// Skips returns the number of Skip calls seen.
func (m *MemFile) Skips() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.skips
}

// Invalidations returns the number of InvalidateCache calls seen.
func (m *MemFile) Invalidations() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.invalidations
}

// RawOps returns the total number of raw I/O operations seen
// (sequential reads + positioned reads + skips).
func (m *MemFile) RawOps() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.reads + m.positioned + m.skips
}
