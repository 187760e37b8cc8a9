package testutil

import (
	"fmt"
	"strings"
	"sync"

	"github.com/calvinalkan/seqread"
)

// TestBuilder is the subset of [testing.T] used by [StrictFile].
//
// This keeps [StrictFile] usable from tests in other packages without
// depending on _test.go files.
type TestBuilder interface {
	// [testing.T.Helper]
	Helper()
	// [testing.T.Cleanup]
	Cleanup(func())
	// [testing.T.Failed]
	Failed() bool
	// [testing.T.Logf]
	Logf(format string, args ...any)
	// [testing.T.Fatalf]
	Fatalf(format string, args ...any)
}

// StrictFile wraps a [seqread.SequentialFile] for tests:
//   - Records a trace of file operations, logged when the test fails
//   - Fails the test when a positioned read on a direct-I/O file violates
//     the sector-alignment contract (offset or length not a multiple of the
//     required alignment)
//   - Fails the test when any read reports more bytes than were asked for
//
// Alignment violations are a programming-bug class inside the layer under
// test; surfacing them here stands in for the debug assertions a production
// build would compile out.
type StrictFile struct {
	tb    TestBuilder
	file  seqread.SequentialFile
	trace *opTrace
}

var _ seqread.SequentialFile = (*StrictFile)(nil)

// NewStrictFile wraps file. On test failure the operation trace is logged
// via tb.Cleanup.
func NewStrictFile(tb TestBuilder, file seqread.SequentialFile) *StrictFile {
	tb.Helper()

	s := &StrictFile{
		tb:    tb,
		file:  file,
		trace: &opTrace{},
	}

	tb.Cleanup(func() {
		if tb.Failed() {
			if trace := s.trace.String(); trace != "" {
				tb.Logf("file trace:\n%s", trace)
			}
		}
	})

	return s
}

func (s *StrictFile) Read(p []byte) (int, error) {
	s.tb.Helper()
	n, err := s.file.Read(p)

	s.trace.add(fmt.Sprintf("read len=%d n=%d err=%v", len(p), n, err))
	s.checkCount("Read", n, len(p))

	return n, err
}

func (s *StrictFile) Skip(n int64) error {
	s.tb.Helper()
	err := s.file.Skip(n)

	s.trace.add(fmt.Sprintf("skip n=%d err=%v", n, err))

	return err
}

func (s *StrictFile) PositionedRead(p []byte, off int64) (int, error) {
	s.tb.Helper()

	if s.file.UsesDirectIO() {
		alignment := int64(s.file.RequiredBufferAlignment())
		if alignment > 0 && (off%alignment != 0 || int64(len(p))%alignment != 0) {
			s.fatalWithTrace("PositionedRead(off=%d, len=%d) violates alignment %d", off, len(p), alignment)
		}
	}

	n, err := s.file.PositionedRead(p, off)

	s.trace.add(fmt.Sprintf("pread off=%d len=%d n=%d err=%v", off, len(p), n, err))
	s.checkCount("PositionedRead", n, len(p))

	return n, err
}

func (s *StrictFile) InvalidateCache(off, length int64) error {
	s.tb.Helper()
	err := s.file.InvalidateCache(off, length)

	s.trace.add(fmt.Sprintf("invalidate off=%d len=%d err=%v", off, length, err))

	return err
}

func (s *StrictFile) RequiredBufferAlignment() int {
	return s.file.RequiredBufferAlignment()
}

func (s *StrictFile) UsesDirectIO() bool {
	return s.file.UsesDirectIO()
}

func (s *StrictFile) checkCount(op string, n, max int) {
	s.tb.Helper()

	if n < 0 || n > max {
		s.fatalWithTrace("%s reported %d bytes for a %d-byte request", op, n, max)
	}
}

func (s *StrictFile) fatalWithTrace(format string, args ...any) {
	s.tb.Helper()

	trace := s.trace.String()
	if trace != "" {
		trace = "\n" + trace
	}

	s.tb.Fatalf("strictfile: "+format+"%s", append(args, trace)...)
}

// opTrace is an append-only log of file operations.
type opTrace struct {
	mu  sync.Mutex
	ops []string
}

func (t *opTrace) add(op string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ops = append(t.ops, fmt.Sprintf("#%d %s", len(t.ops)+1, op))
}

func (t *opTrace) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return strings.Join(t.ops, "\n")
}
