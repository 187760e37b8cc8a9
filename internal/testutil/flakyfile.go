package testutil

import (
	"sync"

	"github.com/calvinalkan/seqread"
)

// FlakyFile wraps a [seqread.SequentialFile] and injects deterministic,
// single-shot errors: each armed failure fires on the next matching call and
// then disarms, so a retry reaches the underlying file.
//
// Failed calls perform no I/O and report zero bytes.
type FlakyFile struct {
	File seqread.SequentialFile

	mu            sync.Mutex
	readErr       error
	positionedErr error
	skipErr       error
}

var _ seqread.SequentialFile = (*FlakyFile)(nil)

// FailNextRead arms err for the next Read call.
func (f *FlakyFile) FailNextRead(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.readErr = err
}

// FailNextPositionedRead arms err for the next PositionedRead call.
func (f *FlakyFile) FailNextPositionedRead(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.positionedErr = err
}

// FailNextSkip arms err for the next Skip call.
func (f *FlakyFile) FailNextSkip(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.skipErr = err
}

func (f *FlakyFile) Read(p []byte) (int, error) {
	if err := f.take(&f.readErr); err != nil {
		return 0, err
	}

	return f.File.Read(p)
}

func (f *FlakyFile) Skip(n int64) error {
	if err := f.take(&f.skipErr); err != nil {
		return err
	}

	return f.File.Skip(n)
}

func (f *FlakyFile) PositionedRead(p []byte, off int64) (int, error) {
	if err := f.take(&f.positionedErr); err != nil {
		return 0, err
	}

	return f.File.PositionedRead(p, off)
}

func (f *FlakyFile) InvalidateCache(off, length int64) error {
	return f.File.InvalidateCache(off, length)
}

func (f *FlakyFile) RequiredBufferAlignment() int {
	return f.File.RequiredBufferAlignment()
}

func (f *FlakyFile) UsesDirectIO() bool {
	return f.File.UsesDirectIO()
}

// take returns the armed error, if any, and disarms it.
func (f *FlakyFile) take(slot *error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := *slot
	*slot = nil

	return err
}
