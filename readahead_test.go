package seqread_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/seqread"
	"github.com/calvinalkan/seqread/internal/testutil"
)

// newReadahead wraps a fresh MemFile over content and requires that wrapping
// actually happened.
func newReadahead(t *testing.T, content []byte, alignment, readaheadSize int) (seqread.SequentialFile, *testutil.MemFile) {
	t.Helper()

	mem := testutil.NewMemFile(content, testutil.MemFileOptions{Alignment: alignment})

	wrapped := seqread.NewReadaheadFile(mem, readaheadSize)
	require.NotSame(t, seqread.SequentialFile(mem), wrapped, "expected the file to be wrapped")

	return wrapped, mem
}

func readN(t *testing.T, file seqread.SequentialFile, n int) []byte {
	t.Helper()

	buf := make([]byte, n)

	got, err := file.Read(buf)
	require.NoError(t, err)

	return buf[:got]
}

func Test_NewReadaheadFile_Returns_The_File_Unwrapped_When_Alignment_Caps_Readahead(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		alignment     int
		readaheadSize int
		wrap          bool
	}{
		{name: "AlignmentAboveReadahead", alignment: 4096, readaheadSize: 512, wrap: false},
		{name: "AlignmentEqualsReadahead", alignment: 4096, readaheadSize: 4096, wrap: false},
		{name: "ZeroReadahead", alignment: 512, readaheadSize: 0, wrap: false},
		{name: "AlignmentBelowReadahead", alignment: 512, readaheadSize: 4096, wrap: true},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			mem := testutil.NewMemFile(pattern(64), testutil.MemFileOptions{Alignment: testCase.alignment})
			wrapped := seqread.NewReadaheadFile(mem, testCase.readaheadSize)

			if testCase.wrap {
				require.NotSame(t, seqread.SequentialFile(mem), wrapped)
			} else {
				require.Same(t, seqread.SequentialFile(mem), wrapped)
			}
		})
	}
}

func Test_NewReadaheadFile_Rounds_The_Readahead_Up_To_The_Alignment(t *testing.T) {
	t.Parallel()

	wrapped, mem := newReadahead(t, pattern(32), 4, 6)

	require.Equal(t, pattern(32)[:1], readN(t, wrapped, 1))
	assert.Equal(t, 8, mem.LastReadLen(), "prefetch size must be 6 rounded up to alignment 4")
}

func Test_ReadaheadFile_Serves_Sequential_Reads_From_The_Cache(t *testing.T) {
	t.Parallel()

	wrapped, mem := newReadahead(t, []byte("ABCDEFGHIJKL"), 4, 8)

	require.Equal(t, "ABC", string(readN(t, wrapped, 3)))
	require.Equal(t, 1, mem.Reads(), "first read must prefetch one window")

	require.Equal(t, "DEFGH", string(readN(t, wrapped, 5)))
	require.Equal(t, 1, mem.Reads(), "second read must be served from cache")

	require.Equal(t, "IJKL", string(readN(t, wrapped, 4)))
	require.Equal(t, 2, mem.Reads(), "window boundary must trigger one refill")

	// The refill came back short (4 of 8 bytes), so end of file is known
	// and further reads must not reach the raw file.
	require.Empty(t, readN(t, wrapped, 1))
	require.Empty(t, readN(t, wrapped, 3))
	assert.Equal(t, 2, mem.RawOps(), "reads past a confirmed end of file must not issue raw I/O")
}

func Test_ReadaheadFile_Bypasses_The_Cache_For_Large_Reads(t *testing.T) {
	t.Parallel()

	content := pattern(64)
	wrapped, mem := newReadahead(t, content, 4, 8)

	require.Equal(t, content[:12], readN(t, wrapped, 12))
	assert.Equal(t, 1, mem.Reads())
	assert.Equal(t, 12, mem.LastReadLen(), "a 12-byte remainder leaves no readahead slack and must go straight through")

	require.Equal(t, content[12:14], readN(t, wrapped, 2))
	assert.Equal(t, 2, mem.Reads())
	assert.Equal(t, 8, mem.LastReadLen(), "small remainder must be served via a prefetched window")
}

func Test_ReadaheadFile_Read_Concatenation_Matches_A_Single_Read(t *testing.T) {
	t.Parallel()

	content := pattern(256)

	split, _ := newReadahead(t, content, 4, 16)
	whole, _ := newReadahead(t, content, 4, 16)

	var got []byte
	for _, size := range []int{3, 1, 9, 2, 13, 6, 31, 15, 40, 80} {
		got = append(got, readN(t, split, size)...)
	}

	want := readN(t, whole, 200)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("split reads diverge from a single read (-want +got):\n%s", diff)
	}
}

func Test_ReadaheadFile_Skip_Then_Read_Equals_Read_Then_Discard(t *testing.T) {
	t.Parallel()

	content := pattern(64)

	testCases := []struct {
		skip int64
		read int
	}{
		{skip: 3, read: 5},
		{skip: 8, read: 4},
		{skip: 1, read: 20},
		{skip: 16, read: 16},
	}

	for _, testCase := range testCases {
		wrapped, _ := newReadahead(t, content, 4, 8)

		require.NoError(t, wrapped.Skip(testCase.skip))

		got := readN(t, wrapped, testCase.read)
		want := content[testCase.skip : testCase.skip+int64(testCase.read)]
		require.Equal(t, want, got, "Skip(%d) then Read(%d)", testCase.skip, testCase.read)
	}
}

func Test_ReadaheadFile_Skip_Inside_The_Cache_Issues_No_IO(t *testing.T) {
	t.Parallel()

	content := pattern(64)
	wrapped, mem := newReadahead(t, content, 4, 8)

	require.Equal(t, content[:2], readN(t, wrapped, 2))

	require.NoError(t, wrapped.Skip(3))
	assert.Zero(t, mem.Skips(), "a skip inside the cached window must stay in memory")

	require.Equal(t, content[5:9], readN(t, wrapped, 4))
}

func Test_ReadaheadFile_Skip_Beyond_The_Cache_Forwards_The_Residual(t *testing.T) {
	t.Parallel()

	content := pattern(64)
	wrapped, mem := newReadahead(t, content, 4, 8)

	require.Equal(t, content[:2], readN(t, wrapped, 2))

	// 6 cached bytes remain; the other 14 must be skipped by the raw file.
	require.NoError(t, wrapped.Skip(20))
	assert.Equal(t, 1, mem.Skips())

	require.Equal(t, content[22:26], readN(t, wrapped, 4))
}

func Test_ReadaheadFile_Does_Not_Reread_After_End_Of_File(t *testing.T) {
	t.Parallel()

	content := pattern(10)
	wrapped, mem := newReadahead(t, content, 2, 8)

	require.Equal(t, content[:8], readN(t, wrapped, 8))
	require.Equal(t, content[8:], readN(t, wrapped, 8))

	// One more read is allowed to probe for data; it comes back empty and
	// latches end of file.
	require.Empty(t, readN(t, wrapped, 1))

	ops := mem.RawOps()

	for i := 0; i < 3; i++ {
		require.Empty(t, readN(t, wrapped, 1))
	}

	assert.Equal(t, ops, mem.RawOps(), "reads after a confirmed end of file must not issue raw I/O")
}

func Test_ReadaheadFile_InvalidateCache_Clears_And_Forwards(t *testing.T) {
	t.Parallel()

	content := pattern(32)
	wrapped, mem := newReadahead(t, content, 4, 8)

	require.Equal(t, content[:8], readN(t, wrapped, 8))
	require.Equal(t, 1, mem.Reads())

	require.NoError(t, wrapped.InvalidateCache(0, 0))
	assert.Equal(t, 1, mem.Invalidations(), "invalidation must reach the raw file")

	require.Equal(t, content[8:12], readN(t, wrapped, 4))
	assert.Equal(t, 2, mem.Reads(), "the dropped window must be refilled")
}

func Test_ReadaheadFile_PositionedRead_Bypasses_The_Cache(t *testing.T) {
	t.Parallel()

	content := pattern(32)
	wrapped, mem := newReadahead(t, content, 4, 8)

	require.Equal(t, content[:3], readN(t, wrapped, 3))

	buf := make([]byte, 16)

	n, err := wrapped.PositionedRead(buf, 16)
	require.NoError(t, err)
	require.Equal(t, content[16:32], buf[:n])
	assert.Equal(t, 1, mem.PositionedReads())

	// The sequential cursor and cache must be untouched.
	reads := mem.Reads()
	require.Equal(t, content[3:8], readN(t, wrapped, 5))
	assert.Equal(t, reads, mem.Reads())
}

func Test_ReadaheadFile_Leaves_A_Retryable_State_On_Refill_Failure(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	content := pattern(32)
	mem := testutil.NewMemFile(content, testutil.MemFileOptions{Alignment: 4})
	flaky := &testutil.FlakyFile{File: mem}
	wrapped := seqread.NewReadaheadFile(flaky, 8)

	flaky.FailNextRead(errBoom)

	n, err := wrapped.Read(make([]byte, 2))
	require.ErrorIs(t, err, errBoom)
	require.Zero(t, n)

	require.Equal(t, content[:2], readN(t, wrapped, 2), "a retry after a failed refill must succeed")
}

func Test_ReadaheadFile_Returns_The_Cached_Prefix_With_The_Error_On_Bypass_Failure(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")

	content := pattern(64)
	mem := testutil.NewMemFile(content, testutil.MemFileOptions{Alignment: 4})
	flaky := &testutil.FlakyFile{File: mem}
	wrapped := seqread.NewReadaheadFile(flaky, 8)

	require.Equal(t, content[:6], readN(t, wrapped, 6))

	flaky.FailNextRead(errBoom)

	buf := make([]byte, 10)

	n, err := wrapped.Read(buf)
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, content[6:8], buf[:n], "the cached prefix must still be delivered")

	require.Equal(t, content[8:16], readN(t, wrapped, 8), "position must reflect only confirmed bytes")
}

func Test_ReadaheadFile_Reports_The_Wrapped_Files_Alignment_And_Mode(t *testing.T) {
	t.Parallel()

	mem := testutil.NewMemFile(pattern(32), testutil.MemFileOptions{Alignment: 4, DirectIO: true})
	wrapped := seqread.NewReadaheadFile(mem, 8)

	assert.Equal(t, 4, wrapped.RequiredBufferAlignment())
	assert.True(t, wrapped.UsesDirectIO())
}
