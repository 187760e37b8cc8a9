package seqread

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ReadStats_Counts_Bytes_Across_Goroutines(t *testing.T) {
	t.Parallel()

	var stats ReadStats

	const (
		goroutines = 8
		perG       = 1000
	)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < perG; j++ {
				stats.AddBytesRead(3)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int64(goroutines*perG*3), stats.BytesRead())

	stats.Reset()
	assert.Zero(t, stats.BytesRead())
}
