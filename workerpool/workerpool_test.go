package workerpool_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/sparsekit/workerpool"
)

func TestNewDefaultsToGOMAXPROCS(t *testing.T) {
	pool := workerpool.New(0)
	defer pool.Close()

	require.Equal(t, runtime.GOMAXPROCS(0), pool.Workers())
}

func TestStaticCoversEveryIndexOnce(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	for _, n := range []int{1, 3, 4, 5, 97, 1000} {
		hits := make([]int32, n)
		pool.Static(n, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			require.EqualValuesf(t, 1, h, "n=%d index %d", n, i)
		}
	}
}

func TestDynamicCoversEveryIndexOnce(t *testing.T) {
	pool := workerpool.New(3)
	defer pool.Close()

	for _, batch := range []int{0, 1, 7, 64} {
		n := 250
		hits := make([]int32, n)
		pool.Dynamic(n, batch, func(lo, hi int) {
			assert.LessOrEqual(t, hi, n)
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			require.EqualValuesf(t, 1, h, "batch=%d index %d", batch, i)
		}
	}
}

func TestEmptyRangeIsNoop(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Close()

	called := false
	pool.Static(0, func(int, int) { called = true })
	pool.Dynamic(-1, 4, func(int, int) { called = true })
	require.False(t, called)
}

func TestClosedPoolRunsInline(t *testing.T) {
	pool := workerpool.New(4)
	pool.Close()
	pool.Close() // second close is a no-op

	var sum int
	pool.Static(10, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			sum += i
		}
	})
	require.Equal(t, 45, sum)
}

func TestCloseRacingWithCalls(t *testing.T) {
	for round := range 20 {
		pool := workerpool.New(4)
		start := make(chan struct{})
		var wg sync.WaitGroup
		var total atomic.Int64
		for g := range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				for range 50 {
					run := func(lo, hi int) { total.Add(int64(hi - lo)) }
					if g%2 == 0 {
						pool.Static(16, run)
					} else {
						pool.Dynamic(16, 3, run)
					}
				}
			}()
		}
		close(start)
		pool.Close() // lands anywhere among the calls
		wg.Wait()
		require.EqualValuesf(t, 8*50*16, total.Load(), "round %d", round)
	}
}
