package job

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestGraphEmpty(t *testing.T) {
	g := NewGraph()
	var cancel atomic.Bool

	require.True(t, g.IsEmpty())
	require.False(t, g.ProcessNextJob(0, &cancel))
}

func TestGraphRunsAllJobsOnce(t *testing.T) {
	g := NewGraph()
	const numJobs = 100

	counts := make([]atomic.Int32, numJobs)
	for i := 0; i < numJobs; i++ {
		i := i
		g.AddJob(func(threadID int, cancel *atomic.Bool) {
			counts[i].Add(1)
		})
	}

	var cancel atomic.Bool
	for g.ProcessNextJob(0, &cancel) {
	}

	for i := range counts {
		require.Equal(t, int32(1), counts[i].Load(), "job %d", i)
	}
	require.False(t, g.ProcessNextJob(0, &cancel), "drained graph must report no work")
}

// TestGraphConcurrentExactlyOnce drains one graph from many goroutines and
// verifies each job runs exactly once.
func TestGraphConcurrentExactlyOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numJobs := rapid.IntRange(1, 200).Draw(t, "numJobs")
		numWorkers := rapid.IntRange(1, 8).Draw(t, "numWorkers")

		g := NewGraph()
		counts := make([]atomic.Int32, numJobs)
		for i := 0; i < numJobs; i++ {
			i := i
			g.AddJob(func(threadID int, cancel *atomic.Bool) {
				counts[i].Add(1)
			})
		}

		var cancel atomic.Bool
		var wg sync.WaitGroup
		for w := 0; w < numWorkers; w++ {
			wg.Add(1)
			go func(threadID int) {
				defer wg.Done()
				for g.ProcessNextJob(threadID, &cancel) {
				}
			}(w)
		}
		wg.Wait()

		for i := range counts {
			if counts[i].Load() != 1 {
				t.Fatalf("job %d ran %d times", i, counts[i].Load())
			}
		}
	})
}

func TestGraphReset(t *testing.T) {
	g := NewGraph()
	var ran atomic.Int32
	g.AddJob(func(int, *atomic.Bool) { ran.Add(1) })

	var cancel atomic.Bool
	for g.ProcessNextJob(0, &cancel) {
	}
	require.Equal(t, int32(1), ran.Load())

	g.Reset()
	require.True(t, g.IsEmpty())

	g.AddJob(func(int, *atomic.Bool) { ran.Add(1) })
	for g.ProcessNextJob(0, &cancel) {
	}
	require.Equal(t, int32(2), ran.Load())
}

func TestPoolProcessesGraph(t *testing.T) {
	g := NewGraph()
	const numJobs = 64

	var ran atomic.Int32
	for i := 0; i < numJobs; i++ {
		g.AddJob(func(threadID int, cancel *atomic.Bool) {
			ran.Add(1)
		})
	}

	pool := NewPool(4)
	require.NoError(t, pool.Process(context.Background(), g))
	require.Equal(t, int32(numJobs), ran.Load())
}

func TestPoolThreadIDsInRange(t *testing.T) {
	g := NewGraph()
	const numJobs = 256

	var bad atomic.Int32
	for i := 0; i < numJobs; i++ {
		g.AddJob(func(threadID int, cancel *atomic.Bool) {
			if threadID < 0 || threadID >= 3 {
				bad.Add(1)
			}
		})
	}

	pool := NewPool(3)
	require.NoError(t, pool.Process(context.Background(), g))
	require.Zero(t, bad.Load())
}

func TestPoolCancellation(t *testing.T) {
	g := NewGraph()

	var started atomic.Int32
	release := make(chan struct{})
	for i := 0; i < 1000; i++ {
		g.AddJob(func(threadID int, cancel *atomic.Bool) {
			if started.Add(1) == 1 {
				<-release
			}
			time.Sleep(100 * time.Microsecond)
		})
	}

	pool := NewPool(1)
	ctx, cancelCtx := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- pool.Process(ctx, g) }()

	// Wait for the first job to start, then cancel; the worker must stop at
	// the next job boundary instead of draining all 1000 jobs.
	for started.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancelCtx()
	close(release)

	err := <-done
	require.Error(t, err)
	require.Less(t, started.Load(), int32(1000))
}
