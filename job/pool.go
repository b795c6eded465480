package job

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pool runs job graphs on a fixed set of worker goroutines. Workers suspend
// only at job boundaries; cancellation is cooperative through the shared
// cancel flag.
type Pool struct {
	numWorkers int
	cancel     atomic.Bool
}

// NewPool creates a pool with the given number of workers. numWorkers must
// be at least 1.
func NewPool(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{numWorkers: numWorkers}
}

// NumWorkers returns the worker count.
func (p *Pool) NumWorkers() int { return p.numWorkers }

// Cancel requests that in-flight graphs stop at the next job boundary.
// In-flight jobs may still complete.
func (p *Pool) Cancel() { p.cancel.Store(true) }

// CancelFlag exposes the shared cancel flag for jobs that poll it directly.
func (p *Pool) CancelFlag() *atomic.Bool { return &p.cancel }

// Process drains the graph with all workers and blocks until every job has
// run or the pool is canceled. The context bounds the whole drain; a context
// cancellation raises the pool's cancel flag so workers exit at the next
// boundary.
func (p *Pool) Process(ctx context.Context, graph *Graph) error {
	p.cancel.Store(false)

	group, groupCtx := errgroup.WithContext(ctx)

	done := make(chan struct{})
	go func() {
		select {
		case <-groupCtx.Done():
			p.cancel.Store(true)
		case <-done:
		}
	}()

	for worker := 0; worker < p.numWorkers; worker++ {
		threadID := worker
		group.Go(func() error {
			for !p.cancel.Load() {
				if !graph.ProcessNextJob(threadID, &p.cancel) {
					return nil
				}
			}
			return nil
		})
	}

	err := group.Wait()
	close(done)
	if err == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
