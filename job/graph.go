// Package job provides the work-distribution primitives used by the
// simulators: a single-producer many-consumer job graph and a fixed pool of
// worker goroutines that drain it.
package job

import "sync/atomic"

// Callback is one unit of work. threadID identifies the executing worker
// (0-based) so jobs can use per-thread scratch; cancel should be observed at
// coarse boundaries.
type Callback func(threadID int, cancel *atomic.Bool)

type jobEntry struct {
	run Callback
}

// Graph is a single-producer, many-consumer queue of cancelable jobs. All
// jobs are added before consumers start; consumers then race on an atomic
// index. A Graph may be reused after Reset.
type Graph struct {
	jobs          []jobEntry
	consumerIndex atomic.Int64
}

// NewGraph returns an empty job graph.
func NewGraph() *Graph {
	g := &Graph{}
	g.Reset()
	return g
}

// IsEmpty reports whether the graph holds no jobs.
func (g *Graph) IsEmpty() bool {
	return len(g.jobs) == 0
}

// Reset clears the job list and rewinds the consumer index. Must not be
// called while consumers are running.
func (g *Graph) Reset() {
	g.jobs = g.jobs[:0]
	g.consumerIndex.Store(-1)
}

// AddJob appends a job. Jobs must all be added before the first
// ProcessNextJob call.
func (g *Graph) AddJob(callback Callback) {
	g.jobs = append(g.jobs, jobEntry{run: callback})
}

// ProcessNextJob claims and runs the next unclaimed job, if any. It returns
// true while work may still be available and false once every job has been
// claimed. Safe to call concurrently from any number of consumers; each job
// runs exactly once.
func (g *Graph) ProcessNextJob(threadID int, cancel *atomic.Bool) bool {
	size := int64(len(g.jobs))
	if size == 0 {
		return false
	}
	if g.consumerIndex.Load() >= size-1 {
		return false
	}

	// The increment comes after the bounds check so a long-running drain
	// cannot overflow the index.
	index := g.consumerIndex.Add(1)
	if index < size {
		g.jobs[index].run(threadID, cancel)
	}

	return true
}
