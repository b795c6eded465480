package sim

import (
	"sync/atomic"

	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/internal/blob"
	"github.com/auralab/aural/internal/sampling"
	"github.com/auralab/aural/scene"
)

// ProbeVisibilityTester decides whether two probes can see each other.
type ProbeVisibilityTester struct {
	samples            []geom.Vector3
	asymmetricVisRange bool
	down               geom.Vector3
}

// NewProbeVisibilityTester builds a tester. With numSamples > 1, visibility
// is volumetric: numSamples points are generated inside each probe's sphere
// and ray pairs are traced between them. With numSamples <= 1 the test is
// point to point. When asymmetricVisRange is set, range checks ignore the
// component along down. Identical seeds produce identical testers.
func NewProbeVisibilityTester(numSamples int, asymmetricVisRange bool, down geom.Vector3, seed int64) *ProbeVisibilityTester {
	t := &ProbeVisibilityTester{
		asymmetricVisRange: asymmetricVisRange,
		down:               down.Normalize(),
	}
	if numSamples > 1 {
		t.samples = make([]geom.Vector3, numSamples)
		sampling.SphereVolumeSamples(t.samples, seed)
	}
	return t
}

// AreProbesVisible tests mutual visibility of probes from and to. For the
// volumetric test, point pairs are traced until the fraction of unoccluded
// pairs reaches threshold (early exit) or the samples run out.
func (t *ProbeVisibilityTester) AreProbesVisible(sc scene.IScene, probes *ProbeBatch, from, to int, radius, threshold float64) bool {
	fromCenter := probes.Probe(from).Influence.Center
	toCenter := probes.Probe(to).Influence.Center

	if len(t.samples) == 0 || radius <= 0 {
		return !sc.IsOccluded(fromCenter, toCenter)
	}

	numSamples := len(t.samples)
	numVisible := 0

	for i := 0; i < numSamples; i++ {
		fromSample := sampling.TransformSphereVolumeSample(t.samples[i], geom.Sphere{Center: fromCenter, Radius: radius})
		if sc.IsOccluded(fromCenter, fromSample) {
			continue
		}

		for j := 0; j < numSamples; j++ {
			toSample := sampling.TransformSphereVolumeSample(t.samples[j], geom.Sphere{Center: toCenter, Radius: radius})
			if sc.IsOccluded(toCenter, toSample) {
				continue
			}

			if !sc.IsOccluded(fromSample, toSample) {
				numVisible++
				if float64(numVisible)/float64(numSamples*numSamples) >= threshold {
					return true
				}
			}
		}
	}

	return false
}

// AreProbesTooFar reports whether two probes exceed the visibility range.
func (t *ProbeVisibilityTester) AreProbesTooFar(probes *ProbeBatch, from, to int, visRange float64) bool {
	d := probes.Probe(from).Influence.Center.Sub(probes.Probe(to).Influence.Center)
	if t.asymmetricVisRange {
		d = d.Sub(t.down.Mul(d.Dot(t.down)))
	}
	return d.Norm() > visRange
}

// ProgressCallback reports fractional progress of a long-running bake.
type ProgressCallback func(progress float64)

// ProbeVisibilityGraph is an undirected graph over probe indices; an edge
// means the two probes are mutually visible.
type ProbeVisibilityGraph struct {
	adjacent [][]int32
}

// NewProbeVisibilityGraph builds the graph by testing every unordered probe
// pair, skipping pairs beyond visRange. The build honors the cancel flag
// between rows and reports progress through the optional callback. Given the
// same scene version and tester seed, two builds produce identical
// adjacency.
func NewProbeVisibilityGraph(sc scene.IScene, probes *ProbeBatch, tester *ProbeVisibilityTester,
	radius, threshold, visRange float64, cancel *atomic.Bool, progress ProgressCallback) *ProbeVisibilityGraph {

	numProbes := probes.NumProbes()
	g := &ProbeVisibilityGraph{adjacent: make([][]int32, numProbes)}

	totalPairs := numProbes * (numProbes - 1) / 2
	pairsProcessed := 0

	for i := 0; i < numProbes; i++ {
		for j := 0; j < i; j++ {
			pairsProcessed++

			if tester.AreProbesTooFar(probes, i, j, visRange) {
				continue
			}
			if !tester.AreProbesVisible(sc, probes, i, j, radius, threshold) {
				continue
			}

			g.adjacent[i] = append(g.adjacent[i], int32(j))
			g.adjacent[j] = append(g.adjacent[j], int32(i))
		}

		if cancel != nil && cancel.Load() {
			return g
		}
		if progress != nil && totalPairs > 0 {
			progress(float64(pairsProcessed) / float64(totalPairs))
		}
	}

	return g
}

// NumProbes returns the node count.
func (g *ProbeVisibilityGraph) NumProbes() int { return len(g.adjacent) }

// HasEdge reports whether probes from and to are mutually visible.
func (g *ProbeVisibilityGraph) HasEdge(from, to int) bool {
	for _, j := range g.adjacent[from] {
		if int(j) == to {
			return true
		}
	}
	return false
}

// Adjacent returns the neighbor list of a probe.
func (g *ProbeVisibilityGraph) Adjacent(probe int) []int32 {
	return g.adjacent[probe]
}

// Prune removes edges between probes that are now farther apart than
// visRange.
func (g *ProbeVisibilityGraph) Prune(probes *ProbeBatch, tester *ProbeVisibilityTester, visRange float64) {
	for i := range g.adjacent {
		kept := g.adjacent[i][:0]
		for _, j := range g.adjacent[i] {
			if !tester.AreProbesTooFar(probes, i, int(j), visRange) {
				kept = append(kept, j)
			}
		}
		g.adjacent[i] = kept
	}
}

const visibilityGraphVersion = 1

// SerializedSize returns the size in bytes of Serialize's output.
func (g *ProbeVisibilityGraph) SerializedSize() uint64 {
	size := uint64(blob.HeaderSize) + 8
	for i, edges := range g.adjacent {
		size += 8
		for _, j := range edges {
			if int(j) < i {
				size += 4
			}
		}
	}
	return size
}

// Serialize writes the graph as a self-describing byte stream. Only edges to
// lower-numbered probes are stored; loading mirrors them.
func (g *ProbeVisibilityGraph) Serialize() []byte {
	w := blob.NewWriter(blob.TypeVisibilityGraph, visibilityGraphVersion)
	w.PutUint64(uint64(len(g.adjacent)))
	for i, edges := range g.adjacent {
		var lower []int32
		for _, j := range edges {
			if int(j) < i {
				lower = append(lower, j)
			}
		}
		w.PutInt32Slice(lower)
	}
	return w.Bytes()
}

// LoadProbeVisibilityGraph parses a stream written by Serialize.
func LoadProbeVisibilityGraph(data []byte) (*ProbeVisibilityGraph, error) {
	r, err := blob.NewReader(data, blob.TypeVisibilityGraph, visibilityGraphVersion)
	if err != nil {
		return nil, err
	}
	numProbes := int(r.Uint64())
	if r.Err() != nil {
		return nil, r.Err()
	}

	g := &ProbeVisibilityGraph{adjacent: make([][]int32, numProbes)}
	for i := 0; i < numProbes; i++ {
		g.adjacent[i] = r.Int32Slice()
	}
	if r.Err() != nil {
		return nil, r.Err()
	}

	for i := 0; i < numProbes; i++ {
		for _, j := range g.adjacent[i] {
			if int(j) < i {
				g.adjacent[j] = append(g.adjacent[j], int32(i))
			}
		}
	}

	return g, nil
}
