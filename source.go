package aural

import (
	"container/heap"
	"sync"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/effects"
	"github.com/auralab/aural/geom"
)

// SourceHandle identifies a simulation source registered with a
// SourceManager. Handles are small integers, stable until the source is
// removed, and reused afterwards.
type SourceHandle int32

// DirectOutputs are the simulator's direct-path results for one source.
type DirectOutputs struct {
	// Direction from the listener to the source, in the listener frame.
	Direction geom.Vector3

	Distance float64

	DistanceAttenuation float32
	AirAbsorption       [dsp.NumBands]float32
	Directivity         float32
	Occlusion           float32
	Transmission        [dsp.NumBands]float32
}

// PathingOutputs are the simulator's pathing results for one source.
type PathingOutputs struct {
	Order    int
	EQCoeffs [dsp.NumBands]float32
	SHCoeffs []float32
}

// SimulationOutputs is the immutable bundle a simulation pass publishes for
// one source. The audio thread samples it through the source's handoff slot.
type SimulationOutputs struct {
	Direct      DirectOutputs
	Reflections *ReflectionsData
	Pathing     *PathingOutputs
}

// SimulationFlags selects which outputs GetOutputs should include.
type SimulationFlags uint32

const (
	SimulateDirect SimulationFlags = 1 << iota
	SimulateReflections
	SimulatePathing
)

// Source is a sound source shared between the simulation and audio threads.
// The simulator publishes outputs with SetOutputs; the audio thread calls
// GetOutputs, which is wait-free.
type Source struct {
	handle  SourceHandle
	outputs Handoff[SimulationOutputs]
}

// Handle returns the source's registry handle.
func (s *Source) Handle() SourceHandle { return s.handle }

// SetOutputs publishes a new outputs bundle. outputs must not be mutated
// after publication.
func (s *Source) SetOutputs(outputs *SimulationOutputs) {
	s.outputs.Publish(outputs)
}

// GetOutputs snapshots the current outputs, masking out components not
// requested by flags. Must be called from the audio thread.
func (s *Source) GetOutputs(flags SimulationFlags) SimulationOutputs {
	published := s.outputs.Snapshot()
	if published == nil {
		return SimulationOutputs{}
	}
	out := *published
	if flags&SimulateReflections == 0 {
		out.Reflections = nil
	}
	if flags&SimulatePathing == 0 {
		out.Pathing = nil
	}
	return out
}

// DirectParams converts the direct outputs into direct-effect parameters.
func (o DirectOutputs) DirectParams(flags effects.DirectEffectFlags) effects.DirectParams {
	return effects.DirectParams{
		Flags:               flags,
		DistanceAttenuation: o.DistanceAttenuation,
		AirAbsorption:       o.AirAbsorption,
		Directivity:         o.Directivity,
		Occlusion:           o.Occlusion,
		Transmission:        o.Transmission,
	}
}

// handleHeap is a min-heap of freed handles, so the smallest freed handle is
// reused first.
type handleHeap []SourceHandle

func (h handleHeap) Len() int            { return len(h) }
func (h handleHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h handleHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *handleHeap) Push(x interface{}) { *h = append(*h, x.(SourceHandle)) }
func (h *handleHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// SourceManager assigns integer handles to sources. The mutex guards only
// the handle table; it is never held around simulation work, and the audio
// thread does not take it (sources are resolved before the callback).
type SourceManager struct {
	mu          sync.Mutex
	sources     map[SourceHandle]*Source
	freeHandles handleHeap
	nextHandle  SourceHandle
}

// NewSourceManager returns an empty registry.
func NewSourceManager() *SourceManager {
	return &SourceManager{sources: make(map[SourceHandle]*Source)}
}

// AddSource registers a new source and returns it. Freed handles are reused
// smallest-first; otherwise a new handle is minted.
func (m *SourceManager) AddSource() *Source {
	m.mu.Lock()
	defer m.mu.Unlock()

	var handle SourceHandle
	if len(m.freeHandles) > 0 {
		handle = heap.Pop(&m.freeHandles).(SourceHandle)
	} else {
		handle = m.nextHandle
		m.nextHandle++
	}

	source := &Source{handle: handle}
	m.sources[handle] = source
	return source
}

// RemoveSource unregisters a handle, returning its slot to the free heap.
func (m *SourceManager) RemoveSource(handle SourceHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sources[handle]; !ok {
		return ErrInvalidHandle
	}
	delete(m.sources, handle)
	heap.Push(&m.freeHandles, handle)
	return nil
}

// GetSource resolves a handle, returning nil if it is not registered.
func (m *SourceManager) GetSource(handle SourceHandle) *Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sources[handle]
}

// NumSources returns the number of registered sources.
func (m *SourceManager) NumSources() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}
