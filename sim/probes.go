package sim

import (
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/internal/blob"
)

// Probe is a discrete point at which acoustic data is stored, with an
// influence sphere describing where that data applies.
type Probe struct {
	Influence geom.Sphere
}

// ProbeBatch is an ordered collection of probes.
type ProbeBatch struct {
	probes []Probe
}

// NewProbeBatch returns an empty batch.
func NewProbeBatch() *ProbeBatch {
	return &ProbeBatch{}
}

// NumProbes returns the probe count.
func (p *ProbeBatch) NumProbes() int { return len(p.probes) }

// Probe returns probe i.
func (p *ProbeBatch) Probe(i int) Probe { return p.probes[i] }

// AddProbe appends a probe.
func (p *ProbeBatch) AddProbe(probe Probe) {
	p.probes = append(p.probes, probe)
}

const probeBatchVersion = 1

// SerializedSize returns the size in bytes of Serialize's output.
func (p *ProbeBatch) SerializedSize() uint64 {
	return uint64(blob.HeaderSize) + 8 + uint64(len(p.probes))*32
}

// Serialize writes the batch as a self-describing byte stream.
func (p *ProbeBatch) Serialize() []byte {
	w := blob.NewWriter(blob.TypeProbeBatch, probeBatchVersion)
	w.PutUint64(uint64(len(p.probes)))
	for _, probe := range p.probes {
		w.PutFloat64(probe.Influence.Center.X)
		w.PutFloat64(probe.Influence.Center.Y)
		w.PutFloat64(probe.Influence.Center.Z)
		w.PutFloat64(probe.Influence.Radius)
	}
	return w.Bytes()
}

// LoadProbeBatch parses a stream written by Serialize.
func LoadProbeBatch(data []byte) (*ProbeBatch, error) {
	r, err := blob.NewReader(data, blob.TypeProbeBatch, probeBatchVersion)
	if err != nil {
		return nil, err
	}
	numProbes := int(r.Uint64())
	if r.Err() != nil {
		return nil, r.Err()
	}
	batch := &ProbeBatch{probes: make([]Probe, 0, numProbes)}
	for i := 0; i < numProbes; i++ {
		batch.probes = append(batch.probes, Probe{
			Influence: geom.Sphere{
				Center: geom.V(r.Float64(), r.Float64(), r.Float64()),
				Radius: r.Float64(),
			},
		})
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	return batch, nil
}
