package hrtf

import (
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/internal/blob"
)

const hrirSetVersion = 1

// SerializedSize returns the size in bytes of Serialize's output.
func (s *HRIRSet) SerializedSize() uint64 {
	size := uint64(blob.HeaderSize + 4 + 4 + 8)
	size += uint64(len(s.Directions)) * 24
	for _, pair := range s.Data {
		for ear := 0; ear < NumEars; ear++ {
			size += 8 + uint64(len(pair[ear]))*4
		}
	}
	return size
}

// Serialize writes the measurement set as a self-describing byte stream.
func (s *HRIRSet) Serialize() []byte {
	w := blob.NewWriter(blob.TypeHRIRSet, hrirSetVersion)
	w.PutInt32(int32(s.SamplingRate))
	w.PutInt32(int32(s.NumSamples))
	w.PutUint64(uint64(len(s.Directions)))
	for _, d := range s.Directions {
		w.PutFloat64(d.X)
		w.PutFloat64(d.Y)
		w.PutFloat64(d.Z)
	}
	for _, pair := range s.Data {
		for ear := 0; ear < NumEars; ear++ {
			w.PutFloat32Slice(pair[ear])
		}
	}
	return w.Bytes()
}

// LoadHRIRSet parses a stream written by Serialize.
func LoadHRIRSet(data []byte) (*HRIRSet, error) {
	r, err := blob.NewReader(data, blob.TypeHRIRSet, hrirSetVersion)
	if err != nil {
		return nil, err
	}

	set := &HRIRSet{
		SamplingRate: int(r.Int32()),
		NumSamples:   int(r.Int32()),
	}
	numDirections := int(r.Uint64())
	if r.Err() != nil {
		return nil, r.Err()
	}

	set.Directions = make([]geom.Vector3, 0, numDirections)
	for i := 0; i < numDirections; i++ {
		set.Directions = append(set.Directions, geom.V(r.Float64(), r.Float64(), r.Float64()))
	}
	set.Data = make([][NumEars][]float32, numDirections)
	for i := 0; i < numDirections; i++ {
		for ear := 0; ear < NumEars; ear++ {
			set.Data[i][ear] = r.Float32Slice()
		}
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	return set, nil
}
