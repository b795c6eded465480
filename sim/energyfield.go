// Package sim implements the acoustic simulation layer: listener-centric
// Monte-Carlo reflection simulation into energy fields, reconstruction of
// impulse responses from those fields, and probe visibility graphs for
// pathing.
package sim

import (
	"math"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/internal/blob"
	"github.com/auralab/aural/sh"
)

// BinDuration is the temporal resolution of an energy field, in seconds.
const BinDuration = 1e-2

// EnergyField is a listener-centric, SH-projected, banded energy histogram:
// numChannels SH channels x NumBands bands x numBins time bins of
// non-negative energy. Fields accumulate additively across sources, bounces,
// and worker threads.
type EnergyField struct {
	numChannels int
	numBins     int
	data        []float32 // channel-major, then band, then bin
}

// NewEnergyField allocates a zeroed field covering the given duration at the
// given Ambisonic order.
func NewEnergyField(duration float64, order int) *EnergyField {
	numChannels := sh.NumCoeffs(order)
	numBins := int(math.Ceil(duration / BinDuration))
	return &EnergyField{
		numChannels: numChannels,
		numBins:     numBins,
		data:        make([]float32, numChannels*dsp.NumBands*numBins),
	}
}

// NumChannels returns the SH channel count.
func (f *EnergyField) NumChannels() int { return f.numChannels }

// NumBins returns the time bin count.
func (f *EnergyField) NumBins() int { return f.numBins }

// Bins returns the bin slice for one channel and band.
func (f *EnergyField) Bins(channel, band int) []float32 {
	offset := (channel*dsp.NumBands + band) * f.numBins
	return f.data[offset : offset+f.numBins]
}

// Data returns the flat backing array.
func (f *EnergyField) Data() []float32 { return f.data }

// Reset zeroes the field.
func (f *EnergyField) Reset() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// CopyFrom copies the overlapping extent of other into f.
func (f *EnergyField) CopyFrom(other *EnergyField) {
	numChannels := minInt(f.numChannels, other.numChannels)
	numBins := minInt(f.numBins, other.numBins)
	for i := 0; i < numChannels; i++ {
		for b := 0; b < dsp.NumBands; b++ {
			copy(f.Bins(i, b)[:numBins], other.Bins(i, b)[:numBins])
		}
	}
}

// AddEnergyFields computes out = in1 + in2 over the common extent.
func AddEnergyFields(in1, in2, out *EnergyField) {
	numChannels := minInt(minInt(in1.numChannels, in2.numChannels), out.numChannels)
	numBins := minInt(minInt(in1.numBins, in2.numBins), out.numBins)
	for i := 0; i < numChannels; i++ {
		for b := 0; b < dsp.NumBands; b++ {
			dsp.Add(numBins, in1.Bins(i, b), in2.Bins(i, b), out.Bins(i, b))
		}
	}
}

// ScaleEnergyField computes out = scalar * in over the common extent.
func ScaleEnergyField(in *EnergyField, scalar float32, out *EnergyField) {
	numChannels := minInt(in.numChannels, out.numChannels)
	numBins := minInt(in.numBins, out.numBins)
	for i := 0; i < numChannels; i++ {
		for b := 0; b < dsp.NumBands; b++ {
			dsp.Scale(numBins, in.Bins(i, b), scalar, out.Bins(i, b))
		}
	}
}

// ScaleAccumulateEnergyField computes out += scalar * in over the common
// extent.
func ScaleAccumulateEnergyField(in *EnergyField, scalar float32, out *EnergyField) {
	numChannels := minInt(in.numChannels, out.numChannels)
	numBins := minInt(in.numBins, out.numBins)
	for i := 0; i < numChannels; i++ {
		for b := 0; b < dsp.NumBands; b++ {
			dsp.ScaleAccumulate(numBins, in.Bins(i, b), scalar, out.Bins(i, b))
		}
	}
}

const energyFieldVersion = 1

// SerializedSize returns the size in bytes of Serialize's output.
func (f *EnergyField) SerializedSize() uint64 {
	return uint64(blob.HeaderSize) + 8 + 8 + uint64(len(f.data))*4
}

// Serialize writes the field as a self-describing byte stream.
func (f *EnergyField) Serialize() []byte {
	w := blob.NewWriter(blob.TypeEnergyField, energyFieldVersion)
	w.PutInt32(int32(f.numChannels))
	w.PutInt32(int32(f.numBins))
	w.PutFloat32Slice(f.data)
	return w.Bytes()
}

// LoadEnergyField parses a stream written by Serialize.
func LoadEnergyField(data []byte) (*EnergyField, error) {
	r, err := blob.NewReader(data, blob.TypeEnergyField, energyFieldVersion)
	if err != nil {
		return nil, err
	}
	numChannels := int(r.Int32())
	numBins := int(r.Int32())
	flat := r.Float32Slice()
	if r.Err() != nil {
		return nil, r.Err()
	}
	if numChannels <= 0 || numBins <= 0 || len(flat) != numChannels*dsp.NumBands*numBins {
		return nil, blob.ErrFormat
	}
	return &EnergyField{numChannels: numChannels, numBins: numBins, data: flat}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
