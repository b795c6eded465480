package sim

import (
	"math"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/sh"
)

// ImpulseResponse is a multichannel (one per SH coefficient) time-domain
// impulse response.
type ImpulseResponse struct {
	numChannels int
	numSamples  int
	data        []float32
}

// NewImpulseResponse allocates a zeroed IR of ceil(duration*samplingRate)
// samples per channel.
func NewImpulseResponse(duration float64, order, samplingRate int) *ImpulseResponse {
	numChannels := sh.NumCoeffs(order)
	numSamples := int(math.Ceil(duration * float64(samplingRate)))
	return &ImpulseResponse{
		numChannels: numChannels,
		numSamples:  numSamples,
		data:        make([]float32, numChannels*numSamples),
	}
}

// NumChannels returns the SH channel count.
func (ir *ImpulseResponse) NumChannels() int { return ir.numChannels }

// NumSamples returns the per-channel length.
func (ir *ImpulseResponse) NumSamples() int { return ir.numSamples }

// Channel returns channel i's samples.
func (ir *ImpulseResponse) Channel(i int) []float32 {
	return ir.data[i*ir.numSamples : (i+1)*ir.numSamples]
}

// Reset zeroes the IR.
func (ir *ImpulseResponse) Reset() {
	for i := range ir.data {
		ir.data[i] = 0
	}
}

// CopyImpulseResponse copies the overlapping extent of src into dst.
func CopyImpulseResponse(src, dst *ImpulseResponse) {
	numChannels := minInt(src.numChannels, dst.numChannels)
	numSamples := minInt(src.numSamples, dst.numSamples)
	for i := 0; i < numChannels; i++ {
		copy(dst.Channel(i)[:numSamples], src.Channel(i)[:numSamples])
	}
}

// SwapImpulseResponses exchanges the contents of a and b.
func SwapImpulseResponses(a, b *ImpulseResponse) {
	a.numChannels, b.numChannels = b.numChannels, a.numChannels
	a.numSamples, b.numSamples = b.numSamples, a.numSamples
	a.data, b.data = b.data, a.data
}

// AddImpulseResponses computes out = in1 + in2 over the common extent.
func AddImpulseResponses(in1, in2, out *ImpulseResponse) {
	numChannels := minInt(minInt(in1.numChannels, in2.numChannels), out.numChannels)
	numSamples := minInt(minInt(in1.numSamples, in2.numSamples), out.numSamples)
	for i := 0; i < numChannels; i++ {
		dsp.Add(numSamples, in1.Channel(i), in2.Channel(i), out.Channel(i))
	}
}

// ScaleAccumulateImpulseResponse computes out += scalar * in over the common
// extent.
func ScaleAccumulateImpulseResponse(in *ImpulseResponse, scalar float32, out *ImpulseResponse) {
	numChannels := minInt(in.numChannels, out.numChannels)
	numSamples := minInt(in.numSamples, out.numSamples)
	for i := 0; i < numChannels; i++ {
		dsp.ScaleAccumulate(numSamples, in.Channel(i), scalar, out.Channel(i))
	}
}
