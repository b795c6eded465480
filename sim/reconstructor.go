package sim

import (
	"math"
	"math/rand"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/sh"
)

// noiseSeed fixes the shared noise table so reconstruction is deterministic
// across runs and sources.
const noiseSeed = 9157

// Reconstructor turns energy fields into time-domain impulse responses. Per
// SH channel and band, each energy bin is expanded into a block of
// precomputed band-limited noise scaled so the block's short-time energy
// matches the bin, the band is shaped by its IIR band filter, and the bands
// are summed. Each band's noise table is shared by every channel and every
// source, so
// reconstruction never changes inter-channel correlation between frames.
type Reconstructor struct {
	samplingRate int
	numSamples   int
	maxOrder     int

	bandFilters [dsp.NumBands]dsp.IIRCoeffs
	noise       [dsp.NumBands][]float32
	bandIR      []float32
}

// NewReconstructor builds a reconstructor for IRs of the given maximum
// duration.
func NewReconstructor(maxDuration float64, maxOrder, samplingRate int) *Reconstructor {
	numSamples := int(math.Ceil(maxDuration * float64(samplingRate)))

	r := &Reconstructor{
		samplingRate: samplingRate,
		numSamples:   numSamples,
		maxOrder:     maxOrder,
		bandIR:       make([]float32, numSamples),
	}

	for b := 0; b < dsp.NumBands; b++ {
		r.bandFilters[b] = dsp.BandFilter(b, samplingRate)
	}

	// Per-band bandlimited noise tables. Each table is white noise shaped by
	// its band filter, normalized so that after the reconstruction pass
	// applies the band filter once more, the mean square per sample is
	// 1/samplingRate. A bin of energy E expanded at amplitude
	// sqrt(E/binDuration) then reconstructs to short-time energy E.
	rng := rand.New(rand.NewSource(noiseSeed))
	white := make([]float32, numSamples)
	for i := range white {
		white[i] = float32(rng.NormFloat64())
	}

	doubleFiltered := make([]float32, numSamples)
	for b := 0; b < dsp.NumBands; b++ {
		r.noise[b] = make([]float32, numSamples)

		filter := dsp.NewIIRFilter(r.bandFilters[b])
		filter.Apply(numSamples, white, r.noise[b])

		filter.Reset()
		filter.Apply(numSamples, r.noise[b], doubleFiltered)

		var meanSquare float64
		for _, v := range doubleFiltered {
			meanSquare += float64(v) * float64(v)
		}
		meanSquare /= float64(numSamples)
		if meanSquare > 0 {
			scale := float32(1 / math.Sqrt(meanSquare*float64(samplingRate)))
			dsp.Scale(numSamples, r.noise[b], scale, r.noise[b])
		}
	}

	return r
}

// Reconstruct renders the energy field into ir. The field's bins are spread
// over ir's duration; ir must have at least as many channels as the
// requested order implies.
func (r *Reconstructor) Reconstruct(field *EnergyField, order int, ir *ImpulseResponse) {
	ir.Reset()

	numChannels := sh.NumCoeffs(order)
	if numChannels > field.NumChannels() {
		numChannels = field.NumChannels()
	}
	if numChannels > ir.NumChannels() {
		numChannels = ir.NumChannels()
	}

	numSamples := minInt(ir.NumSamples(), r.numSamples)
	numBins := field.NumBins()
	samplesPerBin := numSamples / numBins
	if samplesPerBin == 0 {
		samplesPerBin = 1
	}

	filter := dsp.NewIIRFilter(r.bandFilters[0])

	for ch := 0; ch < numChannels; ch++ {
		out := ir.Channel(ch)

		for b := 0; b < dsp.NumBands; b++ {
			bins := field.Bins(ch, b)

			dsp.Zero(numSamples, r.bandIR)
			for bin := 0; bin < numBins; bin++ {
				start := bin * samplesPerBin
				if start >= numSamples {
					break
				}
				end := start + samplesPerBin
				if end > numSamples {
					end = numSamples
				}

				energy := bins[bin]
				if energy == 0 {
					continue
				}
				// Channel 0 energy is non-negative; higher SH channels carry
				// signed projections, so the sign rides on the amplitude.
				amplitude := float32(math.Sqrt(math.Abs(float64(energy)) / BinDuration))
				if energy < 0 {
					amplitude = -amplitude
				}
				for i := start; i < end; i++ {
					r.bandIR[i] = amplitude * r.noise[b][i]
				}
			}

			filter.SetCoeffs(r.bandFilters[b])
			filter.Reset()
			filter.Apply(numSamples, r.bandIR, r.bandIR)

			dsp.Add(numSamples, out[:numSamples], r.bandIR[:numSamples], out[:numSamples])
		}
	}
}
