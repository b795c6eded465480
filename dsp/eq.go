package dsp

// minEQGain keeps band filters driven with a nonzero gain so a band that is
// fully attenuated can still recover smoothly.
const minEQGain = 1e-4

// EQEffect is a three-band equalizer. The input is split into the engine's
// standard bands by parallel IIR filters, each band is scaled by its gain,
// and the bands are summed. Gain changes ramp linearly across the frame.
type EQEffect struct {
	frameSize  int
	filters    [NumBands]*IIRFilter
	bandBuffer []float32
	prevGains  [NumBands]float32
	firstFrame bool
}

// NewEQEffect constructs an EQ for the given settings.
func NewEQEffect(settings AudioSettings) *EQEffect {
	e := &EQEffect{
		frameSize:  settings.FrameSize,
		bandBuffer: make([]float32, settings.FrameSize),
		firstFrame: true,
	}
	for b := 0; b < NumBands; b++ {
		e.filters[b] = NewIIRFilter(BandFilter(b, settings.SamplingRate))
	}
	return e
}

// Reset zeroes all filter state and forgets previous gains.
func (e *EQEffect) Reset() {
	for _, f := range e.filters {
		f.Reset()
	}
	e.firstFrame = true
}

// NormalizedGains scales gains so the largest band gain is 1, preserving the
// spectral shape while removing overall level (which a separate gain stage
// applies). Gains are floored at a small positive value.
func NormalizedGains(gains [NumBands]float32) [NumBands]float32 {
	maxGain := gains[0]
	for _, g := range gains[1:] {
		if g > maxGain {
			maxGain = g
		}
	}
	if maxGain <= 0 {
		return [NumBands]float32{minEQGain, minEQGain, minEQGain}
	}
	var out [NumBands]float32
	for b, g := range gains {
		out[b] = maxGf32(g/maxGain, minEQGain)
	}
	return out
}

func maxGf32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Apply filters one mono frame from in to out with the given per-band gains.
func (e *EQEffect) Apply(gains [NumBands]float32, in, out *AudioBuffer) EffectState {
	n := e.frameSize
	inCh := in.Channel(0)[:n]
	outCh := out.Channel(0)[:n]
	Zero(n, outCh)

	for b := 0; b < NumBands; b++ {
		gain := maxGf32(gains[b], minEQGain)
		start := e.prevGains[b]
		if e.firstFrame {
			start = gain
		}
		e.filters[b].Apply(n, inCh, e.bandBuffer)

		step := (gain - start) / float32(n)
		g := start
		for i := 0; i < n; i++ {
			g += step
			outCh[i] += g * e.bandBuffer[i]
		}
		e.prevGains[b] = gain
	}
	e.firstFrame = false

	return TailComplete
}

// Tail produces silence. The biquad ring-down is shorter than a frame at the
// supported sampling rates, so the EQ does not report a tail.
func (e *EQEffect) Tail(out *AudioBuffer) EffectState {
	out.MakeSilent()
	return TailComplete
}
