// Package effects implements the frame-based audio effects of the engine:
// partitioned overlap-add convolution, binaural spatialization, Ambisonic
// rotation, panning and decoding, the direct-path gain chain, and the path
// effect. Every effect follows the same lifecycle: construct with
// AudioSettings plus effect settings, call Apply once per frame, drain with
// Tail when the input goes idle, and Reset to discard state.
package effects

import (
	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/internal/fftx"
)

// OverlapAddSettings configures an overlap-add convolution effect.
type OverlapAddSettings struct {
	// NumChannels is the number of IRs convolved against the mono input,
	// typically 1 or 2 (one per ear).
	NumChannels int

	// IRSize is the time-domain impulse-response length in samples.
	IRSize int
}

// OverlapAddParams are the per-frame parameters.
type OverlapAddParams struct {
	// FFTIRs holds one frequency-domain IR per channel, in the partitioned
	// layout produced by the HRTF database (NumSpectrumSamples bins each).
	// Entries may be nil, in which case the channel produces silence.
	FFTIRs [][]complex64
}

// OverlapAddEffect convolves a mono input against up to NumChannels
// frequency-domain impulse responses using uniform partitioned overlap-add
// convolution. The input spectra of the last NumPartitions frames are kept in
// a frequency-domain delay line, so each frame costs one forward FFT, one
// complex multiply-accumulate per partition per channel, and one inverse FFT
// per channel.
type OverlapAddEffect struct {
	settings dsp.AudioSettings
	plan     fftx.Plan
	fft      *fftx.FFT

	numChannels int

	// Frequency-domain delay line of input spectra. dlineHead indexes the
	// most recent frame's spectrum.
	dline     [][]complex64
	dlineHead int

	accum    []complex64
	block    []float32
	overlap  [][]float32
	silentIn *dsp.AudioBuffer

	// lastIRs are the IRs from the most recent Apply, reused by Tail so the
	// delay line keeps convolving while it drains.
	lastIRs [][]complex64

	tailSamplesRemaining int
}

// NewOverlapAddEffect constructs the effect. The frame size and IR size fix
// the partitioning for the effect's lifetime.
func NewOverlapAddEffect(audioSettings dsp.AudioSettings, settings OverlapAddSettings) *OverlapAddEffect {
	plan := fftx.NewPlan(audioSettings.FrameSize, settings.IRSize)

	e := &OverlapAddEffect{
		settings:    audioSettings,
		plan:        plan,
		fft:         fftx.New(plan.FFTSize),
		numChannels: settings.NumChannels,
		dline:       make([][]complex64, plan.NumPartitions),
		accum:       make([]complex64, plan.BlockBins),
		block:       make([]float32, plan.FFTSize),
		overlap:     make([][]float32, settings.NumChannels),
		silentIn:    dsp.NewAudioBuffer(1, audioSettings.FrameSize),
		lastIRs:     make([][]complex64, settings.NumChannels),
	}
	for i := range e.dline {
		e.dline[i] = make([]complex64, plan.BlockBins)
	}
	for i := range e.overlap {
		e.overlap[i] = make([]float32, plan.FFTSize-plan.FrameSize)
	}
	return e
}

// Reset discards the delay line, overlap history, and tail bookkeeping.
func (e *OverlapAddEffect) Reset() {
	for _, spectrum := range e.dline {
		for i := range spectrum {
			spectrum[i] = 0
		}
	}
	for _, ov := range e.overlap {
		dsp.Zero(len(ov), ov)
	}
	e.dlineHead = 0
	e.tailSamplesRemaining = 0
	for i := range e.lastIRs {
		e.lastIRs[i] = nil
	}
}

// Apply convolves one frame. in must be mono; out must have at least as many
// channels as IRs were supplied. Returns TailRemaining while convolved energy
// from past non-silent input is still draining.
func (e *OverlapAddEffect) Apply(params OverlapAddParams, in, out *dsp.AudioBuffer) dsp.EffectState {
	frame := in.Channel(0)[:e.settings.FrameSize]

	silentInput := true
	for _, s := range frame {
		if s != 0 {
			silentInput = false
			break
		}
	}
	if silentInput {
		e.advanceTail()
	} else {
		e.tailSamplesRemaining = e.plan.TailSamples()
	}

	// Push this frame's spectrum into the delay line.
	e.dlineHead--
	if e.dlineHead < 0 {
		e.dlineHead = len(e.dline) - 1
	}
	e.fft.Forward(frame, e.dline[e.dlineHead])

	numChannels := e.numChannels
	if numChannels > out.NumChannels() {
		numChannels = out.NumChannels()
	}
	if numChannels > len(params.FFTIRs) {
		numChannels = len(params.FFTIRs)
	}

	out.MakeSilent()

	for ch := 0; ch < numChannels; ch++ {
		ir := params.FFTIRs[ch]
		e.lastIRs[ch] = ir
		if ir == nil {
			e.advanceOverlap(ch, out.Channel(ch))
			continue
		}

		for i := range e.accum {
			e.accum[i] = 0
		}
		for part := 0; part < e.plan.NumPartitions; part++ {
			spectrum := e.dline[(e.dlineHead+part)%len(e.dline)]
			irPart := ir[part*e.plan.BlockBins : (part+1)*e.plan.BlockBins]
			fftx.MultiplyAccumulate(spectrum, irPart, e.accum)
		}

		e.fft.Inverse(e.accum, e.block)

		outCh := out.Channel(ch)
		overlap := e.overlap[ch]
		frameSize := e.plan.FrameSize

		// First frameSize samples plus carried overlap go out now.
		copy(outCh, e.block[:frameSize])
		dsp.Add(min(frameSize, len(overlap)), outCh, overlap, outCh)

		// Shift the overlap buffer forward a frame and fold in this block's
		// tail.
		e.shiftOverlap(overlap, frameSize)
		dsp.Add(len(overlap), overlap, e.block[frameSize:], overlap)
	}

	return e.state()
}

// advanceOverlap emits the remaining overlap for a channel with a nil IR so
// that switching IRs off still drains cleanly.
func (e *OverlapAddEffect) advanceOverlap(ch int, outCh []float32) {
	overlap := e.overlap[ch]
	frameSize := e.plan.FrameSize
	n := min(frameSize, len(overlap))
	copy(outCh[:n], overlap[:n])
	e.shiftOverlap(overlap, frameSize)
}

func (e *OverlapAddEffect) shiftOverlap(overlap []float32, frameSize int) {
	if frameSize >= len(overlap) {
		dsp.Zero(len(overlap), overlap)
		return
	}
	copy(overlap, overlap[frameSize:])
	dsp.Zero(frameSize, overlap[len(overlap)-frameSize:])
}

// Tail advances the effect one frame with silent input, draining the
// convolution tail into out using the IRs from the most recent Apply.
func (e *OverlapAddEffect) Tail(out *dsp.AudioBuffer) dsp.EffectState {
	e.silentIn.MakeSilent()
	return e.Apply(OverlapAddParams{FFTIRs: e.lastIRs}, e.silentIn, out)
}

// NumTailSamplesRemaining reports how many samples of tail are left; it
// decreases monotonically across consecutive silent frames.
func (e *OverlapAddEffect) NumTailSamplesRemaining() int {
	return e.tailSamplesRemaining
}

func (e *OverlapAddEffect) advanceTail() {
	e.tailSamplesRemaining -= e.plan.FrameSize
	if e.tailSamplesRemaining < 0 {
		e.tailSamplesRemaining = 0
	}
}

func (e *OverlapAddEffect) state() dsp.EffectState {
	if e.tailSamplesRemaining > 0 {
		return dsp.TailRemaining
	}
	return dsp.TailComplete
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
