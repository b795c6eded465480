package effects

import (
	"math"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/hrtf"
	"github.com/auralab/aural/sh"
)

// maxREAngleDegrees parameterizes the max-rE decode weighting: band l is
// scaled by P_l(cos(137.9 deg / (order + 1.51))). The constants are the
// published max-rE fit and must not be altered; they set the spatial
// sharpness of the decode.
const maxREAngleDegrees = 137.9

// maxREWeightCosine returns cos(137.9 deg / (order + 1.51)).
func maxREWeightCosine(order int) float32 {
	return float32(math.Cos(maxREAngleDegrees * math.Pi / 180 / (float64(order) + 1.51)))
}

// AmbisonicsBinauralSettings configures an Ambisonic binaural effect.
type AmbisonicsBinauralSettings struct {
	MaxOrder int
	HRTF     *hrtf.Database
}

// AmbisonicsBinauralParams are the per-frame parameters.
type AmbisonicsBinauralParams struct {
	HRTF  *hrtf.Database
	Order int
}

// AmbisonicsBinauralEffect decodes an Ambisonic frame to binaural stereo by
// convolving each SH channel with its paired Ambisonic HRTF and accumulating
// the results with max-rE band weights.
type AmbisonicsBinauralEffect struct {
	audioSettings dsp.AudioSettings
	maxOrder      int
	hrirSize      int

	overlapAdd       []*OverlapAddEffect
	overlapAddStates []dsp.EffectState
	spatialized      *dsp.AudioBuffer
}

// NewAmbisonicsBinauralEffect constructs the effect against the given HRTF.
func NewAmbisonicsBinauralEffect(audioSettings dsp.AudioSettings, settings AmbisonicsBinauralSettings) *AmbisonicsBinauralEffect {
	e := &AmbisonicsBinauralEffect{
		audioSettings:    audioSettings,
		maxOrder:         settings.MaxOrder,
		overlapAddStates: make([]dsp.EffectState, sh.NumCoeffs(settings.MaxOrder)),
		spatialized:      dsp.NewAudioBuffer(hrtf.NumEars, audioSettings.FrameSize),
	}
	e.init(settings.HRTF)
	return e
}

// init (re)builds the per-channel convolution engines for an HRIR length.
func (e *AmbisonicsBinauralEffect) init(db *hrtf.Database) {
	e.hrirSize = db.NumSamples()
	e.overlapAdd = make([]*OverlapAddEffect, sh.NumCoeffs(e.maxOrder))
	for i := range e.overlapAdd {
		e.overlapAdd[i] = NewOverlapAddEffect(e.audioSettings, OverlapAddSettings{
			NumChannels: hrtf.NumEars,
			IRSize:      e.hrirSize,
		})
	}
}

// Reset discards all convolution state.
func (e *AmbisonicsBinauralEffect) Reset() {
	for _, oa := range e.overlapAdd {
		oa.Reset()
	}
	for i := range e.overlapAddStates {
		e.overlapAddStates[i] = dsp.TailComplete
	}
}

// Apply decodes one Ambisonic frame to stereo. in must have
// NumCoeffs(params.Order) channels; out must be stereo. If the HRTF's IR
// length changed since construction (a hot swap), the convolution engines
// are rebuilt first.
func (e *AmbisonicsBinauralEffect) Apply(params AmbisonicsBinauralParams, in, out *dsp.AudioBuffer) dsp.EffectState {
	if e.hrirSize != params.HRTF.NumSamples() {
		e.init(params.HRTF)
	}

	out.MakeSilent()

	cosine := maxREWeightCosine(params.Order)

	for l, i := 0, 0; l <= params.Order; l++ {
		scalar := sh.Legendre(l, cosine)

		for m := -l; m <= l; m, i = m+1, i+1 {
			pair := params.HRTF.AmbisonicsHRTF(i)

			channel := in.ChannelView(i)
			e.overlapAddStates[i] = e.overlapAdd[i].Apply(OverlapAddParams{
				FFTIRs: pair[:],
			}, channel, e.spatialized)

			for ear := 0; ear < hrtf.NumEars; ear++ {
				dsp.ScaleAccumulate(e.audioSettings.FrameSize, e.spatialized.Channel(ear), scalar, out.Channel(ear))
			}
		}
	}

	return e.combinedState()
}

// Tail drains each channel's convolution into out, weighting each band with
// the max-rE weight for the effect's maximum order. All channels are advanced
// every call; the effect reports TailRemaining until every channel has
// drained.
func (e *AmbisonicsBinauralEffect) Tail(out *dsp.AudioBuffer) dsp.EffectState {
	out.MakeSilent()

	cosine := maxREWeightCosine(e.maxOrder)

	for l, i := 0, 0; l <= e.maxOrder; l++ {
		scalar := sh.Legendre(l, cosine)

		for m := -l; m <= l; m, i = m+1, i+1 {
			e.overlapAddStates[i] = e.overlapAdd[i].Tail(e.spatialized)

			for ear := 0; ear < hrtf.NumEars; ear++ {
				dsp.ScaleAccumulate(e.audioSettings.FrameSize, e.spatialized.Channel(ear), scalar, out.Channel(ear))
			}
		}
	}

	return e.combinedState()
}

func (e *AmbisonicsBinauralEffect) combinedState() dsp.EffectState {
	for _, state := range e.overlapAddStates {
		if state == dsp.TailRemaining {
			return dsp.TailRemaining
		}
	}
	return dsp.TailComplete
}

// NumTailSamplesRemaining returns the largest per-channel tail.
func (e *AmbisonicsBinauralEffect) NumTailSamplesRemaining() int {
	result := 0
	for _, oa := range e.overlapAdd {
		if n := oa.NumTailSamplesRemaining(); n > result {
			result = n
		}
	}
	return result
}
