package effects

import (
	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/hrtf"
)

// HRTFInterpolation selects how the database is sampled for a direction.
type HRTFInterpolation int

const (
	// HRTFNearest uses the measured direction closest to the source.
	HRTFNearest HRTFInterpolation = iota

	// HRTFBilinear blends the measured directions surrounding the source.
	// Costlier, but free of switching artifacts for fast-moving sources.
	HRTFBilinear
)

// BinauralSettings configures a direct-path binaural effect.
type BinauralSettings struct {
	HRTF *hrtf.Database
}

// BinauralParams are the per-frame parameters.
type BinauralParams struct {
	// Direction from the listener to the source, in the listener's frame.
	Direction geom.Vector3

	Interpolation HRTFInterpolation

	// SpatialBlend crossfades between unspatialized mono passthrough (0) and
	// fully binaural rendering (1).
	SpatialBlend float32

	HRTF *hrtf.Database
}

// BinauralEffect renders a mono source at a direction by HRTF convolution.
type BinauralEffect struct {
	audioSettings dsp.AudioSettings
	hrirSize      int

	overlapAdd   *OverlapAddEffect
	interpolated [hrtf.NumEars][]complex64
	spatialized  *dsp.AudioBuffer

	prevBlend  float32
	firstFrame bool
}

// NewBinauralEffect constructs the effect against the given HRTF.
func NewBinauralEffect(audioSettings dsp.AudioSettings, settings BinauralSettings) *BinauralEffect {
	e := &BinauralEffect{
		audioSettings: audioSettings,
		spatialized:   dsp.NewAudioBuffer(hrtf.NumEars, audioSettings.FrameSize),
		firstFrame:    true,
	}
	e.init(settings.HRTF)
	return e
}

func (e *BinauralEffect) init(db *hrtf.Database) {
	e.hrirSize = db.NumSamples()
	e.overlapAdd = NewOverlapAddEffect(e.audioSettings, OverlapAddSettings{
		NumChannels: hrtf.NumEars,
		IRSize:      e.hrirSize,
	})
	for ear := 0; ear < hrtf.NumEars; ear++ {
		e.interpolated[ear] = make([]complex64, db.NumSpectrumSamples())
	}
}

// Reset discards convolution state and the blend ramp.
func (e *BinauralEffect) Reset() {
	e.overlapAdd.Reset()
	e.prevBlend = 0
	e.firstFrame = true
}

// Apply spatializes one mono frame into stereo out.
func (e *BinauralEffect) Apply(params BinauralParams, in, out *dsp.AudioBuffer) dsp.EffectState {
	if e.hrirSize != params.HRTF.NumSamples() {
		e.init(params.HRTF)
	}

	var irs [hrtf.NumEars][]complex64
	switch params.Interpolation {
	case HRTFBilinear:
		params.HRTF.InterpolatedHRTF(params.Direction, e.interpolated)
		irs = e.interpolated
	default:
		irs = params.HRTF.NearestHRTF(params.Direction)
	}

	state := e.overlapAdd.Apply(OverlapAddParams{FFTIRs: irs[:]}, in, e.spatialized)

	blend := params.SpatialBlend
	if blend < 0 {
		blend = 0
	} else if blend > 1 {
		blend = 1
	}
	startBlend := e.prevBlend
	if e.firstFrame {
		startBlend = blend
		e.firstFrame = false
	}

	n := e.audioSettings.FrameSize
	inCh := in.Channel(0)[:n]
	step := (blend - startBlend) / float32(n)
	for ear := 0; ear < hrtf.NumEars; ear++ {
		outCh := out.Channel(ear)[:n]
		wet := e.spatialized.Channel(ear)[:n]
		b := startBlend
		for i := 0; i < n; i++ {
			b += step
			outCh[i] = b*wet[i] + (1-b)*inCh[i]
		}
	}
	e.prevBlend = blend

	return state
}

// Tail drains the convolution tail into stereo out.
func (e *BinauralEffect) Tail(out *dsp.AudioBuffer) dsp.EffectState {
	state := e.overlapAdd.Tail(e.spatialized)
	n := e.audioSettings.FrameSize
	for ear := 0; ear < hrtf.NumEars; ear++ {
		dsp.Scale(n, e.spatialized.Channel(ear), e.prevBlend, out.Channel(ear))
	}
	return state
}

// NumTailSamplesRemaining reports the convolution tail.
func (e *BinauralEffect) NumTailSamplesRemaining() int {
	return e.overlapAdd.NumTailSamplesRemaining()
}
