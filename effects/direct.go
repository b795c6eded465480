package effects

import (
	"math"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
)

// DistanceAttenuationModel selects how distance attenuation is computed.
type DistanceAttenuationModel int

const (
	// DistanceAttenuationDefault is the inverse-distance physics model,
	// min(1, minDistance/d).
	DistanceAttenuationDefault DistanceAttenuationModel = iota

	// DistanceAttenuationCallback evaluates a host-supplied curve.
	DistanceAttenuationCallback

	// DistanceAttenuationUser applies a precomputed scalar.
	DistanceAttenuationUser

	// DistanceAttenuationDisabled applies unity gain.
	DistanceAttenuationDisabled
)

// AirAbsorptionMode selects how the per-band air absorption is computed.
type AirAbsorptionMode int

const (
	AirAbsorptionDefault AirAbsorptionMode = iota
	AirAbsorptionUser
	AirAbsorptionDisabled
)

// Directivity is the dipole source directivity model:
// gain = ((1 - weight) + weight*|cos(theta)|^power), where theta is the angle
// between the source's ahead vector and the direction to the listener.
type Directivity struct {
	// DipoleWeight blends omnidirectional (0) and dipole (1).
	DipoleWeight float64

	// DipolePower sharpens the dipole lobes; must be >= 1.
	DipolePower float64
}

// Evaluate returns the directivity gain for a listener at the given world
// position, relative to the source frame.
func (d Directivity) Evaluate(source geom.CoordinateSpace, listener geom.Vector3) float32 {
	if d.DipoleWeight == 0 {
		return 1
	}
	toListener := listener.Sub(source.Origin).Normalize()
	cosTheta := toListener.Dot(source.Ahead)
	return float32((1 - d.DipoleWeight) + d.DipoleWeight*math.Pow(math.Abs(cosTheta), d.DipolePower))
}

// DirectEffectFlags selects which stages of the direct-path chain run.
type DirectEffectFlags uint32

const (
	ApplyDistanceAttenuation DirectEffectFlags = 1 << iota
	ApplyAirAbsorption
	ApplyDirectivity
	ApplyOcclusion
	ApplyTransmission
)

// DirectSettings configures a direct-path effect.
type DirectSettings struct {
	NumChannels int
}

// DirectParams are the per-frame parameters of the direct gain chain. The
// scalar fields are computed by the simulator (or the host) and applied here
// as gains; the effect itself does no geometric queries.
type DirectParams struct {
	Flags DirectEffectFlags

	DistanceAttenuation float32
	AirAbsorption       [dsp.NumBands]float32

	Directivity float32

	// Occlusion is 0 for fully occluded, 1 for unoccluded.
	Occlusion float32

	// Transmission is the per-band transmission of the occluding geometry,
	// mixed as occlusion + (1-occlusion)*transmission when transmission is
	// enabled.
	Transmission [dsp.NumBands]float32
}

// DirectEffect applies the per-frame direct-path gain chain: distance
// attenuation, three-band air absorption, directivity, occlusion, and
// three-band transmission. All changes ramp linearly across the frame from
// the previously applied values; band-dependent factors are applied through
// the three-band EQ.
type DirectEffect struct {
	settings    dsp.AudioSettings
	numChannels int

	eq        []*dsp.EQEffect
	gains     []*dsp.GainEffect
	eqScratch *dsp.AudioBuffer
}

// NewDirectEffect constructs the effect.
func NewDirectEffect(audioSettings dsp.AudioSettings, settings DirectSettings) *DirectEffect {
	e := &DirectEffect{
		settings:    audioSettings,
		numChannels: settings.NumChannels,
		eq:          make([]*dsp.EQEffect, settings.NumChannels),
		gains:       make([]*dsp.GainEffect, settings.NumChannels),
		eqScratch:   dsp.NewAudioBuffer(1, audioSettings.FrameSize),
	}
	for i := 0; i < settings.NumChannels; i++ {
		e.eq[i] = dsp.NewEQEffect(audioSettings)
		e.gains[i] = dsp.NewGainEffect(audioSettings)
	}
	return e
}

// Reset discards all ramp and filter state.
func (e *DirectEffect) Reset() {
	for i := 0; i < e.numChannels; i++ {
		e.eq[i].Reset()
		e.gains[i].Reset()
	}
}

// gainsForFrame folds the enabled stages into a broadband gain and a
// per-band gain vector.
func gainsForFrame(params DirectParams) (scalar float32, bands [dsp.NumBands]float32, banded bool) {
	scalar = 1
	for b := range bands {
		bands[b] = 1
	}

	if params.Flags&ApplyDistanceAttenuation != 0 {
		scalar *= params.DistanceAttenuation
	}
	if params.Flags&ApplyDirectivity != 0 {
		scalar *= params.Directivity
	}
	if params.Flags&ApplyAirAbsorption != 0 {
		banded = true
		for b := range bands {
			bands[b] *= params.AirAbsorption[b]
		}
	}
	if params.Flags&ApplyOcclusion != 0 {
		if params.Flags&ApplyTransmission != 0 {
			banded = true
			for b := range bands {
				bands[b] *= params.Occlusion + (1-params.Occlusion)*params.Transmission[b]
			}
		} else {
			scalar *= params.Occlusion
		}
	}
	return scalar, bands, banded
}

// Apply runs the gain chain on one frame. in and out must have the effect's
// channel count. The effect has no tail.
func (e *DirectEffect) Apply(params DirectParams, in, out *dsp.AudioBuffer) dsp.EffectState {
	scalar, bands, banded := gainsForFrame(params)

	numChannels := e.numChannels
	if numChannels > in.NumChannels() {
		numChannels = in.NumChannels()
	}
	if numChannels > out.NumChannels() {
		numChannels = out.NumChannels()
	}

	for i := 0; i < numChannels; i++ {
		inCh := in.ChannelView(i)
		outCh := out.ChannelView(i)

		if banded {
			e.eq[i].Apply(bands, inCh, e.eqScratch)
			e.gains[i].Apply(scalar, e.eqScratch, outCh)
		} else {
			e.gains[i].Apply(scalar, inCh, outCh)
		}
	}

	return dsp.TailComplete
}

// Tail produces silence; the direct chain has no tail but exposes the
// standard effect contract for the orchestrator.
func (e *DirectEffect) Tail(out *dsp.AudioBuffer) dsp.EffectState {
	out.MakeSilent()
	return dsp.TailComplete
}

// NumTailSamplesRemaining always returns 0.
func (e *DirectEffect) NumTailSamplesRemaining() int { return 0 }

// EvaluateDistanceAttenuation computes the physics-model distance
// attenuation min(1, minDistance/d).
func EvaluateDistanceAttenuation(minDistance, distance float64) float32 {
	if distance <= minDistance {
		return 1
	}
	return float32(minDistance / distance)
}

// EvaluateAirAbsorption computes the default per-band exponential air
// absorption at the given distance.
func EvaluateAirAbsorption(model dsp.AirAbsorptionModel, distance float64) [dsp.NumBands]float32 {
	var out [dsp.NumBands]float32
	for b := 0; b < dsp.NumBands; b++ {
		out[b] = model.Evaluate(b, distance)
	}
	return out
}
