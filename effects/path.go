package effects

import (
	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/hrtf"
	"github.com/auralab/aural/sh"
)

// PathSettings configures a path effect.
type PathSettings struct {
	MaxOrder int

	// Spatialize enables rendering to speakers or binaural; when false the
	// effect emits the Ambisonic channels themselves.
	Spatialize    bool
	SpeakerLayout dsp.SpeakerLayout
	HRTF          *hrtf.Database
}

// PathParams are the per-frame parameters: the SH coefficient vector and
// three-band EQ describing the sound arriving along indirect paths.
type PathParams struct {
	Order    int
	EQCoeffs [dsp.NumBands]float32
	SHCoeffs []float32

	// NormalizeEQ rescales the EQ so its largest band is unity, putting the
	// overall level into the SH coefficients alone.
	NormalizeEQ bool

	// Binaural selects HRTF rendering; otherwise the rotated coefficients
	// are panned to the speaker layout.
	Binaural bool
	Listener geom.CoordinateSpace
	HRTF     *hrtf.Database
}

// PathEffect renders pathing output. The dry mono input is EQ filtered, the
// SH coefficients are rotated into the listener frame, and the result is
// rendered either through a blended composite HRTF (binaural) or as
// per-speaker gains (panned).
type PathEffect struct {
	audioSettings dsp.AudioSettings
	maxOrder      int
	spatialize    bool
	layout        dsp.SpeakerLayout

	eqEffect *dsp.EQEffect
	eqBuffer *dsp.AudioBuffer

	rotation  *sh.Rotation
	shRotated []float32
	shScratch []float32

	// Spatialized path.
	panningEffect *AmbisonicsPanningEffect
	gainEffects   []*dsp.GainEffect
	overlapAdd    *OverlapAddEffect
	blendedHRTF   [hrtf.NumEars][]complex64
	speakerGains  []float32

	prevBinaural bool
}

// NewPathEffect constructs the effect.
func NewPathEffect(audioSettings dsp.AudioSettings, settings PathSettings) *PathEffect {
	numCoeffs := sh.NumCoeffs(settings.MaxOrder)

	e := &PathEffect{
		audioSettings: audioSettings,
		maxOrder:      settings.MaxOrder,
		spatialize:    settings.Spatialize,
		layout:        settings.SpeakerLayout,
		eqEffect:      dsp.NewEQEffect(audioSettings),
		eqBuffer:      dsp.NewAudioBuffer(1, audioSettings.FrameSize),
		rotation:      sh.NewRotation(settings.MaxOrder),
		shRotated:     make([]float32, numCoeffs),
		shScratch:     make([]float32, 2*settings.MaxOrder+1),
	}

	if settings.Spatialize {
		e.panningEffect = NewAmbisonicsPanningEffect(audioSettings, AmbisonicsPanningSettings{
			SpeakerLayout: settings.SpeakerLayout,
			MaxOrder:      settings.MaxOrder,
		})
		e.gainEffects = make([]*dsp.GainEffect, settings.SpeakerLayout.NumSpeakers)
		for i := range e.gainEffects {
			e.gainEffects[i] = dsp.NewGainEffect(audioSettings)
		}
		e.speakerGains = make([]float32, settings.SpeakerLayout.NumSpeakers)

		e.overlapAdd = NewOverlapAddEffect(audioSettings, OverlapAddSettings{
			NumChannels: hrtf.NumEars,
			IRSize:      settings.HRTF.NumSamples(),
		})
		for ear := 0; ear < hrtf.NumEars; ear++ {
			e.blendedHRTF[ear] = make([]complex64, settings.HRTF.NumSpectrumSamples())
		}
	} else {
		e.gainEffects = make([]*dsp.GainEffect, numCoeffs)
		for i := range e.gainEffects {
			e.gainEffects[i] = dsp.NewGainEffect(audioSettings)
		}
	}

	return e
}

// Reset discards all state.
func (e *PathEffect) Reset() {
	e.eqEffect.Reset()
	if e.spatialize {
		e.panningEffect.Reset()
		e.overlapAdd.Reset()
	}
	for _, g := range e.gainEffects {
		g.Reset()
	}
	e.prevBinaural = false
}

// Apply renders one frame of pathing output from the mono dry input.
func (e *PathEffect) Apply(params PathParams, in, out *dsp.AudioBuffer) dsp.EffectState {
	out.MakeSilent()

	eqGains := params.EQCoeffs
	if params.NormalizeEQ {
		eqGains = dsp.NormalizedGains(eqGains)
	}
	e.eqEffect.Apply(eqGains, in, e.eqBuffer)

	numCoeffs := sh.NumCoeffs(params.Order)

	if !e.spatialize {
		// Emit the Ambisonic channels directly.
		for i := 0; i < numCoeffs && i < out.NumChannels(); i++ {
			e.gainEffects[i].Apply(params.SHCoeffs[i], e.eqBuffer, out.ChannelView(i))
		}
		e.prevBinaural = false
		return dsp.TailComplete
	}

	// Rotate the coefficient vector into the listener frame.
	copy(e.shRotated[:numCoeffs], params.SHCoeffs[:numCoeffs])
	e.rotation.SetRotationFromSpace(params.Listener)
	e.rotation.ApplyInPlace(params.Order, e.shRotated[:numCoeffs], e.shScratch)

	if params.Binaural && params.HRTF != nil {
		// Blend a composite HRTF: each SH channel's Ambisonic HRTF weighted
		// by the max-rE band weight times the rotated coefficient.
		for ear := 0; ear < hrtf.NumEars; ear++ {
			spectrum := e.blendedHRTF[ear]
			for i := range spectrum {
				spectrum[i] = 0
			}
		}

		cosine := maxREWeightCosine(params.Order)
		for l, i := 0, 0; l <= params.Order; l++ {
			scalar := sh.Legendre(l, cosine)
			for m := -l; m <= l; m, i = m+1, i+1 {
				pair := params.HRTF.AmbisonicsHRTF(i)
				weight := complex(scalar*e.shRotated[i], 0)
				for ear := 0; ear < hrtf.NumEars; ear++ {
					src := pair[ear]
					dst := e.blendedHRTF[ear]
					for k := range dst {
						dst[k] += weight * src[k]
					}
				}
			}
		}

		e.prevBinaural = true
		return e.overlapAdd.Apply(OverlapAddParams{FFTIRs: e.blendedHRTF[:]}, e.eqBuffer, out)
	}

	// Panned: project the rotated coefficients to per-speaker gains and ramp
	// them onto the EQ'd mono signal.
	e.panningEffect.SpeakerGains(params.Order, e.shRotated[:numCoeffs], e.speakerGains)
	for i := 0; i < e.layout.NumSpeakers && i < out.NumChannels(); i++ {
		e.gainEffects[i].Apply(e.speakerGains[i], e.eqBuffer, out.ChannelView(i))
	}

	e.prevBinaural = false
	return dsp.TailComplete
}

// Tail drains the binaural convolution when it was last active; the panned
// and Ambisonic paths have no tail.
func (e *PathEffect) Tail(out *dsp.AudioBuffer) dsp.EffectState {
	out.MakeSilent()
	if e.spatialize && e.prevBinaural {
		return e.overlapAdd.Tail(out)
	}
	return dsp.TailComplete
}

// NumTailSamplesRemaining reports the binaural branch's remaining tail.
func (e *PathEffect) NumTailSamplesRemaining() int {
	if e.spatialize && e.prevBinaural {
		return e.overlapAdd.NumTailSamplesRemaining()
	}
	return 0
}
