package effects

import (
	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/hrtf"
	"github.com/auralab/aural/sh"
)

// AmbisonicsDecodeSettings configures a composite decode effect.
type AmbisonicsDecodeSettings struct {
	SpeakerLayout dsp.SpeakerLayout
	MaxOrder      int

	// HRTF enables the binaural branch when non-nil.
	HRTF *hrtf.Database
}

// AmbisonicsDecodeParams are the per-frame parameters.
type AmbisonicsDecodeParams struct {
	Orientation geom.CoordinateSpace
	Order       int

	// Binaural requests binaural decoding; it only takes effect when the
	// layout is stereo and an HRTF is available.
	Binaural bool
	HRTF     *hrtf.Database
}

// AmbisonicsDecodeEffect rotates an Ambisonic frame into the listener frame
// and then renders it either with speaker panning or binaurally. When the
// effective mode changes, the branch being switched away from is reset so its
// tail cannot bleed into a later switch back; the branch being switched to
// continues from silence.
type AmbisonicsDecodeEffect struct {
	frameSize int
	layout    dsp.SpeakerLayout
	maxOrder  int

	rotateEffect   *AmbisonicsRotateEffect
	panningEffect  *AmbisonicsPanningEffect
	binauralEffect *AmbisonicsBinauralEffect

	rotated *dsp.AudioBuffer

	prevBinaural bool
}

// NewAmbisonicsDecodeEffect constructs the composite effect.
func NewAmbisonicsDecodeEffect(audioSettings dsp.AudioSettings, settings AmbisonicsDecodeSettings) *AmbisonicsDecodeEffect {
	e := &AmbisonicsDecodeEffect{
		frameSize: audioSettings.FrameSize,
		layout:    settings.SpeakerLayout,
		maxOrder:  settings.MaxOrder,
		rotateEffect: NewAmbisonicsRotateEffect(audioSettings, AmbisonicsRotateSettings{
			MaxOrder: settings.MaxOrder,
		}),
		panningEffect: NewAmbisonicsPanningEffect(audioSettings, AmbisonicsPanningSettings{
			SpeakerLayout: settings.SpeakerLayout,
			MaxOrder:      settings.MaxOrder,
		}),
		rotated: dsp.NewAudioBuffer(sh.NumCoeffs(settings.MaxOrder), audioSettings.FrameSize),
	}

	if settings.HRTF != nil {
		e.binauralEffect = NewAmbisonicsBinauralEffect(audioSettings, AmbisonicsBinauralSettings{
			MaxOrder: settings.MaxOrder,
			HRTF:     settings.HRTF,
		})
	}

	e.Reset()
	return e
}

// Reset discards all branch state.
func (e *AmbisonicsDecodeEffect) Reset() {
	e.rotateEffect.Reset()
	e.panningEffect.Reset()
	if e.binauralEffect != nil {
		e.binauralEffect.Reset()
	}
	e.prevBinaural = false
}

// Apply decodes one Ambisonic frame into out (stereo for binaural, the
// speaker layout otherwise).
func (e *AmbisonicsDecodeEffect) Apply(params AmbisonicsDecodeParams, in, out *dsp.AudioBuffer) dsp.EffectState {
	e.rotateEffect.Apply(AmbisonicsRotateParams{
		Orientation: params.Orientation,
		Order:       params.Order,
	}, in, e.rotated)

	binaural := params.Binaural &&
		e.layout.Type == dsp.SpeakerLayoutStereo &&
		params.HRTF != nil &&
		e.binauralEffect != nil

	if binaural && !e.prevBinaural {
		e.panningEffect.Reset()
	} else if !binaural && e.prevBinaural {
		e.binauralEffect.Reset()
	}

	var state dsp.EffectState
	if binaural {
		state = e.binauralEffect.Apply(AmbisonicsBinauralParams{
			HRTF:  params.HRTF,
			Order: params.Order,
		}, e.rotated, out)
	} else {
		state = e.panningEffect.Apply(AmbisonicsPanningParams{
			Order: params.Order,
		}, e.rotated, out)
	}

	e.prevBinaural = binaural
	return state
}

// Tail drains the branch that was active on the last Apply.
func (e *AmbisonicsDecodeEffect) Tail(out *dsp.AudioBuffer) dsp.EffectState {
	if e.prevBinaural {
		return e.binauralEffect.Tail(out)
	}
	return e.panningEffect.Tail(out)
}

// NumTailSamplesRemaining reports the active branch's remaining tail.
func (e *AmbisonicsDecodeEffect) NumTailSamplesRemaining() int {
	if e.prevBinaural {
		return e.binauralEffect.NumTailSamplesRemaining()
	}
	return e.panningEffect.NumTailSamplesRemaining()
}
