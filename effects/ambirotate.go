package effects

import (
	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/sh"
)

// AmbisonicsRotateSettings configures an Ambisonic rotation effect.
type AmbisonicsRotateSettings struct {
	MaxOrder int
}

// AmbisonicsRotateParams are the per-frame parameters.
type AmbisonicsRotateParams struct {
	// Orientation is the listener frame; coefficients are rotated from world
	// space into it.
	Orientation geom.CoordinateSpace

	// Order of the input frame; must not exceed MaxOrder.
	Order int
}

// AmbisonicsRotateEffect rotates an Ambisonic frame into the listener's
// frame, sample block by sample block. The rotation matrices are rebuilt only
// when the orientation changes.
type AmbisonicsRotateEffect struct {
	frameSize int
	maxOrder  int
	rotation  *sh.Rotation

	haveOrientation bool
	orientation     geom.CoordinateSpace

	coeffs  []float32
	rotated []float32
}

// NewAmbisonicsRotateEffect constructs the effect.
func NewAmbisonicsRotateEffect(audioSettings dsp.AudioSettings, settings AmbisonicsRotateSettings) *AmbisonicsRotateEffect {
	numCoeffs := sh.NumCoeffs(settings.MaxOrder)
	return &AmbisonicsRotateEffect{
		frameSize: audioSettings.FrameSize,
		maxOrder:  settings.MaxOrder,
		rotation:  sh.NewRotation(settings.MaxOrder),
		coeffs:    make([]float32, numCoeffs),
		rotated:   make([]float32, numCoeffs),
	}
}

// Reset forgets the cached orientation.
func (e *AmbisonicsRotateEffect) Reset() {
	e.haveOrientation = false
}

// Apply rotates in into out. in and out may be the same buffer; both must
// have NumCoeffs(params.Order) channels and the effect's frame size.
func (e *AmbisonicsRotateEffect) Apply(params AmbisonicsRotateParams, in, out *dsp.AudioBuffer) dsp.EffectState {
	order := params.Order
	if order > e.maxOrder {
		order = e.maxOrder
	}
	numCoeffs := sh.NumCoeffs(order)

	if !e.haveOrientation || e.orientation != params.Orientation {
		e.rotation.SetRotationFromSpace(params.Orientation)
		e.orientation = params.Orientation
		e.haveOrientation = true
	}

	for k := 0; k < in.NumSamples(); k++ {
		for i := 0; i < numCoeffs; i++ {
			e.coeffs[i] = in.Channel(i)[k]
		}
		e.rotation.Apply(order, e.coeffs[:numCoeffs], e.rotated[:numCoeffs])
		for i := 0; i < numCoeffs; i++ {
			out.Channel(i)[k] = e.rotated[i]
		}
	}

	return dsp.TailComplete
}

// Tail produces silence; rotation is memoryless.
func (e *AmbisonicsRotateEffect) Tail(out *dsp.AudioBuffer) dsp.EffectState {
	out.MakeSilent()
	return dsp.TailComplete
}

// NumTailSamplesRemaining always returns 0.
func (e *AmbisonicsRotateEffect) NumTailSamplesRemaining() int { return 0 }
