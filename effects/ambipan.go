package effects

import (
	"math"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/sh"
)

// The 24 virtual speaker directions form a spherical 7-design, which
// integrates all spherical harmonics up to order 7 exactly under uniform
// weighting. Values from Hardin & Sloane's published design tables
// (des.3.24.7).
const numVirtualSpeakers = 24

var virtualSpeakers = [numVirtualSpeakers]geom.Vector3{
	{X: .8662468181078205913835980, Y: .4225186537611115291185464, Z: .2666354015167047203315344},
	{X: .8662468181078205913835980, Y: -.4225186537611115291185464, Z: -.2666354015167047203315344},
	{X: .8662468181078205913835980, Y: .2666354015167047203315344, Z: -.4225186537611115291185464},
	{X: .8662468181078205913835980, Y: -.2666354015167047203315344, Z: .4225186537611115291185464},
	{X: -.8662468181078205913835980, Y: .4225186537611115291185464, Z: -.2666354015167047203315344},
	{X: -.8662468181078205913835980, Y: -.4225186537611115291185464, Z: .2666354015167047203315344},
	{X: -.8662468181078205913835980, Y: .2666354015167047203315344, Z: .4225186537611115291185464},
	{X: -.8662468181078205913835980, Y: -.2666354015167047203315344, Z: -.4225186537611115291185464},
	{X: .2666354015167047203315344, Y: .8662468181078205913835980, Z: .4225186537611115291185464},
	{X: -.2666354015167047203315344, Y: .8662468181078205913835980, Z: -.4225186537611115291185464},
	{X: -.4225186537611115291185464, Y: .8662468181078205913835980, Z: .2666354015167047203315344},
	{X: .4225186537611115291185464, Y: .8662468181078205913835980, Z: -.2666354015167047203315344},
	{X: -.2666354015167047203315344, Y: -.8662468181078205913835980, Z: .4225186537611115291185464},
	{X: .2666354015167047203315344, Y: -.8662468181078205913835980, Z: -.4225186537611115291185464},
	{X: .4225186537611115291185464, Y: -.8662468181078205913835980, Z: .2666354015167047203315344},
	{X: -.4225186537611115291185464, Y: -.8662468181078205913835980, Z: -.2666354015167047203315344},
	{X: .4225186537611115291185464, Y: .2666354015167047203315344, Z: .8662468181078205913835980},
	{X: -.4225186537611115291185464, Y: -.2666354015167047203315344, Z: .8662468181078205913835980},
	{X: .2666354015167047203315344, Y: -.4225186537611115291185464, Z: .8662468181078205913835980},
	{X: -.2666354015167047203315344, Y: .4225186537611115291185464, Z: .8662468181078205913835980},
	{X: .4225186537611115291185464, Y: -.2666354015167047203315344, Z: -.8662468181078205913835980},
	{X: -.4225186537611115291185464, Y: .2666354015167047203315344, Z: -.8662468181078205913835980},
	{X: .2666354015167047203315344, Y: .4225186537611115291185464, Z: -.8662468181078205913835980},
	{X: -.2666354015167047203315344, Y: -.4225186537611115291185464, Z: -.8662468181078205913835980},
}

// PanningWeight returns the gain applied to speaker index of the layout for
// a source in the given direction. Mono collapses everything to the single
// speaker; other layouts use energy-normalized squared direction-dot weights
// over every speaker facing the source, which reduce to pairwise panning for
// the stereo and quad rings.
func PanningWeight(direction geom.Vector3, layout dsp.SpeakerLayout, index int) float32 {
	if layout.NumSpeakers == 1 {
		return 1
	}

	unit := direction.Normalize()

	var total float64
	weights := func(i int) float64 {
		s := layout.Speakers[i]
		w := unit.Dot(geom.V(s.X, s.Y, s.Z))
		if w < 0 {
			return 0
		}
		return w * w
	}
	for i := 0; i < layout.NumSpeakers; i++ {
		total += weights(i)
	}
	if total == 0 {
		// Direction is behind every speaker; spread evenly.
		return float32(1 / math.Sqrt(float64(layout.NumSpeakers)))
	}
	return float32(math.Sqrt(weights(index) / total))
}

// AmbisonicsPanningSettings configures an Ambisonic panning effect.
type AmbisonicsPanningSettings struct {
	SpeakerLayout dsp.SpeakerLayout
	MaxOrder      int
}

// AmbisonicsPanningParams are the per-frame parameters.
type AmbisonicsPanningParams struct {
	Order int
}

// AmbisonicsPanningEffect renders an Ambisonic frame to a speaker layout
// using t-design panning: the SH frame is decoded to 24 virtual speakers on
// the 7-design, and each virtual speaker is distributed to the real layout
// with panning weights. The two steps collapse into one precomputed
// speakers x coefficients matrix applied per block.
//
// All-Round Ambisonic Panning and Decoding
// F. Zotter, M. Frank
// Journal of the Audio Engineering Society 2012
type AmbisonicsPanningEffect struct {
	layout   dsp.SpeakerLayout
	maxOrder int

	decodeMatrix *geom.DynamicMatrix

	ambisonicsBlock *geom.DynamicMatrix
	speakersBlock   *geom.DynamicMatrix
}

// NewAmbisonicsPanningEffect constructs the effect and precomputes its
// decode matrix.
func NewAmbisonicsPanningEffect(audioSettings dsp.AudioSettings, settings AmbisonicsPanningSettings) *AmbisonicsPanningEffect {
	numCoeffs := sh.NumCoeffs(settings.MaxOrder)
	numSpeakers := settings.SpeakerLayout.NumSpeakers

	ambisonicsToVirtual := geom.NewDynamicMatrix(numVirtualSpeakers, numCoeffs)
	for l, i := 0, 0; l <= settings.MaxOrder; l++ {
		for m := -l; m <= l; m, i = m+1, i+1 {
			for j := 0; j < numVirtualSpeakers; j++ {
				ambisonicsToVirtual.Set(j, i, sh.Evaluate(l, m, virtualSpeakers[j]))
			}
		}
	}

	virtualToSpeakers := geom.NewDynamicMatrix(numSpeakers, numVirtualSpeakers)
	for i := 0; i < numVirtualSpeakers; i++ {
		for j := 0; j < numSpeakers; j++ {
			w := float32(4*math.Pi/numVirtualSpeakers) * PanningWeight(virtualSpeakers[i], settings.SpeakerLayout, j)
			virtualToSpeakers.Set(j, i, w)
		}
	}

	decodeMatrix := geom.NewDynamicMatrix(numSpeakers, numCoeffs)
	geom.MulInto(virtualToSpeakers, ambisonicsToVirtual, decodeMatrix)

	return &AmbisonicsPanningEffect{
		layout:          settings.SpeakerLayout,
		maxOrder:        settings.MaxOrder,
		decodeMatrix:    decodeMatrix,
		ambisonicsBlock: geom.NewDynamicMatrix(numCoeffs, audioSettings.FrameSize),
		speakersBlock:   geom.NewDynamicMatrix(numSpeakers, audioSettings.FrameSize),
	}
}

// Reset is a no-op; panning is memoryless.
func (e *AmbisonicsPanningEffect) Reset() {}

// Apply pans one Ambisonic frame to the speaker layout.
func (e *AmbisonicsPanningEffect) Apply(params AmbisonicsPanningParams, in, out *dsp.AudioBuffer) dsp.EffectState {
	numCoeffs := sh.NumCoeffs(params.Order)
	if numCoeffs > in.NumChannels() {
		numCoeffs = in.NumChannels()
	}

	e.ambisonicsBlock.Zero()
	for i := 0; i < numCoeffs; i++ {
		copy(e.ambisonicsBlock.Row(i), in.Channel(i))
	}

	geom.MulInto(e.decodeMatrix, e.ambisonicsBlock, e.speakersBlock)

	out.MakeSilent()
	for i := 0; i < out.NumChannels() && i < e.layout.NumSpeakers; i++ {
		copy(out.Channel(i), e.speakersBlock.Row(i))
	}

	return dsp.TailComplete
}

// Tail produces silence; panning is memoryless.
func (e *AmbisonicsPanningEffect) Tail(out *dsp.AudioBuffer) dsp.EffectState {
	out.MakeSilent()
	return dsp.TailComplete
}

// NumTailSamplesRemaining always returns 0.
func (e *AmbisonicsPanningEffect) NumTailSamplesRemaining() int { return 0 }

// SpeakerGains projects a single set of SH coefficients to per-speaker gains
// without touching audio, for callers that pan a mono signal by gain (the
// path effect).
func (e *AmbisonicsPanningEffect) SpeakerGains(order int, coeffs, gains []float32) {
	numCoeffs := sh.NumCoeffs(order)
	if numCoeffs > len(coeffs) {
		numCoeffs = len(coeffs)
	}
	for j := 0; j < e.layout.NumSpeakers; j++ {
		row := e.decodeMatrix.Row(j)
		var s float32
		for i := 0; i < numCoeffs; i++ {
			s += row[i] * coeffs[i]
		}
		gains[j] = s
	}
}
