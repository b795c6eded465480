package aural

import (
	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/effects"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/hrtf"
	"github.com/auralab/aural/sh"
)

// ProcessDecision tells the host whether a source still needs its callback.
type ProcessDecision int

const (
	// Process indicates the source is audible or still draining tails.
	Process ProcessDecision = iota

	// DontProcess indicates the source has been silent with all tails
	// drained for two consecutive frames.
	DontProcess
)

// SpatializerSettings configures a per-source orchestrator.
type SpatializerSettings struct {
	SpeakerLayout dsp.SpeakerLayout
	MaxOrder      int

	EnableReflections bool
	EnablePathing     bool
}

// SpatializerParams are the per-frame parameters of a source's render.
type SpatializerParams struct {
	// Source supplies published simulation outputs; may be nil for purely
	// parametric use.
	Source *Source

	Listener geom.CoordinateSpace

	DirectFlags   effects.DirectEffectFlags
	Binaural      bool
	Interpolation effects.HRTFInterpolation

	DirectLevel      float32
	ReflectionsLevel float32
	PathingLevel     float32

	PathingBinaural bool
}

// Spatializer is the per-source effect orchestrator: it runs the direct
// path, spatializes it binaurally or by panning, renders the reflections
// branch through Ambisonic convolution and decode (or hands it to a shared
// mixer), renders pathing, and sums the branches. It owns every buffer it
// needs, so a frame never allocates.
type Spatializer struct {
	ctx      *Context
	settings SpatializerSettings

	directEffect   *effects.DirectEffect
	binauralEffect *effects.BinauralEffect
	pathEffect     *effects.PathEffect
	decodeEffect   *effects.AmbisonicsDecodeEffect

	reflConvolvers []*effects.OverlapAddEffect
	reflIRSize     int

	monoDirect   *dsp.AudioBuffer
	spatialized  *dsp.AudioBuffer
	reflInput    *dsp.AudioBuffer
	ambiBuffer   *dsp.AudioBuffer
	branchOut    *dsp.AudioBuffer

	prevDirectLevel float32
	prevReflLevel   float32
	prevPathLevel   float32
	firstFrame      bool

	lastReflections *ReflectionsData

	silentFrames int
}

// NewSpatializer constructs an orchestrator for one source.
func NewSpatializer(ctx *Context, settings SpatializerSettings) (*Spatializer, error) {
	if ctx == nil || ctx.closed {
		return nil, ErrContextClosed
	}
	if settings.MaxOrder < 0 || settings.MaxOrder > hrtf.MaxAmbisonicOrder {
		return nil, ErrInvalidOrder
	}

	audio := ctx.settings
	numOut := settings.SpeakerLayout.NumSpeakers
	if numOut < hrtf.NumEars {
		numOut = hrtf.NumEars
	}

	s := &Spatializer{
		ctx:      ctx,
		settings: settings,
		directEffect: effects.NewDirectEffect(audio, effects.DirectSettings{
			NumChannels: 1,
		}),
		binauralEffect: effects.NewBinauralEffect(audio, effects.BinauralSettings{
			HRTF: ctx.defaultHRTF,
		}),
		monoDirect:     dsp.NewAudioBuffer(1, audio.FrameSize),
		spatialized:    dsp.NewAudioBuffer(numOut, audio.FrameSize),
		reflInput:      dsp.NewAudioBuffer(1, audio.FrameSize),
		ambiBuffer:     dsp.NewAudioBuffer(sh.NumCoeffs(settings.MaxOrder), audio.FrameSize),
		branchOut:      dsp.NewAudioBuffer(numOut, audio.FrameSize),
		firstFrame:     true,
	}

	if settings.EnableReflections {
		s.decodeEffect = effects.NewAmbisonicsDecodeEffect(audio, effects.AmbisonicsDecodeSettings{
			SpeakerLayout: settings.SpeakerLayout,
			MaxOrder:      settings.MaxOrder,
			HRTF:          ctx.defaultHRTF,
		})
	}

	if settings.EnablePathing {
		s.pathEffect = effects.NewPathEffect(audio, effects.PathSettings{
			MaxOrder:      settings.MaxOrder,
			Spatialize:    true,
			SpeakerLayout: settings.SpeakerLayout,
			HRTF:          ctx.defaultHRTF,
		})
	}

	return s, nil
}

// Reset discards all DSP state and tail bookkeeping.
func (s *Spatializer) Reset() {
	s.directEffect.Reset()
	s.binauralEffect.Reset()
	if s.decodeEffect != nil {
		s.decodeEffect.Reset()
	}
	if s.pathEffect != nil {
		s.pathEffect.Reset()
	}
	for _, conv := range s.reflConvolvers {
		conv.Reset()
	}
	s.firstFrame = true
	s.silentFrames = 0
	s.lastReflections = nil
}

// Apply renders one frame. in must be mono; out must have the layout's
// channel count (stereo when binaural). Returns TailRemaining while any
// branch is still draining.
func (s *Spatializer) Apply(params SpatializerParams, in, out *dsp.AudioBuffer) dsp.EffectState {
	out.MakeSilent()

	db := s.ctx.SnapshotHRTF()
	if db == nil {
		db = s.ctx.defaultHRTF
	}

	var outputs SimulationOutputs
	if params.Source != nil {
		flags := SimulateDirect
		if s.settings.EnableReflections {
			flags |= SimulateReflections
		}
		if s.settings.EnablePathing {
			flags |= SimulatePathing
		}
		outputs = params.Source.GetOutputs(flags)
	}

	state := dsp.TailComplete

	// Direct path: gain chain, then spatialization, then the direct level
	// ramp into the output mix.
	s.directEffect.Apply(outputs.Direct.DirectParams(params.DirectFlags), in, s.monoDirect)

	if params.Binaural {
		binauralState := s.binauralEffect.Apply(effects.BinauralParams{
			Direction:     outputs.Direct.Direction,
			Interpolation: params.Interpolation,
			SpatialBlend:  1,
			HRTF:          db,
		}, s.monoDirect, s.spatialized)
		if binauralState == dsp.TailRemaining {
			state = dsp.TailRemaining
		}
		s.mixRamped(s.spatialized, out, hrtf.NumEars, s.prevDirectLevel, params.DirectLevel)
	} else {
		s.panDirect(outputs.Direct.Direction, out, params.DirectLevel)
	}

	// Reflections: ramp the mix level onto the mono input, then either hand
	// off to the shared mixer or convolve and decode locally. With no new
	// simulation outputs the last published data keeps being used.
	if s.settings.EnableReflections {
		if outputs.Reflections != nil {
			s.lastReflections = outputs.Reflections
		}
		data := s.lastReflections

		s.rampInto(in, s.reflInput, s.prevReflLevel, params.ReflectionsLevel)

		if mixer := s.ctx.SnapshotReflectionMixer(); mixer != nil && params.Source != nil {
			mixer.AddInput(params.Source.Handle(), s.reflInput, data)
		} else if data != nil {
			if reflState := s.applyReflections(data, params.Listener, params.Binaural, db, out); reflState == dsp.TailRemaining {
				state = dsp.TailRemaining
			}
		}
	}

	// Pathing.
	if s.settings.EnablePathing && outputs.Pathing != nil {
		s.rampInto(in, s.reflInput, s.prevPathLevel, params.PathingLevel)
		pathState := s.pathEffect.Apply(effects.PathParams{
			Order:       outputs.Pathing.Order,
			EQCoeffs:    outputs.Pathing.EQCoeffs,
			SHCoeffs:    outputs.Pathing.SHCoeffs,
			NormalizeEQ: true,
			Binaural:    params.PathingBinaural,
			Listener:    params.Listener,
			HRTF:        db,
		}, s.reflInput, s.branchOut)
		if pathState == dsp.TailRemaining {
			state = dsp.TailRemaining
		}
		out.Mix(s.branchOut)
	}

	s.prevDirectLevel = params.DirectLevel
	s.prevReflLevel = params.ReflectionsLevel
	s.prevPathLevel = params.PathingLevel
	s.firstFrame = false

	s.updateSilence(in, state)
	return state
}

// applyReflections convolves each Ambisonic channel against the published IR
// spectra and decodes into the output frame.
func (s *Spatializer) applyReflections(data *ReflectionsData, listener geom.CoordinateSpace, binaural bool, db *hrtf.Database, out *dsp.AudioBuffer) dsp.EffectState {
	s.prepareReflConvolvers(data)

	state := dsp.TailComplete
	s.ambiBuffer.MakeSilent()

	numCoeffs := sh.NumCoeffs(data.Order)
	if numCoeffs > s.ambiBuffer.NumChannels() {
		numCoeffs = s.ambiBuffer.NumChannels()
	}

	for ch := 0; ch < numCoeffs && ch < len(data.Spectra); ch++ {
		chState := s.reflConvolvers[ch].Apply(effects.OverlapAddParams{
			FFTIRs: [][]complex64{data.Spectra[ch]},
		}, s.reflInput, s.ambiBuffer.ChannelView(ch))
		if chState == dsp.TailRemaining {
			state = dsp.TailRemaining
		}
	}

	decodeState := s.decodeEffect.Apply(effects.AmbisonicsDecodeParams{
		Orientation: listener,
		Order:       data.Order,
		Binaural:    binaural,
		HRTF:        db,
	}, s.ambiBuffer, s.branchOut)
	if decodeState == dsp.TailRemaining {
		state = dsp.TailRemaining
	}

	out.Mix(s.branchOut)
	return state
}

func (s *Spatializer) prepareReflConvolvers(data *ReflectionsData) {
	if s.reflConvolvers != nil && s.reflIRSize == data.IRSize {
		return
	}
	s.reflIRSize = data.IRSize
	s.reflConvolvers = make([]*effects.OverlapAddEffect, sh.NumCoeffs(s.settings.MaxOrder))
	for ch := range s.reflConvolvers {
		s.reflConvolvers[ch] = effects.NewOverlapAddEffect(s.ctx.settings, effects.OverlapAddSettings{
			NumChannels: 1,
			IRSize:      data.IRSize,
		})
	}
}

// panDirect distributes the mono direct frame to the speaker layout with
// per-speaker panning weights, ramping the direct level.
func (s *Spatializer) panDirect(direction geom.Vector3, out *dsp.AudioBuffer, level float32) {
	frameSize := s.ctx.settings.FrameSize
	start := s.prevDirectLevel
	if s.firstFrame {
		start = level
	}
	step := (level - start) / float32(frameSize)

	layout := s.settings.SpeakerLayout
	mono := s.monoDirect.Channel(0)
	for i := 0; i < layout.NumSpeakers && i < out.NumChannels(); i++ {
		weight := effects.PanningWeight(direction, layout, i)
		outCh := out.Channel(i)
		g := start
		for k := 0; k < frameSize; k++ {
			g += step
			outCh[k] += g * weight * mono[k]
		}
	}
}

// mixRamped adds src's first numChannels channels into out with a linear
// level ramp.
func (s *Spatializer) mixRamped(src, out *dsp.AudioBuffer, numChannels int, prev, level float32) {
	frameSize := s.ctx.settings.FrameSize
	start := prev
	if s.firstFrame {
		start = level
	}
	step := (level - start) / float32(frameSize)

	for ch := 0; ch < numChannels && ch < out.NumChannels() && ch < src.NumChannels(); ch++ {
		srcCh := src.Channel(ch)
		outCh := out.Channel(ch)
		g := start
		for k := 0; k < frameSize; k++ {
			g += step
			outCh[k] += g * srcCh[k]
		}
	}
}

// rampInto writes level * in into dst with a linear ramp.
func (s *Spatializer) rampInto(in, dst *dsp.AudioBuffer, prev, level float32) {
	frameSize := s.ctx.settings.FrameSize
	start := prev
	if s.firstFrame {
		start = level
	}
	step := (level - start) / float32(frameSize)

	inCh := in.Channel(0)
	dstCh := dst.Channel(0)
	g := start
	for k := 0; k < frameSize; k++ {
		g += step
		dstCh[k] = g * inCh[k]
	}
}

// Tail drains every branch into out.
func (s *Spatializer) Tail(out *dsp.AudioBuffer) dsp.EffectState {
	out.MakeSilent()
	state := dsp.TailComplete

	if binauralState := s.binauralEffect.Tail(s.spatialized); binauralState == dsp.TailRemaining {
		state = dsp.TailRemaining
	}
	for ch := 0; ch < hrtf.NumEars && ch < out.NumChannels(); ch++ {
		dsp.ScaleAccumulate(s.ctx.settings.FrameSize, s.spatialized.Channel(ch), s.prevDirectLevel, out.Channel(ch))
	}

	if s.settings.EnableReflections && s.reflConvolvers != nil {
		s.ambiBuffer.MakeSilent()
		for ch := range s.reflConvolvers {
			if chState := s.reflConvolvers[ch].Tail(s.ambiBuffer.ChannelView(ch)); chState == dsp.TailRemaining {
				state = dsp.TailRemaining
			}
		}
		if decodeState := s.decodeEffect.Tail(s.branchOut); decodeState == dsp.TailRemaining {
			state = dsp.TailRemaining
		}
		out.Mix(s.branchOut)
	}

	if s.settings.EnablePathing {
		if pathState := s.pathEffect.Tail(s.branchOut); pathState == dsp.TailRemaining {
			state = dsp.TailRemaining
		}
		out.Mix(s.branchOut)
	}

	s.updateSilence(nil, state)
	return state
}

// NumTailSamplesRemaining reports the largest remaining tail across
// branches.
func (s *Spatializer) NumTailSamplesRemaining() int {
	result := s.binauralEffect.NumTailSamplesRemaining()
	for _, conv := range s.reflConvolvers {
		if n := conv.NumTailSamplesRemaining(); n > result {
			result = n
		}
	}
	if s.pathEffect != nil {
		if n := s.pathEffect.NumTailSamplesRemaining(); n > result {
			result = n
		}
	}
	return result
}

// updateSilence tracks consecutive fully-drained silent frames for the
// DontProcess decision.
func (s *Spatializer) updateSilence(in *dsp.AudioBuffer, state dsp.EffectState) {
	silentInput := in == nil || in.IsSilent()
	if silentInput && state == dsp.TailComplete {
		if s.silentFrames < 2 {
			s.silentFrames++
		}
	} else {
		s.silentFrames = 0
	}
}

// Decision reports whether the host still needs to run this source's
// callback. DontProcess is returned once the source has been silent with all
// tails complete for two consecutive frames.
func (s *Spatializer) Decision() ProcessDecision {
	if s.silentFrames >= 2 {
		return DontProcess
	}
	return Process
}
