package aural

import (
	"sync"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/effects"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/hrtf"
	"github.com/auralab/aural/sh"
)

// ReflectionMixer centralizes reflection rendering: orchestrators submit
// their per-source mono reflection inputs each frame, and the host calls
// Apply once per frame to convolve every submission, sum the Ambisonic
// results, and decode a single time. This trades per-source decodes for one,
// which is the useful part of a shared tail accelerator without assuming any
// particular convolution backend.
type ReflectionMixer struct {
	settings dsp.AudioSettings
	maxOrder int

	mu      sync.Mutex
	entries map[SourceHandle]*mixerEntry

	decode    *effects.AmbisonicsDecodeEffect
	ambiFrame *dsp.AudioBuffer
	ambiAccum *dsp.AudioBuffer
	numCoeffs int
}

type mixerEntry struct {
	input      *dsp.AudioBuffer
	hasInput   bool
	data       *ReflectionsData
	convolvers []*effects.OverlapAddEffect
	irSize     int
}

// MixerApplyParams are the per-frame parameters of the shared mix.
type MixerApplyParams struct {
	Orientation geom.CoordinateSpace
	Binaural    bool
	HRTF        *hrtf.Database
}

// NewReflectionMixer builds a mixer for the given layout and order.
func NewReflectionMixer(settings dsp.AudioSettings, layout dsp.SpeakerLayout, maxOrder int, db *hrtf.Database) *ReflectionMixer {
	numCoeffs := sh.NumCoeffs(maxOrder)
	return &ReflectionMixer{
		settings: settings,
		maxOrder: maxOrder,
		entries:  make(map[SourceHandle]*mixerEntry),
		decode: effects.NewAmbisonicsDecodeEffect(settings, effects.AmbisonicsDecodeSettings{
			SpeakerLayout: layout,
			MaxOrder:      maxOrder,
			HRTF:          db,
		}),
		ambiFrame: dsp.NewAudioBuffer(numCoeffs, settings.FrameSize),
		ambiAccum: dsp.NewAudioBuffer(numCoeffs, settings.FrameSize),
		numCoeffs: numCoeffs,
	}
}

// Register adds a source to the mix. Call from a control thread before the
// source's orchestrator starts submitting.
func (m *ReflectionMixer) Register(handle SourceHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[handle]; !ok {
		m.entries[handle] = &mixerEntry{
			input: dsp.NewAudioBuffer(1, m.settings.FrameSize),
		}
	}
}

// Unregister removes a source from the mix.
func (m *ReflectionMixer) Unregister(handle SourceHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, handle)
}

// AddInput submits one frame of a source's reflection input along with the
// reflection data to convolve it with. Audio thread only.
func (m *ReflectionMixer) AddInput(handle SourceHandle, in *dsp.AudioBuffer, data *ReflectionsData) {
	entry, ok := m.entries[handle]
	if !ok {
		return
	}
	entry.input.CopyFrom(in)
	entry.hasInput = true
	entry.data = data
}

// Apply convolves and decodes the mixed reflections into out. Audio thread
// only, once per frame, after every orchestrator has submitted.
func (m *ReflectionMixer) Apply(params MixerApplyParams, out *dsp.AudioBuffer) dsp.EffectState {
	m.ambiAccum.MakeSilent()

	state := dsp.TailComplete
	for _, entry := range m.entries {
		if entry.data == nil {
			continue
		}
		m.prepareEntry(entry)

		if !entry.hasInput {
			entry.input.MakeSilent()
		}
		entry.hasInput = false

		numCoeffs := sh.NumCoeffs(entry.data.Order)
		for ch := 0; ch < numCoeffs && ch < m.numCoeffs; ch++ {
			chState := entry.convolvers[ch].Apply(effects.OverlapAddParams{
				FFTIRs: [][]complex64{entry.data.Spectra[ch]},
			}, entry.input, m.ambiFrame.ChannelView(ch))
			if chState == dsp.TailRemaining {
				state = dsp.TailRemaining
			}
			dsp.Add(m.settings.FrameSize, m.ambiAccum.Channel(ch), m.ambiFrame.Channel(ch), m.ambiAccum.Channel(ch))
		}
	}

	decodeState := m.decode.Apply(effects.AmbisonicsDecodeParams{
		Orientation: params.Orientation,
		Order:       m.maxOrder,
		Binaural:    params.Binaural,
		HRTF:        params.HRTF,
	}, m.ambiAccum, out)
	if decodeState == dsp.TailRemaining {
		state = dsp.TailRemaining
	}

	return state
}

// prepareEntry (re)builds an entry's convolver bank when the published IR
// length changes.
func (m *ReflectionMixer) prepareEntry(entry *mixerEntry) {
	if entry.convolvers != nil && entry.irSize == entry.data.IRSize {
		return
	}
	entry.irSize = entry.data.IRSize
	entry.convolvers = make([]*effects.OverlapAddEffect, m.numCoeffs)
	for ch := range entry.convolvers {
		entry.convolvers[ch] = effects.NewOverlapAddEffect(m.settings, effects.OverlapAddSettings{
			NumChannels: 1,
			IRSize:      entry.irSize,
		})
	}
}
