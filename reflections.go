package aural

import (
	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/internal/fftx"
	"github.com/auralab/aural/sim"
)

// ReflectionsData is the audio-thread-ready form of a reconstructed
// reflection impulse response: one partitioned frequency-domain IR per SH
// channel, laid out for the overlap-add convolution engine. It is built on
// the simulation thread and published through a source's handoff slot;
// instances are immutable once published.
type ReflectionsData struct {
	Order   int
	IRSize  int
	Spectra [][]complex64
}

// NewReflectionsData transforms a reconstructed impulse response into
// partition spectra for the given audio settings. Runs on the simulation
// thread.
func NewReflectionsData(ir *sim.ImpulseResponse, order int, settings dsp.AudioSettings) *ReflectionsData {
	plan := fftx.NewPlan(settings.FrameSize, ir.NumSamples())
	fft := fftx.New(plan.FFTSize)

	data := &ReflectionsData{
		Order:   order,
		IRSize:  ir.NumSamples(),
		Spectra: make([][]complex64, ir.NumChannels()),
	}
	for ch := 0; ch < ir.NumChannels(); ch++ {
		spectrum := make([]complex64, plan.NumSpectrumSamples)
		plan.PartitionSpectra(fft, ir.Channel(ch), spectrum)
		data.Spectra[ch] = spectrum
	}
	return data
}
