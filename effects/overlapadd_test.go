package effects

import (
	"math"
	"math/rand"
	"testing"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/internal/fftx"
)

func testSettings() dsp.AudioSettings {
	return dsp.AudioSettings{SamplingRate: 48000, FrameSize: 256}
}

// spectraForIR transforms a time-domain IR into the partitioned layout the
// effect consumes.
func spectraForIR(settings dsp.AudioSettings, ir []float32) []complex64 {
	plan := fftx.NewPlan(settings.FrameSize, len(ir))
	fft := fftx.New(plan.FFTSize)
	out := make([]complex64, plan.NumSpectrumSamples)
	plan.PartitionSpectra(fft, ir, out)
	return out
}

// TestImpulseReproducesIR feeds a unit impulse followed by silence and
// checks that the output reproduces the impulse response.
func TestImpulseReproducesIR(t *testing.T) {
	tests := []struct {
		name   string
		irSize int
	}{
		{"short_ir", 64},
		{"frame_sized_ir", 256},
		{"partitioned_ir", 1000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			settings := testSettings()

			rng := rand.New(rand.NewSource(7))
			ir := make([]float32, tc.irSize)
			for i := range ir {
				ir[i] = float32(rng.Float64()*2 - 1)
			}
			spectra := spectraForIR(settings, ir)

			e := NewOverlapAddEffect(settings, OverlapAddSettings{NumChannels: 1, IRSize: tc.irSize})
			params := OverlapAddParams{FFTIRs: [][]complex64{spectra}}

			in := dsp.NewAudioBuffer(1, settings.FrameSize)
			out := dsp.NewAudioBuffer(1, settings.FrameSize)
			in.Channel(0)[0] = 1

			numFrames := (tc.irSize+settings.FrameSize-1)/settings.FrameSize + 2
			got := make([]float32, 0, numFrames*settings.FrameSize)

			e.Apply(params, in, out)
			got = append(got, out.Channel(0)...)

			in.MakeSilent()
			for frame := 1; frame < numFrames; frame++ {
				e.Apply(params, in, out)
				got = append(got, out.Channel(0)...)
			}

			var errSum, refSum float64
			for i := 0; i < tc.irSize; i++ {
				d := float64(got[i] - ir[i])
				errSum += d * d
				refSum += float64(ir[i]) * float64(ir[i])
			}
			rmsErr := math.Sqrt(errSum / float64(tc.irSize))
			if rmsErr > 1e-4*math.Max(1, math.Sqrt(refSum/float64(tc.irSize))) {
				t.Errorf("impulse response RMS error = %v", rmsErr)
			}

			// Past the IR the output must decay to silence.
			for i := tc.irSize + settings.FrameSize; i < len(got); i++ {
				if math.Abs(float64(got[i])) > 1e-4 {
					t.Errorf("residual output %v at sample %d past the IR", got[i], i)
					break
				}
			}
		})
	}
}

func TestTailBookkeeping(t *testing.T) {
	settings := testSettings()
	const irSize = 1000

	ir := make([]float32, irSize)
	ir[irSize-1] = 1
	spectra := spectraForIR(settings, ir)

	e := NewOverlapAddEffect(settings, OverlapAddSettings{NumChannels: 1, IRSize: irSize})
	params := OverlapAddParams{FFTIRs: [][]complex64{spectra}}

	in := dsp.NewAudioBuffer(1, settings.FrameSize)
	out := dsp.NewAudioBuffer(1, settings.FrameSize)

	if state := e.Apply(params, in, out); state != dsp.TailComplete {
		t.Fatal("silent input from a fresh effect should report TailComplete")
	}

	in.Channel(0)[0] = 1
	if state := e.Apply(params, in, out); state != dsp.TailRemaining {
		t.Fatal("non-silent input should report TailRemaining")
	}

	prev := e.NumTailSamplesRemaining()
	if prev <= 0 {
		t.Fatal("tail samples should be positive after non-silent input")
	}

	state := dsp.TailRemaining
	for i := 0; i < 64 && state == dsp.TailRemaining; i++ {
		state = e.Tail(out)
		remaining := e.NumTailSamplesRemaining()
		if remaining > prev {
			t.Fatalf("tail samples increased: %d -> %d", prev, remaining)
		}
		prev = remaining
	}

	if state != dsp.TailComplete {
		t.Error("tail did not drain to TailComplete")
	}
	if e.NumTailSamplesRemaining() != 0 {
		t.Errorf("tail samples remaining = %d after drain", e.NumTailSamplesRemaining())
	}
}

func TestStereoIRs(t *testing.T) {
	settings := testSettings()
	const irSize = 64

	left := make([]float32, irSize)
	right := make([]float32, irSize)
	left[0] = 1
	right[1] = 0.5

	params := OverlapAddParams{FFTIRs: [][]complex64{
		spectraForIR(settings, left),
		spectraForIR(settings, right),
	}}

	e := NewOverlapAddEffect(settings, OverlapAddSettings{NumChannels: 2, IRSize: irSize})

	in := dsp.NewAudioBuffer(1, settings.FrameSize)
	out := dsp.NewAudioBuffer(2, settings.FrameSize)
	in.Channel(0)[0] = 1

	e.Apply(params, in, out)

	if math.Abs(float64(out.Channel(0)[0])-1) > 1e-4 {
		t.Errorf("left[0] = %v, want 1", out.Channel(0)[0])
	}
	if math.Abs(float64(out.Channel(1)[1])-0.5) > 1e-4 {
		t.Errorf("right[1] = %v, want 0.5", out.Channel(1)[1])
	}
}

func TestReset(t *testing.T) {
	settings := testSettings()
	const irSize = 512

	ir := make([]float32, irSize)
	for i := range ir {
		ir[i] = 1
	}
	params := OverlapAddParams{FFTIRs: [][]complex64{spectraForIR(settings, ir)}}

	e := NewOverlapAddEffect(settings, OverlapAddSettings{NumChannels: 1, IRSize: irSize})

	in := dsp.NewAudioBuffer(1, settings.FrameSize)
	out := dsp.NewAudioBuffer(1, settings.FrameSize)
	in.Channel(0)[0] = 1
	e.Apply(params, in, out)

	e.Reset()

	in.MakeSilent()
	if state := e.Apply(params, in, out); state != dsp.TailComplete {
		t.Error("reset did not clear tail state")
	}
	if !out.IsSilent() {
		t.Error("reset did not clear the delay line")
	}
}
