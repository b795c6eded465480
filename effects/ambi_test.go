package effects

import (
	"math"
	"testing"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/hrtf"
	"github.com/auralab/aural/sh"
)

func TestPanningWeightMono(t *testing.T) {
	layout := dsp.NewSpeakerLayout(dsp.SpeakerLayoutMono)
	if got := PanningWeight(geom.V(1, 2, 3), layout, 0); got != 1 {
		t.Errorf("mono panning weight = %v, want 1", got)
	}
}

func TestPanningWeightStereoSymmetry(t *testing.T) {
	layout := dsp.NewSpeakerLayout(dsp.SpeakerLayoutStereo)

	// A centered source weights both speakers equally.
	center := geom.V(0, 0, -1)
	left := PanningWeight(center, layout, 0)
	right := PanningWeight(center, layout, 1)
	if math.Abs(float64(left-right)) > 1e-6 {
		t.Errorf("center source weights %v / %v, want equal", left, right)
	}

	// A hard-right source weights the right speaker more.
	hardRight := geom.V(1, 0, 0)
	if PanningWeight(hardRight, layout, 1) <= PanningWeight(hardRight, layout, 0) {
		t.Error("right source does not favor the right speaker")
	}

	// Energy is normalized across speakers.
	var energy float64
	for i := 0; i < layout.NumSpeakers; i++ {
		w := float64(PanningWeight(geom.V(0.5, 0, -1).Normalize(), layout, i))
		energy += w * w
	}
	if math.Abs(energy-1) > 1e-5 {
		t.Errorf("panning energy = %v, want 1", energy)
	}
}

// TestPanningOmniField decodes a pure W (order 0) field and expects every
// speaker to receive the same signal.
func TestPanningOmniField(t *testing.T) {
	settings := testSettings()
	layout := dsp.NewSpeakerLayout(dsp.SpeakerLayoutQuad)

	e := NewAmbisonicsPanningEffect(settings, AmbisonicsPanningSettings{
		SpeakerLayout: layout,
		MaxOrder:      1,
	})

	in := dsp.NewAudioBuffer(sh.NumCoeffs(1), settings.FrameSize)
	out := dsp.NewAudioBuffer(layout.NumSpeakers, settings.FrameSize)
	for i := range in.Channel(0) {
		in.Channel(0)[i] = 1
	}

	if state := e.Apply(AmbisonicsPanningParams{Order: 1}, in, out); state != dsp.TailComplete {
		t.Fatal("panning should be tail-free")
	}

	ref := out.Channel(0)[settings.FrameSize/2]
	if ref == 0 {
		t.Fatal("panned output is silent")
	}
	for spk := 1; spk < layout.NumSpeakers; spk++ {
		got := out.Channel(spk)[settings.FrameSize/2]
		if math.Abs(float64(got-ref)) > 1e-4 {
			t.Errorf("speaker %d gets %v, speaker 0 gets %v; omni field should be uniform", spk, got, ref)
		}
	}
}

// TestPanningDirectionalField pans a projected point source and expects the
// nearest speaker to dominate.
func TestPanningDirectionalField(t *testing.T) {
	settings := testSettings()
	layout := dsp.NewSpeakerLayout(dsp.SpeakerLayoutQuad)

	e := NewAmbisonicsPanningEffect(settings, AmbisonicsPanningSettings{
		SpeakerLayout: layout,
		MaxOrder:      1,
	})

	// Source at front-left (the direction of speaker 0).
	dir := geom.V(-1, 0, -1).Normalize()
	coeffs := make([]float32, sh.NumCoeffs(1))
	sh.ProjectSinglePoint(dir, 1, coeffs)

	in := dsp.NewAudioBuffer(sh.NumCoeffs(1), settings.FrameSize)
	out := dsp.NewAudioBuffer(layout.NumSpeakers, settings.FrameSize)
	for ch, c := range coeffs {
		for i := range in.Channel(ch) {
			in.Channel(ch)[i] = c
		}
	}

	e.Apply(AmbisonicsPanningParams{Order: 1}, in, out)

	k := settings.FrameSize / 2
	frontLeft := math.Abs(float64(out.Channel(0)[k]))
	rearRight := math.Abs(float64(out.Channel(3)[k]))
	if frontLeft <= rearRight {
		t.Errorf("front-left source: speaker 0 = %v, speaker 3 = %v; want front-left louder", frontLeft, rearRight)
	}
}

func defaultDatabase(t *testing.T, settings dsp.AudioSettings) *hrtf.Database {
	t.Helper()
	return hrtf.NewDatabase(settings, hrtf.DefaultHRIRSet(settings.SamplingRate))
}

func TestAmbisonicsBinauralProducesStereo(t *testing.T) {
	settings := testSettings()
	db := defaultDatabase(t, settings)

	e := NewAmbisonicsBinauralEffect(settings, AmbisonicsBinauralSettings{MaxOrder: 1, HRTF: db})

	// Project a hard-right source into an order-1 field.
	coeffs := make([]float32, sh.NumCoeffs(1))
	sh.ProjectSinglePoint(geom.V(1, 0, 0), 1, coeffs)

	in := dsp.NewAudioBuffer(sh.NumCoeffs(1), settings.FrameSize)
	out := dsp.NewAudioBuffer(2, settings.FrameSize)
	for ch, c := range coeffs {
		in.Channel(ch)[0] = c
	}

	state := e.Apply(AmbisonicsBinauralParams{HRTF: db, Order: 1}, in, out)
	if state != dsp.TailRemaining {
		t.Error("impulse input should leave a convolution tail")
	}

	var left, right float64
	for i := 0; i < settings.FrameSize; i++ {
		left += math.Abs(float64(out.Channel(0)[i]))
		right += math.Abs(float64(out.Channel(1)[i]))
	}
	// Drain one tail frame too; short HRIRs may land mostly there.
	e.Tail(out)
	for i := 0; i < settings.FrameSize; i++ {
		left += math.Abs(float64(out.Channel(0)[i]))
		right += math.Abs(float64(out.Channel(1)[i]))
	}

	if left == 0 && right == 0 {
		t.Fatal("binaural decode produced silence")
	}
	if right <= left {
		t.Errorf("hard-right field: left %v, right %v; want right louder", left, right)
	}
}

func TestAmbisonicsBinauralTailDrains(t *testing.T) {
	settings := testSettings()
	db := defaultDatabase(t, settings)

	e := NewAmbisonicsBinauralEffect(settings, AmbisonicsBinauralSettings{MaxOrder: 1, HRTF: db})

	in := dsp.NewAudioBuffer(sh.NumCoeffs(1), settings.FrameSize)
	out := dsp.NewAudioBuffer(2, settings.FrameSize)
	in.Channel(0)[0] = 1
	e.Apply(AmbisonicsBinauralParams{HRTF: db, Order: 1}, in, out)

	state := dsp.TailRemaining
	frames := 0
	for state == dsp.TailRemaining && frames < 64 {
		state = e.Tail(out)
		frames++
	}
	if state != dsp.TailComplete {
		t.Error("binaural tail did not drain")
	}
}

func TestDecodeModeSwitchResetsInactiveBranch(t *testing.T) {
	settings := testSettings()
	db := defaultDatabase(t, settings)
	layout := dsp.NewSpeakerLayout(dsp.SpeakerLayoutStereo)

	e := NewAmbisonicsDecodeEffect(settings, AmbisonicsDecodeSettings{
		SpeakerLayout: layout,
		MaxOrder:      1,
		HRTF:          db,
	})

	in := dsp.NewAudioBuffer(sh.NumCoeffs(1), settings.FrameSize)
	out := dsp.NewAudioBuffer(2, settings.FrameSize)
	in.Channel(0)[0] = 1

	params := AmbisonicsDecodeParams{
		Orientation: geom.CanonicalSpace(geom.Vector3{}),
		Order:       1,
		Binaural:    true,
		HRTF:        db,
	}

	// Run binaural with signal, building up a convolution tail.
	e.Apply(params, in, out)

	// Switch to panning with silent input.
	params.Binaural = false
	in.MakeSilent()
	if state := e.Apply(params, in, out); state != dsp.TailComplete {
		t.Error("panned branch should have no tail")
	}
	if !out.IsSilent() {
		t.Error("panned branch leaked signal after switch")
	}

	// Switch back to binaural: the binaural branch was reset on the way out,
	// so its old tail must not bleed through.
	params.Binaural = true
	e.Apply(params, in, out)
	for ear := 0; ear < 2; ear++ {
		for i, s := range out.Channel(ear) {
			if math.Abs(float64(s)) > 1e-6 {
				t.Fatalf("stale tail bled after mode switch: ear %d sample %d = %v", ear, i, s)

			}
		}
	}
}

func TestDecodeBinauralRequiresStereo(t *testing.T) {
	settings := testSettings()
	db := defaultDatabase(t, settings)
	layout := dsp.NewSpeakerLayout(dsp.SpeakerLayoutQuad)

	e := NewAmbisonicsDecodeEffect(settings, AmbisonicsDecodeSettings{
		SpeakerLayout: layout,
		MaxOrder:      1,
		HRTF:          db,
	})

	in := dsp.NewAudioBuffer(sh.NumCoeffs(1), settings.FrameSize)
	out := dsp.NewAudioBuffer(layout.NumSpeakers, settings.FrameSize)
	in.Channel(0)[0] = 1

	// Binaural requested, but the layout is quad: panning must be used, and
	// panning has no tail.
	state := e.Apply(AmbisonicsDecodeParams{
		Orientation: geom.CanonicalSpace(geom.Vector3{}),
		Order:       1,
		Binaural:    true,
		HRTF:        db,
	}, in, out)
	if state != dsp.TailComplete {
		t.Error("quad layout should force the panning branch")
	}
}
