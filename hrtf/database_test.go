package hrtf

import (
	"math"
	"testing"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/sh"
)

func testSettings() dsp.AudioSettings {
	return dsp.AudioSettings{SamplingRate: 48000, FrameSize: 256}
}

func TestDefaultHRIRSetShape(t *testing.T) {
	set := DefaultHRIRSet(48000)

	if set.NumSamples != defaultHRIRLength {
		t.Errorf("NumSamples = %d, want %d", set.NumSamples, defaultHRIRLength)
	}
	if len(set.Directions) != len(set.Data) {
		t.Fatalf("directions (%d) and data (%d) disagree", len(set.Directions), len(set.Data))
	}
	for i, pair := range set.Data {
		for ear := 0; ear < NumEars; ear++ {
			if len(pair[ear]) != set.NumSamples {
				t.Fatalf("direction %d ear %d has %d samples", i, ear, len(pair[ear]))
			}
		}
	}
	for i, d := range set.Directions {
		if math.Abs(d.Norm()-1) > 1e-9 {
			t.Errorf("direction %d is not unit: %v", i, d)
		}
	}
}

// TestDefaultSetLateralCues checks that a hard-right direction produces a
// louder, earlier right-ear response.
func TestDefaultSetLateralCues(t *testing.T) {
	set := DefaultHRIRSet(48000)

	// Find the measured direction closest to hard right.
	best, bestDot := 0, -2.0
	for i, d := range set.Directions {
		if dot := d.X; dot > bestDot {
			bestDot = dot
			best = i
		}
	}

	pair := set.Data[best]
	energy := func(samples []float32) float64 {
		var e float64
		for _, s := range samples {
			e += float64(s) * float64(s)
		}
		return e
	}
	if energy(pair[1]) <= energy(pair[0]) {
		t.Error("right ear is not louder for a hard-right direction")
	}

	onset := func(samples []float32) int {
		peak := 0.0
		for _, s := range samples {
			if a := math.Abs(float64(s)); a > peak {
				peak = a
			}
		}
		for i, s := range samples {
			if math.Abs(float64(s)) > 0.3*peak {
				return i
			}
		}
		return len(samples)
	}
	if onset(pair[1]) > onset(pair[0]) {
		t.Error("right ear does not lead for a hard-right direction")
	}
}

func TestDatabaseAccessors(t *testing.T) {
	settings := testSettings()
	set := DefaultHRIRSet(settings.SamplingRate)
	db := NewDatabase(settings, set)

	if db.NumSamples() != set.NumSamples {
		t.Errorf("NumSamples = %d, want %d", db.NumSamples(), set.NumSamples)
	}
	if db.NumDirections() != len(set.Directions) {
		t.Errorf("NumDirections = %d, want %d", db.NumDirections(), len(set.Directions))
	}

	for i := 0; i < sh.NumCoeffs(MaxAmbisonicOrder); i++ {
		pair := db.AmbisonicsHRTF(i)
		for ear := 0; ear < NumEars; ear++ {
			if len(pair[ear]) != db.NumSpectrumSamples() {
				t.Fatalf("ambisonics channel %d ear %d spectrum has %d bins, want %d",
					i, ear, len(pair[ear]), db.NumSpectrumSamples())
			}
		}
	}
}

func TestNearestHRTFPicksMeasuredDirection(t *testing.T) {
	settings := testSettings()
	set := DefaultHRIRSet(settings.SamplingRate)
	db := NewDatabase(settings, set)

	// Query exactly at a measured direction: the returned spectra must be
	// that direction's own.
	dir := set.Directions[17]
	got := db.NearestHRTF(dir)
	want := db.directional[17]

	for ear := 0; ear < NumEars; ear++ {
		for i := range want[ear] {
			if got[ear][i] != want[ear][i] {
				t.Fatalf("nearest lookup returned a different HRIR (ear %d bin %d)", ear, i)
			}
		}
	}
}

func TestInterpolatedHRTFAtGridPoint(t *testing.T) {
	settings := testSettings()
	set := DefaultHRIRSet(settings.SamplingRate)
	db := NewDatabase(settings, set)

	dir := set.Directions[5]
	out := [NumEars][]complex64{
		make([]complex64, db.NumSpectrumSamples()),
		make([]complex64, db.NumSpectrumSamples()),
	}
	db.InterpolatedHRTF(dir, out)

	want := db.directional[5]
	for ear := 0; ear < NumEars; ear++ {
		for i := range want[ear] {
			d := out[ear][i] - want[ear][i]
			if math.Hypot(float64(real(d)), float64(imag(d))) > 1e-4 {
				t.Fatalf("interpolated HRIR at a grid point differs (ear %d bin %d)", ear, i)
			}
		}
	}
}

func TestHRIRSetSerializationRoundTrip(t *testing.T) {
	set := DefaultHRIRSet(44100)

	data := set.Serialize()
	if uint64(len(data)) != set.SerializedSize() {
		t.Errorf("serialized size = %d, SerializedSize reports %d", len(data), set.SerializedSize())
	}

	loaded, err := LoadHRIRSet(data)
	if err != nil {
		t.Fatalf("LoadHRIRSet: %v", err)
	}
	if loaded.SamplingRate != set.SamplingRate || loaded.NumSamples != set.NumSamples {
		t.Error("header fields did not survive the roundtrip")
	}
	if len(loaded.Directions) != len(set.Directions) {
		t.Fatal("direction count changed")
	}
	for i := range set.Data {
		for ear := 0; ear < NumEars; ear++ {
			for k := range set.Data[i][ear] {
				if loaded.Data[i][ear][k] != set.Data[i][ear][k] {
					t.Fatalf("sample mismatch at direction %d ear %d sample %d", i, ear, k)
				}
			}
		}
	}
}

func TestLoadHRIRSetRejectsGarbage(t *testing.T) {
	if _, err := LoadHRIRSet([]byte("not a blob")); err == nil {
		t.Error("garbage input did not fail")
	}

	set := DefaultHRIRSet(44100)
	data := set.Serialize()
	data[4] ^= 0xFF // corrupt the type tag
	if _, err := LoadHRIRSet(data); err == nil {
		t.Error("corrupted type tag did not fail")
	}
}
