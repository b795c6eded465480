package fftx

import (
	"math"
	"math/rand"
	"testing"
)

func TestNextPow2(t *testing.T) {
	tests := []struct{ in, want int }{
		{1, 1}, {2, 2}, {3, 4}, {1024, 1024}, {1025, 2048},
	}
	for _, tc := range tests {
		if got := NextPow2(tc.in); got != tc.want {
			t.Errorf("NextPow2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestForwardInverseRoundTrip(t *testing.T) {
	const n = 256
	fft := New(n)

	rng := rand.New(rand.NewSource(1))
	src := make([]float32, n)
	for i := range src {
		src[i] = float32(rng.Float64()*2 - 1)
	}

	spectrum := make([]complex64, fft.NumSpectrumSamples())
	fft.Forward(src, spectrum)

	dst := make([]float32, n)
	fft.Inverse(spectrum, dst)

	for i := range src {
		if math.Abs(float64(src[i]-dst[i])) > 1e-5 {
			t.Fatalf("roundtrip mismatch at %d: %v != %v", i, src[i], dst[i])
		}
	}
}

// TestSpectralConvolution checks that multiplying spectra equals time-domain
// convolution for short sequences.
func TestSpectralConvolution(t *testing.T) {
	const n = 64
	fft := New(n)

	a := []float32{1, 0.5, -0.25}
	b := []float32{0.8, 0.1}

	specA := make([]complex64, fft.NumSpectrumSamples())
	specB := make([]complex64, fft.NumSpectrumSamples())
	fft.Forward(a, specA)
	fft.Forward(b, specB)

	prod := make([]complex64, fft.NumSpectrumSamples())
	Multiply(specA, specB, prod)

	got := make([]float32, n)
	fft.Inverse(prod, got)

	want := make([]float32, n)
	for i, av := range a {
		for j, bv := range b {
			want[i+j] += av * bv
		}
	}

	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Fatalf("convolution mismatch at %d: %v != %v", i, got[i], want[i])
		}
	}
}

func TestPlanPartitioning(t *testing.T) {
	tests := []struct {
		frame, ir          int
		wantFFT, wantParts int
	}{
		{1024, 256, 2048, 1},
		{1024, 1024, 2048, 1},
		{1024, 1025, 2048, 2},
		{512, 48000, 1024, 94},
	}

	for _, tc := range tests {
		plan := NewPlan(tc.frame, tc.ir)
		if plan.FFTSize != tc.wantFFT {
			t.Errorf("frame %d ir %d: fft size = %d, want %d", tc.frame, tc.ir, plan.FFTSize, tc.wantFFT)
		}
		if plan.NumPartitions != tc.wantParts {
			t.Errorf("frame %d ir %d: partitions = %d, want %d", tc.frame, tc.ir, plan.NumPartitions, tc.wantParts)
		}
		if plan.NumSpectrumSamples != plan.NumPartitions*plan.BlockBins {
			t.Errorf("spectrum samples %d != partitions x bins", plan.NumSpectrumSamples)
		}
	}
}
