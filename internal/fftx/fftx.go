// Package fftx adapts gonum's real FFT to the float32 sample and complex64
// spectrum types used by the audio path. Each FFT owns its scratch buffers,
// so transforms never allocate after construction; an FFT instance is not
// safe for concurrent use.
package fftx

import "gonum.org/v1/gonum/dsp/fourier"

// FFT performs forward and inverse real transforms of a fixed size.
type FFT struct {
	size    int
	plan    *fourier.FFT
	scratch []float64
	coeffs  []complex128
}

// New constructs an FFT of the given size, which should be a power of two.
// The spectrum of a size-n transform has n/2+1 bins.
func New(size int) *FFT {
	return &FFT{
		size:    size,
		plan:    fourier.NewFFT(size),
		scratch: make([]float64, size),
		coeffs:  make([]complex128, size/2+1),
	}
}

// Size returns the transform length.
func (f *FFT) Size() int { return f.size }

// NumSpectrumSamples returns the number of complex bins, size/2+1.
func (f *FFT) NumSpectrumSamples() int { return f.size/2 + 1 }

// NextPow2 returns the smallest power of two >= n.
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// Forward transforms src (zero-padded to the transform size if shorter) into
// dst, which must hold NumSpectrumSamples bins.
func (f *FFT) Forward(src []float32, dst []complex64) {
	n := len(src)
	if n > f.size {
		n = f.size
	}
	for i := 0; i < n; i++ {
		f.scratch[i] = float64(src[i])
	}
	for i := n; i < f.size; i++ {
		f.scratch[i] = 0
	}
	f.plan.Coefficients(f.coeffs, f.scratch)
	for i, c := range f.coeffs {
		dst[i] = complex64(c)
	}
}

// Inverse transforms src into dst, scaling by 1/size so that
// Inverse(Forward(x)) == x. dst may be shorter than the transform size, in
// which case the trailing samples are discarded.
func (f *FFT) Inverse(src []complex64, dst []float32) {
	for i := range f.coeffs {
		f.coeffs[i] = complex128(src[i])
	}
	f.plan.Sequence(f.scratch, f.coeffs)
	inv := 1 / float64(f.size)
	n := len(dst)
	if n > f.size {
		n = f.size
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(f.scratch[i] * inv)
	}
}

// MultiplyAccumulate computes out[i] += a[i] * b[i] over spectra.
func MultiplyAccumulate(a, b, out []complex64) {
	for i := range out {
		out[i] += a[i] * b[i]
	}
}

// Multiply computes out[i] = a[i] * b[i] over spectra.
func Multiply(a, b, out []complex64) {
	for i := range out {
		out[i] = a[i] * b[i]
	}
}
