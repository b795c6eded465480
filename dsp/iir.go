package dsp

import "math"

// IIRCoeffs are the normalized coefficients of a biquad section:
// y[n] = b0 x[n] + b1 x[n-1] + b2 x[n-2] - a1 y[n-1] - a2 y[n-2].
type IIRCoeffs struct {
	B0, B1, B2 float32
	A1, A2     float32
}

// Biquad designs follow the Audio EQ Cookbook (R. Bristow-Johnson), with
// Butterworth Q for the band-edge filters.

const butterworthQ = invSqrt2

// LowPass designs a second-order low-pass at cutoff Hz.
func LowPass(cutoff float64, samplingRate int) IIRCoeffs {
	w0 := 2 * math.Pi * cutoff / float64(samplingRate)
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * butterworthQ)

	a0 := 1 + alpha
	return IIRCoeffs{
		B0: float32(((1 - cw) / 2) / a0),
		B1: float32((1 - cw) / a0),
		B2: float32(((1 - cw) / 2) / a0),
		A1: float32((-2 * cw) / a0),
		A2: float32((1 - alpha) / a0),
	}
}

// HighPass designs a second-order high-pass at cutoff Hz.
func HighPass(cutoff float64, samplingRate int) IIRCoeffs {
	w0 := 2 * math.Pi * cutoff / float64(samplingRate)
	cw, sw := math.Cos(w0), math.Sin(w0)
	alpha := sw / (2 * butterworthQ)

	a0 := 1 + alpha
	return IIRCoeffs{
		B0: float32(((1 + cw) / 2) / a0),
		B1: float32(-(1 + cw) / a0),
		B2: float32(((1 + cw) / 2) / a0),
		A1: float32((-2 * cw) / a0),
		A2: float32((1 - alpha) / a0),
	}
}

// BandPass designs a second-order band-pass (constant 0 dB peak gain) between
// lowCutoff and highCutoff Hz.
func BandPass(lowCutoff, highCutoff float64, samplingRate int) IIRCoeffs {
	center := math.Sqrt(lowCutoff * highCutoff)
	w0 := 2 * math.Pi * center / float64(samplingRate)
	cw, sw := math.Cos(w0), math.Sin(w0)
	q := center / (highCutoff - lowCutoff)
	alpha := sw / (2 * q)

	a0 := 1 + alpha
	return IIRCoeffs{
		B0: float32(alpha / a0),
		B1: 0,
		B2: float32(-alpha / a0),
		A1: float32((-2 * cw) / a0),
		A2: float32((1 - alpha) / a0),
	}
}

// BandFilter returns the filter selecting the given frequency band: a
// low-pass for band 0, a band-pass for interior bands, and a high-pass for
// the top band.
func BandFilter(band, samplingRate int) IIRCoeffs {
	switch {
	case band == 0:
		return LowPass(HighCutoffs[0], samplingRate)
	case band == NumBands-1:
		return HighPass(LowCutoffs[NumBands-1], samplingRate)
	default:
		return BandPass(LowCutoffs[band], HighCutoffs[band], samplingRate)
	}
}

// IIRFilter is a biquad section with its delay state, in transposed direct
// form II. One instance per channel; not safe for concurrent use.
type IIRFilter struct {
	coeffs IIRCoeffs
	z1, z2 float32
}

// NewIIRFilter constructs a filter with zeroed state.
func NewIIRFilter(coeffs IIRCoeffs) *IIRFilter {
	return &IIRFilter{coeffs: coeffs}
}

// SetCoeffs replaces the coefficients, preserving the delay state.
func (f *IIRFilter) SetCoeffs(coeffs IIRCoeffs) {
	f.coeffs = coeffs
}

// Reset zeroes the delay state.
func (f *IIRFilter) Reset() {
	f.z1, f.z2 = 0, 0
}

// Apply filters n samples from in to out. in and out may alias.
func (f *IIRFilter) Apply(n int, in, out []float32) {
	c := f.coeffs
	z1, z2 := f.z1, f.z2
	in, out = in[:n], out[:n]
	for i := 0; i < n; i++ {
		x := in[i]
		y := c.B0*x + z1
		z1 = c.B1*x - c.A1*y + z2
		z2 = c.B2*x - c.A2*y
		out[i] = y
	}
	f.z1, f.z2 = z1, z2
}
