// Package hrtf holds head-related transfer function databases: per-direction
// HRIR pairs and per-Ambisonic-channel HRIR pairs, stored in the frequency
// domain in the partitioned layout consumed by the overlap-add convolution
// engine. Databases are immutable after construction and safe for concurrent
// reads; hot-swapping happens by publishing a new database through the
// engine's handoff layer.
package hrtf

import (
	"math"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/internal/fftx"
	"github.com/auralab/aural/sh"
)

// NumEars is the number of output channels of binaural rendering.
const NumEars = 2

// MaxAmbisonicOrder is the highest order for which per-channel Ambisonic
// HRTFs are precomputed.
const MaxAmbisonicOrder = 3

// HRIRSet is a raw measurement set: one stereo impulse-response pair per
// measured direction. Directions use the engine convention.
type HRIRSet struct {
	SamplingRate int
	NumSamples   int
	Directions   []geom.Vector3
	Data         [][NumEars][]float32
}

// Database is the queryable form of an HRIRSet.
type Database struct {
	numSamples  int
	plan        fftx.Plan
	directions  []geom.Vector3
	directional [][NumEars][]complex64
	ambisonics  [][NumEars][]complex64
}

// NewDatabase builds a database from a measurement set, precomputing
// directional spectra and the projection of the set onto the SH basis up to
// MaxAmbisonicOrder. The set's sampling rate must match the audio settings.
func NewDatabase(settings dsp.AudioSettings, set *HRIRSet) *Database {
	plan := fftx.NewPlan(settings.FrameSize, set.NumSamples)
	fft := fftx.New(plan.FFTSize)

	d := &Database{
		numSamples:  set.NumSamples,
		plan:        plan,
		directions:  append([]geom.Vector3(nil), set.Directions...),
		directional: make([][NumEars][]complex64, len(set.Data)),
	}

	for i, pair := range set.Data {
		for ear := 0; ear < NumEars; ear++ {
			spectrum := make([]complex64, plan.NumSpectrumSamples)
			plan.PartitionSpectra(fft, pair[ear], spectrum)
			d.directional[i][ear] = spectrum
		}
	}

	d.projectAmbisonics(set, fft)
	return d
}

// projectAmbisonics computes per-SH-channel HRIRs by projecting the
// directional set onto the SH basis with uniform quadrature weights, then
// transforms them into partition spectra.
func (d *Database) projectAmbisonics(set *HRIRSet, fft *fftx.FFT) {
	numCoeffs := sh.NumCoeffs(MaxAmbisonicOrder)
	d.ambisonics = make([][NumEars][]complex64, numCoeffs)

	weight := float32(4 * math.Pi / float64(len(set.Directions)))
	hrir := make([]float32, set.NumSamples)

	for i := 0; i < numCoeffs; i++ {
		l := int(math.Floor(math.Sqrt(float64(i))))
		m := i - l*(l+1)
		for ear := 0; ear < NumEars; ear++ {
			dsp.Zero(set.NumSamples, hrir)
			for j, dir := range set.Directions {
				basis := sh.Evaluate(l, m, dir)
				dsp.ScaleAccumulate(set.NumSamples, set.Data[j][ear], weight*basis, hrir)
			}
			spectrum := make([]complex64, d.plan.NumSpectrumSamples)
			d.plan.PartitionSpectra(fft, hrir, spectrum)
			d.ambisonics[i][ear] = spectrum
		}
	}
}

// NumSamples returns the time-domain HRIR length.
func (d *Database) NumSamples() int { return d.numSamples }

// NumSpectrumSamples returns the length of each frequency-domain HRIR.
func (d *Database) NumSpectrumSamples() int { return d.plan.NumSpectrumSamples }

// NumDirections returns the number of measured directions.
func (d *Database) NumDirections() int { return len(d.directions) }

// AmbisonicsHRTF returns the stereo frequency-domain HRIR pair for SH
// channel i. The returned slices are shared and must not be modified.
func (d *Database) AmbisonicsHRTF(i int) [NumEars][]complex64 {
	return d.ambisonics[i]
}

// NearestHRTF returns the measured HRIR pair whose direction is closest to
// dir. The returned slices are shared and must not be modified.
func (d *Database) NearestHRTF(dir geom.Vector3) [NumEars][]complex64 {
	return d.directional[d.nearestIndex(dir)]
}

func (d *Database) nearestIndex(dir geom.Vector3) int {
	unit := dir.Normalize()
	best := 0
	bestDot := math.Inf(-1)
	for i, candidate := range d.directions {
		dot := unit.Dot(candidate)
		if dot > bestDot {
			bestDot = dot
			best = i
		}
	}
	return best
}

// InterpolatedHRTF blends the HRIR pairs of the measured directions
// surrounding dir into out, weighting by inverse angular distance. out's
// slices must hold NumSpectrumSamples bins each.
func (d *Database) InterpolatedHRTF(dir geom.Vector3, out [NumEars][]complex64) {
	unit := dir.Normalize()

	const numNeighbors = 4
	var indices [numNeighbors]int
	var dots [numNeighbors]float64
	for k := range dots {
		dots[k] = math.Inf(-1)
		indices[k] = -1
	}
	for i, candidate := range d.directions {
		dot := unit.Dot(candidate)
		for k := 0; k < numNeighbors; k++ {
			if dot > dots[k] {
				copy(dots[k+1:], dots[k:numNeighbors-1])
				copy(indices[k+1:], indices[k:numNeighbors-1])
				dots[k] = dot
				indices[k] = i
				break
			}
		}
	}

	for ear := 0; ear < NumEars; ear++ {
		for i := range out[ear] {
			out[ear][i] = 0
		}
	}

	// Inverse-angle weights, with an exact-match fast path.
	var weights [numNeighbors]float64
	var total float64
	for k, idx := range indices {
		if idx < 0 {
			continue
		}
		angle := math.Acos(clampUnit(dots[k]))
		if angle < 1e-6 {
			for ear := 0; ear < NumEars; ear++ {
				copy(out[ear], d.directional[idx][ear])
			}
			return
		}
		weights[k] = 1 / angle
		total += weights[k]
	}

	for k, idx := range indices {
		if idx < 0 || weights[k] == 0 {
			continue
		}
		w := complex(float32(weights[k]/total), 0)
		for ear := 0; ear < NumEars; ear++ {
			src := d.directional[idx][ear]
			dst := out[ear]
			for i := range dst {
				dst[i] += w * src[i]
			}
		}
	}
}

func clampUnit(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
