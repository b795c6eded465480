package hrtf

import (
	"math"

	"github.com/auralab/aural/geom"
)

// The bundled default HRIR set is generated procedurally from a rigid
// spherical-head model: an interaural time difference from Woodworth's
// formula, and head shadowing approximated by a one-pole low-pass whose
// cutoff falls as a direction moves behind the far ear. It is not a measured
// set, but it produces stable ITD and ILD cues and is fully deterministic.

const (
	defaultHRIRLength  = 128
	headRadiusMeters   = 0.0875
	azimuthStepDegrees = 15
	elevationSteps     = 7 // -75 to +75 in 25 degree steps, plus poles below
)

// DefaultHRIRSet generates the bundled measurement set at the given sampling
// rate.
func DefaultHRIRSet(samplingRate int) *HRIRSet {
	set := &HRIRSet{
		SamplingRate: samplingRate,
		NumSamples:   defaultHRIRLength,
	}

	for step := 0; step < elevationSteps; step++ {
		elevation := float64(-75+step*25) * math.Pi / 180
		for azDeg := 0; azDeg < 360; azDeg += azimuthStepDegrees {
			azimuth := float64(azDeg) * math.Pi / 180
			dir := geom.SphericalToCartesian(azimuth, elevation)
			set.Directions = append(set.Directions, dir)
			set.Data = append(set.Data, synthesizeHRIR(dir, samplingRate))
		}
	}
	for _, poleY := range []float64{1, -1} {
		dir := geom.V(0, poleY, 0)
		set.Directions = append(set.Directions, dir)
		set.Data = append(set.Data, synthesizeHRIR(dir, samplingRate))
	}

	return set
}

// synthesizeHRIR renders the stereo impulse-response pair for one direction.
func synthesizeHRIR(dir geom.Vector3, samplingRate int) [NumEars][]float32 {
	var pair [NumEars][]float32

	for ear := 0; ear < NumEars; ear++ {
		earSign := -1.0 // left
		if ear == 1 {
			earSign = 1.0
		}

		// Angle between the direction and the ear axis (+x is right).
		cosAngle := clampUnit(dir.Normalize().X * earSign)
		angle := math.Acos(cosAngle)

		// Woodworth ITD: near ear gets a/c*sin, far ear wraps around the
		// head. Expressed as a one-sided delay relative to the earliest
		// arrival so every HRIR starts near t = 0.
		var delaySeconds float64
		if angle < math.Pi/2 {
			delaySeconds = headRadiusMeters / speedOfSound * (1 - math.Sin(math.Pi/2-angle))
		} else {
			delaySeconds = headRadiusMeters / speedOfSound * (1 + (angle - math.Pi/2))
		}
		delaySamples := delaySeconds * float64(samplingRate)

		// Head shadow: full brightness facing the ear, progressively darker
		// behind it.
		shadow := 0.5 * (1 + cosAngle)
		cutoff := 500 + 19500*shadow*shadow
		gain := 0.4 + 0.6*shadow

		pair[ear] = renderDelayedLowpass(delaySamples, cutoff, gain, samplingRate)
	}

	return pair
}

const speedOfSound = 340.0

// renderDelayedLowpass writes a windowed-sinc fractional delay filtered by a
// one-pole low-pass.
func renderDelayedLowpass(delaySamples, cutoff, gain float64, samplingRate int) []float32 {
	out := make([]float32, defaultHRIRLength)

	const halfWidth = 8
	center := delaySamples + halfWidth

	// Windowed sinc impulse at the fractional delay.
	impulse := make([]float64, defaultHRIRLength)
	for i := range impulse {
		t := float64(i) - center
		if math.Abs(t) <= halfWidth {
			window := 0.5 * (1 + math.Cos(math.Pi*t/halfWidth))
			impulse[i] = sinc(t) * window
		}
	}

	// One-pole low-pass for head shadowing.
	alpha := math.Exp(-2 * math.Pi * cutoff / float64(samplingRate))
	state := 0.0
	for i, x := range impulse {
		state = (1-alpha)*x + alpha*state
		out[i] = float32(gain * state)
	}

	return out
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}
