package dsp

import "math"

// The engine models frequency-dependent behavior with three bands. Band 0 is
// everything below LowCutoffs[1], band 1 spans the middle, and band 2 is
// everything above HighCutoffs[1].
const NumBands = 3

var (
	// LowCutoffs are the lower band edges in Hz.
	LowCutoffs = [NumBands]float64{0, 800, 8000}

	// HighCutoffs are the upper band edges in Hz.
	HighCutoffs = [NumBands]float64{800, 8000, 22000}
)

// SpeedOfSound is the propagation speed used to convert distances to delays,
// in meters per second.
const SpeedOfSound = 340.0

// AirAbsorptionModel describes per-band exponential attenuation with
// distance: gain_b(d) = exp(-Coefficients[b] * d).
type AirAbsorptionModel struct {
	Coefficients [NumBands]float64
}

// DefaultAirAbsorption returns the default outdoor absorption coefficients.
func DefaultAirAbsorption() AirAbsorptionModel {
	return AirAbsorptionModel{Coefficients: [NumBands]float64{0.0002, 0.0017, 0.0182}}
}

// Evaluate returns the attenuation of band at distance d meters.
func (m AirAbsorptionModel) Evaluate(band int, d float64) float32 {
	return float32(math.Exp(-m.Coefficients[band] * d))
}
