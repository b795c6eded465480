// Package sampling generates the deterministic point sets used by the
// simulators: uniform sphere directions, cosine-weighted hemisphere
// directions, and points inside a unit sphere. All generators are pure
// functions of their inputs (and an explicit seed where randomness is
// wanted), so simulation runs are reproducible.
package sampling

import (
	"math"
	"math/rand"

	"github.com/auralab/aural/geom"
)

const goldenAngle = 2.39996322972865332 // pi * (3 - sqrt(5))

// SphereSamples fills out with n directions spread uniformly over the unit
// sphere using a spherical Fibonacci spiral.
func SphereSamples(out []geom.Vector3) {
	n := len(out)
	for i := 0; i < n; i++ {
		y := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - y*y)
		phi := goldenAngle * float64(i)
		out[i] = geom.V(r*math.Cos(phi), y, r*math.Sin(phi))
	}
}

// HemisphereSamples fills out with n cosine-weighted directions over the +y
// hemisphere, used for diffuse scattering. Callers rotate them into the
// frame of the surface normal.
func HemisphereSamples(out []geom.Vector3) {
	n := len(out)
	for i := 0; i < n; i++ {
		u := (float64(i) + 0.5) / float64(n)
		cosTheta := math.Sqrt(1 - u)
		sinTheta := math.Sqrt(u)
		phi := goldenAngle * float64(i)
		out[i] = geom.V(sinTheta*math.Cos(phi), cosTheta, sinTheta*math.Sin(phi))
	}
}

// SphereVolumeSamples fills out with points inside the unit sphere, drawn
// from the given seed. Identical seeds produce identical points.
func SphereVolumeSamples(out []geom.Vector3, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		for {
			p := geom.V(2*rng.Float64()-1, 2*rng.Float64()-1, 2*rng.Float64()-1)
			if p.Norm2() <= 1 {
				out[i] = p
				break
			}
		}
	}
}

// TransformSphereVolumeSample maps a unit-sphere point into the given
// sphere.
func TransformSphereVolumeSample(sample geom.Vector3, sphere geom.Sphere) geom.Vector3 {
	return sphere.Center.Add(sample.Mul(sphere.Radius))
}

// HemisphereToNormal rotates a +y-hemisphere sample into the hemisphere
// around the given unit normal.
func HemisphereToNormal(sample, normal geom.Vector3) geom.Vector3 {
	frame := geom.CoordinateSpaceFromAhead(normal, geom.Vector3{})
	// The frame's ahead axis carries the normal; map the sample's +y onto it.
	return frame.Right.Mul(sample.X).Add(frame.Ahead.Mul(sample.Y)).Add(frame.Up.Mul(sample.Z))
}
