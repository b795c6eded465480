// Package geom provides the geometric primitives shared by the DSP and
// simulation layers: 3-D vectors, right-handed coordinate spaces, quaternions,
// spheres, rays, and small dense matrices.
//
// All world-space geometry is right-handed: +x is right, +y is up, and "ahead"
// is -z. Vector algebra is backed by golang/geo's r3 package.
package geom

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vector3 is a point or direction in 3-D world space.
type Vector3 = r3.Vector

// V constructs a Vector3 from its components.
func V(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b Vector3, t float64) Vector3 {
	return a.Add(b.Sub(a).Mul(t))
}

// UnitOrZero normalizes v, returning the zero vector when v has no length.
// r3.Vector.Normalize already guards against zero, but callers that care about
// the distinction should use this name.
func UnitOrZero(v Vector3) Vector3 {
	return v.Normalize()
}

// SphericalToCartesian converts polar coordinates (azimuth about +y measured
// from -z, elevation from the horizontal plane) to a unit direction.
func SphericalToCartesian(azimuth, elevation float64) Vector3 {
	c := math.Cos(elevation)
	return Vector3{
		X: c * math.Sin(azimuth),
		Y: math.Sin(elevation),
		Z: -c * math.Cos(azimuth),
	}
}

// CartesianToSpherical converts a unit direction to (azimuth, elevation).
func CartesianToSpherical(dir Vector3) (azimuth, elevation float64) {
	elevation = math.Asin(clamp(dir.Y, -1, 1))
	azimuth = math.Atan2(dir.X, -dir.Z)
	return azimuth, elevation
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Sphere is a center and radius, used for probe influence volumes.
type Sphere struct {
	Center Vector3
	Radius float64
}

// Contains reports whether p lies inside the sphere.
func (s Sphere) Contains(p Vector3) bool {
	return p.Sub(s.Center).Norm2() <= s.Radius*s.Radius
}

// Ray is a half-line with unit direction.
type Ray struct {
	Origin    Vector3
	Direction Vector3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) Vector3 {
	return r.Origin.Add(r.Direction.Mul(t))
}
