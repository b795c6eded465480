// Package sh implements real spherical harmonics: basis evaluation,
// projection, Legendre polynomials, and rotation of coefficient vectors.
//
// The basis omits the Condon-Shortley phase. Coefficients for order N are
// stored as a flat vector of (N+1)^2 values indexed by i = l(l+1)+m.
// Directions passed to this package use the engine convention (+x right,
// +y up, ahead -z); they are converted internally to the evaluation
// convention (+x forward, +y left, +z up).
package sh

import (
	"math"

	"github.com/auralab/aural/geom"
)

// NumCoeffs returns the number of coefficients for the given order, (order+1)^2.
func NumCoeffs(order int) int {
	return (order + 1) * (order + 1)
}

// Index flattens (l, m) to the coefficient index l(l+1)+m.
func Index(l, m int) int {
	return l*(l+1) + m
}

// Legendre evaluates the Legendre polynomial P_n(x) by upward recurrence.
func Legendre(n int, x float32) float32 {
	switch n {
	case 0:
		return 1
	case 1:
		return x
	case 2:
		return 0.5 * (3*x*x - 1)
	case 3:
		return 0.5 * x * (5*x*x - 3)
	}
	xd := float64(x)
	pPrev, p := 1.0, xd
	for k := 1; k < n; k++ {
		pNext := (float64(2*k+1)*xd*p - float64(k)*pPrev) / float64(k+1)
		pPrev, p = p, pNext
	}
	return float32(p)
}

// convertedDirection maps an engine direction (+x right, +y up, -z ahead) to
// the evaluation convention (+x forward, +y left, +z up).
func convertedDirection(d geom.Vector3) geom.Vector3 {
	return geom.V(-d.Z, -d.X, d.Y)
}

// Evaluate returns the value of the real SH basis function (l, m) in the
// engine direction d. d must be unit length.
func Evaluate(l, m int, d geom.Vector3) float32 {
	return float32(evalConverted(l, m, convertedDirection(d)))
}

// EvaluateSum returns the value at direction d of the spherical function
// described by coeffs, up to the given order.
func EvaluateSum(order int, coeffs []float32, d geom.Vector3) float32 {
	cd := convertedDirection(d)
	var sum float64
	for l, i := 0, 0; l <= order; l++ {
		for m := -l; m <= l; m, i = m+1, i+1 {
			sum += float64(coeffs[i]) * evalConverted(l, m, cd)
		}
	}
	return float32(sum)
}

// ProjectSinglePoint writes the basis evaluated at d into coeffs, which must
// hold NumCoeffs(order) values. The result is the SH projection of a unit
// point source at d.
func ProjectSinglePoint(d geom.Vector3, order int, coeffs []float32) {
	cd := convertedDirection(d)
	for l, i := 0, 0; l <= order; l++ {
		for m := -l; m <= l; m, i = m+1, i+1 {
			coeffs[i] = float32(evalConverted(l, m, cd))
		}
	}
}

// ProjectSinglePointAndUpdate accumulates gain times the basis evaluated at d
// into coeffs.
func ProjectSinglePointAndUpdate(d geom.Vector3, order int, gain float32, coeffs []float32) {
	cd := convertedDirection(d)
	for l, i := 0, 0; l <= order; l++ {
		for m := -l; m <= l; m, i = m+1, i+1 {
			coeffs[i] += gain * float32(evalConverted(l, m, cd))
		}
	}
}

const hardcodedOrderLimit = 4

// evalConverted evaluates the basis in the converted (+z up) frame. Closed
// forms cover l <= 4; higher bands use the associated Legendre recurrence.
func evalConverted(l, m int, d geom.Vector3) float64 {
	if l <= hardcodedOrderLimit {
		return evalHardcoded(l, m, d)
	}
	phi, theta := toSphericalZUp(d)
	return evalSlow(l, m, phi, theta)
}

func toSphericalZUp(d geom.Vector3) (phi, theta float64) {
	theta = math.Acos(clampUnit(d.Z))
	phi = math.Atan2(d.Y, d.X)
	return phi, theta
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

// Hard-coded real SH basis for l <= 4, Condon-Shortley phase removed. The
// polynomial forms assume d is unit.
func evalHardcoded(l, m int, d geom.Vector3) float64 {
	x, y, z := d.X, d.Y, d.Z
	switch l {
	case 0:
		return 0.282095
	case 1:
		switch m {
		case -1:
			return 0.488603 * y
		case 0:
			return 0.488603 * z
		default:
			return 0.488603 * x
		}
	case 2:
		switch m {
		case -2:
			return 1.092548 * x * y
		case -1:
			return 1.092548 * y * z
		case 0:
			return 0.315392 * (-x*x - y*y + 2*z*z)
		case 1:
			return 1.092548 * x * z
		default:
			return 0.546274 * (x*x - y*y)
		}
	case 3:
		switch m {
		case -3:
			return 0.590044 * y * (3*x*x - y*y)
		case -2:
			return 2.890611 * x * y * z
		case -1:
			return 0.457046 * y * (4*z*z - x*x - y*y)
		case 0:
			return 0.373176 * z * (2*z*z - 3*x*x - 3*y*y)
		case 1:
			return 0.457046 * x * (4*z*z - x*x - y*y)
		case 2:
			return 1.445306 * z * (x*x - y*y)
		default:
			return 0.590044 * x * (x*x - 3*y*y)
		}
	default:
		switch m {
		case -4:
			return 2.503343 * x * y * (x*x - y*y)
		case -3:
			return 1.770131 * y * z * (3*x*x - y*y)
		case -2:
			return 0.946175 * x * y * (7*z*z - 1)
		case -1:
			return 0.669047 * y * z * (7*z*z - 3)
		case 0:
			z2 := z * z
			return 0.105786 * (35*z2*z2 - 30*z2 + 3)
		case 1:
			return 0.669047 * x * z * (7*z*z - 3)
		case 2:
			return 0.473087 * (x*x - y*y) * (7*z*z - 1)
		case 3:
			return 1.770131 * x * z * (x*x - 3*y*y)
		default:
			x2, y2 := x*x, y*y
			return 0.625836 * (x2*(x2-3*y2) - y2*(3*x2-y2))
		}
	}
}

// evalSlow evaluates the basis in spherical coordinates for l above the
// hard-coded limit.
func evalSlow(l, m int, phi, theta float64) float64 {
	am := m
	if am < 0 {
		am = -am
	}
	kml := math.Sqrt((2*float64(l) + 1) * factorial(l-am) / (4 * math.Pi * factorial(l+am)))
	switch {
	case m > 0:
		return math.Sqrt2 * kml * math.Cos(float64(m)*phi) * assocLegendre(l, m, math.Cos(theta))
	case m < 0:
		return math.Sqrt2 * kml * math.Sin(float64(-m)*phi) * assocLegendre(l, -m, math.Cos(theta))
	default:
		return kml * assocLegendre(l, 0, math.Cos(theta))
	}
}

var factorialCache = [16]float64{1, 1, 2, 6, 24, 120, 720, 5040,
	40320, 362880, 3628800, 39916800, 479001600, 6227020800,
	87178291200, 1307674368000}

func factorial(x int) float64 {
	if x < len(factorialCache) {
		return factorialCache[x]
	}
	s := factorialCache[len(factorialCache)-1]
	for n := len(factorialCache); n <= x; n++ {
		s *= float64(n)
	}
	return s
}

var doubleFactorialCache = [16]float64{1, 1, 2, 3, 8, 15, 48, 105,
	384, 945, 3840, 10395, 46080, 135135, 645120, 2027025}

func doubleFactorial(x int) float64 {
	if x < len(doubleFactorialCache) {
		return doubleFactorialCache[x]
	}
	s := 1.0
	for n := float64(x); n > 1; n -= 2 {
		s *= n
	}
	return s
}

// assocLegendre evaluates the associated Legendre polynomial P_l^m(x) for
// 0 <= m <= l by lifting P_m^m, with the Condon-Shortley phase removed.
func assocLegendre(l, m int, x float64) float64 {
	pmm := 1.0
	if m > 0 {
		pmm = doubleFactorial(2*m-1) * math.Pow(1-x*x, float64(m)/2)
	}
	if l == m {
		return pmm
	}
	pmm1 := x * float64(2*m+1) * pmm
	if l == m+1 {
		return pmm1
	}
	for n := m + 2; n <= l; n++ {
		pmn := (x*float64(2*n-1)*pmm1 - float64(n+m-1)*pmm) / float64(n-m)
		pmm = pmm1
		pmm1 = pmn
	}
	return pmm1
}
