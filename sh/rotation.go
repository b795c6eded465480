package sh

import (
	"math"

	"github.com/auralab/aural/geom"
)

// Rotation rotates SH coefficient vectors. The rotation is block-diagonal:
// band 0 is the identity, band 1 is a permutation of the 3x3 rotation matrix,
// and each band l >= 2 is built from bands 1 and l-1 using the recurrence of
// Ivanic and Ruedenberg ("Rotation Matrices for Real Spherical Harmonics",
// J. Phys. Chem. 1996, with the published errata).
//
// A Rotation is built once per order and reloaded with SetRotation whenever
// the listener moves; Apply is then linear in the coefficient count.
type Rotation struct {
	order int
	bands []*geom.DynamicMatrix // bands[l] is (2l+1) x (2l+1)
}

// NewRotation constructs an identity rotation for the given order.
func NewRotation(order int) *Rotation {
	r := &Rotation{order: order, bands: make([]*geom.DynamicMatrix, order+1)}
	for l := 0; l <= order; l++ {
		r.bands[l] = geom.NewDynamicMatrix(2*l+1, 2*l+1)
		for m := 0; m < 2*l+1; m++ {
			r.bands[l].Set(m, m, 1)
		}
	}
	return r
}

// Order returns the rotation's maximum order.
func (r *Rotation) Order() int { return r.order }

// SetRotationFromQuaternion loads the rotation for a listener whose
// orientation is described by q: the frame whose ahead and up axes are the
// rotated canonical axes. Equivalent to SetRotationFromSpace on that frame.
func (r *Rotation) SetRotationFromQuaternion(q geom.Quaternion) {
	m := q.Normalized().ToRotationMatrix()
	r.SetRotationFromSpace(geom.NewCoordinateSpace(
		m.MulVector(geom.V(0, 0, -1)),
		m.MulVector(geom.V(0, 1, 0)),
		geom.Vector3{},
	))
}

// SetRotationFromSpace loads the rotation that takes world-frame coefficients
// into the given listener frame.
func (r *Rotation) SetRotationFromSpace(space geom.CoordinateSpace) {
	ahead := convertedDirection(space.Ahead)
	up := convertedDirection(space.Up)
	right := ahead.Cross(up)

	var m geom.Matrix3
	m[0][0], m[0][1], m[0][2] = ahead.X, ahead.Y, ahead.Z
	m[1][0], m[1][1], m[1][2] = -right.X, -right.Y, -right.Z
	m[2][0], m[2][1], m[2][2] = up.X, up.Y, up.Z
	r.setRotationMatrix(m)
}

func (r *Rotation) setRotationMatrix(m geom.Matrix3) {
	r.bands[0].Set(0, 0, 1)

	// Band 1 is the rotation matrix with rows and columns permuted into
	// (y, z, x) order, per Ivanic-Ruedenberg Appendix 1 (Condon-Shortley
	// phase removed).
	if r.order > 0 {
		b1 := r.bands[1]
		b1.Set(0, 0, float32(m[1][1]))
		b1.Set(0, 1, float32(m[1][2]))
		b1.Set(0, 2, float32(m[1][0]))
		b1.Set(1, 0, float32(m[2][1]))
		b1.Set(1, 1, float32(m[2][2]))
		b1.Set(1, 2, float32(m[2][0]))
		b1.Set(2, 0, float32(m[0][1]))
		b1.Set(2, 1, float32(m[0][2]))
		b1.Set(2, 2, float32(m[0][0]))
	}

	for l := 2; l <= r.order; l++ {
		r.computeBandRotation(l)
	}
}

// Apply writes the rotation of coeffs into rotated, band by band. Both slices
// must hold NumCoeffs(order) values; order may be lower than the rotation's
// own order. coeffs and rotated must not alias unless identical in which case
// use ApplyInPlace.
func (r *Rotation) Apply(order int, coeffs, rotated []float32) {
	if order > r.order {
		order = r.order
	}
	offset := 0
	for l := 0; l <= order; l++ {
		n := 2*l + 1
		r.bands[l].MulVectorInto(coeffs[offset:offset+n], rotated[offset:offset+n])
		offset += n
	}
}

// ApplyInPlace rotates coeffs in place using scratch, which must hold at
// least 2*order+1 values.
func (r *Rotation) ApplyInPlace(order int, coeffs, scratch []float32) {
	if order > r.order {
		order = r.order
	}
	offset := 0
	for l := 0; l <= order; l++ {
		n := 2*l + 1
		band := coeffs[offset : offset+n]
		r.bands[l].MulVectorInto(band, scratch[:n])
		copy(band, scratch[:n])
		offset += n
	}
}

// centered reads band matrix elements with Ivanic-Ruedenberg's centered
// indices, where row and column run over [-l, l].
func centered(m *geom.DynamicMatrix, i, j int) float64 {
	offset := (m.Rows - 1) / 2
	return float64(m.At(i+offset, j+offset))
}

func kronecker(i, j int) float64 {
	if i == j {
		return 1
	}
	return 0
}

// p, u, v, and w follow the recurrence's published notation. p composes an
// element of band 1 with an element of band l-1; u, v, w assemble the three
// terms of each band-l element.
func (r *Rotation) p(i, a, b, l int) float64 {
	r1 := r.bands[1]
	rl1 := r.bands[l-1]
	switch b {
	case l:
		return centered(r1, i, 1)*centered(rl1, a, l-1) - centered(r1, i, -1)*centered(rl1, a, -l+1)
	case -l:
		return centered(r1, i, 1)*centered(rl1, a, -l+1) + centered(r1, i, -1)*centered(rl1, a, l-1)
	default:
		return centered(r1, i, 0) * centered(rl1, a, b)
	}
}

func (r *Rotation) u(m, n, l int) float64 {
	return r.p(0, m, n, l)
}

func (r *Rotation) v(m, n, l int) float64 {
	switch {
	case m == 0:
		return r.p(1, 1, n, l) + r.p(-1, -1, n, l)
	case m > 0:
		return r.p(1, m-1, n, l)*math.Sqrt(1+kronecker(m, 1)) - r.p(-1, -m+1, n, l)*(1-kronecker(m, 1))
	default:
		// The published equations for this case carry errata; the signs below
		// are the corrected form that pairs with the m > 0 branch.
		return r.p(1, m+1, n, l)*(1-kronecker(m, -1)) + r.p(-1, -m-1, n, l)*math.Sqrt(1+kronecker(m, -1))
	}
}

func (r *Rotation) w(m, n, l int) float64 {
	switch {
	case m == 0:
		return 0
	case m > 0:
		return r.p(1, m+1, n, l) + r.p(-1, -m-1, n, l)
	default:
		return r.p(1, m-1, n, l) - r.p(-1, -m+1, n, l)
	}
}

// uvwCoeff computes the scalar coefficients multiplying u, v, and w.
func uvwCoeff(m, n, l int) (u, v, w float64) {
	d := kronecker(m, 0)
	am := abs(m)
	var denom float64
	if abs(n) == l {
		denom = float64(2*l) * float64(2*l-1)
	} else {
		denom = float64((l + n) * (l - n))
	}
	u = math.Sqrt(float64((l+m)*(l-m)) / denom)
	v = 0.5 * math.Sqrt((1+d)*float64(l+am-1)*float64(l+am)/denom) * (1 - 2*d)
	w = -0.5 * math.Sqrt(float64(l-am-1)*float64(l-am)/denom) * (1 - d)
	return u, v, w
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

const nearZero = 32 * 2.220446049250313e-16

func (r *Rotation) computeBandRotation(l int) {
	band := r.bands[l]
	for m := -l; m <= l; m++ {
		for n := -l; n <= l; n++ {
			u, v, w := uvwCoeff(m, n, l)
			if math.Abs(u) > nearZero {
				u *= r.u(m, n, l)
			}
			if math.Abs(v) > nearZero {
				v *= r.v(m, n, l)
			}
			if math.Abs(w) > nearZero {
				w *= r.w(m, n, l)
			}
			band.Set(m+l, n+l, float32(u+v+w))
		}
	}
}
