package geom

import "math"

// CoordinateSpace is a right-handed Cartesian frame: right is local +x, up is
// local +y, and ahead is local -z. right = cross(ahead, up) for any valid
// frame.
type CoordinateSpace struct {
	Right  Vector3
	Up     Vector3
	Ahead  Vector3
	Origin Vector3
}

// CanonicalSpace returns the world frame at the given origin: right along +x,
// up along +y, ahead along -z.
func CanonicalSpace(origin Vector3) CoordinateSpace {
	return CoordinateSpace{
		Right:  V(1, 0, 0),
		Up:     V(0, 1, 0),
		Ahead:  V(0, 0, -1),
		Origin: origin,
	}
}

// NewCoordinateSpace constructs a frame from two mutually perpendicular unit
// vectors.
func NewCoordinateSpace(ahead, up, origin Vector3) CoordinateSpace {
	return CoordinateSpace{
		Right:  ahead.Cross(up),
		Up:     up,
		Ahead:  ahead,
		Origin: origin,
	}
}

// CoordinateSpaceFromAhead constructs one of the infinitely many frames that
// have the given ahead vector as an axis, using the Hughes-Moller branch to
// pick a stable perpendicular.
//
// Building an orthonormal basis from a unit vector
// J. F. Hughes, T. Moller
// Journal of Graphics Tools 4(4), 1999
func CoordinateSpaceFromAhead(ahead, origin Vector3) CoordinateSpace {
	var right Vector3
	if math.Abs(ahead.X) > math.Abs(ahead.Z) {
		right = V(-ahead.Y, ahead.X, 0).Normalize()
	} else {
		right = V(0, -ahead.Z, ahead.Y).Normalize()
	}
	return CoordinateSpace{
		Right:  right,
		Up:     right.Cross(ahead),
		Ahead:  ahead,
		Origin: origin,
	}
}

// ToRotationMatrix returns the 3x3 matrix that transforms directions from the
// canonical frame to this frame. Rows are {right, up, -ahead}.
func (c CoordinateSpace) ToRotationMatrix() Matrix3 {
	return Matrix3{
		{c.Right.X, c.Right.Y, c.Right.Z},
		{c.Up.X, c.Up.Y, c.Up.Z},
		{-c.Ahead.X, -c.Ahead.Y, -c.Ahead.Z},
	}
}

// DirectionFromWorldToLocal expresses a world-space direction in this frame.
func (c CoordinateSpace) DirectionFromWorldToLocal(d Vector3) Vector3 {
	return V(d.Dot(c.Right), d.Dot(c.Up), -d.Dot(c.Ahead))
}

// DirectionFromLocalToWorld expresses a local direction in world space.
func (c CoordinateSpace) DirectionFromLocalToWorld(d Vector3) Vector3 {
	return c.Right.Mul(d.X).Add(c.Up.Mul(d.Y)).Sub(c.Ahead.Mul(d.Z))
}
