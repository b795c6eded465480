package scene

import (
	"math"

	"github.com/auralab/aural/geom"
)

// Triangle indexes three vertices of a mesh.
type Triangle struct {
	Indices [3]int32
}

// StaticMesh is an immutable triangle mesh with per-triangle materials.
type StaticMesh struct {
	vertices        []geom.Vector3
	triangles       []Triangle
	materialIndices []int32
	materials       []Material
}

// NewStaticMesh builds a mesh. materialIndices maps each triangle to an
// entry of materials.
func NewStaticMesh(vertices []geom.Vector3, triangles []Triangle, materialIndices []int32, materials []Material) *StaticMesh {
	return &StaticMesh{
		vertices:        append([]geom.Vector3(nil), vertices...),
		triangles:       append([]Triangle(nil), triangles...),
		materialIndices: append([]int32(nil), materialIndices...),
		materials:       append([]Material(nil), materials...),
	}
}

func (m *StaticMesh) NumVertices() int  { return len(m.vertices) }
func (m *StaticMesh) NumTriangles() int { return len(m.triangles) }
func (m *StaticMesh) NumMaterials() int { return len(m.materials) }

// Material returns material i.
func (m *StaticMesh) Material(i int) *Material { return &m.materials[i] }

const rayEpsilon = 1e-7

// intersectTriangle runs Moller-Trumbore against triangle index tri,
// returning the hit distance or +Inf.
func (m *StaticMesh) intersectTriangle(tri int, ray geom.Ray) float64 {
	idx := m.triangles[tri].Indices
	v0 := m.vertices[idx[0]]
	edge1 := m.vertices[idx[1]].Sub(v0)
	edge2 := m.vertices[idx[2]].Sub(v0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -rayEpsilon && a < rayEpsilon {
		return math.Inf(1)
	}

	f := 1 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return math.Inf(1)
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return math.Inf(1)
	}

	t := f * edge2.Dot(q)
	if t <= rayEpsilon {
		return math.Inf(1)
	}
	return t
}

func (m *StaticMesh) normal(tri int) geom.Vector3 {
	idx := m.triangles[tri].Indices
	v0 := m.vertices[idx[0]]
	edge1 := m.vertices[idx[1]].Sub(v0)
	edge2 := m.vertices[idx[2]].Sub(v0)
	return edge1.Cross(edge2).Normalize()
}

// ClosestHit finds the nearest triangle intersection in (minDistance,
// maxDistance).
func (m *StaticMesh) ClosestHit(ray geom.Ray, minDistance, maxDistance float64) Hit {
	best := MissedHit()
	bestTri := -1
	for tri := range m.triangles {
		t := m.intersectTriangle(tri, ray)
		if t < minDistance || t > maxDistance {
			continue
		}
		if t < best.T {
			best.T = t
			bestTri = tri
		}
	}
	if bestTri < 0 {
		return best
	}

	best.Point = ray.At(best.T)
	best.Normal = m.normal(bestTri)
	// Face the normal toward the incoming ray.
	if best.Normal.Dot(ray.Direction) > 0 {
		best.Normal = best.Normal.Mul(-1)
	}
	best.Material = &m.materials[m.materialIndices[bestTri]]
	return best
}

// AnyHit reports whether any triangle intersects the ray in (minDistance,
// maxDistance).
func (m *StaticMesh) AnyHit(ray geom.Ray, minDistance, maxDistance float64) bool {
	for tri := range m.triangles {
		t := m.intersectTriangle(tri, ray)
		if t >= minDistance && t <= maxDistance {
			return true
		}
	}
	return false
}
