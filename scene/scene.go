// Package scene defines the geometric world the simulators trace rays
// against: a capability-style scene interface, triangle static meshes,
// instanced meshes with transforms, and acoustic materials. A built-in
// pure-Go tracer is provided; GPU or SIMD ray tracers plug in by
// implementing the same interfaces.
package scene

import (
	"math"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
)

// Material describes the acoustic response of a surface, per band.
type Material struct {
	// Absorption is the fraction of incident energy absorbed per band.
	Absorption [dsp.NumBands]float32

	// Scattering blends specular (0) and diffuse (1) reflection.
	Scattering float32

	// Transmission is the fraction of energy transmitted through the
	// surface per band.
	Transmission [dsp.NumBands]float32
}

// Hit is the result of a closest-hit query.
type Hit struct {
	// T is the hit distance along the ray, or +Inf for a miss.
	T float64

	Point    geom.Vector3
	Normal   geom.Vector3
	Material *Material
}

// MissedHit returns the sentinel value for a ray that hit nothing.
func MissedHit() Hit {
	return Hit{T: math.Inf(1)}
}

// Valid reports whether the hit found geometry.
func (h Hit) Valid() bool {
	return !math.IsInf(h.T, 1) && h.Material != nil
}

// IStaticMesh is a triangle mesh fixed in world space.
type IStaticMesh interface {
	NumVertices() int
	NumTriangles() int
	NumMaterials() int

	ClosestHit(ray geom.Ray, minDistance, maxDistance float64) Hit
	AnyHit(ray geom.Ray, minDistance, maxDistance float64) bool
}

// IInstancedMesh places a sub-scene in world space under a rigid transform.
type IInstancedMesh interface {
	NumVertices() int
	NumTriangles() int
	NumMaterials() int

	// UpdateTransform stages a new transform; it takes effect at the owning
	// scene's next Commit.
	UpdateTransform(transform geom.Matrix4)

	Commit()

	// HasChanged reports whether the transform changed since the last
	// Commit on the owning scene.
	HasChanged() bool

	ClosestHit(ray geom.Ray, minDistance, maxDistance float64) Hit
	AnyHit(ray geom.Ray, minDistance, maxDistance float64) bool
}

// IScene is the capability set the simulators require of a world: ray
// queries, occlusion queries, and a monotonically increasing version that
// changes whenever meshes or transforms change.
type IScene interface {
	NumStaticMeshes() int
	NumInstancedMeshes() int

	AddStaticMesh(mesh IStaticMesh)
	RemoveStaticMesh(mesh IStaticMesh)
	AddInstancedMesh(mesh IInstancedMesh)
	RemoveInstancedMesh(mesh IInstancedMesh)

	// Commit publishes all staged changes. Queries between commits see a
	// consistent snapshot.
	Commit()

	// Version increases on every Commit that changed content.
	Version() uint32

	ClosestHit(ray geom.Ray, minDistance, maxDistance float64) Hit
	AnyHit(ray geom.Ray, minDistance, maxDistance float64) bool

	// ClosestHits and AnyHits are the batched variants; rays[i] is answered
	// in hits[i] / occluded[i].
	ClosestHits(rays []geom.Ray, minDistances, maxDistances []float64, hits []Hit)
	AnyHits(rays []geom.Ray, minDistances, maxDistances []float64, occluded []bool)

	// IsOccluded reports whether the open segment between two points is
	// blocked by geometry.
	IsOccluded(from, to geom.Vector3) bool
}
