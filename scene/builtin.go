package scene

import (
	"math"
	"sync"

	"github.com/auralab/aural/geom"
)

// Scene is the built-in pure-Go tracer. Mesh edits are staged and take
// effect at Commit; queries between commits see a consistent snapshot.
// Queries are safe to run concurrently with each other but not with Commit.
type Scene struct {
	mu sync.Mutex

	static    []IStaticMesh
	instanced []IInstancedMesh

	pendingStatic    []IStaticMesh
	pendingInstanced []IInstancedMesh
	dirty            bool

	version uint32
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{}
}

func (s *Scene) NumStaticMeshes() int    { return len(s.static) }
func (s *Scene) NumInstancedMeshes() int { return len(s.instanced) }

// staticMeshes exposes the committed static meshes for instanced-mesh
// accounting.
func (s *Scene) staticMeshes() []IStaticMesh { return s.static }

// AddStaticMesh stages a mesh for inclusion at the next Commit.
func (s *Scene) AddStaticMesh(mesh IStaticMesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingStatic = append(s.pendingStatic, mesh)
	s.dirty = true
}

// RemoveStaticMesh stages removal of a mesh at the next Commit.
func (s *Scene) RemoveStaticMesh(mesh IStaticMesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingStatic = removeMesh(s.pendingStatic, mesh)
	s.dirty = true
}

// AddInstancedMesh stages an instance for inclusion at the next Commit.
func (s *Scene) AddInstancedMesh(mesh IInstancedMesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingInstanced = append(s.pendingInstanced, mesh)
	s.dirty = true
}

// RemoveInstancedMesh stages removal of an instance at the next Commit.
func (s *Scene) RemoveInstancedMesh(mesh IInstancedMesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingInstanced = removeInstanced(s.pendingInstanced, mesh)
	s.dirty = true
}

func removeMesh(meshes []IStaticMesh, target IStaticMesh) []IStaticMesh {
	out := meshes[:0]
	for _, m := range meshes {
		if m != target {
			out = append(out, m)
		}
	}
	return out
}

func removeInstanced(meshes []IInstancedMesh, target IInstancedMesh) []IInstancedMesh {
	out := meshes[:0]
	for _, m := range meshes {
		if m != target {
			out = append(out, m)
		}
	}
	return out
}

// Commit publishes staged mesh edits and instance transforms, bumping the
// version if anything changed.
func (s *Scene) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.dirty

	s.static = append(s.static[:0], s.pendingStatic...)
	s.instanced = append(s.instanced[:0], s.pendingInstanced...)
	s.dirty = false

	for _, inst := range s.instanced {
		inst.Commit()
		if inst.HasChanged() {
			changed = true
		}
	}

	if changed {
		s.version++
	}
}

// Version returns the commit version.
func (s *Scene) Version() uint32 { return s.version }

// ClosestHit returns the nearest hit across all meshes.
func (s *Scene) ClosestHit(ray geom.Ray, minDistance, maxDistance float64) Hit {
	best := MissedHit()
	for _, mesh := range s.static {
		if hit := mesh.ClosestHit(ray, minDistance, maxDistance); hit.T < best.T {
			best = hit
		}
	}
	for _, mesh := range s.instanced {
		if hit := mesh.ClosestHit(ray, minDistance, maxDistance); hit.T < best.T {
			best = hit
		}
	}
	return best
}

// AnyHit reports whether any mesh blocks the ray.
func (s *Scene) AnyHit(ray geom.Ray, minDistance, maxDistance float64) bool {
	for _, mesh := range s.static {
		if mesh.AnyHit(ray, minDistance, maxDistance) {
			return true
		}
	}
	for _, mesh := range s.instanced {
		if mesh.AnyHit(ray, minDistance, maxDistance) {
			return true
		}
	}
	return false
}

// ClosestHits answers a batch of rays.
func (s *Scene) ClosestHits(rays []geom.Ray, minDistances, maxDistances []float64, hits []Hit) {
	for i := range rays {
		hits[i] = s.ClosestHit(rays[i], minDistances[i], maxDistances[i])
	}
}

// AnyHits answers a batch of occlusion rays.
func (s *Scene) AnyHits(rays []geom.Ray, minDistances, maxDistances []float64, occluded []bool) {
	for i := range rays {
		occluded[i] = s.AnyHit(rays[i], minDistances[i], maxDistances[i])
	}
}

// occlusionPullIn keeps occlusion segments from grazing the surfaces their
// endpoints sit on.
const occlusionPullIn = 1e-4

// IsOccluded reports whether the segment between two points is blocked.
func (s *Scene) IsOccluded(from, to geom.Vector3) bool {
	delta := to.Sub(from)
	distance := delta.Norm()
	if distance < occlusionPullIn || math.IsNaN(distance) {
		return false
	}
	ray := geom.Ray{Origin: from, Direction: delta.Mul(1 / distance)}
	return s.AnyHit(ray, occlusionPullIn, distance-occlusionPullIn)
}
