package scene

import (
	"math"
	"testing"

	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
)

func defaultMaterial() Material {
	return Material{
		Absorption:   [dsp.NumBands]float32{0.1, 0.1, 0.1},
		Scattering:   0.5,
		Transmission: [dsp.NumBands]float32{0, 0, 0},
	}
}

// unitQuad builds two triangles covering the square [-1,1]^2 in the plane
// z = constant.
func unitQuad(z float64) *StaticMesh {
	vertices := []geom.Vector3{
		geom.V(-1, -1, z),
		geom.V(1, -1, z),
		geom.V(1, 1, z),
		geom.V(-1, 1, z),
	}
	triangles := []Triangle{
		{Indices: [3]int32{0, 1, 2}},
		{Indices: [3]int32{0, 2, 3}},
	}
	return NewStaticMesh(vertices, triangles, []int32{0, 0}, []Material{defaultMaterial()})
}

func TestStaticMeshClosestHit(t *testing.T) {
	mesh := unitQuad(-5)

	ray := geom.Ray{Origin: geom.V(0, 0, 0), Direction: geom.V(0, 0, -1)}
	hit := mesh.ClosestHit(ray, 0, math.Inf(1))

	if !hit.Valid() {
		t.Fatal("ray straight at the quad missed")
	}
	if math.Abs(hit.T-5) > 1e-9 {
		t.Errorf("hit distance = %v, want 5", hit.T)
	}
	if math.Abs(math.Abs(hit.Normal.Z)-1) > 1e-9 {
		t.Errorf("hit normal = %v, want +-z", hit.Normal)
	}
	// The normal faces the incoming ray.
	if hit.Normal.Dot(ray.Direction) >= 0 {
		t.Error("normal does not face the ray")
	}
	if hit.Material == nil {
		t.Error("hit carries no material")
	}
}

func TestStaticMeshMiss(t *testing.T) {
	mesh := unitQuad(-5)

	tests := []struct {
		name string
		ray  geom.Ray
		tMax float64
	}{
		{"parallel", geom.Ray{Origin: geom.V(0, 0, 0), Direction: geom.V(1, 0, 0)}, math.Inf(1)},
		{"wrong_direction", geom.Ray{Origin: geom.V(0, 0, 0), Direction: geom.V(0, 0, 1)}, math.Inf(1)},
		{"outside_quad", geom.Ray{Origin: geom.V(5, 5, 0), Direction: geom.V(0, 0, -1)}, math.Inf(1)},
		{"range_too_short", geom.Ray{Origin: geom.V(0, 0, 0), Direction: geom.V(0, 0, -1)}, 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if hit := mesh.ClosestHit(tc.ray, 0, tc.tMax); hit.Valid() {
				t.Errorf("unexpected hit at t = %v", hit.T)
			}
		})
	}
}

func TestSceneOcclusion(t *testing.T) {
	s := NewScene()
	s.AddStaticMesh(unitQuad(-5))
	s.Commit()

	if !s.IsOccluded(geom.V(0, 0, 0), geom.V(0, 0, -10)) {
		t.Error("segment through the quad is not occluded")
	}
	if s.IsOccluded(geom.V(0, 0, 0), geom.V(0, 0, -4)) {
		t.Error("segment ending before the quad is occluded")
	}
	if s.IsOccluded(geom.V(3, 3, 0), geom.V(3, 3, -10)) {
		t.Error("segment missing the quad is occluded")
	}
}

func TestSceneVersionBumpsOnCommit(t *testing.T) {
	s := NewScene()
	v0 := s.Version()

	s.AddStaticMesh(unitQuad(-5))
	if s.Version() != v0 {
		t.Error("version changed before commit")
	}

	s.Commit()
	if s.Version() == v0 {
		t.Error("version did not change after a content commit")
	}

	v1 := s.Version()
	s.Commit()
	if s.Version() != v1 {
		t.Error("no-op commit changed the version")
	}
}

func TestInstancedMeshTransform(t *testing.T) {
	sub := NewScene()
	sub.AddStaticMesh(unitQuad(0))
	sub.Commit()

	// Place the quad at z = -3 via a translation.
	transform := geom.IdentityMatrix4()
	transform[2][3] = -3

	inst := NewInstancedMesh(sub, transform)

	s := NewScene()
	s.AddInstancedMesh(inst)
	s.Commit()

	hit := s.ClosestHit(geom.Ray{Origin: geom.V(0, 0, 0), Direction: geom.V(0, 0, -1)}, 0, math.Inf(1))
	if !hit.Valid() {
		t.Fatal("ray missed the instanced quad")
	}
	if math.Abs(hit.T-3) > 1e-9 {
		t.Errorf("hit distance = %v, want 3", hit.T)
	}
	if math.Abs(hit.Point.Z+3) > 1e-9 {
		t.Errorf("hit point = %v, want z = -3", hit.Point)
	}

	// Move the instance and recommit: the hit distance follows, and the
	// scene version bumps.
	v := s.Version()
	transform[2][3] = -7
	inst.UpdateTransform(transform)
	s.Commit()
	if s.Version() == v {
		t.Error("transform update did not bump the version")
	}

	hit = s.ClosestHit(geom.Ray{Origin: geom.V(0, 0, 0), Direction: geom.V(0, 0, -1)}, 0, math.Inf(1))
	if !hit.Valid() || math.Abs(hit.T-7) > 1e-9 {
		t.Errorf("after move, hit = %+v, want t = 7", hit)
	}
}

func TestRemoveStaticMesh(t *testing.T) {
	mesh := unitQuad(-5)
	s := NewScene()
	s.AddStaticMesh(mesh)
	s.Commit()

	s.RemoveStaticMesh(mesh)
	s.Commit()

	if s.NumStaticMeshes() != 0 {
		t.Errorf("NumStaticMeshes = %d after removal", s.NumStaticMeshes())
	}
	if hit := s.ClosestHit(geom.Ray{Origin: geom.V(0, 0, 0), Direction: geom.V(0, 0, -1)}, 0, math.Inf(1)); hit.Valid() {
		t.Error("removed mesh still hittable")
	}
}
