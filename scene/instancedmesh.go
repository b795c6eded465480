package scene

import "github.com/auralab/aural/geom"

// InstancedMesh places a sub-scene under a rigid transform. Rays are
// transformed into sub-scene space for traversal; hit distances transform
// back to world space through the direction's length change.
type InstancedMesh struct {
	subScene IScene

	transform        geom.Matrix4
	inverseTransform geom.Matrix4

	stagedTransform geom.Matrix4
	hasStaged       bool
	changed         bool
}

// NewInstancedMesh creates an instance of subScene under the given
// world-from-local transform. The transform must be rigid (rotation plus
// translation), so its inverse is the transpose of the rotation part applied
// to the negated translation.
func NewInstancedMesh(subScene IScene, transform geom.Matrix4) *InstancedMesh {
	m := &InstancedMesh{subScene: subScene}
	m.setTransform(transform)
	return m
}

func rigidInverse(t geom.Matrix4) geom.Matrix4 {
	inv := geom.IdentityMatrix4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			inv[i][j] = t[j][i]
		}
	}
	for i := 0; i < 3; i++ {
		inv[i][3] = -(inv[i][0]*t[0][3] + inv[i][1]*t[1][3] + inv[i][2]*t[2][3])
	}
	return inv
}

func (m *InstancedMesh) setTransform(transform geom.Matrix4) {
	m.transform = transform
	m.inverseTransform = rigidInverse(transform)
}

func (m *InstancedMesh) NumVertices() int {
	return sumOverScene(m.subScene, IStaticMesh.NumVertices)
}

func (m *InstancedMesh) NumTriangles() int {
	return sumOverScene(m.subScene, IStaticMesh.NumTriangles)
}

func (m *InstancedMesh) NumMaterials() int {
	return sumOverScene(m.subScene, IStaticMesh.NumMaterials)
}

func sumOverScene(s IScene, f func(IStaticMesh) int) int {
	counter, ok := s.(interface{ staticMeshes() []IStaticMesh })
	if !ok {
		return 0
	}
	total := 0
	for _, mesh := range counter.staticMeshes() {
		total += f(mesh)
	}
	return total
}

// UpdateTransform stages a new transform for the next Commit.
func (m *InstancedMesh) UpdateTransform(transform geom.Matrix4) {
	m.stagedTransform = transform
	m.hasStaged = true
}

// Commit applies the staged transform, if any.
func (m *InstancedMesh) Commit() {
	if m.hasStaged {
		m.setTransform(m.stagedTransform)
		m.hasStaged = false
		m.changed = true
	}
	m.subScene.Commit()
}

// HasChanged reports and clears the changed flag.
func (m *InstancedMesh) HasChanged() bool {
	changed := m.changed
	m.changed = false
	return changed
}

func (m *InstancedMesh) localRay(ray geom.Ray) geom.Ray {
	return geom.Ray{
		Origin:    m.inverseTransform.TransformPoint(ray.Origin),
		Direction: m.inverseTransform.TransformDirection(ray.Direction),
	}
}

// ClosestHit traces the ray through the sub-scene. For rigid transforms the
// parameter t is preserved, so only the hit point and normal transform back.
func (m *InstancedMesh) ClosestHit(ray geom.Ray, minDistance, maxDistance float64) Hit {
	hit := m.subScene.ClosestHit(m.localRay(ray), minDistance, maxDistance)
	if !hit.Valid() {
		return hit
	}
	hit.Point = m.transform.TransformPoint(hit.Point)
	hit.Normal = m.transform.TransformDirection(hit.Normal)
	return hit
}

// AnyHit traces the ray through the sub-scene.
func (m *InstancedMesh) AnyHit(ray geom.Ray, minDistance, maxDistance float64) bool {
	return m.subScene.AnyHit(m.localRay(ray), minDistance, maxDistance)
}
