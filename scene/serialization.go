package scene

import (
	"github.com/auralab/aural/dsp"
	"github.com/auralab/aural/geom"
	"github.com/auralab/aural/internal/blob"
)

const (
	staticMeshVersion = 1
	sceneVersion      = 1
)

// SerializedSize returns the size in bytes of Serialize's output.
func (m *StaticMesh) SerializedSize() uint64 {
	size := uint64(blob.HeaderSize)
	size += 8 + uint64(len(m.vertices))*24
	size += 8 + uint64(len(m.triangles))*12
	size += 8 + uint64(len(m.materialIndices))*4
	size += 8 + uint64(len(m.materials))*(4*(2*dsp.NumBands+1))
	return size
}

// Serialize writes the mesh as a self-describing byte stream.
func (m *StaticMesh) Serialize() []byte {
	w := blob.NewWriter(blob.TypeStaticMesh, staticMeshVersion)

	w.PutUint64(uint64(len(m.vertices)))
	for _, v := range m.vertices {
		w.PutFloat64(v.X)
		w.PutFloat64(v.Y)
		w.PutFloat64(v.Z)
	}

	w.PutUint64(uint64(len(m.triangles)))
	for _, t := range m.triangles {
		w.PutInt32(t.Indices[0])
		w.PutInt32(t.Indices[1])
		w.PutInt32(t.Indices[2])
	}

	w.PutUint64(uint64(len(m.materialIndices)))
	for _, idx := range m.materialIndices {
		w.PutInt32(idx)
	}

	w.PutUint64(uint64(len(m.materials)))
	for _, mat := range m.materials {
		for b := 0; b < dsp.NumBands; b++ {
			w.PutFloat32(mat.Absorption[b])
		}
		w.PutFloat32(mat.Scattering)
		for b := 0; b < dsp.NumBands; b++ {
			w.PutFloat32(mat.Transmission[b])
		}
	}

	return w.Bytes()
}

// LoadStaticMesh parses a stream written by Serialize.
func LoadStaticMesh(data []byte) (*StaticMesh, error) {
	r, err := blob.NewReader(data, blob.TypeStaticMesh, staticMeshVersion)
	if err != nil {
		return nil, err
	}

	numVertices := int(r.Uint64())
	if r.Err() != nil {
		return nil, r.Err()
	}
	vertices := make([]geom.Vector3, 0, numVertices)
	for i := 0; i < numVertices; i++ {
		vertices = append(vertices, geom.V(r.Float64(), r.Float64(), r.Float64()))
	}

	numTriangles := int(r.Uint64())
	if r.Err() != nil {
		return nil, r.Err()
	}
	triangles := make([]Triangle, 0, numTriangles)
	for i := 0; i < numTriangles; i++ {
		triangles = append(triangles, Triangle{Indices: [3]int32{r.Int32(), r.Int32(), r.Int32()}})
	}

	numIndices := int(r.Uint64())
	if r.Err() != nil {
		return nil, r.Err()
	}
	materialIndices := make([]int32, 0, numIndices)
	for i := 0; i < numIndices; i++ {
		materialIndices = append(materialIndices, r.Int32())
	}

	numMaterials := int(r.Uint64())
	if r.Err() != nil {
		return nil, r.Err()
	}
	materials := make([]Material, numMaterials)
	for i := range materials {
		for b := 0; b < dsp.NumBands; b++ {
			materials[i].Absorption[b] = r.Float32()
		}
		materials[i].Scattering = r.Float32()
		for b := 0; b < dsp.NumBands; b++ {
			materials[i].Transmission[b] = r.Float32()
		}
	}

	if r.Err() != nil {
		return nil, r.Err()
	}
	return &StaticMesh{
		vertices:        vertices,
		triangles:       triangles,
		materialIndices: materialIndices,
		materials:       materials,
	}, nil
}

// Serialize writes every static mesh of the built-in scene as a nested
// stream. Instanced meshes are not persisted; hosts rebuild instances from
// their own data.
func (s *Scene) Serialize() []byte {
	w := blob.NewWriter(blob.TypeScene, sceneVersion)

	var meshes []*StaticMesh
	for _, m := range s.static {
		if sm, ok := m.(*StaticMesh); ok {
			meshes = append(meshes, sm)
		}
	}

	w.PutUint64(uint64(len(meshes)))
	for _, m := range meshes {
		w.PutBytes(m.Serialize())
	}

	return w.Bytes()
}

// SerializedSize returns the size in bytes of Serialize's output.
func (s *Scene) SerializedSize() uint64 {
	size := uint64(blob.HeaderSize + 8)
	for _, m := range s.static {
		if sm, ok := m.(*StaticMesh); ok {
			size += 8 + sm.SerializedSize()
		}
	}
	return size
}

// LoadScene parses a stream written by Scene.Serialize and commits the
// result.
func LoadScene(data []byte) (*Scene, error) {
	r, err := blob.NewReader(data, blob.TypeScene, sceneVersion)
	if err != nil {
		return nil, err
	}

	s := NewScene()
	numMeshes := int(r.Uint64())
	if r.Err() != nil {
		return nil, r.Err()
	}
	for i := 0; i < numMeshes; i++ {
		payload := r.Bytes()
		if r.Err() != nil {
			return nil, r.Err()
		}
		mesh, err := LoadStaticMesh(payload)
		if err != nil {
			return nil, err
		}
		s.AddStaticMesh(mesh)
	}

	s.Commit()
	return s, nil
}
