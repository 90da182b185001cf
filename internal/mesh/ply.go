package mesh

import (
	"fmt"
	"io"
	"os"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/EliCDavis/vector/vector3"
)

// LoadPLY reads a triangle-topology PLY file.
func LoadPLY(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadPLY(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ReadPLY decodes ASCII or binary PLY. Quads are split by the decoder;
// larger polygons are rejected.
func ReadPLY(r io.Reader) (*Mesh, error) {
	plyMesh, err := ply.ReadMesh(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMesh, err)
	}
	return fromModel(*plyMesh)
}

// fromModel copies positions and triangle indices out of a polyform mesh.
func fromModel(model modeling.Mesh) (*Mesh, error) {
	if model.Topology() != modeling.TriangleTopology {
		return nil, fmt.Errorf("%w: topology %d is not triangles", ErrInvalidMesh, model.Topology())
	}
	if !model.HasFloat3Attribute(modeling.PositionAttribute) {
		return nil, fmt.Errorf("%w: no vertex positions", ErrInvalidMesh)
	}

	m := &Mesh{}
	model.ScanFloat3Attribute(modeling.PositionAttribute, func(i int, v vector3.Float64) {
		m.Vertices = append(m.Vertices, [3]float64{v.X(), v.Y(), v.Z()})
	})

	indices := model.Indices()
	if indices.Len()%3 != 0 {
		return nil, fmt.Errorf("%w: %d indices is not a triangle list", ErrInvalidMesh, indices.Len())
	}
	m.Faces = make([][3]int, 0, indices.Len()/3)
	for i := 0; i+2 < indices.Len(); i += 3 {
		m.Faces = append(m.Faces, [3]int{indices.At(i), indices.At(i + 1), indices.At(i + 2)})
	}
	return m, nil
}

// toModel builds a polyform triangle mesh from m.
func toModel(m *Mesh) modeling.Mesh {
	indices := make([]int, 0, 3*len(m.Faces))
	for _, f := range m.Faces {
		indices = append(indices, f[0], f[1], f[2])
	}
	positions := make([]vector3.Float64, len(m.Vertices))
	for i, v := range m.Vertices {
		positions[i] = vector3.New(v[0], v[1], v[2])
	}
	return modeling.NewTriangleMesh(indices).
		SetFloat3Attribute(modeling.PositionAttribute, positions)
}
