package mesh

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hschendel/stl"
)

// LoadSTL reads ASCII or binary STL. Each triangle corner becomes its own
// vertex; welding is left to the mesh tool.
func LoadSTL(path string) (*Mesh, error) {
	solid, err := stl.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrInvalidMesh, err)
	}
	return fromSolid(solid), nil
}

func fromSolid(solid *stl.Solid) *Mesh {
	m := &Mesh{
		Name:     solid.Name,
		Vertices: make([][3]float64, 0, len(solid.Triangles)*3),
		Faces:    make([][3]int, 0, len(solid.Triangles)),
	}
	for _, tri := range solid.Triangles {
		base := len(m.Vertices)
		for _, v := range tri.Vertices {
			m.Vertices = append(m.Vertices, [3]float64{float64(v[0]), float64(v[1]), float64(v[2])})
		}
		m.Faces = append(m.Faces, [3]int{base, base + 1, base + 2})
	}
	return m
}

func toSolid(m *Mesh) *stl.Solid {
	solid := &stl.Solid{
		Name:      m.Name,
		Triangles: make([]stl.Triangle, 0, len(m.Faces)),
	}
	for _, f := range m.Faces {
		var tri stl.Triangle
		for k, idx := range f {
			v := m.Vertices[idx]
			tri.Vertices[k] = stl.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
		}
		solid.Triangles = append(solid.Triangles, tri)
	}
	return solid
}

// WriteSTL writes m as a binary STL file, creating parent directories.
// Facet normals are left zero; readers recompute them.
func WriteSTL(path string, m *Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return toSolid(m).WriteFile(path)
}
