// Package mesh reads and writes the triangle meshes fed to the converters.
//
// Only vertex positions and triangle indices are kept. Cleaning and
// simplification belong to the external mesh tool.
package mesh

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidMesh       = errors.New("mesh: invalid mesh")
	ErrUnsupportedFormat = errors.New("mesh: unsupported format")
)

// Mesh is an indexed triangle list.
type Mesh struct {
	Name     string
	Vertices [][3]float64
	Faces    [][3]int
}

func (m *Mesh) VertexCount() int { return len(m.Vertices) }
func (m *Mesh) FaceCount() int   { return len(m.Faces) }

// Validate checks that every face references an existing vertex.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrInvalidMesh, i, idx, n)
			}
		}
	}
	return nil
}

// Bounds returns the axis-aligned bounding box. Empty meshes return zeros.
func (m *Mesh) Bounds() (min, max [3]float64) {
	if len(m.Vertices) == 0 {
		return min, max
	}
	min, max = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for k := 0; k < 3; k++ {
			if v[k] < min[k] {
				min[k] = v[k]
			}
			if v[k] > max[k] {
				max[k] = v[k]
			}
		}
	}
	return min, max
}

// Format is a supported mesh file kind.
type Format string

const (
	FormatOBJ Format = "obj"
	FormatSTL Format = "stl"
	FormatPLY Format = "ply"
)

// FormatOf maps a file extension to a Format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return FormatOBJ, nil
	case ".stl":
		return FormatSTL, nil
	case ".ply":
		return FormatPLY, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a mesh file, picking the decoder from the extension.
func Load(path string) (*Mesh, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	var m *Mesh
	switch format {
	case FormatOBJ:
		m, err = LoadOBJ(path)
	case FormatSTL:
		m, err = LoadSTL(path)
	case FormatPLY:
		m, err = LoadPLY(path)
	}
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Cube returns a unit cube centred on the origin with 8 vertices and 12 faces.
func Cube() *Mesh {
	return &Mesh{
		Name: "cube",
		Vertices: [][3]float64{
			{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
			{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
		},
		Faces: [][3]int{
			{0, 2, 1}, {0, 3, 2},
			{4, 5, 6}, {4, 6, 7},
			{0, 1, 5}, {0, 5, 4},
			{2, 3, 7}, {2, 7, 6},
			{1, 2, 6}, {1, 6, 5},
			{0, 4, 7}, {0, 7, 3},
		},
	}
}
