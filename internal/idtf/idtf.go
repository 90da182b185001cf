// Package idtf writes the Intermediate Data Text Format consumed by
// IDTFConverter and the u3d gem.
package idtf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/danmuck/meshu3d/internal/mesh"
)

var ErrInvalidName = errors.New("idtf: invalid resource name")

// Options names the node and resources of the generated scene.
type Options struct {
	NodeName     string
	ParentName   string
	MeshName     string
	ShaderName   string
	MaterialName string
	Material     Material
}

// Material is the single default material written to RESOURCE_LIST "MATERIAL".
type Material struct {
	Ambient      [3]float64
	Diffuse      [3]float64
	Specular     [3]float64
	Emissive     [3]float64
	Reflectivity float64
	Opacity      float64
}

// DefaultOptions matches the names IDTFConverter samples use.
func DefaultOptions() Options {
	return Options{
		NodeName:     "Model",
		ParentName:   "Scene_Root",
		MeshName:     "mesh_0",
		ShaderName:   "default_shader",
		MaterialName: "DefaultMaterial",
		Material: Material{
			Ambient: [3]float64{0.2, 0.2, 0.2},
			Diffuse: [3]float64{0.8, 0.8, 0.8},
			Opacity: 1.0,
		},
	}
}

func (o Options) validate() error {
	names := map[string]string{
		"node":     o.NodeName,
		"parent":   o.ParentName,
		"mesh":     o.MeshName,
		"shader":   o.ShaderName,
		"material": o.MaterialName,
	}
	for field, name := range names {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "\"\n") {
			return fmt.Errorf("%w: %s name %q", ErrInvalidName, field, name)
		}
	}
	return nil
}

// Write serializes m as a one-node IDTF scene.
func Write(w io.Writer, m *mesh.Mesh, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	p := &printer{w: bw}

	p.line(0, `FILE_FORMAT "IDTF"`)
	p.line(0, "FORMAT_VERSION 100")
	p.blank()
	writeNode(p, opts)
	p.blank()

	v, f := m.VertexCount(), m.FaceCount()
	p.line(0, `RESOURCE_LIST "MODEL" {`)
	p.line(1, "RESOURCE_COUNT 1")
	p.line(1, "RESOURCE 0 {")
	p.line(2, "RESOURCE_NAME %q", opts.MeshName)
	p.line(2, `MODEL_TYPE "MESH"`)
	p.line(2, "MESH {")
	p.line(3, "FACE_COUNT %d", f)
	p.line(3, "MODEL_POSITION_COUNT %d", v)
	p.line(3, "MODEL_NORMAL_COUNT %d", v)
	p.line(3, "MODEL_TEXCOORD_COUNT 0")
	p.line(3, "MODEL_BONE_COUNT 0")
	p.line(3, "MODEL_SHADING_COUNT 1")
	p.line(3, "MODEL_SHADING_DESCRIPTION_LIST {")
	p.line(4, "SHADING_DESCRIPTION 0 {")
	p.line(5, "TEXTURE_LAYER_COUNT 0")
	p.line(5, "SHADER_ID 0")
	p.line(4, "}")
	p.line(3, "}")

	p.line(3, "MESH_FACE_POSITION_LIST {")
	for i, face := range m.Faces {
		p.line(4, "%d: %d %d %d", i, face[0], face[1], face[2])
	}
	p.line(3, "}")
	p.line(3, "MESH_FACE_SHADING_LIST {")
	for i := 0; i < f; i++ {
		p.line(4, "%d: 0", i)
	}
	p.line(3, "}")
	p.line(3, "MESH_FACE_NORMAL_LIST {")
	for i := 0; i < f; i++ {
		p.line(4, "%d: 0 0 0", i)
	}
	p.line(3, "}")
	p.line(3, "MODEL_POSITION_LIST {")
	for i, vert := range m.Vertices {
		p.line(4, "%d: %s %s %s", i, num(vert[0]), num(vert[1]), num(vert[2]))
	}
	p.line(3, "}")
	p.line(3, "MODEL_NORMAL_LIST {")
	for i := 0; i < v; i++ {
		p.line(4, "%d: 0.0 0.0 1.0", i)
	}
	p.line(3, "}")
	p.line(2, "}")
	p.line(1, "}")
	p.line(0, "}")
	p.blank()

	writeShaderAndMaterial(p, opts)
	if p.err != nil {
		return p.err
	}
	return bw.Flush()
}

// WriteFile writes the IDTF document to path, creating parent directories.
func WriteFile(path string, m *mesh.Mesh, opts Options) error {
	return writeFile(path, func(w io.Writer) error { return Write(w, m, opts) })
}

// WritePlaceholder emits the single-triangle scene used when the input mesh
// cannot be read.
func WritePlaceholder(w io.Writer) error {
	tri := &mesh.Mesh{
		Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Faces:    [][3]int{{0, 1, 2}},
	}
	return Write(w, tri, DefaultOptions())
}

// WritePlaceholderFile is WritePlaceholder into a file.
func WritePlaceholderFile(path string) error {
	return writeFile(path, WritePlaceholder)
}

func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeNode(p *printer, opts Options) {
	p.line(0, `NODE "MODEL" {`)
	p.line(1, "NODE_NAME %q", opts.NodeName)
	p.line(1, "PARENT_LIST {")
	p.line(2, "PARENT_COUNT 1")
	p.line(2, "PARENT 0 {")
	p.line(3, "PARENT_NAME %q", opts.ParentName)
	p.line(3, "PARENT_TM {")
	p.line(4, "1.0 0.0 0.0 0.0")
	p.line(4, "0.0 1.0 0.0 0.0")
	p.line(4, "0.0 0.0 1.0 0.0")
	p.line(4, "0.0 0.0 0.0 1.0")
	p.line(3, "}")
	p.line(2, "}")
	p.line(1, "}")
	p.line(1, "RESOURCE_NAME %q", opts.MeshName)
	p.line(0, "}")
}

func writeShaderAndMaterial(p *printer, opts Options) {
	p.line(0, `RESOURCE_LIST "SHADER" {`)
	p.line(1, "RESOURCE_COUNT 1")
	p.line(1, "RESOURCE 0 {")
	p.line(2, "RESOURCE_NAME %q", opts.ShaderName)
	p.line(2, "ATTRIBUTE_USE_VERTEX_COLOR FALSE")
	p.line(2, "SHADER_MATERIAL_NAME %q", opts.MaterialName)
	p.line(2, "SHADER_ACTIVE_TEXTURE_COUNT 0")
	p.line(1, "}")
	p.line(0, "}")
	p.blank()

	mat := opts.Material
	p.line(0, `RESOURCE_LIST "MATERIAL" {`)
	p.line(1, "RESOURCE_COUNT 1")
	p.line(1, "RESOURCE 0 {")
	p.line(2, "RESOURCE_NAME %q", opts.MaterialName)
	p.line(2, "MATERIAL_AMBIENT %s", triple(mat.Ambient))
	p.line(2, "MATERIAL_DIFFUSE %s", triple(mat.Diffuse))
	p.line(2, "MATERIAL_SPECULAR %s", triple(mat.Specular))
	p.line(2, "MATERIAL_EMISSIVE %s", triple(mat.Emissive))
	p.line(2, "MATERIAL_REFLECTIVITY %s", fixed(mat.Reflectivity))
	p.line(2, "MATERIAL_OPACITY %s", fixed(mat.Opacity))
	p.line(1, "}")
	p.line(0, "}")
}

type printer struct {
	w   *bufio.Writer
	err error
}

func (p *printer) line(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	if _, err := p.w.WriteString(strings.Repeat("    ", depth)); err != nil {
		p.err = err
		return
	}
	if _, err := fmt.Fprintf(p.w, format, args...); err != nil {
		p.err = err
		return
	}
	p.err = p.w.WriteByte('\n')
}

func (p *printer) blank() {
	if p.err == nil {
		p.err = p.w.WriteByte('\n')
	}
}

// num formats coordinates without locale influence and without exponent
// surprises for typical model units.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fixed keeps one decimal for whole numbers ("1.0"), as the sample files do.
func fixed(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func triple(v [3]float64) string {
	return fixed(v[0]) + " " + fixed(v[1]) + " " + fixed(v[2])
}
