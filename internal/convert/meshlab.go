package convert

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/danmuck/meshu3d/internal/toolchain"
)

// MeshLabExport loads the input in meshlabserver and saves it in the
// format implied by the output extension, optionally applying a filter script.
type MeshLabExport struct {
	tb     *Toolbox
	script string
}

// NewMeshLabExport builds the strategy. script may be empty.
func NewMeshLabExport(tb *Toolbox, script string) *MeshLabExport {
	return &MeshLabExport{tb: tb, script: script}
}

func (s *MeshLabExport) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          "meshlab.export",
		Name:        "MeshLab export",
		Description: "Export through meshlabserver, applying the clean/simplify filters",
		Tools:       []string{toolchain.MeshLab},
	}
}

func (s *MeshLabExport) Convert(job Job) error {
	tool, err := s.tb.Tool(toolchain.MeshLab)
	if err != nil {
		return err
	}
	return s.tb.Run(tool.Path, MeshLabArgs(job.Input, job.Output, s.script)...)
}

func MeshLabArgs(in, out, script string) []string {
	args := []string{"-i", in, "-o", out}
	if script != "" {
		args = append(args, "-s", script)
	}
	return args
}

// FilterOptions selects the MeshLab filters run before export.
type FilterOptions struct {
	Clean bool
	// TargetFaces > 0 enables quadric edge collapse decimation.
	TargetFaces int
	// CurrentFaces, when known, suppresses decimation of meshes already
	// under the target.
	CurrentFaces int
}

func (o FilterOptions) simplify() bool {
	if o.TargetFaces <= 0 {
		return false
	}
	return o.CurrentFaces == 0 || o.CurrentFaces > o.TargetFaces
}

// Empty reports whether no filter would be written.
func (o FilterOptions) Empty() bool {
	return !o.Clean && !o.simplify()
}

type filterScript struct {
	XMLName xml.Name `xml:"FilterScript"`
	Filters []filter `xml:"filter"`
}

type filter struct {
	Name   string        `xml:"name,attr"`
	Params []filterParam `xml:"Param,omitempty"`
}

type filterParam struct {
	Type  string `xml:"type,attr"`
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// RenderFilterScript returns a .mlx document, or nil when opts is empty.
func RenderFilterScript(opts FilterOptions) ([]byte, error) {
	var doc filterScript
	if opts.Clean {
		for _, name := range []string{
			"Remove Duplicate Vertices",
			"Remove Unreferenced Vertices",
			"Remove Duplicate Faces",
			"Remove Zero Area Faces",
		} {
			doc.Filters = append(doc.Filters, filter{Name: name})
		}
	}
	if opts.simplify() {
		perc := 0.0
		if opts.CurrentFaces > 0 {
			perc = float64(opts.TargetFaces) / float64(opts.CurrentFaces)
		}
		doc.Filters = append(doc.Filters, filter{
			Name: "Simplification: Quadric Edge Collapse Decimation",
			Params: []filterParam{
				{Type: "RichInt", Name: "TargetFaceNum", Value: strconv.Itoa(opts.TargetFaces)},
				{Type: "RichFloat", Name: "TargetPerc", Value: strconv.FormatFloat(perc, 'f', -1, 64)},
				{Type: "RichBool", Name: "PreserveNormal", Value: "true"},
			},
		})
	}
	if len(doc.Filters) == 0 {
		return nil, nil
	}
	body, err := xml.MarshalIndent(doc, "", " ")
	if err != nil {
		return nil, err
	}
	return append([]byte("<!DOCTYPE FilterScript>\n"), append(body, '\n')...), nil
}

// WriteFilterScript writes the .mlx file into dir and returns its path.
// An empty path with a nil error means no filters were requested.
func WriteFilterScript(dir string, opts FilterOptions) (string, error) {
	data, err := RenderFilterScript(opts)
	if err != nil || data == nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "filters.mlx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write filter script: %w", err)
	}
	return path, nil
}
