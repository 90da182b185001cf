package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/meshu3d/internal/convert"
	"github.com/danmuck/meshu3d/internal/mesh"
	"github.com/danmuck/meshu3d/internal/observability"
	"github.com/danmuck/meshu3d/internal/u3d"
	"github.com/rs/zerolog/log"
)

// MeshRequest is the input to MeshToU3D.
type MeshRequest struct {
	Input  string
	Output string
	Clean  bool
	// Simplify is the target face count; 0 disables decimation.
	Simplify int
}

// MeshToU3D tries MeshLab's direct U3D export, then goes through an STL
// intermediate and the STL chain. The placeholder is the last resort and
// still reports an error.
func (c *Converter) MeshToU3D(req MeshRequest) (Result, error) {
	res := Result{U3D: req.Output}
	if err := requireFile(req.Input, ".obj", ".stl", ".ply"); err != nil {
		return res, err
	}
	if strings.TrimSpace(req.Output) == "" {
		req.Output = withExt(req.Input, ".u3d")
		res.U3D = req.Output
	}

	ws, err := c.workspace()
	if err != nil {
		return res, err
	}
	defer ws.Cleanup()

	m, err := mesh.Load(req.Input)
	if err != nil {
		log.Warn().Err(err).Str("input", req.Input).Msg("pipeline.mesh native load failed, relying on external tools")
		m = nil
	} else {
		log.Info().Int("vertices", m.VertexCount()).Int("faces", m.FaceCount()).Str("input", req.Input).Msg("pipeline.mesh mesh loaded")
	}

	filters := convert.FilterOptions{Clean: req.Clean, TargetFaces: req.Simplify}
	if m != nil {
		filters.CurrentFaces = m.FaceCount()
	}
	script, err := convert.WriteFilterScript(ws.Dir, filters)
	if err != nil {
		return res, err
	}
	meshlab := convert.NewMeshLabExport(c.tb, script)

	direct, err := convert.Chain{Strategies: []convert.Strategy{meshlab}}.Run(
		convert.Job{Input: req.Input, Output: req.Output, WorkDir: ws.Dir, Mesh: m},
	)
	res.absorb(direct)
	if err == nil {
		return res, nil
	}
	log.Info().Str("input", req.Input).Msg("pipeline.mesh direct export unavailable, using STL intermediate")

	stl, created, err := c.stlIntermediate(&res, req, ws, meshlab, m, filters.Empty())
	if err != nil {
		return c.placeholderAfter(res, req.Output, err)
	}
	res.STL = stl
	if created {
		defer removeIntermediate(stl)
	}
	return c.stlChain(res, stl, req.Output, ws, true)
}

// stlIntermediate produces the STL fed to the STL chain. created reports
// whether the file is ours to remove.
func (c *Converter) stlIntermediate(res *Result, req MeshRequest, ws *Workspace, meshlab convert.Strategy, m *mesh.Mesh, noFilters bool) (string, bool, error) {
	if format, _ := mesh.FormatOf(req.Input); format == mesh.FormatSTL && noFilters {
		return req.Input, false, nil
	}
	stl := withExt(req.Output, ".stl")
	if stl == req.Input {
		stl = ws.Path(stem(req.Input) + ".intermediate.stl")
	}
	steps := []convert.Strategy{meshlab, c.resolve("native.stl")}
	cr, err := convert.Chain{Strategies: steps}.Run(convert.Job{Input: req.Input, Output: stl, WorkDir: ws.Dir, Mesh: m})
	res.Attempts = append(res.Attempts, cr.Attempts...)
	if err != nil {
		return "", false, err
	}
	if cr.Strategy == "native.stl" && !noFilters {
		log.Warn().Msg("pipeline.mesh MeshLab unavailable, clean/simplify filters were not applied")
	}
	return stl, true, nil
}

// placeholderAfter writes the placeholder when no STL intermediate could be
// produced. The returned error always wraps ErrNoConverter.
func (c *Converter) placeholderAfter(res Result, out string, cause error) (Result, error) {
	if err := u3d.WritePlaceholder(out); err != nil {
		return res, fmt.Errorf("%w: %w", ErrNoConverter, errors.Join(cause, err))
	}
	observability.RecordPlaceholder("u3d")
	res.Placeholder = true
	log.Warn().Str("output", out).Msg("pipeline.mesh wrote placeholder")
	return res, fmt.Errorf("%w: %w", ErrNoConverter, cause)
}

func removeIntermediate(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("stl", path).Msg("pipeline.mesh intermediate cleanup failed")
		return
	}
	log.Debug().Str("stl", path).Msg("pipeline.mesh intermediate removed")
}
