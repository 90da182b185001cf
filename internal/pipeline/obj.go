package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/danmuck/meshu3d/internal/convert"
	"github.com/danmuck/meshu3d/internal/idtf"
	"github.com/danmuck/meshu3d/internal/mesh"
	"github.com/danmuck/meshu3d/internal/observability"
	"github.com/danmuck/meshu3d/internal/toolchain"
	"github.com/rs/zerolog/log"
)

// ObjRequest is the input to ObjToU3D.
type ObjRequest struct {
	Input string
	// OutputDir receives idtf/<stem>.idtf and u3d/<stem>.u3d. Defaults to "output".
	OutputDir string
}

// ObjToU3D writes IDTF natively and compiles it with the IDTF strategy chain.
// When meshlabserver is installed the mesh is cleaned first. An unreadable
// mesh yields the placeholder IDTF and the run continues.
func (c *Converter) ObjToU3D(req ObjRequest) (Result, error) {
	var res Result
	if err := requireFile(req.Input, ".obj"); err != nil {
		return res, err
	}
	outDir := req.OutputDir
	if outDir == "" {
		outDir = "output"
	}
	name := stem(req.Input)
	res.IDTF = filepath.Join(outDir, "idtf", name+".idtf")
	res.U3D = filepath.Join(outDir, "u3d", name+".u3d")

	ws, err := c.workspace()
	if err != nil {
		return res, err
	}
	defer ws.Cleanup()

	m, err := mesh.Load(req.Input)
	if err != nil {
		log.Warn().Err(err).Str("input", req.Input).Msg("pipeline.obj mesh unreadable, writing placeholder IDTF")
		if err := idtf.WritePlaceholderFile(res.IDTF); err != nil {
			return res, err
		}
		observability.RecordPlaceholder("idtf")
		m = nil
	} else {
		m = c.cleanOBJ(&res, req.Input, ws, m)
		log.Info().Int("vertices", m.VertexCount()).Int("faces", m.FaceCount()).Str("input", req.Input).Msg("pipeline.obj mesh loaded")
		opts := idtf.DefaultOptions()
		opts.NodeName = m.Name
		if err := idtf.WriteFile(res.IDTF, m, opts); err != nil {
			return res, err
		}
	}

	summary, err := idtf.ReadSummaryFile(res.IDTF)
	if err != nil {
		return res, err
	}
	if err := summary.Consistent(); err != nil {
		return res, fmt.Errorf("pipeline: %s: %w", res.IDTF, err)
	}
	log.Info().Str("idtf", res.IDTF).Int("faces", summary.FaceCount).Int("positions", summary.PositionCount).Msg("pipeline.obj idtf written")

	chain := convert.Chain{Strategies: c.strategies(c.idtfOrder)}
	cr, err := chain.Run(convert.Job{Input: res.IDTF, Output: res.U3D, WorkDir: ws.Dir, Mesh: m})
	res.absorb(cr)
	if err != nil {
		log.Warn().Str("idtf", res.IDTF).Msg("pipeline.obj IDTF file is available for manual conversion")
		return res, fmt.Errorf("%w: %w", ErrNoConverter, err)
	}
	return res, nil
}

// cleanOBJ removes duplicate and unreferenced vertices and duplicate faces
// through meshlabserver. Without MeshLab, or on any failure, m is kept.
func (c *Converter) cleanOBJ(res *Result, input string, ws *Workspace, m *mesh.Mesh) *mesh.Mesh {
	if _, err := c.tb.Tool(toolchain.MeshLab); err != nil {
		log.Debug().Err(err).Msg("pipeline.obj meshlabserver not found, mesh not cleaned")
		return m
	}
	script, err := convert.WriteFilterScript(ws.Dir, convert.FilterOptions{Clean: true})
	if err != nil {
		log.Warn().Err(err).Msg("pipeline.obj filter script failed, mesh not cleaned")
		return m
	}
	out := ws.Path(stem(input) + ".clean.obj")
	meshlab := convert.NewMeshLabExport(c.tb, script)
	cr, err := convert.Chain{Strategies: []convert.Strategy{meshlab}}.Run(
		convert.Job{Input: input, Output: out, WorkDir: ws.Dir, Mesh: m},
	)
	res.Attempts = append(res.Attempts, cr.Attempts...)
	if err != nil {
		log.Warn().Err(err).Msg("pipeline.obj clean failed, using mesh as read")
		return m
	}
	cleaned, err := mesh.Load(out)
	if err != nil {
		log.Warn().Err(err).Str("cleaned", out).Msg("pipeline.obj cleaned mesh unreadable, using mesh as read")
		return m
	}
	cleaned.Name = m.Name
	log.Info().
		Int("vertices_before", m.VertexCount()).
		Int("faces_before", m.FaceCount()).
		Int("vertices", cleaned.VertexCount()).
		Int("faces", cleaned.FaceCount()).
		Msg("pipeline.obj mesh cleaned")
	return cleaned
}
