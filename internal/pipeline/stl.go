package pipeline

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/danmuck/meshu3d/internal/convert"
	"github.com/danmuck/meshu3d/internal/observability"
	"github.com/danmuck/meshu3d/internal/toolchain"
	"github.com/danmuck/meshu3d/internal/u3d"
	"github.com/rs/zerolog/log"
)

// StlRequest is the input to StlToU3D.
type StlRequest struct {
	Input  string
	Output string
	// Placeholder skips conversion and writes the placeholder directly.
	Placeholder bool
	// Fallback writes the placeholder when every strategy failed. The run
	// still reports an error.
	Fallback bool
}

// StlToU3D converts STL through the STL strategy chain.
func (c *Converter) StlToU3D(req StlRequest) (Result, error) {
	res := Result{U3D: req.Output, STL: req.Input}
	if err := requireFile(req.Input); err != nil {
		return res, err
	}
	if req.Placeholder {
		if err := u3d.WritePlaceholder(req.Output); err != nil {
			return res, err
		}
		observability.RecordPlaceholder("u3d")
		res.Placeholder = true
		log.Info().Str("output", req.Output).Msg("pipeline.stl placeholder written on request")
		return res, nil
	}

	ws, err := c.workspace()
	if err != nil {
		return res, err
	}
	defer ws.Cleanup()
	return c.stlChain(res, req.Input, req.Output, ws, req.Fallback)
}

func (c *Converter) stlChain(res Result, in, out string, ws *Workspace, fallback bool) (Result, error) {
	chain := convert.Chain{Strategies: c.strategies(c.stlOrder), Placeholder: fallback}
	cr, err := chain.Run(convert.Job{Input: in, Output: out, WorkDir: ws.Dir})
	res.absorb(cr)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrNoConverter, err)
	}
	return res, nil
}

// BlenderRequest is the input to ObjViaBlender.
type BlenderRequest struct {
	Input string
	// Output defaults to output/u3d/<stem>.u3d.
	Output string
	// STL defaults to output/stl/<stem>.stl.
	STL string
	// NativeSTL lets the built-in writer stand in for a missing Blender.
	NativeSTL bool
}

// ObjViaBlender converts OBJ to STL with Blender, then STL to U3D.
func (c *Converter) ObjViaBlender(req BlenderRequest) (Result, error) {
	var res Result
	if err := requireFile(req.Input, ".obj"); err != nil {
		return res, err
	}
	name := stem(req.Input)
	res.STL = req.STL
	if res.STL == "" {
		res.STL = filepath.Join("output", "stl", name+".stl")
	}
	res.U3D = req.Output
	if res.U3D == "" {
		res.U3D = filepath.Join("output", "u3d", name+".u3d")
	}

	ws, err := c.workspace()
	if err != nil {
		return res, err
	}
	defer ws.Cleanup()

	steps := []convert.Strategy{c.resolve("blender.stl")}
	if req.NativeSTL {
		steps = append(steps, c.resolve("native.stl"))
	}
	cr, err := convert.Chain{Strategies: steps}.Run(convert.Job{Input: req.Input, Output: res.STL, WorkDir: ws.Dir})
	res.Attempts = append(res.Attempts, cr.Attempts...)
	if err != nil {
		return res, fmt.Errorf("pipeline: OBJ to STL failed: %w", err)
	}
	log.Info().Str("stl", res.STL).Str("strategy", cr.Strategy).Msg("pipeline.blender stl written")

	return c.stlChain(res, res.STL, res.U3D, ws, false)
}

// GemInfo prints the u3d gem's help, version and install path.
func (c *Converter) GemInfo(w io.Writer) error {
	tool, err := c.tb.Tool(toolchain.U3DGem)
	if err != nil {
		return err
	}
	help, _ := c.tb.Output(tool.Path, "--help")
	fmt.Fprintf(w, "U3D gem help:\n%s\n\n", help)
	if version, err := c.tb.Output(tool.Path, "--version"); err == nil {
		fmt.Fprintf(w, "U3D gem version: %s\n", version)
	}
	if gem, err := c.tb.Tool(toolchain.Gem); err == nil {
		if path, err := c.tb.Output(gem.Path, "which", "u3d"); err == nil {
			fmt.Fprintf(w, "U3D gem path: %s\n", path)
		}
	}
	return nil
}
