package convert

import (
	"fmt"
	"path/filepath"

	"github.com/danmuck/meshu3d/internal/toolchain"
	"github.com/danmuck/meshu3d/internal/u3d"
)

// Stl2U3D runs a stl2u3d executable found on PATH.
type Stl2U3D struct {
	tb *Toolbox
}

func NewStl2U3D(tb *Toolbox) *Stl2U3D {
	return &Stl2U3D{tb: tb}
}

func (s *Stl2U3D) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          "path.stl2u3d",
		Name:        "stl2u3d",
		Description: "Convert STL to U3D with a stl2u3d binary",
		Tools:       []string{toolchain.Stl2U3D},
	}
}

func (s *Stl2U3D) Convert(job Job) error {
	if job.inputExt() != ".stl" {
		return fmt.Errorf("%w: stl2u3d needs STL input, got %s", ErrSkipped, job.Input)
	}
	tool, err := s.tb.Tool(toolchain.Stl2U3D)
	if err != nil {
		return err
	}
	return s.tb.Run(tool.Path, job.Input, job.Output)
}

// Stl2IDTF runs stl2idtf and compiles its IDTF with IDTFConverter.
type Stl2IDTF struct {
	tb *Toolbox
}

func NewStl2IDTF(tb *Toolbox) *Stl2IDTF {
	return &Stl2IDTF{tb: tb}
}

func (s *Stl2IDTF) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          "path.stl2idtf",
		Name:        "stl2idtf + IDTFConverter",
		Description: "Convert STL to IDTF with stl2idtf, then compile it with IDTFConverter",
		Tools:       []string{toolchain.Stl2IDTF, toolchain.IDTFConverter},
	}
}

func (s *Stl2IDTF) Convert(job Job) error {
	if job.inputExt() != ".stl" {
		return fmt.Errorf("%w: stl2idtf needs STL input, got %s", ErrSkipped, job.Input)
	}
	stl2idtf, err := s.tb.Tool(toolchain.Stl2IDTF)
	if err != nil {
		return err
	}
	converter, err := s.tb.Tool(toolchain.IDTFConverter)
	if err != nil {
		return err
	}
	work, err := job.ensureWorkDir()
	if err != nil {
		return err
	}
	tmp := filepath.Join(work, job.stem()+".stl2idtf.idtf")
	if err := s.tb.Run(stl2idtf.Path, job.Input, tmp); err != nil {
		return err
	}
	if err := u3d.OutputReady(tmp); err != nil {
		return err
	}
	return compileIDTF(s.tb, converter.Path, tmp, job.Output)
}
