package convert

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/danmuck/meshu3d/internal/toolchain"
)

// BlenderOperators are the bpy operators used for one Blender release.
type BlenderOperators struct {
	Import string
	Export string
}

// OperatorsFor picks importers by version. wm.obj_import arrived in 3.2
// and wm.stl_export in 4.1; the legacy operators were removed in 4.0/4.2.
// Unknown versions get the legacy pair.
func OperatorsFor(tool toolchain.Tool) BlenderOperators {
	ops := BlenderOperators{Import: "import_scene.obj", Export: "export_mesh.stl"}
	if tool.AtLeast(">= 3.2") {
		ops.Import = "wm.obj_import"
	}
	if tool.AtLeast(">= 4.1") {
		ops.Export = "wm.stl_export"
	}
	return ops
}

var blenderScript = template.Must(template.New("obj2stl.py").Parse(`import sys
import bpy

argv = sys.argv[sys.argv.index("--") + 1:]
src, dst = argv[0], argv[1]

bpy.ops.wm.read_factory_settings(use_empty=True)
print("Importing", src)
bpy.ops.{{ .Import }}(filepath=src)
print("Exporting", dst)
bpy.ops.{{ .Export }}(filepath=dst)
print("Done")
`))

func RenderBlenderScript(ops BlenderOperators) ([]byte, error) {
	var buf bytes.Buffer
	err := blenderScript.Execute(&buf, ops)
	return buf.Bytes(), err
}

// BlenderSTL converts OBJ to STL with Blender in background mode.
type BlenderSTL struct {
	tb *Toolbox
}

func NewBlenderSTL(tb *Toolbox) *BlenderSTL {
	return &BlenderSTL{tb: tb}
}

func (s *BlenderSTL) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          "blender.stl",
		Name:        "Blender OBJ to STL",
		Description: "Import OBJ and export STL with a background Blender script",
		Tools:       []string{toolchain.Blender},
	}
}

func (s *BlenderSTL) Convert(job Job) error {
	if job.inputExt() != ".obj" {
		return fmt.Errorf("%w: blender export needs OBJ input, got %s", ErrSkipped, job.Input)
	}
	tool, err := s.tb.Tool(toolchain.Blender)
	if err != nil {
		return err
	}
	script, err := RenderBlenderScript(OperatorsFor(tool))
	if err != nil {
		return err
	}
	work, err := job.ensureWorkDir()
	if err != nil {
		return err
	}
	scriptPath := filepath.Join(work, "obj2stl.py")
	if err := os.WriteFile(scriptPath, script, 0o644); err != nil {
		return err
	}
	defer os.Remove(scriptPath)
	return s.tb.Run(tool.Path, "--background", "--python", scriptPath, "--", job.Input, job.Output)
}
