package convert

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/danmuck/meshu3d/internal/mesh"
	"github.com/danmuck/meshu3d/internal/testutil/testlog"
	"github.com/danmuck/meshu3d/internal/toolchain"
)

func stlJob(t *testing.T) Job {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "cube.stl")
	if err := mesh.WriteSTL(in, mesh.Cube()); err != nil {
		t.Fatalf("write stl: %v", err)
	}
	return Job{Input: in, Output: filepath.Join(dir, "out", "cube.u3d"), WorkDir: filepath.Join(dir, "work")}
}

// producer writes the U3D named by args[idx] and exits 0.
func producer(t *testing.T, idx int) func(args []string) (string, int32) {
	return func(args []string) (string, int32) {
		writeU3D(t, args[idx])
		return "", 0
	}
}

func TestIDTFConverterFallsBackToPositional(t *testing.T) {
	testlog.Start(t)
	job := chainJob(t)
	runner := newFakeRunner()
	runner.versions["IDTFConverter"] = "IDTFConverter 1.0"
	runner.handlers["IDTFConverter"] = func(args []string) (string, int32) {
		if args[0] == "-input" {
			return "unknown option", 2
		}
		writeU3D(t, args[1])
		return "", 0
	}

	if err := NewIDTFConverter(runner.toolbox()).Convert(job); err != nil {
		t.Fatalf("convert: %v", err)
	}
	got := runner.calledWith("IDTFConverter")
	want := [][]string{
		{"-input", job.Input, "-output", job.Output},
		{job.Input, job.Output},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("calls=%v want=%v", got, want)
	}
}

func TestIDTFConverterWritesIDTFForMeshInput(t *testing.T) {
	testlog.Start(t)
	job := stlJob(t)
	runner := newFakeRunner()
	runner.versions["IDTFConverter"] = "IDTFConverter 1.0"
	runner.handlers["IDTFConverter"] = producer(t, 3)

	if err := NewIDTFConverter(runner.toolbox()).Convert(job); err != nil {
		t.Fatalf("convert: %v", err)
	}
	calls := runner.calledWith("IDTFConverter")
	idtfPath := filepath.Join(job.WorkDir, "cube.idtf")
	if len(calls) != 1 || calls[0][1] != idtfPath {
		t.Fatalf("calls=%v", calls)
	}
	data, err := os.ReadFile(idtfPath)
	if err != nil {
		t.Fatalf("read idtf: %v", err)
	}
	if !strings.Contains(string(data), "FACE_COUNT 12") {
		t.Fatalf("idtf does not describe the cube")
	}
}

func TestMissingToolsAreSkipped(t *testing.T) {
	testlog.Start(t)
	tb := newFakeRunner().toolbox()
	job := stlJob(t)
	for _, s := range []Strategy{
		NewIDTFConverter(tb),
		NewGemScript(tb),
		NewGemCLI(tb),
		NewGemBundled(tb),
		NewStl2U3D(tb),
		NewStl2IDTF(tb),
		NewMeshLabExport(tb, ""),
	} {
		err := s.Convert(job)
		if !errors.Is(err, ErrSkipped) || !errors.Is(err, toolchain.ErrToolNotFound) {
			t.Fatalf("%s: expected skipped tool-not-found, got %v", s.Metadata().ID, err)
		}
	}
}

func TestGemScriptSkippedWhenGemMissing(t *testing.T) {
	testlog.Start(t)
	job := stlJob(t)
	runner := newFakeRunner()
	runner.versions["ruby"] = "ruby 3.2.2"
	runner.handlers["ruby"] = func(args []string) (string, int32) {
		return "Could not find required modules", exitGemMissing
	}

	err := NewGemScript(runner.toolbox()).Convert(job)
	if !errors.Is(err, ErrSkipped) {
		t.Fatalf("expected ErrSkipped, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(job.WorkDir, "u3d_convert.rb")); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("ruby script not cleaned up: %v", statErr)
	}
}

func TestGemScriptPassesPaths(t *testing.T) {
	testlog.Start(t)
	job := stlJob(t)
	runner := newFakeRunner()
	runner.versions["ruby"] = "ruby 3.2.2"
	var script string
	runner.handlers["ruby"] = func(args []string) (string, int32) {
		data, _ := os.ReadFile(args[0])
		script = string(data)
		writeU3D(t, args[2])
		return "Conversion completed successfully", 0
	}

	if err := NewGemScript(runner.toolbox()).Convert(job); err != nil {
		t.Fatalf("convert: %v", err)
	}
	calls := runner.calledWith("ruby")
	if len(calls) != 1 || calls[0][1] != job.Input || calls[0][2] != job.Output {
		t.Fatalf("calls=%v", calls)
	}
	if !strings.Contains(script, "U3d::StlToIdtf") || !strings.Contains(script, "U3d::IDTF2U3d") {
		t.Fatalf("script missing gem calls:\n%s", script)
	}
}

func TestRenderRubyScriptForIDTF(t *testing.T) {
	testlog.Start(t)
	script, err := RenderRubyScript(false)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(script), "StlToIdtf") {
		t.Fatalf("IDTF script should not convert STL")
	}
	if !strings.Contains(string(script), "exit 3") {
		t.Fatalf("script missing LoadError exit code")
	}
}

func TestGemCLITriesEverySyntax(t *testing.T) {
	testlog.Start(t)
	job := chainJob(t)
	runner := newFakeRunner()
	runner.versions["u3d"] = "u3d 0.3.1"
	runner.handlers["u3d"] = func(args []string) (string, int32) {
		if args[0] != "--input" {
			return "", 1
		}
		writeU3D(t, args[3])
		return "", 0
	}

	if err := NewGemCLI(runner.toolbox()).Convert(job); err != nil {
		t.Fatalf("convert: %v", err)
	}
	got := runner.calledWith("u3d")
	if !reflect.DeepEqual(got, GemCLISyntaxes(job.Input, job.Output)) {
		t.Fatalf("calls=%v", got)
	}
}

func TestGemBundledFindsConverter(t *testing.T) {
	testlog.Start(t)
	job := chainJob(t)
	gemHome := t.TempDir()
	converter := filepath.Join(gemHome, "gems", "u3d-0.3.1", "ext", "u3d", "bin", "IDTFConverter")
	writeFile(t, converter, "#!/bin/sh\n")
	if err := os.Chmod(converter, 0o755); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	runner := newFakeRunner()
	runner.versions["gem"] = "3.4.10"
	runner.versions["IDTFConverter"] = "IDTFConverter"
	runner.handlers["gem"] = func(args []string) (string, int32) {
		return filepath.Join(t.TempDir(), "empty") + string(os.PathListSeparator) + gemHome, 0
	}
	runner.handlers["IDTFConverter"] = producer(t, 3)

	if err := NewGemBundled(runner.toolbox()).Convert(job); err != nil {
		t.Fatalf("convert: %v", err)
	}
	var ran bool
	for _, c := range runner.calls {
		if c[0] == converter {
			ran = true
		}
	}
	if !ran {
		t.Fatalf("bundled converter not invoked: %v", runner.calls)
	}
}

func TestGemBundledSkipsWithoutConverter(t *testing.T) {
	testlog.Start(t)
	runner := newFakeRunner()
	runner.versions["gem"] = "3.4.10"
	runner.handlers["gem"] = func(args []string) (string, int32) { return t.TempDir(), 0 }
	if err := NewGemBundled(runner.toolbox()).Convert(chainJob(t)); !errors.Is(err, ErrSkipped) {
		t.Fatalf("expected ErrSkipped, got %v", err)
	}
}

func TestStl2IDTFChainsConverter(t *testing.T) {
	testlog.Start(t)
	job := stlJob(t)
	runner := newFakeRunner()
	runner.versions["stl2idtf"] = "usage: stl2idtf"
	runner.versions["IDTFConverter"] = "IDTFConverter"
	runner.handlers["stl2idtf"] = func(args []string) (string, int32) {
		writeFile(t, args[1], "FILE_FORMAT \"IDTF\"\n")
		return "", 0
	}
	runner.handlers["IDTFConverter"] = producer(t, 3)

	if err := NewStl2IDTF(runner.toolbox()).Convert(job); err != nil {
		t.Fatalf("convert: %v", err)
	}
}

func TestStlOnlyStrategiesSkipOtherInput(t *testing.T) {
	testlog.Start(t)
	tb := newFakeRunner().toolbox()
	job := chainJob(t)
	for _, s := range []Strategy{NewStl2U3D(tb), NewStl2IDTF(tb), NewBlenderSTL(tb)} {
		if err := s.Convert(job); !errors.Is(err, ErrSkipped) {
			t.Fatalf("%s: expected ErrSkipped, got %v", s.Metadata().ID, err)
		}
	}
}

func TestBlenderOperatorsByVersion(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		version string
		want    BlenderOperators
	}{
		{"2.93.1", BlenderOperators{Import: "import_scene.obj", Export: "export_mesh.stl"}},
		{"3.6.0", BlenderOperators{Import: "wm.obj_import", Export: "export_mesh.stl"}},
		{"4.2.1", BlenderOperators{Import: "wm.obj_import", Export: "wm.stl_export"}},
	}
	for _, tc := range cases {
		got := OperatorsFor(toolchain.Tool{Version: semver.MustParse(tc.version)})
		if got != tc.want {
			t.Fatalf("version=%s got=%+v want=%+v", tc.version, got, tc.want)
		}
	}
	if got := OperatorsFor(toolchain.Tool{}); got.Import != "import_scene.obj" {
		t.Fatalf("unknown version should use legacy operators: %+v", got)
	}
}

func TestBlenderSTLRunsBackgroundScript(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "model.obj")
	writeFile(t, in, "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	job := Job{Input: in, Output: filepath.Join(dir, "stl", "model.stl")}

	runner := newFakeRunner()
	runner.versions["blender"] = "Blender 4.2.1"
	var script string
	runner.handlers["blender"] = func(args []string) (string, int32) {
		data, _ := os.ReadFile(args[2])
		script = string(data)
		writeFile(t, args[5], "solid")
		return "", 0
	}

	if err := NewBlenderSTL(runner.toolbox()).Convert(job); err != nil {
		t.Fatalf("convert: %v", err)
	}
	calls := runner.calledWith("blender")
	if len(calls) != 1 || calls[0][0] != "--background" || calls[0][3] != "--" {
		t.Fatalf("calls=%v", calls)
	}
	if !strings.Contains(script, "bpy.ops.wm.stl_export") {
		t.Fatalf("script uses wrong exporter:\n%s", script)
	}
}

func TestMeshLabArgsWithScript(t *testing.T) {
	testlog.Start(t)
	got := MeshLabArgs("in.ply", "out.u3d", "filters.mlx")
	want := []string{"-i", "in.ply", "-o", "out.u3d", "-s", "filters.mlx"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args=%v", got)
	}
}

func TestRenderFilterScript(t *testing.T) {
	testlog.Start(t)
	if data, err := RenderFilterScript(FilterOptions{}); err != nil || data != nil {
		t.Fatalf("empty options should render nothing: %q %v", data, err)
	}

	data, err := RenderFilterScript(FilterOptions{Clean: true, TargetFaces: 5000, CurrentFaces: 12})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc := string(data)
	if !strings.Contains(doc, `name="Remove Duplicate Vertices"`) || strings.Contains(doc, "Quadric") {
		t.Fatalf("small mesh should only be cleaned:\n%s", doc)
	}

	data, err = RenderFilterScript(FilterOptions{TargetFaces: 5000, CurrentFaces: 20000})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	doc = string(data)
	if !strings.Contains(doc, `name="TargetFaceNum" value="5000"`) || !strings.Contains(doc, `value="0.25"`) {
		t.Fatalf("decimation params missing:\n%s", doc)
	}
	if !strings.HasPrefix(doc, "<!DOCTYPE FilterScript>") {
		t.Fatalf("missing doctype:\n%s", doc)
	}
}

func TestNativeSTL(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	job := Job{Input: filepath.Join(dir, "cube.obj"), Output: filepath.Join(dir, "cube.stl"), Mesh: mesh.Cube()}
	if err := (NativeSTL{}).Convert(job); err != nil {
		t.Fatalf("convert: %v", err)
	}
	m, err := mesh.LoadSTL(job.Output)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.FaceCount() != 12 {
		t.Fatalf("faces=%d", m.FaceCount())
	}
}

func TestCommandTemplate(t *testing.T) {
	testlog.Start(t)
	tb := newFakeRunner().toolbox()
	cmd, err := NewCommand(tb, "custom.conv", `meshconv "{input}" -o {output} --tmp {workdir}`)
	if err != nil {
		t.Fatalf("new command: %v", err)
	}
	job := Job{Input: "/data/my model.stl", Output: "/out/model.u3d", WorkDir: "/tmp/w"}
	want := []string{"meshconv", "/data/my model.stl", "-o", "/out/model.u3d", "--tmp", "/tmp/w"}
	if got := cmd.Args(job); !reflect.DeepEqual(got, want) {
		t.Fatalf("args=%v", got)
	}
	if err := cmd.Convert(job); !errors.Is(err, ErrSkipped) {
		t.Fatalf("missing executable should be skipped, got %v", err)
	}

	if _, err := NewCommand(tb, "custom.bad", "meshconv {input}"); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate, got %v", err)
	}
	if _, err := NewCommand(tb, "custom.bad", `meshconv "{output}`); !errors.Is(err, ErrInvalidTemplate) {
		t.Fatalf("expected ErrInvalidTemplate for unbalanced quote, got %v", err)
	}
}
