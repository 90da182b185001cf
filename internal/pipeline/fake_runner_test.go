package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/meshu3d/internal/mesh"
	"github.com/danmuck/meshu3d/internal/u3d"
)

// pipelineFakeRunner answers version checks for the tools listed in
// versions and routes every other call to a handler by executable base name.
type pipelineFakeRunner struct {
	calls    [][]string
	versions map[string]string
	handlers map[string]func(args []string) int32
}

func newFakeRunner() *pipelineFakeRunner {
	return &pipelineFakeRunner{
		versions: make(map[string]string),
		handlers: make(map[string]func(args []string) int32),
	}
}

func (r *pipelineFakeRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	base := filepath.Base(name)
	version, ok := r.versions[base]
	if !ok {
		return nil, nil, 127, errors.New("executable file not found")
	}
	if len(args) == 1 {
		switch args[0] {
		case "--version", "-version", "-h", "--help":
			return []byte(version), nil, 0, nil
		}
	}
	handler, ok := r.handlers[base]
	if !ok {
		return nil, []byte("no handler"), 1, errors.New("exit status 1")
	}
	if code := handler(args); code != 0 {
		return nil, []byte("failed"), code, errors.New("exit status")
	}
	return nil, nil, 0, nil
}

func (r *pipelineFakeRunner) ran(base string) bool {
	for _, c := range r.calls {
		if filepath.Base(c[0]) == base && len(c) > 2 {
			return true
		}
	}
	return false
}

// withStl2U3D installs a stl2u3d that writes the placeholder bytes.
func (r *pipelineFakeRunner) withStl2U3D(t *testing.T) *pipelineFakeRunner {
	r.versions["stl2u3d"] = "usage: stl2u3d in.stl out.u3d"
	r.handlers["stl2u3d"] = func(args []string) int32 {
		if err := u3d.WritePlaceholder(args[1]); err != nil {
			t.Errorf("fake stl2u3d: %v", err)
			return 1
		}
		return 0
	}
	return r
}

func newConverter(t *testing.T, runner *pipelineFakeRunner) *Converter {
	t.Helper()
	conv, err := New(Options{Runner: runner, WorkRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("new converter: %v", err)
	}
	return conv
}

func writeCubeOBJ(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cube.obj")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create obj: %v", err)
	}
	defer f.Close()
	if err := mesh.WriteOBJ(f, mesh.Cube()); err != nil {
		t.Fatalf("write obj: %v", err)
	}
	return path
}

func writeCubeSTL(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cube.stl")
	if err := mesh.WriteSTL(path, mesh.Cube()); err != nil {
		t.Fatalf("write stl: %v", err)
	}
	return path
}
