package convert

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/meshu3d/internal/toolchain"
	"github.com/danmuck/meshu3d/internal/u3d"
)

// convertFakeRunner answers version checks for the tools in versions and
// hands every other invocation to handlers keyed by executable base name.
type convertFakeRunner struct {
	calls    [][]string
	versions map[string]string
	handlers map[string]func(args []string) (string, int32)
}

func newFakeRunner() *convertFakeRunner {
	return &convertFakeRunner{
		versions: make(map[string]string),
		handlers: make(map[string]func(args []string) (string, int32)),
	}
}

func (r *convertFakeRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
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
	stdout, code := handler(args)
	if code != 0 {
		return []byte(stdout), []byte("failed"), code, errors.New("exit status")
	}
	return []byte(stdout), nil, 0, nil
}

// calledWith returns the invocations of base that were not version checks.
func (r *convertFakeRunner) calledWith(base string) [][]string {
	var out [][]string
	for _, c := range r.calls {
		if filepath.Base(c[0]) != base {
			continue
		}
		if len(c) == 2 && (c[1] == "--version" || c[1] == "-version" || c[1] == "-h" || c[1] == "--help") {
			continue
		}
		out = append(out, c[1:])
	}
	return out
}

func (r *convertFakeRunner) toolbox() *Toolbox {
	return NewToolbox(toolchain.NewFinder(r, nil), "")
}

func writeU3D(t *testing.T, path string) {
	t.Helper()
	if err := u3d.WritePlaceholder(path); err != nil {
		t.Fatalf("write u3d: %v", err)
	}
}

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
