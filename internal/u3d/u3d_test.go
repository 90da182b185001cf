package u3d

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPlaceholderStartsWithMagic(t *testing.T) {
	p := Placeholder()
	if !bytes.HasPrefix(p, []byte(Magic)) {
		t.Fatalf("placeholder header=%x", p[:4])
	}
	if len(p) < MinValidSize {
		t.Fatalf("placeholder too small: %d", len(p))
	}
	if !CheckBytes(p, int64(len(p))).Valid() {
		t.Fatalf("placeholder should validate")
	}
}

func TestDummyHasMagicButIsSmall(t *testing.T) {
	d := Dummy()
	r := CheckBytes(d, int64(len(d)))
	if !r.HasMagic {
		t.Fatalf("dummy missing magic")
	}
	if r.Valid() {
		t.Fatalf("dummy is %d bytes and should not pass the size check", len(d))
	}
	if len(r.Warnings()) != 1 {
		t.Fatalf("warnings=%v", r.Warnings())
	}
}

func TestWritePlaceholderAndCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u3d", "model.u3d")
	if err := WritePlaceholder(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := OutputReady(path); err != nil {
		t.Fatalf("output ready: %v", err)
	}
	r, err := Check(path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !r.Valid() || r.Kind != Type {
		t.Fatalf("report=%+v", r)
	}
}

func TestCheckRejectsOtherFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.u3d")
	if err := os.WriteFile(path, []byte("%PDF-1.4 not a model"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, err := Check(path)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if r.HasMagic || r.Valid() {
		t.Fatalf("report=%+v", r)
	}
	if len(r.Warnings()) != 2 {
		t.Fatalf("warnings=%v", r.Warnings())
	}
}

func TestOutputReadyRejectsMissingAndEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := OutputReady(filepath.Join(dir, "missing.u3d")); !errors.Is(err, ErrOutputMissing) {
		t.Fatalf("expected ErrOutputMissing, got %v", err)
	}
	empty := filepath.Join(dir, "empty.u3d")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := OutputReady(empty); !errors.Is(err, ErrOutputMissing) {
		t.Fatalf("expected ErrOutputMissing for empty, got %v", err)
	}
	if err := OutputReady(dir); !errors.Is(err, ErrOutputMissing) {
		t.Fatalf("expected ErrOutputMissing for directory, got %v", err)
	}
}
