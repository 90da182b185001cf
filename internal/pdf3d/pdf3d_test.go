package pdf3d

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/danmuck/meshu3d/internal/testutil/testlog"
	"github.com/danmuck/meshu3d/internal/u3d"
)

func TestBuildEmbedsExactlyOne3DAnnotation(t *testing.T) {
	testlog.Start(t)
	model := u3d.Placeholder()
	path := filepath.Join(t.TempDir(), "out", "cube_3d.pdf")
	if err := WriteFile(path, Document{Title: "cube", U3D: model}); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := bytes.Count(raw, []byte("/Subtype /3D\n")); n != 1 {
		t.Fatalf("expected one /Subtype /3D annotation, found %d", n)
	}

	rep, err := Inspect(path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if rep.Pages != 1 || len(rep.Annotations) != 1 {
		t.Fatalf("report pages=%d annotations=%d", rep.Pages, len(rep.Annotations))
	}
	a := rep.Annotations[0]
	if a.StreamType != "3D" || a.ModelSubtype != "U3D" {
		t.Fatalf("3DD type=%q subtype=%q", a.StreamType, a.ModelSubtype)
	}
	if !bytes.Equal(a.Data, model) {
		t.Fatalf("3DD stream does not round-trip: got %d bytes want %d", len(a.Data), len(model))
	}
	if a.Activation != "PO" || !a.HasView || a.HasPoster {
		t.Fatalf("annotation=%+v", a)
	}
	if a.Rect != [4]float64{50, 100, 562, 742} {
		t.Fatalf("rect=%v", a.Rect)
	}
}

func TestBuildRejectsEmptyModel(t *testing.T) {
	testlog.Start(t)
	if _, err := Build(Document{Title: "x"}); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
}

func TestBuildWithPoster(t *testing.T) {
	testlog.Start(t)
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	path := filepath.Join(t.TempDir(), "poster.pdf")
	if err := WriteFile(path, Document{Title: "poster", U3D: u3d.Dummy(), Poster: img}); err != nil {
		t.Fatalf("write: %v", err)
	}
	rep, err := Inspect(path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(rep.Annotations) != 1 || !rep.Annotations[0].HasPoster {
		t.Fatalf("poster appearance missing: %+v", rep.Annotations)
	}
}

func TestBuildUsesClassicXrefTable(t *testing.T) {
	testlog.Start(t)
	data, err := Build(Document{Title: "offsets", U3D: u3d.Placeholder()})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-1.7")) {
		t.Fatalf("header=%q", data[:8])
	}
	start := bytes.LastIndex(data, []byte("startxref\n"))
	if start < 0 {
		t.Fatalf("missing startxref")
	}
	fields := strings.Fields(string(data[start+len("startxref\n"):]))
	xref, err := strconv.Atoi(fields[0])
	if err != nil || !bytes.HasPrefix(data[xref:], []byte("xref\n")) {
		t.Fatalf("startxref=%q does not point at an xref table", fields[0])
	}
	if bytes.Contains(data, []byte("/ObjStm")) {
		t.Fatalf("object streams hide objects from Inspect")
	}
}

func TestInspectReadsInfo(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "info.pdf")
	doc := Document{Title: "bracket", U3D: u3d.Placeholder(), Producer: "mesh2pdf 1.2.0"}
	if err := WriteFile(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	rep, err := Inspect(path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if rep.Title != "3D Model: bracket" || rep.Producer != "mesh2pdf 1.2.0" {
		t.Fatalf("title=%q producer=%q", rep.Title, rep.Producer)
	}
}

func TestWriteFileRejectsEmptyModel(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := WriteFile(path, Document{Title: "x"}); !errors.Is(err, ErrNoModel) {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file should be created, stat err=%v", err)
	}
}

func TestPageContentEscapesText(t *testing.T) {
	testlog.Start(t)
	box := [4]float64{50, 100, 512, 642.5}
	got := string(pageContent(`a(b)\c`, "Rotate with the mouse ✓", box, 792))
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 4 {
		t.Fatalf("content lines=%d\n%s", len(lines), got)
	}
	if !strings.HasPrefix(lines[0], `BT /F1 18 Tf 50 742 Td (3D Model: a(b)\\c) Tj ET`) {
		t.Fatalf("title line %q", lines[0])
	}
	if lines[2] != "50 100 512 642.5 re S" {
		t.Fatalf("box line %q", lines[2])
	}
	if !strings.Contains(lines[3], "(Rotate with the mouse ?) Tj") {
		t.Fatalf("note line %q", lines[3])
	}
}
