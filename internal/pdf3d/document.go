// Package pdf3d writes single-page PDFs carrying a U3D model in a 3D
// annotation, and reads them back for verification.
package pdf3d

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"seehuhn.de/go/pdf"
)

// Letter is the US-Letter page size in points.
var Letter = [2]float64{612, 792}

const defaultNote = "Note: This PDF contains an interactive 3D model. Use Adobe Acrobat to view and interact with it."

var ErrNoModel = errors.New("pdf3d: no U3D data")

// View is the default 3D view the viewer opens with.
type View struct {
	Name string
	// C2W is the camera-to-world matrix, column major.
	C2W [12]float64
	// CO is the distance from the camera to the center of orbit.
	CO         float64
	Background [3]float64
	// Orthographic selects an orthographic projection.
	Orthographic bool
}

func DefaultView() View {
	return View{
		Name:         "Default",
		C2W:          [12]float64{1, 0, 0, 0, 0, -1, 0, 1, 0, 0, 0, 0},
		CO:           8,
		Background:   [3]float64{1, 1, 1},
		Orthographic: true,
	}
}

// Document describes the page to build.
type Document struct {
	Title string
	// Note is the 10pt line below the view box. Empty uses the default note.
	Note string
	U3D  []byte
	// PageSize defaults to Letter.
	PageSize [2]float64
	View     *View
	// Poster, when set, is drawn as the annotation's normal appearance.
	Poster   image.Image
	Producer string
}

func (d Document) pageSize() (float64, float64) {
	if d.PageSize[0] > 0 && d.PageSize[1] > 0 {
		return d.PageSize[0], d.PageSize[1]
	}
	return Letter[0], Letter[1]
}

// ViewBox returns x, y, width, height of the model area.
func (d Document) ViewBox() [4]float64 {
	w, h := d.pageSize()
	return [4]float64{50, 100, w - 100, h - 150}
}

// Rect is ViewBox as a PDF rectangle [llx lly urx ury].
func (d Document) Rect() [4]float64 {
	v := d.ViewBox()
	return [4]float64{v[0], v[1], v[0] + v[2], v[1] + v[3]}
}

// Build serializes the document.
func Build(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	w, err := pdf.NewWriter(&buf, pdf.V1_7, writerOptions())
	if err != nil {
		return nil, fmt.Errorf("pdf3d: %w", err)
	}
	if err := write(w, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile builds doc and writes it to path, creating parent directories.
func WriteFile(path string, doc Document) error {
	if len(doc.U3D) == 0 {
		return ErrNoModel
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	w, err := pdf.Create(path, pdf.V1_7, writerOptions())
	if err != nil {
		return fmt.Errorf("pdf3d: create %s: %w", path, err)
	}
	if err := write(w, doc); err != nil {
		return fmt.Errorf("pdf3d: write %s: %w", path, err)
	}
	return nil
}

// writerOptions keeps a classic xref table and plain objects so the
// result stays readable by Inspect and by older 3D viewers.
func writerOptions() *pdf.WriterOptions {
	return &pdf.WriterOptions{HumanReadable: true}
}

// write lays out the page, the 3D stream and the annotation, then closes w.
func write(w *pdf.Writer, doc Document) error {
	if len(doc.U3D) == 0 {
		return ErrNoModel
	}
	pageW, pageH := doc.pageSize()
	view := DefaultView()
	if doc.View != nil {
		view = *doc.View
	}
	note := doc.Note
	if strings.TrimSpace(note) == "" {
		note = defaultNote
	}

	pagesRef := w.Alloc()
	pageRef := w.Alloc()

	contentRef := w.Alloc()
	if err := putStream(w, contentRef, nil, pageContent(doc.Title, note, doc.ViewBox(), pageH)); err != nil {
		return fmt.Errorf("pdf3d: page content: %w", err)
	}

	modelRef := w.Alloc()
	modelDict := pdf.Dict{"Type": pdf.Name("3D"), "Subtype": pdf.Name("U3D")}
	if err := putStream(w, modelRef, modelDict, doc.U3D); err != nil {
		return fmt.Errorf("pdf3d: 3D stream: %w", err)
	}

	r := doc.Rect()
	rect := &pdf.Rectangle{LLx: r[0], LLy: r[1], URx: r[2], URy: r[3]}
	annot := pdf.Dict{
		"Type":     pdf.Name("Annot"),
		"Subtype":  pdf.Name("3D"),
		"Contents": pdf.TextString("3D Model"),
		"Rect":     rect,
		"P":        pageRef,
		"F":        pdf.Integer(4),
		"3DD":      modelRef,
		"3DV":      viewDict(view),
		"3DA":      pdf.Dict{"A": pdf.Name("PO"), "AIS": pdf.Name("L"), "D": pdf.Name("I")},
	}
	if doc.Poster != nil {
		ap, err := posterAppearance(w, doc.Poster, rect.Dx(), rect.Dy())
		if err != nil {
			return fmt.Errorf("pdf3d: poster: %w", err)
		}
		annot["AP"] = pdf.Dict{"N": ap}
	}
	annotRef := w.Alloc()
	if err := w.Put(annotRef, annot); err != nil {
		return err
	}

	fonts := pdf.Dict{
		"F1": pdf.Dict{"Type": pdf.Name("Font"), "Subtype": pdf.Name("Type1"), "BaseFont": pdf.Name("Helvetica-Bold")},
		"F2": pdf.Dict{"Type": pdf.Name("Font"), "Subtype": pdf.Name("Type1"), "BaseFont": pdf.Name("Helvetica")},
	}
	page := pdf.Dict{
		"Type":      pdf.Name("Page"),
		"Parent":    pagesRef,
		"MediaBox":  &pdf.Rectangle{URx: pageW, URy: pageH},
		"Resources": pdf.Dict{"Font": fonts},
		"Contents":  contentRef,
		"Annots":    pdf.Array{annotRef},
	}
	if err := w.Put(pageRef, page); err != nil {
		return err
	}
	pages := pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  pdf.Array{pageRef},
		"Count": pdf.Integer(1),
	}
	if err := w.Put(pagesRef, pages); err != nil {
		return err
	}

	meta := w.GetMeta()
	meta.Catalog.Pages = pagesRef
	meta.Info.Title = pdf.TextString("3D Model: " + doc.Title)
	meta.Info.Producer = pdf.TextString(doc.Producer)
	return w.Close()
}

// putStream writes data as a deflated stream under ref.
func putStream(w *pdf.Writer, ref pdf.Reference, dict pdf.Dict, data []byte) error {
	stm, err := w.OpenStream(ref, dict, pdf.FilterFlate{})
	if err != nil {
		return err
	}
	if _, err := stm.Write(data); err != nil {
		stm.Close()
		return err
	}
	return stm.Close()
}

func viewDict(v View) pdf.Dict {
	c2w := make(pdf.Array, len(v.C2W))
	for i, f := range v.C2W {
		c2w[i] = pdf.Number(f)
	}
	bg := pdf.Array{pdf.Number(v.Background[0]), pdf.Number(v.Background[1]), pdf.Number(v.Background[2])}
	d := pdf.Dict{
		"Type": pdf.Name("3DView"),
		"XN":   pdf.TextString(v.Name),
		"MS":   pdf.Name("M"),
		"C2W":  c2w,
		"CO":   pdf.Number(v.CO),
		"BG":   pdf.Dict{"Type": pdf.Name("3DBG"), "C": bg},
	}
	rm := pdf.Dict{"Type": pdf.Name("3DRM"), "Subtype": pdf.Name("U3D")}
	if v.Orthographic {
		rm["M"] = pdf.Name("O")
		d["P"] = pdf.Dict{"Subtype": pdf.Name("O"), "OS": pdf.Number(1)}
	}
	d["RM"] = rm
	return d
}

func pageContent(title, note string, box [4]float64, pageHeight float64) []byte {
	var sb strings.Builder
	cw := newContentWriter(&sb)
	cw.text("F1", 18, 50, pageHeight-50, "3D Model: "+title)
	cw.op(pdf.Integer(0), pdf.Integer(0), pdf.Integer(0), pdf.Operator("RG"), pdf.Integer(1), pdf.Operator("w"))
	cw.op(pdf.Number(box[0]), pdf.Number(box[1]), pdf.Number(box[2]), pdf.Number(box[3]), pdf.Operator("re"), pdf.Operator("S"))
	cw.text("F2", 10, 50, 80, note)
	return []byte(sb.String())
}
