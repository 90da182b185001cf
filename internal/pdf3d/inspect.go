package pdf3d

import (
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// Annotation3D is one 3D annotation found by Inspect.
type Annotation3D struct {
	Page         int
	Rect         [4]float64
	StreamType   string
	ModelSubtype string
	Data         []byte
	HasView      bool
	Activation   string
	HasPoster    bool
}

// Report is the result of Inspect.
type Report struct {
	Title       string
	Producer    string
	Pages       int
	Annotations []Annotation3D
}

// Inspect reopens a PDF and collects its 3D annotations. Stream data is
// returned decoded.
func Inspect(path string) (Report, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Report{}, fmt.Errorf("pdf3d: open %s: %w", path, err)
	}
	defer f.Close()

	info := r.Trailer().Key("Info")
	rep := Report{
		Title:    info.Key("Title").Text(),
		Producer: info.Key("Producer").Text(),
		Pages:    r.NumPage(),
	}
	for i := 1; i <= rep.Pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		annots := page.V.Key("Annots")
		for j := 0; j < annots.Len(); j++ {
			a := annots.Index(j)
			if a.Key("Subtype").Name() != "3D" {
				continue
			}
			found, err := readAnnotation(i, a)
			if err != nil {
				return rep, err
			}
			rep.Annotations = append(rep.Annotations, found)
		}
	}
	return rep, nil
}

func readAnnotation(page int, a pdf.Value) (Annotation3D, error) {
	out := Annotation3D{
		Page:       page,
		HasView:    a.Key("3DV").Kind() == pdf.Dict,
		Activation: a.Key("3DA").Key("A").Name(),
		HasPoster:  a.Key("AP").Key("N").Kind() == pdf.Stream,
	}
	rect := a.Key("Rect")
	for k := 0; k < 4 && k < rect.Len(); k++ {
		out.Rect[k] = rect.Index(k).Float64()
	}
	dd := a.Key("3DD")
	if dd.Kind() != pdf.Stream {
		return out, nil
	}
	out.StreamType = dd.Key("Type").Name()
	out.ModelSubtype = dd.Key("Subtype").Name()
	rc := dd.Reader()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return out, fmt.Errorf("pdf3d: read 3DD stream on page %d: %w", page, err)
	}
	out.Data = data
	return out, nil
}
