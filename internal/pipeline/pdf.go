package pipeline

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/danmuck/meshu3d/internal/mesh"
	"github.com/danmuck/meshu3d/internal/pdf3d"
	"github.com/danmuck/meshu3d/internal/preview"
	"github.com/danmuck/meshu3d/internal/u3d"
	"github.com/rs/zerolog/log"
)

var (
	ErrRejected     = errors.New("pipeline: invalid U3D rejected")
	ErrVerifyFailed = errors.New("pipeline: PDF verification failed")
)

// PDFRequest is the input to U3DToPDF.
type PDFRequest struct {
	Input string
	// Output defaults to <stem>_3d.pdf next to Input.
	Output string
	// Title defaults to the input stem.
	Title    string
	PageSize [2]float64
	// Dummy embeds u3d.Dummy() instead of reading Input.
	Dummy bool
	// Confirm is asked whether to continue with a U3D that failed
	// validation. Nil rejects.
	Confirm func(warnings []string) bool
	// Verify reopens the written PDF and checks the annotation.
	Verify bool
	Poster image.Image
}

// U3DToPDF embeds a U3D file as a 3D annotation on a single page.
func (c *Converter) U3DToPDF(req PDFRequest) (Result, error) {
	var res Result
	if req.Output == "" {
		base := req.Input
		if base == "" {
			base = "dummy.u3d"
		}
		req.Output = filepath.Join(filepath.Dir(base), stem(base)+"_3d.pdf")
	}
	res.PDF = req.Output
	res.U3D = req.Input

	var data []byte
	if req.Dummy {
		log.Info().Msg("pipeline.pdf using dummy U3D data")
		data = u3d.Dummy()
	} else {
		if err := requireFile(req.Input, ".u3d"); err != nil {
			return res, err
		}
		report, err := u3d.Check(req.Input)
		if err != nil {
			return res, err
		}
		if !report.Valid() {
			warnings := report.Warnings()
			for _, w := range warnings {
				log.Warn().Str("input", req.Input).Msg("pipeline.pdf " + w)
			}
			if req.Confirm == nil || !req.Confirm(warnings) {
				return res, fmt.Errorf("%w: %s", ErrRejected, strings.Join(warnings, "; "))
			}
		}
		data, err = os.ReadFile(req.Input)
		if err != nil {
			return res, err
		}
	}

	title := req.Title
	if title == "" {
		title = stem(req.Input)
		if req.Dummy && req.Input == "" {
			title = "dummy"
		}
	}
	doc := pdf3d.Document{
		Title:    title,
		U3D:      data,
		PageSize: req.PageSize,
		Poster:   req.Poster,
		Producer: "meshu3d",
	}
	if err := pdf3d.WriteFile(req.Output, doc); err != nil {
		return res, err
	}
	log.Info().Str("pdf", req.Output).Int("u3d_bytes", len(data)).Msg("pipeline.pdf written")

	if req.Verify {
		if err := verifyPDF(req.Output, data); err != nil {
			return res, err
		}
		log.Info().Str("pdf", req.Output).Msg("pipeline.pdf verified")
	}
	return res, nil
}

func verifyPDF(path string, data []byte) error {
	report, err := pdf3d.Inspect(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerifyFailed, err)
	}
	if len(report.Annotations) != 1 {
		return fmt.Errorf("%w: %d 3D annotations", ErrVerifyFailed, len(report.Annotations))
	}
	a := report.Annotations[0]
	if a.ModelSubtype != "U3D" {
		return fmt.Errorf("%w: 3D stream subtype %q", ErrVerifyFailed, a.ModelSubtype)
	}
	if len(a.Data) != len(data) {
		return fmt.Errorf("%w: embedded %d bytes, expected %d", ErrVerifyFailed, len(a.Data), len(data))
	}
	return nil
}

// WorkflowRequest is the input to Workflow.
type WorkflowRequest struct {
	Input string
	// PDF defaults to output/<stem>_3d.pdf. The U3D is written next to it.
	PDF      string
	Title    string
	PageSize [2]float64
	Clean    bool
	Simplify int
	// Preview renders a poster, embeds it and writes <stem>.webp.
	Preview        bool
	PreviewOptions preview.Options
	Verify         bool
}

// Workflow converts a mesh to U3D and embeds it in a PDF. A placeholder U3D
// is still embedded, but the conversion error is returned.
func (c *Converter) Workflow(req WorkflowRequest) (Result, error) {
	name := stem(req.Input)
	pdfPath := req.PDF
	if pdfPath == "" {
		pdfPath = filepath.Join("output", name+"_3d.pdf")
	}
	u3dPath := filepath.Join(filepath.Dir(pdfPath), name+".u3d")

	res, convErr := c.MeshToU3D(MeshRequest{Input: req.Input, Output: u3dPath, Clean: req.Clean, Simplify: req.Simplify})
	if convErr != nil && !res.Placeholder {
		return res, convErr
	}
	if res.Placeholder {
		log.Warn().Str("u3d", u3dPath).Msg("pipeline.workflow embedding placeholder U3D")
	}

	var poster image.Image
	if req.Preview {
		img, err := c.renderPreview(req.Input, withExt(pdfPath, ".webp"), req.PreviewOptions)
		if err != nil {
			log.Warn().Err(err).Msg("pipeline.workflow preview skipped")
		} else {
			poster = img
		}
	}

	title := req.Title
	if title == "" {
		title = name
	}
	pdfRes, err := c.U3DToPDF(PDFRequest{
		Input:    u3dPath,
		Output:   pdfPath,
		Title:    title,
		PageSize: req.PageSize,
		// a placeholder is embedded knowingly
		Confirm: func([]string) bool { return true },
		Verify:  req.Verify,
		Poster:  poster,
	})
	res.PDF = pdfRes.PDF
	if err != nil {
		return res, errors.Join(convErr, err)
	}
	return res, convErr
}

func (c *Converter) renderPreview(input, out string, opts preview.Options) (image.Image, error) {
	m, err := mesh.Load(input)
	if err != nil {
		return nil, err
	}
	img, err := preview.Render(m, opts)
	if err != nil {
		return nil, err
	}
	if err := preview.WriteWebP(out, img); err != nil {
		return nil, err
	}
	log.Info().Str("webp", out).Msg("pipeline.workflow preview written")
	return img, nil
}
