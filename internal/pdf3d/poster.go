package pdf3d

import (
	"image"
	"image/color"
	"strings"

	"seehuhn.de/go/pdf"
)

// posterAppearance adds an RGB image XObject and a form XObject drawing it
// across the annotation, returning the form's reference.
func posterAppearance(w *pdf.Writer, img image.Image, width, height float64) (pdf.Reference, error) {
	bounds := img.Bounds()
	rgb := make([]byte, 0, bounds.Dx()*bounds.Dy()*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			rgb = append(rgb, blend(c.R, c.A), blend(c.G, c.A), blend(c.B, c.A))
		}
	}
	imgRef := w.Alloc()
	imgDict := pdf.Dict{
		"Type":             pdf.Name("XObject"),
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(bounds.Dx()),
		"Height":           pdf.Integer(bounds.Dy()),
		"ColorSpace":       pdf.Name("DeviceRGB"),
		"BitsPerComponent": pdf.Integer(8),
	}
	if err := putStream(w, imgRef, imgDict, rgb); err != nil {
		return 0, err
	}

	var sb strings.Builder
	cw := newContentWriter(&sb)
	cw.op(pdf.Operator("q"),
		pdf.Number(width), pdf.Integer(0), pdf.Integer(0), pdf.Number(height), pdf.Integer(0), pdf.Integer(0), pdf.Operator("cm"),
		pdf.Name("Im1"), pdf.Operator("Do"),
		pdf.Operator("Q"))
	formRef := w.Alloc()
	formDict := pdf.Dict{
		"Type":      pdf.Name("XObject"),
		"Subtype":   pdf.Name("Form"),
		"BBox":      &pdf.Rectangle{URx: width, URy: height},
		"Resources": pdf.Dict{"XObject": pdf.Dict{"Im1": imgRef}},
	}
	if err := putStream(w, formRef, formDict, []byte(sb.String())); err != nil {
		return 0, err
	}
	return formRef, nil
}

// blend composites a channel over white.
func blend(c, a uint8) uint8 {
	return uint8((uint16(c)*uint16(a) + 255*uint16(255-a)) / 255)
}
