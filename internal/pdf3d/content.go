package pdf3d

import (
	"strings"

	"seehuhn.de/go/pdf"
)

type contentWriter struct {
	sb *strings.Builder
}

func newContentWriter(sb *strings.Builder) contentWriter {
	return contentWriter{sb: sb}
}

// op writes one line of operands and operators.
func (c contentWriter) op(args ...pdf.Object) {
	// Format only fails on direct streams, which content never holds.
	_ = pdf.Format(c.sb, pdf.OptContentStream|pdf.OptPretty, args...)
	c.sb.WriteByte('\n')
}

// text draws s with a base-14 font. Non-Latin-1 runes become '?'.
func (c contentWriter) text(font pdf.Name, size, x, y float64, s string) {
	c.op(pdf.Operator("BT"),
		font, pdf.Number(size), pdf.Operator("Tf"),
		pdf.Number(x), pdf.Number(y), pdf.Operator("Td"),
		pdf.String(latin1(s)), pdf.Operator("Tj"),
		pdf.Operator("ET"))
}

func latin1(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			out = append(out, '?')
			continue
		}
		out = append(out, byte(r))
	}
	return string(out)
}
