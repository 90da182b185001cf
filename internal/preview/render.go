// Package preview renders a flat-shaded poster image of a mesh, used as the
// PDF annotation appearance and as a standalone WebP thumbnail.
package preview

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/danmuck/meshu3d/internal/mesh"
)

var ErrEmptyMesh = errors.New("preview: mesh has no faces")

// Options control the poster render.
type Options struct {
	// Size is the output edge length in pixels.
	Size int
	// Supersample renders at Size*Supersample before downsampling.
	Supersample int
	// Yaw and Pitch rotate the model in degrees before projection.
	Yaw   float64
	Pitch float64
	Color color.NRGBA
}

func DefaultOptions() Options {
	return Options{
		Size:        256,
		Supersample: 2,
		Yaw:         35,
		Pitch:       25,
		Color:       color.NRGBA{R: 176, G: 184, B: 196, A: 255},
	}
}

// normalized fills Size, Supersample and Color. Yaw and Pitch are taken as
// given, so a zero Options looks straight down the -Z axis.
func (o Options) normalized() Options {
	d := DefaultOptions()
	if o.Size <= 0 {
		o.Size = d.Size
	}
	if o.Supersample <= 0 {
		o.Supersample = d.Supersample
	}
	if o.Color.A == 0 {
		o.Color = d.Color
	}
	return o
}

// frameBuffer holds the render target as flat slices.
type frameBuffer struct {
	size  int
	color []uint8
	zbuf  []float64
}

func newFrameBuffer(size int) *frameBuffer {
	n := size * size
	zbuf := make([]float64, n)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}
	return &frameBuffer{size: size, color: make([]uint8, n*4), zbuf: zbuf}
}

// Render rasterizes m orthographically, fitted to the frame.
func Render(m *mesh.Mesh, opts Options) (*image.NRGBA, error) {
	if m == nil || m.FaceCount() == 0 {
		return nil, ErrEmptyMesh
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	opts = opts.normalized()
	size := opts.Size * opts.Supersample

	px, py, pz := project(m, opts, size)
	fb := newFrameBuffer(size)
	light := normalize([3]float64{0.4, 0.6, 0.7})
	for _, f := range m.Faces {
		rasterize(fb, px, py, pz, f, opts.Color, light)
	}

	img := &image.NRGBA{Pix: fb.color, Stride: size * 4, Rect: image.Rect(0, 0, size, size)}
	return Downsample(img, opts.Size), nil
}

// project rotates, fits and flips vertices into screen space. Larger z is
// nearer the viewer.
func project(m *mesh.Mesh, opts Options, size int) (px, py, pz []float64) {
	yaw := opts.Yaw * math.Pi / 180
	pitch := opts.Pitch * math.Pi / 180
	cy, sy := math.Cos(yaw), math.Sin(yaw)
	cp, sp := math.Cos(pitch), math.Sin(pitch)

	n := m.VertexCount()
	px = make([]float64, n)
	py = make([]float64, n)
	pz = make([]float64, n)
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i, v := range m.Vertices {
		x := v[0]*cy + v[2]*sy
		z := -v[0]*sy + v[2]*cy
		y := v[1]*cp - z*sp
		z = v[1]*sp + z*cp
		px[i], py[i], pz[i] = x, y, z
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	extent := math.Max(maxX-minX, maxY-minY)
	if extent < 1e-12 {
		extent = 1
	}
	margin := 0.08 * float64(size)
	scale := (float64(size) - 2*margin) / extent
	cx, cyc := (minX+maxX)/2, (minY+maxY)/2
	half := float64(size) / 2
	for i := range px {
		px[i] = half + (px[i]-cx)*scale
		py[i] = half - (py[i]-cyc)*scale
		pz[i] *= scale
	}
	return px, py, pz
}

func rasterize(fb *frameBuffer, px, py, pz []float64, face [3]int, base color.NRGBA, light [3]float64) {
	x0, y0, z0 := px[face[0]], py[face[0]], pz[face[0]]
	x1, y1, z1 := px[face[1]], py[face[1]], pz[face[1]]
	x2, y2, z2 := px[face[2]], py[face[2]], pz[face[2]]

	// Face normal for flat shading. Screen y is flipped, so negate it back.
	n := normalize(cross([3]float64{x1 - x0, -(y1 - y0), z1 - z0}, [3]float64{x2 - x0, -(y2 - y0), z2 - z0}))
	if n == ([3]float64{}) {
		return
	}
	shade := 0.35 + 0.65*math.Abs(n[0]*light[0]+n[1]*light[1]+n[2]*light[2])
	r, g, b := clamp8(float64(base.R)*shade), clamp8(float64(base.G)*shade), clamp8(float64(base.B)*shade)

	size := fb.size
	minX := max(int(math.Floor(math.Min(math.Min(x0, x1), x2))), 0)
	maxX := min(int(math.Ceil(math.Max(math.Max(x0, x1), x2))), size-1)
	minY := max(int(math.Floor(math.Min(math.Min(y0, y1), y2))), 0)
	maxY := min(int(math.Ceil(math.Max(math.Max(y0, y1), y2))), size-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if math.Abs(det) < 1e-8 {
		return
	}
	invDet := 1.0 / det
	dy12, dx21 := y1-y2, x2-x1
	dy20, dx02 := y2-y0, x0-x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		row := sy * size
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}
			z := w0*z0 + w1*z1 + w2*z2
			idx := row + sx
			if z <= fb.zbuf[idx] {
				continue
			}
			fb.zbuf[idx] = z
			p := idx * 4
			fb.color[p], fb.color[p+1], fb.color[p+2], fb.color[p+3] = r, g, b, 255
		}
	}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func normalize(v [3]float64) [3]float64 {
	l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l < 1e-12 {
		return [3]float64{}
	}
	return [3]float64{v[0] / l, v[1] / l, v[2] / l}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
