// Package fractal renders the Mandelbrot set on the CPU
package fractal

import (
	"context"
	"image"
	"image/color"
	"math"
	"runtime"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/autozoom/viewport"
)

const (
	escapeRadius2 = 4.0
	rowsPerJob    = 8
)

// Renderer is an escape-time Mandelbrot renderer.
// Buffer row r samples screen row h-r, so rows run opposite to plane orientation.
type Renderer struct {
	workers int

	// OnRender is called after each completed frame
	OnRender func(p viewport.Params)
}

var _ viewport.Renderer = (*Renderer)(nil)

// NewRenderer creates a renderer using workers goroutines; workers < 1 uses GOMAXPROCS
func NewRenderer(workers int) *Renderer {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Renderer{workers: workers}
}

// Render implements viewport.Renderer
func (r *Renderer) Render(ctx context.Context, p viewport.Params) (*image.RGBA, error) {
	if p.Iterations <= 0 {
		return nil, errors.Errorf("iterations %d must be positive", p.Iterations)
	}
	view, err := viewport.NewView(p.Center, p.Size, p.Resolution)
	if err != nil {
		return nil, errors.Wrap(err, "render params")
	}

	w, h := p.Resolution.W, p.Resolution.H
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for y0 := 0; y0 < h; y0 += rowsPerJob {
		y1 := min(y0+rowsPerJob, h)
		g.Go(func() error {
			for row := y0; row < y1; row++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				for x := 0; x < w; x++ {
					c := view.ScreenToPlane(image.Point{X: x, Y: h - row})
					img.SetRGBA(x, row, Shade(Escape(complex(c.X, c.Y), p.Iterations), p.Iterations))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if r.OnRender != nil {
		r.OnRender(p)
	}
	return img, nil
}

// Escape returns the smooth iteration count at which c escapes, or maxIter if it never does
func Escape(c complex128, maxIter int) float64 {
	z := complex(0, 0)
	for i := 0; i < maxIter; i++ {
		z = z*z + c
		m2 := real(z)*real(z) + imag(z)*imag(z)
		if m2 > escapeRadius2 {
			// log|z| = log(m2)/2
			mu := float64(i) + 1 - math.Log(math.Log(m2)/2)/math.Ln2
			// Keep escaped points distinguishable from the interior
			return math.Min(math.Max(mu, 0), math.Nextafter(float64(maxIter), 0))
		}
	}
	return float64(maxIter)
}

// Shade maps an escape count to a colour. Interior points are black.
// Red grows with escape depth so the brightest red sits on the slowest escaping points;
// green and blue cycle with the count for texture.
func Shade(mu float64, maxIter int) color.RGBA {
	if mu >= float64(maxIter) {
		return color.RGBA{A: 255}
	}

	t := mu / float64(maxIter)
	hue := math.Mod(mu*7.5, 360)
	_, g, b := colorful.Hsv(hue, 0.7, 0.35+0.65*t).RGB255()

	return color.RGBA{
		R: uint8(math.Round(255 * math.Sqrt(t))),
		G: g,
		B: b,
		A: 255,
	}
}
