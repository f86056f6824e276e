package viewport

import (
	"context"
	"image"

	"github.com/pkg/errors"
)

// DefaultIterations is the escape-time iteration budget sent with every render.
// It stays constant across zoom levels.
const DefaultIterations = 256

// Sentinel errors
var (
	ErrRenderFailure = errors.New("render failed")
	ErrFrameSize     = errors.New("rendered frame does not match resolution")
	ErrInvalidView   = errors.New("invalid view")
)

// RenderError carries the renderer's failure. It matches ErrRenderFailure and unwraps to the cause.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return "render failed: " + e.Err.Error()
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRenderFailure }

// Point is a position in the complex plane
type Point struct {
	X, Y float64 // real, imaginary
}

// Size is an extent in plane units
type Size struct {
	W, H float64
}

// Resolution is the pixel size of the render target
type Resolution struct {
	W, H int
}

// Params fully determines one render
type Params struct {
	Center     Point
	Size       Size
	Resolution Resolution
	Iterations int
}

// Renderer turns view parameters into a pixel buffer.
// Implementations are expected to be expensive; View calls them at most once per view state.
type Renderer interface {
	Render(ctx context.Context, p Params) (*image.RGBA, error)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(ctx context.Context, p Params) (*image.RGBA, error)

func (f RendererFunc) Render(ctx context.Context, p Params) (*image.RGBA, error) {
	return f(ctx, p)
}

// View maps screen pixels onto the plane and caches the frame rendered for its current parameters.
// Every method that moves or scales the view drops the cached frame.
type View struct {
	center     Point
	size       Size
	resolution Resolution
	iterations int

	frame   *image.RGBA
	renders int
}

// NewView creates a view centered on center spanning size, rendered at res
func NewView(center Point, size Size, res Resolution) (*View, error) {
	if !(size.W > 0) || !(size.H > 0) {
		return nil, errors.Wrapf(ErrInvalidView, "size %gx%g must be positive", size.W, size.H)
	}
	if res.W <= 0 || res.H <= 0 {
		return nil, errors.Wrapf(ErrInvalidView, "resolution %dx%d must be positive", res.W, res.H)
	}
	return &View{
		center:     center,
		size:       size,
		resolution: res,
		iterations: DefaultIterations,
	}, nil
}

// SetIterations changes the iteration budget. A different budget is a different render, so the cache is dropped.
func (v *View) SetIterations(n int) {
	if n <= 0 || n == v.iterations {
		return
	}
	v.iterations = n
	v.frame = nil
}

func (v *View) Center() Point { return v.center }
func (v *View) Size() Size { return v.size }
func (v *View) Resolution() Resolution { return v.resolution }

// Params returns the parameters of the current view state
func (v *View) Params() Params {
	return Params{
		Center:     v.center,
		Size:       v.size,
		Resolution: v.resolution,
		Iterations: v.iterations,
	}
}

// Frame returns the cached frame, nil when stale
func (v *View) Frame() *image.RGBA {
	return v.frame
}

// Renders returns how many times the renderer has been invoked
func (v *View) Renders() int {
	return v.renders
}

// EnsureRendered fills the cache through r if it is empty.
// On failure the cache stays empty so the next call retries.
func (v *View) EnsureRendered(ctx context.Context, r Renderer) error {
	if v.frame != nil {
		return nil
	}

	v.renders++
	frame, err := r.Render(ctx, v.Params())
	if err != nil {
		return &RenderError{Err: err}
	}
	if frame == nil || frame.Rect.Dx() != v.resolution.W || frame.Rect.Dy() != v.resolution.H {
		got := image.Rectangle{}
		if frame != nil {
			got = frame.Rect
		}
		return &RenderError{Err: errors.Wrapf(ErrFrameSize, "want %dx%d, got %v", v.resolution.W, v.resolution.H, got)}
	}

	v.frame = frame
	return nil
}

// ZoomTowards moves the center toward p by blend and scales the size by factor
func (v *View) ZoomTowards(p Point, blend, factor float64) {
	keep := 1 - blend
	v.center = Point{
		X: v.center.X*keep + p.X*blend,
		Y: v.center.Y*keep + p.Y*blend,
	}
	v.frame = nil
	v.scale(factor)
}

// ZoomOut scales the size by factor around the current center
func (v *View) ZoomOut(factor float64) {
	v.scale(factor)
}

// scale multiplies both size components; non-positive factors are ignored to keep size positive
func (v *View) scale(factor float64) {
	if !(factor > 0) {
		return
	}
	v.size.W *= factor
	v.size.H *= factor
	v.frame = nil
}
