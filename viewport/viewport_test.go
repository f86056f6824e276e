package viewport

import (
	"context"
	"image"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingRenderer returns blank frames of the requested resolution and records every call
type countingRenderer struct {
	calls []Params
	err   error
}

func (r *countingRenderer) Render(_ context.Context, p Params) (*image.RGBA, error) {
	r.calls = append(r.calls, p)
	if r.err != nil {
		return nil, r.err
	}
	return image.NewRGBA(image.Rect(0, 0, p.Resolution.W, p.Resolution.H)), nil
}

func newTestView(t *testing.T) *View {
	t.Helper()
	v, err := NewView(Point{X: 0, Y: 0}, Size{W: 6.4, H: 3.6}, Resolution{W: 100, H: 100})
	require.NoError(t, err)
	return v
}

func TestNewView_RejectsDegenerate(t *testing.T) {
	cases := []struct {
		name string
		size Size
		res  Resolution
	}{
		{"zero width", Size{W: 0, H: 1}, Resolution{W: 10, H: 10}},
		{"negative height", Size{W: 1, H: -1}, Resolution{W: 10, H: 10}},
		{"zero resolution", Size{W: 1, H: 1}, Resolution{W: 0, H: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewView(Point{}, tc.size, tc.res)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidView))
		})
	}
}

func TestScreenToPlane_Corners(t *testing.T) {
	v := newTestView(t)

	tl := v.ScreenToPlane(image.Point{X: 0, Y: 0})
	assert.InDelta(t, -3.2, tl.X, 1e-12)
	assert.InDelta(t, -1.8, tl.Y, 1e-12)

	mid := v.ScreenToPlane(image.Point{X: 50, Y: 50})
	assert.InDelta(t, 0, mid.X, 1e-12)
	assert.InDelta(t, 0, mid.Y, 1e-12)

	// Outside the resolution extrapolates
	out := v.ScreenToPlane(image.Point{X: 200, Y: -100})
	assert.InDelta(t, 9.6, out.X, 1e-12)
	assert.InDelta(t, -5.4, out.Y, 1e-12)
}

func TestScreenToPlane_RoundTrip(t *testing.T) {
	views := []struct {
		center Point
		size   Size
		res    Resolution
	}{
		{Point{0, 0}, Size{6.4, 3.6}, Resolution{100, 100}},
		{Point{-0.743643887, 0.131825904}, Size{4e-5, 2.25e-5}, Resolution{640, 360}},
		{Point{0.25, -0.5}, Size{1e-9, 3e-9}, Resolution{7, 13}},
	}

	for _, vc := range views {
		v, err := NewView(vc.center, vc.size, vc.res)
		require.NoError(t, err)

		for y := 0; y < vc.res.H; y += 3 {
			for x := 0; x < vc.res.W; x += 3 {
				px, py := v.PlaneToScreen(v.ScreenToPlane(image.Point{X: x, Y: y}))
				assert.InDelta(t, float64(x), px, 1e-3, "x at (%d,%d) size %v", x, y, vc.size)
				assert.InDelta(t, float64(y), py, 1e-3, "y at (%d,%d) size %v", x, y, vc.size)
			}
		}
	}
}

func TestEnsureRendered_RendersOnce(t *testing.T) {
	v := newTestView(t)
	r := &countingRenderer{}
	ctx := context.Background()

	require.Nil(t, v.Frame())
	require.NoError(t, v.EnsureRendered(ctx, r))
	require.NoError(t, v.EnsureRendered(ctx, r))

	assert.Len(t, r.calls, 1)
	assert.Equal(t, 1, v.Renders())
	require.NotNil(t, v.Frame())
	assert.Equal(t, v.Params(), r.calls[0])
	assert.Equal(t, DefaultIterations, r.calls[0].Iterations)
}

func TestMutationsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	mutations := map[string]func(v *View){
		"zoom towards": func(v *View) { v.ZoomTowards(Point{X: 1, Y: 1}, 0.03, 0.99) },
		"zoom out":     func(v *View) { v.ZoomOut(1.02) },
		"iterations":   func(v *View) { v.SetIterations(512) },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			v := newTestView(t)
			r := &countingRenderer{}

			require.NoError(t, v.EnsureRendered(ctx, r))
			require.NotNil(t, v.Frame())

			mutate(v)
			assert.Nil(t, v.Frame())

			require.NoError(t, v.EnsureRendered(ctx, r))
			assert.NotNil(t, v.Frame())
			assert.Len(t, r.calls, 2)
		})
	}
}

func TestEnsureRendered_FailureLeavesCacheEmpty(t *testing.T) {
	v := newTestView(t)
	cause := errors.New("device lost")
	r := &countingRenderer{err: cause}
	ctx := context.Background()

	err := v.EnsureRendered(ctx, r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRenderFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, v.Frame())

	// Next draw retries
	r.err = nil
	require.NoError(t, v.EnsureRendered(ctx, r))
	assert.NotNil(t, v.Frame())
	assert.Len(t, r.calls, 2)
}

func TestEnsureRendered_WrongFrameSize(t *testing.T) {
	v := newTestView(t)
	r := RendererFunc(func(context.Context, Params) (*image.RGBA, error) {
		return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
	})

	err := v.EnsureRendered(context.Background(), r)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRenderFailure))
	assert.True(t, errors.Is(err, ErrFrameSize))
	assert.Nil(t, v.Frame())
}

func TestZoomTowards_Blend(t *testing.T) {
	v := newTestView(t)
	v.ZoomTowards(Point{X: 1, Y: -2}, 0.03, 0.99)

	assert.InDelta(t, 0.03, v.Center().X, 1e-12)
	assert.InDelta(t, -0.06, v.Center().Y, 1e-12)
	assert.InDelta(t, 6.336, v.Size().W, 1e-12)
	assert.InDelta(t, 3.564, v.Size().H, 1e-12)
}

func TestZoomOut_KeepsCenter(t *testing.T) {
	v := newTestView(t)
	v.ZoomOut(1.02)

	assert.Equal(t, Point{}, v.Center())
	assert.InDelta(t, 6.528, v.Size().W, 1e-12)
	assert.InDelta(t, 3.672, v.Size().H, 1e-12)
	assert.Equal(t, Resolution{W: 100, H: 100}, v.Resolution())
}

func TestZoomOut_IgnoresNonPositiveFactor(t *testing.T) {
	v := newTestView(t)
	v.ZoomOut(0)
	v.ZoomOut(-2)

	assert.Equal(t, Size{W: 6.4, H: 3.6}, v.Size())
}
