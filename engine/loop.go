// Package engine runs the tick/draw cycle shared by every front end
package engine

import (
	"context"
	"image"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/lixenwraith/autozoom/viewport"
	"github.com/lixenwraith/autozoom/zoom"
)

// Interrupt is an input notification from the display.
// Hard interrupts (Ctrl-C, Esc) always end the loop.
type Interrupt struct {
	Hard bool
}

// Status is a snapshot of the animation for presenters that annotate frames
type Status struct {
	Frames  uint64
	Mode    zoom.Mode
	Holding bool
	Center  viewport.Point
	Size    viewport.Size
	Renders int
}

// Presenter receives every drawn frame. The frame must be treated as read-only.
type Presenter interface {
	Present(frame *image.RGBA, st Status) error
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(frame *image.RGBA, st Status) error

func (f PresenterFunc) Present(frame *image.RGBA, st Status) error {
	return f(frame, st)
}

// Loop owns the view and its controller; it must be driven from a single goroutine
type Loop struct {
	View       *viewport.View
	Controller *zoom.Controller
	Renderer   viewport.Renderer
	Presenters []Presenter

	// QuitAfter is the tick count after which any interrupt ends Run
	QuitAfter uint64
}

// NewLoop wires a controller for view using picker
func NewLoop(view *viewport.View, cfg zoom.Config, picker zoom.Picker, r viewport.Renderer, presenters ...Presenter) *Loop {
	return &Loop{
		View:       view,
		Controller: zoom.NewController(cfg, view, picker),
		Renderer:   r,
		Presenters: presenters,
	}
}

// Status returns the current animation state
func (l *Loop) Status() Status {
	return Status{
		Frames:  l.Controller.Frames(),
		Mode:    l.Controller.Mode(),
		Holding: l.Controller.Holding(),
		Center:  l.View.Center(),
		Size:    l.View.Size(),
		Renders: l.View.Renders(),
	}
}

// Step advances one tick and draws it
func (l *Loop) Step(ctx context.Context) error {
	l.Controller.Tick()
	return l.Draw(ctx)
}

// Draw renders the view if stale and hands the frame to every presenter.
// A render failure is returned as is and no presenter runs.
func (l *Loop) Draw(ctx context.Context) error {
	if err := l.View.EnsureRendered(ctx, l.Renderer); err != nil {
		return err
	}

	frame := l.View.Frame()
	st := l.Status()
	for _, p := range l.Presenters {
		if err := p.Present(frame, st); err != nil {
			return errors.Wrap(err, "present")
		}
	}
	return nil
}

// ShouldQuit applies the termination policy to an interrupt
func (l *Loop) ShouldQuit(ev Interrupt) bool {
	return ev.Hard || l.Controller.Frames() > l.QuitAfter
}

// Run steps the loop every interval until ctx ends or an interrupt passes ShouldQuit.
// Render failures are logged and retried on the next tick; other errors end the run.
func (l *Loop) Run(ctx context.Context, interval time.Duration, interrupts <-chan Interrupt) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := l.Draw(ctx); err != nil && !l.recoverable(ctx, err) {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-interrupts:
			if !ok {
				// Input source closed, keep animating
				interrupts = nil
				continue
			}
			if l.ShouldQuit(ev) {
				log.Printf("interrupt at tick %d, quitting", l.Controller.Frames())
				return nil
			}

		case <-ticker.C:
			if err := l.Step(ctx); err != nil && !l.recoverable(ctx, err) {
				return err
			}
		}
	}
}

// recoverable logs render failures; they leave the cache empty and the next draw retries
func (l *Loop) recoverable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	if errors.Is(err, viewport.ErrRenderFailure) {
		log.Printf("tick %d: %v", l.Controller.Frames(), err)
		return true
	}
	return false
}
