package zoom

import (
	"image"

	"github.com/lixenwraith/autozoom/viewport"
)

// Mode is the controller phase
type Mode uint8

const (
	ZoomingIn Mode = iota
	ZoomingOut
)

// String returns human-readable mode name
func (m Mode) String() string {
	switch m {
	case ZoomingIn:
		return "zoom-in"
	case ZoomingOut:
		return "zoom-out"
	default:
		return "unknown"
	}
}

// Config holds the tuning constants of the zoom cycle
type Config struct {
	InFactor      float64 // size multiplier per zoom-in tick
	OutFactor     float64 // size multiplier per zoom-out tick
	Blend         float64 // fraction of the way the center moves toward the target per tick
	MinWidth      float64 // zoom-in ends below this width
	MaxWidth      float64 // zoom-out ends above this width
	RetargetEvery uint64  // ticks between target selections
}

// DefaultConfig returns the standard zoom cycle
func DefaultConfig() Config {
	return Config{
		InFactor:      0.99,
		OutFactor:     1.02,
		Blend:         0.03,
		MinWidth:      0.00004,
		MaxWidth:      6.4,
		RetargetEvery: 120,
	}
}

// Picker chooses a pixel of a frame to zoom toward
type Picker interface {
	Select(frame *image.RGBA) (image.Point, bool)
}

// Controller drives a view through the endless zoom-in / zoom-out cycle.
// It is not safe for concurrent use; one loop owns it together with its view.
type Controller struct {
	cfg    Config
	view   *viewport.View
	picker Picker

	mode   Mode
	target *viewport.Point
	frames uint64

	// OnModeChange is called after every phase transition
	OnModeChange func(Mode)
}

// NewController creates a controller in ZoomingIn with no target
func NewController(cfg Config, view *viewport.View, picker Picker) *Controller {
	if cfg.RetargetEvery == 0 {
		cfg.RetargetEvery = 1
	}
	return &Controller{
		cfg:    cfg,
		view:   view,
		picker: picker,
		mode:   ZoomingIn,
	}
}

func (c *Controller) Mode() Mode { return c.mode }
func (c *Controller) Frames() uint64 { return c.frames }
func (c *Controller) View() *viewport.View { return c.view }
func (c *Controller) Config() Config { return c.cfg }

// Target returns the current zoom target
func (c *Controller) Target() (viewport.Point, bool) {
	if c.target == nil {
		return viewport.Point{}, false
	}
	return *c.target, true
}

// Holding reports zoom-in phase without a target, the view stands still
func (c *Controller) Holding() bool {
	return c.mode == ZoomingIn && c.target == nil
}

// SetTarget replaces the zoom target
func (c *Controller) SetTarget(p viewport.Point) {
	c.target = &p
}

// SetMode forces a phase, firing OnModeChange if it differs
func (c *Controller) SetMode(m Mode) {
	c.setMode(m)
}

func (c *Controller) setMode(m Mode) {
	if c.mode == m {
		return
	}
	c.mode = m
	if c.OnModeChange != nil {
		c.OnModeChange(m)
	}
}

// Tick advances the cycle by one frame
func (c *Controller) Tick() {
	c.frames++

	if c.mode == ZoomingOut {
		c.view.ZoomOut(c.cfg.OutFactor)
		if c.view.Size().W > c.cfg.MaxWidth {
			c.setMode(ZoomingIn)
		}
		return
	}

	// Switch takes effect next tick, this one still zooms in
	if c.view.Size().W < c.cfg.MinWidth {
		c.setMode(ZoomingOut)
	}

	if c.frames%c.cfg.RetargetEvery == 0 {
		c.retarget()
	}

	if c.target != nil {
		c.view.ZoomTowards(*c.target, c.cfg.Blend, c.cfg.InFactor)
	}
}

// retarget selects a new target from the cached frame; without a frame or a candidate the old target stays
func (c *Controller) retarget() {
	frame := c.view.Frame()
	if frame == nil || c.picker == nil {
		return
	}
	px, ok := c.picker.Select(frame)
	if !ok {
		return
	}
	p := c.view.ScreenToPlane(px)
	c.target = &p
}
