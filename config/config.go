// Package config loads startup settings: defaults, then an optional TOML file, then environment overrides
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/lixenwraith/autozoom/viewport"
	"github.com/lixenwraith/autozoom/zoom"
)

// DefaultPath is read when no path is given
const DefaultPath = "autozoom.toml"

// ErrInvalid marks a configuration that loads but cannot run
var ErrInvalid = errors.New("invalid config")

// Config is the full startup configuration
type Config struct {
	Screen Screen `toml:"screen"`
	View   View   `toml:"view"`
	Zoom   Zoom   `toml:"zoom"`
	Render Render `toml:"render"`
	Loop   Loop   `toml:"loop"`
	Audio  Audio  `toml:"audio"`
	Stream Stream `toml:"stream"`
}

// Screen is the render resolution, fixed for the lifetime of the process
type Screen struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// View is the initial plane window
type View struct {
	CenterX float64 `toml:"center_x"`
	CenterY float64 `toml:"center_y"`
	Width   float64 `toml:"width"`
	Height  float64 `toml:"height"`
}

type Zoom struct {
	InFactor      float64 `toml:"in_factor"`
	OutFactor     float64 `toml:"out_factor"`
	Blend         float64 `toml:"blend"`
	MinWidth      float64 `toml:"min_width"`
	MaxWidth      float64 `toml:"max_width"`
	RetargetEvery uint64  `toml:"retarget_every"`
}

type Render struct {
	Iterations int `toml:"iterations"`
	Workers    int `toml:"workers"` // 0 = GOMAXPROCS
}

type Loop struct {
	FPS       int    `toml:"fps"`
	QuitAfter uint64 `toml:"quit_after"` // input ends the demo once this many ticks passed
	HUD       bool   `toml:"hud"`
}

type Audio struct {
	Enabled bool    `toml:"enabled"`
	Volume  float64 `toml:"volume"`
}

type Stream struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration
func Default() Config {
	z := zoom.DefaultConfig()
	return Config{
		Screen: Screen{Width: 640, Height: 360},
		View:   View{CenterX: 0, CenterY: 0, Width: 6.4, Height: 3.6},
		Zoom: Zoom{
			InFactor:      z.InFactor,
			OutFactor:     z.OutFactor,
			Blend:         z.Blend,
			MinWidth:      z.MinWidth,
			MaxWidth:      z.MaxWidth,
			RetargetEvery: z.RetargetEvery,
		},
		Render: Render{Iterations: viewport.DefaultIterations},
		Loop:   Loop{FPS: 30, QuitAfter: 10},
		Audio:  Audio{Enabled: false, Volume: 0.5},
		Stream: Stream{Addr: ":8080"},
	}
}

// Load builds the configuration from path. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); err == nil {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return cfg, errors.Wrapf(err, "decode %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return cfg, errors.Wrapf(ErrInvalid, "%s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	} else if !os.IsNotExist(err) {
		return cfg, errors.Wrapf(err, "stat %s", path)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides settings from AUTOZOOM_* variables; unparsable values are ignored
func applyEnv(cfg *Config) {
	if v := os.Getenv("AUTOZOOM_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Screen.Width = n
		}
	}
	if v := os.Getenv("AUTOZOOM_HEIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Screen.Height = n
		}
	}
	if v := os.Getenv("AUTOZOOM_FPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Loop.FPS = n
		}
	}
	if v := os.Getenv("AUTOZOOM_SOUND"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Audio.Enabled = b
		}
	}
}

// Validate reports the first setting that cannot run
func (c Config) Validate() error {
	switch {
	case c.Screen.Width <= 0 || c.Screen.Height <= 0:
		return errors.Wrapf(ErrInvalid, "screen %dx%d must be positive", c.Screen.Width, c.Screen.Height)
	case !(c.View.Width > 0) || !(c.View.Height > 0):
		return errors.Wrapf(ErrInvalid, "view %gx%g must be positive", c.View.Width, c.View.Height)
	case !(c.Zoom.InFactor > 0 && c.Zoom.InFactor < 1):
		return errors.Wrapf(ErrInvalid, "zoom.in_factor %g must be in (0,1)", c.Zoom.InFactor)
	case !(c.Zoom.OutFactor > 1):
		return errors.Wrapf(ErrInvalid, "zoom.out_factor %g must be > 1", c.Zoom.OutFactor)
	case c.Zoom.Blend < 0 || c.Zoom.Blend > 1:
		return errors.Wrapf(ErrInvalid, "zoom.blend %g must be in [0,1]", c.Zoom.Blend)
	case !(c.Zoom.MinWidth > 0) || !(c.Zoom.MaxWidth > c.Zoom.MinWidth):
		return errors.Wrapf(ErrInvalid, "zoom bounds %g..%g", c.Zoom.MinWidth, c.Zoom.MaxWidth)
	case c.Zoom.RetargetEvery == 0:
		return errors.Wrap(ErrInvalid, "zoom.retarget_every must be positive")
	case c.Render.Iterations <= 0:
		return errors.Wrapf(ErrInvalid, "render.iterations %d must be positive", c.Render.Iterations)
	case c.Render.Workers < 0:
		return errors.Wrapf(ErrInvalid, "render.workers %d must not be negative", c.Render.Workers)
	case c.Loop.FPS <= 0 || c.Loop.FPS > 240:
		return errors.Wrapf(ErrInvalid, "loop.fps %d must be in 1..240", c.Loop.FPS)
	case c.Audio.Volume < 0 || c.Audio.Volume > 1:
		return errors.Wrapf(ErrInvalid, "audio.volume %g must be in [0,1]", c.Audio.Volume)
	}
	return nil
}

// Resolution returns the render resolution
func (c Config) Resolution() viewport.Resolution {
	return viewport.Resolution{W: c.Screen.Width, H: c.Screen.Height}
}

// NewView creates the initial view
func (c Config) NewView() (*viewport.View, error) {
	v, err := viewport.NewView(
		viewport.Point{X: c.View.CenterX, Y: c.View.CenterY},
		viewport.Size{W: c.View.Width, H: c.View.Height},
		c.Resolution(),
	)
	if err != nil {
		return nil, err
	}
	v.SetIterations(c.Render.Iterations)
	return v, nil
}

// ZoomConfig returns the controller tuning
func (c Config) ZoomConfig() zoom.Config {
	return zoom.Config{
		InFactor:      c.Zoom.InFactor,
		OutFactor:     c.Zoom.OutFactor,
		Blend:         c.Zoom.Blend,
		MinWidth:      c.Zoom.MinWidth,
		MaxWidth:      c.Zoom.MaxWidth,
		RetargetEvery: c.Zoom.RetargetEvery,
	}
}

// FrameInterval is the tick period
func (c Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Loop.FPS)
}
