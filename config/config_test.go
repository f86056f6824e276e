package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/autozoom/viewport"
	"github.com/lixenwraith/autozoom/zoom"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autozoom.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, viewport.Resolution{W: 640, H: 360}, cfg.Resolution())
	assert.Equal(t, zoom.DefaultConfig(), cfg.ZoomConfig())
	assert.Equal(t, viewport.DefaultIterations, cfg.Render.Iterations)
	assert.Equal(t, uint64(10), cfg.Loop.QuitAfter)
	assert.False(t, cfg.Audio.Enabled)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[screen]
width = 1920
height = 1080

[view]
center_x = -0.5
width = 3.2
height = 1.8

[zoom]
retarget_every = 60

[loop]
fps = 60
hud = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, viewport.Resolution{W: 1920, H: 1080}, cfg.Resolution())
	assert.Equal(t, -0.5, cfg.View.CenterX)
	assert.Equal(t, 3.2, cfg.View.Width)
	assert.Equal(t, uint64(60), cfg.Zoom.RetargetEvery)
	// Unset keys keep defaults
	assert.Equal(t, 0.99, cfg.Zoom.InFactor)
	assert.Equal(t, 60, cfg.Loop.FPS)
	assert.True(t, cfg.Loop.HUD)
	assert.Equal(t, time.Second/60, cfg.FrameInterval())
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, "[screen]\nwidht = 10\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "screen.widht")
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "[screen\nwidth = ")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("AUTOZOOM_WIDTH", "320")
	t.Setenv("AUTOZOOM_HEIGHT", "200")
	t.Setenv("AUTOZOOM_SOUND", "true")
	t.Setenv("AUTOZOOM_FPS", "not-a-number")

	path := writeConfig(t, "[screen]\nwidth = 1000\nheight = 1000\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, viewport.Resolution{W: 320, H: 200}, cfg.Resolution())
	assert.True(t, cfg.Audio.Enabled)
	assert.Equal(t, 30, cfg.Loop.FPS)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"screen":     func(c *Config) { c.Screen.Height = 0 },
		"view":       func(c *Config) { c.View.Width = -1 },
		"in factor":  func(c *Config) { c.Zoom.InFactor = 1 },
		"out factor": func(c *Config) { c.Zoom.OutFactor = 0.5 },
		"blend":      func(c *Config) { c.Zoom.Blend = 1.5 },
		"bounds":     func(c *Config) { c.Zoom.MaxWidth = c.Zoom.MinWidth },
		"retarget":   func(c *Config) { c.Zoom.RetargetEvery = 0 },
		"iterations": func(c *Config) { c.Render.Iterations = 0 },
		"workers":    func(c *Config) { c.Render.Workers = -1 },
		"fps":        func(c *Config) { c.Loop.FPS = 0 },
		"volume":     func(c *Config) { c.Audio.Volume = 2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestNewView(t *testing.T) {
	cfg := Default()
	cfg.Render.Iterations = 512

	v, err := cfg.NewView()
	require.NoError(t, err)
	assert.Equal(t, viewport.Size{W: 6.4, H: 3.6}, v.Size())
	assert.Equal(t, 512, v.Params().Iterations)
	assert.Nil(t, v.Frame())
}
