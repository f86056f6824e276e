// autozoom animates an endless zoom into the Mandelbrot set, picking its own targets
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/autozoom/audio"
	"github.com/lixenwraith/autozoom/config"
	"github.com/lixenwraith/autozoom/core"
	"github.com/lixenwraith/autozoom/display"
	"github.com/lixenwraith/autozoom/engine"
	"github.com/lixenwraith/autozoom/fractal"
	"github.com/lixenwraith/autozoom/target"
	"github.com/lixenwraith/autozoom/zoom"
)

// options are the flags shared by every command
type options struct {
	configPath string
	debug      bool
	seed       uint64
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "autozoom",
		Short: "Endless automatic Mandelbrot zoom in the terminal",
		Long: `autozoom renders the Mandelbrot set and keeps zooming toward the brightest
detail it finds, zooming back out once floating point precision runs low.
Any key or mouse input ends the demo after the first few frames.`,
		Example: `  # Animate in the terminal
  autozoom

  # Use a config file and log to logs/autozoom.log
  autozoom --config ./autozoom.toml --debug

  # Render 600 ticks headless and save the last frame
  autozoom snapshot --ticks 600 --out zoom.png`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTerminal(cmd.Context(), opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to TOML config")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().Uint64Var(&opts.seed, "seed", 0, "Seed for target tie-breaks (0 = random)")

	rootCmd.AddCommand(snapshotCmd(&opts), serveCmd(&opts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runTerminal animates on the terminal until interrupted
func runTerminal(ctx context.Context, opts options) error {
	if logFile := setupLogging(opts.debug); logFile != nil {
		defer logFile.Close()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	term, err := display.New()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	core.SetCrashTerminal(term.Screen())
	defer term.Close()
	// Panic Recovery: ensure terminal is reset even if the loop crashes
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()
	term.HUD = cfg.Loop.HUD

	loop, err := newLoop(cfg, opts.seed, term)
	if err != nil {
		return err
	}

	if cfg.Audio.Enabled {
		cleanup := attachChime(loop.Controller, cfg.Audio.Volume)
		defer cleanup()
	}

	log.Printf("resolution %dx%d, %d fps", cfg.Screen.Width, cfg.Screen.Height, cfg.Loop.FPS)
	err = loop.Run(ctx, cfg.FrameInterval(), term.Interrupts(ctx))
	log.Printf("stopped after %d ticks, %d renders", loop.Controller.Frames(), loop.View.Renders())
	return err
}

// newLoop wires view, renderer, selector and controller from cfg
func newLoop(cfg config.Config, seed uint64, presenters ...engine.Presenter) (*engine.Loop, error) {
	view, err := cfg.NewView()
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	loop := engine.NewLoop(view, cfg.ZoomConfig(), target.NewSelector(rng), fractal.NewRenderer(cfg.Render.Workers), presenters...)
	loop.QuitAfter = cfg.Loop.QuitAfter
	loop.Controller.OnModeChange = func(m zoom.Mode) {
		size := view.Size()
		log.Printf("tick %d: %s at width %.3e", loop.Controller.Frames(), m, size.W)
	}
	return loop, nil
}

// attachChime chains the audio chime onto the controller's mode callback.
// Audio failure is not fatal.
func attachChime(ctl *zoom.Controller, volume float64) func() {
	chime := audio.NewChime(volume)
	if err := chime.Initialize(); err != nil {
		log.Printf("Audio initialization failed: %v (continuing without audio)", err)
		return func() {}
	}

	prev := ctl.OnModeChange
	ctl.OnModeChange = func(m zoom.Mode) {
		if prev != nil {
			prev(m)
		}
		chime.OnModeChange(m)
	}
	return chime.Cleanup
}
