package main

import (
	"context"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/autozoom/config"
)

func snapshotCmd(opts *options) *cobra.Command {
	var (
		ticks int
		out   string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run the zoom headless and save the final frame as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupHeadlessLogging(opts.debug)

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()

			if err := snapshot(cmd.Context(), cfg, opts.seed, ticks, f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved frame after %d ticks to %q\n", ticks, out)
			return nil
		},
	}

	cmd.Flags().IntVarP(&ticks, "ticks", "n", 600, "Number of ticks to run")
	cmd.Flags().StringVarP(&out, "out", "o", "autozoom.png", "Output PNG path")
	return cmd
}

// snapshot runs ticks steps, drawing each one, and encodes the last frame to w
func snapshot(ctx context.Context, cfg config.Config, seed uint64, ticks int, w io.Writer) error {
	if ticks < 0 {
		return errors.Errorf("ticks %d must not be negative", ticks)
	}

	loop, err := newLoop(cfg, seed)
	if err != nil {
		return err
	}

	if err := loop.Draw(ctx); err != nil {
		return errors.Wrap(err, "initial frame")
	}
	for i := 0; i < ticks; i++ {
		if err := loop.Step(ctx); err != nil {
			return errors.Wrapf(err, "tick %d", i+1)
		}
	}

	st := loop.Status()
	log.Printf("snapshot: %s at center (%g, %g) width %.3e after %d renders",
		st.Mode, st.Center.X, st.Center.Y, st.Size.W, st.Renders)

	if err := png.Encode(w, loop.View.Frame()); err != nil {
		return errors.Wrap(err, "encode PNG")
	}
	return nil
}

// setupHeadlessLogging logs to stderr with debug and discards otherwise
func setupHeadlessLogging(debug bool) {
	if debug {
		log.SetOutput(os.Stderr)
		return
	}
	log.SetOutput(io.Discard)
}
