package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/autozoom/config"
	"github.com/lixenwraith/autozoom/stream"
)

func serveCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the zoom headless and stream frames as PNG over websocket at /ws",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupHeadlessLogging(opts.debug)

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Stream.Addr = addr
			}

			return serve(cmd.Context(), cfg, opts.seed, func(a string) {
				fmt.Fprintf(cmd.OutOrStdout(), "streaming on ws://localhost%s/ws\n", a)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}

// serve animates headless until ctx ends, broadcasting every frame
func serve(ctx context.Context, cfg config.Config, seed uint64, listening func(addr string)) error {
	hub := stream.NewHub()
	loop, err := newLoop(cfg, seed, hub)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := hub.Server(ctx, cfg.Stream.Addr)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()
	listening(cfg.Stream.Addr)

	// A listener failure ends the loop
	var listenErr error
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case err := <-serveErr:
			if !errors.Is(err, http.ErrServerClosed) {
				listenErr = err
				cancel()
			}
		case <-ctx.Done():
		}
	}()

	runErr := loop.Run(ctx, cfg.FrameInterval(), nil)

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("stream shutdown: %v", err)
	}
	cancel()
	<-watchDone

	if runErr != nil {
		return runErr
	}
	if listenErr != nil {
		return fmt.Errorf("stream server: %w", listenErr)
	}
	return nil
}
