// Command wawona runs the compositor: it binds the display socket, wires
// every component handler, and serves clients until interrupted.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/wawona-wm/wawona/compositor"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg := compositor.DefaultConfig()
	if name := os.Getenv("WAYLAND_DISPLAY"); name != "" {
		cfg.DisplayName = name
	}

	comp, err := compositor.New(log, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start compositor")
	}
	defer comp.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutting down")
		comp.Stop()
	}()

	log.Info().Str("socket", comp.SocketPath()).Msg("listening")
	if err := comp.Run(); err != nil {
		log.Fatal().Err(err).Msg("compositor run loop exited with error")
	}
}
