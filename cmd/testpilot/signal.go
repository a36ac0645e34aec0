package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flashingpumpkin/testpilot/internal/logging"
)

// setupSignalHandler derives a context from parent that is cancelled when
// SIGINT or SIGTERM is received. A second signal exits immediately.
//
// While the console runs, the terminal is in raw mode and ctrl+c arrives as
// a key press instead, so in practice this only sees external signals.
func setupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			log := logging.Component("cli")
			log.Info().Str("signal", sig.String()).Msg("shutting down")
			cancel()
		case <-ctx.Done():
			return
		}

		<-sigChan
		fmt.Fprintln(os.Stderr, "\nForce exit")
		os.Exit(130)
	}()

	return ctx, cancel
}
