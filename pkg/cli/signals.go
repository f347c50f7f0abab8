package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals are the signals that stop a running command.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// SetupSignalHandler returns a context derived from parent that is canceled
// on the first SIGINT or SIGTERM. A second signal exits the process
// immediately. The returned cancel stops signal delivery.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, ShutdownSignals...)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received shutdown signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigChan:
			slog.Warn("received second signal, exiting", "signal", sig.String())
			os.Exit(ExitFailure)
		case <-parent.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
