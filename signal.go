package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// exitInterrupted is the conventional status for a process stopped by SIGINT.
const exitInterrupted = 130

// forceExit ends the process on a second signal. Tests replace it.
var forceExit = os.Exit

// inFlight names the transfer the running command is busy with, so an
// interrupt can say what it cut short.
var inFlight atomic.Value

// trackTransfer records what as the in-flight transfer until the returned
// func is called.
func trackTransfer(what string) func() {
	inFlight.Store(what)

	return func() { inFlight.Store("") }
}

func inFlightAttr() slog.Attr {
	what, _ := inFlight.Load().(string)
	if what == "" {
		return slog.Group("")
	}

	return slog.String("in_flight", what)
}

// shutdownContext returns a context that is canceled on the first SIGINT or
// SIGTERM. A canceled download removes its .partial file. A second signal
// exits at once and may leave the partial behind.
func shutdownContext(parent context.Context, logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)
		watchSignals(parent, ctx, cancel, sigCh, logger)
	}()

	return ctx
}

func watchSignals(
	parent, ctx context.Context, cancel context.CancelFunc, sigCh <-chan os.Signal, logger *slog.Logger,
) {
	select {
	case sig := <-sigCh:
		logger.Warn("interrupted, canceling command",
			slog.String("signal", sig.String()),
			inFlightAttr(),
		)
		cancel()
	case <-ctx.Done():
		return
	}

	select {
	case sig := <-sigCh:
		logger.Warn("interrupted again, exiting",
			slog.String("signal", sig.String()),
			inFlightAttr(),
		)
		forceExit(exitInterrupted)
	case <-parent.Done():
	}
}
