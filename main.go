package main

import (
	"context"
	"log/slog"
	"os"
)

func main() {
	bootstrap := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	ctx, cancel := context.WithCancel(context.Background())
	err := newRootCmd().ExecuteContext(shutdownContext(ctx, bootstrap))

	cancel()

	if err != nil {
		exitOnError(err)
	}
}
