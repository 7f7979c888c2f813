package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestShutdownContext_SignalCancels(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctx := shutdownContext(parent, quietLogger())

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled within 2 seconds of SIGTERM")
	}
}

func TestShutdownContext_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx := shutdownContext(parent, quietLogger())

	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled within 2 seconds of parent cancel")
	}
}

func TestWatchSignals_SecondSignalExits(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	exited := make(chan int, 1)
	forceExit = func(code int) { exited <- code }
	t.Cleanup(func() { forceExit = os.Exit })

	done := trackTransfer("downloading Report.docx")
	t.Cleanup(done)

	parent, cancelParent := context.WithCancel(context.Background())
	defer cancelParent()

	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 2)

	finished := make(chan struct{})
	go func() {
		watchSignals(parent, ctx, cancel, sigCh, logger)
		close(finished)
	}()

	sigCh <- syscall.SIGINT

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled after first signal")
	}

	sigCh <- syscall.SIGINT

	select {
	case code := <-exited:
		assert.Equal(t, exitInterrupted, code)
	case <-time.After(2 * time.Second):
		t.Fatal("no exit after second signal")
	}

	<-finished
	assert.Contains(t, buf.String(), `in_flight="downloading Report.docx"`)
}

func TestInFlightAttr_EmptyWhenIdle(t *testing.T) {
	done := trackTransfer("uploading notes.txt")
	assert.Equal(t, "uploading notes.txt", inFlightAttr().Value.String())

	done()
	assert.Equal(t, slog.KindGroup, inFlightAttr().Value.Kind())
}
