package cli

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"
)

func TestSetupSignalHandler(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background())
	defer stop()

	select {
	case <-ctx.Done():
		t.Error("Context should not be cancelled initially")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestSetupSignalHandlerStop(t *testing.T) {
	ctx, stop := SetupSignalHandler(context.Background())
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("stop should cancel the context")
	}
}

func TestSetupSignalHandlerParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SetupSignalHandler(parent)
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("parent cancellation should propagate")
	}
}

func TestSetupSignalHandlerReceivesSignal(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping signal test in short mode")
	}

	ctx, stop := SetupSignalHandler(context.Background())
	defer stop()

	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Signal(syscall.SIGTERM); err != nil {
		t.Skipf("cannot signal own process: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}
