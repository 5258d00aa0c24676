package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignal is the cancel cause of a context canceled by WithSignal.
type ShutdownSignal struct {
	Signal os.Signal
}

func (s ShutdownSignal) Error() string {
	return fmt.Sprintf("received signal %s", s.Signal)
}

// WithSignal returns a context canceled on SIGINT or SIGTERM with a
// ShutdownSignal cause. stop releases the signal handler and cancels ctx.
func WithSignal(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			cancel(ShutdownSignal{Signal: sig})
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel(context.Canceled)
	}
}
