package graceful

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Context creates a context that is canceled when SIGINT or SIGTERM is received.
func Context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			log.Println("Received termination signal, starting graceful shutdown...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Shutdowner is satisfied by *http.Server.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// Shutdown waits for ctx to end, then gives srv up to timeout to drain.
func Shutdown(ctx context.Context, srv Shutdowner, timeout time.Duration) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	log.Printf("Shutting down, waiting up to %s for open requests...", timeout)
	return srv.Shutdown(shutdownCtx)
}
