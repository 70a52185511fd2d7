// Command llmgateway runs the reverse-proxy HTTP server: it loads
// configuration, wires the response pipeline (ADR C6) against a
// process-local credential pool and queue, and serves the six inbound
// dialect routes until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coralmesh/llmgateway/internal/config"
	"github.com/coralmesh/llmgateway/internal/log"
	"github.com/coralmesh/llmgateway/internal/server"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "version" || os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println("llmgateway (dev build)")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error(context.Background(), "server run error", log.Cause(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down")

		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error(context.Background(), "server shutdown error", log.Cause(err))
			os.Exit(1)
		}
	}
}
