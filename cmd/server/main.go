package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/creedthoughtstrivia/OfficeTrivia-enhanced/internal/config"
	"github.com/creedthoughtstrivia/OfficeTrivia-enhanced/internal/server"
)

func main() {
	// Serve the directory the binary lives in, whatever the caller's cwd.
	root, err := config.ResolveRoot()
	if err != nil {
		log.Fatalf("Error resolving server root: %v", err)
	}
	if err := os.Chdir(root); err != nil {
		log.Fatalf("Error changing to server root %s: %v", root, err)
	}

	// The first Ctrl+C (or SIGTERM) starts a graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		// Hand the signals back to the runtime so a second Ctrl+C during
		// the shutdown grace period kills the process outright.
		stop()
	}()

	err = run(ctx, root, log.Default())
	stop()
	if err != nil {
		// Bind failures (port in use) and bad config end up here: exit 1.
		log.Fatalf("Error starting server: %v", err)
	}
	// Returning from main after a clean shutdown exits 0.
}

// run serves root until ctx is cancelled. Only start-up and shutdown lines
// go to logger; requests are never logged.
func run(ctx context.Context, root string, logger *log.Logger) error {
	cfg, err := config.Load(root)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	// Bind before announcing anything, so a taken port fails fast.
	if err := srv.Listen(); err != nil {
		return err
	}

	logger.Printf("Serving Creed Thoughts trivia at http://localhost:%d/", srv.Port())
	logger.Println("Press Ctrl+C to stop.")

	// Blocks until ctx is cancelled by an interrupt.
	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("serving: %w", err)
	}

	logger.Println("Server stopped")
	return nil
}
