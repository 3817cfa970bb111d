package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Start runs the distributor and the HTTP server, then blocks until an
// interrupt or terminate signal arrives and shuts everything down.
func (s *Server) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Distributor.Start(ctx); err != nil {
		// This process will accept sends but never fan out locally until
		// restarted; other processes are unaffected.
		slog.Error("Distributor failed to start", "error", err)
	}

	go func() {
		if err := s.E.Start(s.Cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
			s.E.Logger.Fatalf("shutting down the server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	if err := s.subscriber.Close(); err != nil {
		slog.Error("Failed to close subscriber", "error", err)
	}
	// The channel and kafka bridges serve both roles with one value; avoid
	// closing the same backend twice.
	if any(s.publisher) != any(s.subscriber) {
		if err := s.publisher.Close(); err != nil {
			slog.Error("Failed to close publisher", "error", err)
		}
	}
	if s.db != nil {
		s.db.Close(shutdownCtx)
	}
	if err := s.E.Shutdown(shutdownCtx); err != nil {
		s.E.Logger.Fatal(err)
	}
}
