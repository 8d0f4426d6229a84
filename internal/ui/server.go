// Package ui provides the web UI and lineage mapping endpoint.
package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/traceforge/sqltrace/internal/lineage"
	"golang.org/x/sync/errgroup"
)

// Server is the lineage UI server.
type Server struct {
	host   string
	port   int
	opts   lineage.Options
	logger *slog.Logger
}

// Config holds configuration for the UI server.
type Config struct {
	Host        string
	Port        int
	KeepOrphans bool
	Logger      *slog.Logger
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		host:   cfg.Host,
		port:   cfg.Port,
		opts:   lineage.Options{KeepOrphans: cfg.KeepOrphans},
		logger: logger,
	}
}

// Routes returns the HTTP handler for the server.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", s.indexHandler)
	r.Post("/map", s.mapHandler)
	r.Get("/healthz", s.healthzHandler)

	return r
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info("starting lineage server", "addr", fmt.Sprintf("http://%s", addr))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down lineage server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
