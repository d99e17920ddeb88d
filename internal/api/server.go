// Package api provides the HTTP server for SiteBot.
//
// It serves the chat widget socket, the booking administration endpoints,
// flow publishing, transcripts, health and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/BTreeMap/SiteBot/internal/booking"
	"github.com/BTreeMap/SiteBot/internal/store"
)

// Default server settings.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 10 * time.Second
	maxBodyBytes           = 1 << 20
)

// Opts holds configuration options for the API server.
type Opts struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithShutdownTimeout bounds graceful shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *Opts) { o.ShutdownTimeout = d }
}

// Dependencies holds the services the HTTP layer exposes.
type Dependencies struct {
	Store    store.Store
	Bookings *booking.Service
	Checker  *booking.Checker
	// Socket serves /ws. Nil disables the chat endpoint.
	Socket http.Handler
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server is the SiteBot HTTP server.
type Server struct {
	deps   Dependencies
	opts   Opts
	router chi.Router
}

// NewServer builds the router over deps.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr, ShutdownTimeout: DefaultShutdownTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Server{deps: deps, opts: cfg}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthHandler)
	if s.deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))
	}
	if s.deps.Socket != nil {
		r.Handle("/ws", s.deps.Socket)
	}

	r.Route("/bookings/{id}", func(r chi.Router) {
		r.Get("/", s.getBookingHandler)
		r.Patch("/", s.updateBookingHandler)
		r.Delete("/", s.deleteBookingHandler)
		r.Post("/confirm", s.confirmBookingHandler)
		r.Post("/cancel", s.cancelBookingHandler)
		r.Post("/complete", s.completeBookingHandler)
	})

	r.Get("/availability", s.availabilityHandler)
	r.Get("/availability/slots", s.timeSlotsHandler)

	r.Post("/flows/validate", s.validateFlowHandler)
	r.Put("/flows/{tenant}", s.publishFlowHandler)
	r.Get("/flows/{tenant}", s.getFlowHandler)

	r.Get("/transcripts/{chatID}", s.transcriptHandler)
	return r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", s.opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		slog.Error("API server failed", "error", err)
		return err
	case <-ctx.Done():
	}

	slog.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("API server shutdown failed", "error", err)
		return err
	}
	return nil
}
