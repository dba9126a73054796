// Package apiserver provides the HTTP scaffolding shared by every service's
// REST surface: the Server type (mux + metrics + standard middleware
// chain), request/response helpers, and common field validators. Each
// service package (linkdbapi, slicemanapi, ctrlapi) builds its own Server
// on top of this one and registers its own domain routes on its Mux.
package apiserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/observability"
)

// Options holds the HTTP server timeouts common to every service.
type Options struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the generic HTTP scaffold every service's API builds on: a mux
// routes are registered against, request metrics, and the standard
// middleware chain.
type Server struct {
	httpServer *http.Server
	Mux        *http.ServeMux
	Metrics    *observability.Metrics
	opts       Options
	name       string
}

// New returns a Server named name (used in log lines) with opts applied.
// The caller registers routes on Mux before the first ListenAndServe call.
func New(name string, opts Options) *Server {
	s := &Server{
		Mux:     http.NewServeMux(),
		Metrics: observability.NewMetrics(),
		opts:    opts,
		name:    name,
	}
	s.httpServer = &http.Server{
		Handler:      s.ApplyStandard(s.Mux),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}
	return s
}

// ListenAndServe starts the HTTP server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer.Addr = addr
	log.Printf("%s API server listening on %s", s.name, addr)
	return s.httpServer.ListenAndServe()
}

// GracefulShutdown drains in-flight requests and closes the listener.
func (s *Server) GracefulShutdown(ctx context.Context) error {
	log.Printf("%s API server shutting down", s.name)
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the root http.Handler, useful for httptest.NewServer in
// tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
