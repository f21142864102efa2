// Package api exposes the subscription workflows over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/newsletter/internal/config"
	"github.com/ignite/newsletter/internal/subscription"
)

// Server is the HTTP front of the newsletter service. Each request is
// handled on its own goroutine; all shared state lives behind the
// subscription service's database pool.
type Server struct {
	cfg     config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer builds a server around the subscription service.
func NewServer(cfg config.ServerConfig, svc *subscription.Service) *Server {
	return &Server{
		cfg:     cfg,
		handler: SetupRoutes(NewHandlers(svc)),
	}
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, letting in-flight workflows finish.
// Aborted requests roll their open transactions back through the request
// context.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
