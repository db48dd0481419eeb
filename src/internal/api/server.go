package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/maksimkurb/geoip-allow/src/internal/allowlist"
	"github.com/maksimkurb/geoip-allow/src/internal/config"
	"github.com/maksimkurb/geoip-allow/src/internal/log"
)

// Server represents the API server
type Server struct {
	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(bindAddr string, builder *allowlist.Builder, configHasher *config.ConfigHasher, version VersionInfo) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:        bindAddr,
			Handler:     NewRouter(builder, configHasher, version),
			ReadTimeout: 15 * time.Second,
			// Builds fetch every source before responding.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the API server and blocks until it stops
func (s *Server) Start() error {
	log.Infof("[API] Starting server on %s", s.httpServer.Addr)
	log.Infof("[API] Example: curl http://%s/api/v1/status", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop gracefully stops the API server
func (s *Server) Stop(ctx context.Context) error {
	log.Infof("[API] Shutting down server...")
	return s.httpServer.Shutdown(ctx)
}
