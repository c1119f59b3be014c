package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/AutoCookies/pomai-guard/internal/engine"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	EnableCORS   bool
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// Server exposes the resource manager over HTTP.
type Server struct {
	manager *engine.Manager
	config  ServerConfig
	router  *mux.Router
	srv     *http.Server
}

func NewServer(manager *engine.Manager) *Server {
	return NewServerWithConfig(manager, DefaultServerConfig())
}

func NewServerWithConfig(manager *engine.Manager, config ServerConfig) *Server {
	s := &Server{
		manager: manager,
		config:  config,
		router:  mux.NewRouter(),
	}
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      s.Router(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

func (s *Server) Router() http.Handler {
	if s.config.EnableCORS {
		return CorsMiddleware(s.router)
	}
	return s.router
}

func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
