package http

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AutoCookies/pomai-guard/internal/adapter/http/handlers"
)

func (s *Server) setupRoutes() {
	h := handlers.NewHTTPHandlers(s.manager)
	api := s.router.PathPrefix("/v1").Subrouter()

	// --- CACHE ROUTES ---
	api.HandleFunc("/cache/{key}", h.HandlePut).Methods("PUT")
	api.HandleFunc("/cache/{key}", h.HandleGet).Methods("GET")
	api.HandleFunc("/cache/{key}", h.HandleDelete).Methods("DELETE")
	api.HandleFunc("/cache/{key}/ttl", h.HandleTTL).Methods("GET")
	api.HandleFunc("/cache", h.HandleClear).Methods("DELETE")

	// --- SYSTEM ROUTES ---
	api.HandleFunc("/stats", h.HandleStats).Methods("GET")
	api.HandleFunc("/memory", h.HandleMemory).Methods("GET")
	api.HandleFunc("/optimize", h.HandleOptimize).Methods("POST")

	// Health check
	s.router.HandleFunc("/health", h.HandleHealth).Methods("GET")

	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}
