package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/scottieai/collab-hub/host/internal/logger"
)

// StatusFunc reports per-component running state for the health endpoint.
type StatusFunc func() map[string]bool

// Server hosts the bridge endpoint and the UI's static assets on loopback.
type Server struct {
	server  *http.Server
	hub     *Hub
	bridge  *Bridge
	port    int
	status  StatusFunc
	mu      sync.RWMutex
	running bool
	logger  *logger.Logger
}

// ServerConfig contains configuration for the bridge server
type ServerConfig struct {
	Port   int
	UIDir  string
	Status StatusFunc
}

// NewServer creates the bridge server for the given bridge instance.
func NewServer(b *Bridge, cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}

	hub := NewHub(b)

	s := &Server{
		hub:    hub,
		bridge: b,
		port:   cfg.Port,
		status: cfg.Status,
		logger: logger.NewComponentLogger("BridgeServer"),
	}

	router := mux.NewRouter()
	router.HandleFunc("/bridge", hub.HandleWS)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if cfg.UIDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.UIDir)))
	}

	s.server = &http.Server{
		// Loopback only: the bridge must never be reachable from the network.
		Addr:         fmt.Sprintf("127.0.0.1:%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Hub returns the server's connection hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// URL returns the loopback URL the UI surface loads.
func (s *Server) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.port)
}

// Start begins serving the bridge
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("bridge server is already running")
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("Starting bridge server on 127.0.0.1:%d...", s.port)

	go s.hub.Run()

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Bridge server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the bridge server
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping bridge server...")

	s.hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown bridge server: %w", err)
	}

	return nil
}

// Name returns the component name
func (s *Server) Name() string {
	return "BridgeServer"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]bool{}
	if s.status != nil {
		components = s.status()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ok":         true,
		"clients":    s.hub.ClientCount(),
		"components": components,
	})
}
