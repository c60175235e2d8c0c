// Package server provides the operator HTTP server for the GripStream
// climbing wall system.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/anvith/gripstream/internal/server/api"
	"github.com/anvith/gripstream/internal/session"
	"github.com/anvith/gripstream/internal/store"
)

// SessionSource exposes the running pipeline to HTTP handlers. All
// methods must be safe for concurrent use.
type SessionSource interface {
	SessionID() string
	Snapshot() session.Snapshot
	IsEnabled() bool
	SetEnabled(enabled bool)
	ResetHolds()
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Session   SessionSource
}

// Server represents the operator HTTP server.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// Register calibration API handler if Store is configured
	if s.config.Store != nil {
		calibrationHandler := api.NewCalibrationHandler(s.config.Store)
		s.mux.Handle("/api/calibrations", calibrationHandler)
		s.mux.Handle("/api/calibrations/", calibrationHandler)
	}

	// Register session endpoints if a pipeline is attached
	if s.config.Session != nil {
		s.mux.HandleFunc("/api/session", s.handleSession)
		s.mux.HandleFunc("/api/session/reset", s.handleSessionReset)
		s.mux.HandleFunc("/api/session/enabled", s.handleSessionEnabled)

		liveHandler := NewLiveHandler(s.config.Session)
		s.mux.Handle("/api/live", liveHandler)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	writeJSON(w, http.StatusOK, response)
}

// handleSession handles GET requests to /api/session and returns the
// current session snapshot.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"sessionId": s.config.Session.SessionID(),
		"enabled":   s.config.Session.IsEnabled(),
		"session":   s.config.Session.Snapshot().Session,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleSessionReset handles POST requests to /api/session/reset and
// returns every hold to untouched.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.config.Session.ResetHolds()
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionEnabled handles PUT requests to /api/session/enabled
// and pauses or resumes pose processing.
func (s *Server) handleSessionEnabled(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	s.config.Session.SetEnabled(req.Enabled)
	writeJSON(w, http.StatusOK, map[string]interface{}{"enabled": req.Enabled})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
