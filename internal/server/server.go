package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/audiolooplab/echonote/internal/config"
	"github.com/audiolooplab/echonote/internal/service"
	"github.com/audiolooplab/echonote/internal/session"
)

// Server is the HTTP control surface for the engine. Every endpoint is
// a thin wrapper over the service; the state machine itself stays in
// the session package.
type Server struct {
	svc  *service.EchoNoteService
	cfg  *config.Config
	mux  *http.ServeMux
	log  *slog.Logger
	http *http.Server
}

// SuccessResponse is the JSON envelope for mutating endpoints.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// New builds a server around an existing service.
func New(svc *service.EchoNoteService, cfg *config.Config, log *slog.Logger) *Server {
	s := &Server{
		svc: svc,
		cfg: cfg,
		mux: http.NewServeMux(),
		log: log,
	}

	s.mux.HandleFunc("/api/start", s.handleStart)
	s.mux.HandleFunc("/api/stop", s.handleStopAndPlay)
	s.mux.HandleFunc("/api/play", s.handlePlay)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/devices", s.handleDevices)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.HandlerFor(svc.Registry(), promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the route table.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start blocks serving HTTP until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server", "address", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops the listener without waiting for in-flight audio.
func (s *Server) Shutdown() error {
	return s.http.Close()
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	s.log.Info("Server: start recording requested")
	if err := s.svc.Start(); err != nil {
		s.sendError(w, statusFor(err), fmt.Sprintf("Failed to start recording: %v", err))
		return
	}
	s.sendSuccess(w, "Recording started")
}

func (s *Server) handleStopAndPlay(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	s.log.Info("Server: stop and play requested")
	if err := s.svc.StopAndPlay(); err != nil {
		s.sendError(w, statusFor(err), fmt.Sprintf("Failed to stop recording: %v", err))
		return
	}
	s.sendSuccess(w, "Recording stopped, playback started")
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	s.log.Info("Server: playback requested")
	if err := s.svc.Play(); err != nil {
		s.sendError(w, statusFor(err), fmt.Sprintf("Failed to start playback: %v", err))
		return
	}
	s.sendSuccess(w, "Playback started")
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.svc.Status())
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.svc.Devices()
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list devices: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(devices)
}

// handleEvents long-polls the controller event channel: it returns the
// next event, or an empty object when the client deadline is closer
// than the poll window.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	select {
	case ev, ok := <-s.svc.Events():
		if !ok {
			json.NewEncoder(w).Encode(map[string]string{})
			return
		}
		json.NewEncoder(w).Encode(map[string]session.Event{"event": ev})
	case <-time.After(25 * time.Second):
		json.NewEncoder(w).Encode(map[string]string{})
	case <-r.Context().Done():
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"state":  string(s.svc.Status().State),
	})
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		json.NewEncoder(w).Encode(SuccessResponse{Success: false, Error: "Method not allowed"})
		return false
	}
	return true
}

// statusFor maps controller errors to HTTP codes: conflicting state
// transitions are the caller's problem, everything else is ours.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrPermissionRequired):
		return http.StatusForbidden
	case errors.Is(err, session.ErrFileUnavailable):
		return http.StatusInternalServerError
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) sendSuccess(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SuccessResponse{Success: true, Message: message})
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	s.log.Error("Server: request failed", "status", code, "error", message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(SuccessResponse{Success: false, Error: message})
}
