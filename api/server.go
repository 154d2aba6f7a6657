package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/wricardo/mcp-training/gridplanner/game/engine"
	"github.com/wricardo/mcp-training/gridplanner/game/service"
	"github.com/wricardo/mcp-training/gridplanner/transport/websocket"
)

// maxBodyBytes bounds request bodies; inline maps are small.
const maxBodyBytes = 1 << 20

// Server represents the REST API server
type Server struct {
	service service.SolverService
	hub     *websocket.Hub
	router  *mux.Router
	version string
}

// NewServer creates a new API server. hub may be nil.
func NewServer(solver service.SolverService, hub *websocket.Hub) *Server {
	s := &Server{
		service: solver,
		hub:     hub,
		router:  mux.NewRouter(),
		version: "dev",
	}

	s.setupRoutes()
	return s
}

// SetVersion sets the version reported by the health endpoint
func (s *Server) SetVersion(version string) {
	s.version = version
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Planning
	api.HandleFunc("/solve", s.handleSolve).Methods("POST")

	// Levels
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels", s.handleSaveLevel).Methods("POST")
	api.HandleFunc("/levels/{name}", s.handleGetLevel).Methods("GET")
	api.HandleFunc("/levels/{name}/solve", s.handleSolveLevel).Methods("POST")

	// Run history
	api.HandleFunc("/runs", s.handleListRuns).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
	api.HandleFunc("/runs/{id}", s.handleDeleteRun).Methods("DELETE")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps service errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrInvalidLevel):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrLevelNotFound), errors.Is(err, service.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, errorStatus(err), err.Error())
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// Planning handlers

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req service.SolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.solve(w, r, req)
}

func (s *Server) handleSolveLevel(w http.ResponseWriter, r *http.Request) {
	var req service.SolveRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Level = trimLevelExt(mux.Vars(r)["name"])
	req.Layout = nil
	s.solve(w, r, req)
}

func (s *Server) solve(w http.ResponseWriter, r *http.Request, req service.SolveRequest) {
	result, err := s.service.Solve(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Subscribers watch level IDs, not display names
	if s.hub != nil {
		key := req.Level
		if key == "" {
			key = result.Level
		}
		s.hub.BroadcastView(key, result.RunID, string(result.Status), result.Message, result.View)
	}

	log.Printf("[SOLVE] level=%s variant=%s status=%s states=%d explored=%d",
		result.Level, result.Variant, result.Status, result.Stats.States, result.Explored)

	respondJSON(w, http.StatusOK, result)
}

// Level handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if v := r.URL.Query().Get("variant"); v != "" {
		variant, err := engine.ParseVariant(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		filtered := make([]*service.LevelInfo, 0, len(levels))
		for _, l := range levels {
			if l.Variant == variant {
				filtered = append(filtered, l)
			}
		}
		levels = filtered
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(levels),
		"levels": levels,
	})
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	name := trimLevelExt(mux.Vars(r)["name"])

	level, err := s.service.GetLevel(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, level)
}

func (s *Server) handleSaveLevel(w http.ResponseWriter, r *http.Request) {
	var level engine.LevelConfig
	if err := decodeBody(w, r, &level); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		id = level.Name
	}
	if id == "" {
		respondError(w, http.StatusBadRequest, "Level name is required")
		return
	}

	if err := s.service.SaveLevel(r.Context(), id, &level); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Level saved successfully",
		"level_id": id,
	})
}

// Run handlers

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	if level := query.Get("level"); level != "" {
		runs = filterRuns(runs, func(run *service.Run) bool { return run.Level == level })
	}
	if status := query.Get("status"); status != "" {
		runs = filterRuns(runs, func(run *service.Run) bool { return string(run.Status) == status })
	}

	total := len(runs)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(runs) {
			runs = runs[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(runs),
		"total": total,
		"runs":  runs,
	})
}

func filterRuns(runs []*service.Run, keep func(*service.Run) bool) []*service.Run {
	out := make([]*service.Run, 0, len(runs))
	for _, run := range runs {
		if keep(run) {
			out = append(out, run)
		}
	}
	return out
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.service.GetRun(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.service.DeleteRun(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Run %s deleted", id),
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	level := r.URL.Query().Get("level")
	if level == "" {
		http.Error(w, "level parameter required", http.StatusBadRequest)
		return
	}

	if _, err := s.service.GetLevel(r.Context(), level); err != nil {
		http.Error(w, "Unknown level", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, level)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

func trimLevelExt(name string) string {
	for _, ext := range []string{".json", ".txt"} {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}
