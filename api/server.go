package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
	"github.com/wricardo/mcp-training/minesweeper/transport/websocket"
)

var log = logrus.WithField("component", "api")

// Broadcaster pushes board updates to watching clients
type Broadcaster interface {
	BroadcastToSession(sessionID string, view *engine.GameView)
	BroadcastEvent(sessionID string, event string, data interface{})
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string)
}

var _ Broadcaster = (*websocket.Hub)(nil)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     Broadcaster
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil.
func NewServer(gameService service.GameService, hub Broadcaster) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameView).Methods("GET")
	api.HandleFunc("/sessions/{id}/reveal", s.handleReveal).Methods("POST")
	api.HandleFunc("/sessions/{id}/flag", s.handleFlag).Methods("POST")
	api.HandleFunc("/sessions/{id}/bulk", s.handleBulk).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Configuration
	api.HandleFunc("/defaults", s.handleDefaults).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the mux so main can mount extra handlers
func (s *Server) Router() *mux.Router {
	return s.router
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto status codes
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case service.IsClientError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) broadcast(sessionID string, view *engine.GameView) {
	if s.hub != nil && view != nil {
		s.hub.BroadcastToSession(sessionID, view)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var opts service.NewGameOptions

	// An empty body selects the defaults
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	session, err := s.service.CreateSession(r.Context(), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort") // "created", "accessed" (default)
	order := query.Get("order") // "asc", "desc" (default)

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l < len(sessions) {
		sessions = sessions[:l]
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameView(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := s.service.GetGameView(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// cellRequest addresses a cell by index or by row and column
type cellRequest struct {
	Index *int `json:"index,omitempty"`
	Row   *int `json:"row,omitempty"`
	Col   *int `json:"col,omitempty"`
}

// resolve returns the cell index; row/col need the board size
func (c cellRequest) resolve(size int) (int, error) {
	if c.Index != nil {
		return *c.Index, nil
	}
	if c.Row != nil && c.Col != nil {
		if *c.Row < 0 || *c.Row >= size || *c.Col < 0 || *c.Col >= size {
			return 0, fmt.Errorf("%w: (%d,%d) outside %dx%d board", engine.ErrIndexOutOfRange, *c.Row, *c.Col, size, size)
		}
		return engine.IndexOf(*c.Row, *c.Col, size), nil
	}
	return 0, errors.New("index or row and col required")
}

func (s *Server) decodeCell(w http.ResponseWriter, r *http.Request, sessionID string) (int, bool) {
	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return 0, false
	}

	size := 0
	if req.Index == nil {
		view, err := s.service.GetGameView(r.Context(), sessionID)
		if err != nil {
			respondServiceError(w, err)
			return 0, false
		}
		size = view.Size
	}

	index, err := req.resolve(size)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return index, true
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	index, ok := s.decodeCell(w, r, sessionID)
	if !ok {
		return
	}

	result, err := s.service.Reveal(r.Context(), sessionID, index)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.Game)

	log.WithFields(logrus.Fields{
		"session":  sessionID,
		"index":    index,
		"revealed": len(result.Revealed),
		"status":   result.Game.Status,
	}).Info("reveal")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	index, ok := s.decodeCell(w, r, sessionID)
	if !ok {
		return
	}

	result, err := s.service.ToggleFlag(r.Context(), sessionID, index)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.Game)

	log.WithFields(logrus.Fields{
		"session": sessionID,
		"index":   index,
		"changed": result.Success,
		"flags":   result.Game.FlagsPlaced,
	}).Info("flag")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Actions []engine.Action `json:"actions"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.BulkAction(r.Context(), sessionID, req.Actions)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, result.Game)

	log.WithFields(logrus.Fields{
		"session":  sessionID,
		"executed": result.ActionsExecuted,
		"of":       result.RequestedActions,
		"stop":     result.StopReasonCode,
		"status":   result.Game.Status,
	}).Info("bulk")

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	view, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	event := service.GameEvent{
		Type:      service.EventReset,
		Message:   fmt.Sprintf("New %dx%d board with %d mines", view.Size, view.Size, view.MineCount),
		Timestamp: time.Now(),
		Index:     -1,
	}

	s.broadcast(sessionID, view)
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, service.EventReset, event)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"game":    view,
		"event":   event,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		opts.Page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 {
		opts.Limit = l
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetActionHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Configuration Handlers

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	defaults, err := s.service.Defaults(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, defaults)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if s.hub == nil {
		http.Error(w, "WebSocket updates disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
