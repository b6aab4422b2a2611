package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/wricardo/mcp-training/polytile/game/config"
	"github.com/wricardo/mcp-training/polytile/game/engine"
	"github.com/wricardo/mcp-training/polytile/game/service"
	"github.com/wricardo/mcp-training/polytile/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server. hub may be nil, in which case no
// live updates are pushed.
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
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

	// Board state
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Board operations
	api.HandleFunc("/sessions/{id}/place", s.handlePlace).Methods("POST")
	api.HandleFunc("/sessions/{id}/check", s.handleCheckPlacement).Methods("POST")
	api.HandleFunc("/sessions/{id}/placements/{instance}", s.handleRemove).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/placements/{instance}/pickup", s.handlePickUp).Methods("POST")
	api.HandleFunc("/sessions/{id}/placements/{instance}/move", s.handleRelocate).Methods("POST")

	// Tray operations
	api.HandleFunc("/sessions/{id}/tray/{piece}/rotate", s.handleRotate).Methods("POST")
	api.HandleFunc("/sessions/{id}/tray/{piece}/flip", s.handleFlip).Methods("POST")

	// Puzzle flow
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/next", s.handleNextPuzzle).Methods("POST")

	// Catalog
	api.HandleFunc("/puzzles", s.handleListPuzzles).Methods("GET")
	api.HandleFunc("/puzzles", s.handleCreatePuzzle).Methods("POST")
	api.HandleFunc("/puzzles/{id}", s.handleGetPuzzle).Methods("GET")
	api.HandleFunc("/pieces", s.handleListPieces).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
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
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service error onto an HTTP status
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrPuzzleNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, config.ErrInvalidPuzzle),
		errors.Is(err, engine.ErrInvalidPuzzle):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodePlaceRequest reads a placement body. The piece id is optional for
// moves, where the instance already determines it.
func decodePlaceRequest(r *http.Request, requirePiece bool) (service.PlaceRequest, error) {
	var req service.PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.New("Invalid request body")
	}
	if requirePiece && req.PieceID == "" {
		return req, errors.New("piece_id is required")
	}
	return req, nil
}

func (s *Server) broadcast(sessionID string, state *engine.GameState) {
	if s.hub != nil && state != nil {
		s.hub.BroadcastToSession(sessionID, state)
	}
}

func (s *Server) broadcastEvent(sessionID, event string, data interface{}) {
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, event, data)
	}
}

// broadcastResult pushes the new state of a successful action together with
// its events.
func (s *Server) broadcastResult(sessionID string, result *service.ActionResult) {
	if s.hub == nil || !result.Success {
		return
	}
	s.hub.BroadcastToSession(sessionID, result.GameState)
	for _, event := range result.Events {
		if event.Type == "victory" {
			s.hub.BroadcastEvent(sessionID, event.Type, event)
		}
	}
}

func logAction(tag, sessionID string, result *service.ActionResult, detail string) {
	status := "OK"
	if !result.Success {
		status = "FAIL:" + result.ReasonCode
	}
	empty := -1
	if result.GameState != nil {
		empty = result.GameState.EmptyCells
	}
	log.Printf("[%s] session=%s %s empty=%d status=%s", tag, sessionID, detail, empty, status)
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PuzzleID string `json:"puzzle_id,omitempty"`
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	info, err := s.service.CreateSession(r.Context(), req.PuzzleID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[SESSION] created session=%s puzzle=%s", info.ID, info.PuzzleID)
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	if puzzleID := query.Get("puzzle"); puzzleID != "" {
		filtered := sessions[:0]
		for _, info := range sessions {
			if info.PuzzleID == puzzleID {
				filtered = append(filtered, info)
			}
		}
		sessions = filtered
	}
	total := len(sessions)

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

	limit := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			limit = l
		}
	}
	sessions = sessions[:limit]

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

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Board State Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Board Operation Handlers

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	req, err := decodePlaceRequest(r, true)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Place(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastResult(sessionID, result)
	logAction("PLACE", sessionID, result, fmt.Sprintf("piece=%s o=%d at=(%d,%d)",
		req.PieceID, req.OrientationIndex, req.Row, req.Col))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCheckPlacement(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	req, err := decodePlaceRequest(r, true)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	check, err := s.service.CheckPlacement(r.Context(), sessionID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, check)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, instanceID := vars["id"], vars["instance"]

	result, err := s.service.Remove(r.Context(), sessionID, instanceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastResult(sessionID, result)
	logAction("REMOVE", sessionID, result, "instance="+instanceID)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePickUp(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, instanceID := vars["id"], vars["instance"]

	result, err := s.service.PickUp(r.Context(), sessionID, instanceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastResult(sessionID, result)
	logAction("PICKUP", sessionID, result, "instance="+instanceID)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleRelocate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, instanceID := vars["id"], vars["instance"]

	req, err := decodePlaceRequest(r, false)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.service.Relocate(r.Context(), sessionID, instanceID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastResult(sessionID, result)
	logAction("MOVE", sessionID, result, fmt.Sprintf("instance=%s o=%d to=(%d,%d)",
		instanceID, req.OrientationIndex, req.Row, req.Col))

	respondJSON(w, http.StatusOK, result)
}

// Tray Handlers

func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, pieceID := vars["id"], vars["piece"]

	result, err := s.service.Rotate(r.Context(), sessionID, pieceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastResult(sessionID, result)
	logAction("ROTATE", sessionID, result, "piece="+pieceID)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, pieceID := vars["id"], vars["piece"]

	result, err := s.service.Flip(r.Context(), sessionID, pieceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcastResult(sessionID, result)
	logAction("FLIP", sessionID, result, "piece="+pieceID)

	respondJSON(w, http.StatusOK, result)
}

// Puzzle Flow Handlers

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	s.broadcast(sessionID, state)
	s.broadcastEvent(sessionID, "reset", map[string]string{"puzzle_id": state.PuzzleID})
	log.Printf("[RESET] session=%s puzzle=%s", sessionID, state.PuzzleID)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Puzzle reset successfully",
		"state":   state,
	})
}

func (s *Server) handleNextPuzzle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.NextPuzzle(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.broadcast(sessionID, info.GameState)
	s.broadcastEvent(sessionID, "next_puzzle", map[string]string{"puzzle_id": info.PuzzleID})
	log.Printf("[NEXT] session=%s puzzle=%s", sessionID, info.PuzzleID)

	respondJSON(w, http.StatusOK, info)
}

// Catalog Handlers

func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	puzzles, err := s.service.ListPuzzles(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, puzzles)
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	puzzleID := strings.TrimSuffix(mux.Vars(r)["id"], ".json")

	puzzle, err := s.service.LoadPuzzle(r.Context(), puzzleID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, puzzle)
}

func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	var puzzle engine.Puzzle

	if err := json.NewDecoder(r.Body).Decode(&puzzle); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if puzzle.Name == "" {
		respondError(w, http.StatusBadRequest, "Puzzle name is required")
		return
	}

	puzzleID := puzzle.ID
	if puzzleID == "" {
		puzzleID = puzzleIDFromName(puzzle.Name)
	}

	if err := s.service.SavePuzzle(r.Context(), puzzleID, &puzzle); err != nil {
		if errors.Is(err, config.ErrInvalidPuzzle) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save puzzle: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Puzzle saved successfully",
		"puzzle_id": puzzleID,
	})
}

func (s *Server) handleListPieces(w http.ResponseWriter, r *http.Request) {
	pieces, err := s.service.ListPieces(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, pieces)
}

// puzzleIDFromName turns "My Puzzle #3" into "my_puzzle_3"
func puzzleIDFromName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore && b.Len() > 0:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	if s.hub == nil {
		http.Error(w, "live updates disabled", http.StatusServiceUnavailable)
		return
	}

	if _, err := s.service.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
