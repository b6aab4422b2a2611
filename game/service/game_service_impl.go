package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/polytile/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new puzzle session
func (s *gameServiceImpl) CreateSession(ctx context.Context, puzzleID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var puzzle *engine.Puzzle
	var err error
	if puzzleID != "" {
		puzzle, err = s.configs.LoadPuzzle(puzzleID)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrPuzzleNotFound) {
				available, listErr := s.configs.ListPuzzles()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, p := range available {
						ids = append(ids, p.PuzzleID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available puzzles: %v", ErrPuzzleNotFound, puzzleID, ids)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/puzzles to list available puzzles", ErrPuzzleNotFound, puzzleID)
			}
			return nil, fmt.Errorf("failed to load puzzle %s: %w", puzzleID, err)
		}
	} else {
		puzzle = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", puzzle)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Place puts a tray piece on the board
func (s *gameServiceImpl) Place(ctx context.Context, sessionID string, req PlaceRequest) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	placement, err := sess.Engine.Place(req.PieceID, req.OrientationIndex, req.Row, req.Col)
	result := newActionResult(sess.Engine, err)
	if err != nil {
		return result, nil
	}

	result.Placement = placement
	result.Events = append(result.Events, GameEvent{
		Type:       "placed",
		Message:    fmt.Sprintf("Placed %s at (%d,%d)", placement.PieceID, placement.AnchorRow, placement.AnchorCol),
		Timestamp:  time.Now(),
		PieceID:    placement.PieceID,
		InstanceID: placement.InstanceID,
	})
	result.Events = appendVictoryEvent(result.Events, result.GameState)
	return result, nil
}

// CheckPlacement reports whether a piece would fit without changing anything
func (s *gameServiceImpl) CheckPlacement(ctx context.Context, sessionID string, req PlaceRequest) (*PlacementCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	check := &PlacementCheck{
		PieceID:          req.PieceID,
		OrientationIndex: req.OrientationIndex,
		Row:              req.Row,
		Col:              req.Col,
	}
	for _, piece := range sess.Engine.GetTray() {
		if piece.PieceID == req.PieceID {
			check.InTray = true
			break
		}
	}

	footprint, err := sess.Engine.Catalog().Footprint(req.PieceID, req.OrientationIndex)
	if err != nil {
		check.ReasonCode = reasonCode(err)
		return check, nil
	}
	for _, cell := range footprint.Cells() {
		check.Cells = append(check.Cells, engine.Coord{Row: req.Row + cell.Row, Col: req.Col + cell.Col})
	}

	check.Valid = sess.Engine.Board().CanPlace(footprint, req.Row, req.Col)
	if !check.Valid {
		check.ReasonCode = ReasonInvalidPlacement
	}
	return check, nil
}

// Remove returns a placed piece to the tray in its base orientation
func (s *gameServiceImpl) Remove(ctx context.Context, sessionID, instanceID string) (*ActionResult, error) {
	return s.takeOff(sessionID, instanceID, false)
}

// PickUp returns a placed piece to the tray keeping its orientation
func (s *gameServiceImpl) PickUp(ctx context.Context, sessionID, instanceID string) (*ActionResult, error) {
	return s.takeOff(sessionID, instanceID, true)
}

func (s *gameServiceImpl) takeOff(sessionID, instanceID string, keepOrientation bool) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var removal engine.Removal
	eventType := "removed"
	if keepOrientation {
		removal, err = sess.Engine.PickUp(instanceID)
		eventType = "picked_up"
	} else {
		removal, err = sess.Engine.Remove(instanceID)
	}

	result := newActionResult(sess.Engine, err)
	if err != nil {
		return result, nil
	}

	result.Removal = &removal
	result.Events = append(result.Events, GameEvent{
		Type:       eventType,
		Message:    fmt.Sprintf("%s returned to the tray", removal.PieceID),
		Timestamp:  time.Now(),
		PieceID:    removal.PieceID,
		InstanceID: instanceID,
	})
	return result, nil
}

// Relocate moves a placed piece to a new anchor and orientation
func (s *gameServiceImpl) Relocate(ctx context.Context, sessionID, instanceID string, req PlaceRequest) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	placement, err := sess.Engine.Relocate(instanceID, req.OrientationIndex, req.Row, req.Col)
	result := newActionResult(sess.Engine, err)
	if err != nil {
		return result, nil
	}

	result.Placement = placement
	result.Events = append(result.Events, GameEvent{
		Type:       "relocated",
		Message:    fmt.Sprintf("Moved %s to (%d,%d)", placement.PieceID, placement.AnchorRow, placement.AnchorCol),
		Timestamp:  time.Now(),
		PieceID:    placement.PieceID,
		InstanceID: placement.InstanceID,
	})
	return result, nil
}

// Rotate advances a tray piece to its next orientation
func (s *gameServiceImpl) Rotate(ctx context.Context, sessionID, pieceID string) (*ActionResult, error) {
	return s.reorient(sessionID, pieceID, "rotated")
}

// Flip mirrors a tray piece
func (s *gameServiceImpl) Flip(ctx context.Context, sessionID, pieceID string) (*ActionResult, error) {
	return s.reorient(sessionID, pieceID, "flipped")
}

func (s *gameServiceImpl) reorient(sessionID, pieceID, eventType string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var idx int
	if eventType == "flipped" {
		idx, err = sess.Engine.Flip(pieceID)
	} else {
		idx, err = sess.Engine.Rotate(pieceID)
	}

	result := newActionResult(sess.Engine, err)
	if err != nil {
		return result, nil
	}

	for i := range result.GameState.Tray {
		if result.GameState.Tray[i].PieceID == pieceID {
			result.TrayPiece = &result.GameState.Tray[i]
			break
		}
	}
	result.Events = append(result.Events, GameEvent{
		Type:      eventType,
		Message:   fmt.Sprintf("%s %s to orientation %d", pieceID, eventType, idx),
		Timestamp: time.Now(),
		PieceID:   pieceID,
	})
	return result, nil
}

// Reset reloads the session's puzzle
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Reset(), nil
}

// NextPuzzle switches the session to the puzzle after its current one
func (s *gameServiceImpl) NextPuzzle(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	next, err := s.configs.NextPuzzle(sess.Engine.GetPuzzle().ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find next puzzle: %w", err)
	}
	if err := sess.Engine.SetPuzzle(next); err != nil {
		return nil, fmt.Errorf("failed to load puzzle %s: %w", next.ID, err)
	}

	return sessionInfo(sess), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetHistory returns paginated action history
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetActionHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	actions := []engine.ActionHistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			actions = append(actions, history[i])
		}
	} else if start < total {
		actions = append(actions, history[start:end]...)
	}

	return &HistoryResponse{
		Actions:      actions,
		TotalActions: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// ListPuzzles returns the available puzzles
func (s *gameServiceImpl) ListPuzzles(ctx context.Context) ([]*PuzzleInfo, error) {
	return s.configs.ListPuzzles()
}

// LoadPuzzle loads a specific puzzle definition
func (s *gameServiceImpl) LoadPuzzle(ctx context.Context, puzzleID string) (*engine.Puzzle, error) {
	return s.configs.LoadPuzzle(puzzleID)
}

// SavePuzzle validates and stores a puzzle definition
func (s *gameServiceImpl) SavePuzzle(ctx context.Context, puzzleID string, puzzle *engine.Puzzle) error {
	return s.configs.SavePuzzle(puzzleID, puzzle)
}

// ListPieces describes every piece in the catalog
func (s *gameServiceImpl) ListPieces(ctx context.Context) ([]*PieceInfo, error) {
	catalog := s.configs.Catalog()
	pieces := make([]*PieceInfo, 0, catalog.Len())
	for _, id := range catalog.IDs() {
		piece, err := catalog.Get(id)
		if err != nil {
			return nil, err
		}
		pieces = append(pieces, &PieceInfo{
			ID:               id,
			Color:            piece.Definition.Color,
			CellCount:        piece.Definition.BaseShape.CellCount(),
			OrientationCount: piece.Orientations.Len(),
			Orientations:     piece.Orientations.All(),
		})
	}
	return pieces, nil
}

// session looks up a session and marks it as accessed
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func sessionInfo(sess *Session) *SessionInfo {
	puzzle := sess.Engine.GetPuzzle()
	return &SessionInfo{
		ID:             sess.ID,
		PuzzleID:       puzzle.ID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		GameState:      sess.Engine.GetState(),
		Puzzle:         puzzle,
	}
}

func newActionResult(eng *engine.GameEngine, err error) *ActionResult {
	state := eng.GetState()
	return &ActionResult{
		Success:    err == nil,
		ReasonCode: reasonCode(err),
		Message:    state.Message,
		GameState:  state,
		Events:     []GameEvent{},
	}
}

func appendVictoryEvent(events []GameEvent, state *engine.GameState) []GameEvent {
	if !state.Victory {
		return events
	}
	return append(events, GameEvent{
		Type:      "victory",
		Message:   state.Message,
		Timestamp: time.Now(),
	})
}

// reasonCode maps an engine error to a machine-friendly code
func reasonCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, engine.ErrInvalidPlacement):
		return ReasonInvalidPlacement
	case errors.Is(err, engine.ErrUnknownInstance):
		return ReasonUnknownInstance
	case errors.Is(err, engine.ErrPieceNotInTray):
		return ReasonPieceNotInTray
	case errors.Is(err, engine.ErrInvalidOrientation):
		return ReasonInvalidOrientation
	case errors.Is(err, engine.ErrUnknownPiece):
		return ReasonUnknownPiece
	case errors.Is(err, engine.ErrFixedPiece):
		return ReasonFixedPiece
	default:
		return "error"
	}
}
