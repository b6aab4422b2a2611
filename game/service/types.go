package service

import (
	"time"

	"github.com/wricardo/mcp-training/polytile/game/engine"
)

// Reason codes reported when an action is rejected
const (
	ReasonInvalidPlacement   = "invalid_placement"
	ReasonUnknownInstance    = "unknown_instance"
	ReasonPieceNotInTray     = "piece_not_in_tray"
	ReasonInvalidOrientation = "invalid_orientation"
	ReasonUnknownPiece       = "unknown_piece"
	ReasonFixedPiece         = "fixed_piece"
)

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string            `json:"id"`
	PuzzleID       string            `json:"puzzle_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
	Puzzle         *engine.Puzzle    `json:"puzzle"`
}

// PlaceRequest names a piece, an orientation and an anchor cell
type PlaceRequest struct {
	PieceID          string `json:"piece_id"`
	OrientationIndex int    `json:"orientation_index"`
	Row              int    `json:"row"`
	Col              int    `json:"col"`
}

// ActionResult contains the result of a board or tray action. Rejected
// actions have Success false, a ReasonCode and an unchanged GameState.
type ActionResult struct {
	Success    bool              `json:"success"`
	ReasonCode string            `json:"reason_code,omitempty"`
	Message    string            `json:"message"`
	GameState  *engine.GameState `json:"game_state"`
	Events     []GameEvent       `json:"events,omitempty"`
	Placement  *engine.Placement `json:"placement,omitempty"`
	Removal    *engine.Removal   `json:"removal,omitempty"`
	TrayPiece  *engine.TrayPiece `json:"tray_piece,omitempty"`
}

// PlacementCheck is the answer to a pre-flight placement query
type PlacementCheck struct {
	Valid            bool           `json:"valid"`
	ReasonCode       string         `json:"reason_code,omitempty"`
	InTray           bool           `json:"in_tray"`
	PieceID          string         `json:"piece_id"`
	OrientationIndex int            `json:"orientation_index"`
	Row              int            `json:"row"`
	Col              int            `json:"col"`
	Cells            []engine.Coord `json:"cells,omitempty"`
}

// GameEvent represents an event that occurred during play
type GameEvent struct {
	Type       string    `json:"type"` // "placed", "removed", "picked_up", "relocated", "rotated", "flipped", "victory", "reset", "next_puzzle"
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	PieceID    string    `json:"piece_id,omitempty"`
	InstanceID string    `json:"instance_id,omitempty"`
}

// HistoryOptions configures action history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated action history
type HistoryResponse struct {
	Actions      []engine.ActionHistoryEntry `json:"actions"`
	TotalActions int                         `json:"total_actions"`
	Page         int                         `json:"page"`
	PageSize     int                         `json:"page_size"`
	TotalPages   int                         `json:"total_pages"`
	HasNext      bool                        `json:"has_next"`
	HasPrevious  bool                        `json:"has_previous"`
}

// PuzzleInfo provides summary information about a puzzle file
type PuzzleInfo struct {
	Filename     string `json:"filename"`
	PuzzleID     string `json:"puzzle_id"` // The identifier to use for session creation
	Name         string `json:"name"`
	Description  string `json:"description"`
	Level        int    `json:"level"`
	Rows         int    `json:"rows"`
	Cols         int    `json:"cols"`
	BlockedCells int    `json:"blocked_cells"`
	StartPieces  int    `json:"start_pieces"`
	TrayPieces   int    `json:"tray_pieces"`
}

// PieceInfo describes a catalog piece and every orientation it can take
type PieceInfo struct {
	ID               string             `json:"id"`
	Color            string             `json:"color"`
	CellCount        int                `json:"cell_count"`
	OrientationCount int                `json:"orientation_count"`
	Orientations     []engine.Footprint `json:"orientations"`
}
