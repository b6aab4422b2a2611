package engine

// CellState represents the occupancy state of a board cell
type CellState string

const (
	Empty    CellState = "empty"
	Blocked  CellState = "blocked"
	Occupied CellState = "occupied"

	// Board dimensions used by every shipped puzzle
	DefaultRows = 7
	DefaultCols = 7

	// Validation constants
	MinGridSize     = 1
	MaxGridSize     = 20
	MaxOrientations = 8
)

// Footprint is one orientation of a piece: a rectangular 0/1 matrix whose
// filled cells are relative to the footprint's own top-left origin.
type Footprint [][]int

// Coord represents a row/column position on the board
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Cell represents a single board cell
type Cell struct {
	State            CellState `json:"state"`
	InstanceID       string    `json:"instance_id,omitempty"`
	PieceID          string    `json:"piece_id,omitempty"`
	OrientationIndex int       `json:"orientation_index"`
}

// Placement is the record of one committed piece on the board
type Placement struct {
	InstanceID       string  `json:"instance_id"`
	PieceID          string  `json:"piece_id"`
	OrientationIndex int     `json:"orientation_index"`
	AnchorRow        int     `json:"anchor_row"`
	AnchorCol        int     `json:"anchor_col"`
	Cells            []Coord `json:"cells"`
}

// Removal describes the piece that occupied a removed placement
type Removal struct {
	PieceID          string `json:"piece_id"`
	OrientationIndex int    `json:"orientation_index"`
}

// TrayPiece is a piece waiting to be placed, with the orientation the
// player currently has selected for it.
type TrayPiece struct {
	PieceID          string    `json:"piece_id"`
	Color            string    `json:"color"`
	OrientationIndex int       `json:"orientation_index"`
	OrientationCount int       `json:"orientation_count"`
	Shape            Footprint `json:"shape"`
}

// GameState is a serializable snapshot of a puzzle session
type GameState struct {
	PuzzleID       string      `json:"puzzle_id"`
	PuzzleName     string      `json:"puzzle_name"`
	Level          int         `json:"level"`
	Rows           int         `json:"rows"`
	Cols           int         `json:"cols"`
	Grid           [][]Cell    `json:"grid"`
	Placements     []Placement `json:"placements"`
	FixedInstances []string    `json:"fixed_instances,omitempty"`
	Tray           []TrayPiece `json:"tray"`
	EmptyCells     int         `json:"empty_cells"`
	Message        string      `json:"message"`
	Victory        bool        `json:"victory"`

	ActionHistory []ActionHistoryEntry `json:"action_history"`
	TotalActions  int                  `json:"total_actions"`

	// CurrentActions holds only the actions since the last reset. It mirrors
	// ActionHistory entries but gets cleared on reset while ActionHistory
	// remains cumulative.
	CurrentActions      []ActionHistoryEntry `json:"current_actions"`
	CurrentActionsCount int                  `json:"current_actions_count"`
}

// ActionHistoryEntry represents a single player action in the game history
type ActionHistoryEntry struct {
	Action           string `json:"action"` // place, remove, pickup, relocate, rotate, flip
	PieceID          string `json:"piece_id"`
	InstanceID       string `json:"instance_id,omitempty"`
	OrientationIndex int    `json:"orientation_index"`
	Row              int    `json:"row"`
	Col              int    `json:"col"`
	Success          bool   `json:"success"`
	Timestamp        int64  `json:"timestamp"`
	ActionNumber     int    `json:"action_number"`
}
