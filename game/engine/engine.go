package engine

import (
	"fmt"
	"sort"
)

// Engine provides the main interface for puzzle session operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	IsVictory() bool

	// Placement operations
	CanPlace(pieceID string, orientationIndex, row, col int) bool
	Place(pieceID string, orientationIndex, row, col int) (*Placement, error)
	Remove(instanceID string) (Removal, error)
	PickUp(instanceID string) (Removal, error)
	Relocate(instanceID string, orientationIndex, row, col int) (*Placement, error)

	// Tray operations
	Rotate(pieceID string) (int, error)
	Flip(pieceID string) (int, error)
	GetTray() []TrayPiece

	// Puzzle
	GetPuzzle() *Puzzle
	SetPuzzle(puzzle *Puzzle) error

	// History
	GetActionHistory() []ActionHistoryEntry
	GetLastAction() *ActionHistoryEntry
}

// trayEntry is a tray piece and the orientation the player has selected
type trayEntry struct {
	pieceID          string
	orientationIndex int
}

// GameEngine implements the Engine interface on top of a Board
type GameEngine struct {
	catalog *Catalog
	puzzle  *Puzzle
	board   *Board
	tray    []trayEntry
	fixed   map[string]bool
	message string
	victory bool

	actionHistory       []ActionHistoryEntry
	totalActions        int
	currentActions      []ActionHistoryEntry
	currentActionsCount int
}

// NewEngine creates a game engine for the puzzle. The puzzle is validated
// first; no engine is returned for a malformed definition.
func NewEngine(catalog *Catalog, puzzle *Puzzle) (*GameEngine, error) {
	e := &GameEngine{
		catalog:        catalog,
		actionHistory:  []ActionHistoryEntry{},
		currentActions: []ActionHistoryEntry{},
	}
	if err := e.load(puzzle); err != nil {
		return nil, err
	}
	return e, nil
}

// load validates the puzzle and replaces board, tray and fixed pieces
func (e *GameEngine) load(puzzle *Puzzle) error {
	if err := ValidatePuzzle(puzzle, e.catalog); err != nil {
		return err
	}

	board, fixedIDs, err := buildBoard(puzzle, e.catalog)
	if err != nil {
		return err
	}

	fixed := make(map[string]bool, len(fixedIDs))
	for _, id := range fixedIDs {
		fixed[id] = true
	}

	tray := make([]trayEntry, 0, len(puzzle.PiecesLeft))
	for _, id := range puzzle.PiecesLeft {
		tray = append(tray, trayEntry{pieceID: id})
	}

	e.puzzle = puzzle
	e.board = board
	e.fixed = fixed
	e.tray = tray
	e.victory = false
	e.message = puzzle.Messages.Welcome
	if e.message == "" {
		e.message = fmt.Sprintf("Welcome to %s! Place all %d pieces.", puzzle.Name, len(tray))
	}
	return nil
}

// GetState returns a snapshot of the current session state
func (e *GameEngine) GetState() *GameState {
	rows, cols := e.board.Rows(), e.board.Cols()

	fixed := make([]string, 0, len(e.fixed))
	for id := range e.fixed {
		fixed = append(fixed, id)
	}
	sort.Strings(fixed)

	return &GameState{
		PuzzleID:            e.puzzle.ID,
		PuzzleName:          e.puzzle.Name,
		Level:               e.puzzle.Level,
		Rows:                rows,
		Cols:                cols,
		Grid:                e.board.Snapshot(),
		Placements:          e.board.OccupiedInstances(),
		FixedInstances:      fixed,
		Tray:                e.GetTray(),
		EmptyCells:          e.board.EmptyCount(),
		Message:             e.message,
		Victory:             e.victory,
		ActionHistory:       append([]ActionHistoryEntry(nil), e.actionHistory...),
		TotalActions:        e.totalActions,
		CurrentActions:      append([]ActionHistoryEntry(nil), e.currentActions...),
		CurrentActionsCount: e.currentActionsCount,
	}
}

// Reset reloads the puzzle from its definition
func (e *GameEngine) Reset() *GameState {
	// The puzzle was validated when it was loaded
	if err := e.load(e.puzzle); err != nil {
		e.message = fmt.Sprintf("Reset failed: %v", err)
		return e.GetState()
	}

	// Cumulative history survives; only the current segment is cleared
	e.currentActions = []ActionHistoryEntry{}
	e.currentActionsCount = 0

	return e.GetState()
}

// IsVictory returns whether every tray piece has been placed
func (e *GameEngine) IsVictory() bool {
	return e.victory
}

// Board returns the underlying board
func (e *GameEngine) Board() *Board {
	return e.board
}

// Catalog returns the piece catalog used by the engine
func (e *GameEngine) Catalog() *Catalog {
	return e.catalog
}

// CanPlace reports whether the piece in the given orientation fits at (row, col)
func (e *GameEngine) CanPlace(pieceID string, orientationIndex, row, col int) bool {
	footprint, err := e.catalog.Footprint(pieceID, orientationIndex)
	if err != nil {
		return false
	}
	return e.board.CanPlace(footprint, row, col)
}

// Place moves a tray piece onto the board
func (e *GameEngine) Place(pieceID string, orientationIndex, row, col int) (*Placement, error) {
	placement, err := e.place(pieceID, orientationIndex, row, col)
	e.addActionToHistory("place", pieceID, instanceOf(placement), orientationIndex, row, col, err == nil)
	return placement, err
}

func (e *GameEngine) place(pieceID string, orientationIndex, row, col int) (*Placement, error) {
	slot := e.traySlot(pieceID)
	if slot < 0 {
		e.message = fmt.Sprintf("Piece %s is not in the tray", pieceID)
		return nil, fmt.Errorf("%w: %s", ErrPieceNotInTray, pieceID)
	}

	footprint, err := e.catalog.Footprint(pieceID, orientationIndex)
	if err != nil {
		e.message = err.Error()
		return nil, err
	}

	placement, err := e.board.Place(footprint, pieceID, orientationIndex, row, col)
	if err != nil {
		e.message = fmt.Sprintf("Invalid move! %s does not fit at (%d,%d)", pieceID, row, col)
		return nil, err
	}

	e.tray = append(e.tray[:slot], e.tray[slot+1:]...)
	e.message = fmt.Sprintf("Placed %s at (%d,%d)", pieceID, row, col)
	e.checkVictory()
	return placement, nil
}

// Remove takes a player-placed piece off the board and returns it to the
// tray in its base orientation.
func (e *GameEngine) Remove(instanceID string) (Removal, error) {
	removal, err := e.takeOff(instanceID, false)
	e.addActionToHistory("remove", removal.PieceID, instanceID, removal.OrientationIndex, -1, -1, err == nil)
	return removal, err
}

// PickUp takes a player-placed piece off the board and returns it to the
// tray keeping its orientation, as when dragging a piece off the board.
func (e *GameEngine) PickUp(instanceID string) (Removal, error) {
	removal, err := e.takeOff(instanceID, true)
	e.addActionToHistory("pickup", removal.PieceID, instanceID, removal.OrientationIndex, -1, -1, err == nil)
	return removal, err
}

func (e *GameEngine) takeOff(instanceID string, keepOrientation bool) (Removal, error) {
	if e.fixed[instanceID] {
		e.message = "Start pieces cannot be removed"
		return Removal{}, fmt.Errorf("%w: %s", ErrFixedPiece, instanceID)
	}

	removal, err := e.board.Remove(instanceID)
	if err != nil {
		e.message = "No piece with that id is on the board"
		return Removal{}, err
	}

	entry := trayEntry{pieceID: removal.PieceID}
	if keepOrientation {
		entry.orientationIndex = removal.OrientationIndex
	}
	e.tray = append(e.tray, entry)
	e.victory = false
	e.message = fmt.Sprintf("Returned %s to the tray", removal.PieceID)
	return removal, nil
}

// Relocate moves a placed piece to a new anchor and orientation. If the new
// position is invalid the piece stays where it was. A relocated piece gets a
// new instance id.
func (e *GameEngine) Relocate(instanceID string, orientationIndex, row, col int) (*Placement, error) {
	pieceID := ""
	if original, ok := e.board.Placement(instanceID); ok {
		pieceID = original.PieceID
	}
	placement, err := e.relocate(instanceID, orientationIndex, row, col)
	recorded := instanceID
	if placement != nil {
		recorded = placement.InstanceID
	}
	e.addActionToHistory("relocate", pieceID, recorded, orientationIndex, row, col, err == nil)
	return placement, err
}

func (e *GameEngine) relocate(instanceID string, orientationIndex, row, col int) (*Placement, error) {
	if e.fixed[instanceID] {
		e.message = "Start pieces cannot be moved"
		return nil, fmt.Errorf("%w: %s", ErrFixedPiece, instanceID)
	}

	original, ok := e.board.Placement(instanceID)
	if !ok {
		e.message = "No piece with that id is on the board"
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstance, instanceID)
	}

	footprint, err := e.catalog.Footprint(original.PieceID, orientationIndex)
	if err != nil {
		e.message = err.Error()
		return nil, err
	}

	if !e.board.canPlaceOver(footprint, row, col, instanceID) {
		e.message = fmt.Sprintf("Invalid move! %s does not fit at (%d,%d)", original.PieceID, row, col)
		return nil, fmt.Errorf("%w: piece %s orientation %d at (%d,%d)",
			ErrInvalidPlacement, original.PieceID, orientationIndex, row, col)
	}

	// Both steps are guaranteed to succeed after the check above
	if _, err := e.board.Remove(instanceID); err != nil {
		return nil, err
	}
	placement, err := e.board.Place(footprint, original.PieceID, orientationIndex, row, col)
	if err != nil {
		return nil, err
	}

	e.message = fmt.Sprintf("Moved %s to (%d,%d)", original.PieceID, row, col)
	return placement, nil
}

// Rotate advances the tray piece to its next orientation
func (e *GameEngine) Rotate(pieceID string) (int, error) {
	return e.reorient("rotate", pieceID, func(set OrientationSet, i int) int { return set.Next(i) })
}

// Flip switches the tray piece to the mirror image of its current orientation
func (e *GameEngine) Flip(pieceID string) (int, error) {
	return e.reorient("flip", pieceID, func(set OrientationSet, i int) int { return set.Flipped(i) })
}

func (e *GameEngine) reorient(action, pieceID string, next func(OrientationSet, int) int) (int, error) {
	slot := e.traySlot(pieceID)
	if slot < 0 {
		e.message = fmt.Sprintf("Piece %s is not in the tray", pieceID)
		e.addActionToHistory(action, pieceID, "", 0, -1, -1, false)
		return 0, fmt.Errorf("%w: %s", ErrPieceNotInTray, pieceID)
	}

	piece, err := e.catalog.Get(pieceID)
	if err != nil {
		return 0, err
	}

	idx := next(piece.Orientations, e.tray[slot].orientationIndex)
	e.tray[slot].orientationIndex = idx
	e.addActionToHistory(action, pieceID, "", idx, -1, -1, true)
	return idx, nil
}

// GetTray returns the pieces still to be placed with their selected shapes
func (e *GameEngine) GetTray() []TrayPiece {
	tray := make([]TrayPiece, 0, len(e.tray))
	for _, entry := range e.tray {
		piece, err := e.catalog.Get(entry.pieceID)
		if err != nil {
			continue
		}
		shape, _ := piece.Orientations.At(entry.orientationIndex)
		tray = append(tray, TrayPiece{
			PieceID:          entry.pieceID,
			Color:            piece.Definition.Color,
			OrientationIndex: entry.orientationIndex,
			OrientationCount: piece.Orientations.Len(),
			Shape:            shape,
		})
	}
	return tray
}

// GetPuzzle returns the puzzle being played
func (e *GameEngine) GetPuzzle() *Puzzle {
	return e.puzzle
}

// SetPuzzle switches the engine to another puzzle
func (e *GameEngine) SetPuzzle(puzzle *Puzzle) error {
	if err := e.load(puzzle); err != nil {
		return err
	}
	e.currentActions = []ActionHistoryEntry{}
	e.currentActionsCount = 0
	return nil
}

// IsFixed reports whether the instance is a puzzle start piece
func (e *GameEngine) IsFixed(instanceID string) bool {
	return e.fixed[instanceID]
}

// GetActionHistory returns the complete action history
func (e *GameEngine) GetActionHistory() []ActionHistoryEntry {
	return e.actionHistory
}

// GetLastAction returns the last action taken, or nil if none
func (e *GameEngine) GetLastAction() *ActionHistoryEntry {
	if len(e.actionHistory) == 0 {
		return nil
	}
	return &e.actionHistory[len(e.actionHistory)-1]
}

// checkVictory marks the session won once the tray is empty
func (e *GameEngine) checkVictory() {
	if len(e.tray) != 0 {
		return
	}
	e.victory = true
	e.message = e.puzzle.Messages.Victory
	if e.message == "" {
		e.message = fmt.Sprintf("Victory! %s solved.", e.puzzle.Name)
	}
}

func (e *GameEngine) traySlot(pieceID string) int {
	for i, entry := range e.tray {
		if entry.pieceID == pieceID {
			return i
		}
	}
	return -1
}

func instanceOf(p *Placement) string {
	if p == nil {
		return ""
	}
	return p.InstanceID
}
