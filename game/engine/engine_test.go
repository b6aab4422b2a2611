package engine

import (
	"errors"
	"testing"
)

func createTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog([]PieceDefinition{
		{ID: "sq", Color: "color-orange", BaseShape: Footprint{{1, 1}, {1, 1}}},
		{ID: "dom", Color: "color-red", BaseShape: Footprint{{1}, {1}}},
		{ID: "ell", Color: "color-d-blue", BaseShape: Footprint{{0, 1}, {0, 1}, {1, 1}}},
	})
	if err != nil {
		t.Fatalf("Failed to create catalog: %v", err)
	}
	return catalog
}

// createTestPuzzle returns a 2x3 board solved by the square at (0,0) and the
// vertical domino at (0,2).
func createTestPuzzle() *Puzzle {
	return &Puzzle{
		ID:         "test",
		Name:       "Engine Test Puzzle",
		Level:      1,
		Rows:       2,
		Cols:       3,
		PiecesLeft: []string{"sq", "dom"},
		Messages: PuzzleMessages{
			Welcome: "Welcome to engine test!",
			Victory: "Solved!",
		},
	}
}

func createTestEngine(t *testing.T) *GameEngine {
	t.Helper()
	engine, err := NewEngine(createTestCatalog(t), createTestPuzzle())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return engine
}

func TestNewEngine(t *testing.T) {
	engine := createTestEngine(t)

	state := engine.GetState()
	if state.Message != "Welcome to engine test!" {
		t.Errorf("Expected welcome message, got %q", state.Message)
	}
	if len(state.Tray) != 2 {
		t.Errorf("Expected 2 tray pieces, got %d", len(state.Tray))
	}
	if state.EmptyCells != 6 {
		t.Errorf("Expected 6 empty cells, got %d", state.EmptyCells)
	}
	if engine.IsVictory() {
		t.Error("Expected no victory initially")
	}

	t.Run("invalid puzzle", func(t *testing.T) {
		p := createTestPuzzle()
		p.PiecesLeft = []string{"unknown"}
		if _, err := NewEngine(createTestCatalog(t), p); !errors.Is(err, ErrInvalidPuzzle) {
			t.Errorf("Expected ErrInvalidPuzzle, got %v", err)
		}
	})
}

func TestEnginePlaceAndVictory(t *testing.T) {
	engine := createTestEngine(t)

	if _, err := engine.Place("sq", 0, 0, 0); err != nil {
		t.Fatalf("Place sq failed: %v", err)
	}
	if engine.IsVictory() {
		t.Error("Expected no victory with one piece left")
	}
	if len(engine.GetTray()) != 1 {
		t.Errorf("Expected 1 tray piece, got %d", len(engine.GetTray()))
	}

	if _, err := engine.Place("dom", 0, 0, 2); err != nil {
		t.Fatalf("Place dom failed: %v", err)
	}
	if !engine.IsVictory() {
		t.Error("Expected victory once the tray is empty")
	}
	if engine.GetState().Message != "Solved!" {
		t.Errorf("Expected victory message, got %q", engine.GetState().Message)
	}
	if !engine.Board().IsFull() {
		t.Error("Expected the board to be full")
	}
}

func TestEnginePlaceFailures(t *testing.T) {
	engine := createTestEngine(t)
	if _, err := engine.Place("sq", 0, 0, 0); err != nil {
		t.Fatalf("Setup place failed: %v", err)
	}
	before := engine.GetState()

	tests := []struct {
		name        string
		pieceID     string
		orientation int
		row, col    int
		expected    error
	}{
		{"piece already placed", "sq", 0, 0, 1, ErrPieceNotInTray},
		{"unknown piece", "nope", 0, 0, 2, ErrPieceNotInTray},
		{"bad orientation", "dom", 5, 0, 2, ErrInvalidOrientation},
		{"overlap", "dom", 0, 0, 1, ErrInvalidPlacement},
		{"out of bounds", "dom", 1, 0, 2, ErrInvalidPlacement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Place(tt.pieceID, tt.orientation, tt.row, tt.col)
			if !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
			after := engine.GetState()
			if after.EmptyCells != before.EmptyCells || len(after.Tray) != len(before.Tray) {
				t.Error("Expected failed place to leave board and tray unchanged")
			}
		})
	}

	// Every attempt is recorded, successful or not
	if engine.GetState().TotalActions != 1+len(tests) {
		t.Errorf("Expected %d actions, got %d", 1+len(tests), engine.GetState().TotalActions)
	}
	if last := engine.GetLastAction(); last == nil || last.Success {
		t.Errorf("Expected last action to be a failure, got %+v", last)
	}
}

func TestEngineRemoveAndPickUp(t *testing.T) {
	engine := createTestEngine(t)

	// Rotate the domino before placing it so orientation 1 is selected
	if idx, err := engine.Rotate("dom"); err != nil || idx != 1 {
		t.Fatalf("Expected rotate to select 1, got %d (%v)", idx, err)
	}
	placement, err := engine.Place("dom", 1, 0, 0)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	removal, err := engine.Remove(placement.InstanceID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removal.PieceID != "dom" || removal.OrientationIndex != 1 {
		t.Errorf("Unexpected removal %+v", removal)
	}
	if tray := engine.GetTray(); tray[len(tray)-1].OrientationIndex != 0 {
		t.Errorf("Expected removed piece back at orientation 0, got %d", tray[len(tray)-1].OrientationIndex)
	}

	placement, err = engine.Place("dom", 1, 1, 0)
	if err != nil {
		t.Fatalf("Second place failed: %v", err)
	}
	if _, err := engine.PickUp(placement.InstanceID); err != nil {
		t.Fatalf("PickUp failed: %v", err)
	}
	if tray := engine.GetTray(); tray[len(tray)-1].OrientationIndex != 1 {
		t.Errorf("Expected picked up piece to keep orientation 1, got %d", tray[len(tray)-1].OrientationIndex)
	}

	if _, err := engine.Remove(placement.InstanceID); !errors.Is(err, ErrUnknownInstance) {
		t.Errorf("Expected ErrUnknownInstance for stale id, got %v", err)
	}
}

func TestEngineRemoveClearsVictory(t *testing.T) {
	engine := createTestEngine(t)
	sq, _ := engine.Place("sq", 0, 0, 0)
	engine.Place("dom", 0, 0, 2)
	if !engine.IsVictory() {
		t.Fatal("Expected victory")
	}

	if _, err := engine.Remove(sq.InstanceID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if engine.IsVictory() {
		t.Error("Expected victory cleared after removing a piece")
	}
}

func TestEngineFixedPieces(t *testing.T) {
	puzzle := createTestPuzzle()
	puzzle.StartPieces = []StartPiece{{PieceID: "sq", ShapeIndex: 0, Row: 0, Col: 0}}
	puzzle.PiecesLeft = []string{"dom"}

	engine, err := NewEngine(createTestCatalog(t), puzzle)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	state := engine.GetState()
	if len(state.FixedInstances) != 1 {
		t.Fatalf("Expected 1 fixed instance, got %d", len(state.FixedInstances))
	}
	fixedID := state.FixedInstances[0]
	if !engine.IsFixed(fixedID) {
		t.Error("Expected IsFixed to report the start piece")
	}

	if _, err := engine.Remove(fixedID); !errors.Is(err, ErrFixedPiece) {
		t.Errorf("Expected ErrFixedPiece on remove, got %v", err)
	}
	if _, err := engine.PickUp(fixedID); !errors.Is(err, ErrFixedPiece) {
		t.Errorf("Expected ErrFixedPiece on pickup, got %v", err)
	}
	if _, err := engine.Relocate(fixedID, 0, 0, 1); !errors.Is(err, ErrFixedPiece) {
		t.Errorf("Expected ErrFixedPiece on relocate, got %v", err)
	}

	if _, err := engine.Place("dom", 0, 0, 2); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if !engine.IsVictory() {
		t.Error("Expected victory with the start piece and the tray piece placed")
	}
}

func TestEngineRelocate(t *testing.T) {
	engine := createTestEngine(t)
	dom, err := engine.Place("dom", 0, 0, 0)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	t.Run("overlapping its own cells", func(t *testing.T) {
		moved, err := engine.Relocate(dom.InstanceID, 1, 0, 0)
		if err != nil {
			t.Fatalf("Relocate failed: %v", err)
		}
		if moved.OrientationIndex != 1 || moved.PieceID != "dom" || len(moved.Cells) != 2 {
			t.Errorf("Unexpected placement %+v", moved)
		}
		if _, ok := engine.Board().Placement(dom.InstanceID); ok {
			t.Error("Expected the old instance id to be gone")
		}
		dom = moved
	})

	t.Run("invalid target keeps piece in place", func(t *testing.T) {
		before := engine.Board().Snapshot()
		_, err := engine.Relocate(dom.InstanceID, 1, 1, 2)
		if !errors.Is(err, ErrInvalidPlacement) {
			t.Errorf("Expected ErrInvalidPlacement, got %v", err)
		}
		after := engine.Board().Snapshot()
		for r := range before {
			for c := range before[r] {
				if before[r][c] != after[r][c] {
					t.Errorf("Cell (%d,%d) changed on failed relocate", r, c)
				}
			}
		}
		last := engine.GetLastAction()
		if last.PieceID != "dom" || last.Success {
			t.Errorf("Expected failed relocate of dom in history, got %+v", last)
		}
	})

	t.Run("unknown instance", func(t *testing.T) {
		if _, err := engine.Relocate("missing", 0, 0, 0); !errors.Is(err, ErrUnknownInstance) {
			t.Errorf("Expected ErrUnknownInstance, got %v", err)
		}
	})
}

func TestEngineRotateAndFlip(t *testing.T) {
	engine := createTestEngine(t)
	puzzle := createTestPuzzle()
	puzzle.Rows, puzzle.Cols = 3, 3
	puzzle.PiecesLeft = []string{"ell", "dom"}
	if err := engine.SetPuzzle(puzzle); err != nil {
		t.Fatalf("SetPuzzle failed: %v", err)
	}

	// ell has 8 orientations; rotate cycles through all of them
	for i := 1; i <= 8; i++ {
		idx, err := engine.Rotate("ell")
		if err != nil {
			t.Fatalf("Rotate failed: %v", err)
		}
		if idx != i%8 {
			t.Errorf("Expected index %d, got %d", i%8, idx)
		}
	}

	flipped, err := engine.Flip("ell")
	if err != nil {
		t.Fatalf("Flip failed: %v", err)
	}
	if flipped != 4 {
		t.Errorf("Expected mirror of base at index 4, got %d", flipped)
	}
	back, _ := engine.Flip("ell")
	if back != 0 {
		t.Errorf("Expected second flip to return to 0, got %d", back)
	}

	// A vertical domino is its own mirror image
	if idx, _ := engine.Flip("dom"); idx != 0 {
		t.Errorf("Expected domino flip to stay at 0, got %d", idx)
	}

	if _, err := engine.Rotate("sq"); !errors.Is(err, ErrPieceNotInTray) {
		t.Errorf("Expected ErrPieceNotInTray, got %v", err)
	}
}

func TestEngineReset(t *testing.T) {
	engine := createTestEngine(t)
	engine.Place("sq", 0, 0, 0)
	engine.Rotate("dom")

	state := engine.Reset()
	if len(state.Placements) != 0 {
		t.Errorf("Expected empty board after reset, got %d placements", len(state.Placements))
	}
	if len(state.Tray) != 2 {
		t.Errorf("Expected full tray after reset, got %d", len(state.Tray))
	}
	for _, piece := range state.Tray {
		if piece.OrientationIndex != 0 {
			t.Errorf("Expected %s back at orientation 0, got %d", piece.PieceID, piece.OrientationIndex)
		}
	}
	if state.TotalActions != 2 {
		t.Errorf("Expected cumulative history to keep 2 actions, got %d", state.TotalActions)
	}
	if state.CurrentActionsCount != 0 || len(state.CurrentActions) != 0 {
		t.Errorf("Expected current segment cleared, got %d", state.CurrentActionsCount)
	}

	engine.Place("sq", 0, 0, 0)
	state = engine.GetState()
	if state.TotalActions != 3 || state.CurrentActionsCount != 1 {
		t.Errorf("Expected 3 total and 1 current actions, got %d and %d", state.TotalActions, state.CurrentActionsCount)
	}
	if state.ActionHistory[2].ActionNumber != 3 {
		t.Errorf("Expected action number 3, got %d", state.ActionHistory[2].ActionNumber)
	}
}

func TestEngineStateIsSnapshot(t *testing.T) {
	engine := createTestEngine(t)
	state := engine.GetState()
	state.Grid[0][0].State = Blocked
	state.Tray[0].Shape[0][0] = 0

	fresh := engine.GetState()
	if fresh.Grid[0][0].State != Empty {
		t.Error("Expected grid snapshot to be independent of the board")
	}
	if fresh.Tray[0].Shape[0][0] != 1 {
		t.Error("Expected tray shapes to be independent of the catalog")
	}
}

func TestRenderGrid(t *testing.T) {
	engine := createTestEngine(t)
	engine.Place("sq", 0, 0, 0)

	state := engine.GetState()
	rendered := RenderGrid(state.Grid, state.Placements)
	if rendered != "AA.\nAA.\n" {
		t.Errorf("Unexpected rendering %q", rendered)
	}

	board, _ := NewBoard(1, 2, []Coord{{0, 1}})
	if got := RenderGrid(board.Snapshot(), nil); got != ".#\n" {
		t.Errorf("Unexpected rendering %q", got)
	}
	if CountCellState(board.Snapshot(), Blocked) != 1 {
		t.Error("Expected 1 blocked cell")
	}
}
