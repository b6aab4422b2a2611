package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/polytile/game/config"
	"github.com/wricardo/mcp-training/polytile/game/engine"
	"github.com/wricardo/mcp-training/polytile/game/service"
	"github.com/wricardo/mcp-training/polytile/game/session"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	catalog  *engine.Catalog
	sessions map[string]*service.Session
}

func NewMockSessionManager(catalog *engine.Catalog) *MockSessionManager {
	return &MockSessionManager{
		catalog:  catalog,
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, puzzle *engine.Puzzle) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(m.catalog, puzzle)
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:        id,
		Engine:    eng,
		CreatedAt: time.Now(),
	}
	session.Touch(time.Now())

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, puzzle *engine.Puzzle) (*service.Session, error) {
	if session, exists := m.sessions[id]; exists {
		return session, nil
	}
	return m.Create(id, puzzle)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.Touch(time.Now())
		return nil
	}
	return service.ErrSessionNotFound
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	catalog *engine.Catalog
	puzzles map[string]*engine.Puzzle
	saved   map[string]*engine.Puzzle
}

func NewMockConfigManager() *MockConfigManager {
	catalog, err := engine.NewCatalog([]engine.PieceDefinition{
		{ID: "sq", Color: "color-orange", BaseShape: engine.Footprint{{1, 1}, {1, 1}}},
		{ID: "dom", Color: "color-red", BaseShape: engine.Footprint{{1}, {1}}},
		{ID: "ell", Color: "color-d-blue", BaseShape: engine.Footprint{{0, 1}, {0, 1}, {1, 1}}},
	})
	if err != nil {
		panic(err)
	}

	// Solved by the square at (0,0) and the vertical domino at (0,2)
	first := &engine.Puzzle{
		ID: "one", Name: "First", Level: 1, Rows: 2, Cols: 3,
		PiecesLeft: []string{"sq", "dom"},
		Messages:   engine.PuzzleMessages{Victory: "Solved!"},
	}
	// The square is fixed; only the domino is left
	second := &engine.Puzzle{
		ID: "two", Name: "Second", Level: 2, Rows: 2, Cols: 3,
		StartPieces: []engine.StartPiece{{PieceID: "sq", Row: 0, Col: 0}},
		PiecesLeft:  []string{"dom"},
	}

	return &MockConfigManager{
		catalog: catalog,
		puzzles: map[string]*engine.Puzzle{"one": first, "two": second},
		saved:   make(map[string]*engine.Puzzle),
	}
}

func (m *MockConfigManager) Catalog() *engine.Catalog {
	return m.catalog
}

func (m *MockConfigManager) LoadPuzzle(id string) (*engine.Puzzle, error) {
	puzzle, exists := m.puzzles[id]
	if !exists {
		return nil, service.ErrPuzzleNotFound
	}
	return puzzle, nil
}

func (m *MockConfigManager) ListPuzzles() ([]*service.PuzzleInfo, error) {
	result := make([]*service.PuzzleInfo, 0, len(m.puzzles))
	for id, p := range m.puzzles {
		result = append(result, &service.PuzzleInfo{
			Filename: id + ".json",
			PuzzleID: id,
			Name:     p.Name,
			Level:    p.Level,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Level < result[j].Level })
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.Puzzle {
	return m.puzzles["one"]
}

func (m *MockConfigManager) SavePuzzle(id string, puzzle *engine.Puzzle) error {
	if err := engine.ValidatePuzzle(puzzle, m.catalog); err != nil {
		return err
	}
	m.saved[id] = puzzle
	return nil
}

func (m *MockConfigManager) NextPuzzle(id string) (*engine.Puzzle, error) {
	if id == "one" {
		return m.puzzles["two"], nil
	}
	return m.puzzles["one"], nil
}

func newTestService(t *testing.T) (service.GameService, *MockConfigManager) {
	t.Helper()
	configs := NewMockConfigManager()
	sessions := NewMockSessionManager(configs.Catalog())
	return service.NewGameService(sessions, configs), configs
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		puzzleID string
		wantID   string
		wantErr  bool
	}{
		{name: "create with default puzzle", puzzleID: "", wantID: "one"},
		{name: "create with specific puzzle", puzzleID: "two", wantID: "two"},
		{name: "create with unknown puzzle", puzzleID: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.CreateSession(ctx, tt.puzzleID)
			if (err != nil) != tt.wantErr {
				t.Errorf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), "Available puzzles") {
					t.Errorf("Expected available puzzles in error, got %v", err)
				}
				return
			}
			if session.PuzzleID != tt.wantID {
				t.Errorf("Expected puzzle %s, got %s", tt.wantID, session.PuzzleID)
			}
			if session.GameState == nil {
				t.Error("CreateSession() returned no game state")
			}
		})
	}

	sessions, _ := svc.ListSessions(ctx)
	if len(sessions) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(sessions))
	}
}

func TestGameService_PlaceAndVictory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, err := svc.CreateSession(ctx, "one")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	res, err := svc.Place(ctx, info.ID, service.PlaceRequest{PieceID: "sq", Row: 0, Col: 0})
	if err != nil {
		t.Fatalf("Place returned error: %v", err)
	}
	if !res.Success || res.Placement == nil {
		t.Fatalf("Expected successful placement, got %+v", res)
	}
	if len(res.Events) != 1 || res.Events[0].Type != "placed" {
		t.Errorf("Expected a single placed event, got %+v", res.Events)
	}

	// Overlapping placement is rejected with a reason code and no state change
	res, err = svc.Place(ctx, info.ID, service.PlaceRequest{PieceID: "dom", Row: 0, Col: 1})
	if err != nil {
		t.Fatalf("Place returned error: %v", err)
	}
	if res.Success || res.ReasonCode != service.ReasonInvalidPlacement {
		t.Errorf("Expected invalid_placement, got success=%v code=%q", res.Success, res.ReasonCode)
	}
	if res.GameState.EmptyCells != 2 {
		t.Errorf("Expected 2 empty cells, got %d", res.GameState.EmptyCells)
	}

	res, _ = svc.Place(ctx, info.ID, service.PlaceRequest{PieceID: "dom", Row: 0, Col: 2})
	if !res.Success || !res.GameState.Victory {
		t.Fatalf("Expected victory, got %+v", res)
	}
	last := res.Events[len(res.Events)-1]
	if last.Type != "victory" || last.Message != "Solved!" {
		t.Errorf("Expected victory event, got %+v", last)
	}

	if _, err := svc.Place(ctx, "nope", service.PlaceRequest{PieceID: "sq"}); err == nil {
		t.Error("Expected error for unknown session")
	}
}

func TestGameService_CheckPlacement(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, _ := svc.CreateSession(ctx, "one")

	tests := []struct {
		name      string
		req       service.PlaceRequest
		wantValid bool
		wantCode  string
		wantCells int
	}{
		{"fits", service.PlaceRequest{PieceID: "sq", Row: 0, Col: 1}, true, "", 4},
		{"leaves board", service.PlaceRequest{PieceID: "sq", Row: 1, Col: 0}, false, service.ReasonInvalidPlacement, 4},
		{"bad orientation", service.PlaceRequest{PieceID: "sq", OrientationIndex: 2}, false, service.ReasonInvalidOrientation, 0},
		{"unknown piece", service.PlaceRequest{PieceID: "zz"}, false, service.ReasonUnknownPiece, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := svc.CheckPlacement(ctx, info.ID, tt.req)
			if err != nil {
				t.Fatalf("CheckPlacement returned error: %v", err)
			}
			if check.Valid != tt.wantValid || check.ReasonCode != tt.wantCode {
				t.Errorf("Expected valid=%v code=%q, got valid=%v code=%q",
					tt.wantValid, tt.wantCode, check.Valid, check.ReasonCode)
			}
			if len(check.Cells) != tt.wantCells {
				t.Errorf("Expected %d cells, got %d", tt.wantCells, len(check.Cells))
			}
		})
	}

	state, _ := svc.GetGameState(ctx, info.ID)
	if len(state.Placements) != 0 || state.TotalActions != 0 {
		t.Error("Expected CheckPlacement to leave the session untouched")
	}
}

func TestGameService_RemovePickUpRelocate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, _ := svc.CreateSession(ctx, "one")

	res, _ := svc.Place(ctx, info.ID, service.PlaceRequest{PieceID: "dom", OrientationIndex: 1, Row: 0, Col: 0})
	if !res.Success {
		t.Fatalf("Setup place failed: %s", res.Message)
	}
	instance := res.Placement.InstanceID

	moved, _ := svc.Relocate(ctx, info.ID, instance, service.PlaceRequest{OrientationIndex: 1, Row: 1, Col: 1})
	if !moved.Success || moved.Events[0].Type != "relocated" {
		t.Fatalf("Expected relocation, got %+v", moved)
	}
	instance = moved.Placement.InstanceID

	picked, _ := svc.PickUp(ctx, info.ID, instance)
	if !picked.Success || picked.Removal.OrientationIndex != 1 {
		t.Fatalf("Expected pickup keeping orientation 1, got %+v", picked)
	}
	if picked.Events[0].Type != "picked_up" {
		t.Errorf("Expected picked_up event, got %s", picked.Events[0].Type)
	}

	again, _ := svc.Remove(ctx, info.ID, instance)
	if again.Success || again.ReasonCode != service.ReasonUnknownInstance {
		t.Errorf("Expected unknown_instance, got success=%v code=%q", again.Success, again.ReasonCode)
	}
}

func TestGameService_FixedPieceAndNextPuzzle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, _ := svc.CreateSession(ctx, "one")

	next, err := svc.NextPuzzle(ctx, info.ID)
	if err != nil {
		t.Fatalf("NextPuzzle failed: %v", err)
	}
	if next.PuzzleID != "two" {
		t.Fatalf("Expected puzzle two, got %s", next.PuzzleID)
	}
	if len(next.GameState.FixedInstances) != 1 {
		t.Fatalf("Expected one fixed instance, got %d", len(next.GameState.FixedInstances))
	}

	res, _ := svc.Remove(ctx, info.ID, next.GameState.FixedInstances[0])
	if res.Success || res.ReasonCode != service.ReasonFixedPiece {
		t.Errorf("Expected fixed_piece, got success=%v code=%q", res.Success, res.ReasonCode)
	}
}

func TestGameService_RotateFlip(t *testing.T) {
	ctx := context.Background()
	svc, configs := newTestService(t)
	configs.puzzles["ell"] = &engine.Puzzle{
		ID: "ell", Name: "Ell", Level: 3, Rows: 3, Cols: 3,
		PiecesLeft: []string{"ell"},
	}
	info, _ := svc.CreateSession(ctx, "ell")

	res, err := svc.Rotate(ctx, info.ID, "ell")
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}
	if !res.Success || res.TrayPiece == nil || res.TrayPiece.OrientationIndex != 1 {
		t.Fatalf("Expected tray piece at orientation 1, got %+v", res.TrayPiece)
	}
	if res.TrayPiece.OrientationCount != 8 {
		t.Errorf("Expected 8 orientations, got %d", res.TrayPiece.OrientationCount)
	}

	res, _ = svc.Flip(ctx, info.ID, "ell")
	if !res.Success || res.Events[0].Type != "flipped" {
		t.Errorf("Expected flipped event, got %+v", res.Events)
	}

	res, _ = svc.Rotate(ctx, info.ID, "sq")
	if res.Success || res.ReasonCode != service.ReasonPieceNotInTray {
		t.Errorf("Expected piece_not_in_tray, got success=%v code=%q", res.Success, res.ReasonCode)
	}
}

func TestGameService_ResetAndHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, _ := svc.CreateSession(ctx, "one")

	svc.Place(ctx, info.ID, service.PlaceRequest{PieceID: "sq", Row: 0, Col: 0})
	svc.Rotate(ctx, info.ID, "dom")
	svc.Place(ctx, info.ID, service.PlaceRequest{PieceID: "dom", Row: 0, Col: 2})

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if len(state.Placements) != 0 || state.TotalActions != 3 {
		t.Errorf("Expected empty board and 3 recorded actions, got %d and %d", len(state.Placements), state.TotalActions)
	}

	tests := []struct {
		name       string
		opts       service.HistoryOptions
		wantFirst  int
		wantCount  int
		wantPages  int
		wantHasNxt bool
	}{
		{"default desc", service.HistoryOptions{}, 3, 3, 1, false},
		{"asc", service.HistoryOptions{Order: "asc"}, 1, 3, 1, false},
		{"paged desc", service.HistoryOptions{Limit: 2, Page: 1}, 3, 2, 2, true},
		{"second page", service.HistoryOptions{Limit: 2, Page: 2}, 1, 1, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := svc.GetHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetHistory failed: %v", err)
			}
			if len(history.Actions) != tt.wantCount {
				t.Fatalf("Expected %d actions, got %d", tt.wantCount, len(history.Actions))
			}
			if history.Actions[0].ActionNumber != tt.wantFirst {
				t.Errorf("Expected first action %d, got %d", tt.wantFirst, history.Actions[0].ActionNumber)
			}
			if history.TotalPages != tt.wantPages || history.HasNext != tt.wantHasNxt {
				t.Errorf("Expected %d pages hasNext=%v, got %d hasNext=%v",
					tt.wantPages, tt.wantHasNxt, history.TotalPages, history.HasNext)
			}
		})
	}
}

func TestGameService_Catalog(t *testing.T) {
	ctx := context.Background()
	svc, configs := newTestService(t)

	pieces, err := svc.ListPieces(ctx)
	if err != nil {
		t.Fatalf("ListPieces failed: %v", err)
	}
	if len(pieces) != 3 || pieces[0].ID != "sq" || pieces[2].OrientationCount != 8 {
		t.Errorf("Unexpected pieces %+v", pieces)
	}

	puzzles, _ := svc.ListPuzzles(ctx)
	if len(puzzles) != 2 || puzzles[0].PuzzleID != "one" {
		t.Errorf("Unexpected puzzles %+v", puzzles)
	}

	bad := &engine.Puzzle{Name: "Bad", PiecesLeft: []string{"missing"}}
	if err := svc.SavePuzzle(ctx, "bad", bad); !errors.Is(err, engine.ErrInvalidPuzzle) {
		t.Errorf("Expected ErrInvalidPuzzle, got %v", err)
	}
	good := &engine.Puzzle{Name: "Good", Rows: 1, Cols: 2, PiecesLeft: []string{"dom"}}
	if err := svc.SavePuzzle(ctx, "good", good); err != nil {
		t.Errorf("SavePuzzle failed: %v", err)
	}
	if configs.saved["good"] != good {
		t.Error("Expected puzzle to reach the config manager")
	}
}

func TestGameService_DeleteSession(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	info, _ := svc.CreateSession(ctx, "")

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); err == nil {
		t.Error("Expected error getting deleted session")
	}
}

func TestGameService_ConcurrentReads(t *testing.T) {
	ctx := context.Background()

	configs, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(configs.Catalog()), configs)

	info, err := svc.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got, err := svc.GetSession(ctx, info.ID)
				if err != nil {
					t.Errorf("GetSession() error = %v", err)
					return
				}
				if got.LastAccessedAt.IsZero() {
					t.Error("Expected last access time to be set")
					return
				}
				if _, err := svc.GetGameState(ctx, info.ID); err != nil {
					t.Errorf("GetGameState() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	sessions, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("Expected 1 session, got %d", len(sessions))
	}
}

func TestGameService_NotFoundErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.GetSession(ctx, "zzzz"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.GetHistory(ctx, "zzzz", service.HistoryOptions{}); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound from history, got %v", err)
	}
	if _, err := svc.CreateSession(ctx, "nonexistent"); !errors.Is(err, service.ErrPuzzleNotFound) {
		t.Errorf("Expected ErrPuzzleNotFound, got %v", err)
	}

	// The managers share the service sentinels
	if !errors.Is(session.ErrSessionNotFound, service.ErrSessionNotFound) {
		t.Error("Expected session.ErrSessionNotFound to match service.ErrSessionNotFound")
	}
	if !errors.Is(config.ErrPuzzleNotFound, service.ErrPuzzleNotFound) {
		t.Error("Expected config.ErrPuzzleNotFound to match service.ErrPuzzleNotFound")
	}
}
