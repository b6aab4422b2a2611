package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/polytile/game/engine"
)

// Lookup failures shared by the session and config managers
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrPuzzleNotFound  = errors.New("puzzle not found")
)

// GameService defines all puzzle-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, puzzleID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Board Operations
	Place(ctx context.Context, sessionID string, req PlaceRequest) (*ActionResult, error)
	CheckPlacement(ctx context.Context, sessionID string, req PlaceRequest) (*PlacementCheck, error)
	Remove(ctx context.Context, sessionID, instanceID string) (*ActionResult, error)
	PickUp(ctx context.Context, sessionID, instanceID string) (*ActionResult, error)
	Relocate(ctx context.Context, sessionID, instanceID string, req PlaceRequest) (*ActionResult, error)

	// Tray Operations
	Rotate(ctx context.Context, sessionID, pieceID string) (*ActionResult, error)
	Flip(ctx context.Context, sessionID, pieceID string) (*ActionResult, error)

	// Puzzle Flow
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)
	NextPuzzle(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Catalog
	ListPuzzles(ctx context.Context) ([]*PuzzleInfo, error)
	LoadPuzzle(ctx context.Context, puzzleID string) (*engine.Puzzle, error)
	SavePuzzle(ctx context.Context, puzzleID string, puzzle *engine.Puzzle) error
	ListPieces(ctx context.Context) ([]*PieceInfo, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, puzzle *engine.Puzzle) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, puzzle *engine.Puzzle) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles piece catalog and puzzle loading
type ConfigManager interface {
	Catalog() *engine.Catalog
	LoadPuzzle(id string) (*engine.Puzzle, error)
	ListPuzzles() ([]*PuzzleInfo, error)
	GetDefault() *engine.Puzzle
	SavePuzzle(id string, puzzle *engine.Puzzle) error
	NextPuzzle(id string) (*engine.Puzzle, error)
}

// Session represents an active puzzle session. The engine is guarded by the
// game service; the last access time has its own lock because readers
// touch it concurrently.
type Session struct {
	ID        string
	Engine    *engine.GameEngine
	CreatedAt time.Time

	accessMu     sync.Mutex
	lastAccessed time.Time
}

// Touch records t as the last access time
func (s *Session) Touch(t time.Time) {
	s.accessMu.Lock()
	s.lastAccessed = t
	s.accessMu.Unlock()
}

// LastAccessed returns the last access time
func (s *Session) LastAccessed() time.Time {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()
	return s.lastAccessed
}
