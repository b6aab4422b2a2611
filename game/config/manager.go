package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/polytile/game/engine"
	"github.com/wricardo/mcp-training/polytile/game/service"
)

var (
	ErrPuzzleNotFound = service.ErrPuzzleNotFound
	ErrInvalidPuzzle  = errors.New("invalid puzzle")
)

const (
	// PiecesFile optionally overrides the built-in piece set
	PiecesFile = "pieces.json"

	// DefaultPuzzleID is tried first when choosing the default puzzle
	DefaultPuzzleID = "level_01"
)

// Manager handles piece catalog and puzzle loading and caching
type Manager struct {
	configDir     string
	catalog       *engine.Catalog
	defaultPuzzle *engine.Puzzle
	puzzles       map[string]*engine.Puzzle
	mu            sync.RWMutex
}

// NewManager creates a new puzzle manager over configDir
func NewManager(configDir string) (*Manager, error) {
	// Ensure config directory exists
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	catalog, err := LoadCatalog(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load pieces: %w", err)
	}

	m := &Manager{
		configDir: configDir,
		catalog:   catalog,
		puzzles:   make(map[string]*engine.Puzzle),
	}

	if err := m.loadDefaultPuzzle(); err != nil {
		return nil, fmt.Errorf("failed to load default puzzle: %w", err)
	}

	return m, nil
}

// LoadCatalog reads pieces.json from dir, falling back to the built-in set
// when the file is absent.
func LoadCatalog(dir string) (*engine.Catalog, error) {
	data, err := os.ReadFile(filepath.Join(dir, PiecesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return engine.DefaultCatalog(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", PiecesFile, err)
	}

	var defs []engine.PieceDefinition
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", PiecesFile, err)
	}
	return engine.NewCatalog(defs)
}

// Catalog returns the piece catalog shared by every puzzle
func (m *Manager) Catalog() *engine.Catalog {
	return m.catalog
}

// LoadPuzzle loads a puzzle by ID, the file name without .json
func (m *Manager) LoadPuzzle(id string) (*engine.Puzzle, error) {
	id = strings.TrimSuffix(id, ".json")

	m.mu.RLock()
	// Check cache first
	if puzzle, exists := m.puzzles[id]; exists {
		m.mu.RUnlock()
		return puzzle, nil
	}
	m.mu.RUnlock()

	// Load from file
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if puzzle, exists := m.puzzles[id]; exists {
		return puzzle, nil
	}

	path, err := m.puzzlePath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrPuzzleNotFound, id)
		}
		return nil, fmt.Errorf("failed to read puzzle file: %w", err)
	}

	var puzzle engine.Puzzle
	if err := json.Unmarshal(data, &puzzle); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidPuzzle, id, err)
	}
	puzzle.ID = id

	if err := engine.ValidatePuzzle(&puzzle, m.catalog); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPuzzle, id, err)
	}

	m.puzzles[id] = &puzzle
	return &puzzle, nil
}

// ListPuzzles returns every valid puzzle in the directory ordered by level
func (m *Manager) ListPuzzles() ([]*service.PuzzleInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var puzzles []*service.PuzzleInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") || entry.Name() == PiecesFile {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		puzzle, err := m.LoadPuzzle(id)
		if err != nil {
			// Skip invalid puzzles
			continue
		}

		rows, cols := puzzle.Dimensions()
		puzzles = append(puzzles, &service.PuzzleInfo{
			Filename:     entry.Name(),
			PuzzleID:     id,
			Name:         puzzle.Name,
			Description:  puzzle.Description,
			Level:        puzzle.Level,
			Rows:         rows,
			Cols:         cols,
			BlockedCells: len(puzzle.BlockedCells),
			StartPieces:  len(puzzle.StartPieces),
			TrayPieces:   len(puzzle.PiecesLeft),
		})
	}

	sort.SliceStable(puzzles, func(i, j int) bool {
		if puzzles[i].Level != puzzles[j].Level {
			return puzzles[i].Level < puzzles[j].Level
		}
		return puzzles[i].PuzzleID < puzzles[j].PuzzleID
	})

	return puzzles, nil
}

// NextPuzzle returns the puzzle after id in level order, wrapping around to
// the first one. An unknown id also yields the first puzzle.
func (m *Manager) NextPuzzle(id string) (*engine.Puzzle, error) {
	puzzles, err := m.ListPuzzles()
	if err != nil {
		return nil, err
	}
	if len(puzzles) == 0 {
		return m.GetDefault(), nil
	}

	next := puzzles[0]
	for i, p := range puzzles {
		if p.PuzzleID == id {
			next = puzzles[(i+1)%len(puzzles)]
			break
		}
	}
	return m.LoadPuzzle(next.PuzzleID)
}

// GetDefault returns the default puzzle
func (m *Manager) GetDefault() *engine.Puzzle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPuzzle
}

// SetDefault sets the default puzzle by ID
func (m *Manager) SetDefault(id string) error {
	puzzle, err := m.LoadPuzzle(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPuzzle = puzzle
	return nil
}

// RefreshCache drops every cached puzzle and reloads the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.puzzles = make(map[string]*engine.Puzzle)
	m.mu.Unlock()

	return m.loadDefaultPuzzle()
}

// SavePuzzle validates a puzzle and writes it to <id>.json
func (m *Manager) SavePuzzle(id string, puzzle *engine.Puzzle) error {
	id = strings.TrimSuffix(id, ".json")

	if err := engine.ValidatePuzzle(puzzle, m.catalog); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPuzzle, err)
	}

	path, err := m.puzzlePath(id)
	if err != nil {
		return err
	}

	stored := *puzzle
	stored.ID = id

	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal puzzle: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write puzzle file: %w", err)
	}

	m.mu.Lock()
	m.puzzles[id] = &stored
	m.mu.Unlock()

	return nil
}

// loadDefaultPuzzle picks level_01, else the first listed puzzle, else the
// built-in puzzle
func (m *Manager) loadDefaultPuzzle() error {
	puzzle, err := m.LoadPuzzle(DefaultPuzzleID)
	if err != nil {
		puzzles, listErr := m.ListPuzzles()
		if listErr == nil && len(puzzles) > 0 {
			puzzle, err = m.LoadPuzzle(puzzles[0].PuzzleID)
		}
	}

	if err != nil {
		puzzle = engine.DefaultPuzzle()
		if verr := engine.ValidatePuzzle(puzzle, m.catalog); verr != nil {
			return fmt.Errorf("no usable puzzle in %s: %w", m.configDir, verr)
		}
	}

	m.mu.Lock()
	m.defaultPuzzle = puzzle
	m.mu.Unlock()
	return nil
}

// puzzlePath maps a puzzle ID to its file, rejecting IDs that would escape
// the config directory.
func (m *Manager) puzzlePath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: bad puzzle id %q", ErrPuzzleNotFound, id)
	}
	if id+".json" == PiecesFile {
		return "", fmt.Errorf("%w: %q is reserved", ErrPuzzleNotFound, id)
	}
	return filepath.Join(m.configDir, id+".json"), nil
}
