package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// StartPiece is a piece committed by the puzzle itself before play begins.
// Start pieces cannot be removed by the player.
type StartPiece struct {
	PieceID    string `json:"id"`
	ShapeIndex int    `json:"shape_index"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
}

// PuzzleMessages holds the optional texts shown to the player
type PuzzleMessages struct {
	Welcome string `json:"welcome,omitempty"`
	Victory string `json:"victory,omitempty"`
}

// Puzzle represents one puzzle layout loaded from JSON
type Puzzle struct {
	ID           string         `json:"id,omitempty"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Level        int            `json:"level"`
	Rows         int            `json:"rows,omitempty"`
	Cols         int            `json:"cols,omitempty"`
	BlockedCells [][2]int       `json:"blocked_cells"`
	StartPieces  []StartPiece   `json:"start_pieces"`
	PiecesLeft   []string       `json:"pieces_left"`
	Messages     PuzzleMessages `json:"messages"`
}

// Dimensions returns the board size, defaulting to 7×7 when unset
func (p *Puzzle) Dimensions() (int, int) {
	rows, cols := p.Rows, p.Cols
	if rows == 0 {
		rows = DefaultRows
	}
	if cols == 0 {
		cols = DefaultCols
	}
	return rows, cols
}

// Blocked returns the blocked cells as coordinates
func (p *Puzzle) Blocked() []Coord {
	coords := make([]Coord, 0, len(p.BlockedCells))
	for _, cell := range p.BlockedCells {
		coords = append(coords, Coord{Row: cell[0], Col: cell[1]})
	}
	return coords
}

// ValidatePuzzle checks a puzzle against the catalog. Any failure means the
// puzzle definition is malformed and must not be loaded.
func ValidatePuzzle(p *Puzzle, catalog *Catalog) error {
	if p == nil {
		return fmt.Errorf("%w: puzzle is nil", ErrInvalidPuzzle)
	}
	if catalog == nil {
		return fmt.Errorf("%w: catalog is nil", ErrInvalidPuzzle)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPuzzle)
	}

	rows, cols := p.Dimensions()
	if rows < MinGridSize || rows > MaxGridSize || cols < MinGridSize || cols > MaxGridSize {
		return fmt.Errorf("%w: board must be between %d and %d cells per side, got %dx%d",
			ErrInvalidPuzzle, MinGridSize, MaxGridSize, rows, cols)
	}

	seen := make(map[Coord]bool)
	for _, coord := range p.Blocked() {
		if seen[coord] {
			return fmt.Errorf("%w: blocked cell (%d,%d) listed twice", ErrInvalidPuzzle, coord.Row, coord.Col)
		}
		seen[coord] = true
	}

	// Building the board checks blocked cells and start pieces in one pass
	if _, _, err := buildBoard(p, catalog); err != nil {
		return err
	}

	if len(p.PiecesLeft) == 0 {
		return fmt.Errorf("%w: pieces_left must list at least one piece", ErrInvalidPuzzle)
	}
	inTray := make(map[string]bool)
	for _, id := range p.PiecesLeft {
		if _, err := catalog.Get(id); err != nil {
			return fmt.Errorf("%w: pieces_left: %v", ErrInvalidPuzzle, err)
		}
		if inTray[id] {
			return fmt.Errorf("%w: piece %q listed twice in pieces_left", ErrInvalidPuzzle, id)
		}
		inTray[id] = true
	}

	return nil
}

// buildBoard creates the puzzle's board and commits its start pieces. It
// returns the board and the instance ids of the start pieces.
func buildBoard(p *Puzzle, catalog *Catalog) (*Board, []string, error) {
	rows, cols := p.Dimensions()
	board, err := NewBoard(rows, cols, p.Blocked())
	if err != nil {
		return nil, nil, err
	}

	fixed := make([]string, 0, len(p.StartPieces))
	for i, start := range p.StartPieces {
		footprint, err := catalog.Footprint(start.PieceID, start.ShapeIndex)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: start piece %d: %v", ErrInvalidPuzzle, i+1, err)
		}
		for _, cell := range footprint.Cells() {
			if !board.InBounds(start.Row+cell.Row, start.Col+cell.Col) {
				return nil, nil, fmt.Errorf("%w: start piece %d (%s) at (%d,%d) leaves the %dx%d board",
					ErrOutOfBounds, i+1, start.PieceID, start.Row, start.Col, rows, cols)
			}
		}
		placement, err := board.Place(footprint, start.PieceID, start.ShapeIndex, start.Row, start.Col)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: start piece %d (%s) does not fit at (%d,%d)",
				ErrInvalidPuzzle, i+1, start.PieceID, start.Row, start.Col)
		}
		fixed = append(fixed, placement.InstanceID)
	}

	return board, fixed, nil
}

// CellBalance counts blocked cells, cells covered by start pieces and cells
// needed by the tray. A puzzle that can be filled exactly has
// blocked+fixed+tray equal to the board area.
func CellBalance(p *Puzzle, catalog *Catalog) (blocked, fixed, tray, area int, err error) {
	rows, cols := p.Dimensions()
	area = rows * cols
	blocked = len(p.BlockedCells)

	for _, start := range p.StartPieces {
		footprint, ferr := catalog.Footprint(start.PieceID, start.ShapeIndex)
		if ferr != nil {
			return 0, 0, 0, 0, ferr
		}
		fixed += footprint.CellCount()
	}
	for _, id := range p.PiecesLeft {
		footprint, ferr := catalog.Footprint(id, 0)
		if ferr != nil {
			return 0, 0, 0, 0, ferr
		}
		tray += footprint.CellCount()
	}

	return blocked, fixed, tray, area, nil
}

// LoadPuzzleFile loads and validates a puzzle from a JSON file
func LoadPuzzleFile(filename string, catalog *Catalog) (*Puzzle, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var puzzle Puzzle
	if err := json.Unmarshal(data, &puzzle); err != nil {
		return nil, fmt.Errorf("failed to parse puzzle file '%s': %w", filename, err)
	}

	if err := ValidatePuzzle(&puzzle, catalog); err != nil {
		return nil, err
	}

	return &puzzle, nil
}

// DefaultPuzzle returns the built-in first level: three blocked cells on the
// main diagonal and the full ten-piece tray.
func DefaultPuzzle() *Puzzle {
	return &Puzzle{
		ID:           "level_01",
		Name:         "Puzzle #1",
		Description:  "Three blocked cells on the diagonal, all ten pieces in the tray",
		Level:        1,
		Rows:         DefaultRows,
		Cols:         DefaultCols,
		BlockedCells: [][2]int{{0, 0}, {3, 3}, {6, 6}},
		StartPieces:  []StartPiece{},
		PiecesLeft: []string{
			"z-tetra-y", "t-tetra-p", "j-tetra-db", "o-tetra-o", "z-pento-lb",
			"x-pento-pk", "f-pento-bo", "u-pento-dg", "z-pento-r", "t-pento-lg",
		},
		Messages: PuzzleMessages{
			Welcome: "Fill the board with every piece from the tray.",
			Victory: "Puzzle solved!",
		},
	}
}
