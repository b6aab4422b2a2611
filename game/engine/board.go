package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Board is a fixed-size grid of cells that tracks which placed piece
// instance occupies each cell. It performs no locking; callers serialize
// access.
type Board struct {
	rows       int
	cols       int
	cells      [][]Cell
	placements map[string]*Placement
	order      []string // instance ids in commit order
	newID      func() string
}

// NewBoard creates a rows×cols board with the given cells blocked
func NewBoard(rows, cols int, blocked []Coord) (*Board, error) {
	if rows < MinGridSize || cols < MinGridSize {
		return nil, fmt.Errorf("%w: board size %dx%d", ErrOutOfBounds, rows, cols)
	}

	cells := make([][]Cell, rows)
	for r := range cells {
		cells[r] = make([]Cell, cols)
		for c := range cells[r] {
			cells[r][c] = Cell{State: Empty}
		}
	}

	for _, coord := range blocked {
		if coord.Row < 0 || coord.Row >= rows || coord.Col < 0 || coord.Col >= cols {
			return nil, fmt.Errorf("%w: blocked cell (%d,%d) outside %dx%d board",
				ErrOutOfBounds, coord.Row, coord.Col, rows, cols)
		}
		cells[coord.Row][coord.Col] = Cell{State: Blocked}
	}

	return &Board{
		rows:       rows,
		cols:       cols,
		cells:      cells,
		placements: make(map[string]*Placement),
		newID:      func() string { return uuid.New().String() },
	}, nil
}

// Rows returns the board height
func (b *Board) Rows() int {
	return b.rows
}

// Cols returns the board width
func (b *Board) Cols() int {
	return b.cols
}

// InBounds reports whether the coordinate lies on the board
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// CellAt returns the cell at the given coordinate
func (b *Board) CellAt(row, col int) (Cell, bool) {
	if !b.InBounds(row, col) {
		return Cell{}, false
	}
	return b.cells[row][col], true
}

// CanPlace reports whether every filled cell of f, anchored at (row, col),
// lands on an empty cell inside the board. Malformed footprints never fit.
func (b *Board) CanPlace(f Footprint, row, col int) bool {
	if f.Validate() != nil {
		return false
	}
	for r, line := range f {
		for c, v := range line {
			if v != 1 {
				continue
			}
			boardRow, boardCol := row+r, col+c
			if !b.InBounds(boardRow, boardCol) {
				return false
			}
			if b.cells[boardRow][boardCol].State != Empty {
				return false
			}
		}
	}
	return true
}

// Place commits f at (row, col) under a fresh instance id. Either every
// covered cell becomes occupied or nothing changes: a malformed footprint
// fails with ErrInvalidShape, one that does not fit with ErrInvalidPlacement.
func (b *Board) Place(f Footprint, pieceID string, orientationIndex, row, col int) (*Placement, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("piece %s: %w", pieceID, err)
	}
	if !b.CanPlace(f, row, col) {
		return nil, fmt.Errorf("%w: piece %s orientation %d at (%d,%d)",
			ErrInvalidPlacement, pieceID, orientationIndex, row, col)
	}

	placement := &Placement{
		InstanceID:       b.newID(),
		PieceID:          pieceID,
		OrientationIndex: orientationIndex,
		AnchorRow:        row,
		AnchorCol:        col,
	}

	for _, cell := range f.Cells() {
		boardRow, boardCol := row+cell.Row, col+cell.Col
		b.cells[boardRow][boardCol] = Cell{
			State:            Occupied,
			InstanceID:       placement.InstanceID,
			PieceID:          pieceID,
			OrientationIndex: orientationIndex,
		}
		placement.Cells = append(placement.Cells, Coord{Row: boardRow, Col: boardCol})
	}

	b.placements[placement.InstanceID] = placement
	b.order = append(b.order, placement.InstanceID)

	return copyPlacement(placement), nil
}

// Remove clears every cell occupied by the given instance and returns the
// piece that was there.
func (b *Board) Remove(instanceID string) (Removal, error) {
	var removal Removal
	found := false

	for r := range b.cells {
		for c := range b.cells[r] {
			cell := b.cells[r][c]
			if cell.State != Occupied || cell.InstanceID != instanceID {
				continue
			}
			if !found {
				removal = Removal{PieceID: cell.PieceID, OrientationIndex: cell.OrientationIndex}
				found = true
			}
			b.cells[r][c] = Cell{State: Empty}
		}
	}

	if !found {
		return Removal{}, fmt.Errorf("%w: %s", ErrUnknownInstance, instanceID)
	}

	delete(b.placements, instanceID)
	for i, id := range b.order {
		if id == instanceID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}

	return removal, nil
}

// Placement returns a copy of the record for the given instance
func (b *Board) Placement(instanceID string) (*Placement, bool) {
	p, ok := b.placements[instanceID]
	if !ok {
		return nil, false
	}
	return copyPlacement(p), true
}

// OccupiedInstances returns every live placement in commit order
func (b *Board) OccupiedInstances() []Placement {
	result := make([]Placement, 0, len(b.order))
	for _, id := range b.order {
		result = append(result, *copyPlacement(b.placements[id]))
	}
	return result
}

// PlacedPieceIDs returns the piece id of every live placement in commit order
func (b *Board) PlacedPieceIDs() []string {
	ids := make([]string, 0, len(b.order))
	for _, id := range b.order {
		ids = append(ids, b.placements[id].PieceID)
	}
	return ids
}

// IsSolved reports whether every required piece id is currently on the
// board. Required ids are counted, so a piece listed twice must be placed
// twice.
func (b *Board) IsSolved(required []string) bool {
	placed := make(map[string]int)
	for _, id := range b.PlacedPieceIDs() {
		placed[id]++
	}
	for _, id := range required {
		if placed[id] == 0 {
			return false
		}
		placed[id]--
	}
	return true
}

// EmptyCount returns the number of empty cells
func (b *Board) EmptyCount() int {
	return CountCellState(b.cells, Empty)
}

// IsFull reports whether no empty cell remains
func (b *Board) IsFull() bool {
	return b.EmptyCount() == 0
}

// Snapshot returns a deep copy of the grid
func (b *Board) Snapshot() [][]Cell {
	grid := make([][]Cell, b.rows)
	for r := range b.cells {
		grid[r] = append([]Cell(nil), b.cells[r]...)
	}
	return grid
}

func copyPlacement(p *Placement) *Placement {
	cp := *p
	cp.Cells = append([]Coord(nil), p.Cells...)
	return &cp
}

// canPlaceOver is CanPlace treating the cells of instanceID as empty
func (b *Board) canPlaceOver(f Footprint, row, col int, instanceID string) bool {
	for _, cell := range f.Cells() {
		boardRow, boardCol := row+cell.Row, col+cell.Col
		if !b.InBounds(boardRow, boardCol) {
			return false
		}
		current := b.cells[boardRow][boardCol]
		if current.State == Empty {
			continue
		}
		if current.State != Occupied || current.InstanceID != instanceID {
			return false
		}
	}
	return f.CellCount() > 0
}
