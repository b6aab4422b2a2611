package engine

import (
	"fmt"
)

// PieceDefinition is the immutable blueprint of a piece
type PieceDefinition struct {
	ID        string    `json:"id"`
	Color     string    `json:"color"`
	BaseShape Footprint `json:"base_shape"`
}

// Piece is a definition together with its generated orientations
type Piece struct {
	Definition   PieceDefinition
	Orientations OrientationSet
}

// Catalog is the shared, read-only set of pieces known to the game
type Catalog struct {
	pieces map[string]*Piece
	order  []string
}

// NewCatalog validates the definitions and generates every orientation set
func NewCatalog(defs []PieceDefinition) (*Catalog, error) {
	c := &Catalog{pieces: make(map[string]*Piece, len(defs))}

	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("%w: piece id is required", ErrInvalidShape)
		}
		if _, exists := c.pieces[def.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate piece id %q", ErrInvalidShape, def.ID)
		}

		orientations, err := GenerateOrientations(def.BaseShape)
		if err != nil {
			return nil, fmt.Errorf("piece %q: %w", def.ID, err)
		}

		def.BaseShape = def.BaseShape.Clone()
		c.pieces[def.ID] = &Piece{Definition: def, Orientations: orientations}
		c.order = append(c.order, def.ID)
	}

	return c, nil
}

// Get returns the piece with the given id
func (c *Catalog) Get(id string) (*Piece, error) {
	piece, ok := c.pieces[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPiece, id)
	}
	return piece, nil
}

// IDs returns the piece ids in definition order
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of pieces
func (c *Catalog) Len() int {
	return len(c.order)
}

// Footprint returns the orientation of a piece at the given index
func (c *Catalog) Footprint(pieceID string, orientationIndex int) (Footprint, error) {
	piece, err := c.Get(pieceID)
	if err != nil {
		return nil, err
	}
	f, ok := piece.Orientations.At(orientationIndex)
	if !ok {
		return nil, fmt.Errorf("%w: piece %s has %d orientations, got index %d",
			ErrInvalidOrientation, pieceID, piece.Orientations.Len(), orientationIndex)
	}
	return f, nil
}

// DefaultPieceDefinitions returns the standard set of four tetrominoes and
// six pentominoes (46 cells in total, leaving three cells of a 7×7 board).
func DefaultPieceDefinitions() []PieceDefinition {
	return []PieceDefinition{
		{ID: "z-tetra-y", Color: "color-yellow", BaseShape: Footprint{{1, 1, 0}, {0, 1, 1}}},
		{ID: "t-tetra-p", Color: "color-purple", BaseShape: Footprint{{1, 1, 1}, {0, 1, 0}}},
		{ID: "j-tetra-db", Color: "color-d-blue", BaseShape: Footprint{{0, 1}, {0, 1}, {1, 1}}},
		{ID: "o-tetra-o", Color: "color-orange", BaseShape: Footprint{{1, 1}, {1, 1}}},
		{ID: "z-pento-lb", Color: "color-l-blue", BaseShape: Footprint{{1, 1, 0}, {0, 1, 0}, {0, 1, 1}}},
		{ID: "x-pento-pk", Color: "color-pink", BaseShape: Footprint{{0, 1, 0}, {1, 1, 1}, {0, 1, 0}}},
		{ID: "f-pento-bo", Color: "color-b-orange", BaseShape: Footprint{{0, 1, 1}, {1, 1, 0}, {0, 1, 0}}},
		{ID: "u-pento-dg", Color: "color-d-green", BaseShape: Footprint{{1, 0, 1}, {1, 1, 1}}},
		{ID: "z-pento-r", Color: "color-red", BaseShape: Footprint{{1, 1, 0}, {0, 1, 0}, {0, 1, 1}}},
		{ID: "t-pento-lg", Color: "color-l-green", BaseShape: Footprint{{1, 1, 1}, {0, 1, 0}, {0, 1, 0}}},
	}
}

// DefaultCatalog builds the catalog of the standard piece set
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(DefaultPieceDefinitions())
	if err != nil {
		// The built-in definitions are constant and always valid
		panic(err)
	}
	return catalog
}
