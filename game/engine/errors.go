package engine

import "errors"

// Load-time errors describe a malformed piece or puzzle definition and abort
// construction. Runtime errors are recoverable and never change state.
var (
	ErrInvalidShape  = errors.New("invalid shape")
	ErrOutOfBounds   = errors.New("coordinate out of bounds")
	ErrInvalidPuzzle = errors.New("invalid puzzle")
	ErrUnknownPiece  = errors.New("unknown piece")

	ErrInvalidPlacement   = errors.New("invalid placement")
	ErrUnknownInstance    = errors.New("unknown instance")
	ErrPieceNotInTray     = errors.New("piece not in tray")
	ErrInvalidOrientation = errors.New("invalid orientation index")
	ErrFixedPiece         = errors.New("piece is fixed by the puzzle")
)
