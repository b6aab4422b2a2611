// Package engine provides the core rules of the polyomino puzzle.
//
// A puzzle is a rectangular board (7×7 for every shipped level) with a few
// blocked cells. The player fills the remaining cells with pieces from a
// tray. Each piece is a polyomino whose orientations are generated once from
// its base shape under rotation and reflection and then addressed by index.
//
// Core Types:
//
// OrientationSet holds the distinct orientations of a Footprint. Catalog maps
// piece ids to their definitions and orientation sets. Board tracks which
// placed instance occupies each cell and commits placements all-or-nothing.
// GameEngine wraps a Board with the session rules: the tray, fixed start
// pieces, victory and the action history.
//
// Usage:
//
//	catalog := engine.DefaultCatalog()
//	gameEngine, err := engine.NewEngine(catalog, engine.DefaultPuzzle())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	placement, err := gameEngine.Place("o-tetra-o", 0, 5, 0)
//	if errors.Is(err, engine.ErrInvalidPlacement) {
//		// board unchanged
//	}
//	_, _ = gameEngine.Remove(placement.InstanceID)
//
// Engines are not safe for concurrent use; the service layer serializes
// access to each session.
package engine
