// Package config loads the piece catalog and puzzle definitions from a
// directory of JSON files.
//
// Directory Layout:
//
//	configs/
//	  pieces.json     optional; replaces the built-in ten-piece set
//	  level_01.json   one file per puzzle, the file name is the puzzle ID
//	  level_02.json
//
// A puzzle file lists its blocked cells, the start pieces committed before
// play and the pieces left in the tray:
//
//	{
//	  "name": "Puzzle #2",
//	  "level": 2,
//	  "blocked_cells": [[0,6],[3,3],[6,0]],
//	  "start_pieces": [{"id": "o-tetra-o", "shape_index": 0, "row": 0, "col": 0}],
//	  "pieces_left": ["z-tetra-y", "t-tetra-p"]
//	}
//
// Every puzzle is validated against the catalog when it is loaded; files
// that fail validation are skipped by ListPuzzles and rejected by
// LoadPuzzle with ErrInvalidPuzzle.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	puzzle, err := manager.LoadPuzzle("level_02")
//	next, err := manager.NextPuzzle(puzzle.ID)
package config
