// Package service provides the business logic layer for the Polytile puzzle.
//
// The service package implements:
//   - Multi-session puzzle management
//   - Puzzle and piece catalog access
//   - Placement, removal, relocation and reorientation of pieces
//   - Session lifecycle management
//   - Action history tracking
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level puzzle operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager loads puzzles and exposes the shared piece catalog.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the puzzle engine. Each session owns its own engine.GameEngine. Mutating
// operations hold the service write lock, so every action is atomic with
// respect to concurrent callers.
//
// Usage:
//
//	configMgr, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	sessionMgr := session.NewManager(configMgr.Catalog())
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "level_01")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Place(ctx, info.ID, service.PlaceRequest{
//		PieceID: "o-tetra-o", OrientationIndex: 0, Row: 1, Col: 1,
//	})
//
// Rejected Actions:
//
// A placement that does not fit, an unknown instance or a piece that is not
// in the tray is not an error. The returned ActionResult has Success false
// and a ReasonCode; the board is left unchanged. Errors are reserved for
// missing sessions and puzzles.
package service
