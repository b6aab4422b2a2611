// Package api exposes the puzzle service over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session ({"puzzle_id": "level_02"}, optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&puzzle=ID)
//   - GET /api/sessions/{id} - Session details with board state
//   - DELETE /api/sessions/{id} - Delete a session
//   - GET /api/sessions/{id}/state - Current board state
//   - GET /api/sessions/{id}/history - Action history (?page=1&limit=20&order=desc)
//
// Board:
//   - POST /api/sessions/{id}/place - Place a tray piece
//   - POST /api/sessions/{id}/check - Test a placement without committing it
//   - DELETE /api/sessions/{id}/placements/{instance} - Return a piece to the tray
//   - POST /api/sessions/{id}/placements/{instance}/pickup - Return it keeping its orientation
//   - POST /api/sessions/{id}/placements/{instance}/move - Move a placed piece
//
// Tray:
//   - POST /api/sessions/{id}/tray/{piece}/rotate
//   - POST /api/sessions/{id}/tray/{piece}/flip
//
// Puzzle flow:
//   - POST /api/sessions/{id}/reset
//   - POST /api/sessions/{id}/next
//
// Catalog:
//   - GET /api/puzzles, POST /api/puzzles, GET /api/puzzles/{id}
//   - GET /api/pieces
//
// Placement bodies look like:
//
//	{"piece_id": "t-tetra-p", "orientation_index": 2, "row": 0, "col": 4}
//
// A rejected move is not an HTTP error. It returns 200 with
// "success": false, a "reason_code" and the unchanged board:
//
//	{"success": false, "reason_code": "invalid_placement", "game_state": {...}}
//
// Missing sessions and puzzles return 404 and malformed bodies 400, always
// as {"error": "..."}.
//
// Every successful state change is also pushed to WebSocket viewers of the
// session connected on /ws?session={id}.
package api
