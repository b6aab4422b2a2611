// Package mcp exposes the puzzle to AI agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool call is translated into a request
// against the REST API, and the JSON response is rendered as text an agent
// can read. Boards are drawn one row per line with '#' for blocked cells,
// '.' for empty cells and a letter per placed piece, followed by a legend
// mapping letters to instance IDs and the tray with each piece's selected
// orientation.
//
// Tools:
//   - create_session, get_session, list_sessions
//   - board_state, describe_cell
//   - check_placement, place_piece, move_piece, remove_piece, pickup_piece
//   - rotate_piece, flip_piece
//   - reset_puzzle, next_puzzle, action_history
//   - list_puzzles, list_pieces, puzzle_instructions
//
// Rejected moves come back as regular text results starting with "✗" and
// the reason code. Transport failures and unknown sessions are reported as
// tool errors.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
