package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/mcp-training/polytile/game/engine"
	"github.com/wricardo/mcp-training/polytile/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Polytile Puzzle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Polytile Puzzle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Place every piece from the tray onto the board. Pieces may not overlap,
leave the board or cover blocked cells (#).

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage puzzle sessions
- board_state: current board, tray and placements
- check_placement: test a placement without committing it
- place_piece: put a tray piece on the board
- remove_piece / pickup_piece: return a placed piece to the tray
- move_piece: move a placed piece to another anchor or orientation
- rotate_piece / flip_piece: change the selected orientation of a tray piece
- reset_puzzle / next_puzzle: start over or advance to the next puzzle
- action_history: view past actions
- list_puzzles / list_pieces: browse the catalog
- puzzle_instructions: full rules and coordinate conventions
- describe_cell: inspect one board cell

NOTE: place_piece and move_piece accept an 'intent' parameter - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

func placementParams(requirePiece bool) []mcp.ToolOption {
	piece := []mcp.PropertyOption{mcp.Description("Piece ID from the tray, e.g. t-tetra-p")}
	if requirePiece {
		piece = append(piece, mcp.Required())
	}
	return []mcp.ToolOption{
		mcp.WithString("piece_id", piece...),
		mcp.WithNumber("orientation_index", mcp.Description("Orientation index (0-based, see list_pieces). Defaults to the tray's current orientation")),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Board row of the footprint's top-left corner (0-based)")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("Board column of the footprint's top-left corner (0-based)")),
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new puzzle session, optionally for a specific puzzle"),
		mcp.WithString("puzzle_id", mcp.Description("Puzzle ID to play (optional, see list_puzzles)")),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active puzzle sessions"),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionParam(),
	), c.handleGetSession)

	// Board
	c.mcpServer.AddTool(mcp.NewTool("board_state",
		mcp.WithDescription("Get the current board, tray and placed pieces"),
		sessionParam(),
	), c.handleBoardState)

	c.mcpServer.AddTool(mcp.NewTool("check_placement",
		append([]mcp.ToolOption{
			mcp.WithDescription("Check whether a piece fits at a position without placing it"),
			sessionParam(),
		}, placementParams(true)...)...,
	), c.handleCheckPlacement)

	c.mcpServer.AddTool(mcp.NewTool("place_piece",
		append([]mcp.ToolOption{
			mcp.WithDescription("Place a tray piece on the board"),
			sessionParam(),
			mcp.WithString("intent", mcp.Description("Brief explanation of why this placement (serves as a rubber duck to help explain your reasoning)")),
		}, placementParams(true)...)...,
	), c.handlePlacePiece)

	c.mcpServer.AddTool(mcp.NewTool("remove_piece",
		mcp.WithDescription("Return a placed piece to the tray in its base orientation"),
		sessionParam(),
		mcp.WithString("instance_id", mcp.Required(), mcp.Description("Instance ID of the placed piece (see board_state)")),
	), c.handleRemovePiece)

	c.mcpServer.AddTool(mcp.NewTool("pickup_piece",
		mcp.WithDescription("Return a placed piece to the tray keeping its orientation"),
		sessionParam(),
		mcp.WithString("instance_id", mcp.Required(), mcp.Description("Instance ID of the placed piece (see board_state)")),
	), c.handlePickUpPiece)

	c.mcpServer.AddTool(mcp.NewTool("move_piece",
		append([]mcp.ToolOption{
			mcp.WithDescription("Move a placed piece to a new position and orientation. The piece stays put if the move is invalid"),
			sessionParam(),
			mcp.WithString("instance_id", mcp.Required(), mcp.Description("Instance ID of the placed piece")),
			mcp.WithString("intent", mcp.Description("Brief explanation of why this move")),
		}, placementParams(false)...)...,
	), c.handleMovePiece)

	// Tray
	c.mcpServer.AddTool(mcp.NewTool("rotate_piece",
		mcp.WithDescription("Advance a tray piece to its next orientation"),
		sessionParam(),
		mcp.WithString("piece_id", mcp.Required(), mcp.Description("Piece ID in the tray")),
	), c.handleRotatePiece)

	c.mcpServer.AddTool(mcp.NewTool("flip_piece",
		mcp.WithDescription("Mirror a tray piece"),
		sessionParam(),
		mcp.WithString("piece_id", mcp.Required(), mcp.Description("Piece ID in the tray")),
	), c.handleFlipPiece)

	// Puzzle flow
	c.mcpServer.AddTool(mcp.NewTool("reset_puzzle",
		mcp.WithDescription("Reset the puzzle to its initial layout"),
		sessionParam(),
	), c.handleResetPuzzle)

	c.mcpServer.AddTool(mcp.NewTool("next_puzzle",
		mcp.WithDescription("Switch the session to the next puzzle"),
		sessionParam(),
	), c.handleNextPuzzle)

	c.mcpServer.AddTool(mcp.NewTool("action_history",
		mcp.WithDescription("Get the action history of a session"),
		sessionParam(),
		mcp.WithNumber("page", mcp.Description("Page number")),
		mcp.WithNumber("limit", mcp.Description("Items per page")),
	), c.handleActionHistory)

	// Catalog
	c.mcpServer.AddTool(mcp.NewTool("list_puzzles",
		mcp.WithDescription("List available puzzles"),
	), c.handleListPuzzles)

	c.mcpServer.AddTool(mcp.NewTool("list_pieces",
		mcp.WithDescription("List every piece with all of its orientations"),
	), c.handleListPieces)

	c.mcpServer.AddTool(mcp.NewTool("puzzle_instructions",
		mcp.WithDescription("Get the rules, coordinate conventions and solving tips"),
	), c.handlePuzzleInstructions)

	c.mcpServer.AddTool(mcp.NewTool("describe_cell",
		mcp.WithDescription("Get detailed information about a single board cell"),
		sessionParam(),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row of the cell (0-based)")),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("Column of the cell (0-based)")),
	), c.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID string, parts ...string) string {
	path := "/api/sessions/" + url.PathEscape(sessionID)
	for _, p := range parts {
		path += "/" + url.PathEscape(p)
	}
	return path
}

// placeRequest builds a placement body. When orientation_index is omitted
// the piece's current tray orientation is looked up.
func (c *Client) placeRequest(ctx context.Context, request mcp.CallToolRequest, sessionID string) (service.PlaceRequest, error) {
	req := service.PlaceRequest{
		PieceID: request.GetString("piece_id", ""),
		Row:     request.GetInt("row", 0),
		Col:     request.GetInt("col", 0),
	}

	if _, ok := request.GetArguments()["orientation_index"]; ok {
		req.OrientationIndex = request.GetInt("orientation_index", 0)
		return req, nil
	}
	if req.PieceID == "" {
		return req, nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return req, err
	}
	for _, tp := range state.Tray {
		if tp.PieceID == req.PieceID {
			req.OrientationIndex = tp.OrientationIndex
		}
	}
	return req, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{}
	if puzzleID := request.GetString("puzzle_id", ""); puzzleID != "" {
		body["puzzle_id"] = puzzleID
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nPuzzle: %s\n\n%s", info.ID, info.PuzzleID, formatGameState(info.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in progress"
		if s.GameState != nil && s.GameState.Victory {
			status = "solved"
		}
		fmt.Fprintf(&b, "- %s (Puzzle: %s, %s, Created: %s)\n",
			s.ID, s.PuzzleID, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var info service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleBoardState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleCheckPlacement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	req, err := c.placeRequest(ctx, request, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var check service.PlacementCheck
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "check"), req, &check); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPlacementCheck(&check)), nil
}

func (c *Client) handlePlacePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	// Intent serves as rubber duck debugging and is not sent
	_ = request.GetString("intent", "")

	req, err := c.placeRequest(ctx, request, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "place"), req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult("Place", &result)), nil
}

func (c *Client) handleRemovePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	instanceID := request.GetString("instance_id", "")

	var result service.ActionResult
	if err := c.apiCall(ctx, "DELETE", sessionPath(sessionID, "placements", instanceID), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult("Remove", &result)), nil
}

func (c *Client) handlePickUpPiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	instanceID := request.GetString("instance_id", "")

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "placements", instanceID, "pickup"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult("Pick up", &result)), nil
}

func (c *Client) handleMovePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	instanceID := request.GetString("instance_id", "")
	_ = request.GetString("intent", "")

	req := service.PlaceRequest{
		OrientationIndex: request.GetInt("orientation_index", -1),
		Row:              request.GetInt("row", 0),
		Col:              request.GetInt("col", 0),
	}

	// Keep the current orientation when none is given
	if req.OrientationIndex < 0 {
		var state engine.GameState
		if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.OrientationIndex = 0
		for _, p := range state.Placements {
			if p.InstanceID == instanceID {
				req.OrientationIndex = p.OrientationIndex
			}
		}
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "placements", instanceID, "move"), req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult("Move", &result)), nil
}

func (c *Client) handleRotatePiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.reorient(ctx, request, "rotate", "Rotate")
}

func (c *Client) handleFlipPiece(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.reorient(ctx, request, "flip", "Flip")
}

func (c *Client) reorient(ctx context.Context, request mcp.CallToolRequest, action, label string) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	pieceID := request.GetString("piece_id", "")

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "tray", pieceID, action), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := formatActionResult(label, &result)
	if result.TrayPiece != nil {
		text = fmt.Sprintf("%s\n\n%s now at orientation %d/%d:\n%s",
			text, result.TrayPiece.PieceID, result.TrayPiece.OrientationIndex,
			result.TrayPiece.OrientationCount, result.TrayPiece.Shape.String())
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleResetPuzzle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleNextPuzzle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	var info service.SessionInfo
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "next"), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&info)), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")

	query := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	path := sessionPath(sessionID, "history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)

	// Also show the current segment from the live state
	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err == nil {
		result += "\n" + formatCurrentSegment(&state)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListPuzzles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var puzzles []service.PuzzleInfo
	if err := c.apiCall(ctx, "GET", "/api/puzzles", nil, &puzzles); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Puzzles:\n\n")
	for _, p := range puzzles {
		fmt.Fprintf(&b, "• %s (id: %s, level %d)\n  %s\n  Board: %dx%d, blocked: %d, start pieces: %d, tray: %d\n\n",
			p.Name, p.PuzzleID, p.Level, p.Description, p.Rows, p.Cols, p.BlockedCells, p.StartPieces, p.TrayPieces)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListPieces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var pieces []service.PieceInfo
	if err := c.apiCall(ctx, "GET", "/api/pieces", nil, &pieces); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPieces(pieces)), nil
}

func (c *Client) handlePuzzleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	row := request.GetInt("row", -1)
	col := request.GetInt("col", -1)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if row < 0 || row >= len(state.Grid) || col < 0 || len(state.Grid) == 0 || col >= len(state.Grid[0]) {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d,%d) is out of bounds. Board is %d rows x %d cols",
			row, col, state.Rows, state.Cols)), nil
	}

	return mcp.NewToolResultText(describeCell(&state, row, col)), nil
}

const instructions = `Polytile Puzzle - Instructions

OBJECTIVE:
Fill the board by placing every piece from the tray. The puzzle is solved
the moment the tray is empty.

BOARD:
• Coordinates are (row, col), both 0-based, row 0 at the top
• '#' - blocked cell, nothing can be placed there
• '.' - empty cell
• A, B, C... - cells covered by a placed piece (see the legend under the board)
• Pieces marked "fixed" were placed by the puzzle and cannot be moved

PIECES AND ORIENTATIONS:
• A piece is drawn as a small matrix: '#' filled, '.' empty
• Each piece has up to 8 orientations (4 rotations, each optionally mirrored)
• Orientation 0 is the base shape; symmetric pieces have fewer orientations
• list_pieces shows every orientation with its index
• rotate_piece / flip_piece change the orientation selected in the tray

PLACING:
• row/col name where the TOP-LEFT corner of the footprint matrix goes,
  even when that corner of the matrix is empty
• A placement is rejected if any filled cell leaves the board, covers a
  blocked cell or overlaps another piece. Nothing changes on rejection
• Use check_placement to test before committing

MOVING AND REMOVING:
• Every placed piece has an instance_id (shown in board_state)
• remove_piece returns it to the tray at orientation 0
• pickup_piece returns it keeping its orientation
• move_piece relocates it in one step; if the new spot is invalid the piece stays

STRATEGY:
• Compare the empty cell count with the cells the tray pieces need
• Fill corners and narrow gaps first; they accept the fewest shapes
• Pentominoes are harder to fit late, place them early
• Isolated empty regions must be exactly fillable by remaining pieces

Good luck!`

// Formatting helpers

func formatSessionInfo(info *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nPuzzle: %s\nCreated: %s\n\n%s",
		info.ID, info.PuzzleID,
		info.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(info.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Puzzle: %s (level %d) | Board: %dx%d | Empty cells: %d | Actions: %d\n\n",
		state.PuzzleName, state.Level, state.Rows, state.Cols, state.EmptyCells, state.TotalActions)

	b.WriteString(formatBoard(state))

	if len(state.Placements) > 0 {
		b.WriteString("\nPlaced pieces:\n")
		fixed := make(map[string]bool, len(state.FixedInstances))
		for _, id := range state.FixedInstances {
			fixed[id] = true
		}
		for i, p := range state.Placements {
			note := ""
			if fixed[p.InstanceID] {
				note = " (fixed)"
			}
			fmt.Fprintf(&b, "  %s = %s o=%d at (%d,%d) instance=%s%s\n",
				string(engine.PlacementLetter(i)), p.PieceID, p.OrientationIndex, p.AnchorRow, p.AnchorCol, p.InstanceID, note)
		}
	}

	if len(state.Tray) > 0 {
		b.WriteString("\nTray:\n")
		for _, tp := range state.Tray {
			fmt.Fprintf(&b, "  %s (orientation %d/%d, %d cells)\n",
				tp.PieceID, tp.OrientationIndex, tp.OrientationCount, tp.Shape.CellCount())
			b.WriteString(indent(tp.Shape.String(), "    "))
			b.WriteString("\n")
		}
	}

	if state.Victory {
		b.WriteString("\n🎉 VICTORY!")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

// formatBoard renders the grid with a column header and row numbers
func formatBoard(state *engine.GameState) string {
	rendered := engine.RenderGrid(state.Grid, state.Placements)
	lines := strings.Split(strings.TrimSuffix(rendered, "\n"), "\n")

	var b strings.Builder
	b.WriteString("    ")
	for col := 0; col < state.Cols; col++ {
		fmt.Fprintf(&b, "%d", col%10)
	}
	b.WriteString("\n")
	for row, line := range lines {
		fmt.Fprintf(&b, "%2d  %s\n", row, line)
	}
	return b.String()
}

func formatActionResult(label string, result *service.ActionResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s successful\n", label)
	} else {
		fmt.Fprintf(&b, "✗ %s failed (%s)\n", label, result.ReasonCode)
	}

	if result.Placement != nil {
		fmt.Fprintf(&b, "Instance: %s (%s at (%d,%d))\n",
			result.Placement.InstanceID, result.Placement.PieceID,
			result.Placement.AnchorRow, result.Placement.AnchorCol)
	}
	if result.Removal != nil {
		fmt.Fprintf(&b, "Returned %s to the tray\n", result.Removal.PieceID)
	}
	for _, event := range result.Events {
		if event.Type == "victory" {
			fmt.Fprintf(&b, "🎉 %s\n", event.Message)
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatPlacementCheck(check *service.PlacementCheck) string {
	var b strings.Builder
	if check.Valid {
		fmt.Fprintf(&b, "✓ %s orientation %d fits at (%d,%d)\n",
			check.PieceID, check.OrientationIndex, check.Row, check.Col)
	} else {
		fmt.Fprintf(&b, "✗ %s orientation %d does not fit at (%d,%d) (%s)\n",
			check.PieceID, check.OrientationIndex, check.Row, check.Col, check.ReasonCode)
	}
	if !check.InTray {
		b.WriteString("Note: this piece is not in the tray\n")
	}
	if len(check.Cells) > 0 {
		cells := make([]string, len(check.Cells))
		for i, cell := range check.Cells {
			cells[i] = fmt.Sprintf("(%d,%d)", cell.Row, cell.Col)
		}
		fmt.Fprintf(&b, "Cells covered: %s\n", strings.Join(cells, " "))
	}
	return b.String()
}

func formatPieces(pieces []service.PieceInfo) string {
	var b strings.Builder
	b.WriteString("Piece Catalog:\n\n")
	for _, p := range pieces {
		fmt.Fprintf(&b, "• %s (%s, %d cells, %d orientations)\n", p.ID, p.Color, p.CellCount, p.OrientationCount)
		for i, shape := range p.Orientations {
			fmt.Fprintf(&b, "  [%d]\n%s\n", i, indent(shape.String(), "    "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func describeCell(state *engine.GameState, row, col int) string {
	cell := state.Grid[row][col]

	var kind, detail string
	switch cell.State {
	case engine.Blocked:
		kind = "Blocked"
		detail = "Part of the puzzle layout. No piece can cover it."
	case engine.Occupied:
		kind = "Occupied"
		detail = fmt.Sprintf("Covered by %s (orientation %d), instance %s.",
			cell.PieceID, cell.OrientationIndex, cell.InstanceID)
		for _, id := range state.FixedInstances {
			if id == cell.InstanceID {
				detail += " This is a fixed start piece."
			}
		}
	default:
		kind = "Empty"
		detail = "Free. A piece can cover this cell."
	}

	return fmt.Sprintf("Cell (%d,%d):\nState: %s\n%s", row, col, kind, detail)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action History (Page %d/%d) - Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalActions)

	for _, action := range history.Actions {
		b.WriteString(formatHistoryLine(action.ActionNumber, action))
	}

	return b.String()
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Segment: unavailable"
	}
	header := fmt.Sprintf("Current Segment - Actions: %d\n\n", state.CurrentActionsCount)
	if len(state.CurrentActions) == 0 {
		return header + "(no actions since the last reset)"
	}

	var b strings.Builder
	b.WriteString(header)
	for i, action := range state.CurrentActions {
		b.WriteString(formatHistoryLine(i+1, action))
	}
	return b.String()
}

func formatHistoryLine(num int, action engine.ActionHistoryEntry) string {
	status := "✓"
	if !action.Success {
		status = "✗"
	}
	where := ""
	if action.Row >= 0 && action.Col >= 0 {
		where = fmt.Sprintf(" at (%d,%d)", action.Row, action.Col)
	}
	return fmt.Sprintf("%d. %s %s o=%d%s %s\n", num, action.Action, action.PieceID, action.OrientationIndex, where, status)
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
