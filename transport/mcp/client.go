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
	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
)

// ServerName and ServerVersion identify the MCP server to clients
const (
	ServerName    = "Minesweeper"
	ServerVersion = "1.0.0"
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
		baseURL: strings.TrimRight(baseURL, "/"),
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
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Minesweeper - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Reveal every cell that does not hide a mine. Revealing a mine loses the game.

BOARD NOTATION (row-major, cell index = row*size + col):
  #  hidden       F  flag      .  empty
  1-8 adjacent mine count      *  mine      X  wrong flag (after a loss)

AVAILABLE TOOLS:
- create_session: Start a new game (optional size and mine_count)
- list_sessions / get_session: Inspect sessions
- game_state: Current board
- reveal: Open one cell
- toggle_flag: Flag or unflag one cell
- bulk_action: Several reveals and flags in one call
- reset_game: New board, same size
- action_history: Past actions
- describe_cell: What is known about one cell
- game_instructions: Full rules and tips`),
	)

	c.registerTools()
}

func sessionProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// cellProps lets a tool take an index or a row and column
func cellProps() map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionProp(),
		"index": map[string]interface{}{
			"type":        "integer",
			"description": "Row-major cell index (row*size + col)",
		},
		"row": map[string]interface{}{
			"type":        "integer",
			"description": "Row (0-based), used with col when index is omitted",
		},
		"col": map[string]interface{}{
			"type":        "integer",
			"description": "Column (0-based), used with row when index is omitted",
		},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session. Omitted fields use the server defaults.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"size": map[string]interface{}{
					"type":        "integer",
					"description": "Board side length (optional)",
				},
				"mine_count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of mines (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reveal",
		Description: "Reveal a cell. Empty cells open their neighbors automatically.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProps(),
			Required:   []string{"session_id"},
		},
	}, c.handleReveal)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_flag",
		Description: "Place or remove a flag on a hidden cell",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProps(),
			Required:   []string{"session_id"},
		},
	}, c.handleToggleFlag)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_action",
		Description: fmt.Sprintf("Execute up to %d reveals and flags in order. Stops when the game ends or an action is invalid.", engine.MaxBulkActions),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"actions": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"action": map[string]interface{}{
								"type": "string",
								"enum": []string{string(engine.ActionReveal), string(engine.ActionFlag)},
							},
							"index": map[string]interface{}{
								"type": "integer",
							},
						},
						"required": []string{"action", "index"},
					},
					"description": "Actions to run in order",
				},
			},
			Required: []string{"session_id", "actions"},
		},
	}, c.handleBulkAction)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start a new board with the same size and mine count",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "action_history",
		Description: "Get the action history of the current game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleActionHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell: its state, count, and neighbor summary",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: cellProps(),
			Required:   []string{"session_id"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get complete game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
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

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Argument helpers; JSON numbers arrive as float64

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// cellBody builds the REST body from index or row/col arguments
func cellBody(args map[string]interface{}) (map[string]int, error) {
	if index, ok := intArg(args, "index"); ok {
		return map[string]int{"index": index}, nil
	}
	row, rowOK := intArg(args, "row")
	col, colOK := intArg(args, "col")
	if rowOK && colOK {
		return map[string]int{"row": row, "col": col}, nil
	}
	return nil, fmt.Errorf("provide index, or row and col")
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	body := map[string]int{}
	if size, ok := intArg(args, "size"); ok {
		body["size"] = size
	}
	if mines, ok := intArg(args, "mine_count"); ok {
		body["mine_count"] = mines
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nBoard: %dx%d with %d mines\n\n%s",
		session.ID, session.Config.Size, session.Config.Size, session.Config.MineCount,
		formatGameView(session.Game))
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

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Active Sessions (%d):\n\n", response.Count))
	for _, s := range response.Sessions {
		status := engine.InProgress
		if s.Game != nil {
			status = s.Game.Status
		}
		result.WriteString(fmt.Sprintf("- %s (%dx%d, %d mines, %s, created %s)\n",
			s.ID, s.Config.Size, s.Config.Size, s.Config.MineCount, status, s.CreatedAt.Format("15:04:05")))
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var view engine.GameView
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameView(&view)), nil
}

func (c *Client) handleReveal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.cellAction(ctx, request, "/reveal")
}

func (c *Client) handleToggleFlag(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.cellAction(ctx, request, "/flag")
}

func (c *Client) cellAction(ctx context.Context, request mcp.CallToolRequest, suffix string) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	body, err := cellBody(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, suffix), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResult(&result)), nil
}

func (c *Client) handleBulkAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")
	raw, _ := args["actions"].([]interface{})

	actions := make([]engine.Action, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("action %d is not an object", i+1)), nil
		}
		index, ok := intArg(m, "index")
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("action %d has no index", i+1)), nil
		}
		actions = append(actions, engine.Action{Type: engine.ActionType(stringArg(m, "action")), Index: index})
	}

	var result service.BulkActionResult
	body := map[string]interface{}{"actions": actions}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkActionResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(request.GetArguments(), "session_id")

	var response struct {
		Message string            `json:"message"`
		Game    *engine.GameView  `json:"game"`
		Event   service.GameEvent `json:"event"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n  [%s] %s\n\n%s", response.Message, response.Event.Type, response.Event.Message, formatGameView(response.Game))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := stringArg(args, "order"); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID := stringArg(args, "session_id")

	var view engine.GameView
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	index, ok := intArg(args, "index")
	if !ok {
		row, rowOK := intArg(args, "row")
		col, colOK := intArg(args, "col")
		if !rowOK || !colOK {
			return mcp.NewToolResultError("provide index, or row and col"), nil
		}
		if row < 0 || row >= view.Size || col < 0 || col >= view.Size {
			return mcp.NewToolResultError(fmt.Sprintf("(%d,%d) is outside the %dx%d board", row, col, view.Size, view.Size)), nil
		}
		index = engine.IndexOf(row, col, view.Size)
	}

	if index < 0 || index >= len(view.Cells) {
		return mcp.NewToolResultError(fmt.Sprintf("Index %d is out of range [0, %d)", index, len(view.Cells))), nil
	}

	return mcp.NewToolResultText(describeCell(&view, index)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`Minesweeper - Complete Instructions

GAME OBJECTIVE:
Reveal every safe cell. Any revealed mine ends the game.

THE BOARD:
- Square N x N grid, cells numbered row-major: index = row*N + col
- Default board: 8x8 with 10 mines; create_session accepts size and mine_count
- Mines are placed uniformly at random when the board is created or reset

REVEALING:
- A revealed safe cell shows how many of its up to 8 neighbors are mines
- A cell with 0 adjacent mines opens all of its neighbors, repeatedly
- Flagged and revealed cells cannot be revealed
- Revealing a mine exposes every mine and ends the game

FLAGGING:
- toggle_flag marks a hidden cell you believe is a mine
- You can place at most as many flags as there are mines
- Flags are notes only; they do not count toward winning

THE CLOCK:
- Starts on the first reveal and stops when the game ends
- mines_remaining = mine_count - flags placed

READING THE BOARD:
  #  hidden       F  flag       .  0 adjacent mines
  1-8 count       *  mine       X  flag on a safe cell (shown after a loss)

TIPS:
- Start in a corner or the middle; a 0 opens a region
- A number equal to its hidden neighbors means all of them are mines
- A number whose mines are all flagged means its other neighbors are safe
- bulk_action runs up to %d actions in order and stops at the first invalid one

SESSION MANAGEMENT:
- Each session has a 4-character ID and its own board
- Sessions expire after a period of inactivity
- reset_game deals a new board of the same size`, engine.MaxBulkActions)

	return mcp.NewToolResultText(instructions), nil
}
