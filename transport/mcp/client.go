package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/linkgame/game/engine"
	"github.com/wricardo/mcp-training/linkgame/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
	logger     *zap.Logger
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Link Match Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Link Match Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Clear the board by matching pairs of identical tiles. Two tiles match when a
path with at most two turns connects them through empty cells or the margin
around the board.

AVAILABLE TOOLS:
- create_session: Start a new board (optional level and seed)
- list_sessions: List all active sessions
- game_state: Show the board with tile IDs
- click_tile: Click a tile by ID (select, deselect or match)
- hint: Find a matchable pair
- shuffle: Reshuffle remaining tiles (limited)
- restart: Deal a new board
- set_gravity_mode: Change the gravity mode when the level allows it
- list_configs: List available levels
- list_scores: Show the leaderboard
- game_instructions: Get complete rules`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session and deal its board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Level to play (optional, see list_configs)",
				},
				"seed": map[string]interface{}{
					"type":        "number",
					"description": "Seed for a reproducible board (optional)",
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

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score, timer and status",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "click_tile",
		Description: "Click a tile. The first click selects, a second click on a matching tile clears the pair",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"tile_id": map[string]interface{}{
					"type":        "number",
					"description": "ID of the tile as shown by game_state",
				},
			},
			Required: []string{"session_id", "tile_id"},
		},
	}, c.handleClickTile)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hint",
		Description: "Find a pair of tiles that can be matched right now",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleHint)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "shuffle",
		Description: "Reshuffle the remaining tiles (counts against the level's shuffle limit)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleShuffle)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart",
		Description: "Deal a new board and reset score, timer and shuffles",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_gravity_mode",
		Description: "Change the direction tiles fall after a match",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"gravity_mode": map[string]interface{}{
					"type":        "string",
					"description": "Gravity mode",
					"enum":        gravityModeNames(),
				},
			},
			Required: []string{"session_id", "gravity_mode"},
		},
	}, c.handleSetGravityMode)

	// Configs and scores
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_scores",
		Description: "Show the best recorded scores",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of records (optional)",
				},
			},
		},
	}, c.handleListScores)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get complete game rules and tool usage",
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

// HTTPHandler serves single JSON-RPC messages posted to it
func (c *Client) HTTPHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := c.mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications carry no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			c.logger.Warn("mcp response encode failed", zap.Error(err))
		}
	})
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

func sessionPath(sessionID, action string) string {
	p := "/api/sessions/" + url.PathEscape(sessionID)
	if action != "" {
		p += "/" + action
	}
	return p
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// numberArg reads a JSON number argument; ok is false when absent or not a whole number
func numberArg(args map[string]interface{}, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	sessionID, _ := args["session_id"].(string)
	if strings.TrimSpace(sessionID) == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return sessionID, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	}
	if seed, ok := numberArg(args, "seed"); ok && seed != 0 {
		body["seed"] = seed
	}

	var info service.SessionInfo
	if err := c.apiCall(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s", info.ID, info.ConfigID, formatSnapshot(info.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, http.MethodGet, "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&result, "- %s (Level: %s, Created: %s", s.ID, s.ConfigID, s.CreatedAt.Format("15:04:05"))
		if s.State != nil {
			fmt.Fprintf(&result, ", Status: %s, Score: %d", s.State.Status, s.State.Score)
		}
		result.WriteString(")\n")
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var state engine.Snapshot
	if err := c.apiCall(ctx, http.MethodGet, sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&state)), nil
}

func (c *Client) handleClickTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	tileID, ok := numberArg(args, "tile_id")
	if !ok {
		return mcp.NewToolResultError("tile_id must be a whole number"), nil
	}

	var response service.ClickResponse
	body := map[string]interface{}{"tile_id": tileID}
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "click"), body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c.logger.Debug("mcp click",
		zap.String("session", sessionID),
		zap.Int64("tile", tileID),
		zap.String("action", string(response.Result.Action)))

	return mcp.NewToolResultText(formatClickResponse(tileID, &response)), nil
}

func (c *Client) handleHint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response service.HintResponse
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "hint"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result string
	if response.Found && response.Pair != nil {
		result = fmt.Sprintf("Hint: tiles %d and %d can be matched\n", response.Pair.A, response.Pair.B)
	} else {
		result = "No matchable pair on the board. Try shuffle.\n"
	}
	return mcp.NewToolResultText(result + "\n" + formatSnapshot(response.State)), nil
}

func (c *Client) handleShuffle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response service.ActionResponse
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "shuffle"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResponse(&response)), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Message string           `json:"message"`
		State   *engine.Snapshot `json:"state"`
	}
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "restart"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message + "\n\n" + formatSnapshot(response.State)), nil
}

func (c *Client) handleSetGravityMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	mode, _ := args["gravity_mode"].(string)
	if mode == "" {
		return mcp.NewToolResultError("gravity_mode is required"), nil
	}

	var response service.ActionResponse
	body := map[string]string{"gravity_mode": mode}
	if err := c.apiCall(ctx, http.MethodPost, sessionPath(sessionID, "mode"), body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatActionResponse(&response)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, http.MethodGet, "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "Available Levels (%d):\n\n", len(configs))
	for _, cfg := range configs {
		fmt.Fprintf(&result, "- %s: %s (%dx%d, %d kinds, gravity %s, %ds, %d shuffles",
			cfg.ConfigID, cfg.Name, cfg.GridWidth, cfg.GridHeight, cfg.KindCount,
			cfg.GravityMode, cfg.TimeLimit, cfg.ShuffleLimit)
		if cfg.AllowModeChange {
			result.WriteString(", mode change allowed")
		}
		result.WriteString(")\n")
		if cfg.Description != "" {
			fmt.Fprintf(&result, "  %s\n", cfg.Description)
		}
	}

	return mcp.NewToolResultText(result.String()), nil
}

func (c *Client) handleListScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := "/api/scores"
	if limit, ok := numberArg(arguments(request), "limit"); ok && limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var response struct {
		Count  int                  `json:"count"`
		Scores []engine.ScoreRecord `json:"scores"`
	}
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatScores(response.Scores)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `Link Match Game - Complete Instructions

GAME OBJECTIVE:
Clear every tile from the board before the timer runs out.

MATCHING RULES:
- Click a tile to select it, then click a second tile of the same kind.
- The pair clears when a path joins them using at most two turns.
- The path may only cross empty cells or the one-cell margin around the board.
- Clicking the selected tile again deselects it.
- Clicking a tile that cannot be matched moves the selection to it.

SCORING:
- Each cleared pair is worth the level's match score (10 by default).
- Clearing the board adds a bonus for every second left on the clock.
- Winning boards are recorded on the leaderboard (list_scores).

TIMER:
- The clock starts with your first click and ticks once per second.
- When it reaches zero with tiles left, the game is lost.

SHUFFLE:
- shuffle rearranges the remaining tiles over their current cells.
- Each level allows a limited number of shuffles.
- When no pair can be matched the board shuffles itself if shuffles remain;
  otherwise the game is lost.

GRAVITY:
- After a match, tiles slide in the level's gravity direction:
  static, down, up, left, right, split_left_right, split_up_down,
  clockwise or counter_clockwise.
- Some levels let you change the mode with set_gravity_mode.
- Tiles still sliding already count at their destination cell.

READING THE BOARD (game_state):
- Each cell shows "id:kind". Tiles with equal kind letters can pair.
- "*" marks the selected tile and "." an empty cell.

STRATEGY TIPS:
1. Use hint when stuck, it never costs a shuffle.
2. Clear edge tiles early, the margin makes them easy to connect.
3. Watch the gravity direction: a match can open new paths on the far side.
4. Save shuffles for boards with no remaining pairs.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func gravityModeNames() []string {
	modes := engine.GravityModes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return names
}

// kindLabel renders a tile kind as a letter, falling back to digits past Z
func kindLabel(kind int) string {
	if kind >= 0 && kind < 26 {
		return string(rune('A' + kind))
	}
	return fmt.Sprintf("%d", kind)
}

func formatSnapshot(state *engine.Snapshot) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	fmt.Fprintf(&result, "Level: %s | Score: %d | Time: %ds | Shuffles: %d/%d | Gravity: %s\n",
		state.Level, state.Score, state.TimeLeft, state.ShuffleCount, state.ShuffleLimit, state.GravityMode)
	fmt.Fprintf(&result, "Status: %s | Tiles left: %d", state.Status, state.Remaining)
	if state.SelectedID >= 0 {
		fmt.Fprintf(&result, " | Selected: %d", state.SelectedID)
	}
	if state.Settling {
		result.WriteString(" | Settling")
	}
	result.WriteString("\n\n")
	result.WriteString(formatGrid(state))

	if state.Hint != nil {
		fmt.Fprintf(&result, "\nHint: %d and %d\n", state.Hint.A, state.Hint.B)
	}

	switch state.Status {
	case engine.StatusSuccess:
		result.WriteString("\nBOARD CLEARED!")
	case engine.StatusFailed:
		result.WriteString("\nGAME OVER")
	}

	return result.String()
}

func formatGrid(state *engine.Snapshot) string {
	if state.Width <= 0 || state.Height <= 0 {
		return ""
	}

	cells := make([][]string, state.Height)
	for row := range cells {
		cells[row] = make([]string, state.Width)
		for col := range cells[row] {
			cells[row][col] = "."
		}
	}

	width := 1
	for _, tile := range state.Tiles {
		if tile.Matched || tile.Row < 0 || tile.Row >= state.Height || tile.Col < 0 || tile.Col >= state.Width {
			continue
		}
		label := fmt.Sprintf("%d:%s", tile.ID, kindLabel(tile.Kind))
		if tile.ID == state.SelectedID {
			label += "*"
		}
		cells[tile.Row][tile.Col] = label
		if len(label) > width {
			width = len(label)
		}
	}

	var result strings.Builder
	for _, row := range cells {
		for col, cell := range row {
			if col > 0 {
				result.WriteString(" ")
			}
			fmt.Fprintf(&result, "%-*s", width, cell)
		}
		result.WriteString("\n")
	}
	return result.String()
}

func formatClickResponse(tileID int64, response *service.ClickResponse) string {
	var result strings.Builder

	switch response.Result.Action {
	case engine.ClickSelected:
		fmt.Fprintf(&result, "Selected tile %d\n", tileID)
	case engine.ClickDeselected:
		fmt.Fprintf(&result, "Deselected tile %d\n", tileID)
	case engine.ClickMatched:
		ids := response.Result.TileIDs
		if len(ids) == 2 {
			fmt.Fprintf(&result, "Matched tiles %d and %d with %d turn(s), +%d points\n",
				ids[0], ids[1], response.Result.Turns, response.Result.ScoreDelta)
		} else {
			fmt.Fprintf(&result, "Matched, +%d points\n", response.Result.ScoreDelta)
		}
	default:
		fmt.Fprintf(&result, "Click on tile %d was ignored\n", tileID)
	}

	result.WriteString("\n")
	result.WriteString(formatSnapshot(response.State))
	return result.String()
}

func formatActionResponse(response *service.ActionResponse) string {
	status := "OK"
	if !response.Success {
		status = "FAILED"
	}
	return fmt.Sprintf("%s: %s\n\n%s", status, response.Message, formatSnapshot(response.State))
}

func formatScores(records []engine.ScoreRecord) string {
	if len(records) == 0 {
		return "No scores recorded yet"
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].FinalScore != records[j].FinalScore {
			return records[i].FinalScore > records[j].FinalScore
		}
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	var result strings.Builder
	fmt.Fprintf(&result, "Leaderboard (%d):\n\n", len(records))
	for i, r := range records {
		fmt.Fprintf(&result, "%2d. %5d  %s (%dx%d, %s, %ds left) %s\n",
			i+1, r.FinalScore, r.Level, r.GridWidth, r.GridHeight,
			r.GravityMode, r.SecondsRemaining, r.Timestamp.Format("2006-01-02 15:04"))
	}
	return result.String()
}
