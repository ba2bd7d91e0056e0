// Package mcp provides the Model Context Protocol interface for the link-match game.
//
// The Client is a thin proxy: every tool call is translated into a request
// against the REST API and the JSON answer is rendered as text for the agent.
//
// MCP Tools:
//   - create_session: Deal a new board (optional config_id and seed)
//   - list_sessions: List all active sessions
//   - game_state: Board grid with tile IDs and kinds, score, timer, status
//   - click_tile: Select, deselect or match a tile
//   - hint: Find a matchable pair
//   - shuffle: Reshuffle remaining tiles
//   - restart: Deal a new board in the same session
//   - set_gravity_mode: Change gravity when the level allows it
//   - list_configs: List available levels
//   - list_scores: Leaderboard
//   - game_instructions: Rules and strategy
//
// Transport Modes:
//
//	// Stdio mode
//	client := mcp.NewClient("http://localhost:8080", logger)
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP mode
//	router.Handle("/mcp", client.HTTPHandler())
package mcp
