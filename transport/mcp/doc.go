// Package mcp exposes the Minesweeper REST API as Model Context Protocol tools.
//
// The Client is a thin proxy: every tool call becomes one or two REST
// requests, and the JSON responses are rendered as plain text boards that an
// agent can read.
//
// Tools:
//   - create_session, list_sessions, get_session: session management
//   - game_state: current board
//   - reveal, toggle_flag: single cell actions, by index or by row and col
//   - bulk_action: several reveals and flags in order
//   - reset_game: new board of the same size
//   - action_history: paginated action log
//   - describe_cell: one cell and a summary of its neighbors
//   - game_instructions: rules and tips
//
// Transport Modes:
//
//	// Stdio
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP, by feeding request bodies to the server
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
