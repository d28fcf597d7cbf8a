// Package service provides the business logic layer for the Minesweeper server.
//
// The service package implements:
//   - Multi-session game management
//   - Board defaults and size limits
//   - Reveal and flag dispatch with event reporting
//   - Bulk actions for agents
//   - Action history tracking
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// SettingsProvider supplies the default board and the largest allowed size.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Engines are not safe for concurrent use, so every mutating
// call holds the service lock for its whole duration.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	gameService := service.NewGameService(sessionMgr, settings)
//
//	info, err := gameService.CreateSession(ctx, service.NewGameOptions{Size: 8, MineCount: 10})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Reveal(ctx, info.ID, 27)
//
// Errors:
//
// Out-of-range indices, invalid boards and unknown actions are client errors
// (see IsClientError). Revealing or flagging a cell where nothing can happen
// is not an error; the result reports Success false.
package service
