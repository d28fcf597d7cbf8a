// Package config provides server settings for the Minesweeper server.
//
// Settings come from three layers, lowest first:
//   - DefaultSettings
//   - an optional YAML file loaded with LoadFile
//   - command-line flags and environment variables applied by main
//
// Settings File:
//
//	host: 0.0.0.0
//	port: 8080
//	board_size: 9
//	mine_count: 10
//	max_board_size: 32
//	session_ttl: 2h
//	cleanup_interval: 10m
//	tick_interval: 1s
//
// Validation:
//
// Validate rejects boards the engine cannot build (no mines, or no safe
// cell) and defaults larger than max_board_size. Errors wrap ErrInvalidConfig.
//
// Manager implements service.SettingsProvider and is safe for concurrent use.
package config
