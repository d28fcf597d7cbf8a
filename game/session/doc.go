// Package session provides in-memory session management for the Minesweeper server.
//
// Manager stores one game engine per session and guards the session map with
// a read-write lock. Sessions live only as long as the process; nothing is
// written to disk.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters drawn from crypto/rand. Lookups are
// case-insensitive, so "A1B2" and "a1b2" name the same session.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", engine.DefaultGameConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Cleanup:
//
// CleanupExpiredSessions drops every session not accessed within the given
// duration. The server calls it on a timer.
package session
