// Package websocket provides real-time board updates for the Minesweeper server.
//
// Clients connect to /ws?session=<id> and receive JSON messages whenever the
// board of that session changes:
//
//	{"session_id": "a1b2", "event": "state_update", "game": {...}}
//
// While a game is running the server also sends a tick once per configured
// interval so clients can show the clock without polling:
//
//	{"session_id": "a1b2", "event": "tick", "data": {"elapsed_seconds": 42}}
//
// Architecture:
//
// A single Hub goroutine registers and unregisters clients and fans messages
// out. Broadcasts are queued on a buffered channel and never block the caller;
// when the queue is full the message is dropped. A client whose send buffer
// is full is disconnected.
//
// Each client runs a read pump (pong handling) and a write pump (messages and
// pings). Messages from clients are ignored.
package websocket
