// Package api provides HTTP REST API handlers for the Minesweeper server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session; body {"size": 9, "mine_count": 10} is optional
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current board view
//   - POST /api/sessions/{id}/reveal - Reveal a cell
//   - POST /api/sessions/{id}/flag - Toggle a flag
//   - POST /api/sessions/{id}/bulk - Run several actions in order
//   - POST /api/sessions/{id}/reset - Start a new board
//   - GET /api/sessions/{id}/history - Action history (?page=&limit=&order=)
//
// Other:
//   - GET /api/defaults - Default board and limits
//   - GET /health - Liveness probe
//   - GET /ws?session={id} - WebSocket upgrade
//
// Cells are addressed by row-major index or by row and column:
//
//	{"index": 27}
//	{"row": 3, "col": 3}
//
// Bulk bodies list actions:
//
//	{"actions": [{"action": "flag", "index": 4}, {"action": "reveal", "index": 0}]}
//
// Errors:
//
// Errors are returned as {"error": "message"}. A missing session is 404,
// a malformed body, index or action is 400, anything else is 500.
package api
