package service

import (
	"time"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
)

// Event types reported in action results
const (
	EventReveal    = "reveal"
	EventFloodFill = "flood_fill"
	EventFlag      = "flag"
	EventUnflag    = "unflag"
	EventFlagLimit = "flag_limit"
	EventGameOver  = "game_over"
	EventVictory   = "victory"
	EventReset     = "reset"
)

// Stop reason codes for bulk actions
const (
	StopGameOver      = "game_over"
	StopVictory       = "victory"
	StopInvalidIndex  = "invalid_index"
	StopInvalidAction = "invalid_action"
)

// NewGameOptions selects the board for a new session; zero values use defaults
type NewGameOptions struct {
	Size      int `json:"size,omitempty"`
	MineCount int `json:"mine_count,omitempty"`
}

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	Config         engine.GameConfig `json:"config"`
	Game           *engine.GameView  `json:"game"`
}

// ActionResult contains the result of a single reveal or flag
type ActionResult struct {
	Success  bool             `json:"success"`
	Action   engine.Action    `json:"action"`
	Game     *engine.GameView `json:"game"`
	Revealed []int            `json:"revealed,omitempty"`
	Message  string           `json:"message"`
	Events   []GameEvent      `json:"events,omitempty"`
}

// BulkActionResult contains the result of multiple actions
type BulkActionResult struct {
	ActionsExecuted  int              `json:"actions_executed"`
	RequestedActions int              `json:"requested_actions"`
	Success          bool             `json:"success"`
	Game             *engine.GameView `json:"game"`
	Events           []GameEvent      `json:"events"`
	StoppedReason    string           `json:"stopped_reason,omitempty"`
	StopReasonCode   string           `json:"stop_reason_code,omitempty"`
	StoppedOnAction  int              `json:"stopped_on_action,omitempty"` // 1-based
	Truncated        bool             `json:"truncated,omitempty"`
	Limit            int              `json:"limit,omitempty"`
	Steps            []StepInfo       `json:"steps,omitempty"`
	TotalRevealed    int              `json:"total_revealed"`
	Message          string           `json:"message,omitempty"`
}

// StepInfo is a compact record for each executed action in a bulk call
type StepInfo struct {
	Idx      int               `json:"idx"`
	Action   engine.ActionType `json:"action"`
	Index    int               `json:"index"`
	Changed  bool              `json:"changed"`
	Revealed int               `json:"revealed,omitempty"`
	Status   engine.Status     `json:"status"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Index     int       `json:"index"`
}

// HistoryOptions configures action history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated action history
type HistoryResponse struct {
	Actions      []engine.ActionHistoryEntry `json:"actions"`
	TotalActions int                         `json:"total_actions"`
	Page         int                         `json:"page"`
	PageSize     int                         `json:"page_size"`
	TotalPages   int                         `json:"total_pages"`
	HasNext      bool                        `json:"has_next"`
	HasPrevious  bool                        `json:"has_previous"`
}

// Defaults describes what CreateSession uses when options are omitted
type Defaults struct {
	Size         int `json:"size"`
	MineCount    int `json:"mine_count"`
	MaxBoardSize int `json:"max_board_size"`
	MaxBulk      int `json:"max_bulk_actions"`
}
