package engine

import "time"

// CellState represents the visible state of a single cell
type CellState string

const (
	Hidden   CellState = "hidden"
	Revealed CellState = "revealed"
	Flagged  CellState = "flagged"
)

// Status represents the outcome of a game
type Status string

const (
	InProgress Status = "in_progress"
	Won        Status = "won"
	Lost       Status = "lost"
)

// ActionType names a player action
type ActionType string

const (
	ActionReveal ActionType = "reveal"
	ActionFlag   ActionType = "flag"
)

const (
	DefaultBoardSize = 8
	DefaultMineCount = 10

	// Validation constants
	MaxBulkActions      = 64
	WebSocketBufferSize = 256
)

// Cell represents a single grid position
type Cell struct {
	Mine     bool
	State    CellState
	Adjacent int // meaningful only once revealed
}

// GameConfig holds the construction parameters of a board
type GameConfig struct {
	Size      int `json:"size" yaml:"size"`
	MineCount int `json:"mine_count" yaml:"mine_count"`
}

// DefaultGameConfig returns the classic 8x8 board with 10 mines
func DefaultGameConfig() GameConfig {
	return GameConfig{Size: DefaultBoardSize, MineCount: DefaultMineCount}
}

// GameState represents the complete board state.
//
// Cells are stored row-major: index = row*Size + col.
type GameState struct {
	Size        int
	MineCount   int
	Cells       []Cell
	FlagsPlaced int
	Status      Status

	// StartedAt is zero until the first reveal; EndedAt is zero until the game is over.
	StartedAt time.Time
	EndedAt   time.Time

	unrevealed int
	neighbors  [][]int
}

// Action is a single player input
type Action struct {
	Type  ActionType `json:"action"`
	Index int        `json:"index"`
}

// ActionHistoryEntry represents a single action in the game history
type ActionHistoryEntry struct {
	Action       ActionType `json:"action"`
	Index        int        `json:"index"`
	Row          int        `json:"row"`
	Col          int        `json:"col"`
	Revealed     int        `json:"revealed"`
	FlagsPlaced  int        `json:"flags_placed"`
	Status       Status     `json:"status"`
	Timestamp    int64      `json:"timestamp"`
	Success      bool       `json:"success"`
	ActionNumber int        `json:"action_number"`
}

// CellView is the presentation-safe projection of a cell
type CellView struct {
	Index     int       `json:"index"`
	State     CellState `json:"state"`
	Mine      bool      `json:"mine,omitempty"`
	Adjacent  int       `json:"adjacent,omitempty"`
	WrongFlag bool      `json:"wrong_flag,omitempty"`
}

// GameView is everything a presentation layer needs to render a board.
// Mine positions of unrevealed cells are never included.
type GameView struct {
	Size           int        `json:"size"`
	MineCount      int        `json:"mine_count"`
	FlagsPlaced    int        `json:"flags_placed"`
	MinesRemaining int        `json:"mines_remaining"`
	Status         Status     `json:"status"`
	ElapsedSeconds *int       `json:"elapsed_seconds,omitempty"`
	Cells          []CellView `json:"cells"`
	Rows           []string   `json:"rows"`
	TotalActions   int        `json:"total_actions"`
}
