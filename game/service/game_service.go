package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
)

var (
	ErrInvalidAction   = errors.New("invalid action")
	ErrBoardTooLarge   = errors.New("board size exceeds the configured maximum")
	ErrSessionNotFound = errors.New("session not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, opts NewGameOptions) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Reveal(ctx context.Context, sessionID string, index int) (*ActionResult, error)
	ToggleFlag(ctx context.Context, sessionID string, index int) (*ActionResult, error)
	BulkAction(ctx context.Context, sessionID string, actions []engine.Action) (*BulkActionResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameView, error)

	// Game State
	GetGameView(ctx context.Context, sessionID string) (*engine.GameView, error)
	GetActionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	Defaults(ctx context.Context) (*Defaults, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// SettingsProvider supplies board defaults and limits
type SettingsProvider interface {
	GameDefaults() engine.GameConfig
	MaxBoardSize() int
}

// Session represents an active game session
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
