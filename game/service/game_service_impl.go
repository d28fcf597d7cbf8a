package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wricardo/mcp-training/minesweeper/game/engine"
)

var log = logrus.WithField("component", "service")

const (
	messageWon  = "You cleared the board!"
	messageLost = "Boom! You hit a mine."
)

// gameServiceImpl implements the GameService interface
// mu is held exclusively by anything that mutates a session, including
// its access time. Readers under RLock may touch sessions without the manager's lock.
type gameServiceImpl struct {
	sessions SessionManager
	settings SettingsProvider
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, settings SettingsProvider) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		settings: settings,
	}
}

// resolveConfig fills omitted options from defaults and enforces the size limit
func (s *gameServiceImpl) resolveConfig(opts NewGameOptions) (engine.GameConfig, error) {
	config := s.settings.GameDefaults()
	if opts.Size != 0 {
		config.Size = opts.Size
	}
	if opts.MineCount != 0 {
		config.MineCount = opts.MineCount
	}

	if max := s.settings.MaxBoardSize(); max > 0 && config.Size > max {
		return config, fmt.Errorf("%w: %d > %d", ErrBoardTooLarge, config.Size, max)
	}

	return config, engine.ValidateGameConfig(config)
}

func toSessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Config:         sess.Config,
		Game:           sess.Engine.View(),
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, opts NewGameOptions) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, err := s.resolveConfig(opts)
	if err != nil {
		return nil, err
	}

	// Let session manager generate a proper 4-character ID
	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.WithFields(logrus.Fields{
		"session": session.ID,
		"size":    config.Size,
		"mines":   config.MineCount,
	}).Info("session created")

	return toSessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return toSessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, toSessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Reveal opens a cell in a session
func (s *gameServiceImpl) Reveal(ctx context.Context, sessionID string, index int) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	revealed, err := sess.Engine.Reveal(index)
	if err != nil {
		return nil, err
	}

	result := &ActionResult{
		Success:  len(revealed) > 0,
		Action:   engine.Action{Type: engine.ActionReveal, Index: index},
		Game:     sess.Engine.View(),
		Revealed: revealed,
		Events:   revealEvents(sess.Engine, index, revealed),
	}
	result.Message = statusMessage(result.Game)

	log.WithFields(logrus.Fields{
		"session":  sessionID,
		"index":    index,
		"revealed": len(revealed),
		"status":   result.Game.Status,
	}).Debug("reveal")

	return result, nil
}

// ToggleFlag flags or unflags a cell in a session
func (s *gameServiceImpl) ToggleFlag(ctx context.Context, sessionID string, index int) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	wasFlagged := false
	if state := sess.Engine.GetState(); state.InBounds(index) {
		wasFlagged = state.Cells[index].State == engine.Flagged
	}

	changed, err := sess.Engine.ToggleFlag(index)
	if err != nil {
		return nil, err
	}

	result := &ActionResult{
		Success: changed,
		Action:  engine.Action{Type: engine.ActionFlag, Index: index},
		Game:    sess.Engine.View(),
		Events:  []GameEvent{flagEvent(sess.Engine, index, changed, wasFlagged)},
	}
	result.Message = statusMessage(result.Game)

	log.WithFields(logrus.Fields{
		"session": sessionID,
		"index":   index,
		"changed": changed,
		"flags":   result.Game.FlagsPlaced,
	}).Debug("toggle flag")

	return result, nil
}

// BulkAction executes multiple actions in sequence
func (s *gameServiceImpl) BulkAction(ctx context.Context, sessionID string, actions []engine.Action) (*BulkActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkActionResult{
		RequestedActions: len(actions),
		Events:           make([]GameEvent, 0),
		Success:          true,
	}

	// Limit actions to prevent abuse
	if len(actions) > engine.MaxBulkActions {
		result.Truncated = true
		result.Limit = engine.MaxBulkActions
		actions = actions[:engine.MaxBulkActions]
	}

	for i, action := range actions {
		if sess.Engine.IsGameOver() {
			result.StoppedOnAction = i + 1
			if sess.Engine.IsVictory() {
				result.StopReasonCode = StopVictory
				result.StoppedReason = "game already won"
			} else {
				result.StopReasonCode = StopGameOver
				result.StoppedReason = "game already over"
			}
			break
		}

		step := StepInfo{Idx: i + 1, Action: action.Type, Index: action.Index}
		var events []GameEvent

		switch action.Type {
		case engine.ActionReveal:
			revealed, err := sess.Engine.Reveal(action.Index)
			if err != nil {
				result.stop(i, StopInvalidIndex, fmt.Sprintf("action %d: %v", i+1, err))
				break
			}
			step.Changed = len(revealed) > 0
			step.Revealed = len(revealed)
			result.TotalRevealed += len(revealed)
			events = revealEvents(sess.Engine, action.Index, revealed)

		case engine.ActionFlag:
			state := sess.Engine.GetState()
			wasFlagged := state.InBounds(action.Index) && state.Cells[action.Index].State == engine.Flagged
			changed, err := sess.Engine.ToggleFlag(action.Index)
			if err != nil {
				result.stop(i, StopInvalidIndex, fmt.Sprintf("action %d: %v", i+1, err))
				break
			}
			step.Changed = changed
			events = []GameEvent{flagEvent(sess.Engine, action.Index, changed, wasFlagged)}

		default:
			result.stop(i, StopInvalidAction, fmt.Sprintf("action %d: %v %q", i+1, ErrInvalidAction, action.Type))
		}

		if result.StopReasonCode != "" {
			break
		}

		step.Status = sess.Engine.Status()
		result.ActionsExecuted++
		result.Steps = append(result.Steps, step)
		result.Events = append(result.Events, events...)
	}

	result.Game = sess.Engine.View()
	result.Message = statusMessage(result.Game)

	if result.StopReasonCode == "" {
		switch result.Game.Status {
		case engine.Won:
			result.StopReasonCode = StopVictory
		case engine.Lost:
			result.StopReasonCode = StopGameOver
		}
	}

	log.WithFields(logrus.Fields{
		"session":  sessionID,
		"executed": result.ActionsExecuted,
		"of":       result.RequestedActions,
		"stop":     result.StopReasonCode,
		"status":   result.Game.Status,
	}).Debug("bulk action")

	return result, nil
}

func (r *BulkActionResult) stop(i int, code, reason string) {
	r.Success = false
	r.StopReasonCode = code
	r.StoppedReason = reason
	r.StoppedOnAction = i + 1
}

// Reset starts a new board in the session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	sess.Engine.Reset()

	log.WithField("session", sessionID).Info("game reset")
	return sess.Engine.View(), nil
}

// GetGameView retrieves the current board view
func (s *gameServiceImpl) GetGameView(ctx context.Context, sessionID string) (*engine.GameView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.View(), nil
}

// GetActionHistory returns paginated action history
func (s *gameServiceImpl) GetActionHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	history := sess.Engine.GetActionHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var actions []engine.ActionHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			actions = append(actions, history[i])
		}
	} else if start < total {
		actions = append(actions, history[start:end]...)
	}

	if actions == nil {
		actions = []engine.ActionHistoryEntry{}
	}

	return &HistoryResponse{
		Actions:      actions,
		TotalActions: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// Defaults reports the board used when CreateSession options are omitted
func (s *gameServiceImpl) Defaults(ctx context.Context) (*Defaults, error) {
	config := s.settings.GameDefaults()
	return &Defaults{
		Size:         config.Size,
		MineCount:    config.MineCount,
		MaxBoardSize: s.settings.MaxBoardSize(),
		MaxBulk:      engine.MaxBulkActions,
	}, nil
}

// IsClientError reports whether err was caused by bad caller input
func IsClientError(err error) bool {
	return errors.Is(err, engine.ErrIndexOutOfRange) ||
		errors.Is(err, engine.ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrBoardTooLarge)
}

// statusMessage renders the display string for a board
func statusMessage(view *engine.GameView) string {
	switch view.Status {
	case engine.Won:
		return messageWon
	case engine.Lost:
		return messageLost
	default:
		return fmt.Sprintf("%d mines remaining", view.MinesRemaining)
	}
}

// revealEvents generates events from a reveal
func revealEvents(eng *engine.GameEngine, index int, revealed []int) []GameEvent {
	if len(revealed) == 0 {
		return nil
	}

	now := time.Now()
	row, col := engine.RowCol(index, eng.GetConfig().Size)
	events := []GameEvent{}

	switch eng.Status() {
	case engine.Lost:
		events = append(events, GameEvent{
			Type:      EventGameOver,
			Message:   fmt.Sprintf("Mine at (%d,%d); %d mines exposed", row, col, len(revealed)),
			Timestamp: now,
			Index:     index,
		})
		return events
	}

	events = append(events, GameEvent{
		Type:      EventReveal,
		Message:   fmt.Sprintf("Revealed (%d,%d)", row, col),
		Timestamp: now,
		Index:     index,
	})
	if len(revealed) > 1 {
		events = append(events, GameEvent{
			Type:      EventFloodFill,
			Message:   fmt.Sprintf("Opened %d cells", len(revealed)),
			Timestamp: now,
			Index:     index,
		})
	}
	if eng.IsVictory() {
		events = append(events, GameEvent{
			Type:      EventVictory,
			Message:   messageWon,
			Timestamp: now,
			Index:     index,
		})
	}

	return events
}

// flagEvent describes the outcome of a flag toggle
func flagEvent(eng *engine.GameEngine, index int, changed, wasFlagged bool) GameEvent {
	row, col := engine.RowCol(index, eng.GetConfig().Size)
	ev := GameEvent{Timestamp: time.Now(), Index: index}

	switch {
	case changed && wasFlagged:
		ev.Type = EventUnflag
		ev.Message = fmt.Sprintf("Flag removed at (%d,%d)", row, col)
	case changed:
		ev.Type = EventFlag
		ev.Message = fmt.Sprintf("Flag placed at (%d,%d)", row, col)
	case !eng.IsGameOver() && eng.MinesRemaining() == 0 && eng.GetState().Cells[index].State == engine.Hidden:
		ev.Type = EventFlagLimit
		ev.Message = "No flags left"
	default:
		ev.Type = EventFlag
		ev.Message = fmt.Sprintf("Nothing to flag at (%d,%d)", row, col)
	}

	return ev
}
