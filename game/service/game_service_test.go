package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
	"github.com/wricardo/mcp-training/minesweeper/game/session"
)

// MockSessionManager implements service.SessionManager for testing.
// Engines are built on a fixed mine layout when mines is set.
type MockSessionManager struct {
	sessions map[string]*service.Session
	mines    []int
}

func NewMockSessionManager(mines ...int) *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		mines:    mines,
	}
}

func (m *MockSessionManager) Create(id string, config engine.GameConfig) (*service.Session, error) {
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("sess already exists")
	}

	var opts []engine.Option
	if m.mines != nil {
		opts = append(opts, engine.WithMines(m.mines))
	}
	eng, err := engine.NewEngine(config, opts...)
	if err != nil {
		return nil, err
	}

	sess := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}

	m.sessions[id] = sess
	return sess, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	sess, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config engine.GameConfig) (*service.Session, error) {
	if sess, exists := m.sessions[id]; exists {
		return sess, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if sess, exists := m.sessions[id]; exists {
		sess.LastAccessedAt = time.Now()
	}
	return nil
}

// MockSettings implements service.SettingsProvider
type MockSettings struct {
	defaults engine.GameConfig
	maxSize  int
}

func (m *MockSettings) GameDefaults() engine.GameConfig { return m.defaults }
func (m *MockSettings) MaxBoardSize() int               { return m.maxSize }

func newService(mines ...int) (service.GameService, *MockSessionManager) {
	sessions := NewMockSessionManager(mines...)
	settings := &MockSettings{defaults: engine.DefaultGameConfig(), maxSize: 16}
	return service.NewGameService(sessions, settings), sessions
}

// columnWall is a 5x5 board with mines down the middle column
var columnWall = []int{2, 7, 12, 17, 22}

func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		svc, _ := newService()
		info, err := svc.CreateSession(ctx, service.NewGameOptions{})
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.ID == "" {
			t.Error("Expected session ID")
		}
		if info.Config.Size != engine.DefaultBoardSize || info.Config.MineCount != engine.DefaultMineCount {
			t.Errorf("Expected default board, got %+v", info.Config)
		}
		if info.Game == nil || len(info.Game.Cells) != 64 {
			t.Error("Expected an 8x8 game view")
		}
	})

	t.Run("custom board", func(t *testing.T) {
		svc, _ := newService()
		info, err := svc.CreateSession(ctx, service.NewGameOptions{Size: 5, MineCount: 3})
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.Game.Size != 5 || info.Game.MineCount != 3 {
			t.Errorf("Expected 5x5 with 3 mines, got %dx%d with %d", info.Game.Size, info.Game.Size, info.Game.MineCount)
		}
	})

	t.Run("too large", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.CreateSession(ctx, service.NewGameOptions{Size: 17, MineCount: 3})
		if !errors.Is(err, service.ErrBoardTooLarge) {
			t.Errorf("Expected ErrBoardTooLarge, got %v", err)
		}
		if !service.IsClientError(err) {
			t.Error("Expected a client error")
		}
	})

	t.Run("too many mines", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.CreateSession(ctx, service.NewGameOptions{Size: 3, MineCount: 9})
		if !errors.Is(err, engine.ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestGameService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	info, err := svc.CreateSession(ctx, service.NewGameOptions{})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	got, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got.ID != info.ID {
		t.Errorf("Expected ID %s, got %s", info.ID, got.ID)
	}

	list, _ := svc.ListSessions(ctx)
	if len(list) != 1 {
		t.Errorf("Expected 1 session, got %d", len(list))
	}

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}

	_, err = svc.GetSession(ctx, info.ID)
	if !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	_, err = svc.Reveal(ctx, info.ID, 0)
	if !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound from Reveal, got %v", err)
	}
}

func TestGameService_Reveal(t *testing.T) {
	ctx := context.Background()

	t.Run("flood fill", func(t *testing.T) {
		svc, _ := newService(columnWall...)
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 5, MineCount: 5})

		result, err := svc.Reveal(ctx, info.ID, 0)
		if err != nil {
			t.Fatalf("Reveal failed: %v", err)
		}
		if !result.Success {
			t.Error("Expected success")
		}
		if len(result.Revealed) != 10 {
			t.Errorf("Expected 10 revealed cells, got %d", len(result.Revealed))
		}
		if len(result.Events) != 2 || result.Events[1].Type != service.EventFloodFill {
			t.Errorf("Expected reveal and flood_fill events, got %+v", result.Events)
		}
		if result.Message != "5 mines remaining" {
			t.Errorf("Unexpected message %q", result.Message)
		}
		if result.Game.ElapsedSeconds == nil {
			t.Error("Expected the clock to start")
		}
	})

	t.Run("mine", func(t *testing.T) {
		svc, _ := newService(columnWall...)
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 5, MineCount: 5})

		result, err := svc.Reveal(ctx, info.ID, 12)
		if err != nil {
			t.Fatalf("Reveal failed: %v", err)
		}
		if result.Game.Status != engine.Lost {
			t.Errorf("Expected lost, got %s", result.Game.Status)
		}
		if result.Message != "Boom! You hit a mine." {
			t.Errorf("Unexpected message %q", result.Message)
		}
		if len(result.Events) != 1 || result.Events[0].Type != service.EventGameOver {
			t.Errorf("Expected a game_over event, got %+v", result.Events)
		}
	})

	t.Run("victory", func(t *testing.T) {
		svc, _ := newService(3)
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 2, MineCount: 1})

		var result *service.ActionResult
		for _, idx := range []int{0, 1, 2} {
			var err error
			result, err = svc.Reveal(ctx, info.ID, idx)
			if err != nil {
				t.Fatalf("Reveal %d failed: %v", idx, err)
			}
		}
		if result.Game.Status != engine.Won {
			t.Errorf("Expected won, got %s", result.Game.Status)
		}
		last := result.Events[len(result.Events)-1]
		if last.Type != service.EventVictory {
			t.Errorf("Expected victory event, got %s", last.Type)
		}
	})

	t.Run("out of range", func(t *testing.T) {
		svc, _ := newService()
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{})

		_, err := svc.Reveal(ctx, info.ID, 64)
		if !errors.Is(err, engine.ErrIndexOutOfRange) {
			t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
		}
		if !service.IsClientError(err) {
			t.Error("Expected a client error")
		}
	})

	t.Run("already revealed", func(t *testing.T) {
		svc, _ := newService(columnWall...)
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 5, MineCount: 5})

		svc.Reveal(ctx, info.ID, 0)
		result, err := svc.Reveal(ctx, info.ID, 0)
		if err != nil {
			t.Fatalf("Reveal failed: %v", err)
		}
		if result.Success || len(result.Events) != 0 {
			t.Errorf("Expected a no-op, got %+v", result)
		}
	})
}

func TestGameService_ToggleFlag(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(3)
	info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 2, MineCount: 1})

	result, err := svc.ToggleFlag(ctx, info.ID, 3)
	if err != nil {
		t.Fatalf("ToggleFlag failed: %v", err)
	}
	if !result.Success || result.Events[0].Type != service.EventFlag {
		t.Errorf("Expected flag placed, got %+v", result)
	}
	if result.Game.MinesRemaining != 0 {
		t.Errorf("Expected 0 mines remaining, got %d", result.Game.MinesRemaining)
	}

	// Flag budget is spent
	result, _ = svc.ToggleFlag(ctx, info.ID, 0)
	if result.Success || result.Events[0].Type != service.EventFlagLimit {
		t.Errorf("Expected flag_limit, got %+v", result.Events)
	}

	result, _ = svc.ToggleFlag(ctx, info.ID, 3)
	if !result.Success || result.Events[0].Type != service.EventUnflag {
		t.Errorf("Expected unflag, got %+v", result.Events)
	}

	if _, err := svc.ToggleFlag(ctx, info.ID, -1); !errors.Is(err, engine.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestGameService_BulkAction(t *testing.T) {
	ctx := context.Background()

	t.Run("plays to victory", func(t *testing.T) {
		svc, _ := newService(3)
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 2, MineCount: 1})

		result, err := svc.BulkAction(ctx, info.ID, []engine.Action{
			{Type: engine.ActionFlag, Index: 3},
			{Type: engine.ActionReveal, Index: 0},
			{Type: engine.ActionReveal, Index: 1},
			{Type: engine.ActionReveal, Index: 2},
		})
		if err != nil {
			t.Fatalf("BulkAction failed: %v", err)
		}
		if result.ActionsExecuted != 4 || len(result.Steps) != 4 {
			t.Errorf("Expected 4 executed steps, got %d/%d", result.ActionsExecuted, len(result.Steps))
		}
		if result.StopReasonCode != service.StopVictory {
			t.Errorf("Expected victory stop code, got %q", result.StopReasonCode)
		}
		if result.TotalRevealed != 3 {
			t.Errorf("Expected 3 revealed, got %d", result.TotalRevealed)
		}
	})

	t.Run("stops after loss", func(t *testing.T) {
		svc, _ := newService(3)
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 2, MineCount: 1})

		result, _ := svc.BulkAction(ctx, info.ID, []engine.Action{
			{Type: engine.ActionReveal, Index: 3},
			{Type: engine.ActionReveal, Index: 0},
		})
		if result.ActionsExecuted != 1 {
			t.Errorf("Expected 1 executed, got %d", result.ActionsExecuted)
		}
		if result.StopReasonCode != service.StopGameOver || result.StoppedOnAction != 2 {
			t.Errorf("Expected game_over on action 2, got %q on %d", result.StopReasonCode, result.StoppedOnAction)
		}
	})

	t.Run("stops after victory", func(t *testing.T) {
		svc, _ := newService(3)
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 2, MineCount: 1})

		result, _ := svc.BulkAction(ctx, info.ID, []engine.Action{
			{Type: engine.ActionReveal, Index: 0},
			{Type: engine.ActionReveal, Index: 1},
			{Type: engine.ActionReveal, Index: 2},
			{Type: engine.ActionFlag, Index: 3},
		})
		if result.Game.Status != engine.Won {
			t.Fatalf("Expected won board, got %s", result.Game.Status)
		}
		if result.ActionsExecuted != 3 {
			t.Errorf("Expected 3 executed, got %d", result.ActionsExecuted)
		}
		if result.StopReasonCode != service.StopVictory || result.StoppedOnAction != 4 {
			t.Errorf("Expected victory on action 4, got %q on %d", result.StopReasonCode, result.StoppedOnAction)
		}
	})

	t.Run("invalid action", func(t *testing.T) {
		svc, _ := newService(3)
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 2, MineCount: 1})

		result, _ := svc.BulkAction(ctx, info.ID, []engine.Action{
			{Type: engine.ActionReveal, Index: 0},
			{Type: "chord", Index: 1},
			{Type: engine.ActionReveal, Index: 1},
		})
		if result.Success {
			t.Error("Expected failure")
		}
		if result.StopReasonCode != service.StopInvalidAction || result.StoppedOnAction != 2 {
			t.Errorf("Expected invalid_action on action 2, got %q on %d", result.StopReasonCode, result.StoppedOnAction)
		}
		if result.ActionsExecuted != 1 {
			t.Errorf("Expected 1 executed, got %d", result.ActionsExecuted)
		}
	})

	t.Run("invalid index", func(t *testing.T) {
		svc, _ := newService(3)
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 2, MineCount: 1})

		result, _ := svc.BulkAction(ctx, info.ID, []engine.Action{{Type: engine.ActionFlag, Index: 4}})
		if result.StopReasonCode != service.StopInvalidIndex {
			t.Errorf("Expected invalid_index, got %q", result.StopReasonCode)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		svc, _ := newService()
		info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 16, MineCount: 1})

		actions := make([]engine.Action, engine.MaxBulkActions+10)
		for i := range actions {
			actions[i] = engine.Action{Type: engine.ActionFlag, Index: 0}
		}
		result, _ := svc.BulkAction(ctx, info.ID, actions)
		if !result.Truncated || result.Limit != engine.MaxBulkActions {
			t.Errorf("Expected truncation at %d, got %+v", engine.MaxBulkActions, result.Limit)
		}
		if result.ActionsExecuted != engine.MaxBulkActions {
			t.Errorf("Expected %d executed, got %d", engine.MaxBulkActions, result.ActionsExecuted)
		}
		if result.RequestedActions != engine.MaxBulkActions+10 {
			t.Errorf("Expected requested count preserved, got %d", result.RequestedActions)
		}
	})
}

func TestGameService_Reset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(3)
	info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 2, MineCount: 1})

	svc.Reveal(ctx, info.ID, 3)
	view, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if view.Status != engine.InProgress || view.TotalActions != 0 || view.ElapsedSeconds != nil {
		t.Errorf("Expected a fresh board, got %+v", view)
	}
	for _, cell := range view.Cells {
		if cell.State != engine.Hidden {
			t.Errorf("Expected all hidden, cell %d is %s", cell.Index, cell.State)
		}
	}
}

func TestGameService_GetActionHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	info, _ := svc.CreateSession(ctx, service.NewGameOptions{Size: 8, MineCount: 10})

	for i := 0; i < 25; i++ {
		svc.ToggleFlag(ctx, info.ID, 0)
	}

	t.Run("default desc page", func(t *testing.T) {
		resp, err := svc.GetActionHistory(ctx, info.ID, service.HistoryOptions{})
		if err != nil {
			t.Fatalf("GetActionHistory failed: %v", err)
		}
		if resp.TotalActions != 25 || resp.TotalPages != 2 || len(resp.Actions) != 20 {
			t.Errorf("Unexpected page: total=%d pages=%d len=%d", resp.TotalActions, resp.TotalPages, len(resp.Actions))
		}
		if resp.Actions[0].ActionNumber != 25 {
			t.Errorf("Expected newest first, got %d", resp.Actions[0].ActionNumber)
		}
		if !resp.HasNext || resp.HasPrevious {
			t.Error("Expected next but no previous")
		}
	})

	t.Run("asc second page", func(t *testing.T) {
		resp, _ := svc.GetActionHistory(ctx, info.ID, service.HistoryOptions{Page: 2, Limit: 20, Order: "asc"})
		if len(resp.Actions) != 5 || resp.Actions[0].ActionNumber != 21 {
			t.Errorf("Expected actions 21-25, got %d starting at %d", len(resp.Actions), resp.Actions[0].ActionNumber)
		}
	})

	t.Run("past the end", func(t *testing.T) {
		resp, _ := svc.GetActionHistory(ctx, info.ID, service.HistoryOptions{Page: 9})
		if resp.Actions == nil || len(resp.Actions) != 0 {
			t.Errorf("Expected empty non-nil page, got %v", resp.Actions)
		}
	})
}

func TestGameService_Defaults(t *testing.T) {
	svc, _ := newService()
	d, err := svc.Defaults(context.Background())
	if err != nil {
		t.Fatalf("Defaults failed: %v", err)
	}
	if d.Size != 8 || d.MineCount != 10 || d.MaxBoardSize != 16 || d.MaxBulk != engine.MaxBulkActions {
		t.Errorf("Unexpected defaults %+v", d)
	}
}

// Reads that touch the access time run beside listings; run with -race
func TestGameService_ConcurrentReads(t *testing.T) {
	managers := map[string]service.SessionManager{
		"mock":    NewMockSessionManager(),
		"session": session.NewManager(),
	}

	for name, manager := range managers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			settings := &MockSettings{defaults: engine.DefaultGameConfig(), maxSize: 16}
			svc := service.NewGameService(manager, settings)
			info, err := svc.CreateSession(ctx, service.NewGameOptions{})
			if err != nil {
				t.Fatalf("CreateSession failed: %v", err)
			}

			var wg sync.WaitGroup
			for i := 0; i < 200; i++ {
				wg.Add(3)
				go func() {
					defer wg.Done()
					if _, err := svc.GetGameView(ctx, info.ID); err != nil {
						t.Errorf("GetGameView failed: %v", err)
					}
				}()
				go func() {
					defer wg.Done()
					if _, err := svc.GetSession(ctx, info.ID); err != nil {
						t.Errorf("GetSession failed: %v", err)
					}
				}()
				go func() {
					defer wg.Done()
					sessions, _ := svc.ListSessions(ctx)
					if len(sessions) != 1 || sessions[0].LastAccessedAt.IsZero() {
						t.Errorf("Unexpected listing %+v", sessions)
					}
				}()
			}
			wg.Wait()
		})
	}
}
