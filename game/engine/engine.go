package engine

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	View() *GameView
	Reset() *GameState
	Status() Status
	IsGameOver() bool
	IsVictory() bool

	// Player actions
	Reveal(index int) ([]int, error)
	ToggleFlag(index int) (bool, error)

	// Readouts
	FlagsPlaced() int
	MinesRemaining() int
	ElapsedSeconds() (int, bool)

	// Configuration
	GetConfig() GameConfig

	// History
	GetActionHistory() []ActionHistoryEntry
	GetLastAction() *ActionHistoryEntry
}

// Clock supplies the current time; time.Now carries the monotonic reading
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Option customizes engine construction
type Option func(*GameEngine)

// WithRand sets the random source used for mine placement
func WithRand(r *rand.Rand) Option {
	return func(e *GameEngine) { e.rng = r }
}

// WithSeed seeds mine placement deterministically
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithClock sets the clock used for elapsed time
func WithClock(c Clock) Option {
	return func(e *GameEngine) { e.clock = c }
}

// WithMines fixes the mine layout of the first board. Reset draws a random layout.
func WithMines(mines []int) Option {
	return func(e *GameEngine) { e.fixedMines = append([]int(nil), mines...) }
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state   *GameState
	config  GameConfig
	rng     *rand.Rand
	clock   Clock
	history []ActionHistoryEntry

	fixedMines []int
}

// NewEngine validates config and initializes a fresh board
func NewEngine(config GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{
		config:  config,
		clock:   systemClock{},
		history: []ActionHistoryEntry{},
	}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.rng == nil {
		engine.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	mines := engine.fixedMines
	if mines != nil {
		if err := validateMines(config, mines); err != nil {
			return nil, err
		}
		engine.fixedMines = nil
	} else {
		mines = placeMines(engine.rng, config.Size*config.Size, config.MineCount)
	}

	engine.state = InitGameState(config, mines)
	return engine, nil
}

// NewEngineWithDefaults creates an 8x8 engine with 10 mines
func NewEngineWithDefaults() *GameEngine {
	engine, err := NewEngine(DefaultGameConfig())
	if err != nil {
		// The default configuration is always valid
		panic(err)
	}
	return engine
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// Reset starts a new game with the same configuration and fresh mines
func (e *GameEngine) Reset() *GameState {
	mines := placeMines(e.rng, e.config.Size*e.config.Size, e.config.MineCount)
	e.state = InitGameState(e.config, mines)
	e.history = []ActionHistoryEntry{}
	return e.state
}

// Status returns the game status
func (e *GameEngine) Status() Status {
	return e.state.Status
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.Status != InProgress
}

// IsVictory returns whether the player has won
func (e *GameEngine) IsVictory() bool {
	return e.state.Status == Won
}

// Reveal opens the cell at index and records the action
func (e *GameEngine) Reveal(index int) ([]int, error) {
	now := e.clock.Now()
	revealed, err := e.state.Reveal(index, now)
	if err != nil {
		return nil, err
	}

	e.record(ActionReveal, index, len(revealed), len(revealed) > 0, now)
	return revealed, nil
}

// ToggleFlag flags or unflags the cell at index and records the action
func (e *GameEngine) ToggleFlag(index int) (bool, error) {
	changed, err := e.state.ToggleFlag(index)
	if err != nil {
		return false, err
	}

	e.record(ActionFlag, index, 0, changed, e.clock.Now())
	return changed, nil
}

// BulkAction applies actions in order, stopping once the game is over.
// Unknown action types and out-of-range indices count as unsuccessful.
func (e *GameEngine) BulkAction(actions []Action) []bool {
	results := make([]bool, 0, len(actions))

	for _, action := range actions {
		if e.IsGameOver() {
			break
		}

		var success bool
		switch action.Type {
		case ActionReveal:
			revealed, err := e.Reveal(action.Index)
			success = err == nil && len(revealed) > 0
		case ActionFlag:
			changed, err := e.ToggleFlag(action.Index)
			success = err == nil && changed
		}
		results = append(results, success)
	}

	return results
}

// FlagsPlaced returns the number of flagged cells
func (e *GameEngine) FlagsPlaced() int {
	return e.state.FlagsPlaced
}

// MinesRemaining returns the mine count minus the flags placed
func (e *GameEngine) MinesRemaining() int {
	return e.state.MineCount - e.state.FlagsPlaced
}

// ElapsedSeconds returns the running clock; false before the first reveal
func (e *GameEngine) ElapsedSeconds() (int, bool) {
	return e.state.Elapsed(e.clock.Now())
}

// GetConfig returns the board configuration
func (e *GameEngine) GetConfig() GameConfig {
	return e.config
}

// GetActionHistory returns the actions of the current game
func (e *GameEngine) GetActionHistory() []ActionHistoryEntry {
	return e.history
}

// GetLastAction returns the last action taken, or nil if none
func (e *GameEngine) GetLastAction() *ActionHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// MinePositions returns the mine indices of the current board
func (e *GameEngine) MinePositions() []int {
	return e.state.MinePositions()
}

func (e *GameEngine) record(action ActionType, index, revealed int, success bool, now time.Time) {
	row, col := RowCol(index, e.state.Size)
	e.history = append(e.history, ActionHistoryEntry{
		Action:       action,
		Index:        index,
		Row:          row,
		Col:          col,
		Revealed:     revealed,
		FlagsPlaced:  e.state.FlagsPlaced,
		Status:       e.state.Status,
		Timestamp:    now.Unix(),
		Success:      success,
		ActionNumber: len(e.history) + 1,
	})
}

// View projects the state into what a presentation layer may display
func (e *GameEngine) View() *GameView {
	gs := e.state
	view := &GameView{
		Size:           gs.Size,
		MineCount:      gs.MineCount,
		FlagsPlaced:    gs.FlagsPlaced,
		MinesRemaining: gs.MineCount - gs.FlagsPlaced,
		Status:         gs.Status,
		Cells:          make([]CellView, len(gs.Cells)),
		TotalActions:   len(e.history),
	}

	if elapsed, ok := e.ElapsedSeconds(); ok {
		view.ElapsedSeconds = &elapsed
	}

	for i, cell := range gs.Cells {
		cv := CellView{Index: i, State: cell.State}
		switch cell.State {
		case Revealed:
			cv.Mine = cell.Mine
			if !cell.Mine {
				cv.Adjacent = cell.Adjacent
			}
		case Flagged:
			cv.WrongFlag = gs.Status == Lost && !cell.Mine
		}
		view.Cells[i] = cv
	}

	view.Rows = RenderRows(view)
	return view
}

// RenderRows draws the view as text, one string per row:
// '#' hidden, 'F' flag, 'X' wrong flag, '*' mine, '.' empty, digits for counts
func RenderRows(view *GameView) []string {
	rows := make([]string, 0, view.Size)
	for r := 0; r < view.Size; r++ {
		var sb strings.Builder
		for c := 0; c < view.Size; c++ {
			cv := view.Cells[IndexOf(r, c, view.Size)]
			switch {
			case cv.State == Hidden:
				sb.WriteByte('#')
			case cv.State == Flagged && cv.WrongFlag:
				sb.WriteByte('X')
			case cv.State == Flagged:
				sb.WriteByte('F')
			case cv.Mine:
				sb.WriteByte('*')
			case cv.Adjacent == 0:
				sb.WriteByte('.')
			default:
				sb.WriteString(strconv.Itoa(cv.Adjacent))
			}
		}
		rows = append(rows, sb.String())
	}
	return rows
}
