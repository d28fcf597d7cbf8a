package engine

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
)

var (
	ErrInvalidConfig   = errors.New("invalid board configuration")
	ErrIndexOutOfRange = errors.New("cell index out of range")
)

// ValidateGameConfig checks that a board can be built from config
func ValidateGameConfig(config GameConfig) error {
	if config.Size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, config.Size)
	}

	cells := config.Size * config.Size
	if config.MineCount <= 0 || config.MineCount >= cells {
		return fmt.Errorf("%w: mine_count must be between 1 and %d for a %dx%d board, got %d",
			ErrInvalidConfig, cells-1, config.Size, config.Size, config.MineCount)
	}

	return nil
}

// validateMines checks a fixed mine layout against config
func validateMines(config GameConfig, mines []int) error {
	if len(mines) != config.MineCount {
		return fmt.Errorf("%w: expected %d mine positions, got %d", ErrInvalidConfig, config.MineCount, len(mines))
	}

	cells := config.Size * config.Size
	seen := make(map[int]struct{}, len(mines))
	for _, idx := range mines {
		if idx < 0 || idx >= cells {
			return fmt.Errorf("%w: mine position %d outside [0, %d)", ErrInvalidConfig, idx, cells)
		}
		if _, dup := seen[idx]; dup {
			return fmt.Errorf("%w: duplicate mine position %d", ErrInvalidConfig, idx)
		}
		seen[idx] = struct{}{}
	}

	return nil
}

// placeMines draws count distinct indices in [0, cells) by rejection sampling
func placeMines(r *rand.Rand, cells, count int) []int {
	positions := make(map[int]struct{}, count)
	for len(positions) < count {
		positions[r.IntN(cells)] = struct{}{}
	}

	mines := make([]int, 0, count)
	for idx := range positions {
		mines = append(mines, idx)
	}
	sort.Ints(mines)
	return mines
}

// InitGameState creates a fresh board with mines at the given indices
func InitGameState(config GameConfig, mines []int) *GameState {
	cells := config.Size * config.Size

	state := &GameState{
		Size:       config.Size,
		MineCount:  config.MineCount,
		Cells:      make([]Cell, cells),
		Status:     InProgress,
		unrevealed: cells,
		neighbors:  make([][]int, cells),
	}

	for i := range state.Cells {
		state.Cells[i].State = Hidden
		state.neighbors[i] = Neighbors(i, config.Size)
	}
	for _, idx := range mines {
		state.Cells[idx].Mine = true
	}

	return state
}
