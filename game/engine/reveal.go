package engine

import (
	"fmt"
	"time"
)

// InBounds reports whether index addresses a cell on the board
func (gs *GameState) InBounds(index int) bool {
	return index >= 0 && index < len(gs.Cells)
}

func (gs *GameState) checkIndex(index int) error {
	if !gs.InBounds(index) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(gs.Cells))
	}
	return nil
}

// neighborsOf returns the cached neighbor list, computing it when the cache is absent
func (gs *GameState) neighborsOf(index int) []int {
	if gs.neighbors != nil && gs.neighbors[index] != nil {
		return gs.neighbors[index]
	}
	return Neighbors(index, gs.Size)
}

// Unrevealed returns the number of cells not yet revealed
func (gs *GameState) Unrevealed() int {
	return gs.unrevealed
}

// ToggleFlag flags or unflags a hidden cell. It reports whether the board changed.
// Flags are capped at MineCount.
func (gs *GameState) ToggleFlag(index int) (bool, error) {
	if err := gs.checkIndex(index); err != nil {
		return false, err
	}

	cell := &gs.Cells[index]
	if gs.Status != InProgress || cell.State == Revealed {
		return false, nil
	}

	if cell.State == Flagged {
		cell.State = Hidden
		gs.FlagsPlaced--
		return true, nil
	}

	if gs.FlagsPlaced >= gs.MineCount {
		return false, nil
	}

	cell.State = Flagged
	gs.FlagsPlaced++
	return true, nil
}

// Reveal opens a cell at time now and returns the indices that became revealed.
// A zero-adjacency cell opens its whole connected region.
func (gs *GameState) Reveal(index int, now time.Time) ([]int, error) {
	if err := gs.checkIndex(index); err != nil {
		return nil, err
	}

	if gs.Status != InProgress {
		return nil, nil
	}

	// The first reveal starts the clock, even if it lands on a flag
	if gs.StartedAt.IsZero() {
		gs.StartedAt = now
	}

	if gs.Cells[index].State != Hidden {
		return nil, nil
	}

	if gs.Cells[index].Mine {
		gs.markRevealed(index)
		gs.Status = Lost
		gs.EndedAt = now
		return append([]int{index}, gs.revealAllMines()...), nil
	}

	var revealed []int
	stack := []int{index}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if gs.Cells[cur].State != Hidden {
			continue
		}

		gs.markRevealed(cur)
		revealed = append(revealed, cur)

		adjacent := CountAdjacentMines(gs, cur)
		gs.Cells[cur].Adjacent = adjacent
		if adjacent > 0 {
			continue
		}

		for _, n := range gs.neighborsOf(cur) {
			if gs.Cells[n].State == Hidden {
				stack = append(stack, n)
			}
		}
	}

	gs.checkWin(now)
	return revealed, nil
}

func (gs *GameState) markRevealed(index int) {
	gs.Cells[index].State = Revealed
	gs.unrevealed--
}

// revealAllMines exposes every mine after a loss, including flagged ones.
// A flagged mine loses its flag, so FlagsPlaced and MinesRemaining drop on a loss
// and keep counting only the flags still on the board (wrong flags).
func (gs *GameState) revealAllMines() []int {
	var exposed []int
	for i := range gs.Cells {
		cell := &gs.Cells[i]
		if !cell.Mine || cell.State == Revealed {
			continue
		}
		if cell.State == Flagged {
			gs.FlagsPlaced--
		}
		gs.markRevealed(i)
		exposed = append(exposed, i)
	}
	return exposed
}

// checkWin ends the game once only mines remain unrevealed. Safe to call repeatedly.
func (gs *GameState) checkWin(now time.Time) {
	if gs.Status == InProgress && gs.unrevealed == gs.MineCount {
		gs.Status = Won
		gs.EndedAt = now
	}
}

// Elapsed returns whole seconds since the first reveal, frozen once the game is over.
// The second result is false when the clock has not started.
func (gs *GameState) Elapsed(now time.Time) (int, bool) {
	if gs.StartedAt.IsZero() {
		return 0, false
	}

	end := now
	if !gs.EndedAt.IsZero() {
		end = gs.EndedAt
	}

	elapsed := end.Sub(gs.StartedAt)
	if elapsed < 0 {
		return 0, true
	}
	return int(elapsed / time.Second), true
}

// MinePositions returns the indices of all mines in ascending order
func (gs *GameState) MinePositions() []int {
	var mines []int
	for i, cell := range gs.Cells {
		if cell.Mine {
			mines = append(mines, i)
		}
	}
	return mines
}
