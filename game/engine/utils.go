package engine

// Neighbors returns the in-bounds indices around index on a size x size board,
// in row-major order. There is no wraparound.
func Neighbors(index, size int) []int {
	row, col := RowCol(index, size)
	result := make([]int, 0, 8)

	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if r >= 0 && r < size && c >= 0 && c < size {
				result = append(result, IndexOf(r, c, size))
			}
		}
	}

	return result
}

// IndexOf converts a row/column pair to a cell index
func IndexOf(row, col, size int) int {
	return row*size + col
}

// RowCol converts a cell index to its row/column pair
func RowCol(index, size int) (int, int) {
	return index / size, index % size
}

// CountAdjacentMines counts mines among the neighbors of index
func CountAdjacentMines(state *GameState, index int) int {
	count := 0
	for _, n := range state.neighborsOf(index) {
		if state.Cells[n].Mine {
			count++
		}
	}
	return count
}

// CountOpenings counts connected regions of zero-adjacency safe cells
func CountOpenings(state *GameState) int {
	visited := make([]bool, len(state.Cells))
	openings := 0

	for i, cell := range state.Cells {
		if visited[i] || cell.Mine || CountAdjacentMines(state, i) != 0 {
			continue
		}
		openings++
		stack := []int{i}
		visited[i] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, n := range state.neighborsOf(cur) {
				if visited[n] || state.Cells[n].Mine || CountAdjacentMines(state, n) != 0 {
					continue
				}
				visited[n] = true
				stack = append(stack, n)
			}
		}
	}

	return openings
}

// ThreeBV returns the minimum number of reveals needed to clear the board:
// one per opening plus one per numbered cell not bordering any opening.
func ThreeBV(state *GameState) int {
	bordersOpening := make([]bool, len(state.Cells))
	for i, cell := range state.Cells {
		if cell.Mine || CountAdjacentMines(state, i) != 0 {
			continue
		}
		for _, n := range state.neighborsOf(i) {
			bordersOpening[n] = true
		}
	}

	clicks := CountOpenings(state)
	for i, cell := range state.Cells {
		if cell.Mine || CountAdjacentMines(state, i) == 0 || bordersOpening[i] {
			continue
		}
		clicks++
	}

	return clicks
}

// MineDensity returns the fraction of cells holding a mine
func MineDensity(config GameConfig) float64 {
	return float64(config.MineCount) / float64(config.Size*config.Size)
}
