// Package engine provides the core game logic for Minesweeper.
//
// The engine package implements the board state machine:
//   - Mine placement at construction (random, seeded, or fixed)
//   - Cell reveal with flood fill over zero-adjacency regions
//   - Flag bookkeeping capped at the mine count
//   - Win and loss detection
//   - Elapsed time from the first reveal until the game ends
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds the cells and status of one
// board, while GameView is the projection a display may render: mines stay
// hidden until their cell is revealed.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.GameConfig{Size: 8, MineCount: 10})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	revealed, err := gameEngine.Reveal(27)
//	changed, err := gameEngine.ToggleFlag(0)
//	view := gameEngine.View()
//
// Game Rules:
//
// Revealing a mine loses the game and exposes every mine. Revealing a cell
// with no adjacent mines opens all of its neighbors, cascading through the
// connected empty region. The game is won once every non-mine cell has been
// revealed; flags are not required. Once won or lost, all further actions are
// ignored.
//
// Cell indices are row-major (index = row*size + col). Out-of-range indices
// are rejected with ErrIndexOutOfRange; every other invalid action is a
// silent no-op. The engine does no locking; callers serialize access.
package engine
