// Command analyze deals seeded boards for a size and mine count and prints
// layout statistics: mine density, openings, and 3BV (the minimum number of
// reveals needed to clear a board).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/minesweeper/game/engine"
)

// Summary aggregates the statistics of a batch of boards.
type Summary struct {
	Config       engine.GameConfig
	Boards       int
	Density      float64
	MinBV        int
	MaxBV        int
	MeanBV       float64
	MeanOpenings float64
	NoOpenings   int
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Print layout statistics for seeded boards",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "size", Value: engine.DefaultBoardSize, Usage: "Board side length"},
			&cli.IntFlag{Name: "mines", Value: engine.DefaultMineCount, Usage: "Number of mines"},
			&cli.IntFlag{Name: "boards", Value: 1000, Usage: "Number of boards to deal"},
			&cli.IntFlag{Name: "seed", Value: 1, Usage: "Seed of the first board; board i uses seed+i"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			config := engine.GameConfig{Size: int(cmd.Int("size")), MineCount: int(cmd.Int("mines"))}
			summary, err := analyzeBoards(config, int(cmd.Int("boards")), uint64(cmd.Int("seed")))
			if err != nil {
				return err
			}
			printSummary(cmd.Writer, summary)
			return nil
		},
	}
}

func analyzeBoards(config engine.GameConfig, boards int, seed uint64) (Summary, error) {
	if boards <= 0 {
		return Summary{}, errors.New("boards must be positive")
	}

	summary := Summary{
		Config:  config,
		Boards:  boards,
		Density: engine.MineDensity(config),
	}

	totalBV, totalOpenings := 0, 0
	for i := 0; i < boards; i++ {
		eng, err := engine.NewEngine(config, engine.WithSeed(seed+uint64(i)))
		if err != nil {
			return Summary{}, err
		}
		state := eng.GetState()

		bv := engine.ThreeBV(state)
		openings := engine.CountOpenings(state)
		if i == 0 || bv < summary.MinBV {
			summary.MinBV = bv
		}
		if bv > summary.MaxBV {
			summary.MaxBV = bv
		}
		if openings == 0 {
			summary.NoOpenings++
		}
		totalBV += bv
		totalOpenings += openings
	}

	summary.MeanBV = float64(totalBV) / float64(boards)
	summary.MeanOpenings = float64(totalOpenings) / float64(boards)
	return summary, nil
}

func printSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\n=== %dx%d with %d mines, %d boards ===\n", s.Config.Size, s.Config.Size, s.Config.MineCount, s.Boards)
	fmt.Fprintf(w, "Mine density: %.1f%%\n", s.Density*100)
	fmt.Fprintf(w, "3BV: min %d, max %d, mean %.2f\n", s.MinBV, s.MaxBV, s.MeanBV)
	fmt.Fprintf(w, "Openings per board: %.2f\n", s.MeanOpenings)
	if s.NoOpenings > 0 {
		fmt.Fprintf(w, "⚠️  %d boards have no opening; the first reveal can never flood fill\n", s.NoOpenings)
	}
}
