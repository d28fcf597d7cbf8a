// Command validate checks Minesweeper settings YAML files. For each file it
// reports:
//   - YAML syntax errors and unknown keys
//   - values rejected by the server (ports, board limits, durations)
//   - warnings for settings that are legal but likely mistakes
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/minesweeper/game/config"
	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"gopkg.in/yaml.v3"
)

// highDensity is the mine density above which boards rarely open up
const highDensity = 0.3

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate Minesweeper settings files",
		ArgsUsage: "[file.yaml ...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				matches, err := filepath.Glob("*.yaml")
				if err != nil {
					return err
				}
				files = matches
			}
			if len(files) == 0 {
				return errors.New("no settings files given")
			}

			failed := 0
			for _, file := range files {
				result := validateFile(file)
				printResult(cmd.Writer, result)
				if !result.Valid {
					failed++
				}
			}

			fmt.Fprintf(cmd.Writer, "\n%d/%d files valid\n", len(files)-failed, len(files))
			if failed > 0 {
				return fmt.Errorf("%d invalid settings files", failed)
			}
			return nil
		},
	}
}

// validateFile loads one settings file and collects errors, warnings, and a summary
func validateFile(path string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(path),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	// unknown keys are silently ignored by the server, so flag them here
	strict := config.DefaultSettings()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&strict); err != nil && !errors.Is(err, io.EOF) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid YAML: %v", err))
		return result
	}

	settings, err := config.LoadFile(path)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	game := settings.GameConfig()
	density := engine.MineDensity(game)
	if density > highDensity {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Mine density %.0f%% is high; most boards will have no opening", density*100))
	}
	if settings.SessionTTL < settings.CleanupInterval {
		result.Warnings = append(result.Warnings, fmt.Sprintf("session_ttl (%s) is shorter than cleanup_interval (%s)", settings.SessionTTL, settings.CleanupInterval))
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Listen: %s:%d", settings.Host, settings.Port),
		fmt.Sprintf("✓ Default board: %dx%d with %d mines (%.1f%%)", game.Size, game.Size, game.MineCount, density*100),
		fmt.Sprintf("✓ Max board size: %d", settings.MaxBoardSize),
		fmt.Sprintf("✓ Session TTL: %s", settings.SessionTTL),
	)

	return result
}

func printResult(w io.Writer, result ValidationResult) {
	if result.Valid {
		fmt.Fprintf(w, "✅ %s\n", result.File)
	} else {
		fmt.Fprintf(w, "❌ %s\n", result.File)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "   ERROR: %s\n", e)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "   WARNING: %s\n", warn)
	}
	for _, info := range result.Info {
		fmt.Fprintf(w, "   %s\n", info)
	}
}
