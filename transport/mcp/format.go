package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/mcp-training/minesweeper/game/engine"
	"github.com/wricardo/mcp-training/minesweeper/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nBoard: %dx%d, %d mines\nCreated: %s\n\n%s",
		session.ID, session.Config.Size, session.Config.Size, session.Config.MineCount,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameView(session.Game))
}

// formatGameView renders the header and the board with row/column rulers
func formatGameView(view *engine.GameView) string {
	if view == nil {
		return "No game state available"
	}

	var result strings.Builder

	elapsed := "not started"
	if view.ElapsedSeconds != nil {
		elapsed = fmt.Sprintf("%ds", *view.ElapsedSeconds)
	}
	result.WriteString(fmt.Sprintf("Status: %s | Mines: %d | Flags: %d | Remaining: %d | Time: %s | Actions: %d\n\n",
		view.Status, view.MineCount, view.FlagsPlaced, view.MinesRemaining, elapsed, view.TotalActions))

	rows := view.Rows
	if len(rows) != view.Size {
		rows = engine.RenderRows(view)
	}

	width := len(fmt.Sprint(view.Size - 1))
	result.WriteString(strings.Repeat(" ", width+1))
	for c := 0; c < view.Size; c++ {
		result.WriteString(fmt.Sprint(c % 10))
	}
	result.WriteString("\n")
	for r, row := range rows {
		result.WriteString(fmt.Sprintf("%*d %s\n", width, r, row))
	}

	switch view.Status {
	case engine.Won:
		result.WriteString("\nVICTORY! All safe cells revealed.")
	case engine.Lost:
		result.WriteString("\nGAME OVER - a mine was revealed.")
	}

	return result.String()
}

func formatActionResult(result *service.ActionResult) string {
	var out strings.Builder

	verb := "Revealed"
	if result.Action.Type == engine.ActionFlag {
		verb = "Flag toggled at"
	}
	size := 0
	if result.Game != nil {
		size = result.Game.Size
	}

	if size > 0 {
		row, col := engine.RowCol(result.Action.Index, size)
		if result.Success {
			out.WriteString(fmt.Sprintf("%s cell %d (%d,%d)", verb, result.Action.Index, row, col))
		} else {
			out.WriteString(fmt.Sprintf("No change at cell %d (%d,%d)", result.Action.Index, row, col))
		}
	}
	if len(result.Revealed) > 1 {
		out.WriteString(fmt.Sprintf(", %d cells opened", len(result.Revealed)))
	}
	out.WriteString("\n")

	for _, ev := range result.Events {
		out.WriteString(fmt.Sprintf("  [%s] %s\n", ev.Type, ev.Message))
	}
	if result.Message != "" {
		out.WriteString(result.Message + "\n")
	}

	out.WriteString("\n")
	out.WriteString(formatGameView(result.Game))
	return out.String()
}

func formatBulkActionResult(sessionID string, result *service.BulkActionResult) string {
	var out strings.Builder

	out.WriteString(fmt.Sprintf("Session %s: executed %d/%d actions, %d cells revealed\n",
		sessionID, result.ActionsExecuted, result.RequestedActions, result.TotalRevealed))
	if result.Truncated {
		out.WriteString(fmt.Sprintf("Request truncated to %d actions\n", result.Limit))
	}
	if result.StopReasonCode != "" {
		out.WriteString(fmt.Sprintf("Stop: %s", result.StopReasonCode))
		if result.StoppedOnAction > 0 {
			out.WriteString(fmt.Sprintf(" at action %d", result.StoppedOnAction))
		}
		if result.StoppedReason != "" {
			out.WriteString(fmt.Sprintf(" (%s)", result.StoppedReason))
		}
		out.WriteString("\n")
	}

	if len(result.Steps) > 0 {
		out.WriteString("\nSteps:\n")
		for _, step := range result.Steps {
			mark := "ok"
			if !step.Changed {
				mark = "no change"
			}
			line := fmt.Sprintf("  %d. %s %d: %s", step.Idx, step.Action, step.Index, mark)
			if step.Revealed > 0 {
				line += fmt.Sprintf(", %d revealed", step.Revealed)
			}
			out.WriteString(line + "\n")
		}
	}

	if result.Message != "" {
		out.WriteString("\n" + result.Message + "\n")
	}
	out.WriteString("\n")
	out.WriteString(formatGameView(result.Game))
	return out.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var out strings.Builder
	out.WriteString(fmt.Sprintf("Action History (page %d/%d, %d total):\n\n",
		history.Page, history.TotalPages, history.TotalActions))

	for _, a := range history.Actions {
		status := "ok"
		if !a.Success {
			status = "no change"
		}
		out.WriteString(fmt.Sprintf("#%d %s %d (%d,%d) %s, revealed=%d flags=%d -> %s\n",
			a.ActionNumber, a.Action, a.Index, a.Row, a.Col, status, a.Revealed, a.FlagsPlaced, a.Status))
	}

	if history.HasNext {
		out.WriteString(fmt.Sprintf("\nMore on page %d", history.Page+1))
	}
	return out.String()
}

// describeCell summarizes one cell and its neighborhood
func describeCell(view *engine.GameView, index int) string {
	cell := view.Cells[index]
	row, col := engine.RowCol(index, view.Size)

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Cell %d at (%d,%d): ", index, row, col))

	switch {
	case cell.State == engine.Hidden:
		out.WriteString("hidden")
	case cell.State == engine.Flagged && cell.WrongFlag:
		out.WriteString("flagged, but not a mine")
	case cell.State == engine.Flagged:
		out.WriteString("flagged")
	case cell.Mine:
		out.WriteString("mine")
	default:
		out.WriteString(fmt.Sprintf("revealed, %d adjacent mines", cell.Adjacent))
	}
	out.WriteString("\n")

	hidden, flagged := 0, 0
	var hiddenIdx []string
	for _, n := range engine.Neighbors(index, view.Size) {
		switch view.Cells[n].State {
		case engine.Hidden:
			hidden++
			hiddenIdx = append(hiddenIdx, fmt.Sprint(n))
		case engine.Flagged:
			flagged++
		}
	}
	out.WriteString(fmt.Sprintf("Neighbors: %d hidden, %d flagged\n", hidden, flagged))
	if hidden > 0 {
		out.WriteString(fmt.Sprintf("Hidden neighbor indices: %s\n", strings.Join(hiddenIdx, ", ")))
	}

	if cell.State == engine.Revealed && !cell.Mine && cell.Adjacent > 0 {
		left := cell.Adjacent - flagged
		switch {
		case left == 0 && hidden > 0:
			out.WriteString("All adjacent mines are flagged; if the flags are right, the hidden neighbors are safe.\n")
		case left == hidden && hidden > 0:
			out.WriteString("Every hidden neighbor is a mine.\n")
		}
	}

	return out.String()
}
