package results

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/notabot/internal/model"
)

// RenderBreakdown writes the per-challenge breakdown as an aligned table.
func RenderBreakdown(w io.Writer, summary model.Summary) error {
	if len(summary.Breakdown) == 0 {
		_, err := fmt.Fprintln(w, "No challenges recorded.")
		return err
	}
	headers := []string{"#", "Challenge", "Result", "Time", "Score", "Accuracy"}
	rows := make([][]string, 0, len(summary.Breakdown))
	for _, b := range summary.Breakdown {
		rows = append(rows, BreakdownCells(b))
	}
	rightAlign := map[int]bool{0: true, 3: true, 4: true, 5: true}
	for _, line := range FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// BreakdownCells formats one breakdown row for display.
func BreakdownCells(b model.BreakdownRow) []string {
	outcome := "fail"
	if b.Success {
		outcome = "pass"
	}
	score := fmt.Sprintf("%d", b.Score)
	if b.MaxScore > 0 {
		score = fmt.Sprintf("%d/%d", b.Score, b.MaxScore)
	}
	return []string{
		fmt.Sprintf("%d", b.ChallengeID),
		b.Name,
		outcome,
		fmt.Sprintf("%.1fs", b.TimeSpent),
		score,
		fmt.Sprintf("%d%%", b.Accuracy),
	}
}

// FormatTable pads cells to the widest display width per column.
func FormatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = runewidth.StringWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	if rightAlign {
		return runewidth.FillLeft(value, width)
	}
	return runewidth.FillRight(value, width)
}
