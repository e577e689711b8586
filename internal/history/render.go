package history

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/verte-zerg/notabot/internal/model"
	"github.com/verte-zerg/notabot/internal/results"
)

const (
	sparkChars          = " .:-=+*#%@"
	terminalWidthBackup = 80
	curveLabel          = "Score % "
)

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline scaled to the values' range.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// TerminalWidth reports the width of f, or a fallback when it is not a terminal.
func TerminalWidth(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// Render writes the full plain-text history report.
func Render(w io.Writer, report Report, window, width int) error {
	if err := RenderSummary(w, report.Runs); err != nil {
		return err
	}
	if len(report.Runs) == 0 {
		return nil
	}
	if err := RenderCurve(w, report.Runs, window, width); err != nil {
		return err
	}
	return RenderChallengeTable(w, report.Challenges)
}

// RenderSummary prints headline numbers for runs.
func RenderSummary(w io.Writer, runs []model.RunRecord) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	o := Summarize(runs)
	lines := []string{
		"Summary",
		fmt.Sprintf("Runs: %d", o.Runs),
		fmt.Sprintf("Avg score: %.1f%%", o.AvgPercent),
		fmt.Sprintf("Best score: %.1f%%", o.BestPct),
		fmt.Sprintf("Judged human: %d of %d", o.Human, o.Runs),
		fmt.Sprintf("Last rating: %s", results.RatingLabel(o.LastRating)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurve prints the smoothed score trend, keeping the most recent runs
// that fit in width.
func RenderCurve(w io.Writer, runs []model.RunRecord, window, width int) error {
	values := MovingAverage(Percentages(runs), window)
	if room := width - len(curveLabel); width > 0 && room > 0 && len(values) > room {
		values = values[len(values)-room:]
	}
	if _, err := fmt.Fprintf(w, "Trend (moving average of %d)\n", max(window, 1)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s%s\n\n", curveLabel, Sparkline(values)); err != nil {
		return err
	}
	return nil
}

// RenderChallengeTable prints per-challenge aggregates, weakest pass rate first.
func RenderChallengeTable(w io.Writer, aggs []model.ChallengeAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No challenge results found.")
		return err
	}
	sorted := make([]model.ChallengeAggregate, len(aggs))
	copy(sorted, aggs)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, pj := PassRate(sorted[i]), PassRate(sorted[j])
		if pi == pj {
			return sorted[i].ChallengeID < sorted[j].ChallengeID
		}
		return pi < pj
	})

	if _, err := fmt.Fprintln(w, "Per-Challenge"); err != nil {
		return err
	}
	headers := []string{"#", "Challenge", "Attempts", "Pass rate", "Avg time", "Avg score"}
	rows := make([][]string, 0, len(sorted))
	for _, agg := range sorted {
		rows = append(rows, ChallengeCells(agg))
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range results.FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// ChallengeCells formats one aggregate as table cells.
func ChallengeCells(agg model.ChallengeAggregate) []string {
	return []string{
		fmt.Sprintf("%d", agg.ChallengeID),
		agg.Name,
		fmt.Sprintf("%d", agg.Attempts),
		fmt.Sprintf("%.0f%%", PassRate(agg)*100),
		fmt.Sprintf("%.1fs", AvgTime(agg)),
		fmt.Sprintf("%.1f", AvgScore(agg)),
	}
}
