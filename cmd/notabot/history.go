package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/notabot/internal/config"
	"github.com/verte-zerg/notabot/internal/history"
	"github.com/verte-zerg/notabot/internal/historyui"
	"github.com/verte-zerg/notabot/internal/model"
	"github.com/verte-zerg/notabot/internal/store"
)

const defaultCurveWindow = 5

var (
	historySince  string
	historyLast   int
	historyWindow int
	historyPlain  bool
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N runs")
	cmd.Flags().IntVar(&historyWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a text report instead of the browser")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := historyFilter(historySince, historyLast)
	if err != nil {
		return err
	}
	if historyWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if historyPlain {
		report, err := history.BuildReport(context.Background(), st, filter)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return history.Render(cmd.OutOrStdout(), report, historyWindow, history.TerminalWidth(os.Stdout))
	}

	load := func(ctx context.Context, f model.HistoryFilter) (history.Report, error) {
		return history.BuildReport(ctx, st, f)
	}
	program := tea.NewProgram(historyui.NewModel(load, filter, historyWindow), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func historyFilter(since string, last int) (model.HistoryFilter, error) {
	var filter model.HistoryFilter
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	if last < 0 {
		return filter, fmt.Errorf("--last must be >= 0")
	}
	filter.Last = last
	return filter, nil
}
