// Package main provides the CLI entrypoint for notabot.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/notabot/internal/config"
	"github.com/verte-zerg/notabot/internal/logging"
	"github.com/verte-zerg/notabot/internal/model"
	"github.com/verte-zerg/notabot/internal/orchestrator"
	"github.com/verte-zerg/notabot/internal/registry"
	"github.com/verte-zerg/notabot/internal/results"
	"github.com/verte-zerg/notabot/internal/session"
	"github.com/verte-zerg/notabot/internal/store"
	"github.com/verte-zerg/notabot/internal/tui"
	"github.com/verte-zerg/notabot/internal/units"
)

const (
	defaultNominal = results.DefaultNominal
	defaultTickMs  = 100
	minTickMs      = 10
	maxTickMs      = 1000
	defaultCatalog = "default"
)

var (
	playCatalog   string
	playWordList  string
	playNominal   int
	playTickMs    int
	playSeed      int64
	playNoHistory bool

	debugEnabled bool
	debugStartAt int
	debugResume  bool
	debugVerbose bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "notabot",
		Short:         "Prove you are human, one timed challenge at a time",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.PersistentFlags().StringVar(&playCatalog, "catalog", "", "path to a YAML challenge catalog (default: built-in)")
	rootCmd.PersistentFlags().BoolVar(&debugVerbose, "verbose", false, "log debug output")

	rootCmd.Flags().StringVar(&playWordList, "wordlist", "", "word list for the typing challenges")
	rootCmd.Flags().IntVar(&playNominal, "nominal", defaultNominal, "nominal points per challenge")
	rootCmd.Flags().IntVar(&playTickMs, "tick-ms", defaultTickMs, "timer interval in milliseconds")
	rootCmd.Flags().Int64Var(&playSeed, "seed", 0, "random seed (0: time based)")
	rootCmd.Flags().BoolVar(&playNoHistory, "no-history", false, "do not save the run")
	rootCmd.Flags().BoolVar(&debugEnabled, "debug", false, "enable debug navigation keys")
	rootCmd.Flags().IntVar(&debugStartAt, "start-at", 0, "start at challenge N (debug)")
	rootCmd.Flags().BoolVar(&debugResume, "resume", false, "resume at the last checkpoint (debug)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	game, debug := mergeConfig(cmd, fileCfg)
	logging.SetVerbose(debug.Verbose)

	reg, catalogKey, err := openRegistry(game)
	if err != nil {
		return err
	}
	if err := validateSettings(game, debug, reg.Count()); err != nil {
		return err
	}

	var st *store.Store
	if game.SaveHistory {
		st, err = store.Open(config.DefaultDBPath())
		if err != nil {
			logErrf("history disabled: %v\n", err)
		} else {
			defer func() {
				if cerr := st.Close(); cerr != nil {
					logErrf("failed to close db: %v\n", cerr)
				}
			}()
		}
	}

	startAt, err := resolveStartAt(debug, reg.Count(), func() (int, bool, error) {
		if st == nil {
			return 0, false, nil
		}
		return st.LoadCheckpoint(context.Background(), catalogKey)
	})
	if err != nil {
		logErrf("ignoring checkpoint: %v\n", err)
	}

	closeLog, err := redirectLog(config.DefaultLogPath())
	if err != nil {
		logErrf("log file unavailable, discarding logs: %v\n", err)
		logging.SetOutput(nil)
	} else {
		defer closeLog()
	}

	seed := game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logging.Debug("seed %d, tick %s, %d challenges", seed, game.Tick, reg.Count())

	sess := session.New(reg.Count())
	orch := orchestrator.New(reg, sess,
		orchestrator.WithTickInterval(game.Tick),
		orchestrator.WithRand(rand.New(rand.NewSource(seed))),
	)
	opts := tui.Options{
		Nominal:    game.Nominal,
		Debug:      debug,
		CatalogKey: catalogKey,
		StartAt:    startAt,
	}
	if st != nil {
		opts.Recorder = st
	}

	program := tea.NewProgram(tui.NewModel(orch, opts), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if m, ok := final.(*tui.Model); ok {
		if summary, ok := m.LastSummary(); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d/%d (%.1f%%)\n",
				results.RatingLabel(summary.Rating), summary.TotalScore, summary.MaxPossibleScore, summary.Percentage)
			return results.RenderBreakdown(cmd.OutOrStdout(), summary)
		}
	}
	return nil
}

func mergeConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.GameConfig, model.DebugConfig) {
	applyStringConfig(cmd, "catalog", &playCatalog, fileCfg.Game.Catalog)
	applyStringConfig(cmd, "wordlist", &playWordList, fileCfg.Game.WordList)
	applyIntConfig(cmd, "nominal", &playNominal, fileCfg.Game.Nominal)
	applyIntConfig(cmd, "tick-ms", &playTickMs, fileCfg.Game.TickMs)
	applyInt64Config(cmd, "seed", &playSeed, fileCfg.Game.Seed)
	if fileCfg.Game.SaveHistory != nil && !cmd.Flags().Changed("no-history") {
		playNoHistory = !*fileCfg.Game.SaveHistory
	}
	applyBoolConfig(cmd, "debug", &debugEnabled, fileCfg.Debug.Enabled)
	applyIntConfig(cmd, "start-at", &debugStartAt, fileCfg.Debug.StartAt)
	applyBoolConfig(cmd, "resume", &debugResume, fileCfg.Debug.Resume)
	applyBoolConfig(cmd, "verbose", &debugVerbose, fileCfg.Debug.Verbose)

	game := model.GameConfig{
		CatalogPath:  playCatalog,
		WordListPath: playWordList,
		Nominal:      playNominal,
		Tick:         time.Duration(playTickMs) * time.Millisecond,
		Seed:         playSeed,
		SaveHistory:  !playNoHistory,
	}
	debug := model.DebugConfig{
		Enabled: debugEnabled,
		StartAt: debugStartAt,
		Resume:  debugResume,
		Verbose: debugVerbose,
	}
	return game, debug
}

func validateSettings(game model.GameConfig, debug model.DebugConfig, count int) error {
	if game.Nominal <= 0 {
		return fmt.Errorf("--nominal must be > 0")
	}
	tickMs := int(game.Tick / time.Millisecond)
	if tickMs < minTickMs || tickMs > maxTickMs {
		return fmt.Errorf("--tick-ms must be between %d and %d", minTickMs, maxTickMs)
	}
	if debug.StartAt < 0 || debug.StartAt > count {
		return fmt.Errorf("--start-at must be between 1 and %d", count)
	}
	if (debug.StartAt > 0 || debug.Resume) && !debug.Enabled {
		return fmt.Errorf("--start-at and --resume require --debug")
	}
	return nil
}

// resolveStartAt returns the 1-based challenge to start at, 0 for none.
// An explicit start-at wins over a saved checkpoint.
func resolveStartAt(debug model.DebugConfig, count int, checkpoint func() (int, bool, error)) (int, error) {
	if !debug.Enabled {
		return 0, nil
	}
	if debug.StartAt > 0 || !debug.Resume {
		return debug.StartAt, nil
	}
	pos, ok, err := checkpoint()
	if err != nil {
		return 0, err
	}
	if !ok || pos < 0 || pos >= count {
		return 0, nil
	}
	return pos + 1, nil
}

func openRegistry(game model.GameConfig) (*registry.Registry, string, error) {
	var (
		descs []model.ChallengeDescriptor
		err   error
	)
	key := defaultCatalog
	if game.CatalogPath == "" {
		descs, err = registry.DefaultCatalog()
	} else {
		descs, err = registry.LoadCatalogFile(game.CatalogPath)
		if abs, aerr := filepath.Abs(game.CatalogPath); aerr == nil {
			key = abs
		} else {
			key = game.CatalogPath
		}
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to load catalog: %w", err)
	}
	reg, err := registry.New(descs, units.Loaders(units.Options{WordListPath: game.WordListPath}))
	if err != nil {
		return nil, "", fmt.Errorf("invalid catalog: %w", err)
	}
	return reg, key, nil
}

// redirectLog points logging at path while the TUI owns the terminal.
func redirectLog(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	logging.SetOutput(f)
	return func() {
		logging.SetOutput(os.Stderr)
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}, nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
