// Package store handles SQLite persistence of finished runs and the debug
// resume checkpoint. Nothing in a run depends on it.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/notabot/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL UNIQUE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			total_score INTEGER NOT NULL,
			max_score INTEGER NOT NULL,
			percentage REAL NOT NULL,
			rating TEXT NOT NULL,
			completed INTEGER NOT NULL,
			passed INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS run_results (
			run_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			challenge_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			success INTEGER NOT NULL,
			time_spent REAL NOT NULL,
			score INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			catalog TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_run_results_challenge ON run_results(challenge_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a finished run and its per-challenge rows.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord, rows []model.BreakdownRow) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, ended_at, total_score, max_score, percentage, rating, completed, passed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		run.TotalScore,
		run.MaxScore,
		run.Percentage,
		string(run.Rating),
		run.Completed,
		run.Passed,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO run_results (run_id, position, challenge_id, name, success, time_spent, score, accuracy)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, row := range rows {
			if _, err := stmt.ExecContext(ctx, id, i, row.ChallengeID, row.Name, row.Success, row.TimeSpent, row.Score, row.Accuracy); err != nil {
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns returns runs in ascending end time. Last keeps only the most recent N.
func (s *Store) ListRuns(ctx context.Context, filter model.HistoryFilter) ([]model.RunRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	limit := -1
	if filter.Last > 0 {
		limit = filter.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT * FROM (
		SELECT id, run_id, started_at, ended_at, total_score, max_score, percentage, rating, completed, passed
		FROM runs
		WHERE %s
		ORDER BY ended_at DESC
		LIMIT ?
	) ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		var run model.RunRecord
		var startedAt, endedAt, rating string
		if err := rows.Scan(&run.ID, &run.RunID, &startedAt, &endedAt, &run.TotalScore, &run.MaxScore,
			&run.Percentage, &rating, &run.Completed, &run.Passed); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		run.Rating = model.Rating(rating)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListChallengeAggregates aggregates per-challenge rows across the given runs,
// ordered by challenge id.
func (s *Store) ListChallengeAggregates(ctx context.Context, runIDs []int64) ([]model.ChallengeAggregate, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(runIDs))
	args := make([]any, len(runIDs))
	for i, id := range runIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT challenge_id, MAX(name), COUNT(*) AS attempts, SUM(success) AS passes,
		SUM(time_spent) AS time_spent, SUM(score) AS score
		FROM run_results
		WHERE run_id IN (%s)
		GROUP BY challenge_id
		ORDER BY challenge_id`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ChallengeAggregate
	for rows.Next() {
		var agg model.ChallengeAggregate
		if err := rows.Scan(&agg.ChallengeID, &agg.Name, &agg.Attempts, &agg.Passes, &agg.TimeSpentSum, &agg.ScoreSum); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveCheckpoint records the registry position reached for a catalog.
func (s *Store) SaveCheckpoint(ctx context.Context, catalog string, position int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (catalog, position, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(catalog) DO UPDATE SET position = excluded.position, saved_at = excluded.saved_at`,
		catalog, position, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// LoadCheckpoint returns the saved position for a catalog. ok is false when none exists.
func (s *Store) LoadCheckpoint(ctx context.Context, catalog string) (position int, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT position FROM checkpoints WHERE catalog = ?`, catalog).Scan(&position)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return position, true, nil
}
