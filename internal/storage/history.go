package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"tcm/internal/config"
	"tcm/internal/domain"
)

// History table names.
const (
	RunsTable    = "tcm_runs"
	ResultsTable = "tcm_results"
)

// HistorySchema returns the statements that create the history tables in
// the given database.
func HistorySchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s`.`%s` ("+
			"run_id CHAR(36) NOT NULL PRIMARY KEY, "+
			"started_at DATETIME(3) NOT NULL, "+
			"workers INT NOT NULL, "+
			"retry_policy VARCHAR(128) NOT NULL, "+
			"total INT NOT NULL, passed INT NOT NULL, failed INT NOT NULL, errored INT NOT NULL, "+
			"not_started INT NOT NULL, attempts INT NOT NULL, "+
			"interrupted BOOLEAN NOT NULL, "+
			"elapsed_ms BIGINT NOT NULL, "+
			"success_rate DOUBLE NOT NULL)", database, RunsTable),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s`.`%s` ("+
			"run_id CHAR(36) NOT NULL, "+
			"test_id VARCHAR(128) NOT NULL, "+
			"outcome VARCHAR(8) NOT NULL, "+
			"attempts INT NOT NULL, "+
			"duration_ms BIGINT NOT NULL, "+
			"timed_out BOOLEAN NOT NULL, "+
			"failure TEXT, "+
			"PRIMARY KEY (run_id, test_id))", database, ResultsTable),
	}
}

// RunRow is one stored run.
type RunRow struct {
	RunID       string
	StartedAt   time.Time
	Total       int
	Passed      int
	Failed      int
	Errored     int
	NotStarted  int
	Interrupted bool
	Elapsed     time.Duration
}

// HistoryStore appends runs to a MySQL database.
type HistoryStore struct {
	db *sql.DB
}

// NewHistoryStore wraps an open database.
func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// OpenHistory connects to the history database named in the configuration.
func OpenHistory(cfg *config.Config) (*HistoryStore, error) {
	dsn, err := HistoryDSN(cfg.HistoryDSN, cfg.HistoryDatabase)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	return NewHistoryStore(db), nil
}

// HistoryDSN sets the database name on a server DSN.
func HistoryDSN(serverDSN, database string) (string, error) {
	if serverDSN == "" {
		return "", fmt.Errorf("no history DSN configured (set %s)", config.EnvHistoryDSN)
	}
	mc, err := mysql.ParseDSN(serverDSN)
	if err != nil {
		return "", fmt.Errorf("parse history DSN: %w", err)
	}
	mc.DBName = database
	mc.ParseTime = true
	return mc.FormatDSN(), nil
}

// Close releases the connection pool.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}

// Save inserts the run and its final results in one transaction.
func (h *HistoryStore) Save(ctx context.Context, s *domain.RunSummary) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+RunsTable+" (run_id, started_at, workers, retry_policy, total, passed, failed, errored, not_started, attempts, interrupted, elapsed_ms, success_rate) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		s.RunID, s.StartedAt, s.Workers, s.RetryPolicy, s.Total, s.Passed, s.Failed, s.Errored, s.NotStarted, s.Attempts, s.Interrupted, s.Elapsed.Milliseconds(), s.SuccessRate,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", s.RunID, err)
	}

	if len(s.Results) > 0 {
		stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+ResultsTable+" (run_id, test_id, outcome, attempts, duration_ms, timed_out, failure) VALUES (?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare result insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range s.Results {
			var failure sql.NullString
			if r.Failure != nil {
				failure = sql.NullString{String: r.Failure.String(), Valid: true}
			}
			if _, err := stmt.ExecContext(ctx, s.RunID, r.TestID, r.Outcome.String(), r.Attempt, r.Duration.Milliseconds(), r.TimedOut, failure); err != nil {
				return fmt.Errorf("insert result %s: %w", r.TestID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]RunRow, error) {
	rows, err := h.db.QueryContext(ctx,
		"SELECT run_id, started_at, total, passed, failed, errored, not_started, interrupted, elapsed_ms FROM "+RunsTable+" ORDER BY started_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var (
			r         RunRow
			elapsedMS int64
		)
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.Total, &r.Passed, &r.Failed, &r.Errored, &r.NotStarted, &r.Interrupted, &elapsedMS); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
