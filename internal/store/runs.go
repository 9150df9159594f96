// Package store persists search run metrics in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pddlenv/internal/logging"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one recorded search.
type Run struct {
	ID         string
	Algorithm  string
	Problem    string
	StopReason string
	Expanded   int64
	Evaluated  int64
	ElapsedMS  int64
	// PlanLength is -1 when no plan was found.
	PlanLength int64
	CreatedAt  time.Time
}

// Found reports whether the run produced a plan.
func (r Run) Found() bool { return r.PlanLength >= 0 }

// Summary aggregates runs of one algorithm.
type Summary struct {
	Algorithm    string
	Runs         int
	Solved       int
	MeanExpanded float64
}

// Store manages the run database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Open creates or opens the run database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logging.StoreDebug("opened run store %s", path)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		algorithm TEXT NOT NULL,
		problem TEXT NOT NULL,
		stop_reason TEXT NOT NULL,
		expanded_states INTEGER NOT NULL,
		evaluated_states INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		plan_length INTEGER NOT NULL DEFAULT -1,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_problem ON runs(problem);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores run, filling in its ID and timestamp when unset.
func (s *Store) Record(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO runs (id, algorithm, problem, stop_reason, expanded_states,
			evaluated_states, elapsed_ms, plan_length, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Algorithm, run.Problem, run.StopReason, run.Expanded,
		run.Evaluated, run.ElapsedMS, run.PlanLength, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	logging.StoreDebug("recorded run %s (%s on %s)", run.ID, run.Algorithm, run.Problem)
	return nil
}

// List returns the most recent runs, newest first. An empty problem matches
// every problem; limit <= 0 means no limit.
func (s *Store) List(problem string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT id, algorithm, problem, stop_reason, expanded_states, evaluated_states,
			elapsed_ms, plan_length, created_at
		FROM runs
		WHERE ? = '' OR problem = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, problem, problem, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Algorithm, &r.Problem, &r.StopReason, &r.Expanded,
			&r.Evaluated, &r.ElapsedMS, &r.PlanLength, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Summarize aggregates every stored run by algorithm.
func (s *Store) Summarize() ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT algorithm, COUNT(*), SUM(CASE WHEN plan_length >= 0 THEN 1 ELSE 0 END),
			AVG(expanded_states)
		FROM runs
		GROUP BY algorithm
		ORDER BY algorithm
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize runs: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Algorithm, &sum.Runs, &sum.Solved, &sum.MeanExpanded); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Write records a search metrics map. Failures are logged, not returned.
func (s *Store) Write(metrics map[string]any) {
	run := RunFromMetrics(metrics)
	if err := s.Record(&run); err != nil {
		logging.StoreWarn("dropping run metrics: %v", err)
	}
}

// RunFromMetrics converts a search metrics map into a Run.
func RunFromMetrics(metrics map[string]any) Run {
	run := Run{PlanLength: -1}
	run.Algorithm, _ = metrics["algorithm"].(string)
	run.Problem, _ = metrics["problem"].(string)
	run.StopReason, _ = metrics["stop_reason"].(string)
	run.Expanded = asInt64(metrics["expanded_states"])
	run.Evaluated = asInt64(metrics["evaluated_states"])
	run.ElapsedMS = asInt64(metrics["elapsed_ms"])
	if v, ok := metrics["plan_length"]; ok {
		run.PlanLength = asInt64(v)
	}
	return run
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
