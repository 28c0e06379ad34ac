/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: store.go
Description: SQLite store of per-task synthesis results. Runs over a task file can
be resumed: tasks with a stored result are skipped.
*/

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	task_id     TEXT PRIMARY KEY,
	result_id   TEXT NOT NULL,
	task_name   TEXT NOT NULL,
	solved      INTEGER NOT NULL,
	program     TEXT NOT NULL,
	probability REAL NOT NULL,
	tried       INTEGER NOT NULL,
	elapsed_ms  INTEGER NOT NULL,
	strategy    TEXT NOT NULL,
	created_at  TEXT NOT NULL
)`

// Record is one stored task result
type Record struct {
	TaskID      string
	ResultID    string
	TaskName    string
	Solved      bool
	Program     string
	Probability float64
	Tried       int64
	Elapsed     time.Duration
	Strategy    string
	CreatedAt   time.Time
}

// Store persists results in a SQLite database
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path; ":memory:" is accepted
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts or replaces the result of a task
func (s *Store) Save(ctx context.Context, r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (task_id, result_id, task_name, solved, program, probability, tried, elapsed_ms, strategy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			result_id = excluded.result_id,
			task_name = excluded.task_name,
			solved = excluded.solved,
			program = excluded.program,
			probability = excluded.probability,
			tried = excluded.tried,
			elapsed_ms = excluded.elapsed_ms,
			strategy = excluded.strategy,
			created_at = excluded.created_at`,
		r.TaskID, r.ResultID, r.TaskName, r.Solved, r.Program, r.Probability,
		r.Tried, r.Elapsed.Milliseconds(), r.Strategy, r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving result for %s: %w", r.TaskID, err)
	}
	return nil
}

// Completed returns the ids of tasks with a stored result
func (s *Store) Completed(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT task_id FROM results`)
	if err != nil {
		return nil, fmt.Errorf("querying completed tasks: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		done[id] = true
	}
	return done, rows.Err()
}

// Results returns every stored record ordered by task id
func (s *Store) Results(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, result_id, task_name, solved, program, probability, tried, elapsed_ms, strategy, created_at
		FROM results ORDER BY task_id`)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r         Record
			elapsedMS int64
			created   string
		)
		if err := rows.Scan(&r.TaskID, &r.ResultID, &r.TaskName, &r.Solved, &r.Program,
			&r.Probability, &r.Tried, &elapsedMS, &r.Strategy, &created); err != nil {
			return nil, err
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("task %s: bad timestamp: %w", r.TaskID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}
