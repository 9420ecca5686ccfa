// Package tracestore persists observer metric traces in SQLite so runs can
// be listed and re-plotted after the registration session has ended.
package tracestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/regviz/internal/monitoring"
	"github.com/banshee-data/regviz/internal/observer"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var logger = monitoring.Component("tracestore")

// ErrRunNotFound is returned by LoadTrace for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store is a SQLite-backed trace store. It implements observer.TraceSink.
type Store struct {
	*sql.DB
}

// RunSummary is one row of ListRuns.
type RunSummary struct {
	ID          string
	Label       string
	StartedAt   time.Time
	EndedAt     time.Time
	Iterations  int
	FinalMetric *float64
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace store: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	logger.Printf("opened %s", path)
	return s, nil
}

// SaveTrace stores tr. A trace without an ID is assigned one.
func (s *Store) SaveTrace(ctx context.Context, tr observer.Trace) error {
	if tr.ID == "" {
		tr.ID = uuid.NewString()
	}
	var final interface{}
	if n := len(tr.MetricValues); n > 0 {
		final = nullableFloat(tr.MetricValues[n-1])
	}

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, label, started_at, ended_at, iterations, final_metric) VALUES (?, ?, ?, ?, ?, ?)`,
		tr.ID, tr.Label, toNanos(tr.StartedAt), toNanos(tr.EndedAt), len(tr.MetricValues), final,
	); err != nil {
		return fmt.Errorf("insert run %s: %w", tr.ID, err)
	}

	valStmt, err := tx.PrepareContext(ctx, `INSERT INTO metric_values (run_id, iteration, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare metric insert: %w", err)
	}
	defer valStmt.Close()
	for i, v := range tr.MetricValues {
		if _, err := valStmt.ExecContext(ctx, tr.ID, i, nullableFloat(v)); err != nil {
			return fmt.Errorf("insert metric value %d: %w", i, err)
		}
	}

	msStmt, err := tx.PrepareContext(ctx, `INSERT INTO milestones (run_id, ordinal, iteration) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare milestone insert: %w", err)
	}
	defer msStmt.Close()
	for i, idx := range tr.Milestones {
		if _, err := msStmt.ExecContext(ctx, tr.ID, i, idx); err != nil {
			return fmt.Errorf("insert milestone %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", tr.ID, err)
	}
	logger.Printf("saved run %s (%d values, %d milestones)", tr.ID, len(tr.MetricValues), len(tr.Milestones))
	return nil
}

// LoadTrace reads a stored trace.
func (s *Store) LoadTrace(ctx context.Context, id string) (observer.Trace, error) {
	tr := observer.Trace{ID: id}
	var started, ended int64
	err := s.QueryRowContext(ctx,
		`SELECT label, started_at, ended_at FROM runs WHERE run_id = ?`, id,
	).Scan(&tr.Label, &started, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return observer.Trace{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return observer.Trace{}, fmt.Errorf("query run %s: %w", id, err)
	}
	tr.StartedAt = fromNanos(started)
	tr.EndedAt = fromNanos(ended)

	values, err := queryColumn[sql.NullFloat64](ctx, s.DB,
		`SELECT value FROM metric_values WHERE run_id = ? ORDER BY iteration`, id)
	if err != nil {
		return observer.Trace{}, fmt.Errorf("query metric values: %w", err)
	}
	tr.MetricValues = make([]float64, len(values))
	for i, v := range values {
		tr.MetricValues[i] = floatOrNaN(v)
	}
	if tr.Milestones, err = queryColumn[int](ctx, s.DB,
		`SELECT iteration FROM milestones WHERE run_id = ? ORDER BY ordinal`, id); err != nil {
		return observer.Trace{}, fmt.Errorf("query milestones: %w", err)
	}
	return tr, nil
}

// ListRuns returns all stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT run_id, label, started_at, ended_at, iterations, final_metric FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var started, ended int64
		var final sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Label, &started, &ended, &r.Iterations, &final); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = fromNanos(started)
		r.EndedAt = fromNanos(ended)
		if r.Iterations > 0 {
			v := floatOrNaN(final)
			r.FinalMetric = &v
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func queryColumn[T any](ctx context.Context, db *sql.DB, query string, args ...interface{}) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var v T
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// NaN is stored as NULL explicitly; SQLite would do the same implicitly.
// Infinities are stored as REAL.
func nullableFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// Zero times are stored as 0 so that an unfinished snapshot round-trips.
func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
