// package report persists diagnostic run history: the final verdict of each
// run plus its trace entries.
package report

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ChrisT3B/beats-repeats-test/internal/probe"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
	"github.com/ChrisT3B/beats-repeats-test/internal/trace"
)

// Run is one recorded diagnostic run.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Outcome       string
	Authenticated bool
	SessionState  string
	DeviceID      string
	Verdict       probe.Verdict
	Entries       []trace.Entry
}

// Store handles run persistence against the sqlite database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveRun inserts a run and its trace entries in one transaction. A run
// without an ID gets one assigned.
func (s *Store) SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO runs (id, started_at, finished_at, outcome, authenticated, session_state, device_id, system_audio, recorder, mix_graph, probe_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	finished := sql.NullTime{Time: run.FinishedAt, Valid: !run.FinishedAt.IsZero()}
	_, err = tx.Exec(query,
		run.ID,
		run.StartedAt,
		finished,
		run.Outcome,
		run.Authenticated,
		run.SessionState,
		run.DeviceID,
		run.Verdict.SystemAudio,
		run.Verdict.Recorder,
		run.Verdict.MixGraph,
		run.Verdict.Err,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	entryQuery := `INSERT INTO run_entries (run_id, at, severity, message) VALUES (?, ?, ?, ?)`
	for _, e := range run.Entries {
		if _, err := tx.Exec(entryQuery, run.ID, e.At, string(e.Severity), e.Message); err != nil {
			return fmt.Errorf("failed to insert run entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID, including its trace entries.
func (s *Store) GetRun(id string) (*Run, error) {
	query := `
		SELECT id, started_at, finished_at, outcome, authenticated, session_state, device_id, system_audio, recorder, mix_graph, probe_error
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(s.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT at, severity, message FROM run_entries WHERE run_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e trace.Entry
		var severity string
		if err := rows.Scan(&e.At, &severity, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan run entry: %w", err)
		}
		e.Severity = trace.Severity(severity)
		run.Entries = append(run.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run entries: %w", err)
	}

	return run, nil
}

// ListRuns returns the most recent runs, newest first, without their
// entries. A limit of 0 means no limit.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, finished_at, outcome, authenticated, session_state, device_id, system_audio, recorder, mix_graph, probe_error
		FROM runs
		ORDER BY started_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var finished sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&finished,
		&run.Outcome,
		&run.Authenticated,
		&run.SessionState,
		&run.DeviceID,
		&run.Verdict.SystemAudio,
		&run.Verdict.Recorder,
		&run.Verdict.MixGraph,
		&run.Verdict.Err,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}
