// Package store provides the SQLite-backed decision journal for burrow.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fentz26/burrow/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultListLimit bounds ListDecisions when no limit is given.
const DefaultListLimit = 100

// Store provides access to the burrow SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		task_id TEXT,
		worker_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_task_id ON decisions(task_id);
	CREATE INDEX IF NOT EXISTS idx_decisions_action ON decisions(action);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WriteDecision appends a decision record.
func (s *Store) WriteDecision(action, inputsHash, outcome, taskID, workerID, details string) (*models.Decision, error) {
	d := &models.Decision{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		TaskID:     taskID,
		WorkerID:   workerID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO decisions (id, action, inputs_hash, outcome, task_id, worker_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Action, d.InputsHash, d.Outcome, d.TaskID, d.WorkerID, d.Details, d.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert decision: %w", err)
	}
	return d, nil
}

// DecisionFilter narrows ListDecisions. Zero values match everything.
type DecisionFilter struct {
	Action string
	TaskID string
	Limit  int
}

// ListDecisions returns matching decisions, newest first.
func (s *Store) ListDecisions(f DecisionFilter) ([]models.Decision, error) {
	var where []string
	var args []interface{}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}
	if f.TaskID != "" {
		where = append(where, "task_id = ?")
		args = append(args, f.TaskID)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `SELECT id, action, inputs_hash, outcome, task_id, worker_id, details, timestamp FROM decisions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []models.Decision
	for rows.Next() {
		var d models.Decision
		var taskID, workerID, details sql.NullString
		if err := rows.Scan(&d.ID, &d.Action, &d.InputsHash, &d.Outcome, &taskID, &workerID, &details, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.TaskID = taskID.String
		d.WorkerID = workerID.String
		d.Details = details.String
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// CountDecisions returns the number of journalled decisions.
func (s *Store) CountDecisions() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM decisions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count decisions: %w", err)
	}
	return n, nil
}
