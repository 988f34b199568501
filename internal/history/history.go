// Package history persists a per-run journal of synthesis attempts so that
// failed sessions can be inspected after the fact.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	model       TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP,
	outcome     TEXT
);
CREATE TABLE IF NOT EXISTS attempts (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	idx        INTEGER NOT NULL,
	valid      INTEGER NOT NULL,
	passed     INTEGER NOT NULL,
	feedback   TEXT,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, idx)
);
`

// Journal is a sqlite-backed attempt log.
type Journal struct {
	db *sql.DB
}

// Open creates (or reuses) the journal database at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// StartRun registers a new synthesis run.
func (j *Journal) StartRun(id, model string) error {
	_, err := j.db.Exec(`INSERT INTO runs (id, model, started_at) VALUES (?, ?, ?)`,
		id, model, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// RecordAttempt stores the outcome of one loop iteration. Re-recording an
// index overwrites the earlier row; the last word per attempt wins.
func (j *Journal) RecordAttempt(runID string, idx int, valid, passed bool, feedback string) error {
	_, err := j.db.Exec(`INSERT OR REPLACE INTO attempts (run_id, idx, valid, passed, feedback, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, idx, boolInt(valid), boolInt(passed), feedback, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// FinishRun stamps the run's terminal outcome.
func (j *Journal) FinishRun(id, outcome string) error {
	_, err := j.db.Exec(`UPDATE runs SET finished_at = ?, outcome = ? WHERE id = ?`,
		time.Now().UTC(), outcome, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// Attempt is one journaled loop iteration.
type Attempt struct {
	Index    int
	Valid    bool
	Passed   bool
	Feedback string
}

// RunAttempts returns the journaled attempts of a run in order.
func (j *Journal) RunAttempts(runID string) ([]Attempt, error) {
	rows, err := j.db.Query(`SELECT idx, valid, passed, feedback FROM attempts WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var valid, passed int
		if err := rows.Scan(&a.Index, &valid, &passed, &a.Feedback); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.Valid = valid != 0
		a.Passed = passed != 0
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
