package mockocr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vaheandonians/layla-client/model"

	_ "modernc.org/sqlite"
)

const createJobsTable = `
CREATE TABLE IF NOT EXISTS jobs (
    id         TEXT PRIMARY KEY,
    status     TEXT NOT NULL,
    model      TEXT NOT NULL,
    filename   TEXT NOT NULL,
    progress   TEXT NOT NULL DEFAULT '',
    result     TEXT NOT NULL DEFAULT '',
    error      TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
)`

// errNotFound is returned when a job is not in the store.
var errNotFound = errors.New("job not found")

// jobRecord is the persisted form of a simulated job.
type jobRecord struct {
	ID        string
	Status    string
	Model     string
	Filename  string
	Progress  string
	Result    string
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type store struct {
	db *sql.DB
}

// newStore opens the SQLite database at dbPath and runs migrations.
func newStore(dbPath string) (*store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and
	// serializes writer access.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec(createJobsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create jobs table: %w", err)
	}

	return &store{db: db}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

func (s *store) createJob(ctx context.Context, j *jobRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, status, model, filename, progress, result, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.Status, j.Model, j.Filename, j.Progress, j.Result, j.Error, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *store) getJob(ctx context.Context, id string) (*jobRecord, error) {
	j := &jobRecord{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, status, model, filename, progress, result, error, created_at, updated_at
		 FROM jobs WHERE id = ?`, id,
	).Scan(&j.ID, &j.Status, &j.Model, &j.Filename, &j.Progress, &j.Result, &j.Error, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return j, nil
}

func (s *store) updateProgress(ctx context.Context, id, progress string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?",
		progress, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return oneRow(result)
}

// finishJob records a terminal outcome. Exactly one of result and errMsg
// is expected to be non-empty, matching the terminal state.
func (s *store) finishJob(ctx context.Context, id string, status model.State, result, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET status = ?, progress = '', result = ?, error = ?, updated_at = ? WHERE id = ?",
		string(status), result, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return oneRow(res)
}

// deleteJob removes a job, reporting whether it existed.
func (s *store) deleteJob(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return n > 0, nil
}

// countProcessing reports the number of jobs still in flight, which the
// health endpoint exposes as the queue size.
func (s *store) countProcessing(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM jobs WHERE status = ?", string(model.StateProcessing),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count processing jobs: %w", err)
	}
	return n, nil
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return errNotFound
	}
	return nil
}
