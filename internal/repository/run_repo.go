package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/sheet-snapshot/internal/models"
)

// RunRepository handles snapshot run history database operations
type RunRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sql.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// Start inserts a RUNNING record and fills in its ID and start time
func (r *RunRepository) Start(run *models.SnapshotRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	// Stored as text; a single zone keeps ORDER BY started_at chronological.
	run.StartedAt = run.StartedAt.UTC()
	if run.Status == "" {
		run.Status = models.RunStatusRunning
	}

	query := `
		INSERT INTO snapshot_runs (
			id, report, status, run_trigger, record_count, malformed_rows,
			output_path, error_message, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		run.ID,
		run.Report,
		run.Status,
		run.Trigger,
		run.RecordCount,
		run.MalformedRows,
		run.OutputPath,
		run.ErrorMessage,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create run record", zap.String("report", run.Report), zap.Error(err))
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// Finish stores the outcome of a run
func (r *RunRepository) Finish(run *models.SnapshotRun) error {
	finished := time.Now().UTC()
	if run.FinishedAt != nil {
		finished = run.FinishedAt.UTC()
	}
	run.FinishedAt = &finished

	query := `
		UPDATE snapshot_runs
		SET status = ?, record_count = ?, malformed_rows = ?,
			output_path = ?, error_message = ?, finished_at = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		run.Status,
		run.RecordCount,
		run.MalformedRows,
		run.OutputPath,
		run.ErrorMessage,
		run.FinishedAt,
		run.ID,
	)
	if err != nil {
		r.logger.Error("Failed to finish run record", zap.String("run_id", run.ID), zap.Error(err))
		return fmt.Errorf("failed to finish run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run not found: %s", run.ID)
	}
	return nil
}

// GetByID retrieves a run by its ID
func (r *RunRepository) GetByID(id string) (*models.SnapshotRun, error) {
	query := `
		SELECT id, report, status, run_trigger, record_count, malformed_rows,
			output_path, error_message, started_at, finished_at
		FROM snapshot_runs
		WHERE id = ?
	`
	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRecent returns the newest runs first. An empty report lists all reports.
func (r *RunRepository) ListRecent(report string, limit int) ([]*models.SnapshotRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, report, status, run_trigger, record_count, malformed_rows,
			output_path, error_message, started_at, finished_at
		FROM snapshot_runs
		WHERE (? = '' OR report = ?)
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, report, report, limit)
	if err != nil {
		r.logger.Error("Failed to list runs", zap.String("report", report), zap.Error(err))
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.SnapshotRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastSuccess returns the most recent successful run of a report, or nil
func (r *RunRepository) LastSuccess(report string) (*models.SnapshotRun, error) {
	query := `
		SELECT id, report, status, run_trigger, record_count, malformed_rows,
			output_path, error_message, started_at, finished_at
		FROM snapshot_runs
		WHERE report = ? AND status = ?
		ORDER BY started_at DESC
		LIMIT 1
	`
	run, err := scanRun(r.db.QueryRow(query, report, models.RunStatusSucceeded))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last successful run: %w", err)
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s rowScanner) (*models.SnapshotRun, error) {
	var run models.SnapshotRun
	var finishedAt sql.NullTime
	err := s.Scan(
		&run.ID,
		&run.Report,
		&run.Status,
		&run.Trigger,
		&run.RecordCount,
		&run.MalformedRows,
		&run.OutputPath,
		&run.ErrorMessage,
		&run.StartedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
