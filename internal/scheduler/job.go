package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/sheet-snapshot/internal/models"
	"github.com/garyjia/sheet-snapshot/internal/snapshot"
)

// ErrAlreadyRunning is returned when a job fires while its previous run is
// still in progress.
var ErrAlreadyRunning = errors.New("refresh already running")

// RunRecorder persists run history. Recording failures are logged and never
// fail a refresh.
type RunRecorder interface {
	Start(run *models.SnapshotRun) error
	Finish(run *models.SnapshotRun) error
}

// JobStatus is a point-in-time view of one job
type JobStatus struct {
	Report      string     `json:"report"`
	Running     bool       `json:"running"`
	NextRun     *time.Time `json:"next_run,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastRecords int        `json:"last_records"`
	LastError   string     `json:"last_error,omitempty"`
}

// Job runs one report's refresh pipeline. It is either idle or running; a
// run requested while running is skipped.
type Job struct {
	refresher snapshot.Refresher
	recorder  RunRecorder
	logger    *zap.Logger

	running atomic.Bool

	mu          sync.RWMutex
	lastRun     time.Time
	lastSuccess time.Time
	lastRecords int
	lastErr     error
}

// NewJob creates a new Job. recorder may be nil.
func NewJob(refresher snapshot.Refresher, recorder RunRecorder, logger *zap.Logger) *Job {
	return &Job{
		refresher: refresher,
		recorder:  recorder,
		logger:    logger.With(zap.String("report", refresher.Name())),
	}
}

// Name returns the report name
func (j *Job) Name() string {
	return j.refresher.Name()
}

// IsRunning reports whether a run is in progress
func (j *Job) IsRunning() bool {
	return j.running.Load()
}

// Run executes the refresh unless one is already in progress. Errors are
// returned for the caller's information; the scheduler only logs them.
func (j *Job) Run(ctx context.Context, trigger string) (*snapshot.RunResult, error) {
	if !j.running.CompareAndSwap(false, true) {
		j.logger.Warn("Skipping refresh, previous run still in progress", zap.String("trigger", trigger))
		j.recordSkipped(trigger)
		return nil, ErrAlreadyRunning
	}
	defer j.running.Store(false)

	run := &models.SnapshotRun{
		Report:     j.Name(),
		Trigger:    trigger,
		OutputPath: j.refresher.Info().OutputPath,
	}
	j.recordStart(run)

	result, err := j.refresher.Refresh(ctx)

	j.mu.Lock()
	j.lastRun = time.Now()
	j.lastErr = err
	if err == nil {
		j.lastSuccess = j.lastRun
		j.lastRecords = result.Records
	}
	j.mu.Unlock()

	if err != nil {
		j.logRefreshError(err, trigger)
		run.Status = models.RunStatusFailed
		run.ErrorMessage = err.Error()
	} else {
		run.Status = models.RunStatusSucceeded
		run.RecordCount = result.Records
		run.MalformedRows = result.MalformedRows
	}
	j.recordFinish(run)

	return result, err
}

// Status returns a snapshot of the job state
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()

	status := JobStatus{
		Report:      j.Name(),
		Running:     j.running.Load(),
		LastRecords: j.lastRecords,
	}
	if !j.lastRun.IsZero() {
		t := j.lastRun
		status.LastRun = &t
	}
	if !j.lastSuccess.IsZero() {
		t := j.lastSuccess
		status.LastSuccess = &t
	}
	if j.lastErr != nil {
		status.LastError = j.lastErr.Error()
	}
	return status
}

func (j *Job) logRefreshError(err error, trigger string) {
	switch {
	case errors.Is(err, snapshot.ErrSourceUnavailable):
		j.logger.Error("Source spreadsheet unavailable, keeping previous snapshot",
			zap.String("trigger", trigger),
			zap.String("source", j.refresher.Info().SourcePath),
			zap.Error(err))
	case errors.Is(err, snapshot.ErrPublishFailure):
		j.logger.Error("Failed to publish snapshot, keeping previous snapshot",
			zap.String("trigger", trigger),
			zap.Error(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		j.logger.Warn("Refresh cancelled", zap.String("trigger", trigger), zap.Error(err))
	default:
		j.logger.Error("Snapshot refresh failed", zap.String("trigger", trigger), zap.Error(err))
	}
}

func (j *Job) recordStart(run *models.SnapshotRun) {
	if j.recorder == nil {
		return
	}
	if err := j.recorder.Start(run); err != nil {
		j.logger.Warn("Failed to record run start", zap.Error(err))
	}
}

func (j *Job) recordFinish(run *models.SnapshotRun) {
	if j.recorder == nil || run.ID == "" {
		return
	}
	if err := j.recorder.Finish(run); err != nil {
		j.logger.Warn("Failed to record run result", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (j *Job) recordSkipped(trigger string) {
	if j.recorder == nil {
		return
	}
	now := time.Now().UTC()
	run := &models.SnapshotRun{
		Report:       j.Name(),
		Status:       models.RunStatusSkipped,
		Trigger:      trigger,
		ErrorMessage: ErrAlreadyRunning.Error(),
		StartedAt:    now,
		FinishedAt:   &now,
	}
	if err := j.recorder.Start(run); err != nil {
		j.logger.Warn("Failed to record skipped run", zap.Error(err))
	}
}

