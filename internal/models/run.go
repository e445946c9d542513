package models

import "time"

// SnapshotRun records one refresh attempt of a report snapshot
type SnapshotRun struct {
	ID            string     `json:"id"`
	Report        string     `json:"report"`
	Status        string     `json:"status"`  // RUNNING, SUCCEEDED, FAILED, SKIPPED
	Trigger       string     `json:"trigger"` // SCHEDULE, STARTUP, MANUAL
	RecordCount   int        `json:"record_count"`
	MalformedRows int        `json:"malformed_rows"`
	OutputPath    string     `json:"output_path"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Run status constants
const (
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
	RunStatusSkipped   = "SKIPPED"
)

// Run trigger constants
const (
	RunTriggerSchedule = "SCHEDULE"
	RunTriggerStartup  = "STARTUP"
	RunTriggerManual   = "MANUAL"
)
