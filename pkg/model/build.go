// Package model defines the core data structures used throughout the
// application.
package model

import "time"

// BuildStatus represents the status of a build job.
type BuildStatus int

const (
	BuildStatusPending   BuildStatus = 0 // Pending
	BuildStatusRunning   BuildStatus = 1 // Running
	BuildStatusCompleted BuildStatus = 2 // Completed
	BuildStatusFailed    BuildStatus = 3 // Failed
)

// String returns the string representation of BuildStatus.
func (s BuildStatus) String() string {
	switch s {
	case BuildStatusPending:
		return "pending"
	case BuildStatusRunning:
		return "running"
	case BuildStatusCompleted:
		return "completed"
	case BuildStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BuildJob describes a request to construct an rmMt index from an input
// object held in storage.
type BuildJob struct {
	ID         int64       `json:"id" db:"id"`
	JobUUID    string      `json:"uuid" db:"uuid"`
	InputKey   string      `json:"input_key" db:"input_key"`
	Workers    int         `json:"workers" db:"workers"`
	Status     BuildStatus `json:"status" db:"status"`
	StatusInfo string      `json:"status_info" db:"status_info"`
	CreateTime time.Time   `json:"create_time" db:"create_time"`
	BeginTime  *time.Time  `json:"begin_time" db:"begin_time"`
	EndTime    *time.Time  `json:"end_time" db:"end_time"`
}

// NewBuildJob creates a new BuildJob instance.
func NewBuildJob(id int64, jobUUID, inputKey string, workers int) *BuildJob {
	return &BuildJob{
		ID:         id,
		JobUUID:    jobUUID,
		InputKey:   inputKey,
		Workers:    workers,
		Status:     BuildStatusPending,
		CreateTime: time.Now(),
	}
}

// IsTerminal returns true if the job has reached a final status.
func (j *BuildJob) IsTerminal() bool {
	return j.Status == BuildStatusCompleted || j.Status == BuildStatusFailed
}

// BuildRun records the outcome of one completed (or failed) BuildJob
// execution, including the summary statistics needed to reproduce or audit
// the construction.
type BuildRun struct {
	ID              int64      `json:"id" db:"id"`
	JobUUID         string     `json:"job_uuid" db:"job_uuid"`
	InputKey        string     `json:"input_key" db:"input_key"`
	InputBits       int        `json:"input_bits" db:"input_bits"`
	Workers         int        `json:"workers" db:"workers"`
	NumChunks       int        `json:"num_chunks" db:"num_chunks"`
	Height          int        `json:"height" db:"height"`
	DurationSeconds float64    `json:"duration_seconds" db:"duration_seconds"`
	PeakMemoryBytes int64      `json:"peak_memory_bytes" db:"peak_memory_bytes"`
	Status          BuildStatus `json:"status" db:"status"`
	ErrorMessage    string     `json:"error_message,omitempty" db:"error_message"`
	CreateTime      time.Time  `json:"create_time" db:"create_time"`

	// SummaryStats carries per-phase durations and the built tree's root
	// summary values (max excess, min-excess count), persisted as one JSON
	// blob alongside the scalar columns above.
	SummaryStats map[string]float64 `json:"summary_stats,omitempty" db:"summary_stats"`
}

// NewBuildRun creates a BuildRun from a completed job and its resulting
// layout statistics.
func NewBuildRun(job *BuildJob, inputBits, numChunks, height int, duration time.Duration, peakMemoryBytes int64) *BuildRun {
	return &BuildRun{
		JobUUID:         job.JobUUID,
		InputKey:        job.InputKey,
		InputBits:       inputBits,
		Workers:         job.Workers,
		NumChunks:       numChunks,
		Height:          height,
		DurationSeconds: duration.Seconds(),
		PeakMemoryBytes: peakMemoryBytes,
		Status:          BuildStatusCompleted,
		CreateTime:      time.Now(),
	}
}
