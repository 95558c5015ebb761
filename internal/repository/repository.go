// Package repository provides database abstraction for the rmMt build
// service.
package repository

import (
	"context"

	"github.com/succinctlab/rmmt/pkg/model"
)

// BuildJobRepository defines the interface for build-job queue operations.
type BuildJobRepository interface {
	// GetPendingJobs retrieves jobs that are waiting to be built, oldest first.
	GetPendingJobs(ctx context.Context, limit int) ([]*model.BuildJob, error)

	// GetJobByUUID retrieves a job by its UUID.
	GetJobByUUID(ctx context.Context, uuid string) (*model.BuildJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, id int64, status model.BuildStatus) error

	// UpdateJobStatusWithInfo updates the status with additional diagnostic info.
	UpdateJobStatusWithInfo(ctx context.Context, id int64, status model.BuildStatus, info string) error

	// LockJobForBuild attempts to claim a pending job (prevents concurrent
	// workers from building the same input twice).
	LockJobForBuild(ctx context.Context, id int64) (bool, error)
}

// BuildRunRepository defines the interface for persisted build-outcome
// operations.
type BuildRunRepository interface {
	// SaveRun persists the outcome of one rmMt construction. The GORM and
	// MySQL implementations backfill run.ID with the inserted row's id; the
	// PostgreSQL implementation leaves run.ID unchanged.
	SaveRun(ctx context.Context, run *model.BuildRun) error

	// GetRunByJobUUID retrieves the run recorded for a given job.
	GetRunByJobUUID(ctx context.Context, jobUUID string) (*model.BuildRun, error)
}

// QueryBenchmarkRepository defines the interface for persisted
// navigation-query latency samples.
type QueryBenchmarkRepository interface {
	// SaveBenchmark persists one batch of query-latency samples.
	SaveBenchmark(ctx context.Context, qb *model.QueryBenchmark) error

	// GetBenchmarksByRunID retrieves all benchmarks recorded for a build run.
	GetBenchmarksByRunID(ctx context.Context, buildRunID int64) ([]*model.QueryBenchmark, error)
}
