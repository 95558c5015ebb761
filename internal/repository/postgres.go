package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/succinctlab/rmmt/pkg/model"
)

// PostgresBuildJobRepository implements BuildJobRepository for PostgreSQL.
type PostgresBuildJobRepository struct {
	db *sql.DB
}

// NewPostgresBuildJobRepository creates a new PostgresBuildJobRepository.
func NewPostgresBuildJobRepository(db *sql.DB) *PostgresBuildJobRepository {
	return &PostgresBuildJobRepository{db: db}
}

// GetPendingJobs retrieves jobs that are waiting to be built.
func (r *PostgresBuildJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.BuildJob, error) {
	query := `
		SELECT id, uuid, input_key, workers, status, COALESCE(status_info, ''),
			   create_time, begin_time, end_time
		FROM build_job
		WHERE status = $1
		ORDER BY id ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, model.BuildStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

// GetJobByUUID retrieves a job by its UUID.
func (r *PostgresBuildJobRepository) GetJobByUUID(ctx context.Context, uuid string) (*model.BuildJob, error) {
	query := `
		SELECT id, uuid, input_key, workers, status, COALESCE(status_info, ''),
			   create_time, begin_time, end_time
		FROM build_job
		WHERE uuid = $1
	`

	job := &model.BuildJob{}
	var beginTime, endTime sql.NullTime

	err := r.db.QueryRowContext(ctx, query, uuid).Scan(
		&job.ID, &job.JobUUID, &job.InputKey, &job.Workers, &job.Status,
		&job.StatusInfo, &job.CreateTime, &beginTime, &endTime,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("build job not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get build job: %w", err)
	}

	if beginTime.Valid {
		job.BeginTime = &beginTime.Time
	}
	if endTime.Valid {
		job.EndTime = &endTime.Time
	}

	return job, nil
}

// UpdateJobStatus updates the status of a job.
func (r *PostgresBuildJobRepository) UpdateJobStatus(ctx context.Context, id int64, status model.BuildStatus) error {
	query := `UPDATE build_job SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("build job not found: %d", id)
	}

	return nil
}

// UpdateJobStatusWithInfo updates the status with additional diagnostic info.
func (r *PostgresBuildJobRepository) UpdateJobStatusWithInfo(ctx context.Context, id int64, status model.BuildStatus, info string) error {
	query := `UPDATE build_job SET status = $1, status_info = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, info, id)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("build job not found: %d", id)
	}

	return nil
}

// LockJobForBuild attempts to claim a pending job using FOR UPDATE NOWAIT.
func (r *PostgresBuildJobRepository) LockJobForBuild(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var status model.BuildStatus
	query := `SELECT status FROM build_job WHERE id = $1 AND status = $2 FOR UPDATE NOWAIT`
	err = tx.QueryRowContext(ctx, query, id, model.BuildStatusPending).Scan(&status)
	if err != nil {
		// Could not lock - either not found or already locked by another worker.
		return false, nil
	}

	updateQuery := `UPDATE build_job SET status = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, updateQuery, model.BuildStatusRunning, id); err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// scanJobs scans multiple build jobs from rows.
func (r *PostgresBuildJobRepository) scanJobs(rows *sql.Rows) ([]*model.BuildJob, error) {
	var jobs []*model.BuildJob

	for rows.Next() {
		job := &model.BuildJob{}
		var beginTime, endTime sql.NullTime

		err := rows.Scan(
			&job.ID, &job.JobUUID, &job.InputKey, &job.Workers, &job.Status,
			&job.StatusInfo, &job.CreateTime, &beginTime, &endTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build job row: %w", err)
		}

		if beginTime.Valid {
			job.BeginTime = &beginTime.Time
		}
		if endTime.Valid {
			job.EndTime = &endTime.Time
		}

		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return jobs, nil
}

// PostgresBuildRunRepository implements BuildRunRepository for PostgreSQL.
type PostgresBuildRunRepository struct {
	db *sql.DB
}

// NewPostgresBuildRunRepository creates a new PostgresBuildRunRepository.
func NewPostgresBuildRunRepository(db *sql.DB) *PostgresBuildRunRepository {
	return &PostgresBuildRunRepository{db: db}
}

// SaveRun persists the outcome of one rmMt construction. It does not read
// back the inserted row's id, so run.ID is left unchanged.
func (r *PostgresBuildRunRepository) SaveRun(ctx context.Context, run *model.BuildRun) error {
	query := `
		INSERT INTO build_run (job_uuid, input_key, input_bits, workers, num_chunks,
			height, duration_seconds, peak_memory_bytes, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.JobUUID, run.InputKey, run.InputBits, run.Workers, run.NumChunks,
		run.Height, run.DurationSeconds, run.PeakMemoryBytes, run.Status, run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save build run: %w", err)
	}

	return nil
}

// GetRunByJobUUID retrieves the run recorded for a given job.
func (r *PostgresBuildRunRepository) GetRunByJobUUID(ctx context.Context, jobUUID string) (*model.BuildRun, error) {
	query := `
		SELECT id, job_uuid, input_key, input_bits, workers, num_chunks, height,
			   duration_seconds, peak_memory_bytes, status, COALESCE(error_message, ''), create_time
		FROM build_run
		WHERE job_uuid = $1
	`

	run := &model.BuildRun{}
	err := r.db.QueryRowContext(ctx, query, jobUUID).Scan(
		&run.ID, &run.JobUUID, &run.InputKey, &run.InputBits, &run.Workers,
		&run.NumChunks, &run.Height, &run.DurationSeconds, &run.PeakMemoryBytes,
		&run.Status, &run.ErrorMessage, &run.CreateTime,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("build run not found for job: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get build run: %w", err)
	}

	return run, nil
}

// PostgresQueryBenchmarkRepository implements QueryBenchmarkRepository for PostgreSQL.
type PostgresQueryBenchmarkRepository struct {
	db *sql.DB
}

// NewPostgresQueryBenchmarkRepository creates a new PostgresQueryBenchmarkRepository.
func NewPostgresQueryBenchmarkRepository(db *sql.DB) *PostgresQueryBenchmarkRepository {
	return &PostgresQueryBenchmarkRepository{db: db}
}

// SaveBenchmark persists one batch of query-latency samples.
func (r *PostgresQueryBenchmarkRepository) SaveBenchmark(ctx context.Context, qb *model.QueryBenchmark) error {
	query := `
		INSERT INTO query_benchmark (build_run_id, kind, sample_count, total_nanos, min_nanos, max_nanos)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		qb.BuildRunID, qb.Kind, qb.SampleCount, qb.TotalNanos, qb.MinNanos, qb.MaxNanos,
	)
	if err != nil {
		return fmt.Errorf("failed to save query benchmark: %w", err)
	}

	return nil
}

// GetBenchmarksByRunID retrieves all benchmarks recorded for a build run.
func (r *PostgresQueryBenchmarkRepository) GetBenchmarksByRunID(ctx context.Context, buildRunID int64) ([]*model.QueryBenchmark, error) {
	query := `
		SELECT id, build_run_id, kind, sample_count, total_nanos, min_nanos, max_nanos, create_time
		FROM query_benchmark
		WHERE build_run_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, buildRunID)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmarks: %w", err)
	}
	defer rows.Close()

	var benchmarks []*model.QueryBenchmark
	for rows.Next() {
		qb := &model.QueryBenchmark{}
		if err := rows.Scan(
			&qb.ID, &qb.BuildRunID, &qb.Kind, &qb.SampleCount,
			&qb.TotalNanos, &qb.MinNanos, &qb.MaxNanos, &qb.CreateTime,
		); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark row: %w", err)
		}
		benchmarks = append(benchmarks, qb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return benchmarks, nil
}
