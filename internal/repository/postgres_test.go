package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/succinctlab/rmmt/pkg/model"
)

func TestPostgresBuildJobRepository_GetPendingJobs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresBuildJobRepository(db)

	t.Run("GetPendingJobs_Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "uuid", "input_key", "workers", "status", "status_info",
			"create_time", "begin_time", "end_time",
		}).AddRow(
			int64(1), "job-uuid-1", "inputs/tree.bp", 4, model.BuildStatusPending,
			"", time.Now(), nil, nil,
		)

		mock.ExpectQuery("SELECT id, uuid, input_key").WillReturnRows(rows)

		jobs, err := repo.GetPendingJobs(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, int64(1), jobs[0].ID)
		assert.Equal(t, "job-uuid-1", jobs[0].JobUUID)
	})

	t.Run("GetPendingJobs_Empty", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "uuid", "input_key", "workers", "status", "status_info",
			"create_time", "begin_time", "end_time",
		})

		mock.ExpectQuery("SELECT id, uuid, input_key").WillReturnRows(rows)

		jobs, err := repo.GetPendingJobs(context.Background(), 10)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})
}

func TestPostgresBuildJobRepository_GetJobByUUID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresBuildJobRepository(db)

	t.Run("GetJobByUUID_Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "uuid", "input_key", "workers", "status", "status_info",
			"create_time", "begin_time", "end_time",
		}).AddRow(
			int64(1), "job-uuid-1", "inputs/tree.bp", 4, model.BuildStatusRunning,
			"", time.Now(), nil, nil,
		)

		mock.ExpectQuery("SELECT id, uuid, input_key").WithArgs("job-uuid-1").WillReturnRows(rows)

		job, err := repo.GetJobByUUID(context.Background(), "job-uuid-1")
		require.NoError(t, err)
		assert.Equal(t, "job-uuid-1", job.JobUUID)
	})

	t.Run("GetJobByUUID_NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, uuid, input_key").WithArgs("missing").WillReturnError(sql.ErrNoRows)

		job, err := repo.GetJobByUUID(context.Background(), "missing")
		assert.Error(t, err)
		assert.Nil(t, job)
		assert.Contains(t, err.Error(), "build job not found")
	})
}

func TestPostgresBuildJobRepository_UpdateJobStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresBuildJobRepository(db)

	t.Run("UpdateStatus_Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE build_job").
			WithArgs(model.BuildStatusCompleted, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateJobStatus(context.Background(), 1, model.BuildStatusCompleted)
		require.NoError(t, err)
	})

	t.Run("UpdateStatus_NotFound", func(t *testing.T) {
		mock.ExpectExec("UPDATE build_job").
			WithArgs(model.BuildStatusCompleted, int64(999)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateJobStatus(context.Background(), 999, model.BuildStatusCompleted)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "build job not found")
	})
}

func TestPostgresBuildJobRepository_LockJobForBuild(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresBuildJobRepository(db)

	t.Run("Lock_Success", func(t *testing.T) {
		mock.ExpectBegin()

		rows := sqlmock.NewRows([]string{"status"}).AddRow(model.BuildStatusPending)
		mock.ExpectQuery("SELECT status").
			WithArgs(int64(1), model.BuildStatusPending).
			WillReturnRows(rows)

		mock.ExpectExec("UPDATE build_job").
			WithArgs(model.BuildStatusRunning, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectCommit()

		locked, err := repo.LockJobForBuild(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, locked)
	})

	t.Run("Lock_AlreadyLocked", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT status").
			WithArgs(int64(1), model.BuildStatusPending).
			WillReturnError(sql.ErrNoRows)

		mock.ExpectRollback()

		locked, err := repo.LockJobForBuild(context.Background(), 1)
		require.NoError(t, err)
		assert.False(t, locked)
	})
}

func TestPostgresBuildRunRepository_SaveRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresBuildRunRepository(db)

	t.Run("SaveRun_Success", func(t *testing.T) {
		run := &model.BuildRun{
			JobUUID:   "job-uuid-1",
			InputKey:  "inputs/tree.bp",
			InputBits: 1 << 20,
			Workers:   4,
			NumChunks: 4096,
			Height:    13,
			Status:    model.BuildStatusCompleted,
		}

		mock.ExpectExec("INSERT INTO build_run").
			WithArgs(run.JobUUID, run.InputKey, run.InputBits, run.Workers, run.NumChunks,
				run.Height, run.DurationSeconds, run.PeakMemoryBytes, run.Status, run.ErrorMessage).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SaveRun(context.Background(), run)
		require.NoError(t, err)
	})
}

func TestPostgresBuildRunRepository_GetRunByJobUUID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresBuildRunRepository(db)

	t.Run("GetRun_Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "job_uuid", "input_key", "input_bits", "workers", "num_chunks",
			"height", "duration_seconds", "peak_memory_bytes", "status", "error_message", "create_time",
		}).AddRow(int64(1), "job-uuid-1", "inputs/tree.bp", 1<<20, 4, 4096, 13, 1.5, int64(1<<22),
			model.BuildStatusCompleted, "", time.Now())

		mock.ExpectQuery("SELECT id, job_uuid").WithArgs("job-uuid-1").WillReturnRows(rows)

		run, err := repo.GetRunByJobUUID(context.Background(), "job-uuid-1")
		require.NoError(t, err)
		assert.Equal(t, "job-uuid-1", run.JobUUID)
	})

	t.Run("GetRun_NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, job_uuid").WithArgs("missing").WillReturnError(sql.ErrNoRows)

		run, err := repo.GetRunByJobUUID(context.Background(), "missing")
		assert.Error(t, err)
		assert.Nil(t, run)
		assert.Contains(t, err.Error(), "build run not found")
	})
}

func TestPostgresQueryBenchmarkRepository_SaveAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresQueryBenchmarkRepository(db)

	t.Run("SaveBenchmark_Success", func(t *testing.T) {
		qb := &model.QueryBenchmark{
			BuildRunID:  1,
			Kind:        model.QueryKindSum,
			SampleCount: 500,
			TotalNanos:  25000,
			MinNanos:    5,
			MaxNanos:    100,
		}

		mock.ExpectExec("INSERT INTO query_benchmark").
			WithArgs(qb.BuildRunID, qb.Kind, qb.SampleCount, qb.TotalNanos, qb.MinNanos, qb.MaxNanos).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SaveBenchmark(context.Background(), qb)
		require.NoError(t, err)
	})

	t.Run("GetBenchmarksByRunID_Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "build_run_id", "kind", "sample_count", "total_nanos", "min_nanos", "max_nanos", "create_time",
		}).
			AddRow(int64(1), int64(1), model.QueryKindSum, 500, int64(25000), int64(5), int64(100), time.Now()).
			AddRow(int64(2), int64(1), model.QueryKindRank1, 500, int64(15000), int64(3), int64(80), time.Now())

		mock.ExpectQuery("SELECT id, build_run_id").WithArgs(int64(1)).WillReturnRows(rows)

		benchmarks, err := repo.GetBenchmarksByRunID(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, benchmarks, 2)
		assert.Equal(t, model.QueryKindSum, benchmarks[0].Kind)
		assert.Equal(t, model.QueryKindRank1, benchmarks[1].Kind)
	})
}
