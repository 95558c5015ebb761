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

func TestMySQLBuildJobRepository_GetPendingJobs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLBuildJobRepository(db)

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
}

func TestMySQLBuildJobRepository_GetJobByUUID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLBuildJobRepository(db)

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, uuid, input_key").WithArgs("missing").WillReturnError(sql.ErrNoRows)

		job, err := repo.GetJobByUUID(context.Background(), "missing")
		assert.Error(t, err)
		assert.Nil(t, job)
		assert.Contains(t, err.Error(), "build job not found")
	})
}

func TestMySQLBuildJobRepository_UpdateJobStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLBuildJobRepository(db)

	t.Run("UpdateStatus_Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE build_job").
			WithArgs(model.BuildStatusCompleted, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateJobStatus(context.Background(), 1, model.BuildStatusCompleted)
		require.NoError(t, err)
	})

	t.Run("UpdateStatus_NotFound", func(t *testing.T) {
		mock.ExpectExec("UPDATE build_job").
			WithArgs(model.BuildStatusCompleted, int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateJobStatus(context.Background(), 99, model.BuildStatusCompleted)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "build job not found")
	})
}

func TestMySQLBuildRunRepository_SaveRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLBuildRunRepository(db)

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

func TestMySQLBuildRunRepository_GetRunByJobUUID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLBuildRunRepository(db)

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, job_uuid").WithArgs("missing").WillReturnError(sql.ErrNoRows)

		run, err := repo.GetRunByJobUUID(context.Background(), "missing")
		assert.Error(t, err)
		assert.Nil(t, run)
	})
}

func TestMySQLQueryBenchmarkRepository_SaveAndGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLQueryBenchmarkRepository(db)

	t.Run("SaveBenchmark_Success", func(t *testing.T) {
		qb := &model.QueryBenchmark{
			BuildRunID:  1,
			Kind:        model.QueryKindFwdSearch,
			SampleCount: 1000,
			TotalNanos:  50000,
			MinNanos:    10,
			MaxNanos:    200,
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
		}).AddRow(int64(1), int64(1), model.QueryKindFwdSearch, 1000, int64(50000), int64(10), int64(200), time.Now())

		mock.ExpectQuery("SELECT id, build_run_id").WithArgs(int64(1)).WillReturnRows(rows)

		benchmarks, err := repo.GetBenchmarksByRunID(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, benchmarks, 1)
		assert.Equal(t, model.QueryKindFwdSearch, benchmarks[0].Kind)
	})
}
