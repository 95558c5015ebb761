package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/succinctlab/rmmt/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBuildJobRepository implements BuildJobRepository using GORM.
type GormBuildJobRepository struct {
	db *gorm.DB
}

// NewGormBuildJobRepository creates a new GormBuildJobRepository.
func NewGormBuildJobRepository(db *gorm.DB) *GormBuildJobRepository {
	return &GormBuildJobRepository{db: db}
}

// GetPendingJobs retrieves jobs that are waiting to be built.
func (r *GormBuildJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.BuildJob, error) {
	var records []BuildJobRecord

	err := r.db.WithContext(ctx).
		Where("status = ?", model.BuildStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}

	jobs := make([]*model.BuildJob, len(records))
	for i := range records {
		jobs[i] = records[i].ToModel()
	}

	return jobs, nil
}

// GetJobByUUID retrieves a job by its UUID.
func (r *GormBuildJobRepository) GetJobByUUID(ctx context.Context, uuid string) (*model.BuildJob, error) {
	var record BuildJobRecord

	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("build job not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get build job: %w", err)
	}

	return record.ToModel(), nil
}

// UpdateJobStatus updates the status of a job.
func (r *GormBuildJobRepository) UpdateJobStatus(ctx context.Context, id int64, status model.BuildStatus) error {
	result := r.db.WithContext(ctx).
		Model(&BuildJobRecord{}).
		Where("id = ?", id).
		Update("status", status)

	if result.Error != nil {
		return fmt.Errorf("failed to update job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("build job not found: %d", id)
	}

	return nil
}

// UpdateJobStatusWithInfo updates the status with additional diagnostic info.
func (r *GormBuildJobRepository) UpdateJobStatusWithInfo(ctx context.Context, id int64, status model.BuildStatus, info string) error {
	result := r.db.WithContext(ctx).
		Model(&BuildJobRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      status,
			"status_info": info,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("build job not found: %d", id)
	}

	return nil
}

// LockJobForBuild attempts to claim a pending job using FOR UPDATE.
func (r *GormBuildJobRepository) LockJobForBuild(ctx context.Context, id int64) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record BuildJobRecord

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status = ?", id, model.BuildStatusPending).
			First(&record).Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		return tx.Model(&BuildJobRecord{}).
			Where("id = ?", id).
			Update("status", model.BuildStatusRunning).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock job: %w", err)
	}

	return true, nil
}

// GormBuildRunRepository implements BuildRunRepository using GORM.
type GormBuildRunRepository struct {
	db *gorm.DB
}

// NewGormBuildRunRepository creates a new GormBuildRunRepository.
func NewGormBuildRunRepository(db *gorm.DB) *GormBuildRunRepository {
	return &GormBuildRunRepository{db: db}
}

// SaveRun persists the outcome of one rmMt construction.
func (r *GormBuildRunRepository) SaveRun(ctx context.Context, run *model.BuildRun) error {
	record := FromBuildRun(run)

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save build run: %w", err)
	}

	run.ID = record.ID
	return nil
}

// GetRunByJobUUID retrieves the run recorded for a given job.
func (r *GormBuildRunRepository) GetRunByJobUUID(ctx context.Context, jobUUID string) (*model.BuildRun, error) {
	var record BuildRunRecord

	err := r.db.WithContext(ctx).Where("job_uuid = ?", jobUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("build run not found for job: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get build run: %w", err)
	}

	return record.ToModel(), nil
}

// GormQueryBenchmarkRepository implements QueryBenchmarkRepository using GORM.
type GormQueryBenchmarkRepository struct {
	db *gorm.DB
}

// NewGormQueryBenchmarkRepository creates a new GormQueryBenchmarkRepository.
func NewGormQueryBenchmarkRepository(db *gorm.DB) *GormQueryBenchmarkRepository {
	return &GormQueryBenchmarkRepository{db: db}
}

// SaveBenchmark persists one batch of query-latency samples.
func (r *GormQueryBenchmarkRepository) SaveBenchmark(ctx context.Context, qb *model.QueryBenchmark) error {
	record := FromQueryBenchmark(qb)

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save query benchmark: %w", err)
	}

	return nil
}

// GetBenchmarksByRunID retrieves all benchmarks recorded for a build run.
func (r *GormQueryBenchmarkRepository) GetBenchmarksByRunID(ctx context.Context, buildRunID int64) ([]*model.QueryBenchmark, error) {
	var records []QueryBenchmarkRecord

	err := r.db.WithContext(ctx).Where("build_run_id = ?", buildRunID).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmarks: %w", err)
	}

	benchmarks := make([]*model.QueryBenchmark, len(records))
	for i := range records {
		benchmarks[i] = records[i].ToModel()
	}

	return benchmarks, nil
}
