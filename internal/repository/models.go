// Package repository provides database abstraction for the rmMt build
// service.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/succinctlab/rmmt/pkg/model"
)

// BuildJobRecord represents the build_job table.
type BuildJobRecord struct {
	ID         int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UUID       string            `gorm:"column:uuid;type:varchar(64);uniqueIndex"`
	InputKey   string            `gorm:"column:input_key;type:varchar(512)"`
	Workers    int               `gorm:"column:workers"`
	Status     model.BuildStatus `gorm:"column:status"`
	StatusInfo string            `gorm:"column:status_info;type:text"`
	CreateTime time.Time         `gorm:"column:create_time;autoCreateTime"`
	BeginTime  *time.Time        `gorm:"column:begin_time"`
	EndTime    *time.Time        `gorm:"column:end_time"`
}

// TableName returns the table name for BuildJobRecord.
func (BuildJobRecord) TableName() string {
	return "build_job"
}

// ToModel converts BuildJobRecord to model.BuildJob.
func (r *BuildJobRecord) ToModel() *model.BuildJob {
	return &model.BuildJob{
		ID:         r.ID,
		JobUUID:    r.UUID,
		InputKey:   r.InputKey,
		Workers:    r.Workers,
		Status:     r.Status,
		StatusInfo: r.StatusInfo,
		CreateTime: r.CreateTime,
		BeginTime:  r.BeginTime,
		EndTime:    r.EndTime,
	}
}

// FromBuildJob populates a BuildJobRecord from model.BuildJob.
func FromBuildJob(j *model.BuildJob) *BuildJobRecord {
	return &BuildJobRecord{
		ID:         j.ID,
		UUID:       j.JobUUID,
		InputKey:   j.InputKey,
		Workers:    j.Workers,
		Status:     j.Status,
		StatusInfo: j.StatusInfo,
		CreateTime: j.CreateTime,
		BeginTime:  j.BeginTime,
		EndTime:    j.EndTime,
	}
}

// BuildRunRecord represents the build_run table: the persisted outcome of
// one rmMt construction.
type BuildRunRecord struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement"`
	JobUUID         string            `gorm:"column:job_uuid;type:varchar(64);index"`
	InputKey        string            `gorm:"column:input_key;type:varchar(512)"`
	InputBits       int               `gorm:"column:input_bits"`
	Workers         int               `gorm:"column:workers"`
	NumChunks       int               `gorm:"column:num_chunks"`
	Height          int               `gorm:"column:height"`
	DurationSeconds float64           `gorm:"column:duration_seconds"`
	PeakMemoryBytes int64             `gorm:"column:peak_memory_bytes"`
	Status          model.BuildStatus `gorm:"column:status"`
	ErrorMessage    string            `gorm:"column:error_message;type:text"`
	SummaryStats    JSONField         `gorm:"column:summary_stats;type:text"`
	CreateTime      time.Time         `gorm:"column:create_time;autoCreateTime"`
}

// TableName returns the table name for BuildRunRecord.
func (BuildRunRecord) TableName() string {
	return "build_run"
}

// ToModel converts BuildRunRecord to model.BuildRun.
func (r *BuildRunRecord) ToModel() *model.BuildRun {
	run := &model.BuildRun{
		ID:              r.ID,
		JobUUID:         r.JobUUID,
		InputKey:        r.InputKey,
		InputBits:       r.InputBits,
		Workers:         r.Workers,
		NumChunks:       r.NumChunks,
		Height:          r.Height,
		DurationSeconds: r.DurationSeconds,
		PeakMemoryBytes: r.PeakMemoryBytes,
		Status:          r.Status,
		ErrorMessage:    r.ErrorMessage,
		CreateTime:      r.CreateTime,
	}
	if len(r.SummaryStats) > 0 {
		_ = json.Unmarshal(r.SummaryStats, &run.SummaryStats)
	}
	return run
}

// FromBuildRun populates a BuildRunRecord from model.BuildRun.
func FromBuildRun(run *model.BuildRun) *BuildRunRecord {
	rec := &BuildRunRecord{
		JobUUID:         run.JobUUID,
		InputKey:        run.InputKey,
		InputBits:       run.InputBits,
		Workers:         run.Workers,
		NumChunks:       run.NumChunks,
		Height:          run.Height,
		DurationSeconds: run.DurationSeconds,
		PeakMemoryBytes: run.PeakMemoryBytes,
		Status:          run.Status,
		ErrorMessage:    run.ErrorMessage,
	}
	if len(run.SummaryStats) > 0 {
		if blob, err := json.Marshal(run.SummaryStats); err == nil {
			rec.SummaryStats = JSONField(blob)
		}
	}
	return rec
}

// QueryBenchmarkRecord represents the query_benchmark table.
type QueryBenchmarkRecord struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	BuildRunID  int64           `gorm:"column:build_run_id;index"`
	Kind        model.QueryKind `gorm:"column:kind"`
	SampleCount int             `gorm:"column:sample_count"`
	TotalNanos  int64           `gorm:"column:total_nanos"`
	MinNanos    int64           `gorm:"column:min_nanos"`
	MaxNanos    int64           `gorm:"column:max_nanos"`
	CreateTime  time.Time       `gorm:"column:create_time;autoCreateTime"`
}

// TableName returns the table name for QueryBenchmarkRecord.
func (QueryBenchmarkRecord) TableName() string {
	return "query_benchmark"
}

// ToModel converts QueryBenchmarkRecord to model.QueryBenchmark.
func (r *QueryBenchmarkRecord) ToModel() *model.QueryBenchmark {
	return &model.QueryBenchmark{
		ID:          r.ID,
		BuildRunID:  r.BuildRunID,
		Kind:        r.Kind,
		SampleCount: r.SampleCount,
		TotalNanos:  r.TotalNanos,
		MinNanos:    r.MinNanos,
		MaxNanos:    r.MaxNanos,
		CreateTime:  r.CreateTime,
	}
}

// FromQueryBenchmark populates a QueryBenchmarkRecord from
// model.QueryBenchmark.
func FromQueryBenchmark(qb *model.QueryBenchmark) *QueryBenchmarkRecord {
	return &QueryBenchmarkRecord{
		BuildRunID:  qb.BuildRunID,
		Kind:        qb.Kind,
		SampleCount: qb.SampleCount,
		TotalNanos:  qb.TotalNanos,
		MinNanos:    qb.MinNanos,
		MaxNanos:    qb.MaxNanos,
	}
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
