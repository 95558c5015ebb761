package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/succinctlab/rmmt/pkg/model"
)

// MockBuildJobRepository is a mock implementation of the BuildJobRepository interface.
type MockBuildJobRepository struct {
	mock.Mock
}

// GetPendingJobs mocks the GetPendingJobs method.
func (m *MockBuildJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.BuildJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.BuildJob), args.Error(1)
}

// GetJobByUUID mocks the GetJobByUUID method.
func (m *MockBuildJobRepository) GetJobByUUID(ctx context.Context, uuid string) (*model.BuildJob, error) {
	args := m.Called(ctx, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BuildJob), args.Error(1)
}

// UpdateJobStatus mocks the UpdateJobStatus method.
func (m *MockBuildJobRepository) UpdateJobStatus(ctx context.Context, id int64, status model.BuildStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// UpdateJobStatusWithInfo mocks the UpdateJobStatusWithInfo method.
func (m *MockBuildJobRepository) UpdateJobStatusWithInfo(ctx context.Context, id int64, status model.BuildStatus, info string) error {
	args := m.Called(ctx, id, status, info)
	return args.Error(0)
}

// LockJobForBuild mocks the LockJobForBuild method.
func (m *MockBuildJobRepository) LockJobForBuild(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// ExpectGetPendingJobs sets up an expectation for GetPendingJobs.
func (m *MockBuildJobRepository) ExpectGetPendingJobs(limit int, jobs []*model.BuildJob, err error) *mock.Call {
	return m.On("GetPendingJobs", mock.Anything, limit).Return(jobs, err)
}

// ExpectUpdateJobStatus sets up an expectation for UpdateJobStatus.
func (m *MockBuildJobRepository) ExpectUpdateJobStatus(id int64, status model.BuildStatus, err error) *mock.Call {
	return m.On("UpdateJobStatus", mock.Anything, id, status).Return(err)
}

// ExpectLockJobForBuild sets up an expectation for LockJobForBuild.
func (m *MockBuildJobRepository) ExpectLockJobForBuild(id int64, success bool, err error) *mock.Call {
	return m.On("LockJobForBuild", mock.Anything, id).Return(success, err)
}

// MockBuildRunRepository is a mock implementation of the BuildRunRepository interface.
type MockBuildRunRepository struct {
	mock.Mock
}

// SaveRun mocks the SaveRun method.
func (m *MockBuildRunRepository) SaveRun(ctx context.Context, run *model.BuildRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// GetRunByJobUUID mocks the GetRunByJobUUID method.
func (m *MockBuildRunRepository) GetRunByJobUUID(ctx context.Context, jobUUID string) (*model.BuildRun, error) {
	args := m.Called(ctx, jobUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BuildRun), args.Error(1)
}

// ExpectSaveRun sets up an expectation for SaveRun.
func (m *MockBuildRunRepository) ExpectSaveRun(err error) *mock.Call {
	return m.On("SaveRun", mock.Anything, mock.Anything).Return(err)
}

// MockQueryBenchmarkRepository is a mock implementation of the QueryBenchmarkRepository interface.
type MockQueryBenchmarkRepository struct {
	mock.Mock
}

// SaveBenchmark mocks the SaveBenchmark method.
func (m *MockQueryBenchmarkRepository) SaveBenchmark(ctx context.Context, qb *model.QueryBenchmark) error {
	args := m.Called(ctx, qb)
	return args.Error(0)
}

// GetBenchmarksByRunID mocks the GetBenchmarksByRunID method.
func (m *MockQueryBenchmarkRepository) GetBenchmarksByRunID(ctx context.Context, buildRunID int64) ([]*model.QueryBenchmark, error) {
	args := m.Called(ctx, buildRunID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QueryBenchmark), args.Error(1)
}

// ExpectSaveBenchmark sets up an expectation for SaveBenchmark.
func (m *MockQueryBenchmarkRepository) ExpectSaveBenchmark(err error) *mock.Call {
	return m.On("SaveBenchmark", mock.Anything, mock.Anything).Return(err)
}
