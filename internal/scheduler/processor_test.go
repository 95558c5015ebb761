package scheduler

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/succinctlab/rmmt/internal/loader"
	rmmtmock "github.com/succinctlab/rmmt/internal/mock"
	"github.com/succinctlab/rmmt/internal/repository"
	"github.com/succinctlab/rmmt/pkg/config"
	"github.com/succinctlab/rmmt/pkg/model"
	"github.com/succinctlab/rmmt/pkg/utils"
)

// bpReader yields a downloadable object of opens '(' followed by opens ')'.
func bpReader(opens int) io.ReadCloser {
	return io.NopCloser(strings.NewReader(strings.Repeat("(", opens) + strings.Repeat(")", opens)))
}

type recordingHistory struct {
	runs []*model.BuildRun
}

func (h *recordingHistory) Record(run *model.BuildRun) {
	h.runs = append(h.runs, run)
}

func TestDefaultTaskProcessor_Process(t *testing.T) {
	store := &rmmtmock.MockStorage{}
	jobRepo := &rmmtmock.MockBuildJobRepository{}
	runRepo := &rmmtmock.MockBuildRunRepository{}
	benchRepo := &rmmtmock.MockQueryBenchmarkRepository{}
	logger := utils.NewDefaultLogger(utils.LevelError, io.Discard)

	store.ExpectDownload("inputs/tree.bp", bpReader(260), nil)

	var saved *model.BuildRun
	runRepo.On("SaveRun", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*model.BuildRun)
		saved.ID = 7 // what the gorm repository's backfill would do
	}).Return(nil)

	jobRepo.ExpectUpdateJobStatus(1, model.BuildStatusCompleted, nil)
	benchRepo.ExpectSaveBenchmark(nil)

	history := &recordingHistory{}

	p := NewDefaultTaskProcessor(&ProcessorConfig{
		Config:  &config.Config{Build: config.BuildConfig{BenchmarkSamples: 4}},
		Storage: store,
		Loader:  loader.NewFileLoader(logger),
		Repos:   &repository.Repositories{BuildJob: jobRepo, BuildRun: runRepo, QueryBenchmark: benchRepo},
		History: history,
		Logger:  logger,
	})

	err := p.Process(context.Background(), &Task{ID: 1, JobUUID: "job-1", InputKey: "inputs/tree.bp", Workers: 2})
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.Equal(t, 520, saved.InputBits)
	assert.Equal(t, model.BuildStatusCompleted, saved.Status)
	assert.Equal(t, float64(260), saved.SummaryStats["max_excess"])
	assert.Contains(t, saved.SummaryStats, "load_seconds")
	assert.Contains(t, saved.SummaryStats, "construct_seconds")

	require.Len(t, history.runs, 1)
	assert.Same(t, saved, history.runs[0])

	benchRepo.AssertNumberOfCalls(t, "SaveBenchmark", len(benchmarkKinds))
	jobRepo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestDefaultTaskProcessor_Process_LoadFailure(t *testing.T) {
	store := &rmmtmock.MockStorage{}
	jobRepo := &rmmtmock.MockBuildJobRepository{}
	logger := utils.NewDefaultLogger(utils.LevelError, io.Discard)

	store.ExpectDownload("inputs/missing.bp", nil, fmt.Errorf("no such key"))
	jobRepo.On("UpdateJobStatusWithInfo", mock.Anything, int64(2), model.BuildStatusFailed, mock.Anything).Return(nil)

	p := NewDefaultTaskProcessor(&ProcessorConfig{
		Config:  &config.Config{},
		Storage: store,
		Repos:   &repository.Repositories{BuildJob: jobRepo},
		Logger:  logger,
	})

	// The failure is recorded on the job, not propagated, so the scheduler
	// keeps polling for other pending work.
	err := p.Process(context.Background(), &Task{ID: 2, JobUUID: "job-2", InputKey: "inputs/missing.bp", Workers: 2})
	require.NoError(t, err)

	jobRepo.AssertExpectations(t)
}

func TestDefaultTaskProcessor_Process_ShortInputFailsJob(t *testing.T) {
	store := &rmmtmock.MockStorage{}
	jobRepo := &rmmtmock.MockBuildJobRepository{}
	logger := utils.NewDefaultLogger(utils.LevelError, io.Discard)

	// 6 bits <= the chunk size; construction must reject it.
	store.ExpectDownload("inputs/tiny.bp", io.NopCloser(strings.NewReader("(()())")), nil)
	jobRepo.On("UpdateJobStatusWithInfo", mock.Anything, int64(3), model.BuildStatusFailed, mock.Anything).Return(nil)

	p := NewDefaultTaskProcessor(&ProcessorConfig{
		Config:  &config.Config{},
		Storage: store,
		Repos:   &repository.Repositories{BuildJob: jobRepo},
		Logger:  logger,
	})

	err := p.Process(context.Background(), &Task{ID: 3, JobUUID: "job-3", InputKey: "inputs/tiny.bp", Workers: 2})
	require.NoError(t, err)

	jobRepo.AssertExpectations(t)
}
