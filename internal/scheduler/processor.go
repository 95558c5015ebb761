package scheduler

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/succinctlab/rmmt/internal/loader"
	"github.com/succinctlab/rmmt/internal/repository"
	"github.com/succinctlab/rmmt/internal/storage"
	"github.com/succinctlab/rmmt/pkg/config"
	"github.com/succinctlab/rmmt/pkg/model"
	"github.com/succinctlab/rmmt/pkg/rmmt"
	"github.com/succinctlab/rmmt/pkg/utils"
)

var tracer = otel.Tracer("rmmt-build-service")

// BuildHistory receives a notification for each successfully completed
// build run, independent of its persistence to the repository layer. The
// service layer implements this with an in-memory recent-build cache.
type BuildHistory interface {
	Record(run *model.BuildRun)
}

// DefaultTaskProcessor implements TaskProcessor by loading the job's input
// bitstring from storage, running the rmMt construction algorithm, and
// recording the resulting BuildRun.
type DefaultTaskProcessor struct {
	config  *config.Config
	storage storage.Storage
	loader  loader.Loader
	repos   *repository.Repositories
	history BuildHistory
	bench   *QueryBenchmarkRunner
	logger  utils.Logger
}

// ProcessorConfig holds the dependencies needed to build a DefaultTaskProcessor.
type ProcessorConfig struct {
	Config  *config.Config
	Storage storage.Storage
	Loader  loader.Loader
	Repos   *repository.Repositories
	// History, if set, is notified of every build run this processor
	// completes, alongside the repository write.
	History BuildHistory
	Logger  utils.Logger
}

// NewDefaultTaskProcessor creates a new DefaultTaskProcessor.
func NewDefaultTaskProcessor(cfg *ProcessorConfig) *DefaultTaskProcessor {
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}
	l := cfg.Loader
	if l == nil {
		l = loader.NewFileLoader(cfg.Logger)
	}

	p := &DefaultTaskProcessor{
		config:  cfg.Config,
		storage: cfg.Storage,
		loader:  l,
		repos:   cfg.Repos,
		history: cfg.History,
		logger:  cfg.Logger,
	}
	if cfg.Repos != nil && cfg.Repos.QueryBenchmark != nil {
		p.bench = NewQueryBenchmarkRunner(cfg.Repos.QueryBenchmark)
	}
	return p
}

// Process loads task's input, constructs the rmMt index, and persists a
// BuildRun recording the outcome. Construction failures are recorded on the
// job (status failed, with a reason) rather than propagated, so the
// scheduler keeps polling for other pending jobs; only repository errors
// that prevent recording the outcome are returned.
func (p *DefaultTaskProcessor) Process(ctx context.Context, task *Task) error {
	p.logger.Info("starting build for job %s (input %s, workers %d)", task.JobUUID, task.InputKey, task.Workers)

	ctx, span := tracer.Start(ctx, "rmmt.build", trace.WithAttributes(
		attribute.String("job.uuid", task.JobUUID),
		attribute.Int("workers", task.Workers),
	))
	defer span.End()

	timer := utils.NewTimer("build."+task.JobUUID, utils.WithLogger(p.logger))
	start := time.Now()

	_, loadSpan := tracer.Start(ctx, "rmmt.build.load")
	loadPhase := timer.Start("load")
	bits, err := storage.LoadBitstring(ctx, p.storage, task.InputKey, p.loader)
	loadPhase.Stop()
	if err != nil {
		loadSpan.RecordError(err)
		loadSpan.SetStatus(codes.Error, "load failed")
		loadSpan.End()
		span.SetStatus(codes.Error, "load failed")
		return p.fail(ctx, task, fmt.Sprintf("failed to load input: %v", err))
	}
	loadSpan.SetAttributes(attribute.Int("bits.n", bits.Len()))
	loadSpan.End()

	var memBefore runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	_, constructSpan := tracer.Start(ctx, "rmmt.build.construct", trace.WithAttributes(
		attribute.Int("n", bits.Len()),
	))
	constructPhase := timer.Start("construct")
	tree, err := rmmt.Build(ctx, bits, rmmt.BuildOptions{Workers: task.Workers})
	constructPhase.Stop()
	if err != nil {
		constructSpan.RecordError(err)
		constructSpan.SetStatus(codes.Error, "construction failed")
		constructSpan.End()
		span.SetStatus(codes.Error, "construction failed")
		return p.fail(ctx, task, fmt.Sprintf("construction failed: %v", err))
	}
	constructSpan.SetAttributes(
		attribute.Int("chunks", tree.NumChunks()),
		attribute.Int("height", tree.Height()),
	)
	constructSpan.End()

	var memAfter runtime.MemStats
	runtime.ReadMemStats(&memAfter)
	peakMemory := int64(memAfter.TotalAlloc - memBefore.TotalAlloc)
	if peakMemory < 0 {
		peakMemory = 0
	}

	duration := time.Since(start)
	p.logger.Debug("job %s phase timing: load %s, construct %s", task.JobUUID,
		timer.GetDuration("load"), timer.GetDuration("construct"))

	job := &model.BuildJob{ID: task.ID, JobUUID: task.JobUUID, InputKey: task.InputKey, Workers: task.Workers}
	run := model.NewBuildRun(job, tree.Len(), tree.NumChunks(), tree.Height(), duration, peakMemory)
	run.SummaryStats = map[string]float64{
		"load_seconds":      timer.GetDuration("load").Seconds(),
		"construct_seconds": timer.GetDuration("construct").Seconds(),
		"max_excess":        float64(tree.MaxExcess()),
		"min_excess_count":  float64(tree.MinExcessCount()),
	}

	if err := p.repos.BuildRun.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to save build run: %w", err)
	}

	if err := p.repos.BuildJob.UpdateJobStatus(ctx, task.ID, model.BuildStatusCompleted); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	if p.history != nil {
		p.history.Record(run)
	}

	p.runBenchmarks(ctx, tree, run.ID)

	p.logger.Info("job %s completed in %s (%d chunks, height %d)", task.JobUUID, duration, tree.NumChunks(), tree.Height())
	return nil
}

// benchmarkKinds are the navigation primitives sampled after each
// successful build when build.benchmark_samples is nonzero.
var benchmarkKinds = []model.QueryKind{
	model.QueryKindSum,
	model.QueryKindFindClose,
	model.QueryKindRank1,
	model.QueryKindSelect1,
}

// runBenchmarks samples query latencies against the freshly built tree and
// records them against buildRunID. Benchmark failures are logged, never
// propagated: the build itself already succeeded.
func (p *DefaultTaskProcessor) runBenchmarks(ctx context.Context, tree *rmmt.Tree, buildRunID int64) {
	if p.bench == nil || buildRunID == 0 || p.config == nil {
		return
	}
	samples := p.config.Build.BenchmarkSamples
	if samples <= 0 {
		return
	}
	for _, kind := range benchmarkKinds {
		if _, err := p.bench.Run(ctx, tree, buildRunID, kind, samples); err != nil {
			p.logger.Warn("failed to record %s benchmark for run %d: %v", kind, buildRunID, err)
		}
	}
}

// fail records a construction failure on the job and returns nil so the
// scheduler does not log a second, redundant error for the same job.
func (p *DefaultTaskProcessor) fail(ctx context.Context, task *Task, reason string) error {
	p.logger.Error("job %s failed: %s", task.JobUUID, reason)
	if err := p.repos.BuildJob.UpdateJobStatusWithInfo(ctx, task.ID, model.BuildStatusFailed, reason); err != nil {
		return fmt.Errorf("failed to record job failure: %w", err)
	}
	return nil
}
