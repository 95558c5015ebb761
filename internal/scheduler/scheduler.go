// Package scheduler polls for pending build jobs and dispatches them to a
// bounded worker pool.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/succinctlab/rmmt/internal/repository"
	"github.com/succinctlab/rmmt/pkg/config"
	"github.com/succinctlab/rmmt/pkg/model"
	"github.com/succinctlab/rmmt/pkg/utils"
)

// Task is the scheduler's in-flight representation of a BuildJob.
type Task struct {
	ID       int64
	JobUUID  string
	InputKey string
	Workers  int
}

// TaskProcessor executes a single build task.
type TaskProcessor interface {
	Process(ctx context.Context, task *Task) error
}

// SchedulerConfig configures polling cadence and worker concurrency.
type SchedulerConfig struct {
	PollInterval time.Duration
	WorkerCount  int
	JobBatchSize int
}

// DefaultSchedulerConfig returns sane defaults for local development.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval: 2 * time.Second,
		WorkerCount:  5,
		JobBatchSize: 10,
	}
}

// FromConfig adapts a config.SchedulerConfig into a SchedulerConfig.
func FromConfig(cfg *config.SchedulerConfig) *SchedulerConfig {
	if cfg == nil {
		return DefaultSchedulerConfig()
	}
	return &SchedulerConfig{
		PollInterval: time.Duration(cfg.PollInterval) * time.Second,
		WorkerCount:  cfg.WorkerCount,
		JobBatchSize: cfg.JobBatchSize,
	}
}

// Scheduler polls repository.BuildJobRepository for pending jobs, locks
// them, and dispatches each to processor through a bounded worker pool.
type Scheduler struct {
	config    *SchedulerConfig
	processor TaskProcessor
	jobRepo   repository.BuildJobRepository
	logger    utils.Logger

	workerPool chan struct{}
	taskQueue  chan *Task
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
	stopCh     chan struct{}
}

// New creates a Scheduler. A nil config selects DefaultSchedulerConfig.
func New(cfg *SchedulerConfig, jobRepo repository.BuildJobRepository, processor TaskProcessor, logger utils.Logger) *Scheduler {
	if cfg == nil {
		cfg = DefaultSchedulerConfig()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Scheduler{
		config:     cfg,
		processor:  processor,
		jobRepo:    jobRepo,
		logger:     logger,
		workerPool: make(chan struct{}, cfg.WorkerCount),
		taskQueue:  make(chan *Task, cfg.WorkerCount*2),
		stopCh:     make(chan struct{}),
	}
}

// Start initializes the worker pool and begins polling for pending jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.mu.Unlock()

	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerPool <- struct{}{}
	}

	s.wg.Add(1)
	go s.pollLoop(ctx)

	s.wg.Add(1)
	go s.dispatchLoop(ctx)

	s.logger.Info("scheduler started with %d workers, poll interval %s", s.config.WorkerCount, s.config.PollInterval)
	return nil
}

// Stop signals the scheduler to stop and waits for in-flight goroutines to
// drain.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
}

// pollLoop periodically fetches pending jobs, locks each one, and enqueues
// the ones it wins the lock race for.
func (s *Scheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *Scheduler) pollOnce(ctx context.Context) {
	jobs, err := s.jobRepo.GetPendingJobs(ctx, s.config.JobBatchSize)
	if err != nil {
		s.logger.Error("failed to fetch pending jobs: %v", err)
		return
	}

	for _, job := range jobs {
		locked, err := s.jobRepo.LockJobForBuild(ctx, job.ID)
		if err != nil {
			s.logger.Error("failed to lock job %s: %v", job.JobUUID, err)
			continue
		}
		if !locked {
			continue
		}

		task := taskFromModel(job)
		select {
		case s.taskQueue <- task:
		default:
			s.logger.Warn("task queue full, dropping job %s until next poll", task.JobUUID)
			if uerr := s.jobRepo.UpdateJobStatus(ctx, job.ID, model.BuildStatusPending); uerr != nil {
				s.logger.Error("failed to release job %s after full queue: %v", task.JobUUID, uerr)
			}
		}
	}
}

// dispatchLoop pulls queued tasks and hands each to a free worker slot.
func (s *Scheduler) dispatchLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case task := <-s.taskQueue:
			select {
			case <-s.workerPool:
				s.wg.Add(1)
				go s.processTask(ctx, task)
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}
}

func (s *Scheduler) processTask(ctx context.Context, task *Task) {
	defer s.wg.Done()
	defer func() { s.workerPool <- struct{}{} }()

	if err := s.processor.Process(ctx, task); err != nil {
		s.logger.Error("job %s failed: %v", task.JobUUID, err)
	}
}

// Stats reports the scheduler's current worker occupancy.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	return SchedulerStats{
		ActiveWorkers: s.config.WorkerCount - len(s.workerPool),
		TotalWorkers:  s.config.WorkerCount,
		QueuedTasks:   len(s.taskQueue),
		Running:       running,
	}
}

// SchedulerStats summarizes worker-pool occupancy.
type SchedulerStats struct {
	ActiveWorkers int
	TotalWorkers  int
	QueuedTasks   int
	Running       bool
}

func taskFromModel(job *model.BuildJob) *Task {
	return &Task{
		ID:       job.ID,
		JobUUID:  job.JobUUID,
		InputKey: job.InputKey,
		Workers:  job.Workers,
	}
}
