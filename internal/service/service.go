// Package service wires configuration, storage, the repository layer, and
// the scheduler into a single runnable application component.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/succinctlab/rmmt/internal/loader"
	"github.com/succinctlab/rmmt/internal/repository"
	"github.com/succinctlab/rmmt/internal/scheduler"
	"github.com/succinctlab/rmmt/internal/storage"
	"github.com/succinctlab/rmmt/pkg/collections"
	"github.com/succinctlab/rmmt/pkg/config"
	"github.com/succinctlab/rmmt/pkg/model"
	"github.com/succinctlab/rmmt/pkg/telemetry"
	"github.com/succinctlab/rmmt/pkg/utils"
)

// defaultHistorySize is used when config.Build.HistorySize is unset.
const defaultHistorySize = 64

// buildHistory is a concurrency-safe, fixed-capacity cache of the most
// recently completed BuildRuns, evicting the oldest entry once full. It
// implements scheduler.BuildHistory.
type buildHistory struct {
	mu  sync.Mutex
	buf *collections.RingBuffer[*model.BuildRun]
}

func newBuildHistory(capacity int) *buildHistory {
	if capacity <= 0 {
		capacity = defaultHistorySize
	}
	return &buildHistory{buf: collections.NewRingBuffer[*model.BuildRun](capacity)}
}

// Record appends run to the history, evicting the oldest entry if full.
func (h *buildHistory) Record(run *model.BuildRun) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf.PushEvict(run)
}

// Recent returns the cached runs in oldest-to-newest order.
func (h *buildHistory) Recent() []*model.BuildRun {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.Snapshot()
}

// Service is the main application service.
type Service struct {
	config    *config.Config
	logger    utils.Logger
	db        *repository.Repositories
	storage   storage.Storage
	scheduler *scheduler.Scheduler
	history   *buildHistory

	otelShutdown telemetry.ShutdownFunc
	running      bool
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

// Initialize initializes all service components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	shutdown, err := telemetry.Init(ctx)
	if err != nil {
		s.logger.Error("Failed to initialize telemetry, continuing without tracing: %v", err)
		shutdown = func(context.Context) error { return nil }
	}
	s.otelShutdown = shutdown

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := s.initScheduler(); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	s.logger.Info("Service components initialized successfully")
	return nil
}

// initDatabase initializes the database connection and repositories.
func (s *Service) initDatabase() error {
	s.logger.Info("Connecting to database (%s)...", s.config.Database.Type)

	dbConfig := &repository.DBConfig{
		Type:     s.config.Database.Type,
		Host:     s.config.Database.Host,
		Port:     s.config.Database.Port,
		Database: s.config.Database.Database,
		User:     s.config.Database.User,
		Password: s.config.Database.Password,
		MaxConns: s.config.Database.MaxConns,
	}

	gormDB, err := repository.NewGormDB(dbConfig)
	if err != nil {
		return err
	}

	s.db = repository.NewRepositories(gormDB, s.config.Database.Type, s.config.Build.Version)
	s.logger.Info("Database connection established")

	return nil
}

// initStorage initializes the object storage.
func (s *Service) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")

	return nil
}

// initScheduler initializes the job scheduler.
func (s *Service) initScheduler() error {
	s.logger.Info("Initializing scheduler...")

	s.history = newBuildHistory(s.config.Build.HistorySize)

	processorConfig := &scheduler.ProcessorConfig{
		Config:  s.config,
		Storage: s.storage,
		Loader:  loader.NewFileLoader(s.logger),
		Repos:   s.db,
		History: s.history,
		Logger:  s.logger,
	}
	processor := scheduler.NewDefaultTaskProcessor(processorConfig)

	schedulerConfig := scheduler.FromConfig(&s.config.Scheduler)
	s.scheduler = scheduler.New(schedulerConfig, s.db.BuildJob, processor, s.logger)

	s.logger.Info("Scheduler initialized")
	return nil
}

// Start starts the service.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting service...")

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	s.running = true
	s.logger.Info("Service started successfully")

	return nil
}

// Stop stops the service gracefully.
func (s *Service) Stop() error {
	s.logger.Info("Stopping service...")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
		}
	}

	if s.otelShutdown != nil {
		if err := s.otelShutdown(context.Background()); err != nil {
			s.logger.Error("Failed to shut down telemetry: %v", err)
		}
	}

	s.running = false
	s.logger.Info("Service stopped")

	return nil
}

// IsRunning returns whether the service is running.
func (s *Service) IsRunning() bool {
	return s.running
}

// Repositories returns the service's repository layer, for callers (such as
// the webui status server) that need direct read access alongside the
// running scheduler. Nil before Initialize has run.
func (s *Service) Repositories() *repository.Repositories {
	return s.db
}

// RecentBuilds returns the most recently completed build runs (oldest
// first), up to the configured history cache size. It is populated as the
// scheduler's task processor completes jobs and is empty before
// Initialize has run.
func (s *Service) RecentBuilds() []*model.BuildRun {
	if s.history == nil {
		return nil
	}
	return s.history.Recent()
}

// Stats returns service statistics.
func (s *Service) Stats() ServiceStats {
	stats := ServiceStats{
		Running: s.running,
	}

	if s.scheduler != nil {
		stats.Scheduler = s.scheduler.Stats()
	}

	return stats
}

// HealthCheck performs a health check on the service.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}

	return nil
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	Running   bool                     `json:"running"`
	Scheduler scheduler.SchedulerStats `json:"scheduler"`
}
