package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/succinctlab/rmmt/pkg/config"
	"github.com/succinctlab/rmmt/pkg/model"
	"github.com/succinctlab/rmmt/pkg/utils"
)

func TestService_New(t *testing.T) {
	cfg := &config.Config{
		Build: config.BuildConfig{
			Version: "1.0.0",
			DataDir: "./test_data",
		},
		Database: config.DatabaseConfig{
			Type: "sqlite",
			Host: "localhost",
		},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: "./test_storage",
		},
		Scheduler: config.SchedulerConfig{
			WorkerCount:  5,
			PollInterval: 2,
			JobBatchSize: 10,
		},
	}

	t.Run("WithLogger", func(t *testing.T) {
		logger := utils.NewDefaultLogger(utils.LevelInfo, nil)
		svc, err := New(cfg, logger)
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.False(t, svc.IsRunning())
	})

	t.Run("WithoutLogger", func(t *testing.T) {
		svc, err := New(cfg, nil)
		require.NoError(t, err)
		require.NotNil(t, svc)
	})
}

func TestService_Stats(t *testing.T) {
	cfg := &config.Config{
		Build: config.BuildConfig{
			Version: "1.0.0",
		},
		Database: config.DatabaseConfig{
			Type: "sqlite",
			Host: "localhost",
		},
		Storage: config.StorageConfig{
			Type: "local",
		},
		Scheduler: config.SchedulerConfig{
			WorkerCount: 5,
		},
	}

	svc, err := New(cfg, nil)
	require.NoError(t, err)

	stats := svc.Stats()
	assert.False(t, stats.Running)
}

func TestServiceStats_JSON(t *testing.T) {
	stats := ServiceStats{
		Running: true,
	}
	assert.True(t, stats.Running)
}

func TestService_RecentBuilds_EmptyBeforeInit(t *testing.T) {
	cfg := &config.Config{
		Build: config.BuildConfig{Version: "1.0.0"},
	}
	svc, err := New(cfg, nil)
	require.NoError(t, err)

	assert.Nil(t, svc.RecentBuilds())
}

func TestBuildHistory_RecordAndEvict(t *testing.T) {
	h := newBuildHistory(2)

	h.Record(&model.BuildRun{JobUUID: "a"})
	h.Record(&model.BuildRun{JobUUID: "b"})
	h.Record(&model.BuildRun{JobUUID: "c"})

	recent := h.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].JobUUID)
	assert.Equal(t, "c", recent[1].JobUUID)
}

func TestNewBuildHistory_DefaultCapacity(t *testing.T) {
	h := newBuildHistory(0)
	assert.Equal(t, defaultHistorySize, h.buf.Cap())
}

func TestService_HealthCheck_NoComponents(t *testing.T) {
	cfg := &config.Config{
		Build: config.BuildConfig{
			Version: "1.0.0",
		},
		Database: config.DatabaseConfig{
			Type: "sqlite",
			Host: "localhost",
		},
		Storage: config.StorageConfig{
			Type: "local",
		},
		Scheduler: config.SchedulerConfig{
			WorkerCount: 5,
		},
	}

	svc, err := New(cfg, nil)
	require.NoError(t, err)

	// HealthCheck should not fail when components are not initialized.
	err = svc.HealthCheck(context.Background())
	assert.NoError(t, err)
}
