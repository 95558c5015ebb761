// Package parallel provides the fork-join primitive the rmMt builder
// runs its construction stages on.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// PoolConfig configures how many goroutines a parallel loop may use.
type PoolConfig struct {
	// MaxWorkers is the maximum number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8), raised to at least 2
	MaxWorkers int
}

// DefaultPoolConfig returns a default pool configuration.
func DefaultPoolConfig() PoolConfig {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8 // Cap at 8 to avoid excessive overhead
	}
	if workers < 2 {
		workers = 2
	}
	return PoolConfig{MaxWorkers: workers}
}

// WithWorkers returns a new config with the specified number of workers.
func (c PoolConfig) WithWorkers(n int) PoolConfig {
	c.MaxWorkers = n
	return c
}

// ParallelRange executes fn once for every index in [0,n), using up to
// config.MaxWorkers goroutines, and blocks until all calls have returned.
// It is the fork-join primitive the rmMt builder uses for its stage
// barriers: each index touches disjoint state, so no additional locking
// is required between calls. A cancelled context stops workers from
// picking up further indices; indices already running complete.
func ParallelRange(ctx context.Context, n int, config PoolConfig, fn func(ctx context.Context, idx int)) {
	if n <= 0 {
		return
	}

	workers := config.MaxWorkers
	if workers <= 0 {
		workers = DefaultPoolConfig().MaxWorkers
	}
	if workers > n {
		workers = n
	}

	idxCh := make(chan int, n)
	for i := 0; i < n; i++ {
		idxCh <- i
	}
	close(idxCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range idxCh {
				select {
				case <-ctx.Done():
					return
				default:
					fn(ctx, idx)
				}
			}
		}()
	}
	wg.Wait()
}
