package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/succinctlab/rmmt/internal/repository"
	"github.com/succinctlab/rmmt/pkg/model"
	"github.com/succinctlab/rmmt/pkg/rmmt"
)

// QueryBenchmarkRunner replays random batches of navigation queries against
// a built Tree and records the observed latencies as QueryBenchmark rows.
type QueryBenchmarkRunner struct {
	repo repository.QueryBenchmarkRepository
	rng  *rand.Rand
}

// NewQueryBenchmarkRunner creates a QueryBenchmarkRunner backed by repo.
func NewQueryBenchmarkRunner(repo repository.QueryBenchmarkRepository) *QueryBenchmarkRunner {
	return &QueryBenchmarkRunner{
		repo: repo,
		rng:  rand.New(rand.NewSource(1)),
	}
}

// Run samples count random queries of kind against t, saves the resulting
// QueryBenchmark against buildRunID, and returns it.
func (r *QueryBenchmarkRunner) Run(ctx context.Context, t *rmmt.Tree, buildRunID int64, kind model.QueryKind, count int) (*model.QueryBenchmark, error) {
	samples := r.sample(t, kind, count)
	qb := model.NewQueryBenchmark(buildRunID, kind, samples)
	if err := r.repo.SaveBenchmark(ctx, qb); err != nil {
		return nil, err
	}
	return qb, nil
}

func (r *QueryBenchmarkRunner) sample(t *rmmt.Tree, kind model.QueryKind, count int) []int64 {
	n := t.Len()
	samples := make([]int64, 0, count)
	for i := 0; i < count; i++ {
		samples = append(samples, timeQuery(t, kind, r.rng, n))
	}
	return samples
}

func timeQuery(t *rmmt.Tree, kind model.QueryKind, rng *rand.Rand, n int) int64 {
	if n == 0 {
		return 0
	}
	i := rng.Intn(n)

	start := time.Now()
	switch kind {
	case model.QueryKindSum:
		t.Sum(i)
	case model.QueryKindFwdSearch:
		t.FwdSearch(i, -1)
	case model.QueryKindBwdSearch:
		t.BwdSearch(i, -1)
	case model.QueryKindFindClose:
		if t.Bit(i) == 1 {
			t.FindClose(i)
		}
	case model.QueryKindFindOpen:
		if t.Bit(i) == 0 {
			t.FindOpen(i)
		}
	case model.QueryKindRank0:
		t.Rank0(i)
	case model.QueryKindRank1:
		t.Rank1(i)
	case model.QueryKindSelect0:
		t.Select0(i % (n/2 + 1))
	case model.QueryKindSelect1:
		t.Select1(i % (n/2 + 1))
	}
	return time.Since(start).Nanoseconds()
}
