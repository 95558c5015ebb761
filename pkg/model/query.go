package model

import "time"

// QueryKind enumerates the navigation primitives exposed by rmmt.Tree that
// can be recorded as a QueryBenchmark.
type QueryKind int

const (
	QueryKindSum QueryKind = iota
	QueryKindFwdSearch
	QueryKindBwdSearch
	QueryKindFindClose
	QueryKindFindOpen
	QueryKindRank0
	QueryKindRank1
	QueryKindSelect0
	QueryKindSelect1
)

// String returns the string representation of QueryKind.
func (k QueryKind) String() string {
	switch k {
	case QueryKindSum:
		return "sum"
	case QueryKindFwdSearch:
		return "fwd_search"
	case QueryKindBwdSearch:
		return "bwd_search"
	case QueryKindFindClose:
		return "find_close"
	case QueryKindFindOpen:
		return "find_open"
	case QueryKindRank0:
		return "rank_0"
	case QueryKindRank1:
		return "rank_1"
	case QueryKindSelect0:
		return "select_0"
	case QueryKindSelect1:
		return "select_1"
	default:
		return "unknown"
	}
}

// QueryBenchmark records the measured latency of one batch of navigation
// queries run against a specific BuildRun, for tracking regressions across
// worker counts and input sizes.
type QueryBenchmark struct {
	ID              int64     `json:"id" db:"id"`
	BuildRunID      int64     `json:"build_run_id" db:"build_run_id"`
	Kind            QueryKind `json:"kind" db:"kind"`
	SampleCount     int       `json:"sample_count" db:"sample_count"`
	TotalNanos      int64     `json:"total_nanos" db:"total_nanos"`
	MinNanos        int64     `json:"min_nanos" db:"min_nanos"`
	MaxNanos        int64     `json:"max_nanos" db:"max_nanos"`
	CreateTime      time.Time `json:"create_time" db:"create_time"`
}

// AverageNanos returns the mean per-query latency, or 0 if no samples were
// recorded.
func (q *QueryBenchmark) AverageNanos() float64 {
	if q.SampleCount == 0 {
		return 0
	}
	return float64(q.TotalNanos) / float64(q.SampleCount)
}

// NewQueryBenchmark summarizes a slice of per-query durations (in
// nanoseconds) into a QueryBenchmark for kind against buildRunID.
func NewQueryBenchmark(buildRunID int64, kind QueryKind, samplesNanos []int64) *QueryBenchmark {
	qb := &QueryBenchmark{
		BuildRunID:  buildRunID,
		Kind:        kind,
		SampleCount: len(samplesNanos),
		CreateTime:  time.Now(),
	}
	for i, v := range samplesNanos {
		qb.TotalNanos += v
		if i == 0 || v < qb.MinNanos {
			qb.MinNanos = v
		}
		if v > qb.MaxNanos {
			qb.MaxNanos = v
		}
	}
	return qb
}
