package rmmt

import (
	"context"
	"runtime"

	"github.com/succinctlab/rmmt/pkg/bitarray"
	"github.com/succinctlab/rmmt/pkg/collections"
	"github.com/succinctlab/rmmt/pkg/errors"
	"github.com/succinctlab/rmmt/pkg/lookup"
	"github.com/succinctlab/rmmt/pkg/parallel"
)

// boundaryPool supplies the pair of worker-count-sized int16 scratch slices
// Stage 2.2 needs (per-worker boundary excess and its exclusive prefix),
// so repeated Build calls against the same process don't pay for a fresh
// allocation every time.
var boundaryPool = collections.NewSlicePool[int16](64)

// growInt16 returns a zero-filled slice of length n backed by *s, growing
// the backing array if its pooled capacity is too small. *s is updated in
// place so the caller's deferred Put reclaims the (possibly reallocated)
// backing array.
func growInt16(s *[]int16, n int) []int16 {
	if cap(*s) < n {
		*s = make([]int16, n)
		return *s
	}
	*s = (*s)[:n]
	for i := range *s {
		(*s)[i] = 0
	}
	return *s
}

// BuildOptions configures a Build call.
type BuildOptions struct {
	// Workers is the number of fork-join workers used for construction.
	// Zero or negative selects runtime.NumCPU(), clamped to NumChunks.
	Workers int
}

// Build constructs a Tree from an owned bitstring, running the
// three-stage parallel construction algorithm described by the rmMt
// design: a local per-worker chunk scan, a global prefix fix-up of
// worker boundaries, and a bottom-up summary-tree aggregation.
//
// The returned Tree takes ownership of b; callers must not mutate b
// afterwards.
func Build(ctx context.Context, b *bitarray.BitArray, opts BuildOptions) (*Tree, error) {
	n := b.Len()
	numChunks, height, internalNodes, err := deriveLayout(n)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numChunks {
		workers = numChunks
	}
	if workers < 1 {
		workers = 1
	}

	t := &Tree{
		n:             n,
		numChunks:     numChunks,
		height:        height,
		internalNodes: internalNodes,
		ePrime:        make([]int16, numChunks),
		mPrime:        make([]int16, internalNodes+numChunks),
		MPrime:        make([]int16, internalNodes+numChunks),
		nPrime:        make([]int16, internalNodes+numChunks),
		bits:          b,
		tables:        lookup.Get(),
	}

	cfg := parallel.DefaultPoolConfig().WithWorkers(workers)
	cpt := (numChunks + workers - 1) / workers

	if err := t.stage1LocalScan(ctx, cfg, workers, cpt); err != nil {
		return nil, errors.Wrap(errors.CodeBuildCancelled, "construction cancelled during chunk scan", err)
	}
	if err := t.stage2GlobalPrefix(ctx, cfg, workers, cpt); err != nil {
		return nil, errors.Wrap(errors.CodeBuildCancelled, "construction cancelled during prefix fix-up", err)
	}
	if err := t.stage3Aggregate(ctx, cfg, workers); err != nil {
		return nil, errors.Wrap(errors.CodeBuildCancelled, "construction cancelled during aggregation", err)
	}

	return t, nil
}

// stage1LocalScan is Stage 2.1: each worker scans its disjoint range of
// chunks bit by bit, accumulating a worker-local running excess and, per
// chunk, the local min/max/argmin-count.
func (t *Tree) stage1LocalScan(ctx context.Context, cfg parallel.PoolConfig, workers, cpt int) error {
	parallel.ParallelRange(ctx, workers, cfg, func(_ context.Context, worker int) {
		loChunk := worker * cpt
		if loChunk >= t.numChunks {
			return
		}
		hiChunk := loChunk + cpt
		if hiChunk > t.numChunks {
			hiChunk = t.numChunks
		}

		var partialExcess int16
		for c := loChunk; c < hiChunk; c++ {
			lo := c * ChunkSize
			hi := lo + ChunkSize
			if hi > t.n {
				hi = t.n
			}

			var minC, maxC, numMinsC int16
			for i := lo; i < hi; i++ {
				if t.bits.Get(i) == 1 {
					partialExcess++
				} else {
					partialExcess--
				}
				if i == lo {
					minC, maxC, numMinsC = partialExcess, partialExcess, 1
				} else {
					if partialExcess < minC {
						minC, numMinsC = partialExcess, 1
					} else if partialExcess == minC {
						numMinsC++
					}
					if partialExcess > maxC {
						maxC = partialExcess
					}
				}
			}

			t.ePrime[c] = partialExcess
			t.mPrime[t.internalNodes+c] = minC
			t.MPrime[t.internalNodes+c] = maxC
			t.nPrime[t.internalNodes+c] = numMinsC
		}
	})
	return ctx.Err()
}

// stage2GlobalPrefix is Stage 2.2: a corrected exclusive prefix scan over
// per-worker end-of-range excess, applied to every chunk owned by each
// non-first worker. See DESIGN.md for why this replaces the reference
// source's off-by-one sequential pass.
func (t *Tree) stage2GlobalPrefix(ctx context.Context, cfg parallel.PoolConfig, workers, cpt int) error {
	boundarySlot := boundaryPool.Get()
	deltaSlot := boundaryPool.Get()
	defer boundaryPool.Put(boundarySlot)
	defer boundaryPool.Put(deltaSlot)

	boundary := growInt16(boundarySlot, workers)
	delta := growInt16(deltaSlot, workers)

	for w := 0; w < workers; w++ {
		lo := w * cpt
		if lo >= t.numChunks {
			continue
		}
		hi := lo + cpt
		if hi > t.numChunks {
			hi = t.numChunks
		}
		boundary[w] = t.ePrime[hi-1]
	}

	for w := 1; w < workers; w++ {
		delta[w] = delta[w-1] + boundary[w-1]
	}

	parallel.ParallelRange(ctx, workers, cfg, func(_ context.Context, w int) {
		if w == 0 || delta[w] == 0 {
			return
		}
		lo := w * cpt
		if lo >= t.numChunks {
			return
		}
		hi := lo + cpt
		if hi > t.numChunks {
			hi = t.numChunks
		}
		d := delta[w]
		for c := lo; c < hi; c++ {
			t.ePrime[c] += d
			t.mPrime[t.internalNodes+c] += d
			t.MPrime[t.internalNodes+c] += d
		}
	})
	return ctx.Err()
}

// stage3Aggregate is Stage 2.3: bottom-up summary aggregation, split into
// a parallel phase over disjoint subtrees down to pLevel, then a
// sequential finish for the top of the tree.
func (t *Tree) stage3Aggregate(ctx context.Context, cfg parallel.PoolConfig, workers int) error {
	pLevel := ceilLog2(workers)
	if pLevel > t.height {
		pLevel = t.height
	}
	numSubtrees := ipow(Arity, pLevel)

	parallel.ParallelRange(ctx, numSubtrees, cfg, func(_ context.Context, u int) {
		for lvl := t.height - 1; lvl >= pLevel; lvl-- {
			numCurrNodes := ipow(Arity, lvl-pLevel)
			levelBase := ipow(Arity, lvl) - 1
			for node := 0; node < numCurrNodes; node++ {
				pos := levelBase + node + u*numCurrNodes
				t.aggregateNode(pos, false)
			}
		}
	})
	if err := ctx.Err(); err != nil {
		return err
	}

	for lvl := pLevel - 1; lvl >= 0; lvl-- {
		numCurrNodes := ipow(Arity, lvl)
		levelBase := ipow(Arity, lvl) - 1
		for node := 0; node < numCurrNodes; node++ {
			pos := levelBase + node
			t.aggregateNode(pos, true)
		}
	}
	return nil
}

// aggregateNode folds the (m', M', n') of pos's children into pos. When
// skipDegenerate is set, children whose m'==M' (an uninitialised, padding
// slot left by a ragged subtree) are skipped rather than folded in.
func (t *Tree) aggregateNode(pos int, skipDegenerate bool) {
	total := t.internalNodes + t.numChunks
	lchild := Arity*pos + 1
	rchild := Arity*pos + Arity

	first := true
	for child := lchild; child <= rchild; child++ {
		if child >= total {
			break
		}
		if skipDegenerate && t.mPrime[child] == t.MPrime[child] {
			continue
		}
		if first {
			t.mPrime[pos] = t.mPrime[child]
			t.MPrime[pos] = t.MPrime[child]
			t.nPrime[pos] = t.nPrime[child]
			first = false
			continue
		}
		if t.mPrime[child] < t.mPrime[pos] {
			t.mPrime[pos] = t.mPrime[child]
			t.nPrime[pos] = t.nPrime[child]
		} else if t.mPrime[child] == t.mPrime[pos] {
			t.nPrime[pos] += t.nPrime[child]
		}
		if t.MPrime[child] > t.MPrime[pos] {
			t.MPrime[pos] = t.MPrime[child]
		}
	}
}
