package rmmt

import "testing"

// S2: a balanced sequence of length 520, 260 opens followed by 260 closes.
func TestScenarioS2(t *testing.T) {
	tr := mustBuild(openThenClose(260), 4)

	if got := tr.Sum(259); got != 260 {
		t.Errorf("Sum(259) = %d, want 260", got)
	}
	if got := tr.Sum(519); got != 0 {
		t.Errorf("Sum(519) = %d, want 0", got)
	}
	if got := tr.FindClose(0); got != 519 {
		t.Errorf("FindClose(0) = %d, want 519", got)
	}
	if got := tr.FindClose(1); got != 518 {
		t.Errorf("FindClose(1) = %d, want 518", got)
	}
	if got := tr.FindOpen(519); got != 0 {
		t.Errorf("FindOpen(519) = %d, want 0", got)
	}
	if got := tr.Rank1(519); got != 260 {
		t.Errorf("Rank1(519) = %d, want 260", got)
	}
	if got := tr.Rank0(519); got != 260 {
		t.Errorf("Rank0(519) = %d, want 260", got)
	}
	if got := tr.Select1(1); got != 0 {
		t.Errorf("Select1(1) = %d, want 0", got)
	}
	if got := tr.Select0(1); got != 260 {
		t.Errorf("Select0(1) = %d, want 260", got)
	}
}

// S3: n=520, 130 nested pairs followed by flat pairs. find_close on every
// opener must match the brute-force matcher.
func TestScenarioS3(t *testing.T) {
	b := nestedThenFlat(130, 520)
	tr := mustBuild(b, 4)

	for i := 0; i < tr.Len(); i++ {
		if tr.Bit(i) != 1 {
			continue
		}
		want := bruteFindClose(b, i)
		if got := tr.FindClose(i); got != want {
			t.Errorf("FindClose(%d) = %d, want %d", i, got, want)
		}
	}
}

// S4: n=1024, a deterministically seeded random balanced sequence. Verify
// invariants 1-6 across all positions.
func TestScenarioS4_Invariants(t *testing.T) {
	b := randomBalanced(1024, 7)
	tr := mustBuild(b, 4)
	n := tr.Len()

	// Invariant 1: balanced.
	if got := tr.Sum(n - 1); got != 0 {
		t.Errorf("invariant 1: Sum(n-1) = %d, want 0", got)
	}

	// Invariant 2: Sum(i) >= 0 everywhere.
	for i := 0; i < n; i++ {
		if got := tr.Sum(i); got < 0 {
			t.Errorf("invariant 2: Sum(%d) = %d, want >= 0", i, got)
		}
	}

	for i := 0; i < n; i++ {
		if tr.Bit(i) == 1 {
			// Invariant 3.
			close := tr.FindClose(i)
			if close < 0 {
				t.Errorf("invariant 3: FindClose(%d) returned -1", i)
				continue
			}
			if tr.Bit(close) != 0 {
				t.Errorf("invariant 3: Bit(FindClose(%d)=%d) = %d, want 0", i, close, tr.Bit(close))
			}
			if tr.Sum(close) != tr.Sum(i)-1 {
				t.Errorf("invariant 3: Sum(FindClose(%d)=%d) = %d, want %d", i, close, tr.Sum(close), tr.Sum(i)-1)
			}
			// Invariant 4 (open->close->open round trip).
			if back := tr.FindOpen(close); back != i {
				t.Errorf("invariant 4: FindOpen(FindClose(%d)=%d) = %d, want %d", i, close, back, i)
			}
		} else {
			open := tr.FindOpen(i)
			if open < 0 {
				t.Errorf("invariant 4: FindOpen(%d) returned -1", i)
				continue
			}
			if fc := tr.FindClose(open); fc != i {
				t.Errorf("invariant 4: FindClose(FindOpen(%d)=%d) = %d, want %d", i, open, fc, i)
			}
		}

		// Invariant 5.
		if got := tr.Rank1(i) + tr.Rank0(i); got != i+1 {
			t.Errorf("invariant 5: Rank1(%d)+Rank0(%d) = %d, want %d", i, i, got, i+1)
		}

		// Invariant 6.
		if tr.Bit(i) == 1 {
			if got := tr.Select1(tr.Rank1(i)); got != i {
				t.Errorf("invariant 6: Select1(Rank1(%d)) = %d, want %d", i, got, i)
			}
		} else {
			if got := tr.Select0(tr.Rank0(i)); got != i {
				t.Errorf("invariant 6: Select0(Rank0(%d)) = %d, want %d", i, got, i)
			}
		}
	}
}

// S5: n=4096, a chain of 2048 opens then 2048 closes. find_close(i) =
// 4095-i for i < 2048.
func TestScenarioS5(t *testing.T) {
	tr := mustBuild(openThenClose(2048), 8)
	for i := 0; i < 2048; i++ {
		want := 4095 - i
		if got := tr.FindClose(i); got != want {
			t.Errorf("FindClose(%d) = %d, want %d", i, got, want)
		}
	}
}

// S6: worker-count sweep on S4's input; queries must agree regardless of
// how many workers built the tree.
func TestScenarioS6_QueriesAgreeAcrossWorkerCounts(t *testing.T) {
	base := randomBalanced(1024, 7)
	workerCounts := []int{1, 2, 3, 5, 8}

	var trees []*Tree
	for _, p := range workerCounts {
		trees = append(trees, mustBuild(cloneBits(base), p))
	}

	n := trees[0].Len()
	for i := 0; i < n; i++ {
		want := trees[0].FindClose(i)
		for k := 1; k < len(trees); k++ {
			if got := trees[k].FindClose(i); got != want {
				t.Errorf("workers=%d: FindClose(%d) = %d, want %d", workerCounts[k], i, got, want)
			}
		}
	}
}

// Five chunks leave the level-order summary tree ragged: one internal node
// covers no chunk at all. Searches that route past it must treat it as
// empty rather than reading past the arrays or matching its zeroed range.
func TestFwdSearch_RaggedSummaryTree(t *testing.T) {
	b := openThenClose(640) // n=1280, numChunks=5
	tr := mustBuild(b, 4)

	if tr.numChunks != 5 {
		t.Fatalf("numChunks = %d, want 5", tr.numChunks)
	}

	// target-1 = 0 from the last chunk routes the ascent toward the ragged
	// right edge; no position after n-1 exists, so the answer is -1.
	if got := tr.FwdSearch(1279, 1); got != -1 {
		t.Errorf("FwdSearch(1279, 1) = %d, want -1", got)
	}

	for i := 0; i < 640; i++ {
		want := 1279 - i
		if got := tr.FindClose(i); got != want {
			t.Errorf("FindClose(%d) = %d, want %d", i, got, want)
		}
	}

	mixed := randomBalanced(1280, 11)
	tr2 := mustBuild(mixed, 3)
	for i := 0; i < tr2.Len(); i++ {
		if tr2.Bit(i) != 1 {
			continue
		}
		want := bruteFindClose(mixed, i)
		if got := tr2.FindClose(i); got != want {
			t.Errorf("random input: FindClose(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestSum_OutOfRange(t *testing.T) {
	tr := mustBuild(openThenClose(260), 1)
	if got := tr.Sum(-1); got != -1 {
		t.Errorf("Sum(-1) = %d, want -1", got)
	}
	if got := tr.Sum(tr.Len()); got != -1 {
		t.Errorf("Sum(n) = %d, want -1", got)
	}
}

func TestFindClose_RejectsNonOpen(t *testing.T) {
	tr := mustBuild(openThenClose(260), 1)
	if got := tr.FindClose(519); got != -1 {
		t.Errorf("FindClose on a close bit = %d, want -1", got)
	}
}

func TestFindOpen_RejectsNonClose(t *testing.T) {
	tr := mustBuild(openThenClose(260), 1)
	if got := tr.FindOpen(0); got != -1 {
		t.Errorf("FindOpen on an open bit = %d, want -1", got)
	}
}
