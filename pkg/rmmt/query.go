package rmmt

// This file implements the Navarro-Sadakane navigation primitives:
// Sum, FwdSearch, BwdSearch, FindClose, FindOpen, Rank0, Rank1, Select0,
// Select1. All positions are 0-based bit indices; out-of-range or
// not-found results are reported with the sentinel -1.

// Sum returns the excess (depth) at position i: the number of '(' minus
// the number of ')' among bits [0,i]. Returns -1 if i is out of range.
func (t *Tree) Sum(i int) int {
	if i < 0 || i >= t.n {
		return -1
	}
	c := i / ChunkSize
	var excess int
	if c > 0 {
		excess = int(t.ePrime[c-1])
	}
	lo := c * ChunkSize
	rlimit := (i / 8) * 8

	j := lo
	for ; j < rlimit; j += 8 {
		excess += int(t.tables.WordSum[t.bits.Word8(j/8)])
	}
	for ; j <= i; j++ {
		if t.bits.Get(j) == 1 {
			excess++
		} else {
			excess--
		}
	}
	return excess
}

// checkLeafR scans forward from i+1 within i's own chunk looking for the
// first position whose excess equals target-1. Returns i-1 (a sentinel
// meaning "not found in this chunk") if none is found before the chunk
// ends.
func (t *Tree) checkLeafR(i, target int) int {
	chunkEnd := (i/ChunkSize + 1) * ChunkSize
	if chunkEnd > t.n {
		chunkEnd = t.n
	}
	llimit := ((i + 8) / 8) * 8
	if llimit > chunkEnd {
		llimit = chunkEnd
	}
	rlimit := (chunkEnd / 8) * 8
	if rlimit < llimit {
		rlimit = llimit
	}

	excess := t.Sum(i)

	j := i + 1
	for ; j < llimit; j++ {
		if t.bits.Get(j) == 1 {
			excess++
		} else {
			excess--
		}
		if excess == target-1 {
			return j
		}
	}
	for ; j < rlimit; j += 8 {
		byteVal := t.bits.Word8(j / 8)
		desired := target - 1 - excess
		if desired >= -8 && desired <= 8 {
			x := t.tables.NearFwdPos[(desired+8)*256+int(byteVal)]
			if x < 8 {
				return j + int(x)
			}
		}
		excess += int(t.tables.WordSum[byteVal])
	}
	for ; j < chunkEnd; j++ {
		if t.bits.Get(j) == 1 {
			excess++
		} else {
			excess--
		}
		if excess == target-1 {
			return j
		}
	}
	return i - 1
}

// checkSiblingR scans an entire chunk, starting at its first bit, for the
// first position whose excess equals target-1. start must be a
// chunk-aligned bit position. Returns start-1 if no match is found.
func (t *Tree) checkSiblingR(start, target int) int {
	chunk := start / ChunkSize
	var excess int
	if chunk > 0 {
		excess = int(t.ePrime[chunk-1])
	}
	end := start + ChunkSize
	if end > t.n {
		end = t.n
	}
	rlimit := (end / 8) * 8

	j := start
	for ; j < rlimit; j += 8 {
		byteVal := t.bits.Word8(j / 8)
		desired := target - 1 - excess
		if desired >= -8 && desired <= 8 {
			x := t.tables.NearFwdPos[(desired+8)*256+int(byteVal)]
			if x < 8 {
				return j + int(x)
			}
		}
		excess += int(t.tables.WordSum[byteVal])
	}
	for ; j < end; j++ {
		if t.bits.Get(j) == 1 {
			excess++
		} else {
			excess--
		}
		if excess == target-1 {
			return j
		}
	}
	return start - 1
}

// FwdSearch returns the smallest j > i whose excess equals
// Sum(i) + d - 1, or -1 if no such j exists.
func (t *Tree) FwdSearch(i, d int) int {
	if i < 0 || i >= t.n {
		return -1
	}
	target := t.Sum(i) + d
	chunk := i / ChunkSize

	if out := t.checkLeafR(i, target); out > i {
		return out
	}

	if chunk%2 == 0 && chunk+1 < t.numChunks {
		sIdx := t.internalNodes + chunk + 1
		if int(t.mPrime[sIdx]) <= target-1 && target-1 <= int(t.MPrime[sIdx]) {
			start := ChunkSize * (chunk + 1)
			if out := t.checkSiblingR(start, target); out >= start {
				return out
			}
		}
	}

	node := parentOf(t.internalNodes + chunk)
	found := false
	for !isRootNode(node) {
		if isLeftChildNode(node) {
			sib := rightSiblingOf(node)
			if t.coversChunks(sib) && int(t.mPrime[sib]) <= target-1 && target-1 <= int(t.MPrime[sib]) {
				node = sib
				found = true
				break
			}
		}
		node = parentOf(node)
	}
	if !found {
		return -1
	}

	for !t.isLeaf(node) {
		left := leftChildOf(node)
		if int(t.mPrime[left]) <= target-1 && target-1 <= int(t.MPrime[left]) {
			node = left
			continue
		}
		right := rightSiblingOf(left)
		if !t.coversChunks(right) || target-1 < int(t.mPrime[right]) || target-1 > int(t.MPrime[right]) {
			return -1
		}
		node = right
	}

	leafChunk := node - t.internalNodes
	return t.checkSiblingR(ChunkSize*leafChunk, target)
}

// BwdSearch returns the largest j <= i such that the excess just before j
// (Sum(j-1), with Sum(-1) taken as 0) equals Sum(i) + d, or -1 if no such
// j exists. For a closing parenthesis at i, BwdSearch(i, 0) is its
// matching opener. This is the reference naive linear scan (see
// SPEC_FULL.md for why a faster table-driven version was not adopted).
func (t *Tree) BwdSearch(i, d int) int {
	if i < 0 || i >= t.n {
		return -1
	}
	excess := t.Sum(i)
	target := excess + d
	for j := i; j >= 0; j-- {
		if t.bits.Get(j) == 1 {
			excess--
		} else {
			excess++
		}
		if excess == target {
			return j
		}
	}
	return -1
}

// FindClose returns the position of the closing parenthesis matching the
// opening parenthesis at i, or -1 if B[i] is not an opening parenthesis.
func (t *Tree) FindClose(i int) int {
	if i < 0 || i >= t.n || t.bits.Get(i) != 1 {
		return -1
	}
	return t.FwdSearch(i, 0)
}

// FindOpen returns the position of the opening parenthesis matching the
// closing parenthesis at i, or -1 if B[i] is not a closing parenthesis.
func (t *Tree) FindOpen(i int) int {
	if i < 0 || i >= t.n || t.bits.Get(i) != 0 {
		return -1
	}
	return t.BwdSearch(i, 0)
}

// Rank1 returns the number of '(' among bits [0,i].
func (t *Tree) Rank1(i int) int {
	if i < 0 {
		return 0
	}
	if i >= t.n {
		i = t.n - 1
	}
	return (i + 1 + t.Sum(i)) / 2
}

// Rank0 returns the number of ')' among bits [0,i].
func (t *Tree) Rank0(i int) int {
	if i < 0 {
		return 0
	}
	if i >= t.n {
		i = t.n - 1
	}
	return (i + 1 - t.Sum(i)) / 2
}

// Select1 returns the position of the i-th '(' (1-indexed), or -1 if
// there is no such position.
func (t *Tree) Select1(i int) int {
	if i <= 0 {
		return -1
	}
	rlimit := 2*i - 1
	if rlimit >= t.n {
		rlimit = t.n - 1
	}
	var excess, d int
	d = 2*i - 1
	for j := 0; j <= rlimit; j, d = j+1, d-1 {
		if t.bits.Get(j) == 1 {
			excess++
		} else {
			excess--
		}
		if excess == d {
			return j
		}
	}
	return -1
}

// Select0 returns the position of the i-th ')' (1-indexed), or -1 if
// there is no such position.
func (t *Tree) Select0(i int) int {
	if i <= 0 {
		return -1
	}
	start := 2*i - 1
	if start < 0 || start >= t.n {
		return -1
	}
	excess := t.Sum(start)
	rlimit := start + int(t.MPrime[0])
	if rlimit >= t.n {
		rlimit = t.n - 1
	}

	d := 0
	for j := start + 1; j <= rlimit; j, d = j+1, d+1 {
		if excess == d {
			return j - 1
		}
		if t.bits.Get(j) == 1 {
			excess++
		} else {
			excess--
		}
	}
	if excess == d {
		return rlimit
	}
	return -1
}
