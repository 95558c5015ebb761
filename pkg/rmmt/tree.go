// Package rmmt implements a Range Min-Max Tree over a balanced-parentheses
// bitstring: the summary-tree layout, its parallel construction, and the
// Navarro-Sadakane navigation primitives built on top of it.
package rmmt

import (
	"math/bits"

	"github.com/succinctlab/rmmt/pkg/bitarray"
	"github.com/succinctlab/rmmt/pkg/errors"
	"github.com/succinctlab/rmmt/pkg/lookup"
)

const (
	// ChunkSize is the fixed chunk size in bits (s in the spec).
	ChunkSize = 256
	// Arity is the fixed arity of the summary tree (k in the spec).
	Arity = 2
)

// Tree is a read-only, immutable-after-construction Range Min-Max Tree
// over a balanced-parentheses bitstring. The zero value is not usable;
// construct one with Build.
type Tree struct {
	n             int
	numChunks     int
	height        int
	internalNodes int

	ePrime []int16
	mPrime []int16
	MPrime []int16
	nPrime []int16

	bits   *bitarray.BitArray
	tables *lookup.Tables
}

// Len returns the number of bits in the underlying bitstring.
func (t *Tree) Len() int {
	return t.n
}

// NumChunks returns the number of leaf chunks.
func (t *Tree) NumChunks() int {
	return t.numChunks
}

// Height returns the height of the summary tree.
func (t *Tree) Height() int {
	return t.height
}

// InternalNodes returns the number of internal summary-tree nodes.
func (t *Tree) InternalNodes() int {
	return t.internalNodes
}

// Bit returns the raw bit at position i (1 for '(', 0 for ')').
func (t *Tree) Bit(i int) int {
	return t.bits.Get(i)
}

// MaxExcess returns the maximum absolute excess reached anywhere in the
// bitstring (the root's M'), i.e. the deepest nesting level.
func (t *Tree) MaxExcess() int {
	return int(t.MPrime[0])
}

// MinExcessCount returns the number of positions attaining the global
// minimum excess (the root's n').
func (t *Tree) MinExcessCount() int {
	return int(t.nPrime[0])
}

func deriveLayout(n int) (numChunks, height, internalNodes int, err error) {
	if n <= ChunkSize {
		return 0, 0, 0, errors.Wrap(errors.CodeConfigError,
			"input length must exceed the chunk size", nil)
	}
	numChunks = (n + ChunkSize - 1) / ChunkSize
	height = ceilLog2(numChunks)
	internalNodes = (1 << uint(height)) - 1
	return numChunks, height, internalNodes, nil
}

// ceilLog2 returns ceil(log2(x)) for x >= 1, and 0 for x <= 1.
func ceilLog2(x int) int {
	if x <= 1 {
		return 0
	}
	return bits.Len(uint(x - 1))
}

func ipow(base, exp int) int {
	r := 1
	for i := 0; i < exp; i++ {
		r *= base
	}
	return r
}

// --- implicit summary-tree navigation (package-private; mirrors the
// parent/left_child/right_child/is_left_child helpers of the reference
// binary-tree layout, generalised to arity Arity=2). ---

func parentOf(v int) int {
	if v == 0 {
		return 0
	}
	return (v - 1) / Arity
}

func leftChildOf(v int) int {
	return Arity*v + 1
}

func rightSiblingOf(v int) int {
	return v + 1
}

func isRootNode(v int) bool {
	return v == 0
}

func isLeftChildNode(v int) bool {
	if isRootNode(v) {
		return false
	}
	return (v-1)%Arity == 0
}

func (t *Tree) isLeaf(v int) bool {
	return v >= t.internalNodes
}

// coversChunks reports whether the subtree rooted at v contains at least
// one real chunk. When numChunks is not a power of two, nodes on the
// ragged right edge cover none; their slots hold no data and must not be
// descended into.
func (t *Tree) coversChunks(v int) bool {
	for v < t.internalNodes {
		v = leftChildOf(v)
	}
	return v-t.internalNodes < t.numChunks
}
