package rmmt

import (
	"context"
	"math/rand"

	"github.com/succinctlab/rmmt/pkg/bitarray"
)

// bpString builds a bit array from a string of '(' and ')' characters.
func bpString(s string) *bitarray.BitArray {
	b := bitarray.New(len(s))
	for i, r := range s {
		if r == '(' {
			b.Set(i)
		}
	}
	return b
}

// nestedThenFlat builds n bits: `nested` nested pairs followed by flat pairs
// filling the remainder, as used by scenario S3.
func nestedThenFlat(nested, n int) *bitarray.BitArray {
	b := bitarray.New(n)
	i := 0
	for k := 0; k < nested; k++ {
		b.Set(i)
		i++
	}
	for k := 0; k < nested; k++ {
		i++ // closing bit left clear
	}
	for i < n {
		b.Set(i)
		i++
		i++ // matching close left clear
	}
	return b
}

// openThenClose builds a chain of `opens` opening parens followed by the
// same number of closing parens.
func openThenClose(opens int) *bitarray.BitArray {
	n := 2 * opens
	b := bitarray.New(n)
	for i := 0; i < opens; i++ {
		b.Set(i)
	}
	return b
}

// randomBalanced deterministically builds a balanced BP string of length n
// (n even) using a seeded PRNG: a random walk that never dips below zero and
// returns to zero at n-1, choosing open or close at random wherever both
// keep the walk valid.
func randomBalanced(n int, seed int64) *bitarray.BitArray {
	if n%2 != 0 {
		panic("randomBalanced: n must be even")
	}
	rng := rand.New(rand.NewSource(seed))
	b := bitarray.New(n)
	opens, closes := 0, 0
	for i := 0; i < n; i++ {
		remaining := n - i
		canOpen := opens < n/2
		canClose := closes < opens
		switch {
		case canOpen && canClose:
			if rng.Intn(2) == 0 {
				b.Set(i)
				opens++
			} else {
				closes++
			}
		case canOpen:
			b.Set(i)
			opens++
		default:
			closes++
		}
		_ = remaining
	}
	return b
}

// bruteSum recomputes excess at i by scanning from the start every time.
func bruteSum(b *bitarray.BitArray, i int) int {
	excess := 0
	for j := 0; j <= i; j++ {
		if b.Get(j) == 1 {
			excess++
		} else {
			excess--
		}
	}
	return excess
}

// bruteFindClose finds the matching close for an open at i via a direct
// excess-counting scan, independent of the tree under test.
func bruteFindClose(b *bitarray.BitArray, i int) int {
	if b.Get(i) != 1 {
		return -1
	}
	depth := 0
	for j := i; j < b.Len(); j++ {
		if b.Get(j) == 1 {
			depth++
		} else {
			depth--
		}
		if depth == 0 {
			return j
		}
	}
	return -1
}

func mustBuild(b *bitarray.BitArray, workers int) *Tree {
	tr, err := Build(context.Background(), b, BuildOptions{Workers: workers})
	if err != nil {
		panic(err)
	}
	return tr
}
