// Package lookup provides the word-parallel scan tables the query engine
// uses to process eight bit positions at a time instead of one.
package lookup

import "sync"

// notFound marks a near_fwd_pos entry where the byte never reaches the
// requested residual excess.
const notFound = 8

// Tables holds the two precomputed, process-wide arrays:
//
//   - WordSum[b] is the net excess contributed by byte b (sum of 2*bit-1
//     over its 8 bits), range [-8, 8].
//   - NearFwdPos[(d+8)*256+b] is the smallest bit position p in [0,7] at
//     which the running excess within byte b, started at 0, first equals
//     d, or notFound (8) if it never does.
type Tables struct {
	WordSum    [256]int8
	NearFwdPos [17 * 256]int8
}

var (
	once   sync.Once
	global *Tables
)

// Get returns the process-wide singleton Tables, building it on first use.
func Get() *Tables {
	once.Do(func() {
		global = build()
	})
	return global
}

func build() *Tables {
	t := &Tables{}
	for b := 0; b < 256; b++ {
		var excess int
		for p := 0; p < 8; p++ {
			if (b>>uint(p))&1 == 1 {
				excess++
			} else {
				excess--
			}
		}
		t.WordSum[b] = int8(excess)
	}

	for d := -8; d <= 8; d++ {
		for b := 0; b < 256; b++ {
			found := notFound
			var excess int
			for p := 0; p < 8; p++ {
				if (b>>uint(p))&1 == 1 {
					excess++
				} else {
					excess--
				}
				if excess == d {
					found = p
					break
				}
			}
			t.NearFwdPos[(d+8)*256+b] = int8(found)
		}
	}
	return t
}
