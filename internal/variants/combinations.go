package variants

import (
	"iter"
	"math"
)

// MaxCombinations bounds the matrix a single product may expand to.
const MaxCombinations = 10000

// Combinations yields the Cartesian product of the variants' options, one option per axis.
// Order is lexicographic by axis, then by option position within the axis; the last axis
// varies fastest. Nothing is yielded when there are no axes or any axis is empty.
// Each call to the returned sequence starts over and every tuple is a fresh slice.
func Combinations(vs []Variant) iter.Seq[[]Option] {
	return func(yield func([]Option) bool) {
		if len(vs) == 0 {
			return
		}
		for _, v := range vs {
			if len(v.Options) == 0 {
				return
			}
		}
		idx := make([]int, len(vs))
		for {
			combo := make([]Option, len(vs))
			for i, v := range vs {
				combo[i] = v.Options[idx[i]]
			}
			if !yield(combo) {
				return
			}

			i := len(vs) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(vs[i].Options) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// All materializes Combinations.
func All(vs []Variant) [][]Option {
	out := make([][]Option, 0, min(Count(vs), MaxCombinations))
	for combo := range Combinations(vs) {
		out = append(out, combo)
	}
	return out
}

// Count is the number of combinations: the product of per-axis option counts,
// or zero when there are no axes. A product too large for int saturates at math.MaxInt.
func Count(vs []Variant) int {
	n, ok := count(vs)
	if !ok {
		return math.MaxInt
	}
	return n
}

// count multiplies the axis sizes, reporting false on overflow.
func count(vs []Variant) (int, bool) {
	if len(vs) == 0 {
		return 0, true
	}
	n := 1
	for _, v := range vs {
		k := len(v.Options)
		if k == 0 {
			return 0, true
		}
		if n > math.MaxInt/k {
			return 0, false
		}
		n *= k
	}
	return n, true
}
