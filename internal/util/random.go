package util

import (
	"math/rand"
)

// RandomSize returns a random block size in range [min,max).
// Panics if min >= max or min < 0.
func RandomSize(min, max int) int {
	if min < 0 || min >= max {
		panic("util: invalid size range")
	}
	return min + rand.Intn(max-min)
}

// RandomAlign returns a random power-of-two alignment in range
// [1,max]. Panics if max is not a power of two.
func RandomAlign(max int) int {
	if max <= 0 || max&(max-1) != 0 {
		panic("util: max alignment must be a power of two")
	}
	choices := 1
	for v := max; v > 1; v >>= 1 {
		choices++
	}
	return 1 << rand.Intn(choices)
}
