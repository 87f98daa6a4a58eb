package mmt

import "math/bits"

// TrailingOnes returns the number of consecutive set bits at the bottom of
// num. It controls how many pending subtree roots the stack builder can
// combine after emitting leaf ordinal num: appending leaf i completes one
// perfect subtree per trailing one of i.
func TrailingOnes(num uint64) int {
	return bits.TrailingZeros64(num + 1)
}

// IsPowerOfTwo reports whether num is a positive power of two.
func IsPowerOfTwo(num uint64) bool {
	return num != 0 && num&(num-1) == 0
}

// Log2Uint64 efficiently computes log base 2 of num
func Log2Uint64(num uint64) uint64 {
	return uint64(bits.Len64(num) - 1)
}
