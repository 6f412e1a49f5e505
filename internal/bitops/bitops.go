// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

// Package bitops implements the scalar bit-manipulation primitives the
// radix trie is built on: locating the next/previous set bit in a single
// 64-bit word, clearing the lowest set bit, and counting set bits.
//
// This is a single-word, zero-allocation relative of a general-purpose
// bitset package: studied the shape of one inside out and wrote only the
// narrow slice this project actually needs from scratch, the same way the
// teacher's own internal bitset package does for its 256-bit case.
//
// All four operations are total: every mask in [0, 2^64) and every
// position in [0, 64] has a defined result. Implementations that want to
// reach for CPU bit-manipulation instructions (TZCNT/LZCNT/BLSR) instead of
// the portable math/bits fallback used here must preserve these exact
// semantics.
package bitops

import "math/bits"

// FindNext returns the index of the smallest set bit in mask that is >= p,
// and reports whether one was found.
func FindNext(mask uint64, p uint) (uint, bool) {
	if p >= 64 {
		return 0, false
	}
	mask >>= p
	if mask == 0 {
		return 0, false
	}
	return p + uint(bits.TrailingZeros64(mask)), true
}

// FindPrev returns the index of the largest set bit in mask that is < p,
// and reports whether one was found.
func FindPrev(mask uint64, p uint) (uint, bool) {
	if p == 0 {
		return 0, false
	}
	if p < 64 {
		mask &= (uint64(1) << p) - 1
	}
	if mask == 0 {
		return 0, false
	}
	return 63 - uint(bits.LeadingZeros64(mask)), true
}

// ClearLowest returns mask with its lowest set bit cleared.
func ClearLowest(mask uint64) uint64 {
	return mask & (mask - 1)
}

// PopCount returns the number of set bits in mask.
func PopCount(mask uint64) uint {
	return uint(bits.OnesCount64(mask))
}
