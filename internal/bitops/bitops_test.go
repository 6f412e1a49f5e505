// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

package bitops

import (
	"math/bits"
	"testing"
)

func TestFindNext(t *testing.T) {
	tests := []struct {
		name    string
		mask    uint64
		p       uint
		wantIdx uint
		wantOk  bool
	}{
		{"empty mask", 0, 0, 0, false},
		{"start at lowest", 0b1011, 0, 0, true},
		{"skip past lowest", 0b1011, 1, 1, true},
		{"skip to highest", 0b1011, 2, 3, true},
		{"past highest", 0b1011, 4, 0, false},
		{"p at boundary 64", 0xFFFF_FFFF_FFFF_FFFF, 64, 0, false},
		{"p at 63 hits top bit", uint64(1) << 63, 63, 63, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := FindNext(tt.mask, tt.p)
			if ok != tt.wantOk || (ok && idx != tt.wantIdx) {
				t.Fatalf("FindNext(%#x, %d) = (%d, %v), want (%d, %v)", tt.mask, tt.p, idx, ok, tt.wantIdx, tt.wantOk)
			}
		})
	}
}

func TestFindPrev(t *testing.T) {
	tests := []struct {
		name    string
		mask    uint64
		p       uint
		wantIdx uint
		wantOk  bool
	}{
		{"p zero never matches", 0b1111, 0, 0, false},
		{"exclusive of p itself", 0b1011, 3, 1, true},
		{"p beyond width", 0b1011, 64, 3, true},
		{"no bits below p", 0b1000, 1, 0, false},
		{"top bit visible at p=64", uint64(1) << 63, 64, 63, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := FindPrev(tt.mask, tt.p)
			if ok != tt.wantOk || (ok && idx != tt.wantIdx) {
				t.Fatalf("FindPrev(%#x, %d) = (%d, %v), want (%d, %v)", tt.mask, tt.p, idx, ok, tt.wantIdx, tt.wantOk)
			}
		})
	}
}

func TestClearLowest(t *testing.T) {
	tests := []struct {
		mask uint64
		want uint64
	}{
		{0, 0},
		{0b1, 0},
		{0b1010, 0b1000},
		{0b1111, 0b1110},
	}
	for _, tt := range tests {
		if got := ClearLowest(tt.mask); got != tt.want {
			t.Errorf("ClearLowest(%#b) = %#b, want %#b", tt.mask, got, tt.want)
		}
	}
}

func TestPopCount(t *testing.T) {
	for _, mask := range []uint64{0, 1, 0xFF, 0xFFFF_FFFF_FFFF_FFFF, 0x8000_0000_0000_0001} {
		if got, want := PopCount(mask), uint(bits.OnesCount64(mask)); got != want {
			t.Errorf("PopCount(%#x) = %d, want %d", mask, got, want)
		}
	}
}

func TestFindNextTotalOverRange(t *testing.T) {
	// Total on p in [0,64] for a representative set of masks.
	masks := []uint64{0, 1, 0xAAAA_AAAA_AAAA_AAAA, 0xFFFF_FFFF_FFFF_FFFF}
	for _, mask := range masks {
		for p := uint(0); p <= 64; p++ {
			_, _ = FindNext(mask, p) // must not panic
			_, _ = FindPrev(mask, p) // must not panic
		}
	}
}
