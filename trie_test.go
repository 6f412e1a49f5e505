// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

package glass

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommonPrefixDepth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b uint32
		want int
	}{
		{"identical keys", 12345, 12345, numLevels},
		{"differ in bottom slot only", 0x0000_0040, 0x0000_0041, numLevels - 1},
		{"differ in top bits", 0xF000_0000, 0x0000_0000, 0},
		{"zero vs zero", 0, 0, numLevels},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := commonPrefixDepth(tt.a, tt.b)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFindNeighborLeavesEmptyTrie(t *testing.T) {
	t.Parallel()

	g := New()
	prev, next := g.findNeighborLeaves(500)
	require.Equal(t, uint32(sentinel), prev)
	require.Equal(t, uint32(sentinel), next)
}

func TestFindNeighborLeavesBetweenExistingKeys(t *testing.T) {
	t.Parallel()

	g := New()
	g.Insert(100, 1)
	g.Insert(900, 1)

	prev, next := g.findNeighborLeaves(500)
	require.NotEqual(t, uint32(sentinel), prev)
	require.NotEqual(t, uint32(sentinel), next)

	prevLeaf := g.leafArena.get(prev)
	nextLeaf := g.leafArena.get(next)
	require.Equal(t, uint32(100>>bitsPerLevel), prevLeaf.htKey)
	require.Equal(t, uint32(900>>bitsPerLevel), nextLeaf.htKey)
}

func TestGlassFindKthKeyOrdering(t *testing.T) {
	t.Parallel()

	g := New()
	keys := []uint32{500, 10, 4095, 1, 256, 4096, 8000}
	for _, k := range keys {
		g.Insert(k, uint64(k)+1)
	}

	var gotAscending []uint32
	for i := 0; i < g.Size(); i++ {
		k, ok := g.glassFindKthKey(i)
		require.True(t, ok)
		gotAscending = append(gotAscending, k)
	}

	for i := 1; i < len(gotAscending); i++ {
		require.Less(t, gotAscending[i-1], gotAscending[i])
	}

	_, ok := g.glassFindKthKey(g.Size())
	require.False(t, ok)
}

func TestGlassFindExtremeOnEmptyTrie(t *testing.T) {
	t.Parallel()

	g := New()
	_, _, ok := g.glassFindExtreme(true)
	require.False(t, ok)
	_, _, ok = g.glassFindExtreme(false)
	require.False(t, ok)
}

func TestGlassRemoveThenReinsertReusesArenaSlots(t *testing.T) {
	t.Parallel()

	g := New()
	g.Insert(42, 7)
	beforeLeafCount := len(g.leafArena.nodes)

	_, ok := g.Remove(42)
	require.True(t, ok)
	require.Equal(t, 0, g.Size())

	g.Insert(99, 8)
	require.LessOrEqual(t, len(g.leafArena.nodes), beforeLeafCount,
		"reinserting after a full leaf removal should reuse the freed handle")

	v, ok := g.Get(99)
	require.True(t, ok)
	require.Equal(t, uint64(8), v)
}
