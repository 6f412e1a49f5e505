// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

package glass

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashIndexInsertLookupRemove(t *testing.T) {
	t.Parallel()

	leaves := newLeafArena()
	ht := newHashIndex()

	h1 := leaves.alloc()
	h2 := leaves.alloc()

	ht.insert(&leaves, h1, 10)
	ht.insert(&leaves, h2, 10) // same bucket by construction (both & (htSize-1) == 10)

	found, ok := ht.lookup(&leaves, 10)
	require.True(t, ok)
	require.Equal(t, h2, found, "most recently inserted leaf should be found first")

	ht.remove(&leaves, h2)
	found, ok = ht.lookup(&leaves, 10)
	require.True(t, ok)
	require.Equal(t, h1, found)

	ht.remove(&leaves, h1)
	_, ok = ht.lookup(&leaves, 10)
	require.False(t, ok)
}

func TestHashIndexLookupMissingKey(t *testing.T) {
	t.Parallel()

	leaves := newLeafArena()
	ht := newHashIndex()

	h1 := leaves.alloc()
	ht.insert(&leaves, h1, 7)

	_, ok := ht.lookup(&leaves, 8)
	require.False(t, ok)
}

func TestHashIndexBoundedLookupLength(t *testing.T) {
	t.Parallel()

	leaves := newLeafArena()
	ht := newHashIndex()

	// Chain exactly htMaxLookupLen leaves into the same bucket (distinct
	// partial keys 3, 3+htSize, 3+2*htSize, ...); the last one inserted
	// (chain head) must be reachable, and every one of them must resolve
	// within the bound.
	var handles []uint32
	for i := 0; i < htMaxLookupLen; i++ {
		h := leaves.alloc()
		ht.insert(&leaves, h, uint32(3+i*htSize))
		handles = append(handles, h)
	}

	for _, h := range handles {
		partial := leaves.get(h).htKey
		found, ok := ht.lookup(&leaves, partial)
		require.True(t, ok)
		require.Equal(t, h, found)
	}
}

func TestHashIndexRemoveMiddleOfChain(t *testing.T) {
	t.Parallel()

	leaves := newLeafArena()
	ht := newHashIndex()

	h1 := leaves.alloc()
	h2 := leaves.alloc()
	h3 := leaves.alloc()
	ht.insert(&leaves, h1, 5) // chain becomes h3 -> h2 -> h1
	ht.insert(&leaves, h2, 5)
	ht.insert(&leaves, h3, 5)

	ht.remove(&leaves, h2)

	found, ok := ht.lookup(&leaves, 5)
	require.True(t, ok)
	require.Equal(t, h3, found)

	require.Equal(t, h1, leaves.get(h3).htNext)
	require.Equal(t, h3, leaves.get(h1).htPrev)
}
