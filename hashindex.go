// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

package glass

// hashIndex is a shortcut into the primary trie: given a leaf's partial key
// (key >> bitsPerLevel) it jumps straight to the owning leaf handle instead
// of descending five internal levels. Each bucket is a doubly-linked chain
// of leaf handles threaded through that leaf's own htPrev/htNext/htKey
// fields (leaves carry the links, the index just carries the bucket
// heads), so inserting a leaf into the index costs no extra allocation.
//
// htSize equals maxSize by construction: that equality is what makes the
// htMaxLookupLen-bounded walk in lookup provably sufficient (spec.md §4.3,
// §9 "Alternate partial-key collision policy") — at most maxSize distinct
// partial keys can ever be live in the primary tier at once, so a table
// with maxSize buckets has, on average, one entry per bucket, and the
// walk bound is a performance cap rather than a correctness one.
type hashIndex struct {
	heads [htSize]uint32
}

func newHashIndex() hashIndex {
	h := hashIndex{}
	for i := range h.heads {
		h.heads[i] = sentinel
	}
	return h
}

func bucketOf(partialKey uint32) uint32 {
	return partialKey & (htSize - 1)
}

// lookup walks the bucket for partialKey up to htMaxLookupLen nodes,
// returning the owning leaf handle on an exact match.
func (h *hashIndex) lookup(leaves *leafArena, partialKey uint32) (uint32, bool) {
	curr := h.heads[bucketOf(partialKey)]
	for lookups := 0; curr != sentinel && lookups < htMaxLookupLen; lookups++ {
		leaf := leaves.get(curr)
		if leaf.htKey == partialKey {
			return curr, true
		}
		curr = leaf.htNext
	}
	return sentinel, false
}

// insert prepends leafHandle to its bucket's chain.
func (h *hashIndex) insert(leaves *leafArena, leafHandle uint32, partialKey uint32) {
	bucket := bucketOf(partialKey)
	oldHead := h.heads[bucket]

	leaf := leaves.get(leafHandle)
	leaf.htKey = partialKey
	leaf.htNext = oldHead
	leaf.htPrev = sentinel

	if oldHead != sentinel {
		leaves.get(oldHead).htPrev = leafHandle
	}
	h.heads[bucket] = leafHandle
}

// remove unlinks leafHandle from whichever bucket it currently occupies,
// reading its own htPrev/htNext/htKey to find it.
func (h *hashIndex) remove(leaves *leafArena, leafHandle uint32) {
	leaf := leaves.get(leafHandle)
	prev, next, partialKey := leaf.htPrev, leaf.htNext, leaf.htKey

	leaf.htKey = sentinel
	leaf.htNext = sentinel
	leaf.htPrev = sentinel

	if prev != sentinel {
		leaves.get(prev).htNext = next
	} else {
		h.heads[bucketOf(partialKey)] = next
	}
	if next != sentinel {
		leaves.get(next).htPrev = prev
	}
}
