// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

package glass

import (
	"math/bits"

	"github.com/OctopusTakopi/glass/internal/bitops"
)

// pathEntry records one step of a root-to-leaf descent: the internal node
// visited and the child slot taken out of it.
type pathEntry struct {
	node uint32
	slot uint32
}

// commonPrefixDepth returns how many of the six trie levels key and lk
// agree on, used to shortcut a descent from the cached path instead of the
// root (spec.md §4.11).
func commonPrefixDepth(key, lk uint32) int {
	xor := key ^ lk
	lz := bits.LeadingZeros32(xor)
	virtualLz := lz + padBits
	return virtualLz / bitsPerLevel
}

// glassInsert inserts key/value into the primary trie. Callers must have
// already confirmed key belongs in the primary tier and value != 0.
func (g *Glass) glassInsert(key uint32, value uint64) {
	partial := key >> bitsPerLevel

	level := 0
	nodeIdx := g.root
	leafIdx := sentinel

	if idx, ok := g.ht.lookup(&g.leafArena, partial); ok {
		leafIdx = idx
	}

	if leafIdx != sentinel {
		if g.cachedLastKeyOK {
			depth := commonPrefixDepth(key, g.cachedLastKey)
			level = min(int(g.cachedD), depth)
			if level > 0 && level < numLevels-1 {
				nodeIdx = g.cachedPath[level]
			}
		}

		for l := level; l < numLevels-1; l++ {
			g.cachedPath[l] = nodeIdx
			shift := uint((numLevels - 1 - l) * bitsPerLevel)
			childSlot := (key >> shift) & slotMask
			nodeIdx = g.arena.get(nodeIdx).children[childSlot]
		}

		g.writeLeafSlot(leafIdx, key, value)
		g.touchCache(key, leafIdx)
		g.touchExtremes(key, leafIdx)
		return
	}

	if g.cachedLastKeyOK {
		depth := commonPrefixDepth(key, g.cachedLastKey)
		level = min(int(g.cachedD), depth)
		if level > 0 {
			if level < numLevels-1 {
				nodeIdx = g.cachedPath[level]
			} else {
				leafIdx = g.cachedLeaf
			}
		}
	}

	for l := level; l < numLevels-1; l++ {
		shift := uint((numLevels - 1 - l) * bitsPerLevel)
		childSlot := (key >> shift) & slotMask

		if l == numLevels-2 {
			if g.arena.get(nodeIdx).children[childSlot] == sentinel {
				newLeafIdx := g.leafArena.alloc()
				g.arena.get(nodeIdx).children[childSlot] = newLeafIdx
				g.arena.get(nodeIdx).mask |= uint64(1) << childSlot

				prevL, nextL := g.findNeighborLeaves(key)
				newLeaf := g.leafArena.get(newLeafIdx)
				newLeaf.parent = nodeIdx
				newLeaf.prevLeaf = prevL
				newLeaf.nextLeaf = nextL

				if prevL != sentinel {
					g.leafArena.get(prevL).nextLeaf = newLeafIdx
				} else {
					g.minLeaf = newLeafIdx
				}
				if nextL != sentinel {
					g.leafArena.get(nextL).prevLeaf = newLeafIdx
				} else {
					g.maxLeaf = newLeafIdx
				}

				g.ht.insert(&g.leafArena, newLeafIdx, partial)
			}
			g.cachedPath[l] = nodeIdx
			leafIdx = g.arena.get(nodeIdx).children[childSlot]
		} else {
			if g.arena.get(nodeIdx).children[childSlot] == sentinel {
				newIdx := g.arena.alloc()
				g.arena.get(newIdx).parent = nodeIdx
				g.arena.get(nodeIdx).children[childSlot] = newIdx
				g.arena.get(nodeIdx).mask |= uint64(1) << childSlot
			}
			g.cachedPath[l] = nodeIdx
			nodeIdx = g.arena.get(nodeIdx).children[childSlot]
		}
	}

	g.writeLeafSlot(leafIdx, key, value)
	g.touchCache(key, leafIdx)
	g.touchExtremes(key, leafIdx)
}

// writeLeafSlot writes value into leafIdx's slot for key, bumping every
// ancestor's count along cachedPath[0:numLevels-1] the first time the slot
// transitions from empty to live.
func (g *Glass) writeLeafSlot(leafIdx, key uint32, value uint64) {
	leaf := g.leafArena.get(leafIdx)
	leafSlot := key & slotMask
	if leaf.values[leafSlot] == 0 {
		leaf.mask |= uint64(1) << leafSlot
		for l := 0; l < numLevels-1; l++ {
			ancestorIdx := g.cachedPath[l]
			g.arena.get(ancestorIdx).count++
		}
	}
	leaf.values[leafSlot] = value
}

func (g *Glass) touchCache(key, leafIdx uint32) {
	g.cachedLastKey = key
	g.cachedLastKeyOK = true
	g.cachedD = numLevels
	g.cachedLeaf = leafIdx
}

func (g *Glass) touchExtremes(key, leafIdx uint32) {
	if key < g.minKey {
		g.minKey = key
		g.minLeaf = leafIdx
	}
	if key > g.maxKey {
		g.maxKey = key
		g.maxLeaf = leafIdx
	}
}

// findNeighborLeaves walks from the root to find the leaves that would
// become key's immediate predecessor and successor in sibling-chain order,
// used to splice a freshly allocated leaf into the chain at the right spot.
func (g *Glass) findNeighborLeaves(key uint32) (prev, next uint32) {
	prev, next = sentinel, sentinel

	nodeIdx := g.root
	for depth := 0; depth < numLevels-1; depth++ {
		node := g.arena.get(nodeIdx)
		shift := uint((numLevels - 1 - depth) * bitsPerLevel)
		slot := uint((key >> shift) & slotMask)

		if pSlot, ok := bitops.FindPrev(node.mask, slot); ok {
			curr := node.children[pSlot]
			for d2 := depth + 1; d2 < numLevels-1; d2++ {
				n2 := g.arena.get(curr)
				s2, _ := bitops.FindPrev(n2.mask, numChildren)
				curr = n2.children[s2]
			}
			prev = curr
		}
		if nSlot, ok := bitops.FindNext(node.mask, slot+1); ok {
			curr := node.children[nSlot]
			for d2 := depth + 1; d2 < numLevels-1; d2++ {
				n2 := g.arena.get(curr)
				s2, _ := bitops.FindNext(n2.mask, 0)
				curr = n2.children[s2]
			}
			next = curr
		}

		nextNode := node.children[slot]
		if nextNode == sentinel {
			break
		}
		nodeIdx = nextNode
	}
	return prev, next
}

// glassGet looks up key in the primary trie.
func (g *Glass) glassGet(key uint32) (uint64, bool) {
	partial := key >> bitsPerLevel
	if leafIdx, ok := g.ht.lookup(&g.leafArena, partial); ok {
		v := g.leafArena.get(leafIdx).values[key&slotMask]
		if v > 0 {
			return v, true
		}
	}
	return 0, false
}

// glassGetMut returns a pointer to key's live value slot in the primary
// trie, for in-place mutation.
func (g *Glass) glassGetMut(key uint32) (*uint64, bool) {
	partial := key >> bitsPerLevel
	if leafIdx, ok := g.ht.lookup(&g.leafArena, partial); ok {
		vp := &g.leafArena.get(leafIdx).values[key&slotMask]
		if *vp > 0 {
			return vp, true
		}
	}
	return nil, false
}

// glassRemove deletes key from the primary trie, pruning empty leaves and
// internal nodes back up the path (but never the root) and refreshing
// cached extremes when the removed key was one of them.
func (g *Glass) glassRemove(key uint32) (uint64, bool) {
	partial := key >> bitsPerLevel
	leafIdx, ok := g.ht.lookup(&g.leafArena, partial)
	if !ok {
		return 0, false
	}
	leafSlot := key & slotMask
	removedVal := g.leafArena.get(leafIdx).values[leafSlot]
	if removedVal == 0 {
		return 0, false
	}

	nodeIdx := g.root
	var path [numLevels - 1]pathEntry
	for l := 0; l < numLevels-1; l++ {
		shift := uint((numLevels - 1 - l) * bitsPerLevel)
		childSlot := (key >> shift) & slotMask
		path[l] = pathEntry{node: nodeIdx, slot: childSlot}
		nodeIdx = g.arena.get(nodeIdx).children[childSlot]
	}

	leaf := g.leafArena.get(leafIdx)
	leaf.values[leafSlot] = 0
	leaf.mask &^= uint64(1) << leafSlot
	for _, p := range path {
		g.arena.get(p.node).count--
	}

	if leaf.mask == 0 {
		pL, nL := leaf.prevLeaf, leaf.nextLeaf
		if pL != sentinel {
			g.leafArena.get(pL).nextLeaf = nL
		} else {
			g.minLeaf = nL
		}
		if nL != sentinel {
			g.leafArena.get(nL).prevLeaf = pL
		} else {
			g.maxLeaf = pL
		}

		g.ht.remove(&g.leafArena, leafIdx)
		g.leafArena.free(leafIdx)

		for l := numLevels - 2; l >= 0; l-- {
			parent, slot := path[l].node, path[l].slot
			pn := g.arena.get(parent)
			pn.children[slot] = sentinel
			pn.mask &^= uint64(1) << slot
			if pn.mask == 0 && l > 0 {
				g.arena.free(parent)
			} else {
				break
			}
		}
	}

	if g.cachedLastKeyOK && g.cachedLastKey == key {
		g.cachedLastKeyOK = false
		g.cachedD = 0
	}
	if key == g.minKey {
		if nk, _, ok := g.glassFindExtreme(true); ok {
			g.minKey = nk
		} else {
			g.minKey = sentinel
			g.minLeaf = sentinel
		}
	}
	if key == g.maxKey {
		if nk, _, ok := g.glassFindExtreme(false); ok {
			g.maxKey = nk
		} else {
			g.maxKey = 0
			g.maxLeaf = sentinel
		}
	}
	return removedVal, true
}

// glassFindKthKey returns the k-th smallest key held in the primary trie
// (0-based), by descending the trie and subtracting subtree population
// counts until the target falls within the current child's subtree.
func (g *Glass) glassFindKthKey(k int) (uint32, bool) {
	if k < 0 || k >= g.Size() {
		return 0, false
	}
	nodeIdx := g.root
	var key uint32
	for depth := 0; depth < numLevels-1; depth++ {
		node := g.arena.get(nodeIdx)
		start := uint(0)
		for {
			slot, ok := bitops.FindNext(node.mask, start)
			if !ok {
				return 0, false
			}
			childIdx := node.children[slot]
			var count int
			if depth == numLevels-2 {
				count = int(bitops.PopCount(g.leafArena.get(childIdx).mask))
			} else {
				count = int(g.arena.get(childIdx).count)
			}
			if k < count {
				key |= uint32(slot) << uint((numLevels-1-depth)*bitsPerLevel)
				nodeIdx = childIdx
				break
			}
			k -= count
			start = slot + 1
		}
	}

	leaf := g.leafArena.get(nodeIdx)
	start := uint(0)
	for {
		slot, ok := bitops.FindNext(leaf.mask, start)
		if !ok {
			return 0, false
		}
		if k == 0 {
			return key | uint32(slot), true
		}
		k--
		start = slot + 1
	}
}

// glassMin returns the primary tier's smallest live key/value, reading the
// eagerly maintained minLeaf.
func (g *Glass) glassMin() (uint32, uint64, bool) {
	leafIdx := g.minLeaf
	if leafIdx == sentinel {
		return 0, 0, false
	}
	leaf := g.leafArena.get(leafIdx)
	slot, _ := bitops.FindNext(leaf.mask, 0)
	return (leaf.htKey << bitsPerLevel) | uint32(slot), leaf.values[slot], true
}

// glassMax returns the primary tier's largest live key/value, reading the
// eagerly maintained maxLeaf.
func (g *Glass) glassMax() (uint32, uint64, bool) {
	leafIdx := g.maxLeaf
	if leafIdx == sentinel {
		return 0, 0, false
	}
	leaf := g.leafArena.get(leafIdx)
	slot, _ := bitops.FindPrev(leaf.mask, numChildren)
	return (leaf.htKey << bitsPerLevel) | uint32(slot), leaf.values[slot], true
}

// glassFindExtreme recomputes an endpoint from scratch by descending
// leftmost (isMin) or rightmost (!isMin) from the root, refreshing
// cachedPath/cachedLeaf and the relevant extreme fields on the way. Used
// as the fallback when the eagerly maintained min/maxLeaf has just been
// invalidated by a removal.
func (g *Glass) glassFindExtreme(isMin bool) (uint32, uint64, bool) {
	if g.arena.get(g.root).mask == 0 {
		return 0, 0, false
	}
	nodeIdx := g.root
	var key uint32
	for depth := 0; depth < numLevels-1; depth++ {
		node := g.arena.get(nodeIdx)
		idx, ok := extremeBit(node.mask, isMin)
		if !ok {
			return 0, 0, false
		}
		g.cachedPath[depth] = nodeIdx
		key |= idx << uint((numLevels-1-depth)*bitsPerLevel)
		nodeIdx = node.children[idx]
	}

	leafIdx := nodeIdx
	leaf := g.leafArena.get(leafIdx)
	idx, ok := extremeBit(leaf.mask, isMin)
	if !ok {
		return 0, 0, false
	}
	price := key | idx

	g.cachedLeaf = leafIdx
	g.cachedLastKey = price
	g.cachedLastKeyOK = true
	g.cachedD = numLevels
	if isMin {
		g.minKey = price
		g.minLeaf = leafIdx
	} else {
		g.maxKey = price
		g.maxLeaf = leafIdx
	}
	return price, leaf.values[idx], true
}

// extremeBit returns the lowest (isMin) or highest (!isMin) set bit in
// mask as a uint32, for use directly in key construction.
func extremeBit(mask uint64, isMin bool) (uint32, bool) {
	if isMin {
		idx, ok := bitops.FindNext(mask, 0)
		return uint32(idx), ok
	}
	idx, ok := bitops.FindPrev(mask, numChildren)
	return uint32(idx), ok
}
