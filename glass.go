// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

// Package glass implements a bounded, single-threaded price ladder: an
// ordered map from uint32 price to uint64 size, backed by a bounded
// six-level bitwise radix trie for its best maxSize keys and an unordered
// overflow map for everything beyond that.
package glass

import "github.com/OctopusTakopi/glass/internal/bitops"

// noCopy may be added to structs which must not be copied after the first
// use.
//
//	type My struct {
//		_ noCopy
//		A state
//	}
//
// See https://golang.org/issues/8005#issuecomment-190753527 for details.
//
// Note that it must not be embedded, due to the Lock and Unlock methods.
type noCopy struct{}

// Lock is a no-op used by the -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Glass is a bounded ordered map from price to size. The zero value is not
// usable; construct one with New. A Glass must not be copied after use.
type Glass struct {
	_ noCopy

	root uint32

	cachedPath      [numLevels - 1]uint32
	cachedLeaf      uint32
	cachedLastKey   uint32
	cachedLastKeyOK bool
	cachedD         uint32

	minKey  uint32
	maxKey  uint32
	minLeaf uint32
	maxLeaf uint32

	// thres is the dividing line between the primary trie and the preempt
	// tier: a key belongs in the primary trie iff key < thres. It mirrors
	// preempt's minimum but is allowed to go stale low (a preempt removal,
	// or restructure promoting preempt's smallest keys, does not
	// immediately update it); it is never allowed to go stale high, so
	// Insert lowers it directly whenever it moves a key below it into the
	// preempt tier. See DESIGN.md, "threshold staleness direction".
	thres uint32

	arena     internalArena
	leafArena leafArena
	ht        hashIndex
	preempt   preemptTier
}

// New returns an empty Glass.
func New() *Glass {
	invariant(htSize == maxSize, "htSize must equal maxSize for the bounded hash lookup to stay correct")

	return &Glass{
		root:          0,
		cachedLeaf:    sentinel,
		cachedLastKey: 0,
		minKey:        sentinel,
		maxKey:        0,
		minLeaf:       sentinel,
		maxLeaf:       sentinel,
		thres:         sentinel,
		arena:         newInternalArena(),
		leafArena:     newLeafArena(),
		ht:            newHashIndex(),
		preempt:       newPreemptTier(),
	}
}

// Size returns the number of keys held in the primary trie. It does not
// include keys held in the preempt overflow tier; see Len for the total.
func (g *Glass) Size() int {
	return int(g.arena.get(g.root).count)
}

// Len returns the total number of keys held across both tiers.
func (g *Glass) Len() int {
	return g.Size() + g.preempt.len()
}

// invariant panics if cond is false. It guards conditions that indicate a
// broken internal structure rather than a caller error: any trip is a bug
// in Glass itself.
func invariant(cond bool, msg string) {
	if !cond {
		panic("glass: invariant violated: " + msg)
	}
}

// checkBoundsAndThres reports whether key belongs in the primary trie
// (key < thres), refreshing thres first if the preempt tier's bounds are
// stale and thres is currently at its "unset" sentinel.
func (g *Glass) checkBoundsAndThres(key uint32) bool {
	if g.thres == sentinel && !g.preempt.boundsValid {
		g.updatePreemptBounds()
	}
	return key < g.thres
}

// updatePreemptBounds rescans the preempt tier and republishes thres from
// its minimum (or the sentinel, if now empty). This is the only place
// thres is recomputed from a full scan; Remove also sets it directly when
// it observes the preempt tier just became empty, and Insert sets it
// directly when its full-primary branch moves a key into the preempt tier.
func (g *Glass) updatePreemptBounds() {
	g.preempt.updateBounds()
	if g.preempt.len() == 0 {
		g.thres = sentinel
	} else {
		g.thres = g.preempt.min
	}
}

// Insert sets key's size to value. A value of 0 is treated as a removal,
// matching the spec's "size 0 means no resting order" convention.
func (g *Glass) Insert(key uint32, value uint64) {
	if value == 0 {
		g.Remove(key)
		return
	}

	if ok := g.UpdateValue(key, func(v *uint64) { *v = value }); ok {
		return
	}

	if !g.checkBoundsAndThres(key) {
		g.preempt.insert(key, value)
		return
	}

	if g.Size() < maxSize {
		g.glassInsert(key, value)
		return
	}

	worstKey, worstVal, ok := g.glassMax()
	if !ok {
		g.glassInsert(key, value)
		return
	}
	if key < worstKey {
		g.glassRemove(worstKey)
		g.preempt.insert(worstKey, worstVal)
		g.thres = worstKey
		g.glassInsert(key, value)
	} else {
		g.preempt.insert(key, value)
		g.thres = key
	}
}

// Get returns key's size and whether key holds a resting order at all.
func (g *Glass) Get(key uint32) (uint64, bool) {
	if g.checkBoundsAndThres(key) {
		return g.glassGet(key)
	}
	return g.preempt.get(key)
}

// UpdateValue applies f to key's value in place, reporting whether key was
// present. It does not change which tier key lives in, even if f's edit
// would otherwise reorder it relative to the threshold.
func (g *Glass) UpdateValue(key uint32, f func(*uint64)) bool {
	if g.checkBoundsAndThres(key) {
		vp, ok := g.glassGetMut(key)
		if !ok {
			return false
		}
		f(vp)
		return true
	}
	return g.preempt.getMut(key, f)
}

// Remove deletes key, returning its prior size if it was present.
func (g *Glass) Remove(key uint32) (uint64, bool) {
	if g.checkBoundsAndThres(key) {
		v, ok := g.glassRemove(key)
		if ok && g.Size() < maxSize {
			g.restructure()
		}
		return v, ok
	}

	v, ok := g.preempt.remove(key)
	if ok && g.preempt.len() == 0 {
		g.thres = sentinel
		g.preempt.resetEmpty()
	}
	return v, ok
}

// RemoveByIndex deletes the k-th smallest key overall (0-based, spanning
// both tiers) and returns it along with its prior size.
func (g *Glass) RemoveByIndex(k int) (uint32, uint64, bool) {
	if k < 0 {
		return 0, 0, false
	}

	glassSize := g.Size()
	var keyToRemove uint32
	if k < glassSize {
		key, ok := g.glassFindKthKey(k)
		if !ok {
			return 0, 0, false
		}
		keyToRemove = key
	} else {
		preemptK := k - glassSize
		g.preempt.ensureSorted()
		if preemptK >= len(g.preempt.sortedKeys) {
			return 0, 0, false
		}
		keyToRemove = g.preempt.sortedKeys[preemptK]
	}

	v, ok := g.Remove(keyToRemove)
	return keyToRemove, v, ok
}

// restructure promotes the smallest preempt entries into the primary trie
// until it is full again, taking at most maxSize-Size of them. It marks the
// preempt caches dirty rather than eagerly recomputing them — like the
// original source, it leaves thres exactly as it was, even if the move just
// emptied the preempt tier; the next Min/Max call reconciles it
// (checkBoundsAndThres does not, since it only refreshes a sentinel thres).
// See DESIGN.md, "threshold staleness direction".
func (g *Glass) restructure() {
	sigma := g.Size()
	if sigma >= maxSize {
		return
	}
	n := maxSize - sigma

	g.preempt.ensureSorted()
	toMove := g.preempt.sortedKeys
	if len(toMove) > n {
		toMove = toMove[:n]
	}

	type kv struct {
		k uint32
		v uint64
	}
	promoted := make([]kv, 0, len(toMove))
	for _, k := range toMove {
		v, ok := g.preempt.remove(k)
		if ok {
			promoted = append(promoted, kv{k, v})
		}
	}
	for _, e := range promoted {
		g.glassInsert(e.k, e.v)
	}

	g.preempt.boundsValid = false
	g.preempt.dirty = true
}

// Min returns the smallest key overall and its size.
func (g *Glass) Min() (uint32, uint64, bool) {
	if !g.preempt.boundsValid {
		g.updatePreemptBounds()
	}

	tKey, tVal, tOk := g.glassMin()
	preemptMinKey := g.preempt.min
	// Unlike 0 for Max below, sentinel is a key the preempt tier can hold
	// (^uint32(0) never routes to the primary trie), so emptiness is read
	// from the tier itself.
	preemptHasMin := g.preempt.len() > 0

	switch {
	case tOk && preemptHasMin:
		if tKey <= preemptMinKey {
			return tKey, tVal, true
		}
		v, _ := g.preempt.get(preemptMinKey)
		return preemptMinKey, v, true
	case tOk:
		return tKey, tVal, true
	case preemptHasMin:
		v, _ := g.preempt.get(preemptMinKey)
		return preemptMinKey, v, true
	default:
		return 0, 0, false
	}
}

// Max returns the largest key overall and its size.
func (g *Glass) Max() (uint32, uint64, bool) {
	if !g.preempt.boundsValid {
		g.updatePreemptBounds()
	}

	tKey, tVal, tOk := g.glassMax()
	preemptMaxKey := g.preempt.max
	// A key of exactly 0 can never actually live in the preempt tier: it
	// is the smallest possible key, so it can only ever be the primary
	// trie's own minimum, never evicted past a fuller trie's maximum.
	// preempt_max's zero-value doubles as "preempt is empty" on that
	// basis, matching the original source.
	preemptHasMax := preemptMaxKey != 0

	switch {
	case tOk && preemptHasMax:
		if tKey >= preemptMaxKey {
			return tKey, tVal, true
		}
		v, _ := g.preempt.get(preemptMaxKey)
		return preemptMaxKey, v, true
	case tOk:
		return tKey, tVal, true
	case preemptHasMax:
		v, _ := g.preempt.get(preemptMaxKey)
		return preemptMaxKey, v, true
	default:
		return 0, 0, false
	}
}

// ComputeBuyCost reports the cost of buying quantity shares by consuming
// resting size in ascending-key order, without mutating the book. It
// merges the primary trie's ascending leaf chain with the preempt tier's
// sorted snapshot by hand, one key at a time, rather than materializing a
// combined list. The returned cost saturates at math.MaxUint64 rather than
// overflowing; if the book does not hold quantity shares, the cost of
// whatever size is resting is returned.
func (g *Glass) ComputeBuyCost(quantity uint64) uint64 {
	var cost uint64
	g.preempt.ensureSorted()
	preemptKeys := g.preempt.sortedKeys
	pi := 0

	leafIdx := g.minLeaf
	var leaf *leafNode
	var slotStart uint
	if leafIdx != sentinel {
		leaf = g.leafArena.get(leafIdx)
	}

	remaining := quantity
	for remaining > 0 {
		var primKey uint32
		var primVal uint64
		primOK := false
		for leaf != nil {
			slot, ok := bitops.FindNext(leaf.mask, slotStart)
			if ok {
				primKey = (leaf.htKey << bitsPerLevel) | uint32(slot)
				primVal = leaf.values[slot]
				primOK = true
				break
			}
			leafIdx = leaf.nextLeaf
			if leafIdx == sentinel {
				leaf = nil
				break
			}
			leaf = g.leafArena.get(leafIdx)
			slotStart = 0
		}

		preemptOK := pi < len(preemptKeys)
		var preKey uint32
		var preVal uint64
		if preemptOK {
			preKey = preemptKeys[pi]
			preVal, _ = g.preempt.get(preKey)
		}

		if !primOK && !preemptOK {
			break
		}

		var key uint32
		var val uint64
		if primOK && (!preemptOK || primKey <= preKey) {
			key, val = primKey, primVal
			slotStart = uint(key&slotMask) + 1
		} else {
			key, val = preKey, preVal
			pi++
		}

		take := val
		if take > remaining {
			take = remaining
		}
		cost, _ = addSaturating(cost, mulSaturating(uint64(key), take))
		remaining -= take
	}
	return cost
}

// BuyShares consumes quantity shares in ascending-key order, mutating the
// book as it goes (fully draining or reducing each level it touches), and
// reports the total cost paid. Unlike ComputeBuyCost, the arithmetic here
// is not saturated: each step takes at most the remaining quantity, so the
// remaining count never underflows, and the cost is summed with plain
// uint64 multiplication and addition, which wrap on overflow.
func (g *Glass) BuyShares(quantity uint64) uint64 {
	if g.Size() == 0 && g.preempt.len() > 0 {
		g.restructure()
	}

	var cost uint64
	remaining := quantity
	for remaining > 0 {
		key, size, ok := g.Min()
		if !ok {
			break
		}
		take := size
		if take > remaining {
			take = remaining
		}
		cost += uint64(key) * take
		remaining -= take

		if take == size {
			g.Remove(key)
		} else {
			g.UpdateValue(key, func(v *uint64) { *v -= take })
		}
	}
	return cost
}

func addSaturating(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return ^uint64(0), true
	}
	return sum, false
}

func mulSaturating(a, b uint64) uint64 {
	if a == 0 || b == 0 {
		return 0
	}
	p := a * b
	if p/a != b {
		return ^uint64(0)
	}
	return p
}
