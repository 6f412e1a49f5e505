// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

package glass

import "slices"

// preemptTier is the unordered overflow store for keys that exceed the
// primary trie's current maximum. It is kept deliberately simple: a plain
// map plus a lazily-rebuilt sorted snapshot of its keys, used only by the
// order-statistic and streaming-consume operations that need ascending
// order.
//
// Go's builtin map already uses a fast, non-cryptographic hash internally,
// so there is no counterpart here to the original Rust source's choice of
// ahash::AHashMap over the stdlib HashMap — that swap exists only to dodge
// Rust's comparatively slow default SipHash hasher, a problem this
// implementation does not have.
type preemptTier struct {
	m           map[uint32]uint64
	min         uint32
	max         uint32
	sortedKeys  []uint32
	dirty       bool
	boundsValid bool
}

func newPreemptTier() preemptTier {
	return preemptTier{
		m:           make(map[uint32]uint64),
		min:         sentinel,
		max:         0,
		boundsValid: true,
	}
}

func (p *preemptTier) len() int {
	return len(p.m)
}

func (p *preemptTier) get(key uint32) (uint64, bool) {
	v, ok := p.m[key]
	return v, ok
}

// getMut applies f to the stored value in place and reports whether the
// key was present. The preempt tier's bounds never change under a pure
// value mutation (no key is added or removed), so no cache is invalidated.
func (p *preemptTier) getMut(key uint32, f func(*uint64)) bool {
	v, ok := p.m[key]
	if !ok {
		return false
	}
	f(&v)
	p.m[key] = v
	return true
}

// insert adds or overwrites key -> value and invalidates the bounds and
// sorted-keys caches (spec.md §4.9: "After any mutation, invalidate
// bounds_valid and set dirty").
func (p *preemptTier) insert(key uint32, value uint64) {
	p.m[key] = value
	p.boundsValid = false
	p.dirty = true
}

// remove deletes key, reporting its prior value if it was present, and
// invalidates the caches exactly like insert.
func (p *preemptTier) remove(key uint32) (uint64, bool) {
	v, ok := p.m[key]
	if !ok {
		return 0, false
	}
	delete(p.m, key)
	p.boundsValid = false
	p.dirty = true
	return v, true
}

// resetEmpty restores the "no entries" state without a full bounds scan,
// used by the façade when a preempt removal is known to have emptied the
// tier.
func (p *preemptTier) resetEmpty() {
	p.min = sentinel
	p.max = 0
	p.boundsValid = true
	p.dirty = false
}

// ensureSorted rebuilds the sorted-keys cache from the map's current keys
// if dirty, and clears dirty. Repeated calls with no intervening mutation
// are idempotent no-ops past the first.
func (p *preemptTier) ensureSorted() {
	if !p.dirty {
		return
	}
	p.sortedKeys = p.sortedKeys[:0]
	for k := range p.m {
		p.sortedKeys = append(p.sortedKeys, k)
	}
	slices.Sort(p.sortedKeys)
	p.dirty = false
}

// updateBounds rescans every key to refresh min/max, used when
// boundsValid is false and a caller needs the extremes.
func (p *preemptTier) updateBounds() {
	if len(p.m) == 0 {
		p.min = sentinel
		p.max = 0
	} else {
		newMin, newMax := sentinel, uint32(0)
		for k := range p.m {
			if k < newMin {
				newMin = k
			}
			if k > newMax {
				newMax = k
			}
		}
		p.min = newMin
		p.max = newMax
	}
	p.boundsValid = true
}
