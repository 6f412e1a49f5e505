// Copyright (c) 2025 The Glass Authors
// SPDX-License-Identifier: MIT

package glass

// internalArena owns every internalNode by stable uint32 handle. Handle 0
// is always the permanent root; it is pushed once at construction and is
// never placed on the free list.
type internalArena struct {
	nodes    []internalNode
	freeList []uint32
}

func newInternalArena() internalArena {
	a := internalArena{
		nodes: make([]internalNode, 0, internalArenaCapacity),
	}
	a.nodes = append(a.nodes, newInternalNode()) // root, handle 0
	return a
}

// alloc returns a fresh handle: a reused, freshly-zeroed free-list slot if
// one is available, otherwise a newly appended node.
func (a *internalArena) alloc() uint32 {
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.nodes[idx] = newInternalNode()
		return idx
	}
	idx := uint32(len(a.nodes))
	a.nodes = append(a.nodes, newInternalNode())
	return idx
}

// free returns handle to the pool. The caller must already have detached it
// from every parent/child/sibling reference; a freed handle must never be
// simultaneously reachable from any live node.
func (a *internalArena) free(handle uint32) {
	a.freeList = append(a.freeList, handle)
}

func (a *internalArena) get(handle uint32) *internalNode {
	return &a.nodes[handle]
}

// leafArena owns every leafNode by stable uint32 handle, the same way
// internalArena owns internal nodes.
type leafArena struct {
	nodes    []leafNode
	freeList []uint32
}

func newLeafArena() leafArena {
	return leafArena{nodes: make([]leafNode, 0, leafArenaCapacity)}
}

func (a *leafArena) alloc() uint32 {
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.nodes[idx] = newLeafNode()
		return idx
	}
	idx := uint32(len(a.nodes))
	a.nodes = append(a.nodes, newLeafNode())
	return idx
}

func (a *leafArena) free(handle uint32) {
	a.freeList = append(a.freeList, handle)
}

func (a *leafArena) get(handle uint32) *leafNode {
	return &a.nodes[handle]
}
