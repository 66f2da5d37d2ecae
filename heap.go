// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bheap implements a general-purpose, in-place, boundary-tag heap
// allocator: a drop-in replacement for a process's dynamic-memory entry
// points, partitioning address-space pages obtained from an external
// PageSource into variable-sized chunks.
//
// The allocator's data structures are:
//
//	chunk:    a capability wrapping a raw address, exposing typed access
//	          to a chunk's boundary tags and (while free) its free-list
//	          links. See chunk.go.
//	freeList: the doubly-linked, address-ordered list of Free chunks.
//	          See freelist.go.
//	Heap:     the process- (or test-) wide allocator state: free-list
//	          head, heap extents, page source, mutex, and counters.
//
// Allocating proceeds: round the request to a chunk size (chunk.go), find
// the first free chunk big enough (freelist.go), expanding the heap via
// the PageSource if none fits (expand.go), then split it and mark the
// front Used (state.go). Freeing reverses this: mark Free, then fuse with
// both physical neighbors before rejoining the free list.
//
// A single mutex serializes every core mutation, matching spec.md §5: the
// allocator is not reentrant and not signal-safe, and the PageSource must
// never call back into a Heap.
package bheap

import "sync"

// Heap is an instantiable boundary-tag allocator. The zero value is not
// usable; construct one with NewHeap.
type Heap struct {
	mu    sync.Mutex
	pages PageSource

	free freeList

	heapStart uintptr
	heapBreak uintptr

	stats heapStats

	lastErr error // approximated thread-local errno, see SPEC_FULL.md §2.3
}

// NewHeap constructs an empty Heap backed by the given PageSource. No
// pages are requested until the first allocation.
func NewHeap(pages PageSource) *Heap {
	return &Heap{pages: pages}
}

// NewOSHeap constructs a Heap backed by real anonymous mmap, suitable for
// production use.
func NewOSHeap() *Heap {
	return NewHeap(NewOSPageSource())
}

var (
	defaultHeapOnce sync.Once
	defaultHeap     *Heap
)

// DefaultHeap returns the process-wide singleton Heap backing the
// package-level Malloc/Calloc/Realloc/FreePtr functions, constructing it on
// first use.
func DefaultHeap() *Heap {
	defaultHeapOnce.Do(func() {
		defaultHeap = NewOSHeap()
	})
	return defaultHeap
}

// NewTestHeap constructs a Heap backed by a deterministic, in-process
// ArenaPageSource of the given capacity (rounded up to a multiple of
// pageSize), for use in tests that want reproducible layouts independent
// of OS mmap behavior.
func NewTestHeap(pageSize, capacity uintptr) *Heap {
	return NewHeap(NewArenaPageSource(pageSize, capacity))
}

// HeapStart reports the address of the heap's start sentinel, or 0 if the
// heap has never been expanded.
func (h *Heap) HeapStart() uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.heapStart
}

// HeapBreak reports the current high-address limit of the heap.
func (h *Heap) HeapBreak() uintptr {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.heapBreak
}
