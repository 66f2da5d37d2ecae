// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bheap

import "unsafe"

// writeSentinel places a single-word used fence (size field 0, used bit
// set) at addr, per spec.md §3 "Sentinel Fences".
func writeSentinel(addr uintptr) {
	*(*uintptr)(unsafe.Pointer(addr)) = 1
}

// expand requests more pages from the page source, installs sentinel
// fences, and returns a brand-new Free chunk spanning the newly obtained
// region (plus, on the initial call, the region between the two
// sentinels). It does not insert the chunk into the free list — callers
// do that, then attempt a coalesce-up, since an expansion always extends
// beyond every existing chunk and can only ever merge with the heap's
// current last chunk.
//
// Grounded on original_source/malloc.c's malloc_expand, generalized from
// a single-threaded brk() call to the PageSource abstraction.
func (h *Heap) expand(request uintptr) chunk {
	pageSize := h.pages.PageSize()

	if h.heapStart == 0 {
		size := roundUpN(request+fenceOverhead, pageSize)
		base, ok := h.pages.Obtain(size)
		if !ok {
			return nilChunk
		}
		start := uintptr(base)
		h.heapStart = start
		h.heapBreak = start + size

		writeSentinel(start)
		writeSentinel(start + size - fenceSize)

		free := birthFree(start+fenceSize, size-fenceOverhead)
		h.stats.expansions++
		return free
	}

	size := roundUpN(request, pageSize)
	base, ok := h.pages.Obtain(size)
	if !ok {
		return nilChunk
	}
	if uintptr(base) != h.heapBreak {
		// The page source promised contiguity; a well-behaved PageSource
		// never reaches this branch. Treat a violation as exhaustion
		// rather than silently corrupting the heap layout.
		return nilChunk
	}

	// The word that used to be the end sentinel becomes the header of the
	// new free chunk; the new mapping's last word becomes the new end
	// sentinel. HEAP_BREAK advances by exactly size, once (see spec.md
	// §9's note on the source's double-increment being dead code).
	oldSentinel := h.heapBreak - fenceSize
	newEndSentinel := h.heapBreak + size - fenceSize
	writeSentinel(newEndSentinel)
	h.heapBreak += size

	free := birthFree(oldSentinel, size)
	h.stats.expansions++
	return free
}
