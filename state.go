// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bheap

import "unsafe"

// birthFree initializes a fresh region of memory (just returned by the
// page source, or split off an existing chunk) as a brand-new Free chunk:
// write matching header/footer, clear the link words. It does not insert
// the chunk into any free list; callers do that explicitly so that birth
// can also be used for the shrunk half of a split, which the caller
// re-inserts at its own chosen point.
func birthFree(base uintptr, size uintptr) chunk {
	c := chunkAt(base)
	c.setSize(size, false)
	c.setPrev(nilChunk)
	c.setNext(nilChunk)
	return c
}

// split carves size bytes off the front of free chunk c, per spec.md
// §4.4. If the residual is too small to ever hold a free node, the whole
// chunk is consumed instead (internal fragmentation absorbed). The
// original free-list entry for c is removed; on a successful split, only
// the residual tail is reinserted — the front piece is about to be
// handed to the caller as a Used chunk, so it is left off the free list
// in both branches. The returned chunk has size==size after a split, or
// the whole chunk's size when it was consumed; either way it is still
// marked Free (the caller transitions it to Used).
func (h *Heap) split(c chunk, size uintptr) chunk {
	total := c.size()
	residual := total - size

	h.free.remove(c)

	if residual < nodeOverhead {
		// Entire chunk consumed; caller will mark it Used at its full size.
		c.setSize(total, false)
		return c
	}

	head := birthFree(c.addr(), size)
	tail := birthFree(c.addr()+size, residual)
	h.free.insert(tail)
	return head
}

// allocateChunk selects a free chunk of at least size bytes (expanding the
// heap on a miss), splits it, and transitions the selected piece to Used.
// It returns nilChunk only when expansion itself fails.
func (h *Heap) allocateChunk(size uintptr) chunk {
	fit := h.free.findFit(size)
	if fit == nilChunk {
		fit = h.expand(size)
		if fit == nilChunk {
			return nilChunk
		}
		// A freshly expanded region always abuts the heap's previous last
		// chunk; if that chunk was Free, it must be fused in before the
		// new region goes on the free list, or invariant 7 (no two
		// adjacent Free chunks) breaks immediately. Fuse-down never
		// applies here: the expanded region's physical successor is
		// always the new end sentinel.
		fit = h.fuseUp(fit)
		h.free.insert(fit)
	}

	c := h.split(fit, size)
	c.markUsed()
	h.stats.liveBytes += int64(c.size())
	h.stats.allocCount++
	return c
}

// releaseChunk transitions a Used chunk back to Free and attempts to fuse
// it with both physical neighbors, per spec.md §4.5.
func (h *Heap) releaseChunk(c chunk) {
	h.stats.liveBytes -= int64(c.size())
	h.stats.freeCount++

	c.markFree()
	c = h.fuseUp(c)
	c = h.fuseDown(c)
	h.free.insert(c)
}

// fuseUp inspects the word immediately before c's header — the previous
// chunk's footer. If the previous chunk is Free, c is absorbed into it and
// the survivor (the previous chunk) is returned, already removed from the
// free list so the caller can safely re-home it. If no fusion happens, c
// is returned unchanged and is NOT on the free list yet.
func (h *Heap) fuseUp(c chunk) chunk {
	prevFooterAddr := c.addr() - fenceSize
	prevFooter := *(*uintptr)(unsafe.Pointer(prevFooterAddr))
	if prevFooter&1 != 0 {
		return c
	}

	prevSize := prevFooter &^ 1
	prev := chunkAt(c.addr() - prevSize)
	h.free.remove(prev)
	combined := prevSize + c.size()
	prev.setSize(combined, false)
	return prev
}

// fuseDown inspects the word immediately after c's footer — the next
// chunk's header. If the next chunk is Free, it is unlinked and absorbed
// into c, which is returned (still not reinserted).
func (h *Heap) fuseDown(c chunk) chunk {
	next := c.physicalNext()
	if next.used() {
		return c
	}
	h.free.remove(next)
	combined := c.size() + next.size()
	c.setSize(combined, false)
	return c
}
