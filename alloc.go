// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bheap

import "unsafe"

const wordBits = 8 * int(wordSize)

// bitWidth returns the number of bits needed to represent n (0 for n==0),
// the same leading-bit count original_source/malloc.c's highest() uses to
// detect calloc's multiplication overflow.
func bitWidth(n uintptr) int {
	w := 0
	for n != 0 {
		w++
		n >>= 1
	}
	return w
}

// Allocate returns a pointer to at least n usable, 16-byte aligned bytes,
// per spec.md §4.7/§6. n may be 0, in which case a minimum-sized block is
// returned. Returns ErrOutOfMemory if the page source is exhausted.
func (h *Heap) Allocate(n uintptr) (unsafe.Pointer, error) {
	size := chunkSizeForRequest(n)

	h.mu.Lock()
	defer h.mu.Unlock()

	c := h.allocateChunk(size)
	if c == nilChunk {
		h.setErr(ErrOutOfMemory)
		logExpansionFailure(n)
		return nil, ErrOutOfMemory
	}
	h.setErr(nil)
	logAllocate(c)
	return c.payload(), nil
}

// ZeroedAllocate computes count*elemSize with overflow detection (per
// spec.md §4.7) and, on success, allocates and zero-fills the payload.
func (h *Heap) ZeroedAllocate(count, elemSize uintptr) (unsafe.Pointer, error) {
	if bitWidth(count)+bitWidth(elemSize) > wordBits {
		h.mu.Lock()
		h.setErr(ErrOutOfMemory)
		h.mu.Unlock()
		return nil, ErrOutOfMemory
	}

	n := count * elemSize
	p, err := h.Allocate(n)
	if err != nil {
		return nil, err
	}

	zeroFill(p, n)

	h.mu.Lock()
	h.stats.zallocCount++
	h.mu.Unlock()

	return p, nil
}

// Resize changes the size of the allocation at p, preserving contents up
// to min(old, new) bytes, per spec.md §4.7. A nil p behaves like
// Allocate(newSize); a newSize of 0 behaves like Free(p) and returns nil.
// On failure the original block is untouched and remains owned by the
// caller.
func (h *Heap) Resize(p unsafe.Pointer, newSize uintptr) (unsafe.Pointer, error) {
	if p == nil {
		return h.Allocate(newSize)
	}
	if newSize == 0 {
		h.Free(p)
		return nil, nil
	}

	c := chunkFromPayload(p)

	h.mu.Lock()
	oldLen := c.payloadLen()
	h.mu.Unlock()

	if oldLen >= newSize {
		return p, nil
	}

	q, err := h.Allocate(newSize)
	if err != nil {
		return nil, err
	}

	copyBytes(q, p, minUintptr(oldLen, newSize))
	h.Free(p)

	h.mu.Lock()
	h.stats.reallocCount++
	h.mu.Unlock()

	return q, nil
}

// Free releases the chunk backing p, coalescing it with any Free physical
// neighbors. Free(nil) is a no-op, per spec.md §4.7/§6.
func (h *Heap) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c := chunkFromPayload(p)
	logRelease(c)
	h.releaseChunk(c)
}

func minUintptr(a, b uintptr) uintptr {
	if a < b {
		return a
	}
	return b
}

// --- ABI-shaped package-level wrappers over DefaultHeap ---

// Malloc is the package-level, ABI-compatible entry point: it behaves
// like Heap.Allocate on DefaultHeap, returning nil (with the failure
// recorded for DefaultHeap().LastError()) instead of an error.
func Malloc(n uintptr) unsafe.Pointer {
	p, err := DefaultHeap().Allocate(n)
	if err != nil {
		return nil
	}
	return p
}

// Calloc is the ABI-compatible counterpart of Heap.ZeroedAllocate.
func Calloc(count, elemSize uintptr) unsafe.Pointer {
	p, err := DefaultHeap().ZeroedAllocate(count, elemSize)
	if err != nil {
		return nil
	}
	return p
}

// Realloc is the ABI-compatible counterpart of Heap.Resize.
func Realloc(p unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	q, err := DefaultHeap().Resize(p, newSize)
	if err != nil {
		return nil
	}
	return q
}

// FreePtr is the ABI-compatible counterpart of Heap.Free. It is not named
// Free at package scope because that would shadow the builtin-adjacent
// convention of naming the function after the C symbol while still
// reading clearly at call sites (bheap.FreePtr(p)).
func FreePtr(p unsafe.Pointer) {
	DefaultHeap().Free(p)
}
