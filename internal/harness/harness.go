// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package harness implements the end-to-end scenarios from spec.md §8 as
// reusable functions, shared between this module's own tests and the
// bheapdemo CLI (SPEC_FULL.md §3.4/§3.5).
package harness

import (
	"fmt"
	"unsafe"

	"github.com/onemorebyte/bheap"
)

// TinyAllocFree runs spec.md §8 scenario 1: allocate a tiny block, free
// it, and check the heap afterwards.
func TinyAllocFree(h *bheap.Heap) error {
	p, err := h.Allocate(4)
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}
	h.Free(p)
	return h.Check()
}

// VaryingSizeChurn runs spec.md §8 scenario 2: allocate k growing blocks
// via ZeroedAllocate, stamp each with its index, resize each while
// checking the stamp survives, then free everything in allocation order.
// Returns an error on the first inconsistency or invariant breach.
func VaryingSizeChurn(h *bheap.Heap, k int) error {
	blocks := make([]unsafe.Pointer, k)

	for i := 0; i < k; i++ {
		p, err := h.ZeroedAllocate(uintptr(i+1), 8)
		if err != nil {
			return fmt.Errorf("zeroed_allocate(%d): %w", i, err)
		}
		*(*int64)(p) = int64(i)
		blocks[i] = p

		q, err := h.Resize(p, uintptr(8*(i+5)))
		if err != nil {
			return fmt.Errorf("resize(%d): %w", i, err)
		}
		if got := *(*int64)(q); got != int64(i) {
			return fmt.Errorf("block %d: resize lost stamped value, got %d", i, got)
		}
		blocks[i] = q

		if err := h.Check(); err != nil {
			return fmt.Errorf("after block %d: %w", i, err)
		}
	}

	for i, p := range blocks {
		if got := *(*int64)(p); got != int64(i) {
			return fmt.Errorf("block %d: value corrupted before free, got %d", i, got)
		}
		h.Free(p)
	}

	return h.Check()
}

// Coalescing runs spec.md §8 scenario 5: allocate three adjacent blocks,
// free the outer two, then the middle one, and run Check, whose rule that
// no two physically adjacent chunks are both Free fails unless the three
// blocks coalesced into a single free run.
func Coalescing(h *bheap.Heap) error {
	a, err := h.Allocate(32)
	if err != nil {
		return err
	}
	b, err := h.Allocate(32)
	if err != nil {
		return err
	}
	c, err := h.Allocate(32)
	if err != nil {
		return err
	}

	h.Free(a)
	h.Free(c)
	h.Free(b)

	return h.Check()
}

// ExpansionOnDemand runs spec.md §8 scenario 6: allocate a block larger
// than one page, write through its whole length, then free it.
func ExpansionOnDemand(h *bheap.Heap, pageSize uintptr) error {
	n := pageSize * 2
	p, err := h.Allocate(n)
	if err != nil {
		return fmt.Errorf("allocate(%d): %w", n, err)
	}

	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = byte(i)
	}
	for i := range b {
		if b[i] != byte(i) {
			return fmt.Errorf("byte %d corrupted", i)
		}
	}

	h.Free(p)
	return h.Check()
}
