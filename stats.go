// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bheap

// heapStats holds the mutable counters backing Stats. Fields are only
// ever touched while the owning Heap's mutex is held.
//
// Supplemented from original_source/malloc.c's static debug counters
// (malloc_count, calloc_count, realloc_count, free_count), which
// spec.md's distillation drops as debug-only. Restored here as a plain
// accessor, since no metrics-exporter dependency appears in any real
// source file across the retrieved pack (only in unrelated project
// manifests under other_examples/manifests) — see DESIGN.md.
type heapStats struct {
	allocCount   int64
	zallocCount  int64
	reallocCount int64
	freeCount    int64
	expansions   int64
	liveBytes    int64
}

// Stats is a snapshot of a Heap's lifetime allocation counters.
type Stats struct {
	// Allocations is the number of completed Allocate calls (ZeroedAllocate
	// and the allocation half of Resize both count here too, since all
	// three route through the same allocateChunk).
	Allocations int64
	// ZeroedAllocations is the number of completed ZeroedAllocate calls.
	ZeroedAllocations int64
	// Resizes is the number of completed Resize calls that performed a
	// real reallocation (as opposed to returning the input pointer
	// unchanged).
	Resizes int64
	// Frees is the number of completed Free calls on a non-nil pointer.
	Frees int64
	// Expansions is the number of times the heap requested more pages
	// from its PageSource.
	Expansions int64
	// LiveBytes is the total chunk-size (header+payload+footer) currently
	// marked Used.
	LiveBytes int64
}

// Stats returns a snapshot of h's lifetime allocation counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		Allocations:       h.stats.allocCount,
		ZeroedAllocations: h.stats.zallocCount,
		Resizes:           h.stats.reallocCount,
		Frees:             h.stats.freeCount,
		Expansions:        h.stats.expansions,
		LiveBytes:         h.stats.liveBytes,
	}
}
