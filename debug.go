// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bheap

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Logger is the package-wide debug sink. It defaults to a disabled
// zerolog.Logger (the zero value behaves like io.Discard), matching the
// teacher's debugMalloc compile-time flag (malloc.go) but as a runtime
// toggle — set it with SetLogger to observe allocate, release, and
// page-source exhaustion events.
var Logger = zerolog.Nop()

// SetLogger replaces the package-wide debug sink.
func SetLogger(l zerolog.Logger) { Logger = l }

func logAllocate(c chunk) {
	Logger.Debug().
		Uint64("addr", uint64(c.addr())).
		Uint64("size", uint64(c.size())).
		Msg("bheap: allocate")
}

func logRelease(c chunk) {
	Logger.Debug().
		Uint64("addr", uint64(c.addr())).
		Uint64("size", uint64(c.size())).
		Msg("bheap: release")
}

func logExpansionFailure(request uintptr) {
	Logger.Debug().
		Uint64("request", uint64(request)).
		Msg("bheap: page source exhausted")
}

// CheckError describes a single invariant violation found by Heap.Check.
type CheckError struct {
	Addr   uintptr
	Detail string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("bheap: invariant violated at 0x%x: %s", e.Addr, e.Detail)
}

// Check walks the heap from the start sentinel to the end sentinel,
// verifying every invariant in spec.md §8:
//
//   - header/footer size and state agree for every chunk;
//   - every size is a multiple of 16 and at least nodeOverhead;
//   - the physical walk reaches exactly the end sentinel;
//   - the free list contains exactly the chunks marked Free, in strictly
//     increasing address order, with no two physically adjacent.
//
// It is the Go counterpart of the teacher's #if DEBUG self-check printf
// helpers (malloc_print_all_chunks et al.), exported so callers can run it
// directly instead of depending on a build tag.
func (h *Heap) Check() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.checkLocked()
}

func (h *Heap) checkLocked() error {
	if h.heapStart == 0 {
		return nil // heap never expanded; trivially consistent
	}

	start := chunkAt(h.heapStart)
	if !start.isSentinel() {
		return &CheckError{Addr: start.addr(), Detail: "start sentinel malformed"}
	}

	freeSet := make(map[uintptr]bool)
	h.free.walk(func(c chunk) { freeSet[c.addr()] = true })

	seen := make(map[uintptr]bool, len(freeSet))
	prevFree := false
	reachedEnd := false

	for c := chunkAt(start.addr() + fenceSize); ; {
		if c.addr() >= h.heapBreak {
			return &CheckError{Addr: c.addr(), Detail: "walk overran heap break without hitting end sentinel"}
		}
		if c.isSentinel() {
			reachedEnd = true
			break
		}

		if c.rawSize()&1 != *c.footer()&1 {
			return &CheckError{Addr: c.addr(), Detail: "header/footer state mismatch"}
		}
		if c.size() != c.footerSize() {
			return &CheckError{Addr: c.addr(), Detail: "header/footer size mismatch"}
		}
		if c.size()%chunkAlign != 0 || c.size() < nodeOverhead {
			return &CheckError{Addr: c.addr(), Detail: "chunk size violates alignment/minimum"}
		}

		isFree := c.free()
		if isFree != freeSet[c.addr()] {
			return &CheckError{Addr: c.addr(), Detail: "free-list membership mismatch"}
		}
		if isFree && prevFree {
			return &CheckError{Addr: c.addr(), Detail: "two physically adjacent Free chunks"}
		}
		prevFree = isFree
		if isFree {
			seen[c.addr()] = true
		}

		c = c.physicalNext()
	}

	if !reachedEnd {
		return &CheckError{Addr: h.heapBreak, Detail: "physical walk never reached end sentinel"}
	}
	if len(seen) < len(freeSet) {
		return &CheckError{Addr: h.heapStart, Detail: "free list references a chunk not on the physical walk"}
	}

	var prevAddr uintptr
	var order error
	h.free.walk(func(c chunk) {
		if order != nil {
			return
		}
		if prevAddr != 0 && c.addr() <= prevAddr {
			order = &CheckError{Addr: c.addr(), Detail: "free list not strictly address-increasing"}
		}
		prevAddr = c.addr()
	})
	return order
}

// Dump writes a human-readable per-chunk listing of the heap to w, in
// physical address order, the Go counterpart of the teacher's
// malloc_print_all_chunks.
func (h *Heap) Dump(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fmt.Fprintf(w, "heap [0x%x, 0x%x)\n", h.heapStart, h.heapBreak)
	if h.heapStart == 0 {
		return
	}

	for c := chunkAt(h.heapStart); ; {
		if c.isSentinel() {
			fmt.Fprintf(w, "  0x%x: sentinel\n", c.addr())
			if c.addr()+fenceSize >= h.heapBreak {
				return
			}
			c = chunkAt(c.addr() + fenceSize)
			continue
		}
		state := "free"
		if c.used() {
			state = "used"
		}
		fmt.Fprintf(w, "  0x%x: %s size=%d footer=%d\n", c.addr(), state, c.size(), c.footerSize())
		c = c.physicalNext()
	}
}
