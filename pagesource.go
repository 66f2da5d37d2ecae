// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bheap

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PageSource is the external collaborator spec.md §2 describes: it hands
// the allocator contiguous, page-aligned, zeroed memory at the current
// heap break, and advances the break. Obtain is called with the mutex
// held (spec.md §5); implementations must not call back into a Heap.
type PageSource interface {
	// Obtain returns n freshly mapped, zeroed bytes contiguous with the
	// region returned by the previous call (if any), or reports failure.
	// n is always a multiple of PageSize().
	Obtain(n uintptr) (unsafe.Pointer, bool)

	// PageSize returns the granularity Obtain must be called with.
	PageSize() uintptr
}

// osReserveSize is the size of the single virtual-address reservation
// OSPageSource carves pages out of. PROT_NONE anonymous mmap reserves
// address space without committing physical memory, so this bounds the
// heap's total lifetime growth without costing anything up front — the
// same reserve-then-commit shape the teacher's own sysReserve/sysMap
// split (malloc.go) uses, adapted here to a single mmap plus mprotect
// instead of the runtime's platform-specific reservation shims.
const osReserveSize = 1 << 34 // 16 GiB of address space

// OSPageSource is the default PageSource, backed by anonymous mmap. A
// brk-style contiguous break cannot be built out of independent mmap
// calls hinted at an address — without MAP_FIXED the kernel is free to
// ignore the hint, and ASLR makes that the common case, not the
// exception. Instead, OSPageSource reserves one large address range up
// front and commits pages out of it with mprotect, which is trivially
// contiguous by construction.
//
// Grounded on the teacher's sysReserve/sysAlloc/MHeap_SysAlloc
// (malloc.go), generalized from the runtime's private syscall shims to
// golang.org/x/sys/unix, the portable mmap binding used across the
// example pack's systems-level repositories.
type OSPageSource struct {
	once     sync.Once
	pageSize uintptr

	mu          sync.Mutex
	reserveBase uintptr
	reserveSize uintptr
	used        uintptr
}

// NewOSPageSource constructs an OSPageSource. The system page size and
// the address-space reservation are both established lazily, on first
// use, matching spec.md §4.6.
func NewOSPageSource() *OSPageSource { return &OSPageSource{} }

func (s *OSPageSource) PageSize() uintptr {
	s.once.Do(func() {
		s.pageSize = uintptr(unix.Getpagesize())
	})
	return s.pageSize
}

// ensureReserved reserves osReserveSize bytes of address space on first
// call. Must be called with s.mu held.
func (s *OSPageSource) ensureReserved() bool {
	if s.reserveBase != 0 {
		return true
	}
	data, err := unix.Mmap(-1, 0, osReserveSize, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return false
	}
	s.reserveBase = uintptr(unsafe.Pointer(&data[0]))
	s.reserveSize = osReserveSize
	return true
}

// Obtain commits n more bytes out of the reservation, immediately after
// whatever was most recently committed, so the result is always
// contiguous with the region returned by the previous call — the
// property the expander's sentinel-overwrite trick (spec.md §4.6)
// depends on. Returns false once the reservation is exhausted.
func (s *OSPageSource) Obtain(n uintptr) (unsafe.Pointer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ensureReserved() {
		return nil, false
	}
	if s.used+n > s.reserveSize {
		return nil, false
	}

	addr := s.reserveBase + s.used
	region := unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
	if err := unix.Mprotect(region, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return nil, false
	}

	s.used += n
	return unsafe.Pointer(addr), true
}

// ArenaPageSource is a deterministic, in-process PageSource backed by a
// single pre-allocated Go byte slice. It never touches the OS, which makes
// heap behavior reproducible in tests regardless of platform mmap
// quirks — every core test in this module uses it via NewTestHeap.
type ArenaPageSource struct {
	pageSize uintptr
	arena    []byte
	used     uintptr
}

// NewArenaPageSource allocates an arena of capacity bytes (rounded up to a
// multiple of pageSize) to serve Obtain calls from.
func NewArenaPageSource(pageSize, capacity uintptr) *ArenaPageSource {
	capacity = roundUpN(capacity, pageSize)
	return &ArenaPageSource{
		pageSize: pageSize,
		arena:    make([]byte, capacity),
	}
}

func (s *ArenaPageSource) PageSize() uintptr { return s.pageSize }

func (s *ArenaPageSource) Obtain(n uintptr) (unsafe.Pointer, bool) {
	if n%s.pageSize != 0 {
		panic(fmt.Sprintf("bheap: ArenaPageSource.Obtain(%d) not a multiple of page size %d", n, s.pageSize))
	}
	if s.used+n > uintptr(len(s.arena)) {
		return nil, false
	}
	p := unsafe.Pointer(&s.arena[s.used])
	s.used += n
	return p, true
}

func roundUpN(n, m uintptr) uintptr {
	if m == 0 {
		return n
	}
	return (n + m - 1) / m * m
}
