package bheap_test

import (
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/onemorebyte/bheap"
	"github.com/onemorebyte/bheap/internal/harness"
)

func TestAllocateZero(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	p, err := h.Allocate(0)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NoError(t, h.Check())
}

func TestFreeNilIsNoop(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	require.NotPanics(t, func() { h.Free(nil) })
}

func TestResizeNilEqualsAllocate(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	p, err := h.Resize(nil, 64)
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestResizeZeroFreesAndReturnsNil(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	p, err := h.Allocate(64)
	require.NoError(t, err)

	q, err := h.Resize(p, 0)
	require.NoError(t, err)
	require.Nil(t, q)
	require.NoError(t, h.Check())
}

func TestResizeShrinkReturnsSamePointer(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	p, err := h.Allocate(256)
	require.NoError(t, err)

	q, err := h.Resize(p, 8)
	require.NoError(t, err)
	require.Equal(t, p, q, "shrinking (or same-size) resize must return the original pointer")
}

func TestResizePreservesContents(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	p, err := h.Allocate(16)
	require.NoError(t, err)

	b := unsafe.Slice((*byte)(p), 16)
	for i := range b {
		b[i] = byte(i)
	}

	q, err := h.Resize(p, 1024)
	require.NoError(t, err)

	qb := unsafe.Slice((*byte)(q), 16)
	for i := range qb {
		require.Equal(t, byte(i), qb[i], "byte %d", i)
	}
	require.NoError(t, h.Check())
}

func TestZeroedAllocateIsZeroed(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	p, err := h.ZeroedAllocate(8, 8)
	require.NoError(t, err)

	b := unsafe.Slice((*byte)(p), 64)
	for i, v := range b {
		require.Equalf(t, byte(0), v, "byte %d not zero", i)
	}
}

func TestZeroedAllocateOverflowGuard(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	before := h.Stats()

	p, err := h.ZeroedAllocate(math.MaxUint64, 2)
	require.ErrorIs(t, err, bheap.ErrOutOfMemory)
	require.Nil(t, p)

	after := h.Stats()
	require.Equal(t, before, after, "failed overflow guard must not mutate heap state")
}

func TestAllocationsAreSixteenByteAligned(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	for _, n := range []uintptr{0, 1, 7, 8, 9, 31, 32, 1000} {
		p, err := h.Allocate(n)
		require.NoError(t, err)
		require.Zero(t, uintptr(unsafe.Pointer(p))%16, "n=%d", n)
	}
}

func TestTinyAllocFreeScenario(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	require.NoError(t, harness.TinyAllocFree(h))
}

func TestVaryingSizeChurnScenario(t *testing.T) {
	h := bheap.NewTestHeap(4096, 4<<20)
	require.NoError(t, harness.VaryingSizeChurn(h, 500))

	stats := h.Stats()
	require.Equal(t, int64(0), stats.LiveBytes, "heap should be fully drained after freeing every block")
}

func TestCoalescingScenario(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	require.NoError(t, harness.Coalescing(h))
}

func TestExpansionOnDemandScenario(t *testing.T) {
	h := bheap.NewTestHeap(4096, 1<<20)
	require.NoError(t, harness.ExpansionOnDemand(h, 4096))
}

func TestDefaultHeapSingletonABIWrappers(t *testing.T) {
	p := bheap.Malloc(64)
	require.NotNil(t, p)
	defer bheap.FreePtr(p)

	q := bheap.Calloc(4, 8)
	require.NotNil(t, q)
	b := unsafe.Slice((*byte)(q), 32)
	for _, v := range b {
		require.Equal(t, byte(0), v)
	}
	bheap.FreePtr(q)

	r := bheap.Realloc(nil, 16)
	require.NotNil(t, r)
	bheap.FreePtr(r)
}
