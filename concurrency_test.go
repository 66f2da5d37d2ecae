package bheap_test

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/onemorebyte/bheap"
)

// TestConcurrentAllocateFree exercises the single-mutex concurrency gate
// (spec.md §5) from many goroutines at once: every allocation must succeed
// and yield a writable block, and the heap must check out clean
// once every goroutine has freed everything it allocated.
func TestConcurrentAllocateFree(t *testing.T) {
	h := bheap.NewTestHeap(4096, 8<<20)

	const goroutines = 32
	const perGoroutine = 200

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		i := i
		g.Go(func() error {
			blocks := make([]unsafe.Pointer, perGoroutine)
			for j := range blocks {
				size := uintptr((i+j)%97 + 1)
				p, err := h.Allocate(size)
				if err != nil {
					return err
				}
				*(*byte)(p) = byte(i)
				blocks[j] = p
			}
			for _, p := range blocks {
				h.Free(p)
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	require.NoError(t, h.Check())
}
