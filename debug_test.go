package bheap

import (
	"bytes"
	"testing"
)

func TestCheckPassesOnFreshHeap(t *testing.T) {
	h := NewTestHeap(4096, 1<<16)
	if err := h.Check(); err != nil {
		t.Fatalf("Check on an unexpanded heap should pass, got %v", err)
	}
}

func TestCheckCatchesSizeMismatch(t *testing.T) {
	h := NewTestHeap(4096, 1<<16)
	c := h.allocateChunk(chunkSizeForRequest(64))
	if c == nilChunk {
		t.Fatal("allocateChunk failed")
	}

	// Corrupt the footer directly to simulate a caller writing past the
	// payload, then confirm Check reports it instead of silently passing.
	*c.footer() = c.rawSize() + 16

	if err := h.Check(); err == nil {
		t.Fatal("Check should have caught the corrupted footer")
	}
}

func TestCheckCatchesAdjacentFreeChunks(t *testing.T) {
	h := NewTestHeap(4096, 1<<16)
	size := chunkSizeForRequest(32)
	a := h.allocateChunk(size)
	b := h.allocateChunk(size)
	if a == nilChunk || b == nilChunk {
		t.Fatal("allocation failed")
	}

	// Mark both chunks Free without going through releaseChunk, bypassing
	// the coalesce step, to simulate a broken fuse path.
	a.markFree()
	b.markFree()
	h.free.insert(a)
	h.free.insert(b)

	if err := h.Check(); err == nil {
		t.Fatal("Check should have caught two physically adjacent Free chunks")
	}
}

func TestDumpRuns(t *testing.T) {
	h := NewTestHeap(4096, 1<<16)
	p, err := h.Allocate(32)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	h.Free(p)

	var buf bytes.Buffer
	h.Dump(&buf)
	if buf.Len() == 0 {
		t.Fatal("Dump wrote nothing")
	}
}
