package bheap

import "testing"

func TestChunkSizeForRequest(t *testing.T) {
	if got := chunkSizeForRequest(0); got != nodeOverhead {
		t.Errorf("chunkSizeForRequest(0) = %d, want %d", got, nodeOverhead)
	}
	if got := chunkSizeForRequest(4); got != nodeOverhead {
		t.Errorf("chunkSizeForRequest(4) = %d, want %d (still under the floor)", got, nodeOverhead)
	}
	if got := chunkSizeForRequest(100); got%chunkAlign != 0 {
		t.Errorf("chunkSizeForRequest(100) = %d not 16-aligned", got)
	}
	if got := chunkSizeForRequest(100); got < 100+fenceOverhead {
		t.Errorf("chunkSizeForRequest(100) = %d too small for payload+fences", got)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	buf := make([]byte, 256)
	base := uintptrOfSlice(buf)

	c := birthFree(base, 64)
	if c.size() != 64 {
		t.Fatalf("size = %d, want 64", c.size())
	}
	if c.used() {
		t.Fatalf("freshly birthed chunk reports used")
	}
	if c.footerSize() != c.size() {
		t.Fatalf("footer size %d != header size %d", c.footerSize(), c.size())
	}

	c.markUsed()
	if !c.used() {
		t.Fatalf("markUsed did not set the used bit")
	}
	if c.footer() == nil || *c.footer()&1 == 0 {
		t.Fatalf("markUsed did not propagate to the footer")
	}

	c.markFree()
	if c.used() {
		t.Fatalf("markFree did not clear the used bit")
	}
}

func TestPayloadAddressing(t *testing.T) {
	buf := make([]byte, 256)
	base := uintptrOfSlice(buf)

	c := birthFree(base, 64)
	c.markUsed()

	p := c.payload()
	back := chunkFromPayload(p)
	if back != c {
		t.Fatalf("chunkFromPayload(chunk.payload()) = %x, want %x", back.addr(), c.addr())
	}
	if c.payloadLen() != 64-2*fenceSize {
		t.Fatalf("payloadLen = %d, want %d", c.payloadLen(), 64-2*fenceSize)
	}
}
