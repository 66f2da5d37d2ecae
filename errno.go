// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bheap

import "errors"

// ErrOutOfMemory is returned (and recorded as the Heap's last error) when
// an allocation cannot be satisfied, whether because the page source is
// exhausted or because a zeroed_allocate size computation overflows.
// spec.md §7 treats both as the same "OOM" signal.
var ErrOutOfMemory = errors.New("bheap: out of memory")

// setErr records err as the Heap's last error. Go has no native
// thread-local storage, so this is a per-Heap field rather than a true
// per-thread errno; it is only ever written while h.mu is held, which is
// the same serialization spec.md §5 already requires of every other core
// mutation. See SPEC_FULL.md §2.3 for the rationale.
func (h *Heap) setErr(err error) { h.lastErr = err }

// LastError returns the error recorded by the most recent failing call on
// this Heap (Allocate, ZeroedAllocate, Resize, or their ABI-shaped
// counterparts), or nil if none has failed yet. A later successful
// allocation resets it to nil; Free, and a Resize that returns its input
// pointer unchanged, leave it as it was.
func (h *Heap) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}
