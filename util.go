// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bheap

import "unsafe"

// zeroFill writes n zero bytes starting at p. The Go compiler recognizes
// this byte-clearing loop shape and lowers it to a memclr intrinsic, the
// same optimization the teacher's memclr calls (malloc.go) rely on.
func zeroFill(p unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	b := unsafe.Slice((*byte)(p), n)
	for i := range b {
		b[i] = 0
	}
}

// copyBytes copies n bytes from src to dst. The two ranges backing p and
// the chunk being resized never overlap (Resize always allocates a fresh
// chunk before copying), so a plain copy suffices.
func copyBytes(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	d := unsafe.Slice((*byte)(dst), n)
	s := unsafe.Slice((*byte)(src), n)
	copy(d, s)
}
