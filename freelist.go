// Copyright 2024 The bheap Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bheap

// freeList is a doubly-linked, address-ordered list of free chunks. The
// link words live inside each free chunk's payload (chunk.linkPrev /
// chunk.linkNext); freeList itself only tracks the head.
//
// Grounded on original_source/malloc.c's malloc_list_addr_insert /
// malloc_list_remove, and on the teacher's mspan ring-list idiom
// (mcentral.go's mSpanList_Remove/mSpanList_InsertBack) for the shape of
// the unlink operation.
type freeList struct {
	head chunk // 0 means empty
}

const nilChunk chunk = 0

// findFit performs a first-fit linear scan for the first free chunk whose
// size is at least size. Returns nilChunk on a miss.
func (l *freeList) findFit(size uintptr) chunk {
	for c := l.head; c != nilChunk; c = c.next() {
		if c.size() >= size {
			return c
		}
	}
	return nilChunk
}

// insert splices item into the list at its address-sorted position. A
// duplicate address is treated as a no-op: under correct invariants it
// must never occur, but a defensive check is cheap and matches the
// original's own defensive duplicate check in malloc_list_addr_insert.
func (l *freeList) insert(item chunk) {
	if l.head == nilChunk || item < l.head {
		item.setPrev(nilChunk)
		item.setNext(l.head)
		if l.head != nilChunk {
			l.head.setPrev(item)
		}
		l.head = item
		return
	}

	front := l.head
	for front.next() != nilChunk && front.next() <= item {
		front = front.next()
	}
	if front == item {
		return
	}
	item.setPrev(front)
	item.setNext(front.next())
	front.setNext(item)
	if item.next() != nilChunk {
		item.next().setPrev(item)
	}
}

// remove unlinks node from the list, patching its neighbors.
func (l *freeList) remove(node chunk) {
	if l.head == node {
		l.head = node.next()
		if l.head != nilChunk {
			l.head.setPrev(nilChunk)
		}
		return
	}
	front := l.head
	for front.next() != node {
		front = front.next()
	}
	front.setNext(node.next())
	if node.next() != nilChunk {
		node.next().setPrev(front)
	}
}

// walk calls fn for every chunk currently on the free list, in address
// order. Used by the self-checker (debug.go) to cross-check the free list
// against the physical heap walk.
func (l *freeList) walk(fn func(chunk)) {
	for c := l.head; c != nilChunk; c = c.next() {
		fn(c)
	}
}

// count returns the number of chunks currently on the free list.
func (l *freeList) count() int {
	n := 0
	l.walk(func(chunk) { n++ })
	return n
}
